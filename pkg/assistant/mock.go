package assistant

import (
	"context"
	"sync"
)

// Mock is a mock implementation of Client for testing.
type Mock struct {
	mu sync.Mutex

	// ReplyFunc overrides the default behavior when set.
	ReplyFunc func(ctx context.Context, req Request) (string, error)

	// Replies are returned in order; the last one repeats.
	Replies []string

	// Err is returned instead of a reply when set.
	Err error

	// Gate, when non-nil, blocks every call until a value is received or
	// the context is done.
	Gate chan struct{}

	// Captured calls for assertions
	Requests []Request

	next     int
	inFlight int
	maxIn    int
}

// NewMock creates a mock that answers with the given replies.
func NewMock(replies ...string) *Mock {
	return &Mock{Replies: replies}
}

// Reply implements Client.
func (m *Mock) Reply(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.inFlight++
	if m.inFlight > m.maxIn {
		m.maxIn = m.inFlight
	}
	gate := m.Gate
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if m.ReplyFunc != nil {
		return m.ReplyFunc(ctx, req)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Replies) == 0 {
		return "mock reply", nil
	}
	reply := m.Replies[m.next]
	if m.next < len(m.Replies)-1 {
		m.next++
	}
	return reply, nil
}

// Name implements Named.
func (m *Mock) Name() string {
	return "mock"
}

// Calls returns the number of Reply calls.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// LastRequest returns the most recent request.
func (m *Mock) LastRequest() (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return Request{}, false
	}
	return m.Requests[len(m.Requests)-1], true
}

// MaxConcurrent returns the highest number of overlapping calls observed.
func (m *Mock) MaxConcurrent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxIn
}

// Release unblocks one gated call.
func (m *Mock) Release() {
	m.Gate <- struct{}{}
}

// Verify Mock implements Client at compile time.
var _ Client = (*Mock)(nil)
