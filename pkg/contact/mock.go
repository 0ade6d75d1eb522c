package contact

import (
	"context"
	"fmt"
	"sync"
)

// MockMailer is a mock implementation of Mailer for testing.
type MockMailer struct {
	mu   sync.Mutex
	sent []Email

	// Err is returned from Send when set.
	Err error
}

// NewMockMailer creates a mock mailer.
func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

// Send implements Mailer.
func (m *MockMailer) Send(ctx context.Context, email Email) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	m.sent = append(m.sent, email)
	return fmt.Sprintf("mock-%d", len(m.sent)), nil
}

// Sent returns all delivered emails.
func (m *MockMailer) Sent() []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Email(nil), m.sent...)
}

var _ Mailer = (*MockMailer)(nil)
