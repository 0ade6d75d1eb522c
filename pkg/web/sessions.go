package web

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-folio/pkg/conversation"
	"github.com/teslashibe/go-folio/pkg/speech"
	"github.com/teslashibe/go-folio/pkg/widget"
)

// reapInterval is how often idle sessions are collected.
const reapInterval = time.Minute

// Session is one chat widget instance: a speech adapter, the turn
// controller driving it and the widget rendering it.
type Session struct {
	ID         string
	Speech     *speech.Adapter
	Controller *conversation.Controller
	Widget     *widget.Widget
	Created    time.Time

	mu          sync.Mutex
	lastSeen    time.Time
	bridge      *Bridge
	unsubscribe func()
}

// Touch marks the session as used.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen, s.bridge != nil
}

// attach makes b the session's browser speech capabilities. A newer
// connection replaces an older one.
func (s *Session) attach(b *Bridge, rec speech.Recognizer, syn speech.Synthesizer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bridge != nil {
		s.Speech.Detach()
		s.bridge = nil
	}
	if err := s.Speech.Attach(rec, syn); err != nil {
		return err
	}
	s.bridge = b
	s.lastSeen = time.Now()
	return nil
}

// bridgeIs reports whether b is the attached bridge.
func (s *Session) bridgeIs(b *Bridge) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bridge == b
}

// detach releases b if it is still attached.
func (s *Session) detach(b *Bridge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bridge != b {
		return
	}
	s.Speech.Detach()
	s.bridge = nil
	s.lastSeen = time.Now()
}

// Close stops the controller and the adapter.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.Controller.Close()
	s.Speech.Close()
}

// SessionFactory builds a session with the given ID.
type SessionFactory func(id string) (*Session, error)

// Sessions is the registry of live chat sessions.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	factory  SessionFactory
	logger   *slog.Logger
}

// NewSessions creates a registry. A zero ttl disables reaping.
func NewSessions(ttl time.Duration, factory SessionFactory, logger *slog.Logger) *Sessions {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sessions{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		factory:  factory,
		logger:   logger.With("component", "sessions"),
	}
}

// Create builds and registers a new session.
func (r *Sessions) Create() (*Session, error) {
	id := uuid.NewString()
	sess, err := r.factory(id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.sessions[id] = sess
	n := len(r.sessions)
	r.mu.Unlock()

	r.logger.Info("session created", "id", id, "sessions", n)
	return sess, nil
}

// Get returns the session and marks it as used.
func (r *Sessions) Get(id string) (*Session, bool) {
	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		sess.Touch()
	}
	return sess, ok
}

// Remove closes and forgets a session.
func (r *Sessions) Remove(id string) bool {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		sess.Close()
		r.logger.Info("session removed", "id", id)
	}
	return ok
}

// Len returns the number of live sessions.
func (r *Sessions) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Reap removes sessions idle for longer than the TTL. Sessions with a
// connected browser are never reaped. It returns the number removed.
func (r *Sessions) Reap(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}

	var expired []*Session
	r.mu.Lock()
	for id, sess := range r.sessions {
		seen, attached := sess.idleSince()
		if attached || now.Sub(seen) < r.ttl {
			continue
		}
		expired = append(expired, sess)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, sess := range expired {
		sess.Close()
		r.logger.Info("session expired", "id", sess.ID)
	}
	return len(expired)
}

// Run reaps idle sessions until ctx is cancelled.
func (r *Sessions) Run(ctx context.Context) {
	ticker := time.NewTicker(reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.Reap(now)
		}
	}
}

// CloseAll closes every session.
func (r *Sessions) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}
