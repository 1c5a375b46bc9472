// Package session provides in-memory storage for in-progress report
// workflows. State is scoped to process lifetime: a restart drops every
// session, so callers must treat sessions as best-effort, not authoritative.
package session

import (
	"sync"
	"time"

	"github.com/adelyanov/vigil/internal/domain"
)

// Store holds at most one active session per owner. All methods are safe for
// concurrent use; the dispatcher runs single-threaded today but the store
// must not depend on that.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*domain.Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[int64]*domain.Session),
	}
}

// Start creates a session in the AwaitingLink step, replacing any prior
// session for the owner.
func (s *Store) Start(ownerID int64) *domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := &domain.Session{
		OwnerID:   ownerID,
		Step:      domain.StepAwaitingLink,
		UpdatedAt: time.Now(),
	}
	s.sessions[ownerID] = sess
	return sess
}

// Get returns a copy of the owner's session, or false if none exists.
func (s *Store) Get(ownerID int64) (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[ownerID]
	if !ok {
		return domain.Session{}, false
	}
	return *sess, true
}

// Update applies mutate to the owner's session. It is a deliberate no-op when
// no session exists: callers that need to know must Get first.
func (s *Store) Update(ownerID int64, mutate func(*domain.Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[ownerID]
	if !ok {
		return
	}
	mutate(sess)
	sess.UpdatedAt = time.Now()
}

// End removes the owner's session. Removing an absent session is a no-op.
func (s *Store) End(ownerID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, ownerID)
}

// Len returns the number of active sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle longer than ttl and returns how many it
// dropped. Bounds store growth from abandoned workflows.
func (s *Store) Sweep(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dropped int
	for id, sess := range s.sessions {
		if sess.Expired(ttl) {
			delete(s.sessions, id)
			dropped++
		}
	}
	return dropped
}
