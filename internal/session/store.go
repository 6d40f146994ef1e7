package session

import (
	"context"
	"errors"
	"sync"
)

// ErrNotFound indicates that no session exists for the user.
var ErrNotFound = errors.New("session not found")

// Store defines the persistence contract for sessions.
type Store interface {
	Get(ctx context.Context, userID string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, userID string) error
	All(ctx context.Context) ([]*Session, error)
}

// MemoryStore keeps sessions in a process-local map.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore builds an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

// Get returns a copy of the stored session or ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, userID string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *sess
	return &copied, nil
}

// Save stores a copy of the session keyed by user id.
func (s *MemoryStore) Save(ctx context.Context, session *Session) error {
	if session == nil || session.UserID == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *session
	s.sessions[session.UserID] = &copied
	return nil
}

// Delete removes the session for the user. Idempotent.
func (s *MemoryStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, userID)
	return nil
}

// All returns copies of every stored session.
func (s *MemoryStore) All(ctx context.Context) ([]*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		copied := *sess
		out = append(out, &copied)
	}
	return out, nil
}
