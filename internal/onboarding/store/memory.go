package store

import (
	"context"
	"sync"

	"onboard/internal/onboarding/models"
	"onboard/pkg/platform/sentinel"
)

// InMemorySessionStore implements SessionStore with a mutex-guarded map.
// Used by unit tests and single-process development; production deployments
// use the Redis or Postgres store.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

// NewMemory creates an empty in-memory session store.
func NewMemory() *InMemorySessionStore {
	return &InMemorySessionStore{
		sessions: make(map[string]*models.Session),
	}
}

// Save upserts the session keyed by its token. Sessions without a token are
// not persisted; there is nothing to restore them by.
func (s *InMemorySessionStore) Save(ctx context.Context, session *models.Session) error {
	if session.Token == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *session
	s.sessions[session.Token] = &copied
	return nil
}

// FindByToken returns a copy of the stored session.
func (s *InMemorySessionStore) FindByToken(ctx context.Context, token string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[token]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *session
	return &copied, nil
}

// DeleteByToken removes the stored session. Idempotent.
func (s *InMemorySessionStore) DeleteByToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}
