package session

import (
	"context"
	"sync"
	"time"

	"owndrob/internal/oath/models"
	"owndrob/pkg/platform/sentinel"
)

// InMemorySessionStore keeps sessions in process. Expired sessions are pruned
// lazily on lookup.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	now      func() time.Time
}

func New() *InMemorySessionStore {
	return &InMemorySessionStore{
		sessions: make(map[string]*models.Session),
		now:      time.Now,
	}
}

func (s *InMemorySessionStore) Create(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	stored := *session
	s.sessions[session.ID] = &stored
	return nil
}

func (s *InMemorySessionStore) FindByID(_ context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if session.Expired(s.now()) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil, sentinel.ErrNotFound
	}
	out := *session
	return &out, nil
}

// Delete is idempotent.
func (s *InMemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}
