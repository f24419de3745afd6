package lockout

import (
	"context"
	"sync"
	"time"

	"owndrob/internal/oath/models"
)

// InMemoryStore keeps lockout records in process memory.
type InMemoryStore struct {
	mu      sync.Mutex
	records map[string]*models.Lockout
}

func New() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*models.Lockout)}
}

// Get returns nil, nil when no failures are recorded.
func (s *InMemoryStore) Get(_ context.Context, key string) (*models.Lockout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

// RecordFailure increments the failure count, restarting it when the last
// failure is older than window.
func (s *InMemoryStore) RecordFailure(_ context.Context, key string, now time.Time, window time.Duration) (*models.Lockout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[key]
	if !ok {
		r = &models.Lockout{Identifier: key}
		s.records[key] = r
	}
	if now.Sub(r.LastFailureAt) >= window {
		r.FailureCount = 0
	}
	r.FailureCount++
	r.LastFailureAt = now
	cp := *r
	return &cp, nil
}

func (s *InMemoryStore) Lock(_ context.Context, key string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.records[key]; ok {
		r.LockedUntil = &until
	}
	return nil
}

func (s *InMemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}
