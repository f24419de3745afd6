package identity

import (
	"context"
	"sync"

	"owndrob/internal/oath/models"
	"owndrob/pkg/platform/sentinel"
)

// InMemoryStore keeps identities in process, unique by nickname and by public key.
type InMemoryStore struct {
	mu          sync.RWMutex
	byNickname  map[string]*models.Identity
	byPublicKey map[string]string
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byNickname:  make(map[string]*models.Identity),
		byPublicKey: make(map[string]string),
	}
}

func (s *InMemoryStore) Create(_ context.Context, identity *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byNickname[identity.Nickname]; ok {
		return sentinel.ErrAlreadyUsed
	}
	if _, ok := s.byPublicKey[identity.PublicKey]; ok {
		return sentinel.ErrAlreadyUsed
	}
	stored := *identity
	s.byNickname[identity.Nickname] = &stored
	s.byPublicKey[identity.PublicKey] = identity.Nickname
	return nil
}

func (s *InMemoryStore) FindByNickname(_ context.Context, nickname string) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.byNickname[nickname]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *identity
	return &out, nil
}
