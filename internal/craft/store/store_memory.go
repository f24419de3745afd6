package store

import (
	"context"
	"sort"
	"sync"

	"owndrob/internal/craft/models"
	"owndrob/pkg/platform/sentinel"
)

// InMemoryStore keeps craft rows in process memory.
type InMemoryStore struct {
	mu     sync.RWMutex
	crafts map[string]models.Craft
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{crafts: make(map[string]models.Craft)}
}

// Create inserts a craft row. A second row for the same content id is rejected.
func (s *InMemoryStore) Create(_ context.Context, craft *models.Craft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.crafts[craft.ContentID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.crafts[craft.ContentID] = *craft
	return nil
}

func (s *InMemoryStore) FindByContentID(_ context.Context, contentID string) (*models.Craft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.crafts[contentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &c, nil
}

func (s *InMemoryStore) ListByCrafter(_ context.Context, crafter string) ([]*models.Craft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Craft
	for _, c := range s.crafts {
		if c.CrafterIdentity == crafter {
			c := c
			out = append(out, &c)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemoryStore) ListByContentIDs(_ context.Context, contentIDs []string) ([]*models.Craft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Craft, 0, len(contentIDs))
	seen := make(map[string]struct{}, len(contentIDs))
	for _, id := range contentIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if c, ok := s.crafts[id]; ok {
			out = append(out, &c)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

// Count returns the number of stored rows.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.crafts)
}

func sortNewestFirst(crafts []*models.Craft) {
	sort.SliceStable(crafts, func(i, j int) bool {
		if crafts[i].CreatedAt.Equal(crafts[j].CreatedAt) {
			return crafts[i].ContentID < crafts[j].ContentID
		}
		return crafts[i].CreatedAt.After(crafts[j].CreatedAt)
	})
}
