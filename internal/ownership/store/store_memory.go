package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"owndrob/internal/ownership/models"
	"owndrob/pkg/platform/sentinel"
)

// bucket holds the claims of one artifact. Its mutex makes the supply and
// uniqueness checks atomic with the insert.
type bucket struct {
	mu     sync.Mutex
	claims map[string]*models.Claim
}

// InMemoryStore keeps claims in process memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	buckets map[string]*bucket
	tokens  map[string]*models.Claim
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		buckets: make(map[string]*bucket),
		tokens:  make(map[string]*models.Claim),
	}
}

func (s *InMemoryStore) bucketFor(contentID string) *bucket {
	s.mu.RLock()
	b, ok := s.buckets[contentID]
	s.mu.RUnlock()
	if ok {
		return b
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok = s.buckets[contentID]; ok {
		return b
	}
	b = &bucket{claims: make(map[string]*models.Claim)}
	s.buckets[contentID] = b
	return b
}

func (s *InMemoryStore) CountByContentID(_ context.Context, contentID string) (int, error) {
	b := s.bucketFor(contentID)
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.claims), nil
}

func (s *InMemoryStore) Exists(_ context.Context, contentID, claimant string) (bool, error) {
	b := s.bucketFor(contentID)
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.claims[claimant]
	return ok, nil
}

// InsertWithinSupply admits claim only while fewer than supplyLimit claims
// exist and the claimant holds none. It returns the slots left afterwards.
func (s *InMemoryStore) InsertWithinSupply(_ context.Context, claim *models.Claim, supplyLimit int) (int, error) {
	b := s.bucketFor(claim.ContentID)
	b.mu.Lock()
	if _, ok := b.claims[claim.ClaimantIdentity]; ok {
		b.mu.Unlock()
		return 0, sentinel.ErrAlreadyUsed
	}
	if len(b.claims) >= supplyLimit {
		b.mu.Unlock()
		return 0, sentinel.ErrCapacityExhausted
	}
	stored := *claim
	b.claims[claim.ClaimantIdentity] = &stored
	remaining := supplyLimit - len(b.claims)
	b.mu.Unlock()

	s.mu.Lock()
	s.tokens[stored.ClaimToken] = &stored
	s.mu.Unlock()
	return remaining, nil
}

func (s *InMemoryStore) ListByClaimant(_ context.Context, claimant string) ([]models.Claim, error) {
	s.mu.RLock()
	buckets := make([]*bucket, 0, len(s.buckets))
	for _, b := range s.buckets {
		buckets = append(buckets, b)
	}
	s.mu.RUnlock()

	out := []models.Claim{}
	for _, b := range buckets {
		b.mu.Lock()
		if c, ok := b.claims[claimant]; ok {
			out = append(out, *c)
		}
		b.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClaimedAt.After(out[j].ClaimedAt) })
	return out, nil
}

func (s *InMemoryStore) ClaimedContentIDs(ctx context.Context, claimant string) ([]string, error) {
	claims, err := s.ListByClaimant(ctx, claimant)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(claims))
	for _, c := range claims {
		ids = append(ids, c.ContentID)
	}
	return ids, nil
}

// ListPendingMirror returns up to limit claims without mirror handles whose
// next attempt is due at now, oldest first.
func (s *InMemoryStore) ListPendingMirror(_ context.Context, now time.Time, limit int) ([]models.Claim, error) {
	s.mu.RLock()
	claims := make([]*models.Claim, 0, len(s.tokens))
	for _, c := range s.tokens {
		claims = append(claims, c)
	}
	s.mu.RUnlock()

	out := []models.Claim{}
	for _, c := range claims {
		b := s.bucketFor(c.ContentID)
		b.mu.Lock()
		if c.MirrorPending() && c.MirrorDue(now) {
			out = append(out, *c)
		}
		b.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClaimedAt.Before(out[j].ClaimedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeferMirror counts a failed mirror attempt and holds the claim back until next.
func (s *InMemoryStore) DeferMirror(_ context.Context, claimToken string, next time.Time) error {
	s.mu.RLock()
	c, ok := s.tokens[claimToken]
	s.mu.RUnlock()
	if !ok {
		return sentinel.ErrNotFound
	}
	b := s.bucketFor(c.ContentID)
	b.mu.Lock()
	defer b.mu.Unlock()
	if !c.MirrorPending() {
		return nil
	}
	c.MirrorAttempts++
	c.NextMirrorAt = &next
	return nil
}

// RecordMirror fills the mirror handles of a pending claim. It reports false
// when the claim already had handles.
func (s *InMemoryStore) RecordMirror(_ context.Context, claimToken string, mirror models.Mirror) (bool, error) {
	s.mu.RLock()
	c, ok := s.tokens[claimToken]
	s.mu.RUnlock()
	if !ok {
		return false, sentinel.ErrNotFound
	}
	b := s.bucketFor(c.ContentID)
	b.mu.Lock()
	defer b.mu.Unlock()
	if !c.MirrorPending() {
		return false, nil
	}
	at := mirror.At
	c.OwnershipArtifactID = mirror.ArtifactID
	c.OwnershipCID = mirror.CID
	c.MirroredAt = &at
	return true, nil
}
