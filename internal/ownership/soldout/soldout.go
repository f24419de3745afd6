// Package soldout caches which artifacts have used up their supply.
//
// Claims are never revoked and supply limits never change, so once an
// artifact is observed exhausted it stays exhausted. Markers therefore carry
// no TTL. The cache only short-circuits denials; the database remains the
// authority on admission.
package soldout

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var lookupDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "owndrob_soldout_lookup_duration_ms",
	Help:    "Latency of sold-out marker lookups in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

const keyPrefix = "owndrob:soldout:"

// RedisCache shares markers across instances.
type RedisCache struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) MarkSoldOut(ctx context.Context, contentID string) error {
	if contentID == "" {
		return nil
	}
	return c.client.Set(ctx, keyPrefix+contentID, "1", 0).Err()
}

func (c *RedisCache) IsSoldOut(ctx context.Context, contentID string) (bool, error) {
	start := time.Now()
	defer func() {
		lookupDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if contentID == "" {
		return false, nil
	}
	_, err := c.client.Get(ctx, keyPrefix+contentID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MemoryCache keeps markers in process.
type MemoryCache struct {
	mu      sync.RWMutex
	markers map[string]struct{}
}

func NewMemory() *MemoryCache {
	return &MemoryCache{markers: make(map[string]struct{})}
}

func (c *MemoryCache) MarkSoldOut(_ context.Context, contentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markers[contentID] = struct{}{}
	return nil
}

func (c *MemoryCache) IsSoldOut(_ context.Context, contentID string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.markers[contentID]
	return ok, nil
}
