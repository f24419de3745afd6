//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

const redisImage = "redis:7-alpine"

// RedisContainer is a shared Redis for session and sold-out cache suites.
// URL is the redis:// address REDIS_URL would carry.
type RedisContainer struct {
	Container testcontainers.Container
	URL       string
	Client    *redis.Client
}

// NewRedisContainer starts Redis and connects a client to it. The Manager
// owns the container for the whole test binary; Ryuk reaps it afterwards.
func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, redisImage)
	require.NoError(t, err, "start redis container")

	url, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		require.NoError(t, err, "redis connection string")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		_ = container.Terminate(ctx)
		require.NoError(t, err, "parse redis url")
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		_ = container.Terminate(ctx)
		require.NoError(t, err, "ping redis")
	}
	return &RedisContainer{Container: container, URL: url, Client: client}
}

// Reset drops every key so suites start from an empty keyspace.
func (r *RedisContainer) Reset(ctx context.Context) error {
	return r.Client.FlushDB(ctx).Err()
}
