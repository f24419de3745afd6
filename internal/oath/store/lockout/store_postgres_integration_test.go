//go:build integration

package lockout_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"owndrob/internal/oath/store/lockout"
	"owndrob/pkg/testutil/containers"
)

func TestPostgresLockoutStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	pg := containers.GetManager().GetPostgres(t)
	require.NoError(t, pg.TruncateTables(ctx, "signin_lockout"))
	store := lockout.NewPostgres(pg.DB)

	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

	record, err := store.Get(ctx, "alice|10.0.0.1")
	require.NoError(t, err)
	assert.Nil(t, record)

	var wg sync.WaitGroup
	for range 10 {
		wg.Go(func() {
			_, err := store.RecordFailure(ctx, "alice|10.0.0.1", now, 15*time.Minute)
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	record, err = store.Get(ctx, "alice|10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 10, record.FailureCount, "increments are atomic")

	record, err = store.RecordFailure(ctx, "alice|10.0.0.1", now.Add(time.Hour), 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, record.FailureCount, "window restarts")

	require.NoError(t, store.Lock(ctx, "alice|10.0.0.1", now.Add(2*time.Hour)))
	record, err = store.Get(ctx, "alice|10.0.0.1")
	require.NoError(t, err)
	assert.True(t, record.IsLockedAt(now.Add(time.Hour)))

	require.NoError(t, store.Clear(ctx, "alice|10.0.0.1"))
	record, err = store.Get(ctx, "alice|10.0.0.1")
	require.NoError(t, err)
	assert.Nil(t, record)
}
