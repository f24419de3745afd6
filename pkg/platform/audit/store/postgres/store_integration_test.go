//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "owndrob/pkg/platform/audit"
	auditpg "owndrob/pkg/platform/audit/store/postgres"
	"owndrob/pkg/testutil/containers"
)

func TestAppendAndListBySubject(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	pg := containers.GetManager().GetPostgres(t)
	require.NoError(t, pg.TruncateTables(ctx, "audit_event"))
	store := auditpg.New(pg.DB)

	base := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	claimed := audit.NewEvent(audit.EventOwnershipClaimed, "PK-A", base)
	claimed.ContentID = "bafk-1"
	claimed.Decision = "allowed"
	require.NoError(t, store.Append(ctx, claimed))

	denied := audit.NewEvent(audit.EventOwnershipDenied, "PK-A", base.Add(time.Minute))
	denied.Reason = "supply_exhausted"
	require.NoError(t, store.Append(ctx, denied))
	require.NoError(t, store.Append(ctx, audit.NewEvent(audit.EventIPORPublished, "PK-B", base)))

	events, err := store.ListBySubject(ctx, "PK-A", 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "ownership_denied", events[0].Action)
	assert.Equal(t, audit.CategorySecurity, events[0].Category)
	assert.Equal(t, "supply_exhausted", events[0].Reason)
	assert.Equal(t, "bafk-1", events[1].ContentID)
	assert.True(t, base.Equal(events[1].Timestamp))

	events, err = store.ListBySubject(ctx, "PK-A", 1)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
