//go:build integration

package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"owndrob/internal/oath/models"
	"owndrob/internal/oath/store/identity"
	"owndrob/internal/oath/store/session"
	"owndrob/pkg/platform/sentinel"
	"owndrob/pkg/testutil/containers"
)

type PostgresSessionSuite struct {
	suite.Suite
	postgres   *containers.PostgresContainer
	identities *identity.PostgresStore
	store      *session.PostgresStore
}

func TestPostgresSessionSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresSessionSuite))
}

func (s *PostgresSessionSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.identities = identity.NewPostgres(s.postgres.DB)
	s.store = session.NewPostgres(s.postgres.DB)
}

func (s *PostgresSessionSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "session", "oath"))
	s.Require().NoError(s.identities.Create(ctx, &models.Identity{
		Nickname:  "alice",
		PINHash:   "hash",
		PublicKey: "pk-alice",
		CreatedAt: time.Now().UTC(),
	}))
}

func (s *PostgresSessionSuite) TestIdentityUniqueness() {
	err := s.identities.Create(context.Background(), &models.Identity{
		Nickname: "alice2", PINHash: "hash", PublicKey: "pk-alice", CreatedAt: time.Now().UTC(),
	})
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	found, err := s.identities.FindByNickname(context.Background(), "alice")
	s.Require().NoError(err)
	s.Equal("pk-alice", found.PublicKey)
}

func (s *PostgresSessionSuite) TestLifecycle() {
	ctx := context.Background()
	now := time.Now().UTC()
	sess := &models.Session{ID: uuid.NewString(), Nickname: "alice", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	s.Require().NoError(s.store.Create(ctx, sess))

	found, err := s.store.FindByID(ctx, sess.ID)
	s.Require().NoError(err)
	s.Equal(sess.ID, found.ID)

	s.Require().NoError(s.store.Delete(ctx, sess.ID))
	_, err = s.store.FindByID(ctx, sess.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindByID(ctx, "garbage")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresSessionSuite) TestUnknownNickname() {
	now := time.Now().UTC()
	err := s.store.Create(context.Background(), &models.Session{
		ID: uuid.NewString(), Nickname: "ghost", CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	})
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresSessionSuite) TestRemoveExpired() {
	ctx := context.Background()
	now := time.Now().UTC()
	expired := &models.Session{ID: uuid.NewString(), Nickname: "alice", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	s.Require().NoError(s.store.Create(ctx, expired))

	_, err := s.store.FindByID(ctx, expired.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.RemoveExpiredAt(ctx, now))
	var n int
	s.Require().NoError(s.postgres.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM session`).Scan(&n))
	s.Zero(n)
}
