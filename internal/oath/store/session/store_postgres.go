package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"owndrob/internal/oath/models"
	"owndrob/internal/platform/postgres"
	"owndrob/pkg/platform/sentinel"
)

// PostgresStore persists sessions in the session table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, session *models.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session (id, unique_nickname, client, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)`,
		session.ID, session.Nickname, session.Client, session.CreatedAt, session.ExpiresAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, "") {
			return fmt.Errorf("insert session: %w", sentinel.ErrAlreadyUsed)
		}
		if postgres.IsForeignKeyViolation(err) {
			return fmt.Errorf("insert session: %w", sentinel.ErrNotFound)
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// FindByID treats malformed ids and expired rows as missing.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, sentinel.ErrNotFound
	}
	var session models.Session
	err := s.db.QueryRowContext(ctx, `
		SELECT id::text, unique_nickname, client, created_at, expires_at
		FROM session WHERE id = $1 AND expires_at > NOW()`, id,
	).Scan(&session.ID, &session.Nickname, &session.Client, &session.CreatedAt, &session.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &session, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// StartCleanup removes expired sessions on every tick until ctx is done.
func (s *PostgresStore) StartCleanup(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.RemoveExpiredAt(ctx, time.Now()); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *PostgresStore) RemoveExpiredAt(ctx context.Context, now time.Time) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session WHERE expires_at <= $1`, now); err != nil {
		return fmt.Errorf("cleanup sessions: %w", err)
	}
	return nil
}
