package lockout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"owndrob/internal/oath/models"
)

// PostgresStore persists lockout records in the signin_lockout table. It is
// pure I/O; thresholds belong to the lockout service.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, key string) (*models.Lockout, error) {
	record, err := scanLockout(s.db.QueryRowContext(ctx, `
		SELECT identifier, failure_count, locked_until, last_failure_at
		FROM signin_lockout
		WHERE identifier = $1
	`, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get signin lockout: %w", err)
	}
	return record, nil
}

// RecordFailure increments atomically so concurrent failures cannot slip
// under the threshold.
func (s *PostgresStore) RecordFailure(ctx context.Context, key string, now time.Time, window time.Duration) (*models.Lockout, error) {
	record, err := scanLockout(s.db.QueryRowContext(ctx, `
		INSERT INTO signin_lockout (identifier, failure_count, locked_until, last_failure_at)
		VALUES ($1, 1, NULL, $2)
		ON CONFLICT (identifier) DO UPDATE SET
			failure_count = CASE
				WHEN signin_lockout.last_failure_at <= $3 THEN 1
				ELSE signin_lockout.failure_count + 1
			END,
			last_failure_at = $2
		RETURNING identifier, failure_count, locked_until, last_failure_at
	`, key, now, now.Add(-window)))
	if err != nil {
		return nil, fmt.Errorf("record signin failure: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) Lock(ctx context.Context, key string, until time.Time) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE signin_lockout SET locked_until = $2 WHERE identifier = $1`, key, until); err != nil {
		return fmt.Errorf("lock signin: %w", err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM signin_lockout WHERE identifier = $1`, key); err != nil {
		return fmt.Errorf("clear signin lockout: %w", err)
	}
	return nil
}

type lockoutRow interface {
	Scan(dest ...any) error
}

func scanLockout(row lockoutRow) (*models.Lockout, error) {
	var record models.Lockout
	var lockedUntil sql.NullTime
	if err := row.Scan(&record.Identifier, &record.FailureCount, &lockedUntil, &record.LastFailureAt); err != nil {
		return nil, err
	}
	if lockedUntil.Valid {
		record.LockedUntil = &lockedUntil.Time
	}
	return &record, nil
}
