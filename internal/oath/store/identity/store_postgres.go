package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"owndrob/internal/oath/models"
	"owndrob/internal/platform/postgres"
	"owndrob/pkg/platform/sentinel"
)

// PostgresStore persists identities in the oath table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, identity *models.Identity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO oath (unique_nickname, pin_hash, recovery_hash, public_key, private_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		identity.Nickname, identity.PINHash, identity.RecoveryHash,
		identity.PublicKey, identity.PrivateKey, identity.CreatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, "") {
			return fmt.Errorf("insert identity %s: %w", identity.Nickname, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByNickname(ctx context.Context, nickname string) (*models.Identity, error) {
	var identity models.Identity
	err := s.db.QueryRowContext(ctx, `
		SELECT unique_nickname, pin_hash, recovery_hash, public_key, private_key, created_at
		FROM oath WHERE unique_nickname = $1`, nickname,
	).Scan(&identity.Nickname, &identity.PINHash, &identity.RecoveryHash,
		&identity.PublicKey, &identity.PrivateKey, &identity.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find identity by nickname: %w", err)
	}
	return &identity, nil
}
