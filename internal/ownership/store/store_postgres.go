package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"owndrob/internal/ownership/models"
	"owndrob/internal/platform/postgres"
	"owndrob/pkg/platform/sentinel"
)

// PostgresStore persists claims in PostgreSQL. The supply bound and the
// one-claim-per-claimant rule are enforced by the database, not by reads.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed claim store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CountByContentID(ctx context.Context, contentID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM ownership WHERE content_id = $1`, contentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count claims: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) Exists(ctx context.Context, contentID, claimant string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM ownership WHERE content_id = $1 AND claimant_identity = $2)`,
		contentID, claimant).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check existing claim: %w", err)
	}
	return exists, nil
}

// InsertWithinSupply takes a supply slot and inserts the claim in one
// statement. The slot is taken by a conditional increment of
// craft.claimed_count. A unique violation on the claimant rolls the
// increment back with the rest of the statement. supplyLimit is unused here
// because the bound is read from the craft row under its row lock.
func (s *PostgresStore) InsertWithinSupply(ctx context.Context, claim *models.Claim, _ int) (int, error) {
	var remaining int
	err := s.db.QueryRowContext(ctx, `
		WITH slot AS (
			UPDATE craft
			SET claimed_count = claimed_count + 1
			WHERE content_id = $1 AND claimed_count < supply_limit
			RETURNING content_id, supply_limit - claimed_count AS remaining
		)
		INSERT INTO ownership (content_id, claimant_identity, claim_token, claimed_at,
			ownership_artifact_id, ownership_cid, mirrored_at)
		SELECT slot.content_id, $2, $3, $4, $5, $6, $7 FROM slot
		RETURNING (SELECT remaining FROM slot)`,
		claim.ContentID,
		claim.ClaimantIdentity,
		claim.ClaimToken,
		claim.ClaimedAt,
		nullString(claim.OwnershipArtifactID),
		nullString(claim.OwnershipCID),
		nullTime(claim.MirroredAt),
	).Scan(&remaining)
	if err != nil {
		switch {
		case err == sql.ErrNoRows:
			return 0, sentinel.ErrCapacityExhausted
		case postgres.IsUniqueViolation(err, "ownership_one_claim_per_claimant"):
			return 0, sentinel.ErrAlreadyUsed
		case postgres.IsCheckViolation(err, "craft_claimed_within_supply"):
			return 0, sentinel.ErrCapacityExhausted
		case postgres.IsForeignKeyViolation(err):
			return 0, sentinel.ErrNotFound
		}
		return 0, fmt.Errorf("insert claim: %w", err)
	}
	return remaining, nil
}

const claimSelect = `
	SELECT o.content_id, c.file_handle, o.claimant_identity, o.claim_token::text, o.claimed_at,
		o.ownership_artifact_id, o.ownership_cid, o.mirrored_at, o.mirror_attempts, o.next_mirror_at
	FROM ownership o
	JOIN craft c ON c.content_id = o.content_id`

func (s *PostgresStore) ListByClaimant(ctx context.Context, claimant string) ([]models.Claim, error) {
	rows, err := s.db.QueryContext(ctx, claimSelect+`
		WHERE o.claimant_identity = $1
		ORDER BY o.claimed_at DESC`, claimant)
	if err != nil {
		return nil, fmt.Errorf("list claims by claimant: %w", err)
	}
	return collect(rows)
}

func (s *PostgresStore) ClaimedContentIDs(ctx context.Context, claimant string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT content_id FROM ownership WHERE claimant_identity = $1 ORDER BY claimed_at DESC`, claimant)
	if err != nil {
		return nil, fmt.Errorf("list claimed content ids: %w", err)
	}
	defer rows.Close()
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan content id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate content ids: %w", err)
	}
	return ids, nil
}

// ListPendingMirror returns unmirrored claims whose next attempt is due,
// oldest first. Claims held back by DeferMirror drop out of the page, so a
// claim that keeps failing cannot starve newer ones.
func (s *PostgresStore) ListPendingMirror(ctx context.Context, now time.Time, limit int) ([]models.Claim, error) {
	rows, err := s.db.QueryContext(ctx, claimSelect+`
		WHERE o.ownership_artifact_id IS NULL
			AND (o.next_mirror_at IS NULL OR o.next_mirror_at <= $1)
		ORDER BY o.claimed_at
		LIMIT $2`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending mirrors: %w", err)
	}
	return collect(rows)
}

// DeferMirror counts a failed mirror attempt and holds the claim back until next.
func (s *PostgresStore) DeferMirror(ctx context.Context, claimToken string, next time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE ownership
		SET mirror_attempts = mirror_attempts + 1, next_mirror_at = $2
		WHERE claim_token = $1`,
		claimToken, next)
	if err != nil {
		return fmt.Errorf("defer mirror: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("defer mirror rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// RecordMirror is the only update ever applied to an ownership row, and it
// only fills handles that are still empty.
func (s *PostgresStore) RecordMirror(ctx context.Context, claimToken string, mirror models.Mirror) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE ownership
		SET ownership_artifact_id = $2, ownership_cid = $3, mirrored_at = $4
		WHERE claim_token = $1 AND ownership_artifact_id IS NULL`,
		claimToken, mirror.ArtifactID, mirror.CID, mirror.At)
	if err != nil {
		return false, fmt.Errorf("record mirror: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record mirror rows affected: %w", err)
	}
	return n == 1, nil
}

func collect(rows *sql.Rows) ([]models.Claim, error) {
	defer rows.Close()
	out := []models.Claim{}
	for rows.Next() {
		var (
			c          models.Claim
			artifactID sql.NullString
			cid        sql.NullString
			mirroredAt sql.NullTime
			nextMirror sql.NullTime
		)
		if err := rows.Scan(&c.ContentID, &c.FileHandle, &c.ClaimantIdentity, &c.ClaimToken, &c.ClaimedAt,
			&artifactID, &cid, &mirroredAt, &c.MirrorAttempts, &nextMirror); err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		c.OwnershipArtifactID = artifactID.String
		c.OwnershipCID = cid.String
		if mirroredAt.Valid {
			t := mirroredAt.Time
			c.MirroredAt = &t
		}
		if nextMirror.Valid {
			t := nextMirror.Time
			c.NextMirrorAt = &t
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claims: %w", err)
	}
	return out, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
