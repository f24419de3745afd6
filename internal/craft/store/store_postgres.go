package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"owndrob/internal/craft/models"
	"owndrob/internal/platform/postgres"
	"owndrob/pkg/platform/sentinel"
)

const craftColumns = `content_id, file_handle, group_id, crafter_identity, supply_limit,
	name, version, description, color, origin, declared_value, label, provider, created_at`

// PostgresStore persists craft rows in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed craft store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create is the commit point of publishing. A duplicate content id surfaces
// as sentinel.ErrAlreadyUsed.
func (s *PostgresStore) Create(ctx context.Context, craft *models.Craft) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO craft (`+craftColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		craft.ContentID, craft.FileHandle, craft.GroupID, craft.CrafterIdentity, craft.SupplyLimit,
		craft.Name, craft.Version, craft.Description, craft.Color, craft.Origin,
		craft.DeclaredValue, craft.Label, craft.Provider, craft.CreatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, "craft_content_id_key") {
			return fmt.Errorf("insert craft %s: %w", craft.ContentID, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert craft: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByContentID(ctx context.Context, contentID string) (*models.Craft, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+craftColumns+` FROM craft WHERE content_id = $1`, contentID)
	c, err := scanCraft(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find craft by content id: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListByCrafter(ctx context.Context, crafter string) ([]*models.Craft, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+craftColumns+` FROM craft
		WHERE crafter_identity = $1
		ORDER BY created_at DESC, content_id`, crafter)
	if err != nil {
		return nil, fmt.Errorf("list crafts by crafter: %w", err)
	}
	return collect(rows)
}

func (s *PostgresStore) ListByContentIDs(ctx context.Context, contentIDs []string) ([]*models.Craft, error) {
	if len(contentIDs) == 0 {
		return []*models.Craft{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+craftColumns+` FROM craft
		WHERE content_id = ANY($1)
		ORDER BY created_at DESC, content_id`, pq.Array(contentIDs))
	if err != nil {
		return nil, fmt.Errorf("list crafts by content ids: %w", err)
	}
	return collect(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCraft(row scanner) (*models.Craft, error) {
	var c models.Craft
	err := row.Scan(
		&c.ContentID, &c.FileHandle, &c.GroupID, &c.CrafterIdentity, &c.SupplyLimit,
		&c.Name, &c.Version, &c.Description, &c.Color, &c.Origin,
		&c.DeclaredValue, &c.Label, &c.Provider, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collect(rows *sql.Rows) ([]*models.Craft, error) {
	defer rows.Close()
	out := []*models.Craft{}
	for rows.Next() {
		c, err := scanCraft(rows)
		if err != nil {
			return nil, fmt.Errorf("scan craft: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate crafts: %w", err)
	}
	return out, nil
}
