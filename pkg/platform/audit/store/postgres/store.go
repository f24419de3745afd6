package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	audit "owndrob/pkg/platform/audit"
)

const defaultListLimit = 100

// Store persists audit events to the audit_event table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append inserts one event. The category is derived from the action so
// stored rows never disagree with the category map.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	category := audit.AuditEvent(event.Action).Category()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_event (
			id, category, action, subject, content_id,
			decision, reason, request_id, occurred_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		uuid.New(),
		string(category),
		event.Action,
		event.Subject,
		event.ContentID,
		event.Decision,
		event.Reason,
		event.RequestID,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListBySubject returns up to limit events for subject, newest first.
func (s *Store) ListBySubject(ctx context.Context, subject string, limit int) ([]audit.Event, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, action, subject, content_id, decision, reason, request_id, occurred_at
		FROM audit_event
		WHERE subject = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`, subject, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var e audit.Event
		var category string
		if err := rows.Scan(&category, &e.Action, &e.Subject, &e.ContentID, &e.Decision, &e.Reason, &e.RequestID, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Category = audit.EventCategory(category)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
