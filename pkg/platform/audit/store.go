package audit

import "context"

// Store persists audit events for later review.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListBySubject(ctx context.Context, subject string, limit int) ([]Event, error)
}
