package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// LogPublisher writes audit events as structured log lines. It is the sink
// used when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	p.logger.InfoContext(ctx, event.Action,
		"log_type", "audit",
		"category", event.Category,
		"subject", event.Subject,
		"content_id", event.ContentID,
		"decision", event.Decision,
		"reason", event.Reason,
		"request_id", event.RequestID,
	)
	return nil
}

// Emit sends event to publisher and logs, rather than returns, delivery
// failures. Audit delivery never fails the business operation here.
func Emit(ctx context.Context, publisher Publisher, logger *slog.Logger, event Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Emit(ctx, event); err != nil && logger != nil {
		logger.WarnContext(ctx, "audit emit failed",
			"action", event.Action,
			"error", err,
		)
	}
}

// Multi fans an event out to every publisher. All publishers are attempted;
// their errors are joined.
type Multi []Publisher

func (m Multi) Emit(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
