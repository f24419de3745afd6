// Package compliance persists registry and security audit events to a
// durable store. Writes are synchronous and failures are returned to the
// caller.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	audit "owndrob/pkg/platform/audit"
)

// Publisher writes audit events to an audit.Store. Operational events are
// skipped; they only go to the streaming sink.
type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures the Publisher.
type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit persists event when its category is registry or security.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Action == "" {
		return errors.New("audit event requires an action")
	}
	category := audit.AuditEvent(event.Action).Category()
	if category == audit.CategoryOperations {
		return nil
	}
	event.Category = category
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	start := time.Now()
	if err := p.store.Append(ctx, event); err != nil {
		p.metrics.IncPersistFailures()
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "audit persistence failed",
				"action", event.Action,
				"subject", event.Subject,
				"error", err,
			)
		}
		return fmt.Errorf("persist audit event: %w", err)
	}
	p.metrics.ObservePersist(time.Since(start).Seconds())
	return nil
}
