// Package lockout throttles PIN guessing. After too many failed sign-ins
// within a window, a nickname is locked for one client address.
package lockout

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"owndrob/internal/oath/models"
	dErrors "owndrob/pkg/domain-errors"
	"owndrob/pkg/platform/audit"
	"owndrob/pkg/requestcontext"
)

// Store is the persistence the lockout service needs.
type Store interface {
	Get(ctx context.Context, key string) (*models.Lockout, error)
	RecordFailure(ctx context.Context, key string, now time.Time, window time.Duration) (*models.Lockout, error)
	Lock(ctx context.Context, key string, until time.Time) error
	Clear(ctx context.Context, key string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Policy sets the lockout thresholds.
type Policy struct {
	Attempts     int
	Window       time.Duration
	LockDuration time.Duration
}

func DefaultPolicy() Policy {
	return Policy{Attempts: 5, Window: 15 * time.Minute, LockDuration: 15 * time.Minute}
}

type Service struct {
	store          Store
	policy         Policy
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithPolicy overrides thresholds; zero fields keep their defaults.
func WithPolicy(p Policy) Option {
	return func(s *Service) {
		if p.Attempts > 0 {
			s.policy.Attempts = p.Attempts
		}
		if p.Window > 0 {
			s.policy.Window = p.Window
		}
		if p.LockDuration > 0 {
			s.policy.LockDuration = p.LockDuration
		}
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("lockout store is required")
	}
	s := &Service{
		store:  store,
		policy: DefaultPolicy(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Check returns CodeTooManyRequests while the nickname is locked for the
// calling client.
func (s *Service) Check(ctx context.Context, nickname, clientIP string) error {
	record, err := s.store.Get(ctx, models.LockoutKey(nickname, clientIP))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read sign-in lockout")
	}
	if record != nil && record.IsLockedAt(requestcontext.Now(ctx)) {
		return dErrors.New(dErrors.CodeTooManyRequests, "Too many failed sign-in attempts. Try again later.")
	}
	return nil
}

// RecordFailure counts one failed sign-in and locks once the threshold is hit.
func (s *Service) RecordFailure(ctx context.Context, nickname, clientIP string) error {
	now := requestcontext.Now(ctx)
	key := models.LockoutKey(nickname, clientIP)
	record, err := s.store.RecordFailure(ctx, key, now, s.policy.Window)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record sign-in failure")
	}
	if record.FailureCount < s.policy.Attempts || record.IsLockedAt(now) {
		return nil
	}

	until := now.Add(s.policy.LockDuration)
	if err := s.store.Lock(ctx, key, until); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to lock sign-in")
	}
	s.logger.WarnContext(ctx, "signin locked",
		"log_type", "audit",
		"request_id", requestcontext.RequestID(ctx),
		"nickname", nickname,
		"failures", record.FailureCount,
		"locked_until", until,
	)
	if s.auditPublisher != nil {
		event := audit.NewEvent(audit.EventSigninLocked, nickname, now)
		event.Reason = "too_many_failures"
		event.RequestID = requestcontext.RequestID(ctx)
		audit.Emit(ctx, s.auditPublisher, s.logger, event)
	}
	return nil
}

// Clear forgets failures after a successful sign-in.
func (s *Service) Clear(ctx context.Context, nickname, clientIP string) error {
	if err := s.store.Clear(ctx, models.LockoutKey(nickname, clientIP)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear sign-in lockout")
	}
	return nil
}
