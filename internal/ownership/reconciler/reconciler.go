// Package reconciler mirrors ownership records for claims that were admitted
// while the object store was unavailable.
package reconciler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	craftmodels "owndrob/internal/craft/models"
	"owndrob/internal/ownership/metrics"
	"owndrob/internal/ownership/models"
)

const (
	defaultInterval   = 30 * time.Second
	defaultBatchSize  = 50
	defaultMaxBackoff = time.Hour
)

// PendingLister pages through unmirrored claims. DeferMirror takes a failed
// claim off the page until next, so one bad claim cannot hold back the rest.
type PendingLister interface {
	ListPendingMirror(ctx context.Context, now time.Time, limit int) ([]models.Claim, error)
	DeferMirror(ctx context.Context, claimToken string, next time.Time) error
}

type CraftReader interface {
	FindByContentID(ctx context.Context, contentID string) (*craftmodels.Craft, error)
}

// Mirrorer uploads a claim's record and stores the resulting handles.
type Mirrorer interface {
	MirrorClaim(ctx context.Context, claim models.Claim, groupID string) (models.Mirror, error)
	RecordMirror(ctx context.Context, claim models.Claim, mirror models.Mirror) (bool, error)
}

// Result summarises one reconcile pass.
type Result struct {
	Pending  int
	Mirrored int
	Failed   int
}

type Reconciler struct {
	claims     PendingLister
	crafts     CraftReader
	mirrorer   Mirrorer
	logger     *slog.Logger
	metrics    *metrics.Metrics
	interval   time.Duration
	batchSize  int
	maxBackoff time.Duration
	now        func() time.Time
}

type Option func(*Reconciler)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Reconciler) {
		r.metrics = m
	}
}

func WithInterval(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithMaxBackoff caps the delay before a failing claim is retried.
func WithMaxBackoff(d time.Duration) Option {
	return func(r *Reconciler) {
		if d > 0 {
			r.maxBackoff = d
		}
	}
}

func New(claims PendingLister, crafts CraftReader, mirrorer Mirrorer, opts ...Option) (*Reconciler, error) {
	if claims == nil || crafts == nil || mirrorer == nil {
		return nil, errors.New("reconciler requires claim store, craft reader and mirrorer")
	}
	r := &Reconciler{
		claims:     claims,
		crafts:     crafts,
		mirrorer:   mirrorer,
		logger:     slog.Default(),
		interval:   defaultInterval,
		batchSize:  defaultBatchSize,
		maxBackoff: defaultMaxBackoff,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run reconciles on every tick until ctx is done. A failed pass is logged and
// retried on the next tick.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
				r.logger.ErrorContext(ctx, "mirror reconcile pass failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce mirrors up to one batch of pending claims. Per-claim failures are
// counted, not returned; only a failure to list the backlog is an error.
func (r *Reconciler) RunOnce(ctx context.Context) (Result, error) {
	now := r.now()
	pending, err := r.claims.ListPendingMirror(ctx, now, r.batchSize)
	if err != nil {
		return Result{}, err
	}
	res := Result{Pending: len(pending)}
	r.metrics.SetMirrorBacklog(len(pending))

	for _, claim := range pending {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		if err := r.reconcile(ctx, claim); err != nil {
			res.Failed++
			r.metrics.IncrementMirror("reconciler", false)
			next := now.Add(r.backoff(claim.MirrorAttempts))
			r.logger.WarnContext(ctx, "ownership mirror retry failed",
				"content_id", claim.ContentID,
				"claim_token", claim.ClaimToken,
				"attempts", claim.MirrorAttempts+1,
				"next_attempt_at", next,
				"error", err,
			)
			if err := r.claims.DeferMirror(ctx, claim.ClaimToken, next); err != nil {
				r.logger.ErrorContext(ctx, "failed to defer mirror retry",
					"claim_token", claim.ClaimToken,
					"error", err,
				)
			}
			continue
		}
		res.Mirrored++
		r.metrics.IncrementMirror("reconciler", true)
	}
	if res.Pending > 0 {
		r.logger.InfoContext(ctx, "mirror reconcile pass",
			"pending", res.Pending,
			"mirrored", res.Mirrored,
			"failed", res.Failed,
		)
	}
	return res, nil
}

// backoff doubles the tick interval per prior failure, capped at maxBackoff.
func (r *Reconciler) backoff(attempts int) time.Duration {
	d := r.interval
	for i := 0; i < attempts && d < r.maxBackoff; i++ {
		d *= 2
	}
	return min(d, r.maxBackoff)
}

func (r *Reconciler) reconcile(ctx context.Context, claim models.Claim) error {
	craft, err := r.crafts.FindByContentID(ctx, claim.ContentID)
	if err != nil {
		return err
	}
	mirror, err := r.mirrorer.MirrorClaim(ctx, claim, craft.GroupID)
	if err != nil {
		return err
	}
	// false means another pass got there first; the upload was idempotent.
	_, err = r.mirrorer.RecordMirror(ctx, claim, mirror)
	return err
}
