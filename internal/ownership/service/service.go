package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks ClaimStore,CraftReader,SoldOutCache,AuditPublisher

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	craftmodels "owndrob/internal/craft/models"
	"owndrob/internal/objectstore"
	"owndrob/internal/ownership/metrics"
	"owndrob/internal/ownership/models"
	dErrors "owndrob/pkg/domain-errors"
	"owndrob/pkg/platform/audit"
	"owndrob/pkg/platform/sentinel"
	"owndrob/pkg/requestcontext"
)

const (
	defaultUpstreamTimeout = 15 * time.Second
	defaultWriteTimeout    = 5 * time.Second
	maxIdentityLength      = 512
)

// ClaimStore persists claims. InsertWithinSupply must make the supply and
// uniqueness checks atomic with the insert, returning
// sentinel.ErrCapacityExhausted or sentinel.ErrAlreadyUsed on denial.
type ClaimStore interface {
	CountByContentID(ctx context.Context, contentID string) (int, error)
	Exists(ctx context.Context, contentID, claimant string) (bool, error)
	InsertWithinSupply(ctx context.Context, claim *models.Claim, supplyLimit int) (int, error)
	ListByClaimant(ctx context.Context, claimant string) ([]models.Claim, error)
	RecordMirror(ctx context.Context, claimToken string, mirror models.Mirror) (bool, error)
}

type CraftReader interface {
	FindByContentID(ctx context.Context, contentID string) (*craftmodels.Craft, error)
}

type SoldOutCache interface {
	MarkSoldOut(ctx context.Context, contentID string) error
	IsSoldOut(ctx context.Context, contentID string) (bool, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the admission controller for ownership claims.
type Service struct {
	claims          ClaimStore
	crafts          CraftReader
	objects         objectstore.Store
	soldOut         SoldOutCache
	logger          *slog.Logger
	auditPublisher  AuditPublisher
	metrics         *metrics.Metrics
	tracer          trace.Tracer
	upstreamTimeout time.Duration
	writeTimeout    time.Duration
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

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithSoldOutCache(c SoldOutCache) Option {
	return func(s *Service) {
		s.soldOut = c
	}
}

// WithUpstreamTimeout bounds each object store call made while mirroring.
func WithUpstreamTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.upstreamTimeout = d
		}
	}
}

// WithWriteTimeout bounds the claim insert, which outlives request cancellation.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// New constructs a Service.
func New(claims ClaimStore, crafts CraftReader, objects objectstore.Store, opts ...Option) (*Service, error) {
	if claims == nil {
		return nil, errors.New("claim store is required")
	}
	if crafts == nil {
		return nil, errors.New("craft reader is required")
	}
	if objects == nil {
		return nil, errors.New("object store is required")
	}
	s := &Service{
		claims:          claims,
		crafts:          crafts,
		objects:         objects,
		logger:          slog.Default(),
		tracer:          otel.Tracer("owndrob/ownership"),
		upstreamTimeout: defaultUpstreamTimeout,
		writeTimeout:    defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CheckAdmission reports whether claimant could claim contentID right now.
// It never writes a claim.
func (s *Service) CheckAdmission(ctx context.Context, contentID, claimant string) (models.Decision, error) {
	contentID, claimant, err := normalize(contentID, claimant)
	if err != nil {
		return models.Decision{}, err
	}
	_, denial, err := s.precheck(ctx, contentID, claimant)
	if err != nil {
		return models.Decision{}, err
	}
	if denial != "" {
		return models.Deny(denial), nil
	}
	return models.Allow(), nil
}

// Claim admits claimant as an owner of contentID if a supply slot is free
// and the claimant holds none yet.
func (s *Service) Claim(ctx context.Context, contentID, claimant string) (*models.ClaimResult, error) {
	start := time.Now()
	defer s.metrics.ObserveClaim(start)
	ctx, span := s.tracer.Start(ctx, "ownership.Claim")
	defer span.End()

	contentID, claimant, err := normalize(contentID, claimant)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("ownership.content_id", contentID))

	craft, denial, err := s.precheck(ctx, contentID, claimant)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "precheck")
		return nil, err
	}
	if denial != "" {
		return s.deny(ctx, span, contentID, claimant, denial, "precheck"), nil
	}

	claim := &models.Claim{
		ContentID:        craft.ContentID,
		FileHandle:       craft.FileHandle,
		ClaimantIdentity: claimant,
		ClaimToken:       uuid.NewString(),
		ClaimedAt:        models.ClaimTime(requestcontext.Now(ctx)),
	}

	mirror, mirrorErr := s.MirrorClaim(ctx, *claim, craft.GroupID)
	s.metrics.IncrementMirror("claim", mirrorErr == nil)
	if mirrorErr == nil {
		at := mirror.At
		claim.OwnershipArtifactID = mirror.ArtifactID
		claim.OwnershipCID = mirror.CID
		claim.MirroredAt = &at
	} else {
		s.logger.WarnContext(ctx, "ownership mirror deferred",
			"request_id", requestcontext.RequestID(ctx),
			"content_id", contentID,
			"claim_token", claim.ClaimToken,
			"error", mirrorErr,
		)
	}

	// A committed claim must not be lost to a client disconnect.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancel()
	remaining, err := s.claims.InsertWithinSupply(writeCtx, claim, craft.SupplyLimit)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrCapacityExhausted):
			s.markSoldOut(ctx, contentID)
			return s.deny(ctx, span, contentID, claimant, models.ReasonSupplyExhausted, "insert"), nil
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			return s.deny(ctx, span, contentID, claimant, models.ReasonAlreadyClaimed, "insert"), nil
		case errors.Is(err, sentinel.ErrNotFound):
			return s.deny(ctx, span, contentID, claimant, models.ReasonArtifactNotFound, "insert"), nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert")
		s.logger.ErrorContext(ctx, "claim write failed",
			"request_id", requestcontext.RequestID(ctx),
			"content_id", contentID,
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record ownership")
	}
	if remaining <= 0 {
		s.markSoldOut(ctx, contentID)
	}

	s.metrics.IncrementAdmitted()
	s.logger.InfoContext(ctx, "ownership claimed",
		"log_type", "audit",
		"request_id", requestcontext.RequestID(ctx),
		"content_id", contentID,
		"claimant", claimant,
		"claim_token", claim.ClaimToken,
		"remaining_supply", remaining,
		"mirror_pending", claim.MirrorPending(),
	)
	s.emit(ctx, audit.EventOwnershipClaimed, claimant, contentID, "allowed", "")

	return &models.ClaimResult{
		Allowed:             true,
		ClaimToken:          claim.ClaimToken,
		OwnershipArtifactID: claim.OwnershipArtifactID,
		OwnershipCID:        claim.OwnershipCID,
		MirrorPending:       claim.MirrorPending(),
	}, nil
}

// ListClaims returns the claims held by claimant, newest first.
func (s *Service) ListClaims(ctx context.Context, claimant string) ([]models.Claim, error) {
	claimant = strings.TrimSpace(claimant)
	if claimant == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "public_key is required")
	}
	claims, err := s.claims.ListByClaimant(ctx, claimant)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list ownerships")
	}
	return claims, nil
}

// MirrorClaim uploads the ownership record for claim and attaches it to the
// artifact's group. The record bytes depend only on the claim, so a retry
// yields the same CID.
func (s *Service) MirrorClaim(ctx context.Context, claim models.Claim, groupID string) (models.Mirror, error) {
	body, err := models.RecordFor(claim).Encode()
	if err != nil {
		return models.Mirror{}, err
	}

	upCtx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
	upload, err := s.objects.Upload(upCtx, "ownership-"+claim.ClaimToken, body)
	cancel()
	if err != nil {
		return models.Mirror{}, err
	}

	attachCtx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
	defer cancel()
	results, err := s.objects.AddFilesToGroup(attachCtx, groupID, []string{upload.FileHandle})
	if err != nil {
		return models.Mirror{}, err
	}
	for _, r := range results {
		if r.FileHandle == upload.FileHandle && r.Status != objectstore.StatusOK {
			return models.Mirror{}, objectstore.NewError(objectstore.ErrorBadData, objectstore.OpAddFiles, "ownership record not attached: "+r.Status, nil)
		}
	}
	return models.Mirror{ArtifactID: upload.FileHandle, CID: upload.CID, At: time.Now().UTC()}, nil
}

// RecordMirror stores mirror handles for a claim that was admitted without them.
func (s *Service) RecordMirror(ctx context.Context, claim models.Claim, mirror models.Mirror) (bool, error) {
	updated, err := s.claims.RecordMirror(ctx, claim.ClaimToken, mirror)
	if err != nil {
		return false, err
	}
	if updated {
		s.emit(ctx, audit.EventOwnershipMirrored, claim.ClaimantIdentity, claim.ContentID, "", "")
	}
	return updated, nil
}

// precheck loads the craft and applies the fast-reject checks. It returns a
// denial reason, or "" when a claim may be attempted.
func (s *Service) precheck(ctx context.Context, contentID, claimant string) (*craftmodels.Craft, models.Reason, error) {
	craft, err := s.crafts.FindByContentID(ctx, contentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, models.ReasonArtifactNotFound, nil
		}
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load ipor")
	}

	if s.soldOut != nil {
		sold, err := s.soldOut.IsSoldOut(ctx, contentID)
		if err != nil {
			s.logger.WarnContext(ctx, "sold-out lookup failed", "content_id", contentID, "error", err)
		} else if sold {
			return craft, models.ReasonSupplyExhausted, nil
		}
	}

	count, err := s.claims.CountByContentID(ctx, contentID)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to count ownerships")
	}
	if count >= craft.SupplyLimit {
		s.markSoldOut(ctx, contentID)
		return craft, models.ReasonSupplyExhausted, nil
	}

	held, err := s.claims.Exists(ctx, contentID, claimant)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to check ownership")
	}
	if held {
		return craft, models.ReasonAlreadyClaimed, nil
	}
	return craft, "", nil
}

func (s *Service) deny(ctx context.Context, span trace.Span, contentID, claimant string, reason models.Reason, stage string) *models.ClaimResult {
	s.metrics.IncrementDenied(string(reason))
	span.SetAttributes(attribute.String("ownership.denied", string(reason)))
	s.logger.InfoContext(ctx, "ownership denied",
		"log_type", "audit",
		"request_id", requestcontext.RequestID(ctx),
		"content_id", contentID,
		"claimant", claimant,
		"reason", reason,
		"stage", stage,
	)
	s.emit(ctx, audit.EventOwnershipDenied, claimant, contentID, "denied", string(reason))
	return models.Denied(reason)
}

func (s *Service) markSoldOut(ctx context.Context, contentID string) {
	if s.soldOut == nil {
		return
	}
	if err := s.soldOut.MarkSoldOut(ctx, contentID); err != nil {
		s.logger.WarnContext(ctx, "sold-out mark failed", "content_id", contentID, "error", err)
	}
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, subject, contentID, decision, reason string) {
	if s.auditPublisher == nil {
		return
	}
	event := audit.NewEvent(action, subject, requestcontext.Now(ctx))
	event.ContentID = contentID
	event.Decision = decision
	event.Reason = reason
	event.RequestID = requestcontext.RequestID(ctx)
	audit.Emit(ctx, s.auditPublisher, s.logger, event)
}

func normalize(contentID, claimant string) (string, string, error) {
	contentID = strings.TrimSpace(contentID)
	claimant = strings.TrimSpace(claimant)
	if contentID == "" {
		return "", "", dErrors.New(dErrors.CodeValidation, "metadata_cid is required")
	}
	if claimant == "" {
		return "", "", dErrors.New(dErrors.CodeValidation, "public key is required")
	}
	if len(contentID) > maxIdentityLength || len(claimant) > maxIdentityLength {
		return "", "", dErrors.New(dErrors.CodeValidation, "identifier too long")
	}
	return contentID, claimant, nil
}
