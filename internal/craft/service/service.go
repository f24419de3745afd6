package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks CraftStore,ClaimIndex,AuditPublisher

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"owndrob/internal/craft/metrics"
	"owndrob/internal/craft/models"
	"owndrob/internal/objectstore"
	dErrors "owndrob/pkg/domain-errors"
	"owndrob/pkg/platform/audit"
	"owndrob/pkg/platform/sentinel"
	strutil "owndrob/pkg/platform/strings"
	"owndrob/pkg/requestcontext"
)

// Publish steps, reported in errors, logs and metrics.
const (
	StepValidate    = "validate"
	StepUpload      = "upload"
	StepCreateGroup = "create_group"
	StepAttach      = "attach"
	StepIndex       = "index"
)

const defaultUpstreamTimeout = 15 * time.Second

type CraftStore interface {
	Create(ctx context.Context, craft *models.Craft) error
	FindByContentID(ctx context.Context, contentID string) (*models.Craft, error)
	ListByCrafter(ctx context.Context, crafter string) ([]*models.Craft, error)
	ListByContentIDs(ctx context.Context, contentIDs []string) ([]*models.Craft, error)
}

// ClaimIndex resolves which artifacts an identity holds claims on.
type ClaimIndex interface {
	ClaimedContentIDs(ctx context.Context, claimant string) ([]string, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service runs the issuance pipeline: upload, group, attach, then index.
// The index insert is the commit point. Earlier steps are not compensated.
type Service struct {
	crafts          CraftStore
	objects         objectstore.Store
	claims          ClaimIndex
	logger          *slog.Logger
	auditPublisher  AuditPublisher
	metrics         *metrics.Metrics
	tracer          trace.Tracer
	upstreamTimeout time.Duration
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

func WithClaimIndex(claims ClaimIndex) Option {
	return func(s *Service) {
		s.claims = claims
	}
}

// WithUpstreamTimeout bounds each object store call.
func WithUpstreamTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.upstreamTimeout = d
		}
	}
}

// New constructs a Service.
func New(crafts CraftStore, objects objectstore.Store, opts ...Option) (*Service, error) {
	if crafts == nil {
		return nil, errors.New("craft store is required")
	}
	if objects == nil {
		return nil, errors.New("object store is required")
	}
	s := &Service{
		crafts:          crafts,
		objects:         objects,
		logger:          slog.Default(),
		tracer:          otel.Tracer("owndrob/craft"),
		upstreamTimeout: defaultUpstreamTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Publish issues a new provenance record.
func (s *Service) Publish(ctx context.Context, meta models.Metadata) (*models.PublishResult, error) {
	start := time.Now()
	defer s.metrics.ObservePublish(start)
	ctx, span := s.tracer.Start(ctx, "craft.Publish")
	defer span.End()

	meta.Normalize()
	if err := meta.Validate(); err != nil {
		s.fail(ctx, span, StepValidate, meta, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("craft.name", meta.Name), attribute.Int("craft.supply_limit", meta.SupplyLimit))

	body, err := json.Marshal(meta.Document())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode metadata")
	}

	upload, err := s.upload(ctx, meta.Name, body)
	if err != nil {
		s.fail(ctx, span, StepUpload, meta, err)
		return nil, dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "publish failed at step upload")
	}
	span.SetAttributes(attribute.String("craft.content_id", upload.CID))

	group, err := s.createGroup(ctx, meta.Name)
	if err != nil {
		s.fail(ctx, span, StepCreateGroup, meta, err)
		s.orphaned(ctx, "upload", "content_id", upload.CID, "file_handle", upload.FileHandle)
		return nil, dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "publish failed at step create_group")
	}

	if err := s.attach(ctx, group.ID, upload.FileHandle); err != nil {
		s.fail(ctx, span, StepAttach, meta, err)
		s.orphaned(ctx, "upload", "content_id", upload.CID, "file_handle", upload.FileHandle)
		s.orphaned(ctx, "group", "group_id", group.ID)
		return nil, dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "publish failed at step attach")
	}

	craft, err := models.NewCraft(meta, upload.CID, upload.FileHandle, group.ID, requestcontext.Now(ctx).UTC())
	if err != nil {
		return nil, err
	}
	if err := s.crafts.Create(ctx, craft); err != nil {
		s.fail(ctx, span, StepIndex, meta, err)
		s.orphaned(ctx, "upload", "content_id", upload.CID, "file_handle", upload.FileHandle)
		s.orphaned(ctx, "group", "group_id", group.ID)
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.Wrap(err, dErrors.CodeIndexWriteFailed, "publish failed at step index: content already published as "+upload.CID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeIndexWriteFailed, "publish failed at step index")
	}

	s.metrics.IncrementPublished()
	s.logger.InfoContext(ctx, "ipor published",
		"log_type", "audit",
		"request_id", requestcontext.RequestID(ctx),
		"content_id", craft.ContentID,
		"group_id", craft.GroupID,
		"crafter", craft.CrafterIdentity,
		"supply_limit", craft.SupplyLimit,
	)
	s.emit(ctx, audit.EventIPORPublished, craft.CrafterIdentity, craft.ContentID, "")

	return &models.PublishResult{
		ContentID:  craft.ContentID,
		FileHandle: craft.FileHandle,
		GroupID:    craft.GroupID,
	}, nil
}

// Get returns the craft indexed under contentID.
func (s *Service) Get(ctx context.Context, contentID string) (*models.Craft, error) {
	craft, err := s.crafts.FindByContentID(ctx, contentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "ipor not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load ipor")
	}
	return craft, nil
}

// ListByCrafter returns every craft published by crafter, newest first.
func (s *Service) ListByCrafter(ctx context.Context, crafter string) ([]*models.Craft, error) {
	if crafter == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "public_key is required")
	}
	crafts, err := s.crafts.ListByCrafter(ctx, crafter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list crafter ipors")
	}
	return crafts, nil
}

// ListByOwner returns the crafts claimant holds ownership claims on.
func (s *Service) ListByOwner(ctx context.Context, claimant string) ([]*models.Craft, error) {
	if claimant == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "public_key is required")
	}
	if s.claims == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "ownership index not configured")
	}
	ids, err := s.claims.ClaimedContentIDs(ctx, claimant)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list ownerships")
	}
	ids = strutil.DedupeAndTrim(ids)
	if len(ids) == 0 {
		return []*models.Craft{}, nil
	}
	crafts, err := s.crafts.ListByContentIDs(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list owner ipors")
	}
	return crafts, nil
}

func (s *Service) upload(ctx context.Context, name string, body []byte) (objectstore.Upload, error) {
	ctx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
	defer cancel()
	return s.objects.Upload(ctx, name, body)
}

func (s *Service) createGroup(ctx context.Context, name string) (objectstore.Group, error) {
	ctx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
	defer cancel()
	return s.objects.CreateGroup(ctx, name)
}

func (s *Service) attach(ctx context.Context, groupID, fileHandle string) error {
	ctx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
	defer cancel()
	results, err := s.objects.AddFilesToGroup(ctx, groupID, []string{fileHandle})
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.FileHandle == fileHandle && r.Status != objectstore.StatusOK {
			return objectstore.NewError(objectstore.ErrorBadData, objectstore.OpAddFiles, "file not attached: "+r.Status, nil)
		}
	}
	return nil
}

func (s *Service) fail(ctx context.Context, span trace.Span, step string, meta models.Metadata, err error) {
	s.metrics.IncrementFailed(step)
	span.RecordError(err)
	span.SetStatus(codes.Error, step)
	level := slog.LevelWarn
	if step == StepIndex {
		level = slog.LevelError
	}
	s.logger.Log(ctx, level, "publish failed",
		"request_id", requestcontext.RequestID(ctx),
		"step", step,
		"name", meta.Name,
		"crafter", meta.Crafter,
		"error", err,
	)
	if step != StepValidate {
		s.emit(ctx, audit.EventPublishFailed, meta.Crafter, "", step)
	}
}

// orphaned logs an object store resource that no index row will reference.
func (s *Service) orphaned(ctx context.Context, kind string, attrs ...any) {
	s.metrics.IncrementOrphan(kind)
	args := append([]any{"request_id", requestcontext.RequestID(ctx), "kind", kind}, attrs...)
	s.logger.WarnContext(ctx, "publish left orphaned object", args...)
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, subject, contentID, reason string) {
	if s.auditPublisher == nil {
		return
	}
	event := audit.NewEvent(action, subject, requestcontext.Now(ctx))
	event.ContentID = contentID
	event.Reason = reason
	event.RequestID = requestcontext.RequestID(ctx)
	audit.Emit(ctx, s.auditPublisher, s.logger, event)
}
