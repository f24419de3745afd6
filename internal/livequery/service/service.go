// Package service answers read-only questions about object store groups.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"owndrob/internal/objectstore"
	dErrors "owndrob/pkg/domain-errors"
	"owndrob/pkg/requestcontext"
)

const defaultUpstreamTimeout = 15 * time.Second

// FileDescriptor is one file in a group listing.
type FileDescriptor struct {
	FileHandle string    `json:"file_handle"`
	Name       string    `json:"name"`
	ContentID  string    `json:"content_id"`
	SizeBytes  int64     `json:"size_bytes"`
	CreatedAt  time.Time `json:"created_at"`
}

type GroupListing struct {
	GroupID    string           `json:"group_id"`
	TotalFiles int              `json:"total_files"`
	Files      []FileDescriptor `json:"files"`
}

type Verification struct {
	Verified     bool       `json:"verified"`
	FileHandle   string     `json:"file_id,omitempty"`
	ContentID    string     `json:"content_id,omitempty"`
	ArtifactName string     `json:"artifact_name,omitempty"`
	UploadedAt   *time.Time `json:"uploaded_at,omitempty"`
	GatewayURL   string     `json:"gateway_url,omitempty"`
}

type Service struct {
	objects         objectstore.Store
	gateway         string
	logger          *slog.Logger
	upstreamTimeout time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithUpstreamTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.upstreamTimeout = d
		}
	}
}

// New builds a Service. gateway is the public IPFS gateway host used to
// build links for verified records.
func New(objects objectstore.Store, gateway string, opts ...Option) (*Service, error) {
	if objects == nil {
		return nil, errors.New("object store is required")
	}
	gateway = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(gateway), "https://"), "/")
	if gateway == "" {
		gateway = "gateway.pinata.cloud"
	}
	s := &Service{
		objects:         objects,
		gateway:         gateway,
		logger:          slog.Default(),
		upstreamTimeout: defaultUpstreamTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) ListGroupFiles(ctx context.Context, groupID string) (*GroupListing, error) {
	files, err := s.list(ctx, groupID)
	if err != nil {
		return nil, err
	}
	out := &GroupListing{GroupID: groupID, TotalFiles: len(files), Files: make([]FileDescriptor, 0, len(files))}
	for _, f := range files {
		out.Files = append(out.Files, describe(f))
	}
	return out, nil
}

// VerifyClaim reports whether fileHandle is attached to groupID. Absence is
// a negative verification, not an error.
func (s *Service) VerifyClaim(ctx context.Context, groupID, fileHandle string) (*Verification, error) {
	fileHandle = strings.TrimSpace(fileHandle)
	if fileHandle == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "fileId is required")
	}
	files, err := s.list(ctx, groupID)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if f.FileHandle != fileHandle {
			continue
		}
		uploaded := f.CreatedAt
		return &Verification{
			Verified:     true,
			FileHandle:   f.FileHandle,
			ContentID:    f.CID,
			ArtifactName: f.Name,
			UploadedAt:   &uploaded,
			GatewayURL:   "https://" + s.gateway + "/ipfs/" + f.CID,
		}, nil
	}
	return &Verification{Verified: false}, nil
}

func (s *Service) list(ctx context.Context, groupID string) ([]objectstore.File, error) {
	groupID = strings.TrimSpace(groupID)
	if groupID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "groupId is required")
	}
	callCtx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
	defer cancel()
	files, err := s.objects.ListGroupFiles(callCtx, groupID)
	if err != nil {
		s.logger.WarnContext(ctx, "group listing failed",
			"request_id", requestcontext.RequestID(ctx),
			"group_id", groupID,
			"category", objectstore.CategoryOf(err),
			"error", err,
		)
		if objectstore.CategoryOf(err) == objectstore.ErrorNotFound {
			return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "group not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUpstreamUnavailable, "object store unavailable")
	}
	return files, nil
}

func describe(f objectstore.File) FileDescriptor {
	return FileDescriptor{
		FileHandle: f.FileHandle,
		Name:       f.Name,
		ContentID:  f.CID,
		SizeBytes:  f.SizeBytes,
		CreatedAt:  f.CreatedAt,
	}
}
