package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"owndrob/internal/craft/models"
	"owndrob/internal/craft/service/mocks"
	craftstore "owndrob/internal/craft/store"
	"owndrob/internal/objectstore"
	objectmemory "owndrob/internal/objectstore/memory"
	objectmocks "owndrob/internal/objectstore/mocks"
	dErrors "owndrob/pkg/domain-errors"
	"owndrob/pkg/platform/audit"
	"owndrob/pkg/platform/sentinel"
)

// =============================================================================
// Issuance Pipeline Test Suite
// =============================================================================
// Unit tests pin the step ordering, the error code for each failing step and
// the absence of writes when validation fails. Scenario tests run the real
// in-memory stores to check content addressing across retries.

type PublishSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	crafts  *mocks.MockCraftStore
	objects *objectmocks.MockStore
	auditor *mocks.MockAuditPublisher
	service *Service
	ctx     context.Context
}

func TestPublishSuite(t *testing.T) {
	suite.Run(t, new(PublishSuite))
}

func (s *PublishSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.crafts = mocks.NewMockCraftStore(s.ctrl)
	s.objects = objectmocks.NewMockStore(s.ctrl)
	s.auditor = mocks.NewMockAuditPublisher(s.ctrl)
	s.ctx = context.Background()
	var err error
	s.service, err = New(s.crafts, s.objects,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.auditor),
	)
	s.Require().NoError(err)
}

func (s *PublishSuite) TearDownTest() {
	s.ctrl.Finish()
}

func metadata() models.Metadata {
	return models.Metadata{Name: "Walnut Chair", Version: "1", SupplyLimit: 2, Crafter: "pk-crafter"}
}

func (s *PublishSuite) TestNew() {
	s.Run("nil craft store", func() {
		_, err := New(nil, s.objects)
		s.ErrorContains(err, "craft store is required")
	})
	s.Run("nil object store", func() {
		_, err := New(s.crafts, nil)
		s.ErrorContains(err, "object store is required")
	})
}

func (s *PublishSuite) TestZeroSupplyRejectedWithoutWrites() {
	meta := metadata()
	meta.SupplyLimit = 0

	// no EXPECT on either store: any call fails the test
	_, err := s.service.Publish(s.ctx, meta)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *PublishSuite) TestHappyPath() {
	gomock.InOrder(
		s.objects.EXPECT().Upload(gomock.Any(), "Walnut Chair", gomock.Any()).
			Return(objectstore.Upload{CID: "bafk1", FileHandle: "f1"}, nil),
		s.objects.EXPECT().CreateGroup(gomock.Any(), "Walnut Chair").
			Return(objectstore.Group{ID: "g1", Name: "Walnut Chair"}, nil),
		s.objects.EXPECT().AddFilesToGroup(gomock.Any(), "g1", []string{"f1"}).
			Return([]objectstore.AddResult{{FileHandle: "f1", Status: objectstore.StatusOK}}, nil),
		s.crafts.EXPECT().Create(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, c *models.Craft) error {
				s.Equal("bafk1", c.ContentID)
				s.Equal("g1", c.GroupID)
				s.Equal(2, c.SupplyLimit)
				return nil
			}),
	)
	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
		s.Equal(string(audit.EventIPORPublished), e.Action)
		s.Equal("bafk1", e.ContentID)
		return nil
	})

	res, err := s.service.Publish(s.ctx, metadata())
	s.Require().NoError(err)
	s.Equal(&models.PublishResult{ContentID: "bafk1", FileHandle: "f1", GroupID: "g1"}, res)
}

func (s *PublishSuite) TestUpstreamFailuresStopThePipeline() {
	outage := objectstore.NewError(objectstore.ErrorOutage, "x", "down", nil)

	s.Run("upload", func() {
		s.objects.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).Return(objectstore.Upload{}, outage)
		s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)
		_, err := s.service.Publish(s.ctx, metadata())
		s.True(dErrors.HasCode(err, dErrors.CodeUpstreamUnavailable))
		s.Contains(err.Error(), "upload")
	})

	s.Run("create group", func() {
		s.objects.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).Return(objectstore.Upload{CID: "c", FileHandle: "f"}, nil)
		s.objects.EXPECT().CreateGroup(gomock.Any(), gomock.Any()).Return(objectstore.Group{}, outage)
		s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)
		_, err := s.service.Publish(s.ctx, metadata())
		s.True(dErrors.HasCode(err, dErrors.CodeUpstreamUnavailable))
		s.Contains(err.Error(), "create_group")
	})

	s.Run("attach", func() {
		s.objects.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).Return(objectstore.Upload{CID: "c", FileHandle: "f"}, nil)
		s.objects.EXPECT().CreateGroup(gomock.Any(), gomock.Any()).Return(objectstore.Group{ID: "g"}, nil)
		s.objects.EXPECT().AddFilesToGroup(gomock.Any(), "g", []string{"f"}).Return(nil, outage)
		s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)
		_, err := s.service.Publish(s.ctx, metadata())
		s.True(dErrors.HasCode(err, dErrors.CodeUpstreamUnavailable))
		s.Contains(err.Error(), "attach")
	})
}

func (s *PublishSuite) TestIndexWriteFailure() {
	s.objects.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).Return(objectstore.Upload{CID: "c", FileHandle: "f"}, nil).Times(2)
	s.objects.EXPECT().CreateGroup(gomock.Any(), gomock.Any()).Return(objectstore.Group{ID: "g"}, nil).Times(2)
	s.objects.EXPECT().AddFilesToGroup(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]objectstore.AddResult{{FileHandle: "f", Status: objectstore.StatusOK}}, nil).Times(2)
	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	s.Run("database error", func() {
		s.crafts.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))
		_, err := s.service.Publish(s.ctx, metadata())
		s.True(dErrors.HasCode(err, dErrors.CodeIndexWriteFailed))
	})

	s.Run("duplicate content id", func() {
		s.crafts.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrAlreadyUsed)
		_, err := s.service.Publish(s.ctx, metadata())
		s.True(dErrors.HasCode(err, dErrors.CodeIndexWriteFailed))
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
		s.Equal("publish failed at step index: content already published as c", dErrors.MessageOf(err))
	})
}

func (s *PublishSuite) TestAuditFailureDoesNotFailPublish() {
	s.objects.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).Return(objectstore.Upload{CID: "c", FileHandle: "f"}, nil)
	s.objects.EXPECT().CreateGroup(gomock.Any(), gomock.Any()).Return(objectstore.Group{ID: "g"}, nil)
	s.objects.EXPECT().AddFilesToGroup(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]objectstore.AddResult{{FileHandle: "f", Status: objectstore.StatusOK}}, nil)
	s.crafts.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	_, err := s.service.Publish(s.ctx, metadata())
	s.NoError(err)
}

func (s *PublishSuite) TestListByOwner() {
	claims := mocks.NewMockClaimIndex(s.ctrl)
	svc, err := New(s.crafts, s.objects, WithClaimIndex(claims))
	s.Require().NoError(err)

	s.Run("no claims", func() {
		claims.EXPECT().ClaimedContentIDs(gomock.Any(), "pk-owner").Return(nil, nil)
		got, err := svc.ListByOwner(s.ctx, "pk-owner")
		s.Require().NoError(err)
		s.Empty(got)
	})

	s.Run("resolves crafts", func() {
		claims.EXPECT().ClaimedContentIDs(gomock.Any(), "pk-owner").Return([]string{"c1"}, nil)
		s.crafts.EXPECT().ListByContentIDs(gomock.Any(), []string{"c1"}).Return([]*models.Craft{{ContentID: "c1"}}, nil)
		got, err := svc.ListByOwner(s.ctx, "pk-owner")
		s.Require().NoError(err)
		s.Len(got, 1)
	})

	s.Run("missing key", func() {
		_, err := svc.ListByOwner(s.ctx, "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *PublishSuite) TestGetMapsNotFound() {
	s.crafts.EXPECT().FindByContentID(gomock.Any(), "nope").Return(nil, sentinel.ErrNotFound)
	_, err := s.service.Get(s.ctx, "nope")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

// =============================================================================
// Scenarios against in-memory stores
// =============================================================================

func TestPublishRetryAfterUploadFailureYieldsOneRow(t *testing.T) {
	ctx := context.Background()
	failUpload := true
	objects := objectmemory.New(objectmemory.WithFault(func(op string) error {
		if op == objectstore.OpUpload && failUpload {
			return errors.New("upload refused")
		}
		return nil
	}))
	crafts := craftstore.NewInMemoryStore()
	svc, err := New(crafts, objects, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	_, err = svc.Publish(ctx, metadata())
	require.True(t, dErrors.HasCode(err, dErrors.CodeUpstreamUnavailable), "got %v", err)
	require.Zero(t, crafts.Count(), "no craft rows after failed upload")

	failUpload = false
	res, err := svc.Publish(ctx, metadata())
	require.NoError(t, err, "retry")
	require.Equal(t, 1, crafts.Count())
	_, ok := objects.Object(res.ContentID)
	assert.True(t, ok, "published object %s stored", res.ContentID)
}

func TestPublishSameMetadataSameContentID(t *testing.T) {
	ctx := context.Background()
	objects := objectmemory.New()
	crafts := craftstore.NewInMemoryStore()
	svc, err := New(crafts, objects, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	first, err := svc.Publish(ctx, metadata())
	require.NoError(t, err)

	_, err = svc.Publish(ctx, metadata())
	require.True(t, dErrors.HasCode(err, dErrors.CodeIndexWriteFailed), "got %v", err)
	assert.Contains(t, dErrors.MessageOf(err), first.ContentID, "duplicate names the existing content id")
	require.Equal(t, 1, crafts.Count())

	stored, err := svc.Get(ctx, first.ContentID)
	require.NoError(t, err)
	assert.Equal(t, first.FileHandle, stored.FileHandle, "index row unchanged after duplicate publish")
}
