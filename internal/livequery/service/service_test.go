package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"owndrob/internal/objectstore"
	objectmemory "owndrob/internal/objectstore/memory"
	objectmocks "owndrob/internal/objectstore/mocks"
	dErrors "owndrob/pkg/domain-errors"
)

type LiveQuerySuite struct {
	suite.Suite
	objects *objectmemory.Store
	service *Service
	ctx     context.Context
	groupID string
	handle  string
	cid     string
}

func TestLiveQuerySuite(t *testing.T) {
	suite.Run(t, new(LiveQuerySuite))
}

func (s *LiveQuerySuite) SetupTest() {
	s.ctx = context.Background()
	s.objects = objectmemory.New()
	var err error
	s.service, err = New(s.objects, "https://gw.example.org/")
	s.Require().NoError(err)

	group, err := s.objects.CreateGroup(s.ctx, "bafk")
	s.Require().NoError(err)
	up, err := s.objects.Upload(s.ctx, "ownership-1", []byte(`{"owner_public_key":"X"}`))
	s.Require().NoError(err)
	_, err = s.objects.AddFilesToGroup(s.ctx, group.ID, []string{up.FileHandle})
	s.Require().NoError(err)
	s.groupID, s.handle, s.cid = group.ID, up.FileHandle, up.CID
}

func (s *LiveQuerySuite) TestListGroupFiles() {
	listing, err := s.service.ListGroupFiles(s.ctx, s.groupID)
	s.Require().NoError(err)
	s.Equal(1, listing.TotalFiles)
	s.Equal(s.cid, listing.Files[0].ContentID)
	s.Equal("ownership-1", listing.Files[0].Name)
}

func (s *LiveQuerySuite) TestVerifyClaim() {
	v, err := s.service.VerifyClaim(s.ctx, s.groupID, s.handle)
	s.Require().NoError(err)
	s.True(v.Verified)
	s.Equal(s.cid, v.ContentID)
	s.Equal("https://gw.example.org/ipfs/"+s.cid, v.GatewayURL)
	s.NotNil(v.UploadedAt)

	v, err = s.service.VerifyClaim(s.ctx, s.groupID, "someone-else")
	s.Require().NoError(err)
	s.False(v.Verified)
	s.Empty(v.ContentID)
}

func (s *LiveQuerySuite) TestErrors() {
	_, err := s.service.ListGroupFiles(s.ctx, "")
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = s.service.VerifyClaim(s.ctx, s.groupID, "")
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = s.service.ListGroupFiles(s.ctx, "missing-group")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	s.objects.SetFault(func(string) error { return errors.New("down") })
	_, err = s.service.ListGroupFiles(s.ctx, s.groupID)
	s.True(dErrors.HasCode(err, dErrors.CodeUpstreamUnavailable))
}

func (s *LiveQuerySuite) TestCallCarriesDeadline() {
	ctrl := gomock.NewController(s.T())
	objects := objectmocks.NewMockStore(ctrl)
	svc, err := New(objects, "")
	s.Require().NoError(err)

	objects.EXPECT().ListGroupFiles(gomock.Any(), "g").DoAndReturn(func(ctx context.Context, _ string) ([]objectstore.File, error) {
		_, ok := ctx.Deadline()
		s.True(ok)
		return nil, nil
	})
	listing, err := svc.ListGroupFiles(s.ctx, "g")
	s.Require().NoError(err)
	s.Zero(listing.TotalFiles)
	s.Equal("gateway.pinata.cloud", svc.gateway)
}
