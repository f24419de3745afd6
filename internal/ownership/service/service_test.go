package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	craftmodels "owndrob/internal/craft/models"
	craftstore "owndrob/internal/craft/store"
	"owndrob/internal/objectstore"
	objectmemory "owndrob/internal/objectstore/memory"
	objectmocks "owndrob/internal/objectstore/mocks"
	"owndrob/internal/ownership/models"
	"owndrob/internal/ownership/service/mocks"
	"owndrob/internal/ownership/soldout"
	"owndrob/internal/ownership/store"
	dErrors "owndrob/pkg/domain-errors"
	"owndrob/pkg/platform/audit"
	"owndrob/pkg/platform/sentinel"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testCraft(cid string, supply int) *craftmodels.Craft {
	return &craftmodels.Craft{
		ContentID:       cid,
		FileHandle:      "file-" + cid,
		GroupID:         "group-" + cid,
		CrafterIdentity: "crafter",
		SupplyLimit:     supply,
		Name:            "Item",
		CreatedAt:       time.Now().UTC(),
	}
}

// =============================================================================
// Admission Unit Suite
// =============================================================================
// Pins the order of checks and how store outcomes map to denials.

type ClaimSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	claims  *mocks.MockClaimStore
	crafts  *mocks.MockCraftReader
	objects *objectmocks.MockStore
	soldOut *mocks.MockSoldOutCache
	auditor *mocks.MockAuditPublisher
	service *Service
	ctx     context.Context
}

func TestClaimSuite(t *testing.T) {
	suite.Run(t, new(ClaimSuite))
}

func (s *ClaimSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.claims = mocks.NewMockClaimStore(s.ctrl)
	s.crafts = mocks.NewMockCraftReader(s.ctrl)
	s.objects = objectmocks.NewMockStore(s.ctrl)
	s.soldOut = mocks.NewMockSoldOutCache(s.ctrl)
	s.auditor = mocks.NewMockAuditPublisher(s.ctrl)
	s.ctx = context.Background()
	var err error
	s.service, err = New(s.claims, s.crafts, s.objects,
		WithLogger(discardLogger()),
		WithAuditPublisher(s.auditor),
		WithSoldOutCache(s.soldOut),
	)
	s.Require().NoError(err)
}

func (s *ClaimSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ClaimSuite) expectMirror(cid string) {
	s.objects.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(objectstore.Upload{CID: "bafk-own", FileHandle: "own-file"}, nil)
	s.objects.EXPECT().AddFilesToGroup(gomock.Any(), "group-"+cid, []string{"own-file"}).
		Return([]objectstore.AddResult{{FileHandle: "own-file", Status: objectstore.StatusOK}}, nil)
}

func (s *ClaimSuite) expectDenied(reason models.Reason) {
	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
		s.Equal(audit.EventOwnershipDenied, audit.AuditEvent(e.Action))
		s.Equal(string(reason), e.Reason)
		return nil
	})
}

func (s *ClaimSuite) TestNewRequiresDependencies() {
	_, err := New(nil, s.crafts, s.objects)
	s.Error(err)
	_, err = New(s.claims, nil, s.objects)
	s.Error(err)
	_, err = New(s.claims, s.crafts, nil)
	s.Error(err)
}

func (s *ClaimSuite) TestRejectsMissingInputs() {
	_, err := s.service.Claim(s.ctx, "  ", "X")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.Claim(s.ctx, "bafk", "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.CheckAdmission(s.ctx, "", "X")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ClaimSuite) TestUnknownArtifactDenied() {
	s.crafts.EXPECT().FindByContentID(gomock.Any(), "bafk").Return(nil, sentinel.ErrNotFound)
	s.expectDenied(models.ReasonArtifactNotFound)

	res, err := s.service.Claim(s.ctx, "bafk", "X")
	s.Require().NoError(err)
	s.False(res.Allowed)
	s.Equal(models.ReasonArtifactNotFound, res.Reason)
	s.Equal("Item not found.", res.Message)
}

func (s *ClaimSuite) TestSoldOutMarkerShortCircuits() {
	s.crafts.EXPECT().FindByContentID(gomock.Any(), "bafk").Return(testCraft("bafk", 2), nil)
	s.soldOut.EXPECT().IsSoldOut(gomock.Any(), "bafk").Return(true, nil)
	s.expectDenied(models.ReasonSupplyExhausted)

	res, err := s.service.Claim(s.ctx, "bafk", "X")
	s.Require().NoError(err)
	s.Equal(models.ReasonSupplyExhausted, res.Reason)
}

func (s *ClaimSuite) TestExhaustedSupplyCheckedBeforeDuplicate() {
	s.crafts.EXPECT().FindByContentID(gomock.Any(), "bafk").Return(testCraft("bafk", 2), nil)
	s.soldOut.EXPECT().IsSoldOut(gomock.Any(), "bafk").Return(false, nil)
	s.claims.EXPECT().CountByContentID(gomock.Any(), "bafk").Return(2, nil)
	s.soldOut.EXPECT().MarkSoldOut(gomock.Any(), "bafk").Return(nil)
	s.expectDenied(models.ReasonSupplyExhausted)

	res, err := s.service.Claim(s.ctx, "bafk", "X")
	s.Require().NoError(err)
	s.Equal(models.ReasonSupplyExhausted, res.Reason)
	s.Equal("Max supply reached.", res.Message)
}

func (s *ClaimSuite) TestExistingClaimDenied() {
	s.crafts.EXPECT().FindByContentID(gomock.Any(), "bafk").Return(testCraft("bafk", 2), nil)
	s.soldOut.EXPECT().IsSoldOut(gomock.Any(), "bafk").Return(false, nil)
	s.claims.EXPECT().CountByContentID(gomock.Any(), "bafk").Return(1, nil)
	s.claims.EXPECT().Exists(gomock.Any(), "bafk", "X").Return(true, nil)
	s.expectDenied(models.ReasonAlreadyClaimed)

	res, err := s.service.Claim(s.ctx, "bafk", "X")
	s.Require().NoError(err)
	s.Equal(models.ReasonAlreadyClaimed, res.Reason)
}

func (s *ClaimSuite) TestAdmitted() {
	s.crafts.EXPECT().FindByContentID(gomock.Any(), "bafk").Return(testCraft("bafk", 2), nil)
	s.soldOut.EXPECT().IsSoldOut(gomock.Any(), "bafk").Return(false, nil)
	s.claims.EXPECT().CountByContentID(gomock.Any(), "bafk").Return(0, nil)
	s.claims.EXPECT().Exists(gomock.Any(), "bafk", "X").Return(false, nil)
	s.expectMirror("bafk")
	s.claims.EXPECT().InsertWithinSupply(gomock.Any(), gomock.Any(), 2).
		DoAndReturn(func(_ context.Context, c *models.Claim, _ int) (int, error) {
			s.Equal("bafk", c.ContentID)
			s.Equal("file-bafk", c.FileHandle)
			s.Equal("X", c.ClaimantIdentity)
			s.NotEmpty(c.ClaimToken)
			s.Equal("own-file", c.OwnershipArtifactID)
			s.Equal("bafk-own", c.OwnershipCID)
			return 1, nil
		})
	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

	res, err := s.service.Claim(s.ctx, "bafk", "X")
	s.Require().NoError(err)
	s.True(res.Allowed)
	s.NotEmpty(res.ClaimToken)
	s.Equal("own-file", res.OwnershipArtifactID)
	s.False(res.MirrorPending)
}

func (s *ClaimSuite) TestLastSlotMarksSoldOut() {
	s.crafts.EXPECT().FindByContentID(gomock.Any(), "bafk").Return(testCraft("bafk", 1), nil)
	s.soldOut.EXPECT().IsSoldOut(gomock.Any(), "bafk").Return(false, nil)
	s.claims.EXPECT().CountByContentID(gomock.Any(), "bafk").Return(0, nil)
	s.claims.EXPECT().Exists(gomock.Any(), "bafk", "X").Return(false, nil)
	s.expectMirror("bafk")
	s.claims.EXPECT().InsertWithinSupply(gomock.Any(), gomock.Any(), 1).Return(0, nil)
	s.soldOut.EXPECT().MarkSoldOut(gomock.Any(), "bafk").Return(nil)
	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

	res, err := s.service.Claim(s.ctx, "bafk", "X")
	s.Require().NoError(err)
	s.True(res.Allowed)
}

func (s *ClaimSuite) TestMirrorFailureStillAdmits() {
	s.crafts.EXPECT().FindByContentID(gomock.Any(), "bafk").Return(testCraft("bafk", 2), nil)
	s.soldOut.EXPECT().IsSoldOut(gomock.Any(), "bafk").Return(false, nil)
	s.claims.EXPECT().CountByContentID(gomock.Any(), "bafk").Return(0, nil)
	s.claims.EXPECT().Exists(gomock.Any(), "bafk", "X").Return(false, nil)
	s.objects.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(objectstore.Upload{}, objectstore.NewError(objectstore.ErrorOutage, objectstore.OpUpload, "down", nil))
	s.claims.EXPECT().InsertWithinSupply(gomock.Any(), gomock.Any(), 2).
		DoAndReturn(func(_ context.Context, c *models.Claim, _ int) (int, error) {
			s.True(c.MirrorPending())
			s.Nil(c.MirroredAt)
			return 1, nil
		})
	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

	res, err := s.service.Claim(s.ctx, "bafk", "X")
	s.Require().NoError(err)
	s.True(res.Allowed)
	s.True(res.MirrorPending)
	s.Empty(res.OwnershipArtifactID)
}

func (s *ClaimSuite) TestRaceLossesBecomeDenials() {
	cases := []struct {
		name   string
		err    error
		reason models.Reason
	}{
		{"capacity", sentinel.ErrCapacityExhausted, models.ReasonSupplyExhausted},
		{"duplicate", sentinel.ErrAlreadyUsed, models.ReasonAlreadyClaimed},
		{"vanished", sentinel.ErrNotFound, models.ReasonArtifactNotFound},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.crafts.EXPECT().FindByContentID(gomock.Any(), "bafk").Return(testCraft("bafk", 2), nil)
			s.soldOut.EXPECT().IsSoldOut(gomock.Any(), "bafk").Return(false, nil)
			s.claims.EXPECT().CountByContentID(gomock.Any(), "bafk").Return(1, nil)
			s.claims.EXPECT().Exists(gomock.Any(), "bafk", "X").Return(false, nil)
			s.expectMirror("bafk")
			s.claims.EXPECT().InsertWithinSupply(gomock.Any(), gomock.Any(), 2).Return(0, tc.err)
			if tc.reason == models.ReasonSupplyExhausted {
				s.soldOut.EXPECT().MarkSoldOut(gomock.Any(), "bafk").Return(nil)
			}
			s.expectDenied(tc.reason)

			res, err := s.service.Claim(s.ctx, "bafk", "X")
			s.Require().NoError(err)
			s.False(res.Allowed)
			s.Equal(tc.reason, res.Reason)
		})
	}
}

func (s *ClaimSuite) TestStoreFailureIsInternal() {
	s.crafts.EXPECT().FindByContentID(gomock.Any(), "bafk").Return(testCraft("bafk", 2), nil)
	s.soldOut.EXPECT().IsSoldOut(gomock.Any(), "bafk").Return(false, nil)
	s.claims.EXPECT().CountByContentID(gomock.Any(), "bafk").Return(0, nil)
	s.claims.EXPECT().Exists(gomock.Any(), "bafk", "X").Return(false, nil)
	s.expectMirror("bafk")
	s.claims.EXPECT().InsertWithinSupply(gomock.Any(), gomock.Any(), 2).Return(0, errors.New("connection reset"))

	_, err := s.service.Claim(s.ctx, "bafk", "X")
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ClaimSuite) TestSoldOutLookupFailureFallsThrough() {
	s.crafts.EXPECT().FindByContentID(gomock.Any(), "bafk").Return(testCraft("bafk", 2), nil)
	s.soldOut.EXPECT().IsSoldOut(gomock.Any(), "bafk").Return(false, errors.New("redis down"))
	s.claims.EXPECT().CountByContentID(gomock.Any(), "bafk").Return(0, nil)
	s.claims.EXPECT().Exists(gomock.Any(), "bafk", "X").Return(false, nil)

	decision, err := s.service.CheckAdmission(s.ctx, "bafk", "X")
	s.Require().NoError(err)
	s.True(decision.Allowed)
}

func (s *ClaimSuite) TestCheckAdmissionNeverWrites() {
	s.crafts.EXPECT().FindByContentID(gomock.Any(), "bafk").Return(testCraft("bafk", 2), nil)
	s.soldOut.EXPECT().IsSoldOut(gomock.Any(), "bafk").Return(false, nil)
	s.claims.EXPECT().CountByContentID(gomock.Any(), "bafk").Return(1, nil)
	s.claims.EXPECT().Exists(gomock.Any(), "bafk", "X").Return(true, nil)

	decision, err := s.service.CheckAdmission(s.ctx, "bafk", "X")
	s.Require().NoError(err)
	s.Equal(models.Deny(models.ReasonAlreadyClaimed), decision)
}

// =============================================================================
// Admission Scenario Suite
// =============================================================================
// Runs the real in-memory stores to check the supply bound end to end.

type ScenarioSuite struct {
	suite.Suite
	crafts  *craftstore.InMemoryStore
	claims  *store.InMemoryStore
	objects *objectmemory.Store
	service *Service
	ctx     context.Context
}

func TestScenarioSuite(t *testing.T) {
	suite.Run(t, new(ScenarioSuite))
}

func (s *ScenarioSuite) SetupTest() {
	s.crafts = craftstore.NewInMemoryStore()
	s.claims = store.NewInMemoryStore()
	s.objects = objectmemory.New()
	s.ctx = context.Background()
	var err error
	s.service, err = New(s.claims, s.crafts, s.objects,
		WithLogger(discardLogger()),
		WithSoldOutCache(soldout.NewMemory()),
	)
	s.Require().NoError(err)
}

func (s *ScenarioSuite) seed(cid string, supply int) {
	group, err := s.objects.CreateGroup(s.ctx, cid)
	s.Require().NoError(err)
	craft := testCraft(cid, supply)
	craft.GroupID = group.ID
	s.Require().NoError(s.crafts.Create(s.ctx, craft))
}

func (s *ScenarioSuite) TestSupplyOfTwo() {
	s.seed("bafk-a", 2)

	res, err := s.service.Claim(s.ctx, "bafk-a", "X")
	s.Require().NoError(err)
	s.True(res.Allowed)

	res, err = s.service.Claim(s.ctx, "bafk-a", "X")
	s.Require().NoError(err)
	s.Equal(models.ReasonAlreadyClaimed, res.Reason)

	res, err = s.service.Claim(s.ctx, "bafk-a", "Y")
	s.Require().NoError(err)
	s.True(res.Allowed)

	res, err = s.service.Claim(s.ctx, "bafk-a", "Z")
	s.Require().NoError(err)
	s.Equal(models.ReasonSupplyExhausted, res.Reason)

	n, err := s.claims.CountByContentID(s.ctx, "bafk-a")
	s.Require().NoError(err)
	s.Equal(2, n)
	// two ownership records mirrored
	s.Equal(2, s.objects.FileCount())
}

func (s *ScenarioSuite) TestDenialsLeaveNoTrace() {
	s.seed("bafk-d", 1)
	_, err := s.service.Claim(s.ctx, "bafk-d", "X")
	s.Require().NoError(err)
	files := s.objects.FileCount()

	for _, who := range []string{"X", "Y", "Z"} {
		res, err := s.service.Claim(s.ctx, "bafk-d", who)
		s.Require().NoError(err)
		s.False(res.Allowed)
	}
	res, err := s.service.Claim(s.ctx, "missing", "X")
	s.Require().NoError(err)
	s.Equal(models.ReasonArtifactNotFound, res.Reason)

	s.Equal(files, s.objects.FileCount())
	n, err := s.claims.CountByContentID(s.ctx, "bafk-d")
	s.Require().NoError(err)
	s.Equal(1, n)
}

// claimOutcomes tallies concurrent claims by outcome: "allowed", the denial
// reason, or "error".
type claimOutcomes struct {
	mu     sync.Mutex
	counts map[string]int
}

func (o *claimOutcomes) record(res *models.ClaimResult, err error) {
	key := "error"
	switch {
	case err != nil:
	case res.Allowed:
		key = "allowed"
	default:
		key = string(res.Reason)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.counts == nil {
		o.counts = make(map[string]int)
	}
	o.counts[key]++
}

func (s *ScenarioSuite) TestConcurrentClaimantsBoundedBySupply() {
	const supply, claimants = 4, 50
	s.seed("bafk-c", supply)

	var wg sync.WaitGroup
	var outcomes claimOutcomes
	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes.record(s.service.Claim(s.ctx, "bafk-c", fmt.Sprintf("owner-%d", i)))
		}(i)
	}
	wg.Wait()

	s.Equal(map[string]int{
		"allowed":                            supply,
		string(models.ReasonSupplyExhausted): claimants - supply,
	}, outcomes.counts)
	n, err := s.claims.CountByContentID(s.ctx, "bafk-c")
	s.Require().NoError(err)
	s.Equal(supply, n)
}

func (s *ScenarioSuite) TestConcurrentSameClaimantAdmittedOnce() {
	const attempts = 16
	s.seed("bafk-s", 10)

	var wg sync.WaitGroup
	var outcomes claimOutcomes
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes.record(s.service.Claim(s.ctx, "bafk-s", "X"))
		}()
	}
	wg.Wait()

	s.Equal(map[string]int{
		"allowed":                           1,
		string(models.ReasonAlreadyClaimed): attempts - 1,
	}, outcomes.counts)
	owned, err := s.service.ListClaims(s.ctx, "X")
	s.Require().NoError(err)
	s.Len(owned, 1)
}

func (s *ScenarioSuite) TestMirrorRecordIsDeterministic() {
	s.seed("bafk-r", 1)
	s.objects.SetFault(func(op string) error {
		if op == objectstore.OpUpload {
			return errors.New("upload down")
		}
		return nil
	})

	res, err := s.service.Claim(s.ctx, "bafk-r", "X")
	s.Require().NoError(err)
	s.True(res.Allowed)
	s.True(res.MirrorPending)

	s.objects.SetFault(nil)
	pending, err := s.claims.ListPendingMirror(s.ctx, time.Now(), 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)

	craft, err := s.crafts.FindByContentID(s.ctx, "bafk-r")
	s.Require().NoError(err)
	first, err := s.service.MirrorClaim(s.ctx, pending[0], craft.GroupID)
	s.Require().NoError(err)
	second, err := s.service.MirrorClaim(s.ctx, pending[0], craft.GroupID)
	s.Require().NoError(err)
	s.Equal(first.CID, second.CID)

	ok, err := s.service.RecordMirror(s.ctx, pending[0], first)
	s.Require().NoError(err)
	s.True(ok)
	ok, err = s.service.RecordMirror(s.ctx, pending[0], second)
	s.Require().NoError(err)
	s.False(ok)
}
