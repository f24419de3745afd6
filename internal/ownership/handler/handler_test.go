package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	craftmodels "owndrob/internal/craft/models"
	craftstore "owndrob/internal/craft/store"
	objectmemory "owndrob/internal/objectstore/memory"
	"owndrob/internal/ownership/models"
	"owndrob/internal/ownership/service"
	"owndrob/internal/ownership/store"
	dErrors "owndrob/pkg/domain-errors"
	"owndrob/pkg/requestcontext"
	"owndrob/pkg/testutil"
)

func newRouter(t *testing.T, supply int, opts ...Option) http.Handler {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	crafts := craftstore.NewInMemoryStore()
	objects := objectmemory.New()
	group, err := objects.CreateGroup(ctx, "bafk")
	require.NoError(t, err)
	require.NoError(t, crafts.Create(ctx, &craftmodels.Craft{
		ContentID:       "bafk",
		FileHandle:      "file-bafk",
		GroupID:         group.ID,
		CrafterIdentity: "crafter",
		SupplyLimit:     supply,
		Name:            "Item",
		CreatedAt:       time.Now().UTC(),
	}))
	svc, err := service.New(store.NewInMemoryStore(), crafts, objects, service.WithLogger(logger))
	require.NoError(t, err)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if nickname := req.Header.Get("X-Test-Nickname"); nickname != "" {
				req = req.WithContext(requestcontext.WithNickname(req.Context(), nickname))
			}
			next.ServeHTTP(w, req)
		})
	})
	New(svc, logger, opts...).Register(r)
	return r
}

func TestRegisterScenario(t *testing.T) {
	router := newRouter(t, 2)

	steps := []struct {
		who    string
		status int
		reason models.Reason
	}{
		{"X", http.StatusOK, ""},
		{"X", http.StatusConflict, models.ReasonAlreadyClaimed},
		{"Y", http.StatusOK, ""},
		{"Z", http.StatusConflict, models.ReasonSupplyExhausted},
	}
	for _, step := range steps {
		rec := testutil.PostJSON(t, router, "/api/register-ownership", map[string]string{
			"metadata_cid":     "bafk",
			"owner_public_key": step.who,
		})
		require.Equal(t, step.status, rec.Code, rec.Body.String())
		res := testutil.DecodeResponse[models.ClaimResult](t, rec)
		assert.Equal(t, step.reason, res.Reason)
		if step.status == http.StatusOK {
			assert.True(t, res.Allowed)
			assert.NotEmpty(t, res.ClaimToken)
		}
	}
}

func TestRegisterUnknownArtifact(t *testing.T) {
	router := newRouter(t, 1)
	rec := testutil.PostJSON(t, router, "/api/register-ownership", map[string]string{
		"metadata_cid": "nope",
		"public_key":   "X",
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
	res := testutil.DecodeResponse[models.ClaimResult](t, rec)
	assert.Equal(t, models.ReasonArtifactNotFound, res.Reason)
}

func TestValidateDenialsAreOK(t *testing.T) {
	router := newRouter(t, 1)

	rec := testutil.PostJSON(t, router, "/api/validate-ownership", map[string]string{"metadata_cid": "bafk", "owner_public_key": "X"})
	require.Equal(t, http.StatusOK, rec.Code)
	decision := testutil.DecodeResponse[models.Decision](t, rec)
	assert.True(t, decision.Allowed)

	require.Equal(t, http.StatusOK, testutil.PostJSON(t, router, "/api/register-ownership",
		map[string]string{"metadata_cid": "bafk", "owner_public_key": "X"}).Code)

	rec = testutil.PostJSON(t, router, "/api/validate-ownership", map[string]string{"metadata_cid": "bafk", "owner_public_key": "Y"})
	require.Equal(t, http.StatusOK, rec.Code)
	decision = testutil.DecodeResponse[models.Decision](t, rec)
	assert.False(t, decision.Allowed)
	assert.Equal(t, models.ReasonSupplyExhausted, decision.Reason)
}

func TestBadRequests(t *testing.T) {
	router := newRouter(t, 1)

	rec := testutil.PostJSON(t, router, "/api/register-ownership", map[string]string{"owner_public_key": "X"})
	testutil.AssertStatusAndError(t, rec, http.StatusBadRequest, "bad_request")

	rec = testutil.PostJSON(t, router, "/api/validate-ownership", map[string]string{"metadata_cid": "bafk"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodPost, "/api/register-ownership", bytes.NewBufferString("{")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListOwnerships(t *testing.T) {
	router := newRouter(t, 3)
	require.Equal(t, http.StatusOK, testutil.PostJSON(t, router, "/api/register-ownership",
		map[string]string{"metadata_cid": "bafk", "owner_public_key": "X"}).Code)

	rec := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/api/ownerships?public_key=X", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	claims := testutil.DecodeResponse[[]models.Claim](t, rec)
	require.Len(t, claims, 1)
	assert.Equal(t, "bafk", claims[0].ContentID)

	rec = testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/api/ownerships", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterBoundToSessionKey(t *testing.T) {
	keys := map[string]string{"alice": "pk-alice"}
	router := newRouter(t, 2, WithOwnerKeys(func(_ context.Context, nickname string) (string, error) {
		key, ok := keys[nickname]
		if !ok {
			return "", dErrors.New(dErrors.CodeNotFound, "User not found")
		}
		return key, nil
	}))

	register := func(nickname, key string) *httptest.ResponseRecorder {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/api/register-ownership",
			map[string]string{"metadata_cid": "bafk", "owner_public_key": key})
		if nickname != "" {
			req.Header.Set("X-Test-Nickname", nickname)
		}
		return testutil.DoRequest(router, req)
	}

	rec := register("alice", "pk-mallory")
	testutil.AssertStatusAndError(t, rec, http.StatusForbidden, "forbidden")

	rec = register("ghost", "pk-ghost")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = register("alice", "pk-alice")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, testutil.DecodeResponse[models.ClaimResult](t, rec).Allowed)

	rec = register("", "pk-anyone")
	require.Equal(t, http.StatusOK, rec.Code, "no session nickname means no binding")

	rec = register("alice", "pk-mallory")
	testutil.AssertStatusAndError(t, rec, http.StatusForbidden, "forbidden")
}
