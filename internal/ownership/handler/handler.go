package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"owndrob/internal/ownership/models"
	dErrors "owndrob/pkg/domain-errors"
	"owndrob/pkg/platform/httputil"
	"owndrob/pkg/requestcontext"
)

// Service defines the admission operations exposed over HTTP.
type Service interface {
	CheckAdmission(ctx context.Context, contentID, claimant string) (models.Decision, error)
	Claim(ctx context.Context, contentID, claimant string) (*models.ClaimResult, error)
	ListClaims(ctx context.Context, claimant string) ([]models.Claim, error)
}

// OwnerKeyLookup returns the public key bound to a signed-in nickname.
type OwnerKeyLookup func(ctx context.Context, nickname string) (string, error)

type Handler struct {
	service  Service
	logger   *slog.Logger
	ownerKey OwnerKeyLookup
}

type Option func(*Handler)

// WithOwnerKeys binds register-ownership to the session's public key. A
// request naming any other key is refused when a session nickname is present.
func WithOwnerKeys(lookup OwnerKeyLookup) Option {
	return func(h *Handler) {
		h.ownerKey = lookup
	}
}

func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{service: service, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/api/validate-ownership", h.HandleValidate)
	r.Post("/api/register-ownership", h.HandleRegister)
	r.Get("/api/ownerships", h.HandleList)
}

// HandleValidate handles POST /api/validate-ownership. Denials are 200s.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[OwnershipRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	decision, err := h.service.CheckAdmission(ctx, req.ContentID, req.OwnerPublicKey)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, decision)
}

// HandleRegister handles POST /api/register-ownership.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[OwnershipRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if err := h.checkOwner(ctx, req.OwnerPublicKey); err != nil {
		h.logger.WarnContext(ctx, "register ownership refused",
			"request_id", requestID,
			"content_id", req.ContentID,
			"nickname", requestcontext.Nickname(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	result, err := h.service.Claim(ctx, req.ContentID, req.OwnerPublicKey)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "register ownership completed",
		"request_id", requestID,
		"content_id", req.ContentID,
		"allowed", result.Allowed,
		"reason", result.Reason,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, statusFor(result), result)
}

// HandleList handles GET /api/ownerships?public_key=.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.URL.Query().Get("public_key"))
	if key == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "public_key is required"))
		return
	}
	claims, err := h.service.ListClaims(r.Context(), key)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, claims)
}

// checkOwner refuses claims for a key other than the signed-in identity's.
// Without a lookup or a session nickname every key is accepted.
func (h *Handler) checkOwner(ctx context.Context, ownerKey string) error {
	nickname := requestcontext.Nickname(ctx)
	if h.ownerKey == nil || nickname == "" {
		return nil
	}
	sessionKey, err := h.ownerKey(ctx, nickname)
	if err != nil {
		return err
	}
	if sessionKey != ownerKey {
		return dErrors.New(dErrors.CodeForbidden, "owner_public_key does not match the signed-in identity")
	}
	return nil
}

func statusFor(result *models.ClaimResult) int {
	if result.Allowed {
		return http.StatusOK
	}
	if result.Reason == models.ReasonArtifactNotFound {
		return http.StatusNotFound
	}
	return http.StatusConflict
}
