package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"owndrob/internal/craft/models"
	dErrors "owndrob/pkg/domain-errors"
	"owndrob/pkg/platform/httputil"
	"owndrob/pkg/requestcontext"
)

// Service defines the craft operations exposed over HTTP.
type Service interface {
	Publish(ctx context.Context, meta models.Metadata) (*models.PublishResult, error)
	Get(ctx context.Context, contentID string) (*models.Craft, error)
	ListByCrafter(ctx context.Context, crafter string) ([]*models.Craft, error)
	ListByOwner(ctx context.Context, claimant string) ([]*models.Craft, error)
}

// Handler wires craft endpoints to the craft service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts craft endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/ipor-file", h.HandlePublish)
	r.Get("/api/ipors/{cid}", h.HandleGet)
	r.Get("/api/crafter-ipors", h.HandleListByCrafter)
	r.Get("/api/owner-ipors", h.HandleListByOwner)
}

// HandlePublish handles POST /api/ipor-file.
func (h *Handler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[PublishRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Publish(ctx, req.ToMetadata())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "publish request completed",
		"request_id", requestID,
		"content_id", result.ContentID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleGet handles GET /api/ipors/{cid}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	craft, err := h.service.Get(r.Context(), chi.URLParam(r, "cid"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, craft)
}

// HandleListByCrafter handles GET /api/crafter-ipors?public_key=.
func (h *Handler) HandleListByCrafter(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListByCrafter)
}

// HandleListByOwner handles GET /api/owner-ipors?public_key=.
func (h *Handler) HandleListByOwner(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.service.ListByOwner)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) ([]*models.Craft, error)) {
	key := strings.TrimSpace(r.URL.Query().Get("public_key"))
	if key == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "public_key is required"))
		return
	}
	crafts, err := fn(r.Context(), key)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list ipors failed",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, crafts)
}
