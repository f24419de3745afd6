package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"owndrob/internal/livequery/service"
	dErrors "owndrob/pkg/domain-errors"
	"owndrob/pkg/platform/httputil"
)

const (
	modeCrafter   = "crafter"
	modeOwnership = "ownership"
)

type Service interface {
	ListGroupFiles(ctx context.Context, groupID string) (*service.GroupListing, error)
	VerifyClaim(ctx context.Context, groupID, fileHandle string) (*service.Verification, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/api/live-query", h.HandleLiveQuery)
}

// HandleLiveQuery handles GET /api/live-query?mode=crafter|ownership&groupId=&fileId=.
func (h *Handler) HandleLiveQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode, groupID := q.Get("mode"), q.Get("groupId")
	if mode == "" || groupID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Missing mode or groupId"))
		return
	}

	switch mode {
	case modeCrafter:
		listing, err := h.service.ListGroupFiles(r.Context(), groupID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, listing)
	case modeOwnership:
		verification, err := h.service.VerifyClaim(r.Context(), groupID, q.Get("fileId"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, verification)
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid mode"))
	}
}
