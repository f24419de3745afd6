package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"owndrob/internal/oath/models"
	"owndrob/internal/platform/middleware"
	dErrors "owndrob/pkg/domain-errors"
	"owndrob/pkg/platform/httputil"
	"owndrob/pkg/requestcontext"
)

type Service interface {
	Signup(ctx context.Context, req models.Signup) (*models.Profile, error)
	Signin(ctx context.Context, nickname, pin, userAgent string) (*models.Session, error)
	SessionUser(ctx context.Context, token string) (*models.Profile, error)
	LookupUser(ctx context.Context, nickname string) (*models.Profile, error)
	Logout(ctx context.Context, token string) error
}

type Handler struct {
	service      Service
	logger       *slog.Logger
	secureCookie bool
}

func New(service Service, logger *slog.Logger, secureCookie bool) *Handler {
	return &Handler{service: service, logger: logger, secureCookie: secureCookie}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/api/oath-signup", h.HandleSignup)
	r.Post("/api/oath-signin", h.HandleSignin)
	r.Post("/api/logout", h.HandleLogout)
	r.Get("/api/session-user", h.HandleSessionUser)
	r.Get("/api/oath-user", h.HandleLookup)
}

type successResponse struct {
	Success bool `json:"success"`
}

type signinResponse struct {
	Success      bool      `json:"success"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// HandleSignup handles POST /api/oath-signup.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SignupRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	if _, err := h.service.Signup(ctx, req.ToSignup()); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}

// HandleSignin handles POST /api/oath-signin. The token is set as an HttpOnly
// cookie and also returned for Bearer clients.
func (h *Handler) HandleSignin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[SigninRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	session, err := h.service.Signin(ctx, req.Nickname, req.PIN, r.UserAgent())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	httputil.WriteJSON(w, http.StatusOK, signinResponse{
		Success:      true,
		SessionToken: session.ID,
		ExpiresAt:    session.ExpiresAt,
	})
}

// HandleSessionUser handles GET /api/session-user.
func (h *Handler) HandleSessionUser(w http.ResponseWriter, r *http.Request) {
	token := middleware.SessionToken(r)
	if token == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Not authenticated"))
		return
	}
	profile, err := h.service.SessionUser(r.Context(), token)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

// HandleLookup handles GET /api/oath-user?nickname=.
func (h *Handler) HandleLookup(w http.ResponseWriter, r *http.Request) {
	profile, err := h.service.LookupUser(r.Context(), r.URL.Query().Get("nickname"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}

// HandleLogout handles POST /api/logout.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), middleware.SessionToken(r)); err != nil {
		h.logger.ErrorContext(r.Context(), "logout failed",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
	})
	httputil.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}
