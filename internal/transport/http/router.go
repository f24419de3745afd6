package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"owndrob/internal/platform/metrics"
	"owndrob/internal/platform/middleware"
	"owndrob/pkg/platform/httputil"
)

// Registrar is implemented by feature handlers.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// Deps carries everything the router mounts. The HTTP layer stays thin and
// delegates to feature handlers.
type Deps struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	CORSOrigin     string
	RequestTimeout time.Duration
	// Routes are mounted without authentication.
	Routes []Registrar
	// SessionRoutes require a session when Sessions is set.
	SessionRoutes []Registrar
	Sessions      middleware.SessionResolver
	Health        map[string]HealthCheck
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// NewRouter wires the middleware chain, feature routes and ops endpoints.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger, deps.Metrics))
	r.Use(middleware.CORS(deps.CORSOrigin))

	r.Get("/health", healthHandler(deps.Health))
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		if deps.RequestTimeout > 0 {
			r.Use(middleware.Timeout(deps.RequestTimeout))
		}
		for _, h := range deps.Routes {
			h.Register(r)
		}
		r.Group(func(r chi.Router) {
			if deps.Sessions != nil {
				r.Use(middleware.RequireSession(deps.Sessions, logger))
			}
			for _, h := range deps.SessionRoutes {
				h.Register(r)
			}
		})
	})
	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(names) > 0 {
			resp.Checks = make(map[string]string, len(names))
		}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
