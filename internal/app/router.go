package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/rolegate/rolegate/internal/assessments"
	"github.com/rolegate/rolegate/internal/auth"
	"github.com/rolegate/rolegate/internal/observability"
	"github.com/rolegate/rolegate/internal/platform/httpx"
	"github.com/rolegate/rolegate/internal/rbac"
	"github.com/rolegate/rolegate/internal/roles"
	"github.com/rolegate/rolegate/internal/users"
	"github.com/rolegate/rolegate/jobs"
)

// HealthCheck probes one dependency for /healthz.
type HealthCheck func(ctx context.Context) error

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger  *slog.Logger
	Config  *Config
	Metrics *observability.Metrics

	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	RolesHandler       *roles.Handler
	PermissionsHandler *rbac.PermissionsHandler
	AssessmentsHandler *assessments.Handler
	JobHandler         *jobs.Handler

	HealthChecks map[string]HealthCheck
}

// NewRouter constructs the chi.Router serving the API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", healthHandler(params.Logger, params.HealthChecks))

	r.Route("/api", func(r chi.Router) {
		if params.AuthHandler != nil {
			r.Route("/sessions", params.AuthHandler.MountRoutes)
		}
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
		if params.RolesHandler != nil {
			r.Route("/roles", params.RolesHandler.MountRoutes)
		}
		if params.PermissionsHandler != nil {
			r.Route("/permissions", params.PermissionsHandler.MountRoutes)
		}
		if params.AssessmentsHandler != nil {
			r.Route("/assessments", params.AssessmentsHandler.MountRoutes)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Message(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Message(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}

func healthHandler(logger *slog.Logger, checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		report := map[string]string{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				if logger != nil {
					logger.Warn("health check failed", slog.String("dependency", name), slog.Any("error", err))
				}
				report[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			report[name] = "ok"
		}
		body := map[string]any{"status": "ok", "checks": report}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		httpx.JSON(w, status, body)
	}
}
