package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolegate/rolegate/internal/observability"
	"github.com/rolegate/rolegate/jobs"
	_ "github.com/rolegate/rolegate/testing"
)

func newTestRouter(checks map[string]HealthCheck) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(RouterParams{
		Logger:       logger,
		Config:       &Config{AppEnv: "test", RateLimitPerMinute: 1000},
		Metrics:      observability.NewMetrics(),
		JobHandler:   jobs.NewHandler(nil, nil, nil, logger),
		HealthChecks: checks,
	})
}

func TestHealthzReportsDependencies(t *testing.T) {
	router := newTestRouter(map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","checks":{"postgres":"ok"}}`, rr.Body.String())
}

func TestHealthzDegradedWhenCheckFails(t *testing.T) {
	router := newTestRouter(map[string]HealthCheck{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("dial tcp: refused") },
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.JSONEq(t, `{"status":"degraded","checks":{"postgres":"ok","redis":"down"}}`, rr.Body.String())
}

func TestUnknownRouteReturnsJSON(t *testing.T) {
	router := newTestRouter(nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"message":"Route not found"}`, rr.Body.String())
}

func TestRouterExposesMetricsAndJobs(t *testing.T) {
	router := newTestRouter(nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `rolegate_http_requests_total{code="200",route="/jobs/health"}`)
}

func TestSecurityHeadersApplied(t *testing.T) {
	router := newTestRouter(nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
}
