package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/rolegate/rolegate/internal/jobs"
)

func TestMetricsHandlerExposesJobCollectors(t *testing.T) {
	metrics := NewMetrics()
	jm := jobmetrics.NewMetrics(metrics.Registerer())
	_ = jm.Track("sessions:prune").End(nil)

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "rolegate_jobs_total")
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTeapot, rr.Code)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.requestsTotal.WithLabelValues("/test", "418")))

	metricsRR := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(metricsRR, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.True(t, strings.Contains(metricsRR.Body.String(), `rolegate_http_request_duration_seconds_bucket{route="/test"`))
}

func TestObserveAuthz(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveAuthz("allow")
	metrics.ObserveAuthz("allow")
	metrics.ObserveAuthz("invalid_token")

	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.authzDecisions.WithLabelValues("allow")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.authzDecisions.WithLabelValues("invalid_token")))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.ObserveAuthz("allow") })
}
