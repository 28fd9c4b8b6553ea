package routes

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/goforsam/toast-api/internal/etl/orchestrator"
	"github.com/goforsam/toast-api/pkg/config"
	"github.com/goforsam/toast-api/pkg/logger"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubRunner struct{}

func (stubRunner) Run(context.Context, orchestrator.RunRequest) (*orchestrator.RunResult, error) {
	return &orchestrator.RunResult{Status: orchestrator.StatusSuccess}, nil
}

func testRouter(pinger stubPinger) http.Handler {
	cfg := &config.Config{}
	cfg.App.Env = "development"
	cfg.Tenant.RestaurantGUIDs = []string{"r1"}
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	return NewRouter(cfg, logg, pinger, stubRunner{}, prometheus.NewRegistry())
}

func TestHealthEndpoints(t *testing.T) {
	handler := testRouter(stubPinger{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyReportsWarehouseOutage(t *testing.T) {
	handler := testRouter(stubPinger{err: errors.New("dataset gone")})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	handler := testRouter(stubPinger{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRunRouteWired(t *testing.T) {
	handler := testRouter(stubPinger{})

	req := httptest.NewRequest(http.MethodPost, "/v1/runs/orders",
		strings.NewReader(`{"restaurant_guid":"r1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `"status":"success"`)
}
