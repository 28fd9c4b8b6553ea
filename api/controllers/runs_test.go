package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/goforsam/toast-api/internal/etl/orchestrator"
	"github.com/goforsam/toast-api/pkg/config"
	pkgerrors "github.com/goforsam/toast-api/pkg/errors"
)

type fakeRunner struct {
	lastReq orchestrator.RunRequest
	result  *orchestrator.RunResult
	err     error
}

func (f *fakeRunner) Run(_ context.Context, req orchestrator.RunRequest) (*orchestrator.RunResult, error) {
	f.lastReq = req
	return f.result, f.err
}

func testTenant() config.TenantConfig {
	return config.TenantConfig{
		Name:            "taqueria",
		RestaurantGUIDs: []string{"r1", "r2"},
	}
}

func newRunsRouter(runner Runner) http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/runs/{stream}", TriggerRun(runner, testTenant(), nil))
	return r
}

func postRun(t *testing.T, handler http.Handler, stream, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/runs/"+stream, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestTriggerRunUnknownStream(t *testing.T) {
	rec := postRun(t, newRunsRouter(&fakeRunner{}), "bogus", `{"restaurant_guid":"ALL"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestTriggerRunRejectsMissingRestaurant(t *testing.T) {
	rec := postRun(t, newRunsRouter(&fakeRunner{}), "orders", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTriggerRunRejectsUnknownRestaurant(t *testing.T) {
	rec := postRun(t, newRunsRouter(&fakeRunner{}), "orders", `{"restaurant_guid":"intruder"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTriggerRunRejectsBadDate(t *testing.T) {
	rec := postRun(t, newRunsRouter(&fakeRunner{}), "orders",
		`{"restaurant_guid":"ALL","start_date":"02/08/2026"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTriggerRunExpandsAllSentinel(t *testing.T) {
	runner := &fakeRunner{result: &orchestrator.RunResult{Status: orchestrator.StatusSuccess}}
	rec := postRun(t, newRunsRouter(runner), "orders",
		`{"restaurant_guid":"ALL","start_date":"2026-02-01","end_date":"2026-02-07"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(runner.lastReq.RestaurantGUIDs) != 2 {
		t.Fatalf("expected ALL expanded to configured guids, got %v", runner.lastReq.RestaurantGUIDs)
	}

	wantStart := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2026, 2, 8, 0, 0, 0, 0, time.UTC) // end day inclusive
	if !runner.lastReq.Start.Equal(wantStart) || !runner.lastReq.End.Equal(wantEnd) {
		t.Fatalf("unexpected window: %s .. %s", runner.lastReq.Start, runner.lastReq.End)
	}
}

func TestTriggerRunDefaultsToYesterday(t *testing.T) {
	runner := &fakeRunner{result: &orchestrator.RunResult{Status: orchestrator.StatusSuccess}}
	rec := postRun(t, newRunsRouter(runner), "orders", `{"restaurant_guid":"r1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	if got := runner.lastReq.End.Sub(runner.lastReq.Start); got != 24*time.Hour {
		t.Fatalf("expected one-day default window, got %s", got)
	}
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if !runner.lastReq.End.Equal(today) {
		t.Fatalf("expected window ending today, got %s", runner.lastReq.End)
	}
}

func TestTriggerRunTestMode(t *testing.T) {
	runner := &fakeRunner{result: &orchestrator.RunResult{Status: orchestrator.StatusSuccess}}
	rec := postRun(t, newRunsRouter(runner), "labor", `{"restaurant_guid":"r1","mode":"test"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !runner.lastReq.TestMode {
		t.Fatal("expected test mode forwarded")
	}
}

func TestTriggerRunPartialIs200(t *testing.T) {
	runner := &fakeRunner{result: &orchestrator.RunResult{
		Status: orchestrator.StatusPartial,
		Errors: []string{"restaurant r2: vendor down"},
	}}
	rec := postRun(t, newRunsRouter(runner), "orders", `{"restaurant_guid":"ALL"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for partial, got %d", rec.Code)
	}

	var body orchestrator.RunResult
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != orchestrator.StatusPartial || len(body.Errors) != 1 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestTriggerRunErrorStatusMapsCode(t *testing.T) {
	runner := &fakeRunner{
		result: &orchestrator.RunResult{Status: orchestrator.StatusError},
		err:    pkgerrors.New(pkgerrors.CodeAuthentication, "login failed"),
	}
	rec := postRun(t, newRunsRouter(runner), "orders", `{"restaurant_guid":"ALL"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for auth failure, got %d", rec.Code)
	}
}

func TestResolveWindowRejectsInvertedRange(t *testing.T) {
	_, _, err := resolveWindow("2026-02-10", "2026-02-01", time.Now().UTC())
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
