package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/goforsam/toast-api/api/responses"
	"github.com/goforsam/toast-api/api/validators"
	"github.com/goforsam/toast-api/internal/etl/orchestrator"
	"github.com/goforsam/toast-api/pkg/config"
	pkgerrors "github.com/goforsam/toast-api/pkg/errors"
	"github.com/goforsam/toast-api/pkg/logger"
)

// AllRestaurants selects every restaurant configured for the tenant.
const AllRestaurants = "ALL"

const dateLayout = "2006-01-02"

// Runner executes one ETL run.
type Runner interface {
	Run(ctx context.Context, req orchestrator.RunRequest) (*orchestrator.RunResult, error)
}

// RunRequestBody is the trigger payload for POST /v1/runs/{stream}.
type RunRequestBody struct {
	RestaurantGUID string `json:"restaurant_guid" validate:"required"`
	StartDate      string `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate        string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Mode           string `json:"mode" validate:"omitempty,oneof=load test"`
}

// TriggerRun handles POST /v1/runs/{stream}. The window defaults to the
// previous day when no dates are supplied. Partial failures still return
// 200 with status "partial"; a fully failed run returns the stream
// error's mapped status.
func TriggerRun(runner Runner, tenant config.TenantConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		stream := chi.URLParam(r, "stream")
		if !orchestrator.ValidStream(stream) {
			responses.WriteError(ctx, logg, w,
				pkgerrors.New(pkgerrors.CodeNotFound, "unknown run stream"))
			return
		}

		var body RunRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		guids, err := resolveRestaurants(body.RestaurantGUID, tenant)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		start, end, err := resolveWindow(body.StartDate, body.EndDate, time.Now().UTC())
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, runErr := runner.Run(ctx, orchestrator.RunRequest{
			Stream:          orchestrator.Stream(stream),
			RestaurantGUIDs: guids,
			Start:           start,
			End:             end,
			TestMode:        body.Mode == "test",
		})
		if result == nil {
			responses.WriteError(ctx, logg, w, runErr)
			return
		}

		status := http.StatusOK
		if result.Status == orchestrator.StatusError {
			status = pkgerrors.MetadataFor(pkgerrors.CodeOf(runErr)).HTTPStatus
		}
		responses.WriteJSON(w, status, result)
	}
}

func resolveRestaurants(requested string, tenant config.TenantConfig) ([]string, error) {
	if requested == AllRestaurants {
		return tenant.RestaurantGUIDs, nil
	}
	for _, guid := range tenant.RestaurantGUIDs {
		if guid == requested {
			return []string{requested}, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "restaurant_guid is not configured for this tenant").
		WithDetails(map[string]any{"restaurant_guid": requested})
}

// resolveWindow returns [start, end) in UTC. Defaults cover yesterday.
func resolveWindow(startDate, endDate string, now time.Time) (time.Time, time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -1)
	end := today

	if startDate != "" {
		parsed, err := time.ParseInLocation(dateLayout, startDate, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid start_date")
		}
		start = parsed
	}
	if endDate != "" {
		parsed, err := time.ParseInLocation(dateLayout, endDate, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid end_date")
		}
		// The window is half-open, so the requested end day is included.
		end = parsed.AddDate(0, 0, 1)
	}

	if !start.Before(end) {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "start_date must be before end_date")
	}
	return start, end, nil
}
