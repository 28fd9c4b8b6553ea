// Package orchestrator drives one ETL run: authenticate once, then walk
// the configured restaurants sequentially so rate budgets are respected,
// isolating per-restaurant failures from the rest of the run.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/goforsam/toast-api/internal/etl/flatten"
	"github.com/goforsam/toast-api/internal/etl/loader"
	"github.com/goforsam/toast-api/internal/etl/types"
	"github.com/goforsam/toast-api/internal/toast"
	"github.com/goforsam/toast-api/pkg/config"
	pkgerrors "github.com/goforsam/toast-api/pkg/errors"
	"github.com/goforsam/toast-api/pkg/logger"
	"github.com/goforsam/toast-api/pkg/metrics"
)

// Stream names the four independent run surfaces.
type Stream string

const (
	StreamOrders     Stream = "orders"
	StreamCash       Stream = "cash"
	StreamLabor      Stream = "labor"
	StreamDimensions Stream = "dimensions"
)

// ValidStream reports whether the name is a runnable stream.
func ValidStream(name string) bool {
	switch Stream(name) {
	case StreamOrders, StreamCash, StreamLabor, StreamDimensions:
		return true
	}
	return false
}

// Fetcher is the slice of the vendor client a run needs.
type Fetcher interface {
	Authenticate(ctx context.Context) error
	FetchOrders(ctx context.Context, restaurantGUID string, start, end time.Time) ([]toast.Order, error)
	FetchCashEntries(ctx context.Context, restaurantGUID string, start, end time.Time) ([]toast.CashEntry, error)
	FetchCashDeposits(ctx context.Context, restaurantGUID string, start, end time.Time) ([]toast.CashDeposit, error)
	FetchTimeEntries(ctx context.Context, restaurantGUID string, start, end time.Time) ([]toast.TimeEntry, error)
	FetchRestaurantInfo(ctx context.Context, restaurantGUID string) (*toast.RestaurantInfo, error)
	FetchEmployees(ctx context.Context, restaurantGUID string) ([]toast.Employee, error)
	FetchJobs(ctx context.Context, restaurantGUID string) ([]toast.Job, error)
	FetchMenus(ctx context.Context, restaurantGUID string) ([]toast.Menu, error)
}

// Loader is the slice of the warehouse loader a run needs.
type Loader interface {
	Load(ctx context.Context, spec types.TableSpec, rows []any) (loader.LoadResult, error)
	ReplaceAll(ctx context.Context, spec types.TableSpec, rows []any) (loader.LoadResult, error)
}

// RunRequest describes one run.
type RunRequest struct {
	Stream          Stream
	RestaurantGUIDs []string
	Start           time.Time
	End             time.Time

	// TestMode fetches and flattens without touching the warehouse,
	// returning sample rows instead.
	TestMode bool
}

// Outcome is the per-restaurant slice of a run result.
type Outcome struct {
	OrdersFetched     int    `json:"orders_fetched,omitempty"`
	RowsLoaded        int64  `json:"rows_loaded"`
	DuplicatesSkipped int64  `json:"duplicates_skipped"`
	Error             string `json:"error,omitempty"`
}

// RunResult aggregates a whole run.
type RunResult struct {
	Status            string             `json:"status"`
	Stream            Stream             `json:"stream"`
	OrdersFetched     int                `json:"orders_fetched"`
	RowsLoaded        int64              `json:"rows_loaded"`
	DuplicatesSkipped int64              `json:"duplicates_skipped"`
	Errors            []string           `json:"errors,omitempty"`
	PerRestaurant     map[string]Outcome `json:"per_restaurant"`
	Samples           map[string]any     `json:"samples,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusPartial = "partial"
	StatusError   = "error"

	sampleLimit = 5
)

type Orchestrator struct {
	fetcher Fetcher
	loader  Loader
	bq      config.BigQueryConfig
	logg    *logger.Logger
	metrics *metrics.RunMetrics

	now       func() time.Time
	newLoadID func() string
}

func New(fetcher Fetcher, ldr Loader, bq config.BigQueryConfig, logg *logger.Logger, runMetrics *metrics.RunMetrics, newLoadID func() string) *Orchestrator {
	return &Orchestrator{
		fetcher:   fetcher,
		loader:    ldr,
		bq:        bq,
		logg:      logg,
		metrics:   runMetrics,
		now:       time.Now,
		newLoadID: newLoadID,
	}
}

// Run executes one stream across the requested restaurants. A failed
// authentication aborts the whole run; any later failure is recorded
// against its restaurant and the loop continues.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	started := o.now()
	meta := types.Metadata{LoadID: o.newLoadID(), LoadedAt: started.UTC()}
	ctx = o.logg.WithLoadID(o.logg.WithStream(ctx, string(req.Stream)), meta.LoadID)

	result := &RunResult{
		Stream:        req.Stream,
		PerRestaurant: make(map[string]Outcome, len(req.RestaurantGUIDs)),
	}

	if err := o.fetcher.Authenticate(ctx); err != nil {
		o.logg.Error(ctx, "vendor authentication failed, aborting run", err)
		o.metrics.IncFailure(string(req.Stream))
		result.Status = StatusError
		result.Errors = append(result.Errors, err.Error())
		return result, err
	}

	run := &runState{
		orchestrator: o,
		req:          req,
		meta:         meta,
		result:       result,
		samples:      make(map[string]any),
	}

	var failures error
	for _, guid := range req.RestaurantGUIDs {
		rctx := o.logg.WithRestaurant(ctx, guid)
		outcome, err := run.restaurant(rctx, guid)
		if err != nil {
			o.logg.Error(rctx, "restaurant run failed", err)
			outcome.Error = err.Error()
			failures = multierr.Append(failures, fmt.Errorf("restaurant %s: %w", guid, err))
			result.Errors = append(result.Errors, fmt.Sprintf("restaurant %s: %s", guid, err.Error()))
		}
		result.PerRestaurant[guid] = outcome
		result.OrdersFetched += outcome.OrdersFetched
		result.RowsLoaded += outcome.RowsLoaded
		result.DuplicatesSkipped += outcome.DuplicatesSkipped
	}

	if req.Stream == StreamDimensions && !req.TestMode {
		if err := run.replaceDimensions(ctx); err != nil {
			failures = multierr.Append(failures, err)
			result.Errors = append(result.Errors, err.Error())
		}
	}
	if req.TestMode {
		result.Samples = run.samples
	}

	result.Status = runStatus(len(req.RestaurantGUIDs), failures, result)
	o.observe(req.Stream, result, o.now().Sub(started))
	o.logg.Info(o.logg.WithFields(ctx, map[string]any{
		"status":      result.Status,
		"rows_loaded": result.RowsLoaded,
		"duration":    o.now().Sub(started).String(),
	}), "run finished")

	if result.Status == StatusError {
		return result, failures
	}
	return result, nil
}

func runStatus(restaurants int, failures error, result *RunResult) string {
	if failures == nil {
		return StatusSuccess
	}
	failed := 0
	for _, outcome := range result.PerRestaurant {
		if outcome.Error != "" {
			failed++
		}
	}
	if restaurants > 0 && failed == restaurants {
		return StatusError
	}
	return StatusPartial
}

func (o *Orchestrator) observe(stream Stream, result *RunResult, elapsed time.Duration) {
	label := string(stream)
	o.metrics.ObserveDuration(label, elapsed)
	o.metrics.AddRowsLoaded(label, result.RowsLoaded)
	o.metrics.AddDuplicatesSkipped(label, result.DuplicatesSkipped)
	if result.Status == StatusError {
		o.metrics.IncFailure(label)
	} else {
		o.metrics.IncSuccess(label)
	}
}

// runState carries per-run accumulations, notably the dimension rows
// gathered across restaurants before the final full refresh.
type runState struct {
	orchestrator *Orchestrator
	req          RunRequest
	meta         types.Metadata
	result       *RunResult
	samples      map[string]any

	dimRestaurants []any
	dimEmployees   []any
	dimJobs        []any
	dimMenuItems   []any
}

func (r *runState) restaurant(ctx context.Context, guid string) (Outcome, error) {
	switch r.req.Stream {
	case StreamOrders:
		return r.orders(ctx, guid)
	case StreamCash:
		return r.cash(ctx, guid)
	case StreamLabor:
		return r.labor(ctx, guid)
	case StreamDimensions:
		return r.dimensions(ctx, guid)
	default:
		return Outcome{}, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unknown stream %q", r.req.Stream))
	}
}

func (r *runState) orders(ctx context.Context, guid string) (Outcome, error) {
	o := r.orchestrator

	orders, fetchErr := o.fetcher.FetchOrders(ctx, guid, r.req.Start, r.req.End)
	if fetchErr != nil {
		// The page ceiling is a data-volume guard, not a hard failure:
		// load what was fetched and surface the condition as a warning.
		if !pkgerrors.IsCode(fetchErr, pkgerrors.CodePaginationLimit) {
			return Outcome{}, fetchErr
		}
		o.logg.Warn(ctx, "orders pagination ceiling reached, loading partial window")
		r.result.Errors = append(r.result.Errors,
			fmt.Sprintf("restaurant %s: %s", guid, fetchErr.Error()))
	}

	outcome := Outcome{OrdersFetched: len(orders)}
	items := flatten.OrderItems(ctx, o.logg, orders, r.meta)
	payments := flatten.Payments(ctx, o.logg, orders, r.meta)

	if r.req.TestMode {
		r.sample("order_items", toAny(items))
		r.sample("payments", toAny(payments))
		return outcome, nil
	}

	itemsResult, err := o.loader.Load(ctx, types.OrderItemsSpec(o.bq), toAny(items))
	if err != nil {
		return outcome, err
	}
	outcome.RowsLoaded += itemsResult.Inserted
	outcome.DuplicatesSkipped += itemsResult.DuplicatesSkipped

	paymentsResult, err := o.loader.Load(ctx, types.PaymentsSpec(o.bq), toAny(payments))
	if err != nil {
		return outcome, err
	}
	outcome.RowsLoaded += paymentsResult.Inserted
	outcome.DuplicatesSkipped += paymentsResult.DuplicatesSkipped
	return outcome, nil
}

func (r *runState) cash(ctx context.Context, guid string) (Outcome, error) {
	o := r.orchestrator
	var outcome Outcome

	entries, err := o.fetcher.FetchCashEntries(ctx, guid, r.req.Start, r.req.End)
	if err != nil {
		return outcome, err
	}
	deposits, err := o.fetcher.FetchCashDeposits(ctx, guid, r.req.Start, r.req.End)
	if err != nil {
		return outcome, err
	}

	entryRows := flatten.CashEntries(ctx, o.logg, guid, entries, r.meta)
	depositRows := flatten.CashDeposits(ctx, o.logg, guid, deposits, r.meta)

	if r.req.TestMode {
		r.sample("cash_entries", toAny(entryRows))
		r.sample("cash_deposits", toAny(depositRows))
		return outcome, nil
	}

	entriesResult, err := o.loader.Load(ctx, types.CashEntriesSpec(o.bq), toAny(entryRows))
	if err != nil {
		return outcome, err
	}
	outcome.RowsLoaded += entriesResult.Inserted
	outcome.DuplicatesSkipped += entriesResult.DuplicatesSkipped

	depositsResult, err := o.loader.Load(ctx, types.CashDepositsSpec(o.bq), toAny(depositRows))
	if err != nil {
		return outcome, err
	}
	outcome.RowsLoaded += depositsResult.Inserted
	outcome.DuplicatesSkipped += depositsResult.DuplicatesSkipped
	return outcome, nil
}

func (r *runState) labor(ctx context.Context, guid string) (Outcome, error) {
	o := r.orchestrator
	var outcome Outcome

	entries, err := o.fetcher.FetchTimeEntries(ctx, guid, r.req.Start, r.req.End)
	if err != nil {
		return outcome, err
	}
	rows := flatten.LaborShifts(ctx, o.logg, guid, entries, r.meta)

	if r.req.TestMode {
		r.sample("labor_shifts", toAny(rows))
		return outcome, nil
	}

	result, err := o.loader.Load(ctx, types.LaborShiftsSpec(o.bq), toAny(rows))
	if err != nil {
		return outcome, err
	}
	outcome.RowsLoaded = result.Inserted
	outcome.DuplicatesSkipped = result.DuplicatesSkipped
	return outcome, nil
}

// dimensions fetches one restaurant's reference data and accumulates it;
// the full-refresh replace happens once after the restaurant loop so one
// table swap covers every restaurant.
func (r *runState) dimensions(ctx context.Context, guid string) (Outcome, error) {
	o := r.orchestrator
	var outcome Outcome

	info, err := o.fetcher.FetchRestaurantInfo(ctx, guid)
	if err != nil {
		return outcome, err
	}
	employees, err := o.fetcher.FetchEmployees(ctx, guid)
	if err != nil {
		return outcome, err
	}
	jobs, err := o.fetcher.FetchJobs(ctx, guid)
	if err != nil {
		return outcome, err
	}
	menus, err := o.fetcher.FetchMenus(ctx, guid)
	if err != nil {
		return outcome, err
	}

	if row := flatten.Restaurant(info, r.meta); row != nil {
		r.dimRestaurants = append(r.dimRestaurants, *row)
	}
	r.dimEmployees = append(r.dimEmployees, toAny(flatten.Employees(ctx, o.logg, guid, employees, r.meta))...)
	r.dimJobs = append(r.dimJobs, toAny(flatten.Jobs(ctx, o.logg, guid, jobs, r.meta))...)
	r.dimMenuItems = append(r.dimMenuItems, toAny(flatten.MenuItems(ctx, o.logg, guid, menus, r.meta))...)

	if r.req.TestMode {
		r.sample("restaurants", r.dimRestaurants)
		r.sample("employees", r.dimEmployees)
		r.sample("jobs", r.dimJobs)
		r.sample("menu_items", r.dimMenuItems)
	}
	return outcome, nil
}

func (r *runState) replaceDimensions(ctx context.Context) error {
	o := r.orchestrator

	// If no restaurant produced reference data there is nothing safe to
	// swap in; keep the existing tables.
	if len(r.dimRestaurants) == 0 && len(r.dimEmployees) == 0 &&
		len(r.dimJobs) == 0 && len(r.dimMenuItems) == 0 {
		return nil
	}

	var failures error
	replace := func(spec types.TableSpec, rows []any) {
		if len(rows) == 0 {
			return
		}
		result, err := o.loader.ReplaceAll(ctx, spec, rows)
		if err != nil {
			failures = multierr.Append(failures,
				fmt.Errorf("refreshing %s: %w", spec.Name, err))
			return
		}
		r.result.RowsLoaded += result.Inserted
	}

	replace(types.DimRestaurantsSpec(o.bq), r.dimRestaurants)
	replace(types.DimEmployeesSpec(o.bq), r.dimEmployees)
	replace(types.DimJobsSpec(o.bq), r.dimJobs)
	replace(types.DimMenuItemsSpec(o.bq), r.dimMenuItems)
	return failures
}

func (r *runState) sample(name string, rows []any) {
	if len(rows) > sampleLimit {
		rows = rows[:sampleLimit]
	}
	r.samples[name] = rows
}

func toAny[T any](rows []T) []any {
	out := make([]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, row)
	}
	return out
}
