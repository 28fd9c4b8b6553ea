package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RunMetrics records per-stream ETL run outcomes.
type RunMetrics struct {
	duration   *prometheus.HistogramVec
	success    *prometheus.CounterVec
	failure    *prometheus.CounterVec
	rowsLoaded *prometheus.CounterVec
	duplicates *prometheus.CounterVec
}

// NewRunMetrics registers the ETL run metrics on the provided registerer.
func NewRunMetrics(reg prometheus.Registerer) *RunMetrics {
	if reg == nil {
		return &RunMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "etl_run_duration_seconds",
		Help:    "Duration of ETL runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"stream"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "etl_run_success",
		Help: "Successful ETL runs.",
	}, []string{"stream"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "etl_run_failure",
		Help: "Failed ETL runs.",
	}, []string{"stream"})
	rowsLoaded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "etl_rows_loaded_total",
		Help: "Fact rows inserted into the warehouse.",
	}, []string{"stream"})
	duplicates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "etl_duplicates_skipped_total",
		Help: "Rows skipped by the dedup merge as already present.",
	}, []string{"stream"})
	reg.MustRegister(duration, success, failure, rowsLoaded, duplicates)
	return &RunMetrics{
		duration:   duration,
		success:    success,
		failure:    failure,
		rowsLoaded: rowsLoaded,
		duplicates: duplicates,
	}
}

// ObserveDuration records the duration for the named stream.
func (m *RunMetrics) ObserveDuration(stream string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(stream)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named stream.
func (m *RunMetrics) IncSuccess(stream string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(stream)).Inc()
}

// IncFailure increments the failure counter for the named stream.
func (m *RunMetrics) IncFailure(stream string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(stream)).Inc()
}

// AddRowsLoaded accumulates inserted row counts for the named stream.
func (m *RunMetrics) AddRowsLoaded(stream string, count int64) {
	if m == nil || m.rowsLoaded == nil || count <= 0 {
		return
	}
	m.rowsLoaded.WithLabelValues(normalizeLabel(stream)).Add(float64(count))
}

// AddDuplicatesSkipped accumulates dedup-skipped row counts for the named stream.
func (m *RunMetrics) AddDuplicatesSkipped(stream string, count int64) {
	if m == nil || m.duplicates == nil || count <= 0 {
		return
	}
	m.duplicates.WithLabelValues(normalizeLabel(stream)).Add(float64(count))
}

func normalizeLabel(stream string) string {
	if stream == "" {
		return "unknown"
	}
	return stream
}
