package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Dispatch outcome labels.
const (
	OutcomeSubmitted = "submitted"
	OutcomeFailed    = "failed"
	OutcomeTimeout   = "timeout"
)

// Metrics holds the Prometheus collectors for backfill and live dispatch.
type Metrics struct {
	DispatchSubmissions *prometheus.CounterVec   // labels: unit, outcome={submitted,failed,timeout}
	DispatchDuration    *prometheus.HistogramVec // labels: unit

	BackfillRuns      *prometheus.CounterVec // labels: outcome={complete,partial,rejected,locked}
	BackfillPartition *prometheus.HistogramVec

	LiveFanoutRuns       *prometheus.CounterVec // labels: outcome={complete,partial,error}
	LiveSchedulerRunning prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.DispatchSubmissions,
		m.DispatchDuration,
		m.BackfillRuns,
		m.BackfillPartition,
		m.LiveFanoutRuns,
		m.LiveSchedulerRunning,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		DispatchSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_backfill",
			Name:      "dispatch_submissions_total",
			Help:      "Unit-of-work submissions by unit and outcome.",
		}, []string{"unit", "outcome"}),
		DispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "climate_backfill",
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent waiting for a submission to be accepted.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"unit"}),
		BackfillRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_backfill",
			Name:      "backfill_runs_total",
			Help:      "New-location backfill runs by outcome.",
		}, []string{"outcome"}),
		BackfillPartition: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "climate_backfill",
			Name:      "backfill_partitions",
			Help:      "Number of date partitions planned per run and unit.",
			Buckets:   []float64{1, 2, 3, 5, 10, 25, 50, 100, 500},
		}, []string{"unit"}),
		LiveFanoutRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climate_backfill",
			Name:      "live_fanout_runs_total",
			Help:      "Live weather and air-quality fan-out runs by outcome.",
		}, []string{"outcome"}),
		LiveSchedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "climate_backfill",
			Name:      "live_scheduler_running",
			Help:      "1 when the live fan-out schedule is active, 0 otherwise.",
		}),
	}
}
