// Package backfill populates history and forecasts for newly registered
// locations by fanning out date-partitioned units of work.
package backfill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/climate-monitor-backfill/internal/dispatch"
	"github.com/couchcryptid/climate-monitor-backfill/internal/domain"
	"github.com/couchcryptid/climate-monitor-backfill/internal/observability"
)

// ErrBackfillInProgress is returned when another run holds the location's lock.
var ErrBackfillInProgress = errors.New("backfill already in progress for location")

// Locker serializes runs per location. Acquire returns ErrBackfillInProgress
// when the location is already locked.
type Locker interface {
	Acquire(ctx context.Context, locationID int64) (release func(), err error)
}

// Run outcome labels.
const (
	runComplete = "complete"
	runPartial  = "partial"
	runRejected = "rejected"
	runLocked   = "locked"
)

// Orchestrator issues every dispatch a new location needs.
type Orchestrator struct {
	cfg        Config
	dispatcher dispatch.Dispatcher
	locker     Locker
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithLocker serializes runs for the same location through l.
func WithLocker(l Locker) Option {
	return func(o *Orchestrator) { o.locker = l }
}

// New creates an Orchestrator. The configuration is checked once here; the
// date windows are resolved against today on every run.
func New(cfg Config, d dispatch.Dispatcher, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) (*Orchestrator, error) {
	if cfg.HistoricBatchDays < 1 || cfg.FutureBatchDays < 1 {
		return nil, fmt.Errorf("%w: batch sizes must be at least 1 day", domain.ErrInvalidArgument)
	}
	if err := cfg.Units.validate(); err != nil {
		return nil, err
	}
	o := &Orchestrator{
		cfg:        cfg,
		dispatcher: d,
		logger:     logger,
		metrics:    metrics,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Plan builds every job a backfill of loc would submit, in issuance order:
// historic weather partitions, future prediction partitions, air quality,
// then location assignment. It has no side effects.
func (o *Orchestrator) Plan(loc domain.Location) ([]dispatch.Job, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}
	w, err := o.cfg.Resolve(domain.Today())
	if err != nil {
		return nil, err
	}

	historic, err := domain.Split(w.Historic.Start, w.Historic.End, o.cfg.HistoricBatchDays)
	if err != nil {
		return nil, fmt.Errorf("partition historic weather: %w", err)
	}
	future, err := domain.Split(w.Future.Start, w.Future.End, o.cfg.FutureBatchDays)
	if err != nil {
		return nil, fmt.Errorf("partition future predictions: %w", err)
	}

	jobs := make([]dispatch.Job, 0, len(historic)+len(future)+2)
	if jobs, err = appendRangeJobs(jobs, o.cfg.Units.HistoricWeather, loc, historic); err != nil {
		return nil, err
	}
	if jobs, err = appendRangeJobs(jobs, o.cfg.Units.FuturePredictions, loc, future); err != nil {
		return nil, err
	}

	payload, err := domain.NewLocationPayload(loc)
	if err != nil {
		return nil, err
	}
	for _, unit := range []string{o.cfg.Units.HistoricAirQuality, o.cfg.Units.LocationAssignment} {
		job, err := dispatch.NewJob(unit, nil, payload)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func appendRangeJobs(jobs []dispatch.Job, unit string, loc domain.Location, intervals []domain.DateInterval) ([]dispatch.Job, error) {
	for i := range intervals {
		iv := intervals[i]
		payload, err := domain.NewRangePayload(loc, iv)
		if err != nil {
			return nil, err
		}
		job, err := dispatch.NewJob(unit, &iv, payload)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Run plans and dispatches a full backfill of loc. Invalid input fails before
// anything is dispatched. Submission failures do not fail the run; they are
// reported per outcome in the returned Report.
func (o *Orchestrator) Run(ctx context.Context, loc domain.Location) (Report, error) {
	jobs, err := o.Plan(loc)
	if err != nil {
		o.metrics.BackfillRuns.WithLabelValues(runRejected).Inc()
		o.logger.Error("backfill rejected", "location_id", loc.ID, "error", err)
		return Report{}, err
	}

	if o.locker != nil {
		release, err := o.locker.Acquire(ctx, loc.ID)
		if err != nil {
			label := runRejected
			if errors.Is(err, ErrBackfillInProgress) {
				label = runLocked
			}
			o.metrics.BackfillRuns.WithLabelValues(label).Inc()
			o.logger.Warn("backfill lock not acquired", "location_id", loc.ID, "error", err)
			return Report{}, fmt.Errorf("lock location %d: %w", loc.ID, err)
		}
		defer release()
	}

	o.observePartitions(jobs)
	logger := o.logger.With("location_id", loc.ID)
	logger.Info("backfill started", "dispatches", len(jobs))

	report := Report{
		LocationID: loc.ID,
		Outcomes:   o.dispatcher.Dispatch(ctx, jobs),
	}

	failed := len(report.Failed())
	outcome := runComplete
	if failed > 0 {
		outcome = runPartial
	}
	o.metrics.BackfillRuns.WithLabelValues(outcome).Inc()
	logger.Info("backfill dispatched",
		"submitted", len(report.Outcomes)-failed,
		"failed", failed,
	)
	return report, nil
}

func (o *Orchestrator) observePartitions(jobs []dispatch.Job) {
	partitions := map[string]int{}
	for _, j := range jobs {
		if j.Interval != nil {
			partitions[j.Unit]++
		}
	}
	for unit, n := range partitions {
		o.metrics.BackfillPartition.WithLabelValues(unit).Observe(float64(n))
	}
}
