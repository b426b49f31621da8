// Package live triggers the current-conditions units for every registered
// location.
package live

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/climate-monitor-backfill/internal/dispatch"
	"github.com/couchcryptid/climate-monitor-backfill/internal/domain"
	"github.com/couchcryptid/climate-monitor-backfill/internal/observability"
)

// LocationLister returns every registered location.
type LocationLister interface {
	ListLocations(ctx context.Context) ([]domain.Location, error)
}

// Units names the current-conditions units.
type Units struct {
	CurrentWeather    string
	CurrentAirQuality string
}

// Result summarises one fan-out.
type Result struct {
	Locations int                `json:"locations"`
	Skipped   int                `json:"skipped"`
	Outcomes  []dispatch.Outcome `json:"outcomes"`
}

// Failed counts submissions that were not accepted.
func (r Result) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.Submitted {
			n++
		}
	}
	return n
}

// Fanout dispatches current weather and air quality units per location.
type Fanout struct {
	store      LocationLister
	dispatcher dispatch.Dispatcher
	units      Units
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewFanout creates a Fanout.
func NewFanout(store LocationLister, d dispatch.Dispatcher, units Units, logger *slog.Logger, metrics *observability.Metrics) *Fanout {
	return &Fanout{
		store:      store,
		dispatcher: d,
		units:      units,
		logger:     logger,
		metrics:    metrics,
	}
}

// Run lists all locations and submits both units for each one. A store error
// aborts the run; invalid rows are skipped and submission failures are
// recorded in the result.
func (f *Fanout) Run(ctx context.Context) (Result, error) {
	locations, err := f.store.ListLocations(ctx)
	if err != nil {
		f.metrics.LiveFanoutRuns.WithLabelValues("error").Inc()
		return Result{}, fmt.Errorf("list locations: %w", err)
	}

	res := Result{Locations: len(locations)}
	jobs := make([]dispatch.Job, 0, 2*len(locations))
	for _, loc := range locations {
		payload, err := domain.NewLocationPayload(loc)
		if err != nil {
			f.logger.Warn("skipping invalid location", "location_id", loc.ID, "error", err)
			res.Skipped++
			continue
		}
		for _, unit := range []string{f.units.CurrentWeather, f.units.CurrentAirQuality} {
			job, err := dispatch.NewJob(unit, nil, payload)
			if err != nil {
				return Result{}, err
			}
			jobs = append(jobs, job)
		}
	}

	res.Outcomes = f.dispatcher.Dispatch(ctx, jobs)

	outcome := "complete"
	if res.Failed() > 0 || res.Skipped > 0 {
		outcome = "partial"
	}
	f.metrics.LiveFanoutRuns.WithLabelValues(outcome).Inc()
	f.logger.Info("live fan-out dispatched",
		"locations", res.Locations,
		"skipped", res.Skipped,
		"submitted", len(res.Outcomes)-res.Failed(),
		"failed", res.Failed(),
	)
	return res, nil
}
