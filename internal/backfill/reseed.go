package backfill

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/climate-monitor-backfill/internal/dispatch"
	"github.com/couchcryptid/climate-monitor-backfill/internal/domain"
	"github.com/jonboulle/clockwork"
)

// LocationLister returns every registered location.
type LocationLister interface {
	ListLocations(ctx context.Context) ([]domain.Location, error)
}

// Reseeder re-triggers the new-location orchestrator unit for every stored
// location, pausing between locations so the weather APIs' daily quotas are
// not exhausted by one burst.
type Reseeder struct {
	store      LocationLister
	dispatcher dispatch.Dispatcher
	unit       string
	pause      time.Duration
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewReseeder creates a Reseeder. A nil clock uses real time.
func NewReseeder(store LocationLister, d dispatch.Dispatcher, unit string, pause time.Duration, clock clockwork.Clock, logger *slog.Logger) *Reseeder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Reseeder{
		store:      store,
		dispatcher: d,
		unit:       unit,
		pause:      pause,
		clock:      clock,
		logger:     logger,
	}
}

// Run submits one orchestrator unit per location. It stops early, returning
// the outcomes so far, if ctx is cancelled during a pause.
func (r *Reseeder) Run(ctx context.Context) ([]dispatch.Outcome, error) {
	locations, err := r.store.ListLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	r.logger.Info("reseed started", "locations", len(locations), "pause", r.pause)

	outcomes := make([]dispatch.Outcome, 0, len(locations))
	for i, loc := range locations {
		if i > 0 && !r.sleep(ctx) {
			r.logger.Info("reseed stopped", "reason", ctx.Err(), "dispatched", len(outcomes))
			return outcomes, ctx.Err()
		}

		payload, err := domain.NewLocationPayload(loc)
		if err != nil {
			r.logger.Warn("skipping invalid location", "location_id", loc.ID, "error", err)
			continue
		}
		job, err := dispatch.NewJob(r.unit, nil, payload)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, r.dispatcher.Dispatch(ctx, []dispatch.Job{job})...)
	}

	r.logger.Info("reseed complete", "dispatched", len(outcomes))
	return outcomes, nil
}

func (r *Reseeder) sleep(ctx context.Context) bool {
	if r.pause <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-r.clock.After(r.pause):
		return true
	}
}
