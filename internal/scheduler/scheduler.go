// Package scheduler runs the live fan-out on a fixed interval.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/climate-monitor-backfill/internal/live"
	"github.com/couchcryptid/climate-monitor-backfill/internal/observability"
	"github.com/go-co-op/gocron"
)

// Runner performs one live fan-out.
type Runner interface {
	Run(ctx context.Context) (live.Result, error)
}

// Scheduler periodically triggers a Runner.
type Scheduler struct {
	scheduler *gocron.Scheduler
	runner    Runner
	interval  time.Duration
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Scheduler. Each run is bounded by timeout.
func New(runner Runner, interval, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		runner:    runner,
		interval:  interval,
		timeout:   timeout,
		logger:    logger,
		metrics:   metrics,
	}
}

// Start schedules the fan-out. A zero interval disables scheduling. Runs
// never overlap; a tick that lands on a running job is skipped.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Info("live fan-out schedule disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(s.RunOnce)
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	s.metrics.LiveSchedulerRunning.Set(1)
	s.logger.Info("live fan-out scheduled", "interval", s.interval)
	return nil
}

// RunOnce performs a single bounded fan-out and logs the result.
func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	res, err := s.runner.Run(ctx)
	if err != nil {
		s.logger.Error("live fan-out failed", "error", err)
		return
	}
	s.logger.Debug("live fan-out finished", "locations", res.Locations, "failed", res.Failed())
}

// Stop cancels future runs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.metrics.LiveSchedulerRunning.Set(0)
}
