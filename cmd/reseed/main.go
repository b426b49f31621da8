// Command reseed re-triggers the new-location orchestrator for every stored
// location, pausing between locations to stay inside the weather APIs' quotas.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/couchcryptid/climate-monitor-backfill/internal/adapter/postgres"
	"github.com/couchcryptid/climate-monitor-backfill/internal/adapter/transport"
	"github.com/couchcryptid/climate-monitor-backfill/internal/backfill"
	"github.com/couchcryptid/climate-monitor-backfill/internal/config"
	"github.com/couchcryptid/climate-monitor-backfill/internal/dispatch"
	"github.com/couchcryptid/climate-monitor-backfill/internal/observability"
)

func main() {
	pause := flag.Duration("pause", -1, "pause between locations (default RESEED_PAUSE)")
	flag.Parse()

	if err := run(*pause); err != nil {
		fmt.Fprintf(os.Stderr, "reseed: %v\n", err)
		os.Exit(1)
	}
}

func run(pause time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if pause < 0 {
		pause = cfg.ReseedPause
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck // process exit

	client, closeClient, err := transport.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeClient() //nolint:errcheck // process exit

	d := dispatch.NewSequential(client, cfg.DispatchTimeout, logger, metrics)
	r := backfill.NewReseeder(store, d, cfg.Units.NewLocationOrchestrator, pause, nil, logger)

	outcomes, err := r.Run(ctx)
	failed := 0
	for _, o := range outcomes {
		if !o.Submitted {
			failed++
		}
	}
	logger.Info("reseed finished", "dispatched", len(outcomes), "failed", failed)
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d submissions failed", failed, len(outcomes))
	}
	return nil
}
