package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/climate-monitor-backfill/internal/adapter/http"
	"github.com/couchcryptid/climate-monitor-backfill/internal/adapter/postgres"
	redisadapter "github.com/couchcryptid/climate-monitor-backfill/internal/adapter/redis"
	"github.com/couchcryptid/climate-monitor-backfill/internal/adapter/transport"
	"github.com/couchcryptid/climate-monitor-backfill/internal/backfill"
	"github.com/couchcryptid/climate-monitor-backfill/internal/config"
	"github.com/couchcryptid/climate-monitor-backfill/internal/dispatch"
	"github.com/couchcryptid/climate-monitor-backfill/internal/live"
	"github.com/couchcryptid/climate-monitor-backfill/internal/observability"
	"github.com/couchcryptid/climate-monitor-backfill/internal/scheduler"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, closeClient, err := transport.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to create dispatch client", "transport", cfg.DispatchTransport, "error", err)
		os.Exit(1)
	}
	dispatcher := dispatch.New(client, cfg.DispatchConcurrency, cfg.DispatchTimeout, logger, metrics)
	logger.Info("dispatch configured",
		"transport", cfg.DispatchTransport,
		"concurrency", cfg.DispatchConcurrency,
		"timeout", cfg.DispatchTimeout,
	)

	var checks []sharedobs.ReadinessChecker
	var opts []backfill.Option

	// Per-location lock (feature-flagged via REDIS_ADDR).
	if cfg.RedisAddr != "" {
		rdb, err := redisadapter.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close() //nolint:errcheck // process exit
		locker := redisadapter.NewLocker(rdb, cfg.BackfillLockTTL, logger)
		opts = append(opts, backfill.WithLocker(locker))
		checks = append(checks, locker)
		logger.Info("backfill lock enabled", "ttl", cfg.BackfillLockTTL)
	} else {
		logger.Info("backfill lock disabled")
	}

	orch, err := backfill.New(backfill.ConfigFrom(cfg), dispatcher, logger, metrics, opts...)
	if err != nil {
		logger.Error("invalid backfill configuration", "error", err)
		os.Exit(1)
	}
	handlers := httpadapter.Handlers{Backfill: orch}

	// Location store (feature-flagged via DATABASE_URL) enables the live
	// fan-out and lookups by id.
	var sched *scheduler.Scheduler
	if cfg.DatabaseURL != "" {
		store, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer store.Close() //nolint:errcheck // process exit
		checks = append(checks, store)

		fanout := live.NewFanout(store, dispatcher, live.Units{
			CurrentWeather:    cfg.Units.CurrentWeather,
			CurrentAirQuality: cfg.Units.CurrentAirQuality,
		}, logger, metrics)
		handlers.Locations = store
		handlers.Live = fanout

		sched = scheduler.New(fanout, cfg.LiveFetchInterval, cfg.LiveFetchInterval, logger, metrics)
		if err := sched.Start(); err != nil {
			logger.Error("failed to schedule live fan-out", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("location store disabled; live fan-out unavailable")
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.AllReady(checks...), handlers, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if sched != nil {
		sched.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := closeClient(); err != nil {
		logger.Error("dispatch client close error", "error", err)
	}

	logger.Info("shutdown complete")
}
