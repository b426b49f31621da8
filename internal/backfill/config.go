package backfill

import (
	"fmt"
	"time"

	"github.com/couchcryptid/climate-monitor-backfill/internal/config"
	"github.com/couchcryptid/climate-monitor-backfill/internal/domain"
)

// Units names the downstream units a backfill dispatches to.
type Units struct {
	HistoricWeather    string
	HistoricAirQuality string
	FuturePredictions  string
	LocationAssignment string
}

// Config is the orchestrator's explicit configuration. Zero HistoricLast and
// FutureFirst are resolved against today on every run.
type Config struct {
	HistoricFirst     time.Time
	HistoricLast      time.Time
	HistoricLagDays   int
	HistoricBatchDays int

	FutureFirst     time.Time
	FutureLast      time.Time
	FutureBatchDays int

	Units Units
}

// ConfigFrom maps service configuration onto the orchestrator's.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		HistoricFirst:     cfg.HistoricFirst,
		HistoricLast:      cfg.HistoricLast,
		HistoricLagDays:   cfg.HistoricLagDays,
		HistoricBatchDays: cfg.HistoricBatchDays,
		FutureFirst:       cfg.FutureFirst,
		FutureLast:        cfg.FutureLast,
		FutureBatchDays:   cfg.FutureBatchDays,
		Units: Units{
			HistoricWeather:    cfg.Units.HistoricWeather,
			HistoricAirQuality: cfg.Units.HistoricAirQuality,
			FuturePredictions:  cfg.Units.FuturePredictions,
			LocationAssignment: cfg.Units.LocationAssignment,
		},
	}
}

// Windows is a Config with both date ranges pinned to calendar dates.
type Windows struct {
	Historic domain.DateInterval
	Future   domain.DateInterval
}

// Resolve pins relative window ends against today and validates the result.
func (c Config) Resolve(today time.Time) (Windows, error) {
	today = domain.TruncateDate(today)

	historicLast := c.HistoricLast
	if historicLast.IsZero() {
		historicLast = today.AddDate(0, 0, -c.HistoricLagDays)
	}
	futureFirst := c.FutureFirst
	if futureFirst.IsZero() {
		futureFirst = today.AddDate(0, 0, 1)
	}

	w := Windows{
		Historic: domain.DateInterval{Start: domain.TruncateDate(c.HistoricFirst), End: domain.TruncateDate(historicLast)},
		Future:   domain.DateInterval{Start: domain.TruncateDate(futureFirst), End: domain.TruncateDate(c.FutureLast)},
	}
	if w.Historic.Start.After(w.Historic.End) {
		return Windows{}, fmt.Errorf("%w: historic window %s is inverted", domain.ErrInvalidArgument, w.Historic)
	}
	if w.Future.Start.After(w.Future.End) {
		return Windows{}, fmt.Errorf("%w: future window %s is inverted", domain.ErrInvalidArgument, w.Future)
	}
	return w, nil
}

func (u Units) validate() error {
	for name, v := range map[string]string{
		"historic weather":     u.HistoricWeather,
		"historic air quality": u.HistoricAirQuality,
		"future predictions":   u.FuturePredictions,
		"location assignment":  u.LocationAssignment,
	} {
		if v == "" {
			return fmt.Errorf("%w: %s unit name is empty", domain.ErrInvalidArgument, name)
		}
	}
	return nil
}
