package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Dispatch transports.
const (
	TransportLambda = "lambda"
	TransportKafka  = "kafka"
	TransportHTTP   = "http"
)

const dateLayout = time.DateOnly

// maxBatchDays caps batch sizes at a century of days.
const maxBatchDays = 100 * 366

// Units names the downstream units of work.
type Units struct {
	HistoricWeather         string
	HistoricAirQuality      string
	FuturePredictions       string
	LocationAssignment      string
	CurrentWeather          string
	CurrentAirQuality       string
	NewLocationOrchestrator string
}

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Historic weather window. A zero HistoricLast means today minus HistoricLagDays.
	HistoricFirst     time.Time
	HistoricLast      time.Time
	HistoricLagDays   int
	HistoricBatchDays int

	// Forecast window. A zero FutureFirst means tomorrow.
	FutureFirst     time.Time
	FutureLast      time.Time
	FutureBatchDays int

	Units Units

	DispatchTransport   string
	DispatchTimeout     time.Duration
	DispatchConcurrency int

	AWSRegion           string
	KafkaBrokers        []string
	DispatchHTTPBaseURL string

	DatabaseURL string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	BackfillLockTTL time.Duration

	LiveFetchInterval time.Duration
	ReseedPause       time.Duration
}

// Load reads configuration from environment variables, applying defaults where
// unset. A .env file in the working directory is loaded first if present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		Units: Units{
			HistoricWeather:         sharedcfg.EnvOrDefault("UNIT_HISTORIC_WEATHER", "c18-climate-monitor-historic-weather-lambda"),
			HistoricAirQuality:      sharedcfg.EnvOrDefault("UNIT_HISTORIC_AIR_QUALITY", "c18-climate-monitor-historic-air-quality-lambda"),
			FuturePredictions:       sharedcfg.EnvOrDefault("UNIT_FUTURE_PREDICTIONS", "c18-climate-monitor-future-predictions-lambda"),
			LocationAssignment:      sharedcfg.EnvOrDefault("UNIT_LOCATION_ASSIGNMENT", "c18-climate-monitor-location-assignment-lambda"),
			CurrentWeather:          sharedcfg.EnvOrDefault("UNIT_CURRENT_WEATHER", "c18-climate-monitor-current-weather-lambda"),
			CurrentAirQuality:       sharedcfg.EnvOrDefault("UNIT_CURRENT_AIR_QUALITY", "c18-climate-monitor-current-air-quality-lambda"),
			NewLocationOrchestrator: sharedcfg.EnvOrDefault("UNIT_NEW_LOCATION_ORCHESTRATOR", "c18-climate-monitor-new-location-orchestrator-lambda"),
		},

		DispatchTransport:   sharedcfg.EnvOrDefault("DISPATCH_TRANSPORT", TransportLambda),
		AWSRegion:           os.Getenv("AWS_REGION"),
		KafkaBrokers:        sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		DispatchHTTPBaseURL: os.Getenv("DISPATCH_HTTP_BASE_URL"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
	}

	if err := loadWindows(cfg); err != nil {
		return nil, err
	}
	if err := loadDispatch(cfg); err != nil {
		return nil, err
	}
	if err := loadSchedules(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadWindows(cfg *Config) error {
	var err error
	if cfg.HistoricFirst, err = parseDate("HISTORIC_WEATHER_FIRST_DATE", "1940-01-01"); err != nil {
		return err
	}
	if cfg.HistoricLast, err = parseDate("HISTORIC_WEATHER_LAST_DATE", ""); err != nil {
		return err
	}
	if cfg.HistoricLagDays, err = parseInt("HISTORIC_WEATHER_LAG_DAYS", 6, 0, math.MaxInt); err != nil {
		return err
	}
	if cfg.HistoricBatchDays, err = parseInt("HISTORIC_WEATHER_BATCH_DAYS", 35*365, 1, maxBatchDays); err != nil {
		return err
	}
	if cfg.FutureFirst, err = parseDate("FUTURE_PREDICTIONS_FIRST_DATE", ""); err != nil {
		return err
	}
	if cfg.FutureLast, err = parseDate("FUTURE_PREDICTIONS_LAST_DATE", "2049-12-31"); err != nil {
		return err
	}
	if cfg.FutureBatchDays, err = parseInt("FUTURE_PREDICTIONS_BATCH_DAYS", 10000, 1, maxBatchDays); err != nil {
		return err
	}
	return nil
}

func loadDispatch(cfg *Config) error {
	var err error
	if cfg.DispatchTimeout, err = parseDuration("DISPATCH_TIMEOUT", "10s", false); err != nil {
		return err
	}
	if cfg.DispatchConcurrency, err = parseInt("DISPATCH_CONCURRENCY", 1, 1, math.MaxInt); err != nil {
		return err
	}
	if cfg.RedisDB, err = parseInt("REDIS_DB", 0, 0, math.MaxInt); err != nil {
		return err
	}
	if cfg.BackfillLockTTL, err = parseDuration("BACKFILL_LOCK_TTL", "30m", false); err != nil {
		return err
	}
	return nil
}

func loadSchedules(cfg *Config) error {
	var err error
	if cfg.LiveFetchInterval, err = parseDuration("LIVE_FETCH_INTERVAL", "15m", true); err != nil {
		return err
	}
	if cfg.ReseedPause, err = parseDuration("RESEED_PAUSE", "20m", true); err != nil {
		return err
	}
	return nil
}

func (cfg *Config) validate() error {
	if !cfg.HistoricLast.IsZero() && cfg.HistoricFirst.After(cfg.HistoricLast) {
		return errors.New("HISTORIC_WEATHER_FIRST_DATE is after HISTORIC_WEATHER_LAST_DATE")
	}
	if !cfg.FutureFirst.IsZero() && cfg.FutureFirst.After(cfg.FutureLast) {
		return errors.New("FUTURE_PREDICTIONS_FIRST_DATE is after FUTURE_PREDICTIONS_LAST_DATE")
	}

	units := map[string]string{
		"UNIT_HISTORIC_WEATHER":          cfg.Units.HistoricWeather,
		"UNIT_HISTORIC_AIR_QUALITY":      cfg.Units.HistoricAirQuality,
		"UNIT_FUTURE_PREDICTIONS":        cfg.Units.FuturePredictions,
		"UNIT_LOCATION_ASSIGNMENT":       cfg.Units.LocationAssignment,
		"UNIT_CURRENT_WEATHER":           cfg.Units.CurrentWeather,
		"UNIT_CURRENT_AIR_QUALITY":       cfg.Units.CurrentAirQuality,
		"UNIT_NEW_LOCATION_ORCHESTRATOR": cfg.Units.NewLocationOrchestrator,
	}
	for key, v := range units {
		if v == "" {
			return fmt.Errorf("%s is required", key)
		}
	}

	switch cfg.DispatchTransport {
	case TransportLambda:
	case TransportKafka:
		if len(cfg.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required for the kafka transport")
		}
	case TransportHTTP:
		if cfg.DispatchHTTPBaseURL == "" {
			return errors.New("DISPATCH_HTTP_BASE_URL is required for the http transport")
		}
	default:
		return fmt.Errorf("invalid DISPATCH_TRANSPORT %q", cfg.DispatchTransport)
	}
	return nil
}

func parseDate(key, def string) (time.Time, error) {
	s := sharedcfg.EnvOrDefault(key, def)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", key, err)
	}
	return t, nil
}

func parseInt(key string, def, minimum, maximum int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minimum {
		return 0, fmt.Errorf("invalid %s: must be an integer >= %d", key, minimum)
	}
	if n > maximum {
		return 0, fmt.Errorf("invalid %s: must be <= %d", key, maximum)
	}
	return n, nil
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
