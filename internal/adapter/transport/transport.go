// Package transport selects the dispatch client named by DISPATCH_TRANSPORT.
package transport

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/climate-monitor-backfill/internal/adapter/kafka"
	"github.com/couchcryptid/climate-monitor-backfill/internal/adapter/lambda"
	"github.com/couchcryptid/climate-monitor-backfill/internal/adapter/webhook"
	"github.com/couchcryptid/climate-monitor-backfill/internal/config"
	"github.com/couchcryptid/climate-monitor-backfill/internal/dispatch"
)

// New builds the configured client. The returned close func releases the
// client's connections and is never nil.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (dispatch.Client, func() error, error) {
	noop := func() error { return nil }

	switch cfg.DispatchTransport {
	case config.TransportLambda:
		c, err := lambda.NewFromEnv(ctx, cfg.AWSRegion, logger)
		if err != nil {
			return nil, noop, err
		}
		return c, noop, nil
	case config.TransportKafka:
		w := kafka.NewWriter(cfg.KafkaBrokers, logger)
		return w, w.Close, nil
	case config.TransportHTTP:
		return webhook.NewClient(cfg.DispatchHTTPBaseURL, cfg.DispatchTimeout, logger), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown dispatch transport %q", cfg.DispatchTransport)
	}
}
