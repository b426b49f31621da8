package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/climate-monitor-backfill/internal/observability"
)

// Sequential submits jobs one at a time in order. Submission order is stable
// which keeps logs reproducible. Once ctx is cancelled the remaining jobs are
// reported as not submitted without reaching the client.
type Sequential struct {
	submitter
}

// NewSequential creates a Sequential dispatcher. A zero timeout leaves each
// submission bounded only by ctx.
func NewSequential(client Client, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Sequential {
	return &Sequential{submitter{client: client, timeout: timeout, logger: logger, metrics: metrics}}
}

func (d *Sequential) Dispatch(ctx context.Context, jobs []Job) []Outcome {
	outcomes := make([]Outcome, len(jobs))
	for i, job := range jobs {
		outcomes[i] = d.submit(ctx, job)
	}
	return outcomes
}
