package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/climate-monitor-backfill/internal/observability"
	"golang.org/x/sync/errgroup"
)

// Concurrent submits up to limit jobs at once. Outcomes keep the index of
// their job so correlation survives out-of-order completion.
type Concurrent struct {
	submitter
	limit int
}

// NewConcurrent creates a Concurrent dispatcher. A limit below 1 is treated as 1.
func NewConcurrent(client Client, limit int, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Concurrent {
	if limit < 1 {
		limit = 1
	}
	return &Concurrent{
		submitter: submitter{client: client, timeout: timeout, logger: logger, metrics: metrics},
		limit:     limit,
	}
}

func (d *Concurrent) Dispatch(ctx context.Context, jobs []Job) []Outcome {
	outcomes := make([]Outcome, len(jobs))

	// Submission failures are folded into outcomes, so the group never sees
	// an error and one failed job never cancels its siblings.
	var g errgroup.Group
	g.SetLimit(d.limit)
	for i, job := range jobs {
		g.Go(func() error {
			outcomes[i] = d.submit(ctx, job)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// New picks Sequential for concurrency 1 and Concurrent above that.
func New(client Client, concurrency int, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) Dispatcher {
	if concurrency <= 1 {
		return NewSequential(client, timeout, logger, metrics)
	}
	return NewConcurrent(client, concurrency, timeout, logger, metrics)
}
