// Package dispatch submits units of work to an asynchronous execution
// transport and records whether each submission was accepted.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/climate-monitor-backfill/internal/domain"
	"github.com/couchcryptid/climate-monitor-backfill/internal/observability"
)

// Ack is the transport's acknowledgement of an accepted submission.
type Ack struct {
	StatusCode int
}

// Client submits a unit of work for asynchronous execution. It returns once
// the work is accepted; it never waits for the unit to finish.
type Client interface {
	Submit(ctx context.Context, unit string, payload []byte) (Ack, error)
}

// Job is one planned submission. Interval is nil for non-partitioned units.
type Job struct {
	Unit     string
	Interval *domain.DateInterval
	Payload  []byte
}

// NewJob encodes payload as JSON and pairs it with unit.
func NewJob(unit string, interval *domain.DateInterval, payload any) (Job, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Job{}, fmt.Errorf("%w: encode %s payload: %w", domain.ErrInvalidArgument, unit, err)
	}
	return Job{Unit: unit, Interval: interval, Payload: data}, nil
}

// Outcome records the result of submitting one Job.
type Outcome struct {
	Unit       string               `json:"unit_name"`
	Interval   *domain.DateInterval `json:"interval"`
	Submitted  bool                 `json:"submitted"`
	StatusCode int                  `json:"status_code,omitempty"`
	Detail     string               `json:"detail"`
	Err        error                `json:"-"`
}

// Dispatcher submits a batch of jobs. Outcome i always belongs to job i.
type Dispatcher interface {
	Dispatch(ctx context.Context, jobs []Job) []Outcome
}

// submitter holds what both dispatchers share: the client, the
// per-submission timeout and the observability hooks.
type submitter struct {
	client  Client
	timeout time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

// submit sends one job, bounding the call by the configured timeout. It never
// returns an error; failures are folded into the Outcome.
func (s *submitter) submit(ctx context.Context, job Job) Outcome {
	out := Outcome{Unit: job.Unit, Interval: job.Interval}

	if job.Unit == "" {
		return s.fail(out, fmt.Errorf("%w: empty unit name", domain.ErrInvalidArgument))
	}
	if err := ctx.Err(); err != nil {
		return s.fail(out, domain.SubmissionError(job.Unit, err))
	}

	subCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		subCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	ack, err := s.client.Submit(subCtx, job.Unit, job.Payload)
	s.metrics.DispatchDuration.WithLabelValues(job.Unit).Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(subCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return s.fail(out, domain.TimeoutError(job.Unit, err))
		}
		if !errors.Is(err, domain.ErrSubmissionFailure) {
			err = domain.SubmissionError(job.Unit, err)
		}
		return s.fail(out, err)
	}

	out.Submitted = true
	out.StatusCode = ack.StatusCode
	out.Detail = fmt.Sprintf("accepted with status %d", ack.StatusCode)
	s.metrics.DispatchSubmissions.WithLabelValues(job.Unit, observability.OutcomeSubmitted).Inc()
	s.logger.Info("unit submitted", append(intervalAttrs(job.Interval),
		"unit", job.Unit,
		"status", ack.StatusCode,
	)...)
	return out
}

func (s *submitter) fail(out Outcome, err error) Outcome {
	out.Submitted = false
	out.Err = err
	out.Detail = err.Error()

	label := observability.OutcomeFailed
	if errors.Is(err, domain.ErrTransportTimeout) {
		label = observability.OutcomeTimeout
	}
	s.metrics.DispatchSubmissions.WithLabelValues(out.Unit, label).Inc()
	s.logger.Warn("unit submission failed", append(intervalAttrs(out.Interval),
		"unit", out.Unit,
		"error", err,
	)...)
	return out
}

func intervalAttrs(iv *domain.DateInterval) []any {
	if iv == nil {
		return nil
	}
	return []any{
		"start_date", iv.Start.Format(domain.DateLayout),
		"end_date", iv.End.Format(domain.DateLayout),
	}
}
