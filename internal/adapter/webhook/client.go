// Package webhook submits units of work as JSON POSTs to an HTTP endpoint.
package webhook

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/climate-monitor-backfill/internal/dispatch"
	"github.com/sony/gobreaker"
)

const maxErrorBody = 512

// Client implements dispatch.Client by POSTing each payload to {baseURL}/{unit}.
type Client struct {
	httpClient *http.Client
	baseURL    string
	circuit    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates a webhook client. The receiver is expected to accept the
// work and respond before processing it. After six consecutive failures the
// circuit opens and submissions fail fast for two minutes.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "webhook",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		// A caller abandoning its request says nothing about the worker.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			logger.Warn("webhook circuit state changed", "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		circuit: cb,
		logger:  logger,
	}
}

// Submit posts payload and accepts any 2xx response.
func (c *Client) Submit(ctx context.Context, unit string, payload []byte) (dispatch.Ack, error) {
	var ack dispatch.Ack
	_, err := c.circuit.Execute(func() (interface{}, error) {
		var err error
		ack, err = c.post(ctx, unit, payload)
		return nil, err
	})
	return ack, err
}

func (c *Client) post(ctx context.Context, unit string, payload []byte) (dispatch.Ack, error) {
	u := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(unit))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return dispatch.Ack{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return dispatch.Ack{}, fmt.Errorf("post %s: %w", unit, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return dispatch.Ack{StatusCode: resp.StatusCode}, fmt.Errorf("webhook rejected %s: status %d: %s", unit, resp.StatusCode, body)
	}
	io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse

	c.logger.Debug("webhook accepted", "unit", unit, "status", resp.StatusCode)
	return dispatch.Ack{StatusCode: resp.StatusCode}, nil
}
