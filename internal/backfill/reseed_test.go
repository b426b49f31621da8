package backfill_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/climate-monitor-backfill/internal/backfill"
	"github.com/couchcryptid/climate-monitor-backfill/internal/dispatch"
	"github.com/couchcryptid/climate-monitor-backfill/internal/domain"
	"github.com/couchcryptid/climate-monitor-backfill/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLister struct {
	locations []domain.Location
	err       error
}

func (f fakeLister) ListLocations(_ context.Context) ([]domain.Location, error) {
	return f.locations, f.err
}

var storedLocations = []domain.Location{
	{ID: 1, Latitude: 51.507351, Longitude: -0.127758},
	{ID: 18, Latitude: 51.454514, Longitude: -2.58791},
	{ID: 23, Latitude: 50.2632, Longitude: -5.051},
}

func newReseeder(client dispatch.Client, lister backfill.LocationLister, clock clockwork.Clock) *backfill.Reseeder {
	d := dispatch.NewSequential(client, time.Second, discardLogger(), observability.NewMetricsForTesting())
	return backfill.NewReseeder(lister, d, "orchestrator", 20*time.Minute, clock, discardLogger())
}

func TestReseeder_PausesBetweenLocations(t *testing.T) {
	clock := clockwork.NewFakeClock()
	client := &fakeClient{}
	r := newReseeder(client, fakeLister{locations: storedLocations}, clock)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan []dispatch.Outcome, 1)
	go func() {
		out, err := r.Run(ctx)
		assert.NoError(t, err)
		done <- out
	}()

	for range len(storedLocations) - 1 {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(20 * time.Minute)
	}

	outcomes := <-done
	require.Len(t, outcomes, 3)
	for i, sub := range client.subs {
		assert.Equal(t, "orchestrator", sub.Unit)
		assert.InDelta(t, float64(storedLocations[i].ID), sub.Payload["location_id"], 0)
		assert.NotContains(t, sub.Payload, "start_date")
	}
}

func TestReseeder_CancelDuringPause(t *testing.T) {
	clock := clockwork.NewFakeClock()
	client := &fakeClient{}
	r := newReseeder(client, fakeLister{locations: storedLocations}, clock)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	var outcomes []dispatch.Outcome
	go func() {
		var err error
		outcomes, err = r.Run(ctx)
		done <- err
	}()

	blockCtx, blockCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer blockCancel()
	require.NoError(t, clock.BlockUntilContext(blockCtx, 1))
	cancel()

	require.ErrorIs(t, <-done, context.Canceled)
	assert.Len(t, outcomes, 1)
	assert.Len(t, client.subs, 1)
}

func TestReseeder_ListError(t *testing.T) {
	r := newReseeder(&fakeClient{}, fakeLister{err: errors.New("connection refused")}, clockwork.NewFakeClock())

	_, err := r.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list locations")
}
