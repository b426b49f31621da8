package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpadapter "github.com/couchcryptid/climate-monitor-backfill/internal/adapter/http"
	"github.com/couchcryptid/climate-monitor-backfill/internal/backfill"
	"github.com/couchcryptid/climate-monitor-backfill/internal/dispatch"
	"github.com/couchcryptid/climate-monitor-backfill/internal/domain"
	"github.com/couchcryptid/climate-monitor-backfill/internal/live"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockBackfiller struct {
	got    []domain.Location
	report backfill.Report
	err    error
}

func (m *mockBackfiller) Run(_ context.Context, loc domain.Location) (backfill.Report, error) {
	m.got = append(m.got, loc)
	if m.err != nil {
		return backfill.Report{}, m.err
	}
	r := m.report
	r.LocationID = loc.ID
	return r, nil
}

type mockLocations map[int64]domain.Location

func (m mockLocations) GetLocation(_ context.Context, id int64) (domain.Location, error) {
	loc, ok := m[id]
	if !ok {
		return domain.Location{}, fmt.Errorf("location %d: %w", id, domain.ErrLocationNotFound)
	}
	return loc, nil
}

type mockLive struct {
	res live.Result
	err error
}

func (m *mockLive) Run(_ context.Context) (live.Result, error) { return m.res, m.err }

// --- helpers ---

var truro = domain.Location{ID: 23, Latitude: 50.2632, Longitude: -5.051}

func newTestServer(readyErr error, h httpadapter.Handlers) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, h, slog.Default())
}

func do(srv *httpadapter.Server, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	srv.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// --- tests ---

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil, httpadapter.Handlers{})
	rec := do(srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil, httpadapter.Handlers{})
	rec := do(srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(errors.New("not ready yet"), httpadapter.Handlers{})
	rec := do(srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil, httpadapter.Handlers{})
	rec := do(srv, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestBackfill_Accepted(t *testing.T) {
	bf := &mockBackfiller{report: backfill.Report{Outcomes: []dispatch.Outcome{
		{Unit: "historic-weather", Submitted: true, StatusCode: 202},
		{Unit: "location-assignment", Submitted: false, Detail: "submission failed"},
	}}}
	srv := newTestServer(nil, httpadapter.Handlers{Backfill: bf})

	rec := do(srv, http.MethodPost, "/backfill", `{"location_id":23,"latitude":50.2632,"longitude":-5.051}`)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, bf.got, 1)
	assert.Equal(t, truro, bf.got[0])

	body := decode(t, rec)
	assert.InDelta(t, 23, body["location_id"], 0)
	assert.Equal(t, false, body["complete"])
	assert.InDelta(t, 1, body["failed"], 0)
	assert.Len(t, body["outcomes"], 2)
}

func TestBackfill_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `nope`},
		{"missing latitude", `{"location_id":23,"longitude":-5.051}`},
		{"latitude out of range", `{"location_id":23,"latitude":91,"longitude":-5.051}`},
		{"non-positive id", `{"location_id":0,"latitude":50,"longitude":-5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bf := &mockBackfiller{}
			srv := newTestServer(nil, httpadapter.Handlers{Backfill: bf})

			rec := do(srv, http.MethodPost, "/backfill", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, bf.got, "nothing is run for invalid input")
			assert.NotEmpty(t, decode(t, rec)["error"])
		})
	}
}

func TestBackfill_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid window", fmt.Errorf("partition: %w", domain.ErrInvalidArgument), http.StatusBadRequest},
		{"lock held", fmt.Errorf("lock location 23: %w", backfill.ErrBackfillInProgress), http.StatusConflict},
		{"other", errors.New("redis down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(nil, httpadapter.Handlers{Backfill: &mockBackfiller{err: tt.err}})
			rec := do(srv, http.MethodPost, "/backfill", `{"location_id":23,"latitude":50.2632,"longitude":-5.051}`)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestLocationBackfill(t *testing.T) {
	bf := &mockBackfiller{}
	srv := newTestServer(nil, httpadapter.Handlers{
		Backfill:  bf,
		Locations: mockLocations{23: truro},
	})

	t.Run("known location", func(t *testing.T) {
		rec := do(srv, http.MethodPost, "/locations/23/backfill", "")
		assert.Equal(t, http.StatusAccepted, rec.Code)
		require.NotEmpty(t, bf.got)
		assert.Equal(t, truro, bf.got[len(bf.got)-1])
	})

	t.Run("unknown location", func(t *testing.T) {
		rec := do(srv, http.MethodPost, "/locations/99/backfill", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		rec := do(srv, http.MethodPost, "/locations/abc/backfill", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLocationBackfill_NoStore(t *testing.T) {
	srv := newTestServer(nil, httpadapter.Handlers{Backfill: &mockBackfiller{}})
	rec := do(srv, http.MethodPost, "/locations/23/backfill", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLive(t *testing.T) {
	lv := &mockLive{res: live.Result{Locations: 2, Outcomes: []dispatch.Outcome{
		{Unit: "current-weather", Submitted: true},
	}}}
	srv := newTestServer(nil, httpadapter.Handlers{Backfill: &mockBackfiller{}, Live: lv})

	rec := do(srv, http.MethodPost, "/live", "")

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.InDelta(t, 2, decode(t, rec)["locations"], 0)
}

func TestLive_StoreError(t *testing.T) {
	srv := newTestServer(nil, httpadapter.Handlers{Live: &mockLive{err: errors.New("db down")}})
	rec := do(srv, http.MethodPost, "/live", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestLive_NoStore(t *testing.T) {
	srv := newTestServer(nil, httpadapter.Handlers{})
	rec := do(srv, http.MethodPost, "/live", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAllReady(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, httpadapter.AllReady().CheckReadiness(ctx))
	assert.NoError(t, httpadapter.AllReady(&mockReadiness{}, &mockReadiness{}).CheckReadiness(ctx))

	err := httpadapter.AllReady(
		&mockReadiness{err: errors.New("postgres down")},
		&mockReadiness{},
		&mockReadiness{err: errors.New("redis down")},
	).CheckReadiness(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres down")
	assert.Contains(t, err.Error(), "redis down")
}
