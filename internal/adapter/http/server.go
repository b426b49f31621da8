package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/climate-monitor-backfill/internal/backfill"
	"github.com/couchcryptid/climate-monitor-backfill/internal/dispatch"
	"github.com/couchcryptid/climate-monitor-backfill/internal/domain"
	"github.com/couchcryptid/climate-monitor-backfill/internal/live"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodyBytes bounds request documents; a location is a few dozen bytes.
const maxBodyBytes = 1 << 16

// Backfiller runs a full backfill for one location.
type Backfiller interface {
	Run(ctx context.Context, loc domain.Location) (backfill.Report, error)
}

// LocationGetter looks up a registered location by id.
type LocationGetter interface {
	GetLocation(ctx context.Context, id int64) (domain.Location, error)
}

// LiveRunner performs one current-conditions fan-out.
type LiveRunner interface {
	Run(ctx context.Context) (live.Result, error)
}

// Handlers are the operations exposed over HTTP. Locations and Live may be
// nil when no location store is configured.
type Handlers struct {
	Backfill  Backfiller
	Locations LocationGetter
	Live      LiveRunner
}

// Server exposes the trigger endpoints alongside health, readiness and metrics.
type Server struct {
	httpServer *http.Server
	handlers   Handlers
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// backfill and live trigger routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, h Handlers, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       10 * time.Second,
			// A backfill waits for every submission to be acknowledged.
			WriteTimeout: 5 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		handlers: h,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /backfill", s.handleBackfill)
	mux.HandleFunc("POST /locations/{id}/backfill", s.handleLocationBackfill)
	mux.HandleFunc("POST /live", s.handleLive)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleBackfill(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	loc, err := domain.DecodeLocation(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.runBackfill(w, r, loc)
}

func (s *Server) handleLocationBackfill(w http.ResponseWriter, r *http.Request) {
	if s.handlers.Locations == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("no location store configured"))
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, errors.New("location id must be a positive integer"))
		return
	}

	loc, err := s.handlers.Locations.GetLocation(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrLocationNotFound):
		writeError(w, http.StatusNotFound, err)
		return
	case err != nil:
		s.logger.Error("location lookup failed", "location_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.runBackfill(w, r, loc)
}

func (s *Server) runBackfill(w http.ResponseWriter, r *http.Request, loc domain.Location) {
	report, err := s.handlers.Backfill.Run(r.Context(), loc)
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err)
		return
	case errors.Is(err, backfill.ErrBackfillInProgress):
		writeError(w, http.StatusConflict, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusAccepted, backfillResponse{
		LocationID: report.LocationID,
		Complete:   report.Complete(),
		Failed:     len(report.Failed()),
		Outcomes:   report.Outcomes,
	})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	if s.handlers.Live == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("no location store configured"))
		return
	}
	res, err := s.handlers.Live.Run(r.Context())
	if err != nil {
		s.logger.Error("live fan-out failed", "error", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

type backfillResponse struct {
	LocationID int64              `json:"location_id"`
	Complete   bool               `json:"complete"`
	Failed     int                `json:"failed"`
	Outcomes   []dispatch.Outcome `json:"outcomes"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
