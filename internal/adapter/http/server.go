package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/montreal-aqi/internal/domain"
	"github.com/couchcryptid/montreal-aqi/internal/service"
)

// StationService answers live station queries.
type StationService interface {
	StationAQI(ctx context.Context, stationID string) (domain.StationReading, error)
	OpenStations(ctx context.Context) ([]domain.Station, error)
}

// LatestReadings holds the readings of the last poll cycle.
type LatestReadings interface {
	Latest(stationID string) (domain.StationReading, bool)
}

// Server exposes health, readiness, metrics, and station HTTP endpoints.
type Server struct {
	httpServer *http.Server
	stations   StationService
	latest     LatestReadings
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics,
// /stations, and /stations/{id}/aqi routes. latest may be nil.
func NewServer(addr string, ready sharedobs.ReadinessChecker, stations StationService, latest LatestReadings, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		stations: stations,
		latest:   latest,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /stations", s.handleStations)
	mux.HandleFunc("GET /stations/{id}/aqi", s.handleStationAQI)

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

func (s *Server) handleStations(w http.ResponseWriter, r *http.Request) {
	stations, err := s.stations.OpenStations(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.NewStationsEnvelope(stations))
}

func (s *Server) handleStationAQI(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if s.latest != nil {
		if reading, ok := s.latest.Latest(id); ok {
			writeJSON(w, http.StatusOK, domain.NewStationEnvelope(reading))
			return
		}
	}

	reading, err := s.stations.StationAQI(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.NewStationEnvelope(reading))
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := service.ErrorCode(err)
	status := http.StatusBadGateway
	switch code {
	case service.CodeNoData:
		status = http.StatusNotFound
	case service.CodeAPIError:
		status = http.StatusInternalServerError
	}
	if status != http.StatusNotFound && !errors.Is(err, context.Canceled) {
		s.logger.Error("station request failed", "error", err, "code", code)
	}
	writeJSON(w, status, domain.NewErrorEnvelope(code, err.Error()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
