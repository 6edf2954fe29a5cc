package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/precip-history-service/internal/domain"
)

// Tracker is the slice of the observation tracker the API exposes.
type Tracker interface {
	CheckReadiness(ctx context.Context) error
	Summary() domain.Summary
	WaterState() domain.WaterState
	RunCycle(ctx context.Context) domain.Summary
	Reset(ctx context.Context) domain.Summary
}

// Server exposes health, readiness, and metrics endpoints plus the station
// attribute API under /api/v1.
type Server struct {
	httpServer *http.Server
	tracker    Tracker
	logger     *slog.Logger
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(addr string, tracker Tracker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// Refresh waits on an upstream fetch, so writes get more headroom
			// than the health routes need.
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		tracker: tracker,
		logger:  logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/v1/summary", s.handleSummary)
	mux.HandleFunc("GET /api/v1/water", s.handleWater)
	mux.HandleFunc("POST /api/v1/refresh", s.handleRefresh)
	mux.HandleFunc("POST /api/v1/reset", s.handleReset)

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

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.tracker.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// summaryResponse wraps the derived attribute set for API consumers. The
// newest address carries the zero-padded published form alongside the raw
// summary fields.
type summaryResponse struct {
	NewestAddress string             `json:"newest_address"`
	Summary       domain.Summary     `json:"summary"`
	Attributes    []domain.Attribute `json:"attributes"`
}

func toSummaryResponse(s domain.Summary) summaryResponse {
	return summaryResponse{
		NewestAddress: s.NewestAddress.String(),
		Summary:       s,
		Attributes:    s.Attributes(),
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toSummaryResponse(s.tracker.Summary()))
}

func (s *Server) handleWater(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"state":       s.tracker.WaterState(),
		"precip_24hr": s.tracker.Summary().Precip24Hr,
	})
}

// handleRefresh runs a full cycle synchronously and returns the resulting
// summary, giving operators a poll-now escape hatch between scheduled runs.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("manual refresh requested", "remote", r.RemoteAddr)
	writeJSON(w, http.StatusOK, toSummaryResponse(s.tracker.RunCycle(r.Context())))
}

// handleReset drops all retained records and republishes a zeroed summary.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("history reset requested", "remote", r.RemoteAddr)
	writeJSON(w, http.StatusOK, toSummaryResponse(s.tracker.Reset(r.Context())))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
