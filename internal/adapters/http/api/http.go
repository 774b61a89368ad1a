// Package api declares HTTP contracts and route registration helpers for
// the admin surface.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"jobwatch/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	// RunCycle triggers one watch cycle and reports its outcome.
	RunCycle(ctx context.Context) (types.CycleReport, error)

	// GetStats exposes service statistics.
	GetStats() map[string]interface{}

	// Healthy reports whether the posting store is reachable.
	Healthy(ctx context.Context) error
}

// Server wires HTTP routes for the admin API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	cycleHandler   *CycleHandler
	metricsHandler http.Handler
}

// NewServer creates a new admin server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(deps),
		statsHandler:   NewStatsHandler(deps),
		cycleHandler:   NewCycleHandler(deps),
		metricsHandler: newMetricsHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/cycle", MetricsMiddleware(s.cycleHandler.HandleCycle, "cycle"))
	mux.Handle("/metrics", s.metricsHandler)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
