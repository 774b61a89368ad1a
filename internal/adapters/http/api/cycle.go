// Package api declares HTTP contracts and route registration helpers for
// the admin surface.
package api

import (
	"context"
	"errors"
	"net/http"

	service "jobwatch/internal/app"
	"jobwatch/internal/domain/types"
)

// CycleRunner triggers a watch cycle on demand.
type CycleRunner interface {
	RunCycle(ctx context.Context) (types.CycleReport, error)
}

// CycleHandler handles manual cycle triggers.
type CycleHandler struct {
	runner CycleRunner
}

// NewCycleHandler creates a new cycle handler.
func NewCycleHandler(runner CycleRunner) *CycleHandler {
	return &CycleHandler{runner: runner}
}

// HandleCycle handles POST /cycle requests. The cycle runs synchronously;
// the response carries the full report.
func (h *CycleHandler) HandleCycle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	report, err := h.runner.RunCycle(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrCycleInProgress) {
			writeError(w, http.StatusConflict, "cycle_in_progress", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "cycle_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
