package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
)

// PredictionHandler serves the dashboard snapshot and the refresh action.
type PredictionHandler struct {
	dashboard DashboardService
	logger    arbor.ILogger
}

// NewPredictionHandler creates a new prediction handler
func NewPredictionHandler(dashboard DashboardService, logger arbor.ILogger) *PredictionHandler {
	return &PredictionHandler{
		dashboard: dashboard,
		logger:    logger,
	}
}

// GetPredictionHandler returns the current snapshot.
// GET /api/prediction
func (h *PredictionHandler) GetPredictionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, h.dashboard.Snapshot())
}

// RefreshHandler runs a refresh and returns the resulting snapshot.
// A failed refresh answers 502 with the user-facing error; prior data stays in the snapshot.
// POST /api/prediction/refresh?force=true|false
func (h *PredictionHandler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	force := QueryBool(r, "force", false)

	h.logger.Debug().Bool("force_refresh", force).Msg("Refresh requested")

	if err := h.dashboard.Refresh(r.Context(), force); err != nil {
		snap := h.dashboard.Snapshot()
		WriteJSON(w, http.StatusBadGateway, map[string]interface{}{
			"status":   "error",
			"error":    snap.Error,
			"snapshot": snap,
		})
		return
	}

	WriteJSON(w, http.StatusOK, h.dashboard.Snapshot())
}
