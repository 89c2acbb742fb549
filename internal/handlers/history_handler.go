package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/moutai/internal/services/dashboard"
)

// HistoryHandler exposes local edits of the displayed history.
// Edits only touch dashboard view state.
type HistoryHandler struct {
	dashboard DashboardService
	logger    arbor.ILogger
}

// draftUpdateRequest is the body of PUT /api/history/draft
type draftUpdateRequest struct {
	Index *int     `json:"index"`
	Price *float64 `json:"price"`
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(dashboard DashboardService, logger arbor.ILogger) *HistoryHandler {
	return &HistoryHandler{
		dashboard: dashboard,
		logger:    logger,
	}
}

// BeginEditHandler starts an edit session and returns the draft.
// POST /api/history/edit
func (h *HistoryHandler) BeginEditHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	draft := h.dashboard.BeginHistoryEdit()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"editing": true,
		"draft":   draft,
	})
}

// UpdateDraftHandler sets one draft price.
// PUT /api/history/draft {"index": n, "price": p}
func (h *HistoryHandler) UpdateDraftHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPut) {
		return
	}

	var req draftUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Index == nil || req.Price == nil {
		WriteError(w, http.StatusBadRequest, "index and price are required")
		return
	}

	if err := h.dashboard.UpdateDraftPoint(*req.Index, *req.Price); err != nil {
		WriteError(w, draftErrorStatus(err), err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, h.dashboard.Snapshot())
}

// CommitHandler copies the draft into the displayed history.
// POST /api/history/commit
func (h *HistoryHandler) CommitHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	if err := h.dashboard.CommitHistoryEdit(); err != nil {
		WriteError(w, draftErrorStatus(err), err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, h.dashboard.Snapshot())
}

// DiscardHandler drops the draft.
// POST /api/history/discard
func (h *HistoryHandler) DiscardHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	h.dashboard.DiscardHistoryEdit()
	WriteJSON(w, http.StatusOK, h.dashboard.Snapshot())
}

func draftErrorStatus(err error) int {
	switch {
	case errors.Is(err, dashboard.ErrNotEditing):
		return http.StatusConflict
	case errors.Is(err, dashboard.ErrIndexOutOfRange), errors.Is(err, dashboard.ErrInvalidPrice):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
