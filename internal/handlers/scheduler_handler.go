package handlers

import (
	"net/http"
	"strings"

	"github.com/ternarybob/moutai/internal/interfaces"
)

// SchedulerHandler handles scheduler-related endpoints
type SchedulerHandler struct {
	schedulerService interfaces.SchedulerService
}

// NewSchedulerHandler creates a new scheduler handler
func NewSchedulerHandler(schedulerService interfaces.SchedulerService) *SchedulerHandler {
	return &SchedulerHandler{
		schedulerService: schedulerService,
	}
}

// ListJobsHandler returns the status of every registered job.
// GET /api/scheduler/jobs
func (h *SchedulerHandler) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"running": h.schedulerService.IsRunning(),
		"jobs":    h.schedulerService.GetAllJobStatuses(),
	})
}

// TriggerJobHandler runs a job now.
// POST /api/scheduler/jobs/{name}/trigger
func (h *SchedulerHandler) TriggerJobHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	name := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/scheduler/jobs/"), "/trigger")
	if name == "" || strings.Contains(name, "/") {
		WriteError(w, http.StatusBadRequest, "Job name is required")
		return
	}

	if _, err := h.schedulerService.GetJobStatus(name); err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	if err := h.schedulerService.TriggerJob(name); err != nil {
		WriteError(w, http.StatusConflict, err.Error())
		return
	}

	WriteStarted(w, "Job "+name+" triggered")
}
