package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// UI Page routes (HTML templates)
	mux.HandleFunc("/", s.handleRoot)

	// WebSocket route
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Prediction
	mux.HandleFunc("/api/prediction", s.app.PredictionHandler.GetPredictionHandler)     // GET - current snapshot
	mux.HandleFunc("/api/prediction/refresh", s.app.PredictionHandler.RefreshHandler) // POST ?force=true|false

	// API routes - History editing (view state only)
	mux.HandleFunc("/api/history/edit", s.app.HistoryHandler.BeginEditHandler)
	mux.HandleFunc("/api/history/draft", s.app.HistoryHandler.UpdateDraftHandler)
	mux.HandleFunc("/api/history/commit", s.app.HistoryHandler.CommitHandler)
	mux.HandleFunc("/api/history/discard", s.app.HistoryHandler.DiscardHandler)

	// API routes - Scheduler
	mux.HandleFunc("/api/scheduler/jobs", s.app.SchedulerHandler.ListJobsHandler)
	mux.HandleFunc("/api/scheduler/jobs/", s.handleSchedulerJobRoutes)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleRoot serves the dashboard at "/" and 404s everything else the mux falls through to
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.app.PageHandler.ServePage("index.html", "dashboard")(w, r)
}

// handleSchedulerJobRoutes routes /api/scheduler/jobs/{name}/trigger
func (s *Server) handleSchedulerJobRoutes(w http.ResponseWriter, r *http.Request) {
	if RouteByPathSuffix(w, r, "/api/scheduler/jobs/", []PathSuffixRouter{
		{Suffix: "/trigger", Handler: s.app.SchedulerHandler.TriggerJobHandler},
	}) {
		return
	}

	if strings.TrimPrefix(r.URL.Path, "/api/scheduler/jobs/") == "" {
		s.app.SchedulerHandler.ListJobsHandler(w, r)
		return
	}

	s.app.APIHandler.NotFoundHandler(w, r)
}
