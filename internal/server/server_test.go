package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/moutai/internal/app"
	"github.com/ternarybob/moutai/internal/common"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := common.NewDefaultConfig()
	cfg.Forecast.RefreshOnStart = false

	application, err := app.New(cfg, arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { application.Close() })

	return New(application)
}

func TestRoutes(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method     string
		path       string
		wantStatus int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/missing", http.StatusNotFound},
		{http.MethodGet, "/api/health", http.StatusOK},
		{http.MethodGet, "/api/version", http.StatusOK},
		{http.MethodGet, "/api/prediction", http.StatusOK},
		{http.MethodGet, "/api/prediction/refresh", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/history/commit", http.StatusConflict},
		{http.MethodPost, "/api/history/discard", http.StatusOK},
		{http.MethodGet, "/api/scheduler/jobs", http.StatusOK},
		{http.MethodPost, "/api/scheduler/jobs/unknown/trigger", http.StatusNotFound},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
		{http.MethodOptions, "/api/prediction", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestSchedulerJobsListsRefreshJob(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/scheduler/jobs", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Running bool                       `json:"running"`
		Jobs    map[string]json.RawMessage `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Running)
	assert.Contains(t, body.Jobs, app.RefreshJobName)
}

func TestRecoveryMiddleware(t *testing.T) {
	s := newTestServer(t)

	handler := s.withMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/anything", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(RequestIDHeader, "dashboard-42")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "dashboard-42", rec.Header().Get(RequestIDHeader))
}

func TestOperationFor(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "dashboard_page"},
		{"/api/prediction", "forecast_snapshot"},
		{"/api/prediction/refresh", "forecast_refresh"},
		{"/api/history/draft", "history_draft"},
		{"/api/history/commit", "history_commit"},
		{"/api/scheduler/jobs", "scheduler"},
		{"/api/version", "api"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, operationFor(httptest.NewRequest(http.MethodGet, tt.path, nil)))
		})
	}
}
