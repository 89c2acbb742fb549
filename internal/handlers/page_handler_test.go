package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/moutai/internal/models"
	"github.com/ternarybob/moutai/internal/services/dashboard"
)

func TestServePageRendersLoadedState(t *testing.T) {
	dash := new(MockDashboard)
	dash.On("Snapshot").Return(loadedSnapshot())
	h := NewPageHandler(dash, arbor.NewLogger(), false)

	rec := httptest.NewRecorder()
	h.ServePage("index.html", "dashboard")(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "¥1,500.00")
	assert.Contains(t, body, "09:30")
	assert.Contains(t, body, "01-06")
	assert.Contains(t, body, "今日酒价")
	assert.NotContains(t, body, "Force refresh")
}

func TestServePageShowsErrorAndBusyState(t *testing.T) {
	snap := dashboard.Snapshot{State: models.NewPredictionState(), Error: "Calibration failed: network fluctuation."}
	snap.State.IsUpdating = true

	dash := new(MockDashboard)
	dash.On("Snapshot").Return(snap)
	h := NewPageHandler(dash, arbor.NewLogger(), false)

	rec := httptest.NewRecorder()
	h.ServePage("index.html", "dashboard")(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Calibration failed: network fluctuation.")
	assert.Contains(t, body, "Force refresh")
	assert.Contains(t, body, "Updating")
	assert.Contains(t, body, "---")
	assert.Contains(t, body, models.LastUpdatePlaceholder)
}
