package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/moutai/internal/models"
	"github.com/ternarybob/moutai/internal/services/dashboard"
)

func TestBeginEditHandler(t *testing.T) {
	dash := new(MockDashboard)
	dash.On("BeginHistoryEdit").Return([]models.PricePoint{{Date: "2025-01-05", Price: 1500}})
	h := NewHistoryHandler(dash, arbor.NewLogger())

	rec := httptest.NewRecorder()
	h.BeginEditHandler(rec, httptest.NewRequest(http.MethodPost, "/api/history/edit", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"editing":true`)
	assert.Contains(t, rec.Body.String(), `"2025-01-05"`)
}

func TestUpdateDraftHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{name: "ok", body: `{"index":0,"price":1488}`, wantStatus: http.StatusOK},
		{name: "bad json", body: `{`, wantStatus: http.StatusBadRequest},
		{name: "missing price", body: `{"index":0}`, wantStatus: http.StatusBadRequest},
		{name: "not editing", body: `{"index":0,"price":1}`, err: dashboard.ErrNotEditing, wantStatus: http.StatusConflict},
		{name: "out of range", body: `{"index":9,"price":1}`, err: fmt.Errorf("%w: 9", dashboard.ErrIndexOutOfRange), wantStatus: http.StatusBadRequest},
		{name: "negative", body: `{"index":0,"price":-1}`, err: dashboard.ErrInvalidPrice, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dash := new(MockDashboard)
			dash.On("UpdateDraftPoint", mock.AnythingOfType("int"), mock.AnythingOfType("float64")).Return(tt.err)
			dash.On("Snapshot").Return(loadedSnapshot())
			h := NewHistoryHandler(dash, arbor.NewLogger())

			rec := httptest.NewRecorder()
			h.UpdateDraftHandler(rec, httptest.NewRequest(http.MethodPut, "/api/history/draft", strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestCommitAndDiscardHandlers(t *testing.T) {
	dash := new(MockDashboard)
	dash.On("CommitHistoryEdit").Return(dashboard.ErrNotEditing).Once()
	dash.On("CommitHistoryEdit").Return(nil).Once()
	dash.On("DiscardHistoryEdit").Return().Once()
	dash.On("Snapshot").Return(loadedSnapshot())
	h := NewHistoryHandler(dash, arbor.NewLogger())

	rec := httptest.NewRecorder()
	h.CommitHandler(rec, httptest.NewRequest(http.MethodPost, "/api/history/commit", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	h.CommitHandler(rec, httptest.NewRequest(http.MethodPost, "/api/history/commit", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.DiscardHandler(rec, httptest.NewRequest(http.MethodPost, "/api/history/discard", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	dash.AssertExpectations(t)
}
