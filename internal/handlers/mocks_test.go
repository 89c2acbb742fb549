package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ternarybob/moutai/internal/models"
	"github.com/ternarybob/moutai/internal/services/dashboard"
)

// MockDashboard is a testify mock of DashboardService.
type MockDashboard struct {
	mock.Mock
}

func (m *MockDashboard) Refresh(ctx context.Context, forceRefresh bool) error {
	return m.Called(ctx, forceRefresh).Error(0)
}

func (m *MockDashboard) Snapshot() dashboard.Snapshot {
	return m.Called().Get(0).(dashboard.Snapshot)
}

func (m *MockDashboard) BeginHistoryEdit() []models.PricePoint {
	return m.Called().Get(0).([]models.PricePoint)
}

func (m *MockDashboard) UpdateDraftPoint(index int, price float64) error {
	return m.Called(index, price).Error(0)
}

func (m *MockDashboard) CommitHistoryEdit() error {
	return m.Called().Error(0)
}

func (m *MockDashboard) DiscardHistoryEdit() {
	m.Called()
}

func loadedSnapshot() dashboard.Snapshot {
	state := models.NewPredictionState()
	state.CurrentPrice = 1500
	state.LastUpdate = "09:30"
	state.News = "Stable demand"
	state.History = []models.PricePoint{{Date: "2025-01-05", Price: 1500}}
	state.Prediction = []models.PricePoint{{Date: "2025-01-06", Price: 1502}}
	state.Sources = []models.Source{{Title: "今日酒价", URI: "https://example.com"}}
	return dashboard.Snapshot{State: state}
}
