package handlers

import (
	"context"

	"github.com/ternarybob/moutai/internal/models"
	"github.com/ternarybob/moutai/internal/services/dashboard"
)

// DashboardService is the subset of dashboard.Service the HTTP layer drives.
type DashboardService interface {
	Refresh(ctx context.Context, forceRefresh bool) error
	Snapshot() dashboard.Snapshot
	BeginHistoryEdit() []models.PricePoint
	UpdateDraftPoint(index int, price float64) error
	CommitHistoryEdit() error
	DiscardHistoryEdit()
}

// SnapshotSource provides the current dashboard snapshot.
type SnapshotSource interface {
	Snapshot() dashboard.Snapshot
}
