package interfaces

import (
	"context"

	"github.com/ternarybob/moutai/internal/models"
)

// PredictionService fetches the normalized price forecast, honouring the staleness cache
// unless forceRefresh is set.
type PredictionService interface {
	Fetch(ctx context.Context, forceRefresh bool) (*models.PredictionResult, error)
}
