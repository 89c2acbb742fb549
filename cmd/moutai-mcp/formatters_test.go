package main

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/moutai/internal/models"
)

func bound(v float64) *float64 { return &v }

func sampleResult() *models.PredictionResult {
	return &models.PredictionResult{
		Data: models.PredictionData{
			MarketSummary:  "Demand steady ahead of the holiday.",
			SentimentScore: 25,
			CurrentPrice:   1500,
			History: []models.PricePoint{
				{Date: "2025-01-04", Price: 1505},
				{Date: "2025-01-05", Price: 1500},
			},
			Prediction: []models.PricePoint{
				{Date: "2025-01-06", Price: 1502, UpperBound: bound(1520), LowerBound: bound(1490)},
				{Date: "2025-01-07", Price: 1503},
			},
		},
		Sources:   []models.Source{{Title: "今日酒价", URI: "https://example.com/price"}},
		FetchedAt: time.Date(2025, 1, 6, 9, 30, 0, 0, time.UTC),
	}
}

func TestFormatForecastMarkdown(t *testing.T) {
	text, err := formatForecast(sampleResult(), formatMarkdown)
	require.NoError(t, err)

	assert.Contains(t, text, "**Current price:** ¥1,500.00")
	assert.Contains(t, text, "| 2025-01-06 | ¥1,502.00 | ¥1,490.00 | ¥1,520.00 |")
	assert.Contains(t, text, "| 2025-01-07 | ¥1,503.00 | - | - |")
	assert.Contains(t, text, "- [今日酒价](https://example.com/price)")
	assert.Contains(t, text, "Demand steady")
}

func TestFormatForecastJSON(t *testing.T) {
	text, err := formatForecast(sampleResult(), formatJSON)
	require.NoError(t, err)

	var decoded models.PredictionResult
	require.NoError(t, json.Unmarshal([]byte(text), &decoded))
	assert.Equal(t, 1500.0, decoded.Data.CurrentPrice)
	require.NotNil(t, decoded.Data.Prediction[0].UpperBound)
	assert.Equal(t, 1520.0, *decoded.Data.Prediction[0].UpperBound)
}

func TestFormatForecastYAML(t *testing.T) {
	text, err := formatForecast(sampleResult(), "YAML")
	require.NoError(t, err)

	assert.Contains(t, text, "current_price: 1500")
	assert.Contains(t, text, "upper_bound: 1520")

	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal([]byte(text), &decoded))
	assert.Contains(t, decoded, "data")
	assert.Contains(t, decoded, "sources")
}

func TestFormatHistory(t *testing.T) {
	text, err := formatHistory(sampleResult(), formatMarkdown)
	require.NoError(t, err)
	assert.Contains(t, text, "Price history (2 entries)")
	assert.Contains(t, text, "| 2025-01-04 | ¥1,505.00 |")

	text, err = formatHistory(sampleResult(), formatYAML)
	require.NoError(t, err)
	assert.Contains(t, text, "2025-01-05")
	assert.Contains(t, text, "price: 1500")
}

func TestFormatSourcesEmpty(t *testing.T) {
	assert.Contains(t, formatSources(nil), "No sources cited.")
}
