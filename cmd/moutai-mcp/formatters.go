package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ternarybob/moutai/internal/models"
	"github.com/ternarybob/moutai/internal/services/dashboard"
)

const (
	formatMarkdown = "markdown"
	formatJSON     = "json"
	formatYAML     = "yaml"
)

// encode renders v as JSON or YAML. ok is false for markdown or unknown formats.
func encode(v interface{}, format string) (string, bool, error) {
	switch strings.ToLower(format) {
	case formatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		return string(data), true, err
	case formatYAML:
		data, err := yaml.Marshal(v)
		return string(data), true, err
	default:
		return "", false, nil
	}
}

// formatForecast formats the full result
func formatForecast(result *models.PredictionResult, format string) (string, error) {
	if text, ok, err := encode(result, format); ok || err != nil {
		return text, err
	}

	data := result.Data
	var sb strings.Builder
	sb.WriteString("## Moutai Index forecast\n\n")
	sb.WriteString(fmt.Sprintf("**Current price:** %s\n", dashboard.FormatPrice(data.CurrentPrice)))
	sb.WriteString(fmt.Sprintf("**Sentiment:** %d\n", data.SentimentScore))
	sb.WriteString(fmt.Sprintf("**Fetched:** %s\n\n", result.FetchedAt.Format(time.RFC3339)))

	if strings.TrimSpace(data.MarketSummary) != "" {
		sb.WriteString("### Market summary\n")
		sb.WriteString(data.MarketSummary)
		sb.WriteString("\n\n")
	}

	sb.WriteString(fmt.Sprintf("### Forecast (%d days)\n", len(data.Prediction)))
	sb.WriteString("| Date | Price | Lower | Upper |\n|---|---|---|---|\n")
	for _, p := range data.Prediction {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", p.Date, dashboard.FormatPrice(p.Price), boundText(p.LowerBound), boundText(p.UpperBound)))
	}
	sb.WriteString("\n")

	sb.WriteString(formatSources(result.Sources))
	return sb.String(), nil
}

// formatHistory formats the recent price history
func formatHistory(result *models.PredictionResult, format string) (string, error) {
	if text, ok, err := encode(result.Data.History, format); ok || err != nil {
		return text, err
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Price history (%d entries)\n\n", len(result.Data.History)))
	sb.WriteString("| Date | Price |\n|---|---|\n")
	for _, p := range result.Data.History {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n", p.Date, dashboard.FormatPrice(p.Price)))
	}
	return sb.String(), nil
}

// formatSources formats cited sources as a markdown list
func formatSources(sources []models.Source) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("### Sources (%d)\n", len(sources)))
	if len(sources) == 0 {
		sb.WriteString("No sources cited.\n")
		return sb.String()
	}
	for _, s := range sources {
		sb.WriteString(fmt.Sprintf("- [%s](%s)\n", s.Title, s.URI))
	}
	return sb.String()
}

func boundText(v *float64) string {
	if v == nil {
		return "-"
	}
	return dashboard.FormatPrice(*v)
}
