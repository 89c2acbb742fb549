package prediction

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/moutai/internal/common"
	"github.com/ternarybob/moutai/internal/templates"
)

// Prompt is the rendered instruction pair sent to the model.
type Prompt struct {
	System string
	User   string
}

// BuildPrompt renders the price forecast template for the calendar date of now.
// Only the date and the configured day counts are interpolated.
func BuildPrompt(now time.Time, cfg Config, logger arbor.ILogger) (*Prompt, error) {
	tmpl, err := templates.GetTemplate(templates.PriceForecast, cfg.TemplatesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt template: %w", err)
	}

	values := map[string]string{
		"date":         now.Format("2006-01-02"),
		"history_days": strconv.Itoa(cfg.HistoryDays),
		"horizon_days": strconv.Itoa(cfg.HorizonDays),
	}

	return &Prompt{
		System: common.ReplacePlaceholders(tmpl.SystemInstruction, values, logger),
		User:   common.ReplacePlaceholders(tmpl.Prompt, values, logger),
	}, nil
}
