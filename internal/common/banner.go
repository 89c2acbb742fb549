package common

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and logs the effective startup settings
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.Print("Moutai", GetVersion())

	logger.Info().
		Str("version", GetFullVersion()).
		Str("environment", config.Environment).
		Str("address", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)).
		Str("llm_provider", string(config.LLM.DefaultProvider)).
		Str("refresh_schedule", config.Forecast.RefreshSchedule).
		Str("freshness_window", config.Forecast.FreshnessWindow).
		Msg("Moutai Index forecast dashboard")
}
