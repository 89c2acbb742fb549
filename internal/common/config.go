package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Logging     LoggingConfig   `toml:"logging"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	LLM         LLMConfig       `toml:"llm"`
	Forecast    ForecastConfig  `toml:"forecast"`
	WebSocket   WebSocketConfig `toml:"websocket"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"min=1,max=65535"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=debug info warn error"`
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Console time format (default: "15:04:05")
	FilePath   string   `toml:"file_path"`   // Log file when "file" output is enabled
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Lowest-priority key source; env vars win
	Model       string  `toml:"model"`       // Default: "gemini-3-pro-preview"
	Thinking    string  `toml:"thinking"`    // NONE, LOW, MEDIUM, HIGH (default: "NONE")
	Timeout     string  `toml:"timeout"`     // Upstream call timeout (default: "5m")
	Temperature float32 `toml:"temperature"` // Default 0 for reproducible output
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API with search grounding
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API (no grounding citations)
	LLMProviderClaude LLMProvider = "claude"
)

type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider" validate:"oneof=gemini claude"`
}

// ForecastConfig controls the fetch, cache and refresh cycle
type ForecastConfig struct {
	FreshnessWindow string `toml:"freshness_window"` // Cache window (default: "5m")
	MinHistory      int    `toml:"min_history" validate:"min=1"`
	RefreshSchedule string `toml:"refresh_schedule"` // Cron spec (default: "@every 1h")
	RefreshOnStart  bool   `toml:"refresh_on_start"`
	TemplatesDir    string `toml:"templates_dir"` // Optional override dir for prompt templates
}

// WebSocketConfig controls live state push
type WebSocketConfig struct {
	BroadcastInterval string `toml:"broadcast_interval"` // Minimum gap between state pushes (default: "250ms")
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
			FilePath:   "./logs/moutai.log",
		},
		Gemini: GeminiConfig{
			Model:       "gemini-3-pro-preview",
			Thinking:    "NONE",
			Timeout:     "5m",
			Temperature: 0,
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-5",
			MaxTokens:   8192,
			Timeout:     "5m",
			Temperature: 0,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
		Forecast: ForecastConfig{
			FreshnessWindow: "5m",
			MinHistory:      5,
			RefreshSchedule: "@every 1h",
			RefreshOnStart:  true,
		},
		WebSocket: WebSocketConfig{
			BroadcastInterval: "250ms",
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env.
// CLI flags are applied afterwards with ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies MOUTAI_* environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("MOUTAI_ENV"); env != "" {
		config.Environment = env
	}

	// Server
	if port := os.Getenv("MOUTAI_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("MOUTAI_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Logging
	if level := os.Getenv("MOUTAI_LOG_LEVEL"); level != "" {
		config.Logging.Level = strings.ToLower(level)
	}
	if output := os.Getenv("MOUTAI_LOG_OUTPUT"); output != "" {
		if outputs := splitList(output); len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Gemini (the API key is resolved at call time, see ResolveGeminiAPIKey)
	if model := os.Getenv("MOUTAI_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if thinking := os.Getenv("MOUTAI_GEMINI_THINKING"); thinking != "" {
		config.Gemini.Thinking = thinking
	}
	if timeout := os.Getenv("MOUTAI_GEMINI_TIMEOUT"); timeout != "" {
		config.Gemini.Timeout = timeout
	}
	if temperature := os.Getenv("MOUTAI_GEMINI_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Gemini.Temperature = float32(t)
		}
	}

	// Claude
	if model := os.Getenv("MOUTAI_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("MOUTAI_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}

	if provider := os.Getenv("MOUTAI_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(strings.ToLower(provider))
	}

	// Forecast
	if window := os.Getenv("MOUTAI_FORECAST_FRESHNESS_WINDOW"); window != "" {
		config.Forecast.FreshnessWindow = window
	}
	if minHistory := os.Getenv("MOUTAI_FORECAST_MIN_HISTORY"); minHistory != "" {
		if mh, err := strconv.Atoi(minHistory); err == nil {
			config.Forecast.MinHistory = mh
		}
	}
	if schedule := os.Getenv("MOUTAI_FORECAST_REFRESH_SCHEDULE"); schedule != "" {
		config.Forecast.RefreshSchedule = schedule
	}
	if onStart := os.Getenv("MOUTAI_FORECAST_REFRESH_ON_START"); onStart != "" {
		if b, err := strconv.ParseBool(onStart); err == nil {
			config.Forecast.RefreshOnStart = b
		}
	}
	if dir := os.Getenv("MOUTAI_FORECAST_TEMPLATES_DIR"); dir != "" {
		config.Forecast.TemplatesDir = dir
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks field constraints, durations and the refresh schedule.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	durations := map[string]string{
		"gemini.timeout":               c.Gemini.Timeout,
		"claude.timeout":               c.Claude.Timeout,
		"forecast.freshness_window":    c.Forecast.FreshnessWindow,
		"websocket.broadcast_interval": c.WebSocket.BroadcastInterval,
	}
	for key, value := range durations {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", key, err)
		}
	}

	if err := ValidateSchedule(c.Forecast.RefreshSchedule); err != nil {
		return fmt.Errorf("invalid forecast.refresh_schedule: %w", err)
	}

	return nil
}

// ValidateSchedule validates a standard five-field cron spec or an @descriptor such as "@every 1h".
func ValidateSchedule(schedule string) error {
	if strings.TrimSpace(schedule) == "" {
		return fmt.Errorf("schedule is empty")
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

// ResolveGeminiAPIKey resolves the Gemini key at call time.
// Resolution order: MOUTAI_GEMINI_API_KEY → GEMINI_API_KEY → API_KEY → config fallback → error
func ResolveGeminiAPIKey(configFallback string) (string, error) {
	return resolveAPIKey("gemini", configFallback, "MOUTAI_GEMINI_API_KEY", "GEMINI_API_KEY", "API_KEY")
}

// ResolveClaudeAPIKey resolves the Anthropic key at call time.
func ResolveClaudeAPIKey(configFallback string) (string, error) {
	return resolveAPIKey("claude", configFallback, "MOUTAI_CLAUDE_API_KEY", "ANTHROPIC_API_KEY")
}

func resolveAPIKey(name, configFallback string, envVars ...string) (string, error) {
	for _, envVar := range envVars {
		if value := strings.TrimSpace(os.Getenv(envVar)); value != "" {
			return value, nil
		}
	}
	if configFallback != "" {
		return configFallback, nil
	}
	return "", fmt.Errorf("%s API key not found in %s or config", name, strings.Join(envVars, ", "))
}

// ParseDurationOr parses value, returning fallback when it is empty or invalid.
func ParseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
