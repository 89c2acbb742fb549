package prediction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/moutai/internal/common"
	"github.com/ternarybob/moutai/internal/interfaces"
	"github.com/ternarybob/moutai/internal/models"
)

// Config holds the fetch parameters.
type Config struct {
	Model        string // empty uses the provider default
	Temperature  float32
	MinHistory   int
	TemplatesDir string
	HistoryDays  int
	HorizonDays  int
}

// NewConfig builds a fetch config from the application config.
func NewConfig(cfg *common.Config) Config {
	return Config{
		Temperature:  cfg.Gemini.Temperature,
		MinHistory:   cfg.Forecast.MinHistory,
		TemplatesDir: cfg.Forecast.TemplatesDir,
		HistoryDays:  7,
		HorizonDays:  30,
	}
}

// Service fetches, normalizes and caches the price forecast.
type Service struct {
	generator interfaces.Generator
	cache     *Cache
	config    Config
	logger    arbor.ILogger
	now       func() time.Time
}

var _ interfaces.PredictionService = (*Service)(nil)

// NewService creates a prediction service. cache must not be shared with another service.
func NewService(generator interfaces.Generator, cache *Cache, config Config, logger arbor.ILogger) *Service {
	if config.HistoryDays <= 0 {
		config.HistoryDays = 7
	}
	if config.HorizonDays <= 0 {
		config.HorizonDays = 30
	}
	if cache == nil {
		cache = NewCache(DefaultFreshnessWindow)
	}
	return &Service{
		generator: generator,
		cache:     cache,
		config:    config,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Cache exposes the cache for inspection.
func (s *Service) Cache() *Cache {
	return s.cache
}

// Fetch returns the cached result while it is fresh, unless forceRefresh is set.
// Otherwise it calls upstream once, normalizes, and overwrites the cache.
// Failures of the model call or its response are *UpstreamError, *ParseError or
// *InsufficientDataError. A prompt template that cannot be loaded is returned as a
// plain error before upstream is called.
func (s *Service) Fetch(ctx context.Context, forceRefresh bool) (*models.PredictionResult, error) {
	now := s.now()

	if !forceRefresh {
		if entry, ok := s.cache.Get(); ok && s.cache.IsFresh(entry, now) {
			s.logger.Debug().
				Str("fetched_at", entry.FetchedAt().Format(time.RFC3339)).
				Msg("Serving forecast from cache")
			return entry.Result.Clone(), nil
		}
	}

	fetchID := uuid.New().String()
	start := time.Now()

	prompt, err := BuildPrompt(now, s.config, s.logger)
	if err != nil {
		s.logger.Error().Str("fetch_id", fetchID).Err(err).Msg("Forecast prompt unavailable")
		return nil, err
	}

	s.logger.Info().
		Str("fetch_id", fetchID).
		Bool("force_refresh", forceRefresh).
		Msg("Requesting price forecast from model")

	resp, err := s.generator.Generate(ctx, &interfaces.GenerationRequest{
		Model:             s.config.Model,
		Prompt:            prompt.User,
		SystemInstruction: prompt.System,
		Temperature:       s.config.Temperature,
		ResponseMIMEType:  "application/json",
		ResponseSchema:    ResponseSchema(),
		SearchGrounding:   true,
	})
	if err != nil {
		upstreamErr := newUpstreamError(err)
		s.logger.Error().
			Str("fetch_id", fetchID).
			Str("kind", string(upstreamErr.Kind)).
			Err(err).
			Msg("Forecast generation failed")
		return nil, upstreamErr
	}
	if resp == nil {
		return nil, newUpstreamError(fmt.Errorf("generator returned no response"))
	}

	data, err := Normalize(resp.Text, NormalizeOptions{MinHistory: s.config.MinHistory, Logger: s.logger})
	if err != nil {
		s.logger.Warn().
			Str("fetch_id", fetchID).
			Int("response_length", len(resp.Text)).
			Err(err).
			Msg("Forecast response rejected")
		return nil, err
	}

	fetchedAt := s.now()
	result := &models.PredictionResult{
		Data:      *data,
		Sources:   ExtractSources(resp.Sources),
		FetchedAt: fetchedAt,
	}

	// A result without forecast points is rejected by the dashboard, so it is
	// never cached and the next non-forced fetch goes upstream again.
	if len(data.Prediction) > 0 {
		s.cache.Put(&models.CacheEntry{
			Result:               *result,
			FetchedAtEpochMillis: fetchedAt.UnixMilli(),
		})
	} else {
		s.logger.Warn().Str("fetch_id", fetchID).Msg("Forecast response has no forecast points - not cached")
	}

	s.logger.Info().
		Str("fetch_id", fetchID).
		Str("current_price", formatFloat(data.CurrentPrice)).
		Int("history", len(data.History)).
		Int("forecast", len(data.Prediction)).
		Int("sources", len(result.Sources)).
		Dur("duration", time.Since(start)).
		Msg("Forecast refreshed")

	return result.Clone(), nil
}
