package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/moutai/internal/common"
	"github.com/ternarybob/moutai/internal/handlers"
	"github.com/ternarybob/moutai/internal/interfaces"
	"github.com/ternarybob/moutai/internal/services/dashboard"
	"github.com/ternarybob/moutai/internal/services/llm"
	"github.com/ternarybob/moutai/internal/services/prediction"
	"github.com/ternarybob/moutai/internal/services/scheduler"
)

// RefreshJobName is the scheduler job that refreshes the dashboard.
const RefreshJobName = "forecast_refresh"

// App holds all application components and dependencies
type App struct {
	Config    *common.Config
	Logger    arbor.ILogger
	ctx       context.Context
	cancelCtx context.CancelFunc

	// Services
	LLMService        *llm.ProviderFactory
	PredictionService *prediction.Service
	DashboardService  *dashboard.Service
	SchedulerService  interfaces.SchedulerService

	// HTTP handlers
	APIHandler        *handlers.APIHandler
	PageHandler       *handlers.PageHandler
	PredictionHandler *handlers.PredictionHandler
	HistoryHandler    *handlers.HistoryHandler
	SchedulerHandler  *handlers.SchedulerHandler
	WSHandler         *handlers.WebSocketHandler

	unsubscribe func()
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		Config:    cfg,
		Logger:    logger,
		ctx:       ctx,
		cancelCtx: cancel,
	}

	if err := app.initServices(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	if err := app.initScheduler(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	logger.Info().
		Str("llm_provider", string(cfg.LLM.DefaultProvider)).
		Str("gemini_model", cfg.Gemini.Model).
		Str("refresh_schedule", cfg.Forecast.RefreshSchedule).
		Msg("Application initialized")

	return app, nil
}

// NewPredictionService builds the generator, cache and prediction service from config.
// It is shared by the web server and the MCP server.
func NewPredictionService(cfg *common.Config, logger arbor.ILogger) (*prediction.Service, *llm.ProviderFactory) {
	generator := llm.NewProviderFactory(&cfg.Gemini, &cfg.Claude, &cfg.LLM, logger)

	window := common.ParseDurationOr(cfg.Forecast.FreshnessWindow, prediction.DefaultFreshnessWindow)
	cache := prediction.NewCache(window)

	return prediction.NewService(generator, cache, prediction.NewConfig(cfg), logger), generator
}

func (a *App) initServices() error {
	a.PredictionService, a.LLMService = NewPredictionService(a.Config, a.Logger)
	a.Logger.Debug().
		Str("freshness_window", a.PredictionService.Cache().Window().String()).
		Msg("Prediction service initialized")

	a.DashboardService = dashboard.NewService(a.PredictionService, a.Logger)
	a.SchedulerService = scheduler.NewService(a.Logger)

	return nil
}

func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler(a.Logger)
	a.PageHandler = handlers.NewPageHandler(a.DashboardService, a.Logger, !a.Config.IsProduction())
	a.PredictionHandler = handlers.NewPredictionHandler(a.DashboardService, a.Logger)
	a.HistoryHandler = handlers.NewHistoryHandler(a.DashboardService, a.Logger)
	a.SchedulerHandler = handlers.NewSchedulerHandler(a.SchedulerService)
	a.WSHandler = handlers.NewWebSocketHandler(a.DashboardService, a.Logger, &a.Config.WebSocket)

	// Every dashboard state change is pushed to websocket clients
	a.unsubscribe = a.DashboardService.Subscribe(a.WSHandler.BroadcastState)
}

func (a *App) initScheduler() error {
	timeout := common.ParseDurationOr(a.Config.Gemini.Timeout, 5*time.Minute)

	err := a.SchedulerService.RegisterJob(
		RefreshJobName,
		a.Config.Forecast.RefreshSchedule,
		"Refresh the price forecast from the model",
		a.Config.Forecast.RefreshOnStart,
		func() error {
			ctx, cancel := context.WithTimeout(a.ctx, timeout+30*time.Second)
			defer cancel()
			return a.DashboardService.Refresh(ctx, false)
		},
	)
	if err != nil {
		return err
	}

	return a.SchedulerService.Start()
}

// Close closes all application resources
func (a *App) Close() error {
	if a.cancelCtx != nil {
		a.Logger.Info().Msg("Cancelling background goroutines")
		a.cancelCtx()
	}

	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	if a.unsubscribe != nil {
		a.unsubscribe()
	}

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		} else {
			a.Logger.Info().Msg("LLM service closed")
		}
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}
