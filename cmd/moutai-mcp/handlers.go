package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/moutai/internal/interfaces"
	"github.com/ternarybob/moutai/internal/models"
	"github.com/ternarybob/moutai/internal/services/prediction"
)

// handleGetPriceForecast implements the get_price_forecast tool
func handleGetPriceForecast(predictions interfaces.PredictionService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		force := request.GetBool("force_refresh", false)

		result, errResult := fetch(ctx, predictions, force, logger)
		if errResult != nil {
			return errResult, nil
		}

		text, err := formatForecast(result, request.GetString("format", formatMarkdown))
		if err != nil {
			return textResult(fmt.Sprintf("Format error: %v", err), true), nil
		}
		return textResult(text, false), nil
	}
}

// handleGetPriceHistory implements the get_price_history tool
func handleGetPriceHistory(predictions interfaces.PredictionService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, errResult := fetch(ctx, predictions, false, logger)
		if errResult != nil {
			return errResult, nil
		}

		text, err := formatHistory(result, request.GetString("format", formatMarkdown))
		if err != nil {
			return textResult(fmt.Sprintf("Format error: %v", err), true), nil
		}
		return textResult(text, false), nil
	}
}

// handleGetSources implements the get_price_sources tool
func handleGetSources(predictions interfaces.PredictionService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, errResult := fetch(ctx, predictions, false, logger)
		if errResult != nil {
			return errResult, nil
		}
		return textResult(formatSources(result.Sources), false), nil
	}
}

// fetch runs the prediction fetch and converts failures into a tool error result
func fetch(ctx context.Context, predictions interfaces.PredictionService, force bool, logger arbor.ILogger) (*models.PredictionResult, *mcp.CallToolResult) {
	result, err := predictions.Fetch(ctx, force)
	if err == nil {
		return result, nil
	}

	logger.Error().Err(err).Bool("force_refresh", force).Msg("Forecast fetch failed")

	message := err.Error()
	var userErr prediction.UserFacingError
	if errors.As(err, &userErr) {
		message = userErr.UserMessage()
	}
	return nil, textResult("Forecast unavailable: "+message, true)
}

func textResult(text string, isError bool) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
		IsError: isError,
	}
}
