package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

const formatDescription = "Output format: markdown (default), json, yaml"

// createGetPriceForecastTool returns the get_price_forecast tool definition
func createGetPriceForecastTool() mcp.Tool {
	return mcp.NewTool("get_price_forecast",
		mcp.WithDescription("Current Feitian Moutai 53% 500ml wholesale price with a 30-day AI forecast, confidence bands, sentiment and market summary"),
		mcp.WithBoolean("force_refresh",
			mcp.Description("Bypass the short-lived cache and query the model again (default: false)"),
		),
		mcp.WithString("format",
			mcp.Description(formatDescription),
			mcp.Enum(formatMarkdown, formatJSON, formatYAML),
		),
	)
}

// createGetPriceHistoryTool returns the get_price_history tool definition
func createGetPriceHistoryTool() mcp.Tool {
	return mcp.NewTool("get_price_history",
		mcp.WithDescription("Recent daily wholesale prices used as the forecast baseline"),
		mcp.WithString("format",
			mcp.Description(formatDescription),
			mcp.Enum(formatMarkdown, formatJSON, formatYAML),
		),
	)
}

// createGetSourcesTool returns the get_price_sources tool definition
func createGetSourcesTool() mcp.Tool {
	return mcp.NewTool("get_price_sources",
		mcp.WithDescription("Web sources cited by the model for the latest forecast"),
	)
}
