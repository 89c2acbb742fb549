package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ternarybob/moutai/internal/app"
	"github.com/ternarybob/moutai/internal/common"
)

func main() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}

	// Load configuration
	var configFiles []string
	if configPath := os.Getenv("MOUTAI_CONFIG"); configPath != "" {
		configFiles = append(configFiles, configPath)
	} else if _, err := os.Stat("moutai.toml"); err == nil {
		configFiles = append(configFiles, "moutai.toml")
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// stdout carries the MCP protocol, so logs go to file only
	config.Logging.Output = []string{"file"}
	if config.Logging.Level == "info" || config.Logging.Level == "debug" {
		config.Logging.Level = "warn"
	}
	logger := common.InitLogger(config)

	predictions, generator := app.NewPredictionService(config, logger)
	defer generator.Close()

	mcpServer := server.NewMCPServer(
		"moutai",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	mcpServer.AddTool(createGetPriceForecastTool(), handleGetPriceForecast(predictions, logger))
	mcpServer.AddTool(createGetPriceHistoryTool(), handleGetPriceHistory(predictions, logger))
	mcpServer.AddTool(createGetSourcesTool(), handleGetSources(predictions, logger))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
