package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"google.golang.org/genai"

	"github.com/ternarybob/moutai/internal/common"
	"github.com/ternarybob/moutai/internal/interfaces"
)

// ProviderType represents the AI provider type
type ProviderType string

const (
	// ProviderGemini uses Google Gemini API with Google Search grounding
	ProviderGemini ProviderType = "gemini"
	// ProviderClaude uses Anthropic Claude API (no grounding)
	ProviderClaude ProviderType = "claude"
)

const defaultTimeout = 5 * time.Minute

// ProviderFactory implements interfaces.Generator over Gemini and Claude.
// Clients are created lazily and recreated when the resolved API key changes.
type ProviderFactory struct {
	geminiConfig *common.GeminiConfig
	claudeConfig *common.ClaudeConfig
	llmConfig    *common.LLMConfig
	logger       arbor.ILogger

	mu           sync.Mutex
	geminiClient *genai.Client
	geminiAPIKey string
	claudeClient anthropic.Client
	claudeAPIKey string
}

var _ interfaces.Generator = (*ProviderFactory)(nil)

// NewProviderFactory creates a new provider factory
func NewProviderFactory(
	geminiConfig *common.GeminiConfig,
	claudeConfig *common.ClaudeConfig,
	llmConfig *common.LLMConfig,
	logger arbor.ILogger,
) *ProviderFactory {
	return &ProviderFactory{
		geminiConfig: geminiConfig,
		claudeConfig: claudeConfig,
		llmConfig:    llmConfig,
		logger:       logger,
	}
}

// DetectProvider determines the provider type from a model string.
//   - "claude-sonnet-4-5" or "claude/claude-sonnet-4-5" -> Claude
//   - "gemini-3-pro-preview" or "gemini/gemini-3-pro-preview" -> Gemini
//   - "" -> configured default provider
func (f *ProviderFactory) DetectProvider(model string) ProviderType {
	model = strings.ToLower(model)

	switch {
	case strings.HasPrefix(model, "claude/"), strings.HasPrefix(model, "anthropic/"), strings.HasPrefix(model, "claude-"):
		return ProviderClaude
	case strings.HasPrefix(model, "gemini/"), strings.HasPrefix(model, "google/"), strings.HasPrefix(model, "gemini-"):
		return ProviderGemini
	}

	if f.llmConfig != nil && f.llmConfig.DefaultProvider == common.LLMProviderClaude {
		return ProviderClaude
	}
	return ProviderGemini
}

// NormalizeModel removes provider prefix from model name if present
func (f *ProviderFactory) NormalizeModel(model string) string {
	for _, prefix := range []string{"claude/", "anthropic/", "gemini/", "google/"} {
		if strings.HasPrefix(strings.ToLower(model), prefix) {
			return model[len(prefix):]
		}
	}
	return model
}

// Generate sends the request to the provider selected by request.Model. There is no retry:
// failures are returned as-is for the caller to classify.
func (f *ProviderFactory) Generate(ctx context.Context, request *interfaces.GenerationRequest) (*interfaces.GenerationResponse, error) {
	if request == nil {
		return nil, fmt.Errorf("generation request is nil")
	}

	provider := f.DetectProvider(request.Model)
	model := f.NormalizeModel(request.Model)

	f.logger.Debug().
		Str("provider", string(provider)).
		Str("model", model).
		Bool("search_grounding", request.SearchGrounding).
		Int("prompt_length", len(request.Prompt)).
		Msg("Generating content with provider")

	if provider == ProviderClaude {
		return f.generateWithClaude(ctx, request, model)
	}
	return f.generateWithGemini(ctx, request, model)
}

// getGeminiClient returns a client for the currently resolved key.
func (f *ProviderFactory) getGeminiClient(ctx context.Context) (*genai.Client, error) {
	apiKey, err := common.ResolveGeminiAPIKey(f.geminiConfig.APIKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingAPIKey, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.geminiClient != nil && f.geminiAPIKey == apiKey {
		return f.geminiClient, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	f.geminiClient = client
	f.geminiAPIKey = apiKey
	return client, nil
}

func (f *ProviderFactory) getClaudeClient() (anthropic.Client, error) {
	apiKey, err := common.ResolveClaudeAPIKey(f.claudeConfig.APIKey)
	if err != nil {
		return anthropic.Client{}, fmt.Errorf("%w: %v", ErrMissingAPIKey, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.claudeAPIKey != apiKey {
		f.claudeClient = anthropic.NewClient(option.WithAPIKey(apiKey))
		f.claudeAPIKey = apiKey
	}
	return f.claudeClient, nil
}

func (f *ProviderFactory) generateWithGemini(ctx context.Context, request *interfaces.GenerationRequest, model string) (*interfaces.GenerationResponse, error) {
	client, err := f.getGeminiClient(ctx)
	if err != nil {
		return nil, err
	}

	if model == "" {
		model = f.geminiConfig.Model
	}

	config, err := f.buildGeminiConfig(request)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, common.ParseDurationOr(f.geminiConfig.Timeout, defaultTimeout))
	defer cancel()

	start := time.Now()
	contents := []*genai.Content{genai.NewContentFromText(request.Prompt, genai.RoleUser)}
	resp, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("Gemini API call failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from Gemini API")
	}

	sources := extractGeminiGrounding(resp)

	f.logger.Debug().
		Str("model", model).
		Dur("duration", time.Since(start)).
		Int("grounding_chunks", len(sources)).
		Msg("Gemini generation completed")

	return &interfaces.GenerationResponse{
		Text:     resp.Text(),
		Sources:  sources,
		Provider: string(ProviderGemini),
		Model:    model,
	}, nil
}

// buildGeminiConfig maps a request onto the genai call config.
func (f *ProviderFactory) buildGeminiConfig(request *interfaces.GenerationRequest) (*genai.GenerateContentConfig, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(request.Temperature),
	}

	if request.SystemInstruction != "" {
		config.SystemInstruction = genai.NewContentFromText(request.SystemInstruction, genai.RoleUser)
	}

	if request.SearchGrounding {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	if level := parseGeminiThinkingLevel(f.geminiConfig.Thinking); level != "" {
		config.ThinkingConfig = &genai.ThinkingConfig{ThinkingLevel: level}
	}

	if request.ResponseMIMEType != "" {
		config.ResponseMIMEType = request.ResponseMIMEType
	}

	if len(request.ResponseSchema) > 0 {
		schema, err := convertToGenaiSchema(request.ResponseSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to convert response schema: %w", err)
		}
		config.ResponseSchema = schema
		if config.ResponseMIMEType == "" {
			config.ResponseMIMEType = "application/json"
		}
	}

	return config, nil
}

// extractGeminiGrounding copies the first candidate's grounding chunks, keeping non-web chunks as nil-Web entries.
func extractGeminiGrounding(resp *genai.GenerateContentResponse) []interfaces.GroundingChunk {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return nil
	}
	gm := resp.Candidates[0].GroundingMetadata
	if gm == nil {
		return nil
	}

	chunks := make([]interfaces.GroundingChunk, 0, len(gm.GroundingChunks))
	for _, chunk := range gm.GroundingChunks {
		if chunk == nil {
			continue
		}
		var web *interfaces.WebChunk
		if chunk.Web != nil {
			web = &interfaces.WebChunk{Title: chunk.Web.Title, URI: chunk.Web.URI}
		}
		chunks = append(chunks, interfaces.GroundingChunk{Web: web})
	}
	return chunks
}

func (f *ProviderFactory) generateWithClaude(ctx context.Context, request *interfaces.GenerationRequest, model string) (*interfaces.GenerationResponse, error) {
	client, err := f.getClaudeClient()
	if err != nil {
		return nil, err
	}

	if model == "" {
		model = f.claudeConfig.Model
	}

	maxTokens := f.claudeConfig.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(maxTokens),
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(request.Prompt))},
		Temperature: anthropic.Float(float64(request.Temperature)),
	}

	if system := claudeSystemInstruction(request); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	ctx, cancel := context.WithTimeout(ctx, common.ParseDurationOr(f.claudeConfig.Timeout, defaultTimeout))
	defer cancel()

	start := time.Now()
	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("Claude API call failed: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	f.logger.Debug().
		Str("model", model).
		Dur("duration", time.Since(start)).
		Msg("Claude generation completed")

	return &interfaces.GenerationResponse{
		Text:     stripCodeFences(text.String()),
		Provider: string(ProviderClaude),
		Model:    model,
	}, nil
}

// claudeSystemInstruction embeds the response schema in the system text, since Claude has no schema parameter.
func claudeSystemInstruction(request *interfaces.GenerationRequest) string {
	system := request.SystemInstruction
	if len(request.ResponseSchema) == 0 {
		return system
	}

	schemaJSON, err := json.MarshalIndent(request.ResponseSchema, "", "  ")
	if err != nil {
		return system
	}

	var sb strings.Builder
	if system != "" {
		sb.WriteString(system)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Respond with a single JSON object matching this JSON schema. Do not wrap it in markdown.\n")
	sb.Write(schemaJSON)
	return sb.String()
}

// stripCodeFences removes a surrounding ```json ... ``` block if the model added one.
func stripCodeFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimSuffix(strings.TrimPrefix(trimmed, "```"), "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language tag line
		trimmed = trimmed[idx+1:]
	} else {
		trimmed = strings.TrimPrefix(trimmed, "json")
	}
	return strings.TrimSpace(trimmed)
}

// parseGeminiThinkingLevel converts a string thinking level to genai.ThinkingLevel
func parseGeminiThinkingLevel(level string) genai.ThinkingLevel {
	switch strings.ToUpper(level) {
	case "MINIMAL":
		return genai.ThinkingLevelMinimal
	case "LOW":
		return genai.ThinkingLevelLow
	case "MEDIUM":
		return genai.ThinkingLevelMedium
	case "HIGH":
		return genai.ThinkingLevelHigh
	default:
		return ""
	}
}

// Close drops cached clients.
func (f *ProviderFactory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.geminiClient = nil
	f.geminiAPIKey = ""
	f.claudeClient = anthropic.Client{}
	f.claudeAPIKey = ""
	return nil
}
