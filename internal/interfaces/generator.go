package interfaces

import (
	"context"
)

// GenerationRequest describes a single structured generation call.
type GenerationRequest struct {
	// Model overrides the provider default. A "claude/" or "gemini/" prefix selects the provider.
	Model             string
	Prompt            string
	SystemInstruction string
	Temperature       float32
	// ResponseMIMEType is "application/json" for structured output.
	ResponseMIMEType string
	// ResponseSchema is a JSON-schema-like map. Providers treat it as a hint only.
	ResponseSchema map[string]interface{}
	// SearchGrounding enables the provider's web search tool when supported.
	SearchGrounding bool
}

// WebChunk is a web citation attached to a grounded response.
type WebChunk struct {
	Title string
	URI   string
}

// GroundingChunk is one entry of the grounding side-channel. Web is nil for non-web chunks.
type GroundingChunk struct {
	Web *WebChunk
}

// GenerationResponse carries the raw model text and its grounding chunks.
type GenerationResponse struct {
	Text     string
	Sources  []GroundingChunk
	Provider string
	Model    string
}

// Generator produces structured text from a hosted model.
type Generator interface {
	Generate(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error)
}
