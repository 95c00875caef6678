package models

import (
	"context"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

const grokBaseURL = "https://api.x.ai/v1"

// NewGrokModel creates a new Grok model instance
//
// The modelName specifies which Grok model to target (e.g. "grok-3-mini").
func NewGrokModel(ctx context.Context, modelName string, cfg *genai.ClientConfig) (model.LLM, error) {
	return newCompatibleModel(modelName, cfg, grokBaseURL, "grok-go")
}
