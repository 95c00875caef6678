package models

import (
	"context"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// NewOpenRouterModel routes requests through OpenRouter. modelName uses
// OpenRouter's "vendor/model" form, e.g. "openai/gpt-4o-mini".
func NewOpenRouterModel(ctx context.Context, modelName string, cfg *genai.ClientConfig) (model.LLM, error) {
	return newCompatibleModel(modelName, cfg, openRouterBaseURL, "openrouter-go")
}
