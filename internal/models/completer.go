package models

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/easeaico/liveroom/internal/apperr"
	"github.com/easeaico/liveroom/internal/types"
	"github.com/easeaico/liveroom/internal/utils"
)

// Provider names accepted by NewLLM.
const (
	ProviderOpenAI     = "openai"
	ProviderGrok       = "grok"
	ProviderOpenRouter = "openrouter"
)

// NewLLM returns the chat model for provider.
func NewLLM(ctx context.Context, provider, modelName, apiKey string) (model.LLM, error) {
	cfg := &genai.ClientConfig{APIKey: apiKey}
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", ProviderOpenAI:
		return NewOpenAIModel(ctx, modelName, cfg)
	case ProviderGrok:
		return NewGrokModel(ctx, modelName, cfg)
	case ProviderOpenRouter:
		return NewOpenRouterModel(ctx, modelName, cfg)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}

// CompletionParams are the sampling settings of character replies.
type CompletionParams struct {
	Temperature      float32
	MaxTokens        int32
	TopP             float32
	PresencePenalty  float32
	FrequencyPenalty float32
}

// DefaultCompletionParams favour varied, talkative replies.
var DefaultCompletionParams = CompletionParams{
	Temperature:      0.9,
	MaxTokens:        800,
	TopP:             0.95,
	PresencePenalty:  0.8,
	FrequencyPenalty: 0.4,
}

// Completer turns a system prompt and context window into one reply.
type Completer struct {
	llm    model.LLM
	params CompletionParams
}

// NewCompleter wraps llm.
func NewCompleter(llm model.LLM, params CompletionParams) *Completer {
	return &Completer{llm: llm, params: params}
}

// Complete sends one non-streaming request. Any failure, including an empty
// reply, is reported as a provider_failure error.
func (c *Completer) Complete(ctx context.Context, systemPrompt string, turns []types.Turn) (string, error) {
	if c == nil || c.llm == nil {
		return "", apperr.ProviderFailure("no completion model configured", nil)
	}

	req := &model.LLMRequest{
		Model:    c.llm.Name(),
		Contents: turnsToContents(turns),
		Config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, "system"),
			Temperature:       genai.Ptr(c.params.Temperature),
			TopP:              genai.Ptr(c.params.TopP),
			MaxOutputTokens:   c.params.MaxTokens,
			PresencePenalty:   genai.Ptr(c.params.PresencePenalty),
			FrequencyPenalty:  genai.Ptr(c.params.FrequencyPenalty),
		},
	}

	var sb strings.Builder
	for resp, err := range c.llm.GenerateContent(ctx, req, false) {
		if err != nil {
			return "", apperr.ProviderFailure("completion request failed", err)
		}
		if resp == nil || resp.Content == nil || resp.Partial {
			continue
		}
		sb.WriteString(utils.ExtractContentText(resp.Content))
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", apperr.ProviderFailure("completion returned no content", nil)
	}
	return text, nil
}

func turnsToContents(turns []types.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		role := "user"
		if turn.Role == types.RoleAssistant {
			role = "model"
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, genai.Role(role)))
	}
	return contents
}
