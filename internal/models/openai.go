// Package models adapts chat and image model providers.
package models

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"runtime"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// openaiModel wraps an OpenAI-compatible chat completions client as a model.LLM.
type openaiModel struct {
	client             *openai.Client
	name               string
	versionHeaderValue string
}

// NewOpenAIModel returns a model.LLM backed by the OpenAI API.
func NewOpenAIModel(ctx context.Context, modelName string, cfg *genai.ClientConfig) (model.LLM, error) {
	return newCompatibleModel(modelName, cfg, "", "openai-go")
}

func newCompatibleModel(modelName string, cfg *genai.ClientConfig, baseURL, agent string) (*openaiModel, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if modelName == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)

	// Create header value once, when the model is created
	headerValue := fmt.Sprintf("%s/%s go/%s",
		agent, "1.0.0", strings.TrimPrefix(runtime.Version(), "go"))

	return &openaiModel{
		name:               modelName,
		client:             &client,
		versionHeaderValue: headerValue,
	}, nil
}

func (m *openaiModel) Name() string {
	return m.name
}

// GenerateContent always issues a single non-streaming completion.
func (m *openaiModel) GenerateContent(ctx context.Context, req *model.LLMRequest, _ bool) iter.Seq2[*model.LLMResponse, error] {
	m.maybeAppendUserContent(req)

	if req.Config == nil {
		req.Config = &genai.GenerateContentConfig{}
	}
	if req.Config.HTTPOptions == nil {
		req.Config.HTTPOptions = &genai.HTTPOptions{}
	}
	if req.Config.HTTPOptions.Headers == nil {
		req.Config.HTTPOptions.Headers = make(http.Header)
	}
	req.Config.HTTPOptions.Headers.Set("user-agent", m.versionHeaderValue)

	return func(yield func(*model.LLMResponse, error) bool) {
		resp, err := m.generate(ctx, req)
		yield(resp, err)
	}
}

func (m *openaiModel) requestOptions(req *model.LLMRequest) []option.RequestOption {
	return []option.RequestOption{
		option.WithHeader("User-Agent", req.Config.HTTPOptions.Headers.Get("user-agent")),
	}
}

func (m *openaiModel) generate(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	params := buildOpenAIParams(req, m.name)

	resp, err := m.client.Chat.Completions.New(ctx, *params, m.requestOptions(req)...)
	if err != nil {
		slog.Error("failed to call llm API", "model", m.name, "error", err.Error())
		return nil, fmt.Errorf("failed to call chat completions API: %w", err)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return &model.LLMResponse{}, nil
	}

	choice := resp.Choices[0]
	content := &genai.Content{Role: "model"}
	if choice.Message.Content != "" {
		content.Parts = append(content.Parts, &genai.Part{Text: choice.Message.Content})
	}

	return &model.LLMResponse{
		Content:      content,
		TurnComplete: true,
	}, nil
}

func (m *openaiModel) maybeAppendUserContent(req *model.LLMRequest) {
	if len(req.Contents) == 0 {
		req.Contents = append(req.Contents, genai.NewContentFromText("Greet the user in character.", "user"))
	}

	if last := req.Contents[len(req.Contents)-1]; last != nil && last.Role != "user" {
		req.Contents = append(req.Contents, genai.NewContentFromText("Continue the conversation in character.", "user"))
	}
}
