package models

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultAspectRatio is the portrait frame used for character pictures.
const DefaultAspectRatio = "9:16"

var supportedAspectRatios = map[string]bool{
	"1:1":  true,
	"3:4":  true,
	"4:3":  true,
	"9:16": true,
	"16:9": true,
}

type generateFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)

// PortraitRenderer draws character pictures with a Gemini image model and
// hands them back as data URLs, ready to embed in a chat message.
type PortraitRenderer struct {
	generate    generateFunc
	model       string
	aspectRatio string
}

// NewPortraitRenderer dials the Gemini API with apiKey.
func NewPortraitRenderer(ctx context.Context, apiKey, model, aspectRatio string) (*PortraitRenderer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("image model cannot be empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return newPortraitRenderer(client.Models.GenerateContent, model, aspectRatio), nil
}

func newPortraitRenderer(generate generateFunc, model, aspectRatio string) *PortraitRenderer {
	return &PortraitRenderer{
		generate:    generate,
		model:       strings.TrimSpace(model),
		aspectRatio: NormalizeAspectRatio(aspectRatio),
	}
}

// Generate renders prompt and returns the picture as a data URL.
func (r *PortraitRenderer) Generate(ctx context.Context, prompt string) (string, error) {
	if r == nil || r.generate == nil {
		return "", fmt.Errorf("portrait renderer not configured")
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	resp, err := r.generate(ctx, r.model, genai.Text(prompt), r.requestConfig())
	if err != nil {
		return "", fmt.Errorf("failed to render portrait: %w", err)
	}
	blob, err := inlineImage(resp)
	if err != nil {
		return "", err
	}
	return dataURL(blob), nil
}

func (r *PortraitRenderer) requestConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
		ImageConfig:        &genai.ImageConfig{AspectRatio: r.aspectRatio},
	}
}

// inlineImage picks the first inline image of the first candidate. Text
// parts the model adds alongside the picture are ignored.
func inlineImage(resp *genai.GenerateContentResponse) (*genai.Blob, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("image response has no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return nil, fmt.Errorf("image response has no content")
	}
	for _, part := range candidate.Content.Parts {
		if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData, nil
		}
	}
	return nil, fmt.Errorf("image data missing in response")
}

func dataURL(blob *genai.Blob) string {
	mimeType := strings.TrimSpace(blob.MIMEType)
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(blob.Data)
}

// NormalizeAspectRatio falls back to DefaultAspectRatio for unsupported values.
func NormalizeAspectRatio(value string) string {
	value = strings.TrimSpace(value)
	if supportedAspectRatios[value] {
		return value
	}
	return DefaultAspectRatio
}
