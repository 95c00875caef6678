package models

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"
)

func TestPortraitRendererGenerate(t *testing.T) {
	var gotModel, gotPrompt, gotRatio string
	generate := func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		gotModel = model
		gotPrompt = contents[0].Parts[0].Text
		gotRatio = config.ImageConfig.AspectRatio
		return &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "here you go"},
					{InlineData: &genai.Blob{Data: []byte{1, 2, 3}, MIMEType: "image/jpeg"}},
				}},
			}},
		}, nil
	}

	r := newPortraitRenderer(generate, " gemini-image ", "2:1")
	got, err := r.Generate(context.Background(), "  luna at the beach  ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "data:image/jpeg;base64,AQID" {
		t.Fatalf("unexpected data url %q", got)
	}
	if gotModel != "gemini-image" || gotPrompt != "luna at the beach" || gotRatio != DefaultAspectRatio {
		t.Fatalf("unexpected request: model=%q prompt=%q ratio=%q", gotModel, gotPrompt, gotRatio)
	}
}

func TestPortraitRendererFailures(t *testing.T) {
	textOnly := func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{Content: genai.NewContentFromText("no picture today", "model")}},
		}, nil
	}
	failing := func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return nil, errors.New("quota")
	}
	empty := func(context.Context, string, []*genai.Content, *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
		return &genai.GenerateContentResponse{}, nil
	}

	for name, gen := range map[string]generateFunc{"text only": textOnly, "failing": failing, "empty": empty} {
		if _, err := newPortraitRenderer(gen, "m", "1:1").Generate(context.Background(), "hi"); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := newPortraitRenderer(textOnly, "m", "1:1").Generate(context.Background(), "   "); err == nil {
		t.Fatalf("expected error for blank prompt")
	}
	var nilRenderer *PortraitRenderer
	if _, err := nilRenderer.Generate(context.Background(), "hi"); err == nil {
		t.Fatalf("expected error for nil renderer")
	}
}

func TestNormalizeAspectRatio(t *testing.T) {
	cases := map[string]string{"2:1": "9:16", " 16:9 ": "16:9", "": "9:16", "1:1": "1:1"}
	for in, want := range cases {
		if got := NormalizeAspectRatio(in); got != want {
			t.Fatalf("NormalizeAspectRatio(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDataURLDefaultsToPNG(t *testing.T) {
	if got := dataURL(&genai.Blob{Data: []byte{1, 2, 3}}); got != "data:image/png;base64,AQID" {
		t.Fatalf("unexpected data url %q", got)
	}
}
