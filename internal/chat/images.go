package chat

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/easeaico/liveroom/internal/apperr"
	"github.com/easeaico/liveroom/internal/persona"
	"github.com/easeaico/liveroom/internal/types"
)

// ImageGenerator renders an image for a prompt and returns its URL.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ImageGate consumes image quota.
type ImageGate interface {
	ConsumeImage(ctx context.Context, userID int) error
}

// ImageRequest asks a character for a picture.
type ImageRequest struct {
	UserID      int    `json:"-"`
	CharacterID int    `json:"-"`
	Prompt      string `json:"prompt"`
	Style       string `json:"style"`
}

// ImageResult is the character's answer to an ImageRequest. When generation
// fails Text carries an in-character apology and URL is empty.
type ImageResult struct {
	URL            string `json:"image_url,omitempty"`
	Text           string `json:"text"`
	Prompt         string `json:"prompt"`
	EnhancedPrompt string `json:"enhanced_prompt"`
	Style          string `json:"style"`
	CharacterName  string `json:"character_name"`
	Fallback       bool   `json:"fallback"`
}

const defaultAppearance = "beautiful woman"

var styleModifiers = map[string]string{
	"realistic": "photorealistic, high quality, detailed",
	"anime":     "anime style, manga art, vibrant colors",
	"artistic":  "artistic painting, beautiful art style, creative",
	"fantasy":   "fantasy art, magical, ethereal, mystical",
	"portrait":  "professional portrait, studio lighting, elegant",
	"casual":    "casual setting, natural lighting, relaxed pose",
}

const (
	tplPrompt  = "prompt"
	tplError   = "error"
	tplSuccess = "success"
)

var imageTemplates = template.Must(template.New("images").Parse(`
{{- define "prompt"}}{{.Prompt}}, featuring {{.Appearance}}, {{.Style}}, professional quality, safe for work, appropriate content, tasteful, elegant{{end}}
{{- define "error"}}{{.Name}} sighs: "My brush slipped and the picture didn't come out. Ask me again in a little while?"{{end}}
{{- define "success"}}{{.Name}} hands you the picture: "Made this just for you!"{{end}}
`))

// ImageService generates character pictures within the image quota.
type ImageService struct {
	characters CharacterStore
	gate       ImageGate
	generator  ImageGenerator
	personas   *persona.Registry
}

// NewImageService returns an ImageService. A nil generator makes every
// request fall back to the apology text after quota is checked.
func NewImageService(characters CharacterStore, gate ImageGate, generator ImageGenerator, personas *persona.Registry) *ImageService {
	if personas == nil {
		personas = persona.Default()
	}
	return &ImageService{
		characters: characters,
		gate:       gate,
		generator:  generator,
		personas:   personas,
	}
}

// Generate consumes one image unit and asks the generator for a picture.
// Generator failures are logged and answered in character.
func (s *ImageService) Generate(ctx context.Context, req ImageRequest) (*ImageResult, error) {
	userPrompt := strings.TrimSpace(req.Prompt)
	if userPrompt == "" {
		return nil, apperr.Invalid("prompt is required")
	}
	character, err := s.characters.GetCharacter(ctx, req.CharacterID)
	if err != nil {
		return nil, err
	}
	if character == nil || !character.IsActive {
		return nil, apperr.NotFound("character %d not found", req.CharacterID)
	}

	style := strings.ToLower(strings.TrimSpace(req.Style))
	if style == "" {
		style = "realistic"
	}
	enhanced, err := s.enhancePrompt(character, userPrompt, style)
	if err != nil {
		return nil, err
	}

	if s.gate != nil {
		if err := s.gate.ConsumeImage(ctx, req.UserID); err != nil {
			return nil, err
		}
	}

	result := &ImageResult{
		Prompt:         userPrompt,
		EnhancedPrompt: enhanced,
		Style:          style,
		CharacterName:  character.DisplayName,
	}

	var url string
	if s.generator == nil {
		err = fmt.Errorf("image generator not configured")
	} else {
		url, err = s.generator.Generate(ctx, enhanced)
	}
	if err != nil {
		slog.Error("failed to generate image", "character", character.Name, "error", err.Error())
		result.Fallback = true
		result.Text = render(tplError, character)
		return result, nil
	}

	result.URL = url
	result.Text = render(tplSuccess, character)
	return result, nil
}

func (s *ImageService) enhancePrompt(character *types.Character, userPrompt, style string) (string, error) {
	appearance := defaultAppearance
	if p, ok := s.personas.Get(character.PersonaKey); ok && p.Appearance != "" {
		appearance = p.Appearance
	}
	modifier, ok := styleModifiers[style]
	if !ok {
		modifier = "high quality, detailed"
	}

	var buf bytes.Buffer
	if err := imageTemplates.ExecuteTemplate(&buf, tplPrompt, map[string]string{
		"Prompt":     userPrompt,
		"Appearance": appearance,
		"Style":      modifier,
	}); err != nil {
		return "", fmt.Errorf("failed to build image prompt: %w", err)
	}
	return buf.String(), nil
}

func render(name string, character *types.Character) string {
	var buf bytes.Buffer
	if err := imageTemplates.ExecuteTemplate(&buf, name, map[string]string{"Name": character.Name}); err != nil {
		slog.Error("failed to execute template", "template", name, "error", err.Error())
		return "Something went wrong with your picture."
	}
	return buf.String()
}
