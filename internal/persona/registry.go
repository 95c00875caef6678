// Package persona holds the static catalog of character templates.
package persona

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/easeaico/liveroom/internal/types"
)

// GenericFallbackReply is returned when no persona-specific fallback exists.
const GenericFallbackReply = "I'm having a little trouble finding the right words right now, but I'm still here for you! What would you like to talk about?"

//go:embed personas.yaml
var catalogYAML []byte

// Persona is an immutable character template.
type Persona struct {
	Key               string         `yaml:"-" json:"key"`
	Name              string         `yaml:"name" json:"name"`
	DisplayName       string         `yaml:"display_name" json:"display_name"`
	Description       string         `yaml:"description" json:"description"`
	Personality       string         `yaml:"personality" json:"personality"`
	SystemPrompt      string         `yaml:"system_prompt" json:"system_prompt"`
	Traits            map[string]int `yaml:"traits" json:"traits"`
	ConversationStyle string         `yaml:"conversation_style" json:"conversation_style"`
	AgeRange          string         `yaml:"age_range" json:"age_range"`
	BackgroundStory   string         `yaml:"background_story" json:"background_story"`
	Category          string         `yaml:"category" json:"category"`
	Appearance        string         `yaml:"appearance" json:"appearance"`
	FallbackReply     string         `yaml:"fallback_reply" json:"-"`
}

// Registry is a read-only persona lookup table.
type Registry struct {
	personas map[string]Persona
	keys     []string
}

var defaultRegistry = mustParse(catalogYAML)

// Default returns the process-wide registry built from the embedded catalog.
func Default() *Registry {
	return defaultRegistry
}

// Parse builds a registry from a YAML document keyed by persona key.
func Parse(data []byte) (*Registry, error) {
	raw := map[string]Persona{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse persona catalog: %w", err)
	}

	r := &Registry{personas: make(map[string]Persona, len(raw))}
	for key, p := range raw {
		key = normalizeKey(key)
		if key == "" {
			return nil, fmt.Errorf("persona catalog contains an empty key")
		}
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("persona %q has no name", key)
		}
		p.Key = key
		p.Traits = clampTraits(p.Traits)
		r.personas[key] = p
		r.keys = append(r.keys, key)
	}
	sort.Strings(r.keys)
	return r, nil
}

func mustParse(data []byte) *Registry {
	r, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return r
}

// Get returns the persona for key; lookup is case-insensitive.
func (r *Registry) Get(key string) (Persona, bool) {
	if r == nil {
		return Persona{}, false
	}
	p, ok := r.personas[normalizeKey(key)]
	if !ok {
		return Persona{}, false
	}
	return p.clone(), true
}

// All returns a copy of the whole catalog.
func (r *Registry) All() map[string]Persona {
	out := make(map[string]Persona, len(r.personas))
	for k, p := range r.personas {
		out[k] = p.clone()
	}
	return out
}

// Keys returns the persona keys in sorted order.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.keys...)
}

// FallbackReply returns the fixed reply used when the completion provider fails.
func (r *Registry) FallbackReply(key string) string {
	if p, ok := r.Get(key); ok && p.FallbackReply != "" {
		return p.FallbackReply
	}
	return GenericFallbackReply
}

// NewCharacter materializes a persona into a character attached to categoryID.
func (p Persona) NewCharacter(categoryID int) *types.Character {
	return &types.Character{
		PersonaKey:        p.Key,
		Name:              p.Name,
		DisplayName:       p.DisplayName,
		Description:       p.Description,
		Personality:       p.Personality,
		SystemPrompt:      p.SystemPrompt,
		AvatarURLs:        []string{"/assets/avatar1.png", "/assets/avatar2.png", "/assets/avatar3.png"},
		Traits:            p.clone().Traits,
		ConversationStyle: p.ConversationStyle,
		AgeRange:          p.AgeRange,
		BackgroundStory:   p.BackgroundStory,
		CategoryID:        categoryID,
		IsActive:          true,
	}
}

func (p Persona) clone() Persona {
	traits := make(map[string]int, len(p.Traits))
	for k, v := range p.Traits {
		traits[k] = v
	}
	p.Traits = traits
	return p
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Trait scores live on a 0-10 scale.
const (
	minTraitScore = 0
	maxTraitScore = 10
)

func clampTraits(traits map[string]int) map[string]int {
	out := make(map[string]int, len(traits))
	for name, score := range traits {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		out[name] = ClampTrait(score)
	}
	return out
}

// ClampTrait bounds a trait score to the 0-10 scale.
func ClampTrait(score int) int {
	switch {
	case score < minTraitScore:
		return minTraitScore
	case score > maxTraitScore:
		return maxTraitScore
	default:
		return score
	}
}
