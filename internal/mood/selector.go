package mood

import (
	"math"
	"strings"
	"time"
)

const (
	// TraitThreshold is the score a trigger trait must exceed to boost its mood.
	TraitThreshold = 7
	traitBoost     = 1.5
	styleBoost     = 1.3

	minDurationHours = 2
	maxDurationHours = 8
)

// RandSource is the random source used for draws; *rand.Rand from math/rand/v2 satisfies it.
type RandSource interface {
	Float64() float64
	IntN(n int) int
}

// Input describes the character a mood is drawn for.
type Input struct {
	Traits map[string]int
	Style  string
	Now    time.Time
}

// Selector draws moods from a catalog. It holds no mutable state.
type Selector struct {
	catalog  *Catalog
	location *time.Location
}

// NewSelector returns a Selector. Hours are evaluated in loc (UTC when nil).
func NewSelector(catalog *Catalog, loc *time.Location) *Selector {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Selector{catalog: catalog, location: loc}
}

// Catalog returns the catalog the selector draws from.
func (s *Selector) Catalog() *Catalog {
	return s.catalog
}

// Weights returns the adjusted weight of every mood in catalog order.
func (s *Selector) Weights(in Input) []Weight {
	hour := -1
	if !in.Now.IsZero() {
		hour = in.Now.In(s.location).Hour()
	}
	style := strings.ToLower(strings.TrimSpace(in.Style))

	weights := make([]Weight, 0, len(s.catalog.moods))
	for _, m := range s.catalog.moods {
		w := m.Probability
		if m.TriggerTrait != "" && traitScore(in.Traits, m.TriggerTrait) > TraitThreshold {
			w *= traitBoost
		}
		if style != "" && style == m.Key {
			w *= styleBoost
		}
		if hour >= 0 {
			for _, window := range m.Windows {
				if window.Contains(hour) {
					w *= m.WindowMultiplier
					break
				}
			}
		}
		weights = append(weights, Weight{Key: m.Key, Value: w})
	}
	return weights
}

// Select draws one mood by weighted random choice. It never fails: unusable
// weights fall back to the catalog default.
func (s *Selector) Select(in Input, r RandSource) Mood {
	weights := s.Weights(in)
	total := 0.0
	for _, w := range weights {
		if w.Value < 0 || math.IsNaN(w.Value) || math.IsInf(w.Value, 0) {
			return s.catalog.Default()
		}
		total += w.Value
	}
	if !(total > 0) || r == nil {
		return s.catalog.Default()
	}

	draw := r.Float64() * total
	cumulative := 0.0
	for _, w := range weights {
		cumulative += w.Value
		if cumulative >= draw {
			m, _ := s.catalog.Lookup(w.Key)
			return m
		}
	}
	return s.catalog.Default()
}

// WithDuration stamps a selected mood with a random 2-8 hour display duration.
func WithDuration(m Mood, r RandSource, now time.Time) Mood {
	m.DurationHours = minDurationHours
	if r != nil {
		m.DurationHours += r.IntN(maxDurationHours - minDurationHours + 1)
	}
	m.StartedAt = now
	return m
}

var styleMoods = map[string]string{
	"flirty":    "flirty",
	"romantic":  "romantic",
	"energetic": "energetic",
	"mystical":  "mysterious",
	"zen":       "contemplative",
}

var defaultRecommendations = []string{"happy", "flirty", "romantic"}

// recommendTraits is the order in which strong traits earn a recommendation.
var recommendTraits = []string{"flirty", "romantic", "energetic", "mysterious"}

const maxRecommendations = 3

// Recommend suggests up to three mood keys that suit the character.
func (s *Selector) Recommend(traits map[string]int, style string) []string {
	var out []string
	for _, trait := range recommendTraits {
		if traitScore(traits, trait) <= TraitThreshold {
			continue
		}
		if key, ok := s.moodForTrait(trait); ok && !contains(out, key) {
			out = append(out, key)
		}
	}
	if key, ok := styleMoods[strings.ToLower(strings.TrimSpace(style))]; ok && !contains(out, key) {
		out = append(out, key)
	}
	if len(out) == 0 {
		out = append(out, defaultRecommendations...)
	}
	if len(out) > maxRecommendations {
		out = out[:maxRecommendations]
	}
	return out
}

func (s *Selector) moodForTrait(trait string) (string, bool) {
	for _, m := range s.catalog.moods {
		if m.TriggerTrait == trait {
			return m.Key, true
		}
	}
	return "", false
}

func traitScore(traits map[string]int, name string) int {
	if traits == nil {
		return 0
	}
	if v, ok := traits[name]; ok {
		return v
	}
	for k, v := range traits {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return 0
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
