// Package mood selects the tonal modifier a character presents on each request.
package mood

import "time"

// Effect scales one personality trait while the mood is active.
type Effect struct {
	Trait      string  `yaml:"trait" json:"trait"`
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`
}

// HourRange is an inclusive range of hours of the day.
type HourRange struct {
	From int `yaml:"from" json:"from"`
	To   int `yaml:"to" json:"to"`
}

// Contains reports whether hour falls in the range.
func (h HourRange) Contains(hour int) bool {
	return hour >= h.From && hour <= h.To
}

// Mood is a named tonal modifier from the static catalog.
type Mood struct {
	Key              string      `yaml:"key" json:"key"`
	Name             string      `yaml:"name" json:"name"`
	Emoji            string      `yaml:"emoji" json:"emoji"`
	Description      string      `yaml:"description" json:"description"`
	Probability      float64     `yaml:"probability" json:"probability"`
	TriggerTrait     string      `yaml:"trigger_trait" json:"-"`
	Effects          []Effect    `yaml:"effects" json:"effects"`
	Greetings        []string    `yaml:"greetings" json:"greetings"`
	Suffixes         []string    `yaml:"suffixes" json:"suffixes"`
	Windows          []HourRange `yaml:"windows" json:"-"`
	WindowMultiplier float64     `yaml:"window_multiplier" json:"-"`

	// DurationHours and StartedAt are display metadata attached on selection.
	// They never gate re-selection.
	DurationHours int       `yaml:"-" json:"duration_hours,omitempty"`
	StartedAt     time.Time `yaml:"-" json:"started_at,omitempty"`
	Pinned        bool      `yaml:"-" json:"pinned,omitempty"`
}

func (m Mood) clone() Mood {
	m.Effects = append([]Effect(nil), m.Effects...)
	m.Greetings = append([]string(nil), m.Greetings...)
	m.Suffixes = append([]string(nil), m.Suffixes...)
	m.Windows = append([]HourRange(nil), m.Windows...)
	return m
}

// Weight is the adjusted selection weight of one mood.
type Weight struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}
