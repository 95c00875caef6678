package mood

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed moods.yaml
var catalogYAML []byte

// Catalog is the ordered, read-only set of moods.
type Catalog struct {
	moods      []Mood
	index      map[string]int
	defaultKey string
}

var defaultCatalog = mustParseCatalog(catalogYAML)

// DefaultCatalog returns the process-wide catalog built from the embedded file.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

type catalogFile struct {
	Default string `yaml:"default"`
	Moods   []Mood `yaml:"moods"`
}

// ParseCatalog builds a catalog from YAML. Every mood needs a positive probability.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse mood catalog: %w", err)
	}
	if len(file.Moods) == 0 {
		return nil, fmt.Errorf("mood catalog is empty")
	}

	c := &Catalog{index: make(map[string]int, len(file.Moods))}
	for _, m := range file.Moods {
		m.Key = strings.ToLower(strings.TrimSpace(m.Key))
		m.TriggerTrait = strings.ToLower(strings.TrimSpace(m.TriggerTrait))
		if m.Key == "" {
			return nil, fmt.Errorf("mood without key")
		}
		if _, dup := c.index[m.Key]; dup {
			return nil, fmt.Errorf("duplicate mood %q", m.Key)
		}
		if !(m.Probability > 0) {
			return nil, fmt.Errorf("mood %q must have a positive probability", m.Key)
		}
		if len(m.Windows) > 0 && m.WindowMultiplier <= 0 {
			return nil, fmt.Errorf("mood %q has hour windows without a multiplier", m.Key)
		}
		c.index[m.Key] = len(c.moods)
		c.moods = append(c.moods, m)
	}

	c.defaultKey = strings.ToLower(strings.TrimSpace(file.Default))
	if _, ok := c.index[c.defaultKey]; !ok {
		c.defaultKey = c.moods[0].Key
	}
	return c, nil
}

func mustParseCatalog(data []byte) *Catalog {
	c, err := ParseCatalog(data)
	if err != nil {
		panic(err)
	}
	return c
}

// All returns the moods in catalog order.
func (c *Catalog) All() []Mood {
	out := make([]Mood, 0, len(c.moods))
	for _, m := range c.moods {
		out = append(out, m.clone())
	}
	return out
}

// Lookup returns the mood for key.
func (c *Catalog) Lookup(key string) (Mood, bool) {
	if c == nil {
		return Mood{}, false
	}
	i, ok := c.index[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return Mood{}, false
	}
	return c.moods[i].clone(), true
}

// Default returns the fallback mood.
func (c *Catalog) Default() Mood {
	m, _ := c.Lookup(c.defaultKey)
	return m
}
