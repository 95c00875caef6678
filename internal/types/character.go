package types

import "time"

// Character is a live, category-attached instance of a persona.
type Character struct {
	ID                int            `json:"id"`
	PersonaKey        string         `json:"persona_key"`
	Name              string         `json:"name"`
	DisplayName       string         `json:"display_name"`
	Description       string         `json:"description"`
	Personality       string         `json:"personality"`
	SystemPrompt      string         `json:"-"`
	AvatarURLs        []string       `json:"avatar_urls"`
	Traits            map[string]int `json:"traits"`
	ConversationStyle string         `json:"conversation_style"`
	AgeRange          string         `json:"age_range"`
	BackgroundStory   string         `json:"background_story"`
	CategoryID        int            `json:"category_id"`
	SubcategoryID     int            `json:"subcategory_id,omitempty"`
	IsActive          bool           `json:"is_active"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// TraitScore returns the trait score or zero when the trait is absent.
func (c *Character) TraitScore(name string) int {
	if c == nil || c.Traits == nil {
		return 0
	}
	return c.Traits[name]
}

const (
	CategoryTypeGeneral  = "general"
	CategoryTypeTrending = "trending"
	CategoryTypeLatest   = "latest"
)

// Category groups characters for browsing.
type Category struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	ImageURL     string `json:"image_url"`
	SortOrder    int    `json:"sort_order"`
	CategoryType string `json:"category_type"`
	IsActive     bool   `json:"is_active"`
}

// CategoryWithCharacters is a category and its active characters.
type CategoryWithCharacters struct {
	Category
	Characters []Character `json:"characters"`
}

// Subcategory narrows a category, for example "witches" under a fantasy
// category.
type Subcategory struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	IsActive    bool   `json:"is_active"`
	SortOrder   int    `json:"sort_order"`
	CategoryID  int    `json:"category_id"`
}
