package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/easeaico/liveroom/internal/apperr"
	"github.com/easeaico/liveroom/internal/types"
)

type categoryModel struct {
	ID           int
	Name         string `gorm:"size:100;uniqueIndex;not null"`
	Description  string
	ImageURL     string
	SortOrder    int
	CategoryType string `gorm:"size:20;default:general"`
	IsActive     bool   `gorm:"default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (categoryModel) TableName() string {
	return "categories"
}

type characterModel struct {
	ID                int
	PersonaKey        string `gorm:"size:50;index"`
	Name              string `gorm:"size:100;not null"`
	DisplayName       string `gorm:"size:200"`
	Description       string
	Personality       string
	SystemPrompt      string
	AvatarURLs        datatypes.JSON `gorm:"column:avatar_urls"`
	Traits            datatypes.JSON
	ConversationStyle string `gorm:"size:50"`
	AgeRange          string `gorm:"size:20"`
	BackgroundStory   string
	CategoryID        int  `gorm:"index"`
	SubcategoryID     int  `gorm:"index"`
	IsActive          bool `gorm:"default:true"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (characterModel) TableName() string {
	return "characters"
}

// CharacterRepo accesses categories and characters.
type CharacterRepo struct {
	db *gorm.DB
}

// NewCharacterRepo returns a CharacterRepo.
func NewCharacterRepo(db *gorm.DB) *CharacterRepo {
	return &CharacterRepo{db: db}
}

// ListCategories returns active categories in display order.
func (r *CharacterRepo) ListCategories(ctx context.Context) ([]types.Category, error) {
	return r.listCategories(r.db.WithContext(ctx).Order("sort_order ASC, id ASC"))
}

// ListCategoriesByType returns the active categories of one type, such as
// "trending", ordered by sort order and then name.
func (r *CharacterRepo) ListCategoriesByType(ctx context.Context, categoryType string) ([]types.Category, error) {
	return r.listCategories(r.db.WithContext(ctx).
		Where("category_type = ?", strings.ToLower(strings.TrimSpace(categoryType))).
		Order("sort_order ASC, name ASC"))
}

func (r *CharacterRepo) listCategories(query *gorm.DB) ([]types.Category, error) {
	var records []categoryModel
	if err := query.Where("is_active = ?", true).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	out := make([]types.Category, 0, len(records))
	for _, record := range records {
		out = append(out, categoryFromModel(record))
	}
	return out, nil
}

// GetCategory returns one category.
func (r *CharacterRepo) GetCategory(ctx context.Context, id int) (*types.Category, error) {
	var record categoryModel
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		if nf := notFound(err, "category %d not found", id); nf != nil {
			return nil, nf
		}
		return nil, fmt.Errorf("failed to get category by id: %w", err)
	}
	category := categoryFromModel(record)
	return &category, nil
}

// CreateCategory inserts a category. Names are unique.
func (r *CharacterRepo) CreateCategory(ctx context.Context, category *types.Category) error {
	if category == nil || strings.TrimSpace(category.Name) == "" {
		return apperr.Invalid("category name is required")
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&categoryModel{}).Where("name = ?", category.Name).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check category name: %w", err)
	}
	if count > 0 {
		return apperr.Invalid("category %q already exists", category.Name)
	}

	record := categoryToModel(*category)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to insert category: %w", err)
	}
	*category = categoryFromModel(record)
	return nil
}

// EnsureCategory returns the category named category.Name, creating it when absent.
func (r *CharacterRepo) EnsureCategory(ctx context.Context, category types.Category) (*types.Category, bool, error) {
	record := categoryToModel(category)
	result := r.db.WithContext(ctx).Where(categoryModel{Name: category.Name}).Attrs(record).FirstOrCreate(&record)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to ensure category: %w", result.Error)
	}
	out := categoryFromModel(record)
	return &out, result.RowsAffected > 0, nil
}

// CreateCharacter inserts a character.
func (r *CharacterRepo) CreateCharacter(ctx context.Context, character *types.Character) error {
	if character == nil {
		return fmt.Errorf("character cannot be nil")
	}
	record, err := characterToModel(*character)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to insert character: %w", err)
	}
	character.ID = record.ID
	character.CreatedAt = record.CreatedAt
	character.UpdatedAt = record.UpdatedAt
	return nil
}

// GetCharacter returns a character, active or not.
func (r *CharacterRepo) GetCharacter(ctx context.Context, id int) (*types.Character, error) {
	var record characterModel
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		if nf := notFound(err, "character %d not found", id); nf != nil {
			return nil, nf
		}
		return nil, fmt.Errorf("failed to get character by id: %w", err)
	}
	return characterFromModel(record)
}

// FindByPersona returns the first active character created from personaKey,
// or nil when there is none.
func (r *CharacterRepo) FindByPersona(ctx context.Context, personaKey string) (*types.Character, error) {
	var record characterModel
	if err := r.db.WithContext(ctx).
		Where("persona_key = ? AND is_active = ?", personaKey, true).
		Order("id ASC").
		Limit(1).
		Find(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to query character by persona: %w", err)
	}
	if record.ID == 0 {
		return nil, nil
	}
	return characterFromModel(record)
}

// ListCharacters returns active characters, optionally filtered by category.
func (r *CharacterRepo) ListCharacters(ctx context.Context, categoryID int) ([]types.Character, error) {
	query := r.db.WithContext(ctx).Where("is_active = ?", true).Order("id ASC")
	if categoryID > 0 {
		query = query.Where("category_id = ?", categoryID)
	}

	var records []characterModel
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query characters: %w", err)
	}
	out := make([]types.Character, 0, len(records))
	for _, record := range records {
		c, err := characterFromModel(record)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

// DeactivateCharacter hides a character. Characters are never deleted.
func (r *CharacterRepo) DeactivateCharacter(ctx context.Context, id int) error {
	result := r.db.WithContext(ctx).
		Model(&characterModel{}).
		Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("failed to deactivate character: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("character %d not found", id)
	}
	return nil
}

func categoryToModel(c types.Category) categoryModel {
	categoryType := c.CategoryType
	if categoryType == "" {
		categoryType = types.CategoryTypeGeneral
	}
	return categoryModel{
		ID:           c.ID,
		Name:         c.Name,
		Description:  c.Description,
		ImageURL:     c.ImageURL,
		SortOrder:    c.SortOrder,
		CategoryType: categoryType,
		IsActive:     c.IsActive,
	}
}

func categoryFromModel(model categoryModel) types.Category {
	return types.Category{
		ID:           model.ID,
		Name:         model.Name,
		Description:  model.Description,
		ImageURL:     model.ImageURL,
		SortOrder:    model.SortOrder,
		CategoryType: model.CategoryType,
		IsActive:     model.IsActive,
	}
}

func characterToModel(c types.Character) (characterModel, error) {
	avatars, err := json.Marshal(c.AvatarURLs)
	if err != nil {
		return characterModel{}, fmt.Errorf("failed to encode avatar urls: %w", err)
	}
	traits, err := json.Marshal(c.Traits)
	if err != nil {
		return characterModel{}, fmt.Errorf("failed to encode traits: %w", err)
	}
	return characterModel{
		ID:                c.ID,
		PersonaKey:        c.PersonaKey,
		Name:              c.Name,
		DisplayName:       c.DisplayName,
		Description:       c.Description,
		Personality:       c.Personality,
		SystemPrompt:      c.SystemPrompt,
		AvatarURLs:        datatypes.JSON(avatars),
		Traits:            datatypes.JSON(traits),
		ConversationStyle: c.ConversationStyle,
		AgeRange:          c.AgeRange,
		BackgroundStory:   c.BackgroundStory,
		CategoryID:        c.CategoryID,
		SubcategoryID:     c.SubcategoryID,
		IsActive:          c.IsActive,
	}, nil
}

func characterFromModel(model characterModel) (*types.Character, error) {
	c := &types.Character{
		ID:                model.ID,
		PersonaKey:        model.PersonaKey,
		Name:              model.Name,
		DisplayName:       model.DisplayName,
		Description:       model.Description,
		Personality:       model.Personality,
		SystemPrompt:      model.SystemPrompt,
		ConversationStyle: model.ConversationStyle,
		AgeRange:          model.AgeRange,
		BackgroundStory:   model.BackgroundStory,
		CategoryID:        model.CategoryID,
		SubcategoryID:     model.SubcategoryID,
		IsActive:          model.IsActive,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}
	// Malformed trait columns degrade to an empty map.
	if len(model.Traits) > 0 {
		if err := json.Unmarshal(model.Traits, &c.Traits); err != nil {
			c.Traits = map[string]int{}
		}
	}
	if len(model.AvatarURLs) > 0 {
		if err := json.Unmarshal(model.AvatarURLs, &c.AvatarURLs); err != nil {
			c.AvatarURLs = nil
		}
	}
	return c, nil
}
