package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/easeaico/liveroom/internal/apperr"
	"github.com/easeaico/liveroom/internal/types"
)

type subcategoryModel struct {
	ID          int
	Name        string `gorm:"size:100;uniqueIndex;not null"`
	Description string
	ImageURL    string
	IsActive    bool `gorm:"default:true"`
	SortOrder   int
	CategoryID  int `gorm:"index;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (subcategoryModel) TableName() string {
	return "subcategories"
}

// ListSubcategories returns active subcategories in display order. A
// positive categoryID restricts them to that category.
func (r *CharacterRepo) ListSubcategories(ctx context.Context, categoryID int) ([]types.Subcategory, error) {
	query := r.db.WithContext(ctx).Where("is_active = ?", true).Order("sort_order ASC, id ASC")
	if categoryID > 0 {
		query = query.Where("category_id = ?", categoryID)
	}

	var records []subcategoryModel
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query subcategories: %w", err)
	}
	out := make([]types.Subcategory, 0, len(records))
	for _, record := range records {
		out = append(out, subcategoryFromModel(record))
	}
	return out, nil
}

// GetSubcategory returns an active subcategory.
func (r *CharacterRepo) GetSubcategory(ctx context.Context, id int) (*types.Subcategory, error) {
	var record subcategoryModel
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).First(&record, id).Error; err != nil {
		if nf := notFound(err, "subcategory %d not found", id); nf != nil {
			return nil, nf
		}
		return nil, fmt.Errorf("failed to get subcategory by id: %w", err)
	}
	sub := subcategoryFromModel(record)
	return &sub, nil
}

// EnsureSubcategory returns the subcategory named sub.Name, creating it when
// absent. An existing row is moved under sub.CategoryID if it has drifted.
func (r *CharacterRepo) EnsureSubcategory(ctx context.Context, sub types.Subcategory) (*types.Subcategory, bool, error) {
	if strings.TrimSpace(sub.Name) == "" {
		return nil, false, apperr.Invalid("subcategory name is required")
	}
	if sub.CategoryID <= 0 {
		return nil, false, apperr.Invalid("subcategory %q needs a category", sub.Name)
	}

	record := subcategoryToModel(sub)
	result := r.db.WithContext(ctx).Where(subcategoryModel{Name: sub.Name}).Attrs(record).FirstOrCreate(&record)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to ensure subcategory: %w", result.Error)
	}
	created := result.RowsAffected > 0

	if !created && record.CategoryID != sub.CategoryID {
		if err := r.db.WithContext(ctx).
			Model(&subcategoryModel{}).
			Where("id = ?", record.ID).
			Update("category_id", sub.CategoryID).Error; err != nil {
			return nil, false, fmt.Errorf("failed to move subcategory: %w", err)
		}
		record.CategoryID = sub.CategoryID
	}
	out := subcategoryFromModel(record)
	return &out, created, nil
}

func subcategoryToModel(s types.Subcategory) subcategoryModel {
	return subcategoryModel{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		ImageURL:    s.ImageURL,
		IsActive:    s.IsActive,
		SortOrder:   s.SortOrder,
		CategoryID:  s.CategoryID,
	}
}

func subcategoryFromModel(model subcategoryModel) types.Subcategory {
	return types.Subcategory{
		ID:          model.ID,
		Name:        model.Name,
		Description: model.Description,
		ImageURL:    model.ImageURL,
		IsActive:    model.IsActive,
		SortOrder:   model.SortOrder,
		CategoryID:  model.CategoryID,
	}
}
