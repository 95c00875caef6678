package storage

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/easeaico/liveroom/internal/types"
	"github.com/easeaico/liveroom/internal/usage"
)

// accountModel maps to the accounts table, one row per user.
type accountModel struct {
	UserID               int    `gorm:"primaryKey;autoIncrement:false"`
	Plan                 string `gorm:"size:20;default:free"`
	SubscriptionStart    *time.Time
	SubscriptionEnd      *time.Time
	MessagesUsedToday    int
	ImagesGeneratedToday int
	UsageDay             string `gorm:"size:10"`
	LastResetAt          *time.Time
	TotalMessagesSent    int
	TotalSpent           float64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (accountModel) TableName() string {
	return "accounts"
}

// AccountRepo stores plans and day-scoped usage counters. Counter updates are
// single conditional UPDATE statements so concurrent requests cannot overshoot
// a quota or reset a day twice.
type AccountRepo struct {
	db *gorm.DB
}

// NewAccountRepo returns an AccountRepo.
func NewAccountRepo(db *gorm.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

var (
	_ usage.AccountStore = (*AccountRepo)(nil)
	_ usage.Counters     = (*AccountRepo)(nil)
)

func (r *AccountRepo) GetOrCreateAccount(ctx context.Context, userID int, day string) (*types.Account, error) {
	record := accountModel{UserID: userID, Plan: string(types.PlanFree), UsageDay: day}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&record).Error; err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	var stored accountModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return accountFromModel(stored), nil
}

func (r *AccountRepo) UpdateSubscription(ctx context.Context, userID int, plan types.PlanID, start, end *time.Time, charge float64) error {
	if err := r.db.WithContext(ctx).
		Model(&accountModel{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"plan":               string(plan),
			"subscription_start": start,
			"subscription_end":   end,
			"total_spent":        gorm.Expr("total_spent + ?", charge),
		}).Error; err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return nil
}

func (r *AccountRepo) CountByPlan(ctx context.Context) (map[types.PlanID]int64, error) {
	var rows []struct {
		Plan  string
		Total int64
	}
	if err := r.db.WithContext(ctx).
		Model(&accountModel{}).
		Select("plan, COUNT(*) AS total").
		Group("plan").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count accounts by plan: %w", err)
	}
	out := make(map[types.PlanID]int64, len(rows))
	for _, row := range rows {
		out[types.PlanID(row.Plan)] = row.Total
	}
	return out, nil
}

func (r *AccountRepo) ResetIfStale(ctx context.Context, userID int, day string, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&accountModel{}).
		Where("user_id = ? AND usage_day <> ?", userID, day).
		Updates(resetColumns(day, now))
	if result.Error != nil {
		return false, fmt.Errorf("failed to reset daily usage: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *AccountRepo) Reset(ctx context.Context, userID int, day string, now time.Time) error {
	if err := r.db.WithContext(ctx).
		Model(&accountModel{}).
		Where("user_id = ?", userID).
		Updates(resetColumns(day, now)).Error; err != nil {
		return fmt.Errorf("failed to reset usage: %w", err)
	}
	return nil
}

func resetColumns(day string, now time.Time) map[string]any {
	return map[string]any{
		"messages_used_today":    0,
		"images_generated_today": 0,
		"usage_day":              day,
		"last_reset_at":          now.UTC(),
	}
}

func (r *AccountRepo) Increment(ctx context.Context, userID int, day string, counter usage.Counter, limit int) (bool, error) {
	column := "messages_used_today"
	updates := map[string]any{}
	switch counter {
	case usage.CounterMessages:
		updates["total_messages_sent"] = gorm.Expr("total_messages_sent + 1")
	case usage.CounterImages:
		column = "images_generated_today"
	default:
		return false, fmt.Errorf("unknown counter %q", counter)
	}
	updates[column] = gorm.Expr(column + " + 1")

	query := r.db.WithContext(ctx).
		Model(&accountModel{}).
		Where("user_id = ? AND usage_day = ?", userID, day)
	if limit != usage.Unlimited {
		query = query.Where(column+" < ?", limit)
	}
	result := query.Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to increment usage: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *AccountRepo) Usage(ctx context.Context, userID int, day string) (usage.Usage, error) {
	var record accountModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&record).Error; err != nil {
		return usage.Usage{}, fmt.Errorf("failed to read usage: %w", err)
	}
	if record.UsageDay != day {
		return usage.Usage{}, nil
	}
	return usage.Usage{Messages: record.MessagesUsedToday, Images: record.ImagesGeneratedToday}, nil
}

func accountFromModel(model accountModel) *types.Account {
	return &types.Account{
		UserID:               model.UserID,
		Plan:                 types.PlanID(model.Plan),
		SubscriptionStart:    model.SubscriptionStart,
		SubscriptionEnd:      model.SubscriptionEnd,
		MessagesUsedToday:    model.MessagesUsedToday,
		ImagesGeneratedToday: model.ImagesGeneratedToday,
		UsageDay:             model.UsageDay,
		LastResetAt:          model.LastResetAt,
		TotalMessagesSent:    model.TotalMessagesSent,
		TotalSpent:           model.TotalSpent,
	}
}
