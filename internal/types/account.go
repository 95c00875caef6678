package types

import "time"

// PlanID identifies a subscription plan.
type PlanID string

const (
	PlanFree  PlanID = "free"
	PlanBasic PlanID = "basic"
	PlanPro   PlanID = "pro"
)

// Account holds the subscription and day-scoped usage counters of a user.
type Account struct {
	UserID               int        `json:"user_id"`
	Plan                 PlanID     `json:"plan"`
	SubscriptionStart    *time.Time `json:"subscription_start,omitempty"`
	SubscriptionEnd      *time.Time `json:"subscription_end,omitempty"`
	MessagesUsedToday    int        `json:"messages_used_today"`
	ImagesGeneratedToday int        `json:"images_generated_today"`
	// UsageDay is the UTC date (YYYY-MM-DD) the counters belong to.
	UsageDay          string     `json:"usage_day"`
	LastResetAt       *time.Time `json:"last_reset_at,omitempty"`
	TotalMessagesSent int        `json:"total_messages_sent"`
	TotalSpent        float64    `json:"total_spent"`
}
