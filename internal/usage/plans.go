// Package usage enforces per-user daily quotas for each subscription plan.
package usage

import (
	"time"

	"github.com/easeaico/liveroom/internal/types"
)

// Unlimited marks a quota without an upper bound.
const Unlimited = -1

// SubscriptionPeriod is how long a paid plan stays active after an upgrade.
const SubscriptionPeriod = 30 * 24 * time.Hour

// Plan describes the quotas and features of a subscription tier.
type Plan struct {
	ID                types.PlanID `json:"id"`
	Name              string       `json:"name"`
	Price             float64      `json:"price"`
	Currency          string       `json:"currency"`
	MessagesPerDay    int          `json:"messages_per_day"`
	ImagesPerDay      int          `json:"images_per_day"`
	VoiceMessages     bool         `json:"voice_messages"`
	PremiumCharacters bool         `json:"premium_characters"`
	Features          []string     `json:"features"`
}

var plans = []Plan{
	{
		ID:             types.PlanFree,
		Name:           "Free Plan",
		Currency:       "INR",
		MessagesPerDay: 20,
		ImagesPerDay:   0,
		Features:       []string{"20 messages/day", "6 basic characters", "Community access"},
	},
	{
		ID:             types.PlanBasic,
		Name:           "Basic Plan",
		Price:          199,
		Currency:       "INR",
		MessagesPerDay: Unlimited,
		ImagesPerDay:   5,
		VoiceMessages:  true,
		Features:       []string{"Unlimited messages", "5 images/day", "Voice messages", "All basic characters", "Priority support"},
	},
	{
		ID:                types.PlanPro,
		Name:              "Pro Plan",
		Price:             499,
		Currency:          "INR",
		MessagesPerDay:    Unlimited,
		ImagesPerDay:      15,
		VoiceMessages:     true,
		PremiumCharacters: true,
		Features:          []string{"Unlimited messages", "15 images/day", "Voice messages", "Premium characters", "Custom characters", "Priority support", "Advanced features"},
	},
}

// Plans returns every plan, cheapest first.
func Plans() []Plan {
	out := make([]Plan, len(plans))
	for i, p := range plans {
		p.Features = append([]string(nil), p.Features...)
		out[i] = p
	}
	return out
}

// PlanFor returns the plan with the given id.
func PlanFor(id types.PlanID) (Plan, bool) {
	for _, p := range plans {
		if p.ID == id {
			p.Features = append([]string(nil), p.Features...)
			return p, true
		}
	}
	return Plan{}, false
}

// Allows reports whether one more unit fits in limit given used units.
func Allows(limit, used int) bool {
	return limit == Unlimited || used < limit
}
