package usage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/easeaico/liveroom/internal/apperr"
	"github.com/easeaico/liveroom/internal/types"
)

// Counter names a day-scoped usage counter.
type Counter string

const (
	CounterMessages Counter = "messages"
	CounterImages   Counter = "images"
)

// AccountStore persists plan and subscription data of users.
type AccountStore interface {
	GetOrCreateAccount(ctx context.Context, userID int, day string) (*types.Account, error)
	UpdateSubscription(ctx context.Context, userID int, plan types.PlanID, start, end *time.Time, charge float64) error
	CountByPlan(ctx context.Context) (map[types.PlanID]int64, error)
}

// Counters stores day-scoped usage counters.
type Counters interface {
	// ResetIfStale zeroes the counters when they belong to a day other than
	// day. It reports whether this call performed the reset.
	ResetIfStale(ctx context.Context, userID int, day string, now time.Time) (bool, error)
	// Reset zeroes the counters for day unconditionally.
	Reset(ctx context.Context, userID int, day string, now time.Time) error
	// Increment adds one to counter only while its value is below limit
	// (Unlimited skips the check). It reports whether the increment happened.
	Increment(ctx context.Context, userID int, day string, counter Counter, limit int) (bool, error)
	Usage(ctx context.Context, userID int, day string) (Usage, error)
}

// Usage is a snapshot of the counters of one day.
type Usage struct {
	Messages int `json:"messages"`
	Images   int `json:"images"`
}

// Decision is the outcome of a quota check.
type Decision struct {
	Allowed bool         `json:"allowed"`
	Plan    types.PlanID `json:"plan"`
	Used    int          `json:"used"`
	Limit   int          `json:"limit"`
}

// Gate decides whether gated operations may proceed and records them.
type Gate struct {
	accounts AccountStore
	counters Counters
	now      func() time.Time
}

// NewGate returns a Gate backed by the given stores.
func NewGate(accounts AccountStore, counters Counters) *Gate {
	return &Gate{
		accounts: accounts,
		counters: counters,
		now:      time.Now,
	}
}

// Day returns the UTC calendar day used to scope counters.
func Day(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

type state struct {
	account *types.Account
	plan    Plan
	usage   Usage
	day     string
}

// load fetches the account, downgrades expired subscriptions and performs the
// daily reset before any decision is made.
func (g *Gate) load(ctx context.Context, userID int) (*state, error) {
	if g == nil || g.accounts == nil || g.counters == nil {
		return nil, fmt.Errorf("usage gate not configured")
	}
	now := g.now()
	day := Day(now)

	account, err := g.accounts.GetOrCreateAccount(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if account.Plan != types.PlanFree && account.SubscriptionEnd != nil && account.SubscriptionEnd.Before(now) {
		if err := g.accounts.UpdateSubscription(ctx, userID, types.PlanFree, nil, nil, 0); err != nil {
			return nil, fmt.Errorf("failed to downgrade expired subscription: %w", err)
		}
		slog.Info("subscription expired", "user_id", userID, "plan", string(account.Plan))
		account.Plan = types.PlanFree
		account.SubscriptionStart = nil
		account.SubscriptionEnd = nil
	}

	reset, err := g.counters.ResetIfStale(ctx, userID, day, now)
	if err != nil {
		return nil, fmt.Errorf("failed to reset daily usage: %w", err)
	}
	if reset {
		slog.Debug("daily usage reset", "user_id", userID, "day", day)
	}

	usage, err := g.counters.Usage(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to read usage: %w", err)
	}

	plan, ok := PlanFor(account.Plan)
	if !ok {
		plan, _ = PlanFor(types.PlanFree)
	}
	return &state{account: account, plan: plan, usage: usage, day: day}, nil
}

// MessageDecision reports whether the user may send another message today
// without consuming quota.
func (g *Gate) MessageDecision(ctx context.Context, userID int) (Decision, error) {
	st, err := g.load(ctx, userID)
	if err != nil {
		return Decision{}, err
	}
	return decide(st.plan.ID, st.plan.MessagesPerDay, st.usage.Messages), nil
}

// CanSendMessage is MessageDecision reduced to its verdict.
func (g *Gate) CanSendMessage(ctx context.Context, userID int) (bool, error) {
	d, err := g.MessageDecision(ctx, userID)
	return d.Allowed, err
}

// ImageDecision reports whether the user may generate another image today.
func (g *Gate) ImageDecision(ctx context.Context, userID int) (Decision, error) {
	st, err := g.load(ctx, userID)
	if err != nil {
		return Decision{}, err
	}
	return decide(st.plan.ID, st.plan.ImagesPerDay, st.usage.Images), nil
}

// CanGenerateImage is ImageDecision reduced to its verdict.
func (g *Gate) CanGenerateImage(ctx context.Context, userID int) (bool, error) {
	d, err := g.ImageDecision(ctx, userID)
	return d.Allowed, err
}

func decide(plan types.PlanID, limit, used int) Decision {
	return Decision{Allowed: Allows(limit, used), Plan: plan, Used: used, Limit: limit}
}

// ConsumeMessage records one message. It returns a quota_exceeded error when
// the daily limit has been reached.
func (g *Gate) ConsumeMessage(ctx context.Context, userID int) error {
	return g.consume(ctx, userID, CounterMessages)
}

// ConsumeImage records one generated image.
func (g *Gate) ConsumeImage(ctx context.Context, userID int) error {
	return g.consume(ctx, userID, CounterImages)
}

func (g *Gate) consume(ctx context.Context, userID int, counter Counter) error {
	st, err := g.load(ctx, userID)
	if err != nil {
		return err
	}
	limit := st.plan.MessagesPerDay
	if counter == CounterImages {
		limit = st.plan.ImagesPerDay
	}

	ok := false
	if limit != 0 {
		ok, err = g.counters.Increment(ctx, userID, st.day, counter, limit)
		if err != nil {
			return fmt.Errorf("failed to increment %s usage: %w", counter, err)
		}
	}
	if !ok {
		if limit == 0 {
			return apperr.QuotaExceeded("%s are not included in the %s", counter, st.plan.Name)
		}
		return apperr.QuotaExceeded("daily %s limit of %d reached on the %s", counter, limit, st.plan.Name)
	}
	return nil
}

// Limit is one quota line of a usage report.
type Limit struct {
	Used    int  `json:"used"`
	Limit   int  `json:"limit"`
	Allowed bool `json:"allowed"`
}

// Report summarizes a user's plan and today's usage.
type Report struct {
	Plan              types.PlanID `json:"plan"`
	PlanName          string       `json:"plan_name"`
	Active            bool         `json:"is_active"`
	Messages          Limit        `json:"messages"`
	Images            Limit        `json:"images"`
	VoiceMessages     bool         `json:"voice_messages"`
	PremiumCharacters bool         `json:"premium_characters"`
	SubscriptionStart *time.Time   `json:"subscription_start,omitempty"`
	SubscriptionEnd   *time.Time   `json:"subscription_end,omitempty"`
	DaysRemaining     *int         `json:"days_remaining,omitempty"`
	TotalMessagesSent int          `json:"total_messages_sent"`
}

// Status returns the usage report of a user.
func (g *Gate) Status(ctx context.Context, userID int) (Report, error) {
	st, err := g.load(ctx, userID)
	if err != nil {
		return Report{}, err
	}
	report := Report{
		Plan:              st.plan.ID,
		PlanName:          st.plan.Name,
		Active:            true,
		Messages:          Limit{Used: st.usage.Messages, Limit: st.plan.MessagesPerDay, Allowed: Allows(st.plan.MessagesPerDay, st.usage.Messages)},
		Images:            Limit{Used: st.usage.Images, Limit: st.plan.ImagesPerDay, Allowed: Allows(st.plan.ImagesPerDay, st.usage.Images)},
		VoiceMessages:     st.plan.VoiceMessages,
		PremiumCharacters: st.plan.PremiumCharacters,
		SubscriptionStart: st.account.SubscriptionStart,
		SubscriptionEnd:   st.account.SubscriptionEnd,
		TotalMessagesSent: st.account.TotalMessagesSent,
	}
	if st.plan.ID != types.PlanFree {
		report.Active = st.account.SubscriptionEnd != nil
		if end := st.account.SubscriptionEnd; end != nil {
			days := int(end.Sub(g.now()).Hours() / 24)
			if days < 0 {
				days = 0
			}
			report.DaysRemaining = &days
		}
	}
	return report, nil
}

// UpgradeResult confirms a plan change.
type UpgradeResult struct {
	Plan      types.PlanID `json:"plan"`
	Message   string       `json:"message"`
	ExpiresOn time.Time    `json:"expires_on"`
	PaymentID string       `json:"payment_id"`
}

// Upgrade moves the user onto a paid plan for one subscription period and
// clears today's counters. Payment verification happens upstream.
func (g *Gate) Upgrade(ctx context.Context, userID int, planID types.PlanID, paymentID string) (UpgradeResult, error) {
	plan, ok := PlanFor(planID)
	if !ok {
		return UpgradeResult{}, apperr.NotFound("plan %q not found", planID)
	}
	if plan.ID == types.PlanFree {
		return UpgradeResult{}, apperr.Invalid("cannot upgrade to the free plan")
	}
	if _, err := g.load(ctx, userID); err != nil {
		return UpgradeResult{}, err
	}

	now := g.now().UTC()
	end := now.Add(SubscriptionPeriod)
	if err := g.accounts.UpdateSubscription(ctx, userID, plan.ID, &now, &end, plan.Price); err != nil {
		return UpgradeResult{}, fmt.Errorf("failed to update subscription: %w", err)
	}
	if err := g.counters.Reset(ctx, userID, Day(now), now); err != nil {
		return UpgradeResult{}, fmt.Errorf("failed to reset usage: %w", err)
	}
	slog.Info("subscription upgraded", "user_id", userID, "plan", string(plan.ID), "payment_id", paymentID)

	return UpgradeResult{
		Plan:      plan.ID,
		Message:   fmt.Sprintf("Successfully upgraded to %s", plan.Name),
		ExpiresOn: end,
		PaymentID: paymentID,
	}, nil
}

// Plans returns the plan catalog.
func (g *Gate) Plans() []Plan {
	return Plans()
}

// Stats aggregates subscriptions across all users.
type Stats struct {
	TotalUsers     int64   `json:"total_users"`
	FreeUsers      int64   `json:"free_users"`
	BasicUsers     int64   `json:"basic_users"`
	ProUsers       int64   `json:"pro_users"`
	ConversionRate float64 `json:"conversion_rate"`
	MonthlyRevenue float64 `json:"estimated_monthly_revenue"`
}

// Stats returns subscription counts and the revenue they imply.
func (g *Gate) Stats(ctx context.Context) (Stats, error) {
	if g == nil || g.accounts == nil {
		return Stats{}, fmt.Errorf("usage gate not configured")
	}
	counts, err := g.accounts.CountByPlan(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count accounts: %w", err)
	}

	var s Stats
	for id, n := range counts {
		s.TotalUsers += n
		if plan, ok := PlanFor(id); ok {
			s.MonthlyRevenue += float64(n) * plan.Price
		}
	}
	s.FreeUsers = counts[types.PlanFree]
	s.BasicUsers = counts[types.PlanBasic]
	s.ProUsers = counts[types.PlanPro]
	if s.TotalUsers > 0 {
		s.ConversionRate = float64(s.BasicUsers+s.ProUsers) / float64(s.TotalUsers) * 100
	}
	return s, nil
}
