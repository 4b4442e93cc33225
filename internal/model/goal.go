package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pennypet/server/internal/schedule"
)

const (
	GoalStatusActive    = "active"
	GoalStatusPaused    = "paused"
	GoalStatusCompleted = "completed"
)

const (
	IntervalStatusPending   = "pending"
	IntervalStatusFulfilled = "fulfilled"
)

const GoalCategoryNone = "none"

type Goal struct {
	ID                     string              `db:"id" json:"id"`
	UserID                 string              `db:"user_id" json:"-"`
	Name                   string              `db:"name" json:"name"`
	TargetAmount           decimal.Decimal     `db:"target_amount" json:"target_amount"`
	CurrentAmount          decimal.Decimal     `db:"current_amount" json:"current_amount"`
	Interval               schedule.Interval   `db:"interval_unit" json:"interval"`
	Duration               int                 `db:"duration" json:"duration"`
	MaxContribution        decimal.Decimal     `db:"max_contribution" json:"max_contribution"`
	Category               string              `db:"category" json:"category"`
	MissingAmount          decimal.Decimal     `db:"missing_amount" json:"missing_amount"`
	GoalStatus             string              `db:"goal_status" json:"goal_status"`
	IntervalStatus         string              `db:"interval_status" json:"interval_status"`
	LastContributionAt     *time.Time          `db:"last_contribution_at" json:"last_contribution_at,omitempty"`
	LastContributionAmount decimal.NullDecimal `db:"last_contribution_amount" json:"last_contribution_amount"`
	LastContributionMsg    string              `db:"last_contribution_message" json:"last_contribution_message"`
	ContributionsCount     int                 `db:"contributions_count" json:"contributions_count"`
	CreatedAt              time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt              time.Time           `db:"updated_at" json:"updated_at"`
}

// NewGoal applies creation defaults: nothing saved, nothing missing, active and pending.
func NewGoal(id, userID, name string, target decimal.Decimal, interval schedule.Interval, duration int, maxContribution decimal.Decimal, category string, now time.Time) *Goal {
	if category == "" {
		category = GoalCategoryNone
	}
	return &Goal{
		ID:              id,
		UserID:          userID,
		Name:            name,
		TargetAmount:    target,
		CurrentAmount:   decimal.Zero,
		Interval:        interval,
		Duration:        duration,
		MaxContribution: maxContribution,
		Category:        category,
		MissingAmount:   decimal.Zero,
		GoalStatus:      GoalStatusActive,
		IntervalStatus:  IntervalStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func (g *Goal) Plan() schedule.Plan {
	return schedule.Plan{
		Interval:           g.Interval,
		Duration:           g.Duration,
		MaxContribution:    g.MaxContribution,
		CreatedAt:          g.CreatedAt,
		LastContributionAt: g.LastContributionAt,
	}
}

// IsCompleted trusts the amounts when the stored status lags behind.
func (g *Goal) IsCompleted() bool {
	return g.GoalStatus == GoalStatusCompleted || g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// Remaining is the amount still needed to reach the target, never negative.
func (g *Goal) Remaining() decimal.Decimal {
	r := g.TargetAmount.Sub(g.CurrentAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// EffectiveIntervalStatus treats the stored interval status as a cache: an open
// window always means the current interval is still pending.
func (g *Goal) EffectiveIntervalStatus(now time.Time) string {
	if schedule.EvaluateWindow(g.Plan(), now).CanContribute {
		return IntervalStatusPending
	}
	return g.IntervalStatus
}
