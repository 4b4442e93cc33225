package schedule

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan is the part of a goal the schedule rules look at.
type Plan struct {
	Interval           Interval
	Duration           int
	MaxContribution    decimal.Decimal
	CreatedAt          time.Time
	LastContributionAt *time.Time
}

// DefaultMaxContribution spreads target evenly over duration intervals, rounded up to cents.
func DefaultMaxContribution(target decimal.Decimal, duration int) decimal.Decimal {
	if duration <= 0 {
		return target
	}
	return target.Div(decimal.NewFromInt(int64(duration))).RoundCeil(2)
}

// RoundMoney rounds a currency amount to cents.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// MaxMoney is the largest amount a NUMERIC(12,2) column holds.
var MaxMoney = decimal.RequireFromString("9999999999.99")
