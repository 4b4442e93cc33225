package schedule

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

type Position struct {
	CurrentIndex       int // 1-based, never exceeds TotalIntervals
	TotalIntervals     int
	IntervalsRemaining int
	DaysLeft           int
}

// ScheduleInfo locates now within the goal's schedule. ok is false when the plan
// has no creation anchor or no positive duration.
func ScheduleInfo(p Plan, now time.Time) (pos Position, ok bool) {
	if p.CreatedAt.IsZero() || p.Duration <= 0 {
		return Position{}, false
	}

	elapsed := min(max(FullIntervalsElapsed(p.CreatedAt, now, p.Interval), 0), p.Duration)

	daysLeft := 0
	end := AddIntervals(p.CreatedAt, p.Interval, p.Duration)
	if end.After(now) {
		daysLeft = int(math.Ceil(float64(end.Sub(now)) / float64(day)))
	}

	return Position{
		CurrentIndex:       min(elapsed+1, p.Duration),
		TotalIntervals:     p.Duration,
		IntervalsRemaining: p.Duration - elapsed,
		DaysLeft:           daysLeft,
	}, true
}

type Shortfall struct {
	MissedIntervals   int
	UnderContribution decimal.Decimal
	Delta             decimal.Decimal
}

// ComputeShortfall prices a contribution of amount made at now. Intervals between
// the anchor (last contribution, else creation) and the one this contribution
// satisfies count as fully missed at MaxContribution each; the current interval
// adds whatever amount falls short of MaxContribution.
func ComputeShortfall(p Plan, amount decimal.Decimal, now time.Time) Shortfall {
	anchor := p.CreatedAt
	if p.LastContributionAt != nil {
		anchor = *p.LastContributionAt
	}

	missed := max(FullIntervalsElapsed(anchor, now, p.Interval)-1, 0)
	if p.Duration > 0 {
		missed = min(missed, p.Duration)
	}

	under := p.MaxContribution.Sub(amount)
	if under.IsNegative() {
		under = decimal.Zero
	}

	return Shortfall{
		MissedIntervals:   missed,
		UnderContribution: under,
		Delta:             p.MaxContribution.Mul(decimal.NewFromInt(int64(missed))).Add(under),
	}
}

// ApplyAmendment pays amount off missing. ok is false, and missing is returned
// unchanged, when amount exceeds missing.
func ApplyAmendment(missing, amount decimal.Decimal) (newMissing decimal.Decimal, ok bool) {
	if amount.GreaterThan(missing) {
		return missing, false
	}
	return missing.Sub(amount), true
}
