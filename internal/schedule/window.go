package schedule

import "time"

type Window struct {
	CanContribute  bool
	NextEligibleAt time.Time
	// UntilNext is negative once the window has been open for a while. Display only.
	UntilNext time.Duration
}

// EvaluateWindow reports whether a contribution is accepted at now.
// A goal that never received a contribution is always open.
func EvaluateWindow(p Plan, now time.Time) Window {
	if p.LastContributionAt == nil {
		return Window{CanContribute: true, NextEligibleAt: now}
	}

	next := AddIntervals(*p.LastContributionAt, p.Interval, 1)
	return Window{
		CanContribute:  !now.Before(next),
		NextEligibleAt: next,
		UntilNext:      next.Sub(now),
	}
}
