// Package schedule holds the contribution schedule rules for savings goals:
// interval arithmetic, the contribution window, shortfall accounting and the
// coin reward formula. Everything here is pure and takes "now" explicitly.
package schedule

import (
	"fmt"
	"strings"
	"time"
)

type Interval string

const (
	Daily   Interval = "daily"
	Weekly  Interval = "weekly"
	Monthly Interval = "monthly"
)

const day = 24 * time.Hour

var ErrInvalidInterval = fmt.Errorf("interval must be one of %s, %s or %s", Daily, Weekly, Monthly)

// ParseInterval is strict. The arithmetic below is not: unknown values behave as daily.
func ParseInterval(s string) (Interval, error) {
	i := Interval(strings.ToLower(strings.TrimSpace(s)))
	if !i.Valid() {
		return "", ErrInvalidInterval
	}
	return i, nil
}

func (i Interval) Valid() bool {
	switch i {
	case Daily, Weekly, Monthly:
		return true
	}
	return false
}

// Unit returns the singular label used for schedule positions ("Day 3/5").
func (i Interval) Unit() string {
	switch i {
	case Weekly:
		return "week"
	case Monthly:
		return "month"
	default:
		return "day"
	}
}

// AddIntervals adds count whole units to start.
// Monthly additions keep the day of month, clamped to the length of the target month.
func AddIntervals(start time.Time, unit Interval, count int) time.Time {
	switch unit {
	case Weekly:
		return start.Add(time.Duration(count) * 7 * day)
	case Monthly:
		return addMonths(start, count)
	default:
		return start.Add(time.Duration(count) * day)
	}
}

// FullIntervalsElapsed counts complete units between start and end.
// Monthly compares calendar month indices only, so crossing a month boundary
// always counts regardless of the day of month.
func FullIntervalsElapsed(start, end time.Time, unit Interval) int {
	if !end.After(start) {
		return 0
	}

	switch unit {
	case Weekly:
		return int(end.Sub(start) / (7 * day))
	case Monthly:
		e := end.In(start.Location())
		n := monthIndex(e) - monthIndex(start)
		if n < 0 {
			return 0
		}
		return n
	default:
		return int(end.Sub(start) / day)
	}
}

func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(target.Year(), target.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month())
}
