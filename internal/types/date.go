package types

import (
	"fmt"
	"time"
)

// StartOfDay returns midnight of t's calendar day in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DaysBetween counts the calendar days between the day boundaries of start and
// end in loc (inclusive start, exclusive end). Days are counted by calendar
// date rather than by 24h blocks so DST transitions never produce a 23h or 25h
// "day". Returns 0 if end is not after start.
func DaysBetween(start, end time.Time, loc *time.Location) int {
	startDay := StartOfDay(start, loc)
	endDay := StartOfDay(end, loc)
	if !endDay.After(startDay) {
		return 0
	}

	// Dates re-expressed in UTC are exactly 24h apart per calendar day.
	s := time.Date(startDay.Year(), startDay.Month(), startDay.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(endDay.Year(), endDay.Month(), endDay.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours() / 24)
}

// ClampTime restricts t to the closed range [start, end]
func ClampTime(t, start, end time.Time) time.Time {
	if t.Before(start) {
		return start
	}
	if t.After(end) {
		return end
	}
	return t
}

// NextBillingDate calculates the end of a billing period that starts at start.
// Months and years are clamped to the last valid day, e.g. Jan 31 + 1 month = Feb 29 in 2024.
func NextBillingDate(start time.Time, interval BillingInterval) (time.Time, error) {
	switch interval {
	case BillingIntervalWeekly:
		return start.AddDate(0, 0, 7), nil
	case BillingIntervalMonthly:
		return AddClampedDate(start, 0, 1), nil
	case BillingIntervalYearly:
		return AddClampedDate(start, 1, 0), nil
	default:
		return start, fmt.Errorf("invalid billing interval: %s", interval)
	}
}

// AddClampedDate adds years and months to t, clamping the day to the last valid
// day of the resulting month.
func AddClampedDate(t time.Time, years, months int) time.Time {
	y, m, d := t.Date()
	h, min, sec := t.Clock()

	newY := y + years
	newM := time.Month(int(m) + months)
	for newM > 12 {
		newM -= 12
		newY++
	}
	for newM < 1 {
		newM += 12
		newY--
	}

	lastDay := time.Date(newY, newM+1, 0, 0, 0, 0, 0, t.Location()).Day()
	if d > lastDay {
		d = lastDay
	}

	return time.Date(newY, newM, d, h, min, sec, t.Nanosecond(), t.Location())
}
