// Package calendar does civil-day arithmetic for the scheduling engine.
// Every instant is reduced to its calendar date (in the instant's own
// location) and represented as midnight UTC, so day differences are exact.
package calendar

import "time"

const day = 24 * time.Hour

// Day truncates t to its calendar date at midnight UTC
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from `from` to `to`.
// Negative when `to` is before `from`.
func DaysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)) / day)
}

// SpanDays returns the inclusive day count of [start, end], minimum 1
func SpanDays(start, end time.Time) int {
	n := DaysBetween(start, end) + 1
	if n < 1 {
		return 1
	}
	return n
}

// Contains reports whether d falls within the inclusive [start, end] range
func Contains(start, end, d time.Time) bool {
	dd := Day(d)
	return !dd.Before(Day(start)) && !dd.After(Day(end))
}

// AddDays moves a calendar day forward by n days
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// WeekStart returns the Monday of t's ISO week
func WeekStart(t time.Time) time.Time {
	d := Day(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// MonthStart returns the first day of t's month
func MonthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// DaysInMonth returns the number of days in t's month
func DaysInMonth(t time.Time) int {
	return MonthStart(t).AddDate(0, 1, -1).Day()
}

// Each calls fn for every calendar day in [from, to]
func Each(from, to time.Time, fn func(d time.Time)) {
	for d, end := Day(from), Day(to); !d.After(end); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}
