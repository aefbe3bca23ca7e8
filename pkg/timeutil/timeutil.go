// Package timeutil provides calendar-date utilities for study tracking.
// Session dates carry no time of day: they are stored as midnight UTC so that
// day arithmetic is exact regardless of the user's timezone. "Today" is taken
// from a Clock bound to the configured location.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"math"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// Clock
// ═══════════════════════════════════════════════════════════════════════════

// Clock returns the current instant. Handlers take a Clock instead of calling
// time.Now so tests can pin "today".
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in Location (UTC when nil).
type SystemClock struct {
	Location *time.Location
}

// Now returns the current time in the clock's location.
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.Location)
}

// FixedClock always returns the same instant.
type FixedClock time.Time

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time {
	return time.Time(c)
}

// LoadLocation resolves an IANA zone name, falling back to UTC.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, fmt.Errorf("timeutil: unknown timezone %q: %w", name, err)
	}
	return loc, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Calendar dates
// ═══════════════════════════════════════════════════════════════════════════

// Date creates a calendar date (midnight UTC).
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf returns the calendar date of t as seen in t's own location.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date according to the clock.
func Today(c Clock) time.Time {
	return DateOf(c.Now())
}

// AddDays shifts a calendar date by n days.
func AddDays(d time.Time, n int) time.Time {
	return DateOf(d).AddDate(0, 0, n)
}

// DayDiff returns the signed number of calendar days from a to b.
func DayDiff(a, b time.Time) int {
	return int(math.Round(DateOf(b).Sub(DateOf(a)).Hours() / 24))
}

// DaysBetween returns the absolute number of calendar days between a and b.
func DaysBetween(a, b time.Time) int {
	d := DayDiff(a, b)
	if d < 0 {
		return -d
	}
	return d
}

// ═══════════════════════════════════════════════════════════════════════════
// Formatting
// ═══════════════════════════════════════════════════════════════════════════

// Common date/time formats.
const (
	// FormatDate is the storage date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatTimestamp is used for record timestamps.
	FormatTimestamp = time.RFC3339Nano
	// FormatFileStamp is used in backup file names.
	FormatFileStamp = "20060102_150405"
	// FormatHumanDate is a human-readable format (January 2, 2006).
	FormatHumanDate = "January 2, 2006"
	// FormatHumanDateTime is the report header format.
	FormatHumanDateTime = "January 2, 2006 at 03:04 PM"
)

// FormatDateStr formats a calendar date as YYYY-MM-DD.
func FormatDateStr(d time.Time) string {
	return d.Format(FormatDate)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(value string) (time.Time, error) {
	d, err := time.ParseInLocation(FormatDate, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("timeutil: invalid date %q: %w", value, err)
	}
	return d, nil
}

// FormatMinutes renders a minute count as "45m" or "2h 5m".
func FormatMinutes(minutes float64) string {
	total := int(math.Round(minutes))
	if total < 0 {
		total = 0
	}
	h, m := total/60, total%60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %dm", h, m)
	}
}

// FormatRelativeDay describes a calendar date relative to today.
func FormatRelativeDay(d, today time.Time) string {
	diff := DayDiff(d, today)
	switch {
	case diff == 0:
		return "today"
	case diff == 1:
		return "yesterday"
	case diff > 1:
		return fmt.Sprintf("%d days ago", diff)
	case diff == -1:
		return "tomorrow"
	default:
		return fmt.Sprintf("in %d days", -diff)
	}
}
