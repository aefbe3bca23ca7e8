package study

import (
	"sort"
	"time"

	"github.com/elevate-hub/elevate/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK
// ══════════════════════════════════════════════════════════════════════════════

// StreakStatus describes whether the current streak is still alive.
type StreakStatus string

const (
	// StreakActive - studied today.
	StreakActive StreakStatus = "active"
	// StreakAtRisk - last studied yesterday; studying today keeps it.
	StreakAtRisk StreakStatus = "at_risk"
	// StreakBroken - no study today or yesterday.
	StreakBroken StreakStatus = "broken"
	// StreakNone - nothing studied yet.
	StreakNone StreakStatus = "none"
)

// Streak summarises consecutive study days relative to a given day.
type Streak struct {
	Current int
	Best    int
	Status  StreakStatus

	// LastActiveDate is the most recent studied date not after today.
	LastActiveDate time.Time

	// StartDate is the first day of the current streak. Zero when Current is 0.
	StartDate time.Time
}

// ComputeStreak returns the number of consecutive study days ending at the
// most recent studied date, provided that date is today or yesterday.
// Sessions dated after today are ignored.
func ComputeStreak(sessions []Session, today time.Time) int {
	current, _ := currentRun(distinctDates(sessions, timeutil.DateOf(today)), timeutil.DateOf(today))
	return current
}

// LongestStreak returns the longest run of consecutive study days anywhere
// in the history.
func LongestStreak(sessions []Session) int {
	dates := distinctDates(sessions, time.Time{})
	if len(dates) == 0 {
		return 0
	}

	best, run := 1, 1
	for i := 1; i < len(dates); i++ {
		if timeutil.DayDiff(dates[i], dates[i-1]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

// AnalyzeStreak computes the full streak summary for the dashboard.
func AnalyzeStreak(sessions []Session, today time.Time) Streak {
	today = timeutil.DateOf(today)
	dates := distinctDates(sessions, today)

	s := Streak{Best: LongestStreak(sessions), Status: StreakNone}
	if len(dates) == 0 {
		return s
	}

	s.LastActiveDate = dates[0]
	s.Current, s.StartDate = currentRun(dates, today)

	switch timeutil.DayDiff(dates[0], today) {
	case 0:
		s.Status = StreakActive
	case 1:
		s.Status = StreakAtRisk
	default:
		s.Status = StreakBroken
	}
	return s
}

// currentRun walks dates (distinct, descending) back from the newest one.
func currentRun(dates []time.Time, today time.Time) (int, time.Time) {
	if len(dates) == 0 {
		return 0, time.Time{}
	}
	if timeutil.DayDiff(dates[0], today) > 1 {
		return 0, time.Time{}
	}

	streak := 1
	start := dates[0]
	for i := 1; i < len(dates); i++ {
		if timeutil.DayDiff(dates[i], dates[i-1]) != 1 {
			break
		}
		streak++
		start = dates[i]
	}
	return streak, start
}

// distinctDates returns unique session dates sorted descending. A non-zero
// until drops dates after it.
func distinctDates(sessions []Session, until time.Time) []time.Time {
	seen := make(map[time.Time]struct{}, len(sessions))
	dates := make([]time.Time, 0, len(sessions))
	for i := range sessions {
		d := timeutil.DateOf(sessions[i].Date)
		if !until.IsZero() && d.After(until) {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })
	return dates
}
