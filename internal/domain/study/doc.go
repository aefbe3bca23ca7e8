// Package study holds the study-session model and the analytics that run
// directly over a user's session history.
//
// The package defines:
//
//   - Session, the validated record of one study session
//   - Repository and Locker, the persistence ports implemented in
//     infrastructure/persistence
//   - the streak calculator (ComputeStreak, LongestStreak, AnalyzeStreak)
//   - the gamification engine (XPPolicy, DetectLevelUp, ProgressFor)
//
// Everything here is pure and depends only on the standard library and the
// shared value objects, so it can be tested without storage.
//
// # Dates
//
// A session's Date is a calendar date stored as midnight UTC. "Today" is
// computed by the caller from a timeutil.Clock in the configured location and
// passed in explicitly, so no function in this package reads the wall clock.
//
//	today := timeutil.Today(clock)
//	streak := study.ComputeStreak(sessions, today)
//
// # Experience
//
// XP is derived from sessions and never stored:
//
//	policy := study.DefaultXPPolicy()
//	total := policy.TotalXP(sessions)
//	if up, ok := study.DetectLevelUp(total, gained); ok {
//	    fmt.Println("level", up.To)
//	}
package study
