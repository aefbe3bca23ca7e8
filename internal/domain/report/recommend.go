package report

import (
	"strings"
	"time"

	"github.com/elevate-hub/elevate/internal/domain/study"
	"github.com/elevate-hub/elevate/pkg/timeutil"
)

// Recommendation messages.
const (
	RecStartLogging  = "Start logging your study sessions to receive personalized recommendations!"
	RecConsistency   = "Try to study more consistently. Aim for at least 4-5 study sessions per week."
	RecLongerSession = "Consider longer study sessions (20-45 minutes) for better focus and retention."
	RecBreakSessions = "Break down very long sessions into smaller chunks with breaks for better effectiveness."
	RecDiversify     = "Consider diversifying your study subjects to maintain engagement and prevent burnout."
	RecMoreTime      = "Increase your study time gradually. Consistent daily practice leads to better results."
	RecExcellent     = "Excellent study habits! Keep maintaining your current routine and continue tracking your progress."

	recFocusPrefix = "Focus extra attention on: "
	recFocusSuffix = ". Consider seeking additional resources or help."
)

// Recommendation thresholds.
const (
	minConsistencyRatio   = 0.5
	shortSessionMinutes   = 20
	longSessionMinutes    = 90
	lowSubjectConfidence  = 3.0
	maxFocusSubjects      = 3
	minTotalMinutes       = 300
	defaultMaxRecommended = 6
)

// Recommend derives study-habit advice from sessions. The result always has
// at least one and at most limit entries (6 when limit <= 0).
func Recommend(sessions []study.Session, limit int) []string {
	if limit <= 0 {
		limit = defaultMaxRecommended
	}
	if len(sessions) == 0 {
		return []string{RecStartLogging}
	}

	var recs []string

	if consistencyRatio(sessions) < minConsistencyRatio {
		recs = append(recs, RecConsistency)
	}

	total := study.TotalMinutes(sessions)
	avg := float64(total) / float64(len(sessions))
	switch {
	case avg < shortSessionMinutes:
		recs = append(recs, RecLongerSession)
	case avg > longSessionMinutes:
		recs = append(recs, RecBreakSessions)
	}

	if weak := lowConfidenceSubjects(sessions); len(weak) > 0 {
		if len(weak) > maxFocusSubjects {
			weak = weak[:maxFocusSubjects]
		}
		recs = append(recs, recFocusPrefix+strings.Join(weak, ", ")+recFocusSuffix)
	}

	if len(groupBySubject(sessions)) == 1 {
		recs = append(recs, RecDiversify)
	}

	if total < minTotalMinutes {
		recs = append(recs, RecMoreTime)
	}

	if len(recs) == 0 {
		recs = append(recs, RecExcellent)
	}
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

// consistencyRatio is active days over the span from the first to the last
// studied date, both included.
func consistencyRatio(sessions []study.Session) float64 {
	days := make(map[time.Time]struct{})
	first, last := sessions[0].Date, sessions[0].Date
	for i := range sessions {
		d := sessions[i].Date
		days[d] = struct{}{}
		if d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}
	span := timeutil.DaysBetween(first, last) + 1
	return float64(len(days)) / float64(span)
}

// lowConfidenceSubjects returns subjects whose mean confidence is below the
// threshold, sorted by name.
func lowConfidenceSubjects(sessions []study.Session) []string {
	groups := groupBySubject(sessions)
	out := make([]string, 0)
	for _, subject := range sortedKeys(groups) {
		if meanConfidence(groups[subject]) < lowSubjectConfidence {
			out = append(out, subject)
		}
	}
	return out
}
