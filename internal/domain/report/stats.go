// Package report aggregates a user's sessions into the statistics shown on
// progress reports: totals, per-day and per-subject breakdowns, confidence
// trends, strong and weak chapters, and study-habit recommendations.
//
// Aggregation is pure. An empty input is a valid input and yields a Stats
// value with HasData false, nil optional fields and empty slices.
package report

import (
	"time"

	"github.com/elevate-hub/elevate/internal/domain/shared"
	"github.com/elevate-hub/elevate/internal/domain/study"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATS
// ══════════════════════════════════════════════════════════════════════════════

// Stats is the full aggregation of one period.
type Stats struct {
	Period  shared.DateRange
	HasData bool

	TotalMinutes   int
	SessionCount   int
	MeanConfidence *float64
	UniqueSubjects int
	UniqueChapters int
	ActiveDays     int

	// Daily is sparse and ascending by date.
	Daily []DailyTotal

	// Subjects is sorted by subject name.
	Subjects []SubjectStats

	// Trends covers subjects with at least MinTrendSessions sessions,
	// sorted by subject name.
	Trends []Trend

	Strengths  []ChapterScore
	Weaknesses []ChapterScore

	// Recommendations holds 1..MaxRecommendations messages.
	Recommendations []string

	// Details is nil when there is no data.
	Details *Details

	// RecentSessions are the last sessions of the period in insertion order.
	RecentSessions []study.Session

	// PerformanceSufficient is true when trends and strengths are meaningful.
	PerformanceSufficient bool
}

// DailyTotal is the study time of one calendar day.
type DailyTotal struct {
	Date    time.Time
	Minutes int
}

// SubjectStats summarises one subject.
type SubjectStats struct {
	Subject        string
	TotalMinutes   int
	SessionCount   int
	MeanDuration   float64
	MeanConfidence float64

	// ConfidenceStdDev is the sample standard deviation, nil for one session.
	ConfidenceStdDev *float64
}

// TrendDirection classifies a confidence trend.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendStable    TrendDirection = "stable"
	TrendDeclining TrendDirection = "declining"
)

// Trend compares early and late confidence for a subject.
type Trend struct {
	Subject   string
	Direction TrendDirection

	// Delta is late-window mean minus early-window mean.
	Delta float64

	// CurrentConfidence is the late-window mean.
	CurrentConfidence float64
}

// ChapterScore is the mean confidence of one (subject, chapter) pair.
type ChapterScore struct {
	Subject        string
	Chapter        string
	MeanConfidence float64
	SessionCount   int
}

// Details are the study-pattern figures of the detailed statistics section.
type Details struct {
	DailyAverageMinutes float64
	MeanSessionMinutes  float64
	LongestSession      int
	ShortestSession     int

	// Distribution lists only ratings that occur, ascending.
	Distribution []ConfidenceBucket
}

// ConfidenceBucket counts sessions with one rating.
type ConfidenceBucket struct {
	Rating  shared.Confidence
	Count   int
	Percent float64
}
