package report

import (
	"math"
	"sort"
	"time"

	"github.com/elevate-hub/elevate/internal/domain/shared"
	"github.com/elevate-hub/elevate/internal/domain/study"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds the aggregation thresholds.
type Config struct {
	// RecentLimit is the number of sessions listed in RecentSessions.
	RecentLimit int

	// MinTrendSessions is the smallest subject sample that gets a trend.
	MinTrendSessions int

	// TrendThreshold is the delta beyond which a trend is not stable.
	TrendThreshold float64

	// TopChapters is the size of the strengths and weaknesses lists.
	TopChapters int

	// WeaknessCeiling excludes chapters at or above it from weaknesses.
	WeaknessCeiling float64

	// MinPerformanceSessions gates the performance analysis.
	MinPerformanceSessions int

	// MaxRecommendations caps the recommendation list.
	MaxRecommendations int
}

// DefaultConfig returns the standard report thresholds.
func DefaultConfig() Config {
	return Config{
		RecentLimit:            20,
		MinTrendSessions:       3,
		TrendThreshold:         0.2,
		TopChapters:            3,
		WeaknessCeiling:        3.5,
		MinPerformanceSessions: 3,
		MaxRecommendations:     6,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// AGGREGATOR
// ══════════════════════════════════════════════════════════════════════════════

// Aggregator computes Stats from sessions.
type Aggregator struct {
	config Config
}

// NewAggregator creates an Aggregator.
func NewAggregator(config Config) *Aggregator {
	return &Aggregator{config: config}
}

// Aggregate runs the default aggregator.
func Aggregate(sessions []study.Session, period shared.DateRange) Stats {
	return NewAggregator(DefaultConfig()).Aggregate(sessions, period)
}

// Aggregate filters sessions to period (both ends inclusive) and computes
// every statistic over the filtered set. Input order is insertion order.
func (a *Aggregator) Aggregate(sessions []study.Session, period shared.DateRange) Stats {
	filtered := Filter(sessions, period)

	stats := Stats{
		Period:          period,
		HasData:         len(filtered) > 0,
		Daily:           []DailyTotal{},
		Subjects:        []SubjectStats{},
		Trends:          []Trend{},
		Strengths:       []ChapterScore{},
		Weaknesses:      []ChapterScore{},
		RecentSessions:  study.Recent(filtered, a.config.RecentLimit),
		Recommendations: Recommend(filtered, a.config.MaxRecommendations),
	}
	if !stats.HasData {
		return stats
	}

	a.totals(&stats, filtered)
	stats.Daily = dailySeries(filtered)
	stats.Subjects = subjectBreakdown(filtered)
	stats.Trends = a.trends(filtered)
	stats.Strengths, stats.Weaknesses = a.chapterScores(filtered)
	stats.Details = details(filtered, stats.ActiveDays)
	stats.PerformanceSufficient = len(filtered) >= a.config.MinPerformanceSessions

	return stats
}

// Filter keeps the sessions whose date lies in period, preserving order.
func Filter(sessions []study.Session, period shared.DateRange) []study.Session {
	out := make([]study.Session, 0, len(sessions))
	for i := range sessions {
		if period.Contains(sessions[i].Date) {
			out = append(out, sessions[i])
		}
	}
	return out
}

// ─────────────────────────────────────────────────────────────────────────────
// Steps
// ─────────────────────────────────────────────────────────────────────────────

func (a *Aggregator) totals(stats *Stats, sessions []study.Session) {
	subjects := make(map[string]struct{})
	chapters := make(map[string]struct{})
	days := make(map[time.Time]struct{})
	confidenceSum := 0

	for i := range sessions {
		s := &sessions[i]
		stats.TotalMinutes += s.DurationMinutes.Int()
		confidenceSum += s.Confidence.Int()
		subjects[s.Subject] = struct{}{}
		chapters[s.Chapter] = struct{}{}
		days[s.Date] = struct{}{}
	}

	mean := float64(confidenceSum) / float64(len(sessions))
	stats.SessionCount = len(sessions)
	stats.MeanConfidence = &mean
	stats.UniqueSubjects = len(subjects)
	stats.UniqueChapters = len(chapters)
	stats.ActiveDays = len(days)
}

func dailySeries(sessions []study.Session) []DailyTotal {
	byDay := make(map[time.Time]int)
	for i := range sessions {
		byDay[sessions[i].Date] += sessions[i].DurationMinutes.Int()
	}

	out := make([]DailyTotal, 0, len(byDay))
	for d, m := range byDay {
		out = append(out, DailyTotal{Date: d, Minutes: m})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func subjectBreakdown(sessions []study.Session) []SubjectStats {
	groups := groupBySubject(sessions)

	out := make([]SubjectStats, 0, len(groups))
	for _, subject := range sortedKeys(groups) {
		group := groups[subject]
		ratings := make([]float64, len(group))
		total := 0
		for i := range group {
			total += group[i].DurationMinutes.Int()
			ratings[i] = float64(group[i].Confidence)
		}

		st := SubjectStats{
			Subject:        subject,
			TotalMinutes:   total,
			SessionCount:   len(group),
			MeanDuration:   float64(total) / float64(len(group)),
			MeanConfidence: mean(ratings),
		}
		if sd, ok := sampleStdDev(ratings); ok {
			st.ConfidenceStdDev = &sd
		}
		out = append(out, st)
	}
	return out
}

func (a *Aggregator) trends(sessions []study.Session) []Trend {
	groups := groupBySubject(sessions)

	out := make([]Trend, 0, len(groups))
	for _, subject := range sortedKeys(groups) {
		group := groups[subject]
		if len(group) < a.config.MinTrendSessions {
			continue
		}

		ordered := make([]study.Session, len(group))
		copy(ordered, group)
		sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Date.Before(ordered[j].Date) })

		k := len(ordered) / 3
		early := meanConfidence(ordered[:k])
		late := meanConfidence(ordered[len(ordered)-k:])
		delta := late - early

		direction := TrendStable
		switch {
		case delta > a.config.TrendThreshold:
			direction = TrendImproving
		case delta < -a.config.TrendThreshold:
			direction = TrendDeclining
		}

		out = append(out, Trend{
			Subject:           subject,
			Direction:         direction,
			Delta:             delta,
			CurrentConfidence: late,
		})
	}
	return out
}

type chapterKey struct {
	subject string
	chapter string
}

func (a *Aggregator) chapterScores(sessions []study.Session) (strengths, weaknesses []ChapterScore) {
	sums := make(map[chapterKey]int)
	counts := make(map[chapterKey]int)
	for i := range sessions {
		k := chapterKey{sessions[i].Subject, sessions[i].Chapter}
		sums[k] += sessions[i].Confidence.Int()
		counts[k]++
	}

	scores := make([]ChapterScore, 0, len(sums))
	for k, sum := range sums {
		scores = append(scores, ChapterScore{
			Subject:        k.subject,
			Chapter:        k.chapter,
			MeanConfidence: float64(sum) / float64(counts[k]),
			SessionCount:   counts[k],
		})
	}

	byName := func(x, y ChapterScore) bool {
		if x.Subject != y.Subject {
			return x.Subject < y.Subject
		}
		return x.Chapter < y.Chapter
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].MeanConfidence != scores[j].MeanConfidence {
			return scores[i].MeanConfidence > scores[j].MeanConfidence
		}
		return byName(scores[i], scores[j])
	})
	n := min(a.config.TopChapters, len(scores))
	strengths = append([]ChapterScore{}, scores[:n]...)

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].MeanConfidence != scores[j].MeanConfidence {
			return scores[i].MeanConfidence < scores[j].MeanConfidence
		}
		return byName(scores[i], scores[j])
	})
	weaknesses = []ChapterScore{}
	for _, s := range scores[:n] {
		if s.MeanConfidence < a.config.WeaknessCeiling {
			weaknesses = append(weaknesses, s)
		}
	}
	return strengths, weaknesses
}

func details(sessions []study.Session, activeDays int) *Details {
	total := 0
	longest, shortest := 0, math.MaxInt
	counts := make(map[shared.Confidence]int)

	for i := range sessions {
		d := sessions[i].DurationMinutes.Int()
		total += d
		longest = max(longest, d)
		shortest = min(shortest, d)
		counts[sessions[i].Confidence]++
	}

	det := &Details{
		DailyAverageMinutes: float64(total) / float64(activeDays),
		MeanSessionMinutes:  float64(total) / float64(len(sessions)),
		LongestSession:      longest,
		ShortestSession:     shortest,
		Distribution:        []ConfidenceBucket{},
	}
	for r := shared.MinConfidence; r <= shared.MaxConfidence; r++ {
		c, ok := counts[r]
		if !ok {
			continue
		}
		det.Distribution = append(det.Distribution, ConfidenceBucket{
			Rating:  r,
			Count:   c,
			Percent: float64(c) * 100 / float64(len(sessions)),
		})
	}
	return det
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func groupBySubject(sessions []study.Session) map[string][]study.Session {
	groups := make(map[string][]study.Session)
	for i := range sessions {
		groups[sessions[i].Subject] = append(groups[sessions[i].Subject], sessions[i])
	}
	return groups
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func meanConfidence(sessions []study.Session) float64 {
	if len(sessions) == 0 {
		return 0
	}
	sum := 0
	for i := range sessions {
		sum += sessions[i].Confidence.Int()
	}
	return float64(sum) / float64(len(sessions))
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func sampleStdDev(xs []float64) (float64, bool) {
	if len(xs) < 2 {
		return 0, false
	}
	m := mean(xs)
	ss := 0.0
	for _, x := range xs {
		ss += (x - m) * (x - m)
	}
	return math.Sqrt(ss / float64(len(xs)-1)), true
}
