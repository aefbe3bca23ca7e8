package study

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var today = time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)

func day(offset int) time.Time {
	return today.AddDate(0, 0, offset)
}

func sessionsOn(offsets ...int) []Session {
	out := make([]Session, 0, len(offsets))
	for _, o := range offsets {
		out = append(out, Session{Date: day(o), Subject: "Math", Chapter: "Algebra", DurationMinutes: 30, Confidence: 3})
	}
	return out
}

func TestComputeStreak(t *testing.T) {
	tests := []struct {
		name    string
		offsets []int
		want    int
	}{
		{name: "empty", want: 0},
		{name: "only today", offsets: []int{0}, want: 1},
		{name: "only yesterday", offsets: []int{-1}, want: 1},
		{name: "stale", offsets: []int{-2}, want: 0},
		{name: "gap after three days", offsets: []int{0, -1, -2, -4}, want: 3},
		{name: "run ending yesterday", offsets: []int{-1, -2, -3}, want: 3},
		{name: "unordered input", offsets: []int{-2, 0, -1}, want: 3},
		{name: "future dates ignored", offsets: []int{3, 1, 0}, want: 1},
		{name: "only future", offsets: []int{2}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeStreak(sessionsOn(tt.offsets...), today))
		})
	}
}

func TestComputeStreak_DuplicateDaysCountOnce(t *testing.T) {
	base := sessionsOn(0, -1, -2, -4)
	dup := append(sessionsOn(0, 0, -1), base...)

	assert.Equal(t, ComputeStreak(base, today), ComputeStreak(dup, today))
}

func TestComputeStreak_IgnoresTimeOfDay(t *testing.T) {
	s := sessionsOn(0)
	s[0].Date = today.Add(23 * time.Hour)

	assert.Equal(t, 1, ComputeStreak(s, today.Add(5*time.Hour)))
}

func TestLongestStreak(t *testing.T) {
	assert.Equal(t, 0, LongestStreak(nil))
	assert.Equal(t, 1, LongestStreak(sessionsOn(-10)))
	assert.Equal(t, 4, LongestStreak(sessionsOn(-20, -19, -18, -17, -5, -4, 0)))
	assert.Equal(t, 2, LongestStreak(sessionsOn(-3, -3, -2, -7)))
}

func TestAnalyzeStreak(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		s := AnalyzeStreak(nil, today)
		assert.Equal(t, StreakNone, s.Status)
		assert.Zero(t, s.Current)
	})

	t.Run("active", func(t *testing.T) {
		s := AnalyzeStreak(sessionsOn(0, -1, -5, -6, -7), today)
		assert.Equal(t, StreakActive, s.Status)
		assert.Equal(t, 2, s.Current)
		assert.Equal(t, 3, s.Best)
		assert.Equal(t, day(-1), s.StartDate)
		assert.Equal(t, today, s.LastActiveDate)
	})

	t.Run("at risk", func(t *testing.T) {
		s := AnalyzeStreak(sessionsOn(-1), today)
		assert.Equal(t, StreakAtRisk, s.Status)
		assert.Equal(t, 1, s.Current)
	})

	t.Run("broken", func(t *testing.T) {
		s := AnalyzeStreak(sessionsOn(-3, -4), today)
		assert.Equal(t, StreakBroken, s.Status)
		assert.Zero(t, s.Current)
		assert.True(t, s.StartDate.IsZero())
		assert.Equal(t, 2, s.Best)
	})
}
