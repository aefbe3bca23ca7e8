package study

import (
	"github.com/elevate-hub/elevate/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// XP POLICY
// ══════════════════════════════════════════════════════════════════════════════

// XPPolicy turns sessions into experience points.
// XP per session = duration * BasePerMinute * Multipliers[confidence-1] / 100.
type XPPolicy struct {
	BasePerMinute int

	// Multipliers are percentages indexed by confidence 1..5.
	Multipliers [5]int
}

// DefaultXPPolicy returns 1 XP per minute, scaled 100%..200% by confidence.
func DefaultXPPolicy() XPPolicy {
	return XPPolicy{
		BasePerMinute: 1,
		Multipliers:   [5]int{100, 120, 150, 180, 200},
	}
}

// NewXPPolicy returns a validated policy. Multipliers must be positive and
// non-decreasing so that XP never drops when confidence rises.
func NewXPPolicy(basePerMinute int, multipliers [5]int) (XPPolicy, error) {
	p := XPPolicy{BasePerMinute: basePerMinute, Multipliers: multipliers}
	if err := p.Validate(); err != nil {
		return XPPolicy{}, err
	}
	return p, nil
}

// Validate checks the policy invariants.
func (p XPPolicy) Validate() error {
	if p.BasePerMinute <= 0 {
		return shared.ErrInvalidXPPolicy
	}
	for i, m := range p.Multipliers {
		if m <= 0 || (i > 0 && m < p.Multipliers[i-1]) {
			return shared.ErrInvalidXPPolicy
		}
	}
	return nil
}

// SessionXP returns the XP earned by a single session. Out-of-range inputs
// are clamped.
func (p XPPolicy) SessionXP(duration shared.Minutes, confidence shared.Confidence) shared.XP {
	if duration <= 0 {
		return 0
	}
	if confidence < shared.MinConfidence {
		confidence = shared.MinConfidence
	}
	if confidence > shared.MaxConfidence {
		confidence = shared.MaxConfidence
	}
	mult := p.Multipliers[confidence-1]
	return shared.XP(duration.Int() * p.BasePerMinute * mult / 100)
}

// XPFor returns the XP of one stored session.
func (p XPPolicy) XPFor(s Session) shared.XP {
	return p.SessionXP(s.DurationMinutes, s.Confidence)
}

// TotalXP sums SessionXP over sessions.
func (p XPPolicy) TotalXP(sessions []Session) shared.XP {
	var total shared.XP
	for i := range sessions {
		total += p.XPFor(sessions[i])
	}
	return total
}

// ══════════════════════════════════════════════════════════════════════════════
// LEVELS
// ══════════════════════════════════════════════════════════════════════════════

// LevelFor returns the level reached with total XP.
func LevelFor(total shared.XP) shared.Level {
	return total.Level()
}

// LevelUp describes a level change caused by new XP.
type LevelUp struct {
	From shared.Level
	To   shared.Level
}

// Levels returns how many levels were gained.
func (l LevelUp) Levels() int {
	return int(l.To - l.From)
}

// DetectLevelUp compares the level before and after gaining XP. When several
// thresholds are crossed at once it reports a single event with the final
// level.
func DetectLevelUp(totalAfter, gained shared.XP) (LevelUp, bool) {
	before := totalAfter.Subtract(gained)
	up := LevelUp{From: before.Level(), To: totalAfter.Level()}
	return up, up.To > up.From
}

// Progress describes where a total sits on the level curve.
type Progress struct {
	TotalXP        shared.XP
	Level          shared.Level
	Title          string
	XPIntoLevel    int
	XPForNextLevel int
	Percent        int
}

// ProgressFor computes the level progress for total XP.
func ProgressFor(total shared.XP) Progress {
	level := total.Level()
	floor := level.RequiredXP()
	next := (level + 1).RequiredXP()
	return Progress{
		TotalXP:        total,
		Level:          level,
		Title:          level.Title(),
		XPIntoLevel:    total.Int() - floor,
		XPForNextLevel: next - floor,
		Percent:        total.ProgressToNextLevel(),
	}
}
