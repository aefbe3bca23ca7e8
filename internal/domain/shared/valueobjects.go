package shared

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/elevate-hub/elevate/pkg/timeutil"
)

// ═══════════════════════════════════════════════════════════════════════════
// Username Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Username identifies an account. Comparison is case-sensitive.
type Username string

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)

// IsValid checks the allowed alphabet and length.
func (u Username) IsValid() bool {
	return usernameRegex.MatchString(string(u))
}

// String returns the string representation.
func (u Username) String() string {
	return string(u)
}

// NewUsername trims surrounding whitespace and validates the result.
func NewUsername(value string) (Username, error) {
	u := Username(strings.TrimSpace(value))
	if u == "" {
		return "", NewDomainError("account", "Validate", ErrEmptyValue, "username is required")
	}
	if !u.IsValid() {
		return "", ErrInvalidUsername
	}
	return u, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// XP Value Object (Experience Points)
// ═══════════════════════════════════════════════════════════════════════════

// XP represents experience points earned from study sessions.
// Totals are plain sums and are not capped.
type XP int

// MinXP is the lower bound of any XP value.
const MinXP XP = 0

// IsValid checks if the XP value is non-negative.
func (x XP) IsValid() bool {
	return x >= MinXP
}

// Int returns the underlying int value.
func (x XP) Int() int {
	return int(x)
}

// Add adds XP, flooring the result at MinXP.
func (x XP) Add(amount XP) XP {
	if r := x + amount; r > MinXP {
		return r
	}
	return MinXP
}

// Subtract subtracts XP, flooring the result at MinXP.
func (x XP) Subtract(amount XP) XP {
	return x.Add(-amount)
}

// Level returns the level reached with this much XP.
// Level L+1 needs 100*L more XP than level L, so the thresholds are
// 0, 100, 300, 600, 1000, ... and Level(0) == 1.
func (x XP) Level() Level {
	level := MinLevel
	for int(x) >= (level + 1).RequiredXP() {
		level++
	}
	return level
}

// ProgressToNextLevel returns percentage progress to next level (0-99).
func (x XP) ProgressToNextLevel() int {
	current := x.Level()
	into := int(x) - current.RequiredXP()
	span := (current + 1).RequiredXP() - current.RequiredXP()
	if span <= 0 {
		return 100
	}
	return into * 100 / span
}


// ═══════════════════════════════════════════════════════════════════════════
// Level Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Level represents a learner's level.
type Level int

// MinLevel is the level of a user with no XP.
const MinLevel Level = 1

// IsValid checks if the level is at least MinLevel.
func (l Level) IsValid() bool {
	return l >= MinLevel
}

// Int returns the underlying int value.
func (l Level) Int() int {
	return int(l)
}

// RequiredXP returns the total XP required to reach this level: 50*L*(L-1).
func (l Level) RequiredXP() int {
	if l <= MinLevel {
		return 0
	}
	n := int(l)
	return 50 * n * (n - 1)
}

// Title returns a human-readable title for the level.
func (l Level) Title() string {
	switch {
	case l < 3:
		return "Beginner"
	case l < 6:
		return "Apprentice"
	case l < 10:
		return "Scholar"
	case l < 15:
		return "Adept"
	case l < 25:
		return "Expert"
	default:
		return "Master"
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Confidence Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Confidence is a self-reported mastery score (1-5).
type Confidence int

const (
	MinConfidence Confidence = 1
	MaxConfidence Confidence = 5
)

// IsValid checks if the rating is within valid range.
func (c Confidence) IsValid() bool {
	return c >= MinConfidence && c <= MaxConfidence
}

// Int returns the underlying int value.
func (c Confidence) Int() int {
	return int(c)
}

// Stars renders the rating as filled and empty stars.
func (c Confidence) Stars() string {
	filled := int(c)
	if filled < 0 {
		filled = 0
	}
	if filled > int(MaxConfidence) {
		filled = int(MaxConfidence)
	}
	return strings.Repeat("★", filled) + strings.Repeat("☆", int(MaxConfidence)-filled)
}

// String returns "n/5".
func (c Confidence) String() string {
	return fmt.Sprintf("%d/%d", int(c), int(MaxConfidence))
}

// ═══════════════════════════════════════════════════════════════════════════
// Duration Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Minutes is the length of one study session.
type Minutes int

const (
	MinSessionMinutes Minutes = 1
	MaxSessionMinutes Minutes = 1440
)

// IsValid checks if the duration fits in one day.
func (m Minutes) IsValid() bool {
	return m >= MinSessionMinutes && m <= MaxSessionMinutes
}

// Int returns the underlying int value.
func (m Minutes) Int() int {
	return int(m)
}

// ═══════════════════════════════════════════════════════════════════════════
// DateRange Value Object
// ═══════════════════════════════════════════════════════════════════════════

// DateRange is an inclusive range of calendar dates (midnight UTC values).
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IsValid checks that Start is not after End.
func (r DateRange) IsValid() bool {
	return !r.Start.After(r.End)
}

// Contains checks whether the calendar date d lies in the range, bounds included.
func (r DateRange) Contains(d time.Time) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Days returns the number of calendar days covered, both ends included.
func (r DateRange) Days() int {
	if !r.IsValid() {
		return 0
	}
	return timeutil.DaysBetween(r.Start, r.End) + 1
}

// String renders the range as "YYYY-MM-DD..YYYY-MM-DD".
func (r DateRange) String() string {
	return r.Start.Format("2006-01-02") + ".." + r.End.Format("2006-01-02")
}

// LastNDays returns [today-n, today].
func LastNDays(today time.Time, n int) DateRange {
	return DateRange{Start: timeutil.AddDays(today, -n), End: today}
}
