package study

import (
	"strings"
	"time"

	"github.com/elevate-hub/elevate/internal/domain/shared"
	"github.com/elevate-hub/elevate/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION ENTITY
// ══════════════════════════════════════════════════════════════════════════════

// Session is one logged study session.
type Session struct {
	// ID is assigned by stores that keep row identities. Empty otherwise.
	ID string

	// Date is the calendar day the session happened on (midnight UTC).
	Date time.Time

	Subject string
	Chapter string

	DurationMinutes shared.Minutes
	Confidence      shared.Confidence

	// Notes are free text and may be empty.
	Notes string

	// Timestamp is set by the store on append. It strictly increases per
	// user in insertion order.
	Timestamp time.Time
}

// NewSessionParams holds the user-supplied fields of a session.
type NewSessionParams struct {
	Date            time.Time
	Subject         string
	Chapter         string
	DurationMinutes int
	Confidence      int
	Notes           string
}

// NewSession builds a validated Session. Text fields are trimmed and the
// date is truncated to its calendar day. Timestamp is left zero.
func NewSession(p NewSessionParams) (*Session, error) {
	s := &Session{
		Date:            timeutil.DateOf(p.Date),
		Subject:         strings.TrimSpace(p.Subject),
		Chapter:         strings.TrimSpace(p.Chapter),
		DurationMinutes: shared.Minutes(p.DurationMinutes),
		Confidence:      shared.Confidence(p.Confidence),
		Notes:           strings.TrimSpace(p.Notes),
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks every invariant of a stored session except Timestamp.
func (s *Session) Validate() error {
	if s.Date.IsZero() {
		return shared.ErrDateRequired
	}
	if strings.TrimSpace(s.Subject) == "" {
		return shared.ErrSubjectRequired
	}
	if strings.TrimSpace(s.Chapter) == "" {
		return shared.ErrChapterRequired
	}
	if !s.DurationMinutes.IsValid() {
		return shared.ErrInvalidDuration
	}
	if !s.Confidence.IsValid() {
		return shared.ErrInvalidConfidence
	}
	return nil
}

// Stamped returns a copy of s with the given timestamp.
func (s Session) Stamped(ts time.Time) Session {
	s.Timestamp = ts
	return s
}

// NextTimestamp returns the timestamp for a new append: now, or one
// microsecond after last when the clock has not moved past it.
func NextTimestamp(now, last time.Time) time.Time {
	now = now.UTC().Truncate(time.Microsecond)
	if last.IsZero() {
		return now
	}
	if floor := last.UTC().Truncate(time.Microsecond).Add(time.Microsecond); now.Before(floor) {
		return floor
	}
	return now
}

// LastTimestamp returns the greatest timestamp in sessions.
func LastTimestamp(sessions []Session) time.Time {
	var last time.Time
	for i := range sessions {
		if sessions[i].Timestamp.After(last) {
			last = sessions[i].Timestamp
		}
	}
	return last
}

// ══════════════════════════════════════════════════════════════════════════════
// SESSION SET HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// TotalMinutes sums the durations of sessions.
func TotalMinutes(sessions []Session) int {
	total := 0
	for i := range sessions {
		total += sessions[i].DurationMinutes.Int()
	}
	return total
}

// FirstDate returns the earliest session date, or false when empty.
func FirstDate(sessions []Session) (time.Time, bool) {
	if len(sessions) == 0 {
		return time.Time{}, false
	}
	first := sessions[0].Date
	for i := 1; i < len(sessions); i++ {
		if sessions[i].Date.Before(first) {
			first = sessions[i].Date
		}
	}
	return first, true
}

// Recent returns the last n sessions in insertion order.
func Recent(sessions []Session, n int) []Session {
	if n <= 0 || len(sessions) == 0 {
		return []Session{}
	}
	if len(sessions) <= n {
		out := make([]Session, len(sessions))
		copy(out, sessions)
		return out
	}
	out := make([]Session, n)
	copy(out, sessions[len(sessions)-n:])
	return out
}
