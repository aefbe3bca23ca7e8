package report

import (
	"strings"
	"time"

	"github.com/elevate-hub/elevate/internal/domain/shared"
	"github.com/elevate-hub/elevate/internal/domain/study"
	"github.com/elevate-hub/elevate/pkg/timeutil"
)

// Period is a named reporting window.
type Period string

const (
	PeriodLast7Days  Period = "Last 7 days"
	PeriodLast30Days Period = "Last 30 days"
	PeriodLast90Days Period = "Last 90 days"
	PeriodAllTime    Period = "All time"
)

// Periods lists the supported periods in menu order.
func Periods() []Period {
	return []Period{PeriodLast7Days, PeriodLast30Days, PeriodLast90Days, PeriodAllTime}
}

var periodAliases = map[string]Period{
	"7":   PeriodLast7Days,
	"7d":  PeriodLast7Days,
	"30":  PeriodLast30Days,
	"30d": PeriodLast30Days,
	"90":  PeriodLast90Days,
	"90d": PeriodLast90Days,
	"all": PeriodAllTime,
}

// ParsePeriod accepts a period label (any case) or a short alias such as
// "7d" or "all".
func ParsePeriod(s string) (Period, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if p, ok := periodAliases[key]; ok {
		return p, nil
	}
	for _, p := range Periods() {
		if strings.ToLower(string(p)) == key {
			return p, nil
		}
	}
	return "", shared.ErrUnknownPeriod
}

// String returns the display label.
func (p Period) String() string {
	return string(p)
}

// Slug returns the label with spaces replaced by underscores, for file names.
func (p Period) Slug() string {
	return strings.ReplaceAll(string(p), " ", "_")
}

// lookback returns the number of days a fixed window reaches back.
func (p Period) lookback() (int, bool) {
	switch p {
	case PeriodLast7Days:
		return 7, true
	case PeriodLast30Days:
		return 30, true
	case PeriodLast90Days:
		return 90, true
	default:
		return 0, false
	}
}

// Range resolves the period against today. Fixed windows span
// [today-N, today]. All time starts at the earliest session date, or today
// when there is none.
func (p Period) Range(today time.Time, sessions []study.Session) (shared.DateRange, error) {
	today = timeutil.DateOf(today)

	if n, ok := p.lookback(); ok {
		return shared.LastNDays(today, n), nil
	}
	if p != PeriodAllTime {
		return shared.DateRange{}, shared.ErrUnknownPeriod
	}

	start := today
	if first, ok := study.FirstDate(sessions); ok && first.Before(today) {
		start = first
	}
	return shared.DateRange{Start: start, End: today}, nil
}
