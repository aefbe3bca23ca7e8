package cli

import (
	"fmt"
	"strings"

	"github.com/elevate-hub/elevate/internal/application/command"
	"github.com/elevate-hub/elevate/internal/application/query"
	"github.com/elevate-hub/elevate/internal/domain/report"
	"github.com/elevate-hub/elevate/internal/domain/study"
	"github.com/elevate-hub/elevate/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PRESENTER
// Plain-text views for the terminal. Every function is pure so the output
// can be asserted in tests.
// ══════════════════════════════════════════════════════════════════════════════

const progressBarWidth = 20

func banner(title string) string {
	return fmt.Sprintf("═══ %s ═══\n", title)
}

// progressBar renders percent (0..100) as a fixed-width bar.
func progressBar(percent int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent * progressBarWidth / 100
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", progressBarWidth-filled) + "]"
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func streakLine(s study.Streak) string {
	var hint string
	switch s.Status {
	case study.StreakActive:
		hint = "studied today"
	case study.StreakAtRisk:
		hint = "study today to keep it"
	case study.StreakBroken:
		hint = "start a new one today"
	default:
		hint = "no sessions yet"
	}
	return fmt.Sprintf("%s (best %s) - %s", pluralDays(s.Current), pluralDays(s.Best), hint)
}

func sessionLine(s study.Session) string {
	return fmt.Sprintf("  %s  %s / %s  %s  %s",
		timeutil.FormatDateStr(s.Date),
		s.Subject,
		s.Chapter,
		timeutil.FormatMinutes(float64(s.DurationMinutes)),
		s.Confidence.Stars(),
	)
}

// ─────────────────────────────────────────────────────────────────────────────
// Dashboard
// ─────────────────────────────────────────────────────────────────────────────

// FormatDashboard renders the landing view.
func FormatDashboard(d *query.DashboardDTO) string {
	var sb strings.Builder
	sb.WriteString(banner(fmt.Sprintf("Dashboard: %s (%s)", d.Username, d.Day.Format(timeutil.FormatHumanDate))))

	if !d.HasData {
		sb.WriteString("No study sessions yet. Use 'log' to record your first one.\n")
		return sb.String()
	}

	p := d.Progress
	fmt.Fprintf(&sb, "Total study time : %s\n", timeutil.FormatMinutes(float64(d.TotalMinutes)))
	fmt.Fprintf(&sb, "Sessions         : %d\n", d.SessionCount)
	if d.MeanConfidence != nil {
		fmt.Fprintf(&sb, "Mean confidence  : %.1f/5\n", *d.MeanConfidence)
	}
	fmt.Fprintf(&sb, "Streak           : %s\n", streakLine(d.Streak))
	if !d.Streak.LastActiveDate.IsZero() {
		fmt.Fprintf(&sb, "Last studied     : %s\n", timeutil.FormatRelativeDay(d.Streak.LastActiveDate, d.Day))
	}
	fmt.Fprintf(&sb, "Level %d %-10s : %d XP %s %d%% (%d/%d XP to level %d)\n",
		p.Level.Int(), p.Title, p.TotalXP.Int(), progressBar(p.Percent), p.Percent,
		p.XPIntoLevel, p.XPForNextLevel, p.Level.Int()+1)
	if d.Profile.MemberSince != nil {
		fmt.Fprintf(&sb, "Member since     : %s (%s tracked)\n",
			d.Profile.MemberSince.Format(timeutil.FormatHumanDate), pluralDays(d.Profile.DaysTracked))
	}

	if len(d.Subjects) > 0 {
		sb.WriteString("\nTime by subject\n")
		for _, s := range d.Subjects {
			fmt.Fprintf(&sb, "  %-20s %8s %6.1f%%\n", s.Subject, timeutil.FormatMinutes(float64(s.Minutes)), s.Percent)
		}
	}

	if len(d.Recent) > 0 {
		sb.WriteString("\nRecent sessions\n")
		for _, s := range d.Recent {
			sb.WriteString(sessionLine(s))
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// ─────────────────────────────────────────────────────────────────────────────
// Log session
// ─────────────────────────────────────────────────────────────────────────────

// FormatLogResult summarises a freshly logged session.
func FormatLogResult(r *command.LogSessionResult) string {
	var sb strings.Builder
	s := r.Session
	fmt.Fprintf(&sb, "Session logged: %s / %s, %s, confidence %s\n",
		s.Subject, s.Chapter, timeutil.FormatMinutes(float64(s.DurationMinutes)), s.Confidence)
	fmt.Fprintf(&sb, "+%d XP (total %d XP, level %d)\n", r.XPGained.Int(), r.TotalXP.Int(), r.Level.Int())
	if r.LevelUp != nil {
		fmt.Fprintf(&sb, "LEVEL UP! You reached level %d (%s).\n", r.LevelUp.To.Int(), r.LevelUp.To.Title())
	}
	fmt.Fprintf(&sb, "Streak: %s\n", pluralDays(r.Streak.Current))
	return sb.String()
}

// ─────────────────────────────────────────────────────────────────────────────
// Report
// ─────────────────────────────────────────────────────────────────────────────

func trendMark(d report.TrendDirection) string {
	switch d {
	case report.TrendImproving:
		return "(+)"
	case report.TrendDeclining:
		return "(-)"
	default:
		return "(=)"
	}
}

// FormatReport renders the period statistics.
func FormatReport(r *query.ReportDTO) string {
	var sb strings.Builder
	st := r.Stats
	sb.WriteString(banner(fmt.Sprintf("Report: %s (%s to %s)", r.Period,
		timeutil.FormatDateStr(r.Range.Start), timeutil.FormatDateStr(r.Range.End))))

	if !st.HasData {
		sb.WriteString("No study data available for this period.\n")
	} else {
		fmt.Fprintf(&sb, "Total study time : %s\n", timeutil.FormatMinutes(float64(st.TotalMinutes)))
		fmt.Fprintf(&sb, "Sessions         : %d\n", st.SessionCount)
		if st.MeanConfidence != nil {
			fmt.Fprintf(&sb, "Mean confidence  : %.1f/5\n", *st.MeanConfidence)
		}
		fmt.Fprintf(&sb, "Active days      : %d\n", st.ActiveDays)
		fmt.Fprintf(&sb, "Subjects         : %d (%d chapters)\n", st.UniqueSubjects, st.UniqueChapters)

		sb.WriteString("\nSubjects\n")
		for _, s := range st.Subjects {
			fmt.Fprintf(&sb, "  %-20s %8s  %d sessions  avg confidence %.1f\n",
				s.Subject, timeutil.FormatMinutes(float64(s.TotalMinutes)), s.SessionCount, s.MeanConfidence)
		}

		if st.PerformanceSufficient && len(st.Trends) > 0 {
			sb.WriteString("\nConfidence trends\n")
			for _, t := range st.Trends {
				fmt.Fprintf(&sb, "  %s %s %s %+.2f\n", trendMark(t.Direction), t.Subject, t.Direction, t.Delta)
			}
		}
		if len(st.Weaknesses) > 0 {
			sb.WriteString("\nAreas needing attention\n")
			for _, w := range st.Weaknesses {
				fmt.Fprintf(&sb, "  %s / %s  %.1f/5\n", w.Subject, w.Chapter, w.MeanConfidence)
			}
		}
	}

	sb.WriteString("\nRecommendations\n")
	for i, rec := range st.Recommendations {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, rec)
	}
	return sb.String()
}

// ─────────────────────────────────────────────────────────────────────────────
// Weaknesses
// ─────────────────────────────────────────────────────────────────────────────

// FormatWeaknesses renders a weakness analysis.
func FormatWeaknesses(a *report.WeaknessAnalysis) string {
	var sb strings.Builder
	sb.WriteString(banner(fmt.Sprintf("Weakness analysis (%d sessions)", a.SessionCount)))

	if len(a.Weaknesses) == 0 {
		sb.WriteString("No weak chapters found. Keep it up!\n")
	} else {
		sb.WriteString("Chapters to review\n")
		for _, w := range a.Weaknesses {
			fmt.Fprintf(&sb, "  %s / %s  %.1f/5 over %d sessions\n", w.Subject, w.Chapter, w.MeanConfidence, w.SessionCount)
		}
	}
	if len(a.LowSubjects) > 0 {
		fmt.Fprintf(&sb, "Low-confidence subjects: %s\n", strings.Join(a.LowSubjects, ", "))
	}

	sb.WriteString("\nRecommendations\n")
	for i, rec := range a.Recommendations {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, rec)
	}
	return sb.String()
}
