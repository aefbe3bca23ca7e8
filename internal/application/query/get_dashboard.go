// Package query contains read operations (CQRS - Queries).
//
// Read paths never fail on a missing or unreadable history: they log a
// warning and answer as if the user had no sessions.
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/elevate-hub/elevate/internal/domain/report"
	"github.com/elevate-hub/elevate/internal/domain/shared"
	"github.com/elevate-hub/elevate/internal/domain/study"
	"github.com/elevate-hub/elevate/pkg/logger"
	"github.com/elevate-hub/elevate/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET DASHBOARD QUERY
// The landing view after login: totals, streak, XP progress, recent
// sessions and where the time went.
// ══════════════════════════════════════════════════════════════════════════════

// DashboardRecentLimit is how many sessions the dashboard lists.
const DashboardRecentLimit = 5

// DashboardCache stores computed dashboards per user and day. Misses and
// failures both report false.
type DashboardCache interface {
	Get(ctx context.Context, username, day string, dest any) bool
	Set(ctx context.Context, username, day string, value any)
}

// GetDashboardQuery names the user.
type GetDashboardQuery struct {
	Username string
}

// DashboardDTO is the dashboard view model.
type DashboardDTO struct {
	Username string    `json:"username"`
	Day      time.Time `json:"day"`
	HasData  bool      `json:"has_data"`

	// ─────────────────────────────────────────────────────────────────────────
	// Totals
	// ─────────────────────────────────────────────────────────────────────────

	TotalMinutes   int      `json:"total_minutes"`
	SessionCount   int      `json:"session_count"`
	MeanConfidence *float64 `json:"mean_confidence,omitempty"`

	// ─────────────────────────────────────────────────────────────────────────
	// Gamification
	// ─────────────────────────────────────────────────────────────────────────

	Streak   study.Streak   `json:"streak"`
	Progress study.Progress `json:"progress"`

	// ─────────────────────────────────────────────────────────────────────────
	// Breakdown
	// ─────────────────────────────────────────────────────────────────────────

	Recent   []study.Session     `json:"recent"`
	Subjects []SubjectShareDTO   `json:"subjects"`
	Daily    []report.DailyTotal `json:"daily"`
	Profile  ProfileDTO          `json:"profile"`
}

// SubjectShareDTO is one slice of the time distribution.
type SubjectShareDTO struct {
	Subject string  `json:"subject"`
	Minutes int     `json:"minutes"`
	Percent float64 `json:"percent"`
}

// ProfileDTO summarises the user's history.
type ProfileDTO struct {
	// MemberSince is the date of the first session, nil without sessions.
	MemberSince *time.Time `json:"member_since,omitempty"`
	// DaysTracked counts calendar days from MemberSince to today, both included.
	DaysTracked   int `json:"days_tracked"`
	TotalSessions int `json:"total_sessions"`
	TotalMinutes  int `json:"total_minutes"`
}

// GetDashboardHandler handles GetDashboardQuery.
type GetDashboardHandler struct {
	sessions study.Repository
	policy   study.XPPolicy
	clock    timeutil.Clock
	cache    DashboardCache
}

// NewGetDashboardHandler creates a GetDashboardHandler. cache may be nil.
func NewGetDashboardHandler(sessions study.Repository, policy study.XPPolicy, clock timeutil.Clock, cache DashboardCache) *GetDashboardHandler {
	return &GetDashboardHandler{sessions: sessions, policy: policy, clock: clock, cache: cache}
}

// Handle returns the dashboard for today.
func (h *GetDashboardHandler) Handle(ctx context.Context, q GetDashboardQuery) (*DashboardDTO, error) {
	username, err := shared.NewUsername(q.Username)
	if err != nil {
		return nil, fmt.Errorf("get_dashboard: validation failed: %w", err)
	}

	today := timeutil.Today(h.clock)
	day := timeutil.FormatDateStr(today)

	if h.cache != nil {
		var cached DashboardDTO
		if h.cache.Get(ctx, username.String(), day, &cached) {
			return &cached, nil
		}
	}

	sessions, ok := loadSessions(ctx, h.sessions, username, "get_dashboard")
	dto := BuildDashboard(username.String(), sessions, today, h.policy)

	// A degraded answer is not cached so the next call retries storage.
	if h.cache != nil && ok {
		h.cache.Set(ctx, username.String(), day, dto)
	}
	return dto, nil
}

// BuildDashboard computes the dashboard from a full history.
func BuildDashboard(username string, sessions []study.Session, today time.Time, policy study.XPPolicy) *DashboardDTO {
	stats := report.NewAggregator(report.DefaultConfig()).Aggregate(sessions, historyRange(sessions, today))
	total := study.TotalMinutes(sessions)

	dto := &DashboardDTO{
		Username:       username,
		Day:            today,
		HasData:        len(sessions) > 0,
		TotalMinutes:   total,
		SessionCount:   len(sessions),
		MeanConfidence: stats.MeanConfidence,
		Streak:         study.AnalyzeStreak(sessions, today),
		Progress:       study.ProgressFor(policy.TotalXP(sessions)),
		Recent:         study.Recent(sessions, DashboardRecentLimit),
		Subjects:       make([]SubjectShareDTO, 0, len(stats.Subjects)),
		Daily:          stats.Daily,
		Profile: ProfileDTO{
			TotalSessions: len(sessions),
			TotalMinutes:  total,
		},
	}
	if first, ok := study.FirstDate(sessions); ok {
		dto.Profile.MemberSince = &first
		if span := timeutil.DayDiff(first, today); span >= 0 {
			dto.Profile.DaysTracked = span + 1
		}
	}

	for _, s := range stats.Subjects {
		share := SubjectShareDTO{Subject: s.Subject, Minutes: s.TotalMinutes}
		if stats.TotalMinutes > 0 {
			share.Percent = float64(s.TotalMinutes) * 100 / float64(stats.TotalMinutes)
		}
		dto.Subjects = append(dto.Subjects, share)
	}
	return dto
}

// historyRange spans every session date and today.
func historyRange(sessions []study.Session, today time.Time) shared.DateRange {
	r := shared.DateRange{Start: today, End: today}
	for i := range sessions {
		if d := sessions[i].Date; d.Before(r.Start) {
			r.Start = d
		} else if d.After(r.End) {
			r.End = d
		}
	}
	return r
}

// loadSessions reads a history and degrades to empty on failure. The
// boolean reports whether the read succeeded.
func loadSessions(ctx context.Context, repo study.Repository, username shared.Username, op string) ([]study.Session, bool) {
	sessions, err := repo.ListByUser(ctx, username)
	if err != nil {
		msg := "reading sessions failed, continuing without data"
		if shared.IsCorrupted(err) {
			msg = "stored sessions are corrupted, continuing without data"
		}
		logger.FromContext(ctx).Warn(msg,
			logger.Operation(op),
			logger.Username(username.String()),
			logger.Err(err),
		)
		return []study.Session{}, false
	}
	return sessions, true
}
