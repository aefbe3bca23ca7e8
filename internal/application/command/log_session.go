package command

import (
	"context"
	"fmt"
	"time"

	"github.com/elevate-hub/elevate/internal/domain/shared"
	"github.com/elevate-hub/elevate/internal/domain/study"
	"github.com/elevate-hub/elevate/pkg/logger"
	"github.com/elevate-hub/elevate/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// LOG SESSION COMMAND
// Appends a study session and reports the gamified outcome: XP earned,
// a level-up if one happened, and the streak after the append.
// ══════════════════════════════════════════════════════════════════════════════

// DashboardInvalidator drops cached dashboards of a user.
type DashboardInvalidator interface {
	Invalidate(ctx context.Context, username string)
}

// LogSessionCommand contains the session form.
type LogSessionCommand struct {
	Username string

	// Date defaults to today when zero.
	Date time.Time

	Subject         string
	Chapter         string
	DurationMinutes int
	Confidence      int
	Notes           string
}

// LogSessionResult is the outcome of a logged session.
type LogSessionResult struct {
	Session study.Session

	XPGained shared.XP
	TotalXP  shared.XP
	Level    shared.Level

	// LevelUp is nil unless the session crossed a level threshold.
	LevelUp *study.LevelUp

	Streak study.Streak
}

// LogSessionHandler handles LogSessionCommand.
type LogSessionHandler struct {
	sessions study.Repository
	policy   study.XPPolicy
	clock    timeutil.Clock
	cache    DashboardInvalidator
}

// NewLogSessionHandler creates a LogSessionHandler. cache may be nil.
func NewLogSessionHandler(
	sessions study.Repository,
	policy study.XPPolicy,
	clock timeutil.Clock,
	cache DashboardInvalidator,
) *LogSessionHandler {
	return &LogSessionHandler{
		sessions: sessions,
		policy:   policy,
		clock:    clock,
		cache:    cache,
	}
}

// Handle validates and stores the session.
func (h *LogSessionHandler) Handle(ctx context.Context, cmd LogSessionCommand) (*LogSessionResult, error) {
	username, err := shared.NewUsername(cmd.Username)
	if err != nil {
		return nil, fmt.Errorf("log_session: validation failed: %w", err)
	}

	today := timeutil.Today(h.clock)
	date := cmd.Date
	if date.IsZero() {
		date = today
	}

	session, err := study.NewSession(study.NewSessionParams{
		Date:            date,
		Subject:         cmd.Subject,
		Chapter:         cmd.Chapter,
		DurationMinutes: cmd.DurationMinutes,
		Confidence:      cmd.Confidence,
		Notes:           cmd.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("log_session: validation failed: %w", err)
	}

	stored, err := h.sessions.Append(ctx, username, session)
	if err != nil {
		return nil, fmt.Errorf("log_session: append: %w", err)
	}

	if h.cache != nil {
		h.cache.Invalidate(ctx, username.String())
	}

	log := logger.FromContext(ctx).With(
		logger.Username(username.String()),
		logger.Subject(stored.Subject),
		logger.Chapter(stored.Chapter),
	)

	gained := h.policy.XPFor(*stored)
	result := &LogSessionResult{Session: *stored, XPGained: gained}

	// The outcome is computed from a fresh read so that concurrent appends
	// are counted. The session is already stored, so a failed read only
	// costs the summary.
	all, err := h.sessions.ListByUser(ctx, username)
	if err != nil {
		log.Warn("reading history after append failed", logger.Err(err))
		all = []study.Session{*stored}
	}

	result.TotalXP = h.policy.TotalXP(all)
	result.Level = study.LevelFor(result.TotalXP)
	if up, ok := study.DetectLevelUp(result.TotalXP, gained); ok {
		result.LevelUp = &up
	}
	result.Streak = study.AnalyzeStreak(all, today)

	log.Info("study session logged",
		logger.XPAmount(gained.Int()),
		logger.LevelField(result.Level.Int()),
		logger.StreakDays(result.Streak.Current),
	)
	if result.LevelUp != nil {
		log.Info("level up", logger.LevelField(result.LevelUp.To.Int()))
	}
	return result, nil
}
