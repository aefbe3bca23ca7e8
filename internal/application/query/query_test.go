package query

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elevate-hub/elevate/internal/domain/account"
	"github.com/elevate-hub/elevate/internal/domain/report"
	"github.com/elevate-hub/elevate/internal/domain/shared"
	"github.com/elevate-hub/elevate/internal/domain/study"
	"github.com/elevate-hub/elevate/pkg/logger"
	"github.com/elevate-hub/elevate/pkg/timeutil"
)

var (
	now   = time.Date(2024, 6, 30, 20, 0, 0, 0, time.UTC)
	today = timeutil.Date(2024, 6, 30)
	clock = timeutil.FixedClock(now)
)

func day(offset int) time.Time { return today.AddDate(0, 0, offset) }

func sess(offset int, subject, chapter string, minutes, confidence int) study.Session {
	return study.Session{
		Date:            day(offset),
		Subject:         subject,
		Chapter:         chapter,
		DurationMinutes: shared.Minutes(minutes),
		Confidence:      shared.Confidence(confidence),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type fixedSessions struct {
	list  []study.Session
	err   error
	reads int
}

func (f *fixedSessions) Append(context.Context, shared.Username, *study.Session) (*study.Session, error) {
	return nil, errors.New("read only")
}

func (f *fixedSessions) ListByUser(context.Context, shared.Username) ([]study.Session, error) {
	f.reads++
	if f.err != nil {
		return nil, f.err
	}
	return f.list, nil
}

func (f *fixedSessions) DeleteByUser(context.Context, shared.Username) error { return nil }

// jsonCache round-trips values through JSON like the Redis cache does.
type jsonCache struct {
	entries map[string][]byte
}

func newJSONCache() *jsonCache { return &jsonCache{entries: make(map[string][]byte)} }

func (c *jsonCache) Get(_ context.Context, username, day string, dest any) bool {
	raw, ok := c.entries[username+"|"+day]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (c *jsonCache) Set(_ context.Context, username, day string, value any) {
	raw, err := json.Marshal(value)
	if err == nil {
		c.entries[username+"|"+day] = raw
	}
}

type stubRenderer struct {
	period string
	err    error
}

func (r *stubRenderer) Render(_ string, _ report.Stats, periodLabel string) ([]byte, error) {
	r.period = periodLabel
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-stub"), nil
}

type listAccounts struct {
	account.Repository
	names []shared.Username
}

func (l listAccounts) ListUsernames(context.Context) ([]shared.Username, error) {
	return l.names, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Dashboard
// ═══════════════════════════════════════════════════════════════════════════

func TestGetDashboard(t *testing.T) {
	repo := &fixedSessions{list: []study.Session{
		sess(-4, "Math", "Limits", 60, 3),
		sess(-2, "Math", "Series", 30, 4),
		sess(-1, "Bio", "Cells", 30, 2),
		sess(0, "Math", "Series", 30, 5),
	}}
	h := NewGetDashboardHandler(repo, study.DefaultXPPolicy(), clock, nil)

	dto, err := h.Handle(context.Background(), GetDashboardQuery{Username: "alice"})
	require.NoError(t, err)

	assert.True(t, dto.HasData)
	assert.Equal(t, 150, dto.TotalMinutes)
	assert.Equal(t, 4, dto.SessionCount)
	require.NotNil(t, dto.MeanConfidence)
	assert.InDelta(t, 3.5, *dto.MeanConfidence, 1e-9)

	assert.Equal(t, 3, dto.Streak.Current)
	assert.Equal(t, study.StreakActive, dto.Streak.Status)

	// 90 + 54 + 36 + 60
	assert.Equal(t, shared.XP(240), dto.Progress.TotalXP)
	assert.Equal(t, shared.Level(2), dto.Progress.Level)

	want := []SubjectShareDTO{
		{Subject: "Bio", Minutes: 30, Percent: 20},
		{Subject: "Math", Minutes: 120, Percent: 80},
	}
	if diff := cmp.Diff(want, dto.Subjects); diff != "" {
		t.Errorf("subjects mismatch (-want +got):\n%s", diff)
	}

	require.NotNil(t, dto.Profile.MemberSince)
	assert.Equal(t, day(-4), *dto.Profile.MemberSince)
	assert.Equal(t, 5, dto.Profile.DaysTracked)
	assert.Len(t, dto.Recent, 4)
	assert.Len(t, dto.Daily, 4)
}

func TestGetDashboard_Empty(t *testing.T) {
	h := NewGetDashboardHandler(&fixedSessions{}, study.DefaultXPPolicy(), clock, nil)

	dto, err := h.Handle(context.Background(), GetDashboardQuery{Username: "alice"})
	require.NoError(t, err)
	assert.False(t, dto.HasData)
	assert.Nil(t, dto.MeanConfidence)
	assert.Nil(t, dto.Profile.MemberSince)
	assert.Zero(t, dto.Profile.DaysTracked)
	assert.Equal(t, shared.Level(1), dto.Progress.Level)
	assert.Equal(t, 0, dto.Streak.Current)
	assert.Empty(t, dto.Subjects)
}

func TestGetDashboard_Cache(t *testing.T) {
	repo := &fixedSessions{list: []study.Session{sess(0, "Math", "Limits", 60, 3)}}
	cache := newJSONCache()
	h := NewGetDashboardHandler(repo, study.DefaultXPPolicy(), clock, cache)

	first, err := h.Handle(context.Background(), GetDashboardQuery{Username: "alice"})
	require.NoError(t, err)
	second, err := h.Handle(context.Background(), GetDashboardQuery{Username: "alice"})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.reads)
	assert.Equal(t, first.TotalMinutes, second.TotalMinutes)
	assert.Equal(t, first.Progress, second.Progress)
	assert.True(t, first.Day.Equal(second.Day))
}

func TestGetDashboard_ReadFailureDegradesAndSkipsCache(t *testing.T) {
	repo := &fixedSessions{err: shared.WrapError("study", "Decode", shared.ErrCorrupted, "line 3", errors.New("bad date"))}
	cache := newJSONCache()
	h := NewGetDashboardHandler(repo, study.DefaultXPPolicy(), clock, cache)

	var logs bytes.Buffer
	ctx := logger.WithContext(context.Background(), logger.New(logger.Options{Output: &logs, Level: logger.LevelInfo}))

	dto, err := h.Handle(ctx, GetDashboardQuery{Username: "alice"})
	require.NoError(t, err)
	assert.False(t, dto.HasData)
	assert.Empty(t, cache.entries)
	assert.Contains(t, logs.String(), "stored sessions are corrupted")
}

// ═══════════════════════════════════════════════════════════════════════════
// Report
// ═══════════════════════════════════════════════════════════════════════════

func TestGetReport(t *testing.T) {
	repo := &fixedSessions{list: []study.Session{
		sess(-40, "Math", "Limits", 60, 3),
		sess(-5, "Math", "Series", 30, 4),
		sess(0, "Bio", "Cells", 30, 2),
	}}
	renderer := &stubRenderer{}
	h := NewGetReportHandler(repo, nil, renderer, clock)

	dto, err := h.Handle(context.Background(), GetReportQuery{Username: "alice", Period: report.PeriodLast7Days})
	require.NoError(t, err)
	assert.Equal(t, shared.DateRange{Start: day(-7), End: today}, dto.Range)
	assert.Equal(t, 2, dto.Stats.SessionCount)
	assert.Nil(t, dto.PDF)

	dto, err = h.Handle(context.Background(), GetReportQuery{Username: "alice", Period: report.PeriodAllTime, RenderPDF: true})
	require.NoError(t, err)
	assert.Equal(t, day(-40), dto.Range.Start)
	assert.Equal(t, 3, dto.Stats.SessionCount)
	assert.Equal(t, []byte("%PDF-stub"), dto.PDF)
	assert.Equal(t, "All time", renderer.period)
}

func TestGetReport_RenderFailure(t *testing.T) {
	renderer := &stubRenderer{err: shared.ErrRenderFailed}
	h := NewGetReportHandler(&fixedSessions{}, nil, renderer, clock)

	dto, err := h.Handle(context.Background(), GetReportQuery{Username: "alice", RenderPDF: true})
	assert.Nil(t, dto)
	assert.ErrorIs(t, err, shared.ErrRenderFailed)
}

func TestGetReport_EmptyHistory(t *testing.T) {
	h := NewGetReportHandler(&fixedSessions{err: errors.New("io")}, nil, nil, clock)

	dto, err := h.Handle(context.Background(), GetReportQuery{Username: "alice", Period: report.PeriodAllTime})
	require.NoError(t, err)
	assert.False(t, dto.Stats.HasData)
	assert.Equal(t, []string{report.RecStartLogging}, dto.Stats.Recommendations)
}

// ═══════════════════════════════════════════════════════════════════════════
// Export, weaknesses, users
// ═══════════════════════════════════════════════════════════════════════════

func TestExportSessions(t *testing.T) {
	repo := &fixedSessions{list: []study.Session{sess(-1, "Math", "Limits", 60, 3), sess(0, "Bio", "Cells", 20, 4)}}
	var gotSubjects []report.SubjectStats
	encoders := map[ExportFormat]ExportEncoder{
		FormatCSV: func(s []study.Session, subjects []report.SubjectStats) ([]byte, error) {
			gotSubjects = subjects
			return []byte("csv"), nil
		},
	}
	h := NewExportSessionsHandler(repo, encoders)

	dto, err := h.Handle(context.Background(), ExportSessionsQuery{Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "study_data_alice.csv", dto.FileName)
	assert.Equal(t, 2, dto.SessionCount)
	assert.Len(t, gotSubjects, 2)

	_, err = h.Handle(context.Background(), ExportSessionsQuery{Username: "alice", Format: FormatXLSX})
	assert.ErrorIs(t, err, shared.ErrUnknownFormat)

	_, err = NewExportSessionsHandler(&fixedSessions{}, encoders).Handle(context.Background(), ExportSessionsQuery{Username: "alice"})
	assert.ErrorIs(t, err, shared.ErrNoSessions)
}

func TestParseExportFormat(t *testing.T) {
	f, err := ParseExportFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseExportFormat("pdf")
	assert.ErrorIs(t, err, shared.ErrUnknownFormat)
}

func TestAnalyzeWeaknesses(t *testing.T) {
	few := &fixedSessions{list: []study.Session{sess(0, "Math", "A", 30, 1)}}
	_, err := NewAnalyzeWeaknessesHandler(few, nil).Handle(context.Background(), AnalyzeWeaknessesQuery{Username: "alice"})
	assert.ErrorIs(t, err, shared.ErrInsufficientSessions)

	enough := &fixedSessions{list: []study.Session{
		sess(-4, "Math", "A", 30, 1),
		sess(-3, "Math", "A", 30, 2),
		sess(-2, "Math", "B", 30, 5),
		sess(-1, "Bio", "C", 30, 3),
		sess(0, "Bio", "C", 30, 4),
	}}
	analysis, err := NewAnalyzeWeaknessesHandler(enough, nil).Handle(context.Background(), AnalyzeWeaknessesQuery{Username: "alice"})
	require.NoError(t, err)
	assert.Equal(t, 5, analysis.SessionCount)
	require.NotEmpty(t, analysis.Weaknesses)
	assert.Equal(t, "A", analysis.Weaknesses[0].Chapter)
	assert.NotEmpty(t, analysis.Recommendations)
}

func TestListUsers(t *testing.T) {
	h := NewListUsersHandler(listAccounts{names: []shared.Username{"adam", "zoe"}})
	names, err := h.Handle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"adam", "zoe"}, names)
}
