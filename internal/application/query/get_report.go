package query

import (
	"context"
	"fmt"

	"github.com/elevate-hub/elevate/internal/domain/report"
	"github.com/elevate-hub/elevate/internal/domain/shared"
	"github.com/elevate-hub/elevate/internal/domain/study"
	"github.com/elevate-hub/elevate/pkg/logger"
	"github.com/elevate-hub/elevate/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET REPORT QUERY
// Aggregates a period of the user's history and optionally renders it.
// ══════════════════════════════════════════════════════════════════════════════

// ReportRenderer formats report statistics as a document.
type ReportRenderer interface {
	Render(username string, stats report.Stats, periodLabel string) ([]byte, error)
}

// GetReportQuery selects the user and period.
type GetReportQuery struct {
	Username string
	Period   report.Period

	// RenderPDF asks for the rendered document besides the statistics.
	RenderPDF bool
}

// ReportDTO carries the aggregation and, when requested, the document.
type ReportDTO struct {
	Username string
	Period   report.Period
	Range    shared.DateRange
	Stats    report.Stats

	// PDF is nil unless RenderPDF was set.
	PDF []byte
}

// GetReportHandler handles GetReportQuery.
type GetReportHandler struct {
	sessions   study.Repository
	aggregator *report.Aggregator
	renderer   ReportRenderer
	clock      timeutil.Clock
}

// NewGetReportHandler creates a GetReportHandler. renderer may be nil when
// documents are never requested.
func NewGetReportHandler(
	sessions study.Repository,
	aggregator *report.Aggregator,
	renderer ReportRenderer,
	clock timeutil.Clock,
) *GetReportHandler {
	if aggregator == nil {
		aggregator = report.NewAggregator(report.DefaultConfig())
	}
	return &GetReportHandler{sessions: sessions, aggregator: aggregator, renderer: renderer, clock: clock}
}

// Handle aggregates the period and renders it when asked to.
func (h *GetReportHandler) Handle(ctx context.Context, q GetReportQuery) (*ReportDTO, error) {
	username, err := shared.NewUsername(q.Username)
	if err != nil {
		return nil, fmt.Errorf("get_report: validation failed: %w", err)
	}
	if q.Period == "" {
		q.Period = report.PeriodLast30Days
	}

	sessions, _ := loadSessions(ctx, h.sessions, username, "get_report")

	period, err := q.Period.Range(timeutil.Today(h.clock), sessions)
	if err != nil {
		return nil, fmt.Errorf("get_report: %w", err)
	}

	stats := h.aggregator.Aggregate(sessions, period)
	dto := &ReportDTO{
		Username: username.String(),
		Period:   q.Period,
		Range:    period,
		Stats:    stats,
	}

	log := logger.FromContext(ctx).With(
		logger.Username(username.String()),
		logger.Period(q.Period.String()),
	)

	if q.RenderPDF {
		if h.renderer == nil {
			return nil, fmt.Errorf("get_report: %w", shared.ErrRenderFailed)
		}
		doc, err := h.renderer.Render(username.String(), stats, q.Period.String())
		if err != nil {
			log.Error("report rendering failed", logger.Err(err))
			return nil, fmt.Errorf("get_report: render: %w", err)
		}
		dto.PDF = doc
	}

	log.Info("report generated",
		logger.SessionCount(stats.SessionCount),
		logger.Bool("pdf", q.RenderPDF),
	)
	return dto, nil
}
