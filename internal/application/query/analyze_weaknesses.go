package query

import (
	"context"
	"fmt"

	"github.com/elevate-hub/elevate/internal/domain/report"
	"github.com/elevate-hub/elevate/internal/domain/shared"
	"github.com/elevate-hub/elevate/internal/domain/study"
)

// AnalyzeWeaknessesQuery names the user.
type AnalyzeWeaknessesQuery struct {
	Username string
}

// AnalyzeWeaknessesHandler looks for weak chapters over the whole history.
type AnalyzeWeaknessesHandler struct {
	sessions   study.Repository
	aggregator *report.Aggregator
}

// NewAnalyzeWeaknessesHandler creates an AnalyzeWeaknessesHandler.
func NewAnalyzeWeaknessesHandler(sessions study.Repository, aggregator *report.Aggregator) *AnalyzeWeaknessesHandler {
	if aggregator == nil {
		aggregator = report.NewAggregator(report.DefaultConfig())
	}
	return &AnalyzeWeaknessesHandler{sessions: sessions, aggregator: aggregator}
}

// Handle returns shared.ErrInsufficientSessions below
// report.MinWeaknessSessions sessions.
func (h *AnalyzeWeaknessesHandler) Handle(ctx context.Context, q AnalyzeWeaknessesQuery) (*report.WeaknessAnalysis, error) {
	username, err := shared.NewUsername(q.Username)
	if err != nil {
		return nil, fmt.Errorf("analyze_weaknesses: validation failed: %w", err)
	}

	sessions, _ := loadSessions(ctx, h.sessions, username, "analyze_weaknesses")
	analysis, err := h.aggregator.AnalyzeWeaknesses(sessions)
	if err != nil {
		return nil, fmt.Errorf("analyze_weaknesses: %w", err)
	}
	return analysis, nil
}
