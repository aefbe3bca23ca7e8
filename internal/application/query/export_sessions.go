package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/elevate-hub/elevate/internal/domain/report"
	"github.com/elevate-hub/elevate/internal/domain/shared"
	"github.com/elevate-hub/elevate/internal/domain/study"
	"github.com/elevate-hub/elevate/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPORT SESSIONS QUERY
// Dumps a user's raw sessions as CSV or as a workbook.
// ══════════════════════════════════════════════════════════════════════════════

// ExportFormat selects the file type of an export.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
)

// ParseExportFormat accepts "csv" or "xlsx" in any case.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", shared.ErrUnknownFormat
	}
}

// FileName returns the download name of an export.
func (f ExportFormat) FileName(username string) string {
	return fmt.Sprintf("study_data_%s.%s", username, f)
}

// ExportEncoder serialises sessions. subjects is the all-time breakdown for
// formats that carry one.
type ExportEncoder func(sessions []study.Session, subjects []report.SubjectStats) ([]byte, error)

// ExportSessionsQuery selects the user and format.
type ExportSessionsQuery struct {
	Username string
	Format   ExportFormat
}

// ExportDTO is an encoded export.
type ExportDTO struct {
	Format       ExportFormat
	FileName     string
	Data         []byte
	SessionCount int
}

// ExportSessionsHandler handles ExportSessionsQuery.
type ExportSessionsHandler struct {
	sessions study.Repository
	encoders map[ExportFormat]ExportEncoder
}

// NewExportSessionsHandler creates an ExportSessionsHandler.
func NewExportSessionsHandler(sessions study.Repository, encoders map[ExportFormat]ExportEncoder) *ExportSessionsHandler {
	return &ExportSessionsHandler{sessions: sessions, encoders: encoders}
}

// Handle encodes the user's full history.
// Returns shared.ErrNoSessions when there is nothing to export.
func (h *ExportSessionsHandler) Handle(ctx context.Context, q ExportSessionsQuery) (*ExportDTO, error) {
	username, err := shared.NewUsername(q.Username)
	if err != nil {
		return nil, fmt.Errorf("export_sessions: validation failed: %w", err)
	}
	if q.Format == "" {
		q.Format = FormatCSV
	}
	encode, ok := h.encoders[q.Format]
	if !ok {
		return nil, fmt.Errorf("export_sessions: %q: %w", q.Format, shared.ErrUnknownFormat)
	}

	sessions, _ := loadSessions(ctx, h.sessions, username, "export_sessions")
	if len(sessions) == 0 {
		return nil, fmt.Errorf("export_sessions: %w", shared.ErrNoSessions)
	}

	subjects := report.Aggregate(sessions, historyRange(sessions, sessions[0].Date)).Subjects
	data, err := encode(sessions, subjects)
	if err != nil {
		return nil, fmt.Errorf("export_sessions: encode %s: %w", q.Format, err)
	}

	logger.FromContext(ctx).Info("sessions exported",
		logger.Username(username.String()),
		logger.String("format", string(q.Format)),
		logger.SessionCount(len(sessions)),
	)
	return &ExportDTO{
		Format:       q.Format,
		FileName:     q.Format.FileName(username.String()),
		Data:         data,
		SessionCount: len(sessions),
	}, nil
}
