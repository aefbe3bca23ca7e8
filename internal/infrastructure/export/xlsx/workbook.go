// Package xlsx writes a user's sessions and subject breakdown as a workbook.
package xlsx

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/elevate-hub/elevate/internal/domain/report"
	"github.com/elevate-hub/elevate/internal/domain/study"
	"github.com/elevate-hub/elevate/internal/infrastructure/export/sessioncsv"
	"github.com/elevate-hub/elevate/pkg/timeutil"
)

const (
	SheetSessions = "Sessions"
	SheetSubjects = "Subjects"
)

var subjectHeader = []string{"subject", "total_minutes", "sessions", "avg_session_minutes", "avg_confidence", "confidence_stddev"}

// FileName returns the conventional download name of a workbook.
func FileName(username string) string {
	return fmt.Sprintf("study_data_%s.xlsx", username)
}

// Encode builds the workbook and returns its bytes.
func Encode(sessions []study.Session, subjects []report.SubjectStats) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// A new file starts with "Sheet1"; rename it instead of adding a sheet.
	if err := f.SetSheetName(f.GetSheetName(0), SheetSessions); err != nil {
		return nil, fmt.Errorf("xlsx: rename sheet: %w", err)
	}
	if err := writeSessions(f, sessions); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(SheetSubjects); err != nil {
		return nil, fmt.Errorf("xlsx: create sheet: %w", err)
	}
	if err := writeSubjects(f, subjects); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("xlsx: write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSessions(f *excelize.File, sessions []study.Session) error {
	if err := setRow(f, SheetSessions, 1, toAny(sessioncsv.Header)); err != nil {
		return err
	}
	for i, s := range sessions {
		ts := ""
		if !s.Timestamp.IsZero() {
			ts = s.Timestamp.UTC().Format(timeutil.FormatTimestamp)
		}
		row := []any{
			timeutil.FormatDateStr(s.Date),
			s.Subject,
			s.Chapter,
			s.DurationMinutes.Int(),
			s.Confidence.Int(),
			s.Notes,
			ts,
		}
		if err := setRow(f, SheetSessions, i+2, row); err != nil {
			return err
		}
	}

	widths := map[string]float64{"A": 12, "B": 18, "C": 30, "D": 16, "E": 18, "F": 30, "G": 30}
	for col, w := range widths {
		if err := f.SetColWidth(SheetSessions, col, col, w); err != nil {
			return fmt.Errorf("xlsx: column width: %w", err)
		}
	}
	return nil
}

func writeSubjects(f *excelize.File, subjects []report.SubjectStats) error {
	if err := setRow(f, SheetSubjects, 1, toAny(subjectHeader)); err != nil {
		return err
	}
	for i, s := range subjects {
		var std any = ""
		if s.ConfidenceStdDev != nil {
			std = round2(*s.ConfidenceStdDev)
		}
		row := []any{
			s.Subject,
			s.TotalMinutes,
			s.SessionCount,
			round2(s.MeanDuration),
			round2(s.MeanConfidence),
			std,
		}
		if err := setRow(f, SheetSubjects, i+2, row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(SheetSubjects, "A", "F", 20); err != nil {
		return fmt.Errorf("xlsx: column width: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("xlsx: cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("xlsx: write row %d: %w", row, err)
	}
	return nil
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
