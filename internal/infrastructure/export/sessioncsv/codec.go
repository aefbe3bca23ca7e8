// Package sessioncsv reads and writes study sessions in the CSV layout
// shared by the file store, CSV export and backups.
package sessioncsv

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/elevate-hub/elevate/internal/domain/shared"
	"github.com/elevate-hub/elevate/internal/domain/study"
	"github.com/elevate-hub/elevate/pkg/timeutil"
)

// Column names in file order.
const (
	ColDate       = "date"
	ColSubject    = "subject"
	ColChapter    = "chapter"
	ColDuration   = "duration_minutes"
	ColConfidence = "confidence_rating"
	ColNotes      = "notes"
	ColTimestamp  = "timestamp"
)

// Header is the column row.
var Header = []string{ColDate, ColSubject, ColChapter, ColDuration, ColConfidence, ColNotes, ColTimestamp}

// legacyTimestamp is the naive ISO layout written by older versions.
const legacyTimestamp = "2006-01-02T15:04:05.999999999"

// Record converts a session to its CSV row.
func Record(s study.Session) []string {
	ts := ""
	if !s.Timestamp.IsZero() {
		ts = s.Timestamp.UTC().Format(timeutil.FormatTimestamp)
	}
	return []string{
		timeutil.FormatDateStr(s.Date),
		s.Subject,
		s.Chapter,
		strconv.Itoa(s.DurationMinutes.Int()),
		strconv.Itoa(s.Confidence.Int()),
		s.Notes,
		ts,
	}
}

// Encode writes the header and one row per session.
func Encode(w io.Writer, sessions []study.Session) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("sessioncsv: write header: %w", err)
	}
	for i := range sessions {
		if err := cw.Write(Record(sessions[i])); err != nil {
			return fmt.Errorf("sessioncsv: write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("sessioncsv: flush: %w", err)
	}
	return nil
}

// Marshal returns the encoded sessions.
func Marshal(sessions []study.Session) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, sessions); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads sessions written by Encode. Columns are matched by header
// name, so files with reordered columns load too. notes and timestamp are
// optional columns. An empty input yields no sessions. Any malformed row
// fails the whole decode with an error wrapping shared.ErrCorrupted.
func Decode(r io.Reader) ([]study.Session, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []study.Session{}, nil
	}
	if err != nil {
		return nil, corrupted(1, err)
	}

	cols, err := columnIndex(head)
	if err != nil {
		return nil, err
	}

	sessions := make([]study.Session, 0)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, corrupted(line, err)
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}

		s, err := parseRow(row, cols)
		if err != nil {
			return nil, corrupted(line, err)
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func columnIndex(head []string) (map[string]int, error) {
	cols := make(map[string]int, len(head))
	for i, name := range head {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF"))] = i
	}
	for _, required := range []string{ColDate, ColSubject, ColChapter, ColDuration, ColConfidence} {
		if _, ok := cols[required]; !ok {
			return nil, corrupted(1, fmt.Errorf("missing column %q", required))
		}
	}
	return cols, nil
}

func parseRow(row []string, cols map[string]int) (study.Session, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	var s study.Session

	date, err := timeutil.ParseDate(strings.TrimSpace(field(ColDate)))
	if err != nil {
		return s, err
	}
	duration, err := parseInt(field(ColDuration))
	if err != nil {
		return s, fmt.Errorf("%s: %w", ColDuration, err)
	}
	confidence, err := parseInt(field(ColConfidence))
	if err != nil {
		return s, fmt.Errorf("%s: %w", ColConfidence, err)
	}

	s = study.Session{
		Date:            date,
		Subject:         strings.TrimSpace(field(ColSubject)),
		Chapter:         strings.TrimSpace(field(ColChapter)),
		DurationMinutes: shared.Minutes(duration),
		Confidence:      shared.Confidence(confidence),
		Notes:           field(ColNotes),
	}
	if raw := strings.TrimSpace(field(ColTimestamp)); raw != "" {
		if s.Timestamp, err = parseTimestamp(raw); err != nil {
			return s, err
		}
	}
	return s, s.Validate()
}

// parseInt also accepts "45.0", the float form some spreadsheet tools write.
func parseInt(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("not an integer: %q", raw)
	}
	return int(f), nil
}

func parseTimestamp(raw string) (time.Time, error) {
	if t, err := time.Parse(timeutil.FormatTimestamp, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation(legacyTimestamp, raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", raw)
	}
	return t, nil
}

func corrupted(line int, err error) error {
	return shared.WrapError("study", "Decode", shared.ErrCorrupted, fmt.Sprintf("line %d", line), err)
}
