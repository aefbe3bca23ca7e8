// Package pdf renders report statistics as an A4 progress report.
package pdf

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-pdf/fpdf"

	"github.com/elevate-hub/elevate/internal/domain/report"
	"github.com/elevate-hub/elevate/internal/domain/shared"
	"github.com/elevate-hub/elevate/pkg/timeutil"
)

// ═══════════════════════════════════════════════════════════════════════════
// Layout
// ═══════════════════════════════════════════════════════════════════════════

const (
	title  = "Elevate - Progress Report"
	font   = "DejaVu"
	margin = 15.0
	lineH  = 6.0
	rowH   = 7.0

	chapterWidth = 25
)

var (
	subjectColumns = []column{
		{"Subject", 50}, {"Total Time", 35}, {"Sessions", 25}, {"Avg Session", 35}, {"Avg Confidence", 35},
	}
	sessionColumns = []column{
		{"Date", 28}, {"Subject", 35}, {"Chapter", 62}, {"Duration", 27}, {"Confidence", 28},
	}
)

// fontFaces lists the embedded DejaVu Sans Condensed faces by fpdf style.
// The faces cover Latin, Greek and Cyrillic; other scripts print as blanks.
var fontFaces = []struct{ style, file string }{
	{"", "fonts/DejaVuSansCondensed.ttf"},
	{"B", "fonts/DejaVuSansCondensed-Bold.ttf"},
	{"I", "fonts/DejaVuSansCondensed-Oblique.ttf"},
}

//go:embed fonts/*.ttf
var fontFS embed.FS

type column struct {
	label string
	width float64
}

// Renderer turns report.Stats into PDF bytes.
type Renderer struct {
	clock    timeutil.Clock
	compress bool
}

// NewRenderer creates a Renderer. The clock supplies the generation instant
// printed in the header and footer.
func NewRenderer(clock timeutil.Clock) *Renderer {
	if clock == nil {
		clock = timeutil.SystemClock{}
	}
	return &Renderer{clock: clock, compress: true}
}

// FileName returns the conventional download name of a report.
func FileName(username string, period report.Period) string {
	return fmt.Sprintf("study_report_%s_%s.pdf", username, period.Slug())
}

// Render builds the document. On failure it returns no bytes.
func (r *Renderer) Render(username string, stats report.Stats, periodLabel string) ([]byte, error) {
	generated := r.clock.Now()

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetCompression(r.compress)
	doc.SetCreationDate(generated)
	doc.SetModificationDate(generated)
	doc.SetCatalogSort(true)
	doc.SetTitle(title, false)
	doc.SetAuthor("Elevate", false)
	doc.SetMargins(margin, margin, margin)
	doc.SetAutoPageBreak(true, margin+5)
	for _, face := range fontFaces {
		raw, err := fontFS.ReadFile(face.file)
		if err != nil {
			return nil, shared.WrapError("report", "Render", shared.ErrRenderFailed, "pdf font missing", err)
		}
		doc.AddUTF8FontFromBytes(font, face.style, raw)
	}

	w := &writer{doc: doc}
	doc.SetFooterFunc(func() {
		doc.SetY(-margin)
		doc.SetFont(font, "I", 8)
		doc.SetTextColor(128, 128, 128)
		doc.CellFormat(0, 5, fmt.Sprintf("Report generated by Elevate on %s  -  page %d",
			generated.Format(timeutil.FormatHumanDate), doc.PageNo()), "", 0, "C", false, 0, "")
	})
	doc.AddPage()

	w.header(username, periodLabel, generated)
	w.summary(stats)
	w.details(stats)
	w.subjects(stats)
	w.performance(stats)
	w.recommendations(stats)
	w.recentSessions(stats)

	if err := doc.Error(); err != nil {
		return nil, shared.WrapError("report", "Render", shared.ErrRenderFailed, "pdf layout failed", err)
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, shared.WrapError("report", "Render", shared.ErrRenderFailed, "pdf output failed", err)
	}
	return buf.Bytes(), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Sections
// ═══════════════════════════════════════════════════════════════════════════

type writer struct {
	doc *fpdf.Fpdf
}

func (w *writer) header(username, periodLabel string, generated time.Time) {
	w.doc.SetFont(font, "B", 20)
	w.doc.SetTextColor(31, 56, 100)
	w.doc.CellFormat(0, 12, title, "", 1, "C", false, 0, "")
	w.doc.Ln(6)

	w.labelled("Student", username)
	w.labelled("Report Period", periodLabel)
	w.labelled("Generated", generated.Format(timeutil.FormatHumanDateTime))
	w.doc.Ln(8)
}

func (w *writer) summary(stats report.Stats) {
	w.heading("Executive Summary")
	if !stats.HasData {
		w.text("No study data available for this period.")
		w.doc.Ln(6)
		return
	}

	w.bullet("Total Study Time", timeutil.FormatMinutes(float64(stats.TotalMinutes)))
	w.bullet("Study Sessions", fmt.Sprint(stats.SessionCount))
	if stats.MeanConfidence != nil {
		w.bullet("Average Confidence", fmt.Sprintf("%.1f/5", *stats.MeanConfidence))
	}
	w.bullet("Subjects Studied", fmt.Sprint(stats.UniqueSubjects))
	w.bullet("Chapters Covered", fmt.Sprint(stats.UniqueChapters))
	w.doc.Ln(6)
}

func (w *writer) details(stats report.Stats) {
	w.heading("Detailed Statistics")
	if stats.Details == nil {
		w.doc.Ln(2)
		return
	}
	d := stats.Details

	w.subheading("Study Patterns")
	w.bullet("Daily Average Study Time", timeutil.FormatMinutes(d.DailyAverageMinutes))
	w.bullet("Average Session Length", fmt.Sprintf("%.1f minutes", d.MeanSessionMinutes))
	w.bullet("Longest Session", fmt.Sprintf("%d minutes", d.LongestSession))
	w.bullet("Shortest Session", fmt.Sprintf("%d minutes", d.ShortestSession))
	w.bullet("Active Study Days", fmt.Sprint(stats.ActiveDays))
	w.doc.Ln(4)

	w.subheading("Confidence Analysis")
	for _, b := range d.Distribution {
		w.text(fmt.Sprintf("-  %d %s: %d sessions (%.1f%%)",
			b.Rating.Int(), strings.Repeat("*", b.Rating.Int()), b.Count, b.Percent))
	}
	w.doc.Ln(6)
}

func (w *writer) subjects(stats report.Stats) {
	w.heading("Subject Breakdown")
	if len(stats.Subjects) == 0 {
		w.doc.Ln(2)
		return
	}

	rows := make([][]string, 0, len(stats.Subjects))
	for _, s := range stats.Subjects {
		rows = append(rows, []string{
			s.Subject,
			timeutil.FormatMinutes(float64(s.TotalMinutes)),
			fmt.Sprint(s.SessionCount),
			fmt.Sprintf("%.1f min", s.MeanDuration),
			fmt.Sprintf("%.1f/5", s.MeanConfidence),
		})
	}
	w.table(subjectColumns, rows)
	w.doc.Ln(6)
}

func (w *writer) performance(stats report.Stats) {
	w.heading("Performance Analysis")
	if !stats.PerformanceSufficient {
		w.text("Insufficient data for performance analysis. Continue studying to see trends!")
		w.doc.Ln(6)
		return
	}

	if len(stats.Trends) > 0 {
		w.subheading("Confidence Trends")
		for _, t := range stats.Trends {
			w.bullet(t.Subject, fmt.Sprintf("%s %s (Current: %.1f/5)",
				trendMark(t.Direction), t.Direction, t.CurrentConfidence))
		}
		w.doc.Ln(4)
	}

	w.subheading("Strengths and Areas for Improvement")
	w.doc.SetFont(font, "B", 10)
	w.line("Top Performing Areas:")
	for _, c := range stats.Strengths {
		w.text(fmt.Sprintf("-  %s - %s: %.1f/5", c.Subject, c.Chapter, c.MeanConfidence))
	}
	w.doc.Ln(2)

	w.doc.SetFont(font, "B", 10)
	w.doc.SetTextColor(192, 0, 0)
	w.line("Areas Needing Attention:")
	for _, c := range stats.Weaknesses {
		w.text(fmt.Sprintf("-  %s - %s: %.1f/5", c.Subject, c.Chapter, c.MeanConfidence))
	}
	w.doc.SetTextColor(0, 0, 0)
	w.doc.Ln(6)
}

func (w *writer) recommendations(stats report.Stats) {
	w.heading("Personalized Recommendations")
	recs := stats.Recommendations
	if len(recs) == 0 {
		recs = []string{report.RecStartLogging}
	}
	for i, rec := range recs {
		w.text(fmt.Sprintf("%d. %s", i+1, rec))
		w.doc.Ln(2)
	}
	w.doc.Ln(4)
}

func (w *writer) recentSessions(stats report.Stats) {
	w.heading("Recent Study Sessions")
	if len(stats.RecentSessions) == 0 {
		w.text("No study sessions recorded.")
		return
	}

	rows := make([][]string, 0, len(stats.RecentSessions))
	for _, s := range stats.RecentSessions {
		rows = append(rows, []string{
			timeutil.FormatDateStr(s.Date),
			s.Subject,
			TruncateChapter(s.Chapter),
			fmt.Sprintf("%d min", s.DurationMinutes.Int()),
			s.Confidence.String(),
		})
	}
	w.table(sessionColumns, rows)
}

// ═══════════════════════════════════════════════════════════════════════════
// Primitives
// ═══════════════════════════════════════════════════════════════════════════

func (w *writer) heading(s string) {
	w.doc.SetFont(font, "B", 15)
	w.doc.SetTextColor(31, 56, 100)
	w.doc.CellFormat(0, 10, s, "B", 1, "L", false, 0, "")
	w.doc.SetTextColor(0, 0, 0)
	w.doc.Ln(3)
}

func (w *writer) subheading(s string) {
	w.doc.SetFont(font, "B", 12)
	w.doc.CellFormat(0, 8, s, "", 1, "L", false, 0, "")
}

func (w *writer) labelled(label, value string) {
	w.doc.SetFont(font, "B", 11)
	w.doc.SetTextColor(0, 0, 0)
	lw := w.doc.GetStringWidth(label+": ") + 1
	w.doc.CellFormat(lw, lineH, label+":", "", 0, "L", false, 0, "")
	w.doc.SetFont(font, "", 11)
	w.doc.CellFormat(0, lineH, printable(value), "", 1, "L", false, 0, "")
}

func (w *writer) bullet(label, value string) {
	w.doc.SetFont(font, "B", 10)
	label = printable(label)
	lw := w.doc.GetStringWidth("-  "+label+": ") + 1
	w.doc.CellFormat(lw, lineH, "-  "+label+":", "", 0, "L", false, 0, "")
	w.doc.SetFont(font, "", 10)
	w.doc.MultiCell(0, lineH, printable(value), "", "L", false)
}

func (w *writer) text(s string) {
	w.doc.SetFont(font, "", 10)
	w.doc.MultiCell(0, lineH, printable(s), "", "L", false)
}

func (w *writer) line(s string) {
	w.doc.CellFormat(0, lineH, printable(s), "", 1, "L", false, 0, "")
}

func (w *writer) table(cols []column, rows [][]string) {
	printHeader := func() {
		w.doc.SetFont(font, "B", 10)
		w.doc.SetFillColor(128, 128, 128)
		w.doc.SetTextColor(245, 245, 245)
		for _, c := range cols {
			w.doc.CellFormat(c.width, rowH+1, c.label, "1", 0, "C", true, 0, "")
		}
		w.doc.Ln(-1)
		w.doc.SetFont(font, "", 9)
		w.doc.SetFillColor(245, 245, 220)
		w.doc.SetTextColor(0, 0, 0)
	}

	_, pageH := w.doc.GetPageSize()
	_, _, _, bottom := w.doc.GetMargins()
	printHeader()
	for _, row := range rows {
		if w.doc.GetY()+rowH > pageH-bottom {
			w.doc.AddPage()
			printHeader()
		}
		for i, c := range cols {
			w.doc.CellFormat(c.width, rowH, w.fit(row[i], c.width), "1", 0, "C", true, 0, "")
		}
		w.doc.Ln(-1)
	}
}

// fit shortens s rune by rune until it fits a cell of width mm.
func (w *writer) fit(s string, width float64) string {
	s = printable(s)
	limit := width - 2
	if w.doc.GetStringWidth(s) <= limit {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && w.doc.GetStringWidth(string(runes)+"...") > limit {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

// printable replaces what the PDF text encoding cannot carry with '?':
// invalid UTF-8 and runes outside the Basic Multilingual Plane, emoji
// included.
func printable(s string) string {
	return strings.Map(func(r rune) rune {
		if r == utf8.RuneError || r > 0xFFFF {
			return '?'
		}
		return r
	}, s)
}

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

// TruncateChapter shortens chapter names longer than 25 characters.
func TruncateChapter(chapter string) string {
	if utf8.RuneCountInString(chapter) <= chapterWidth {
		return chapter
	}
	return string([]rune(chapter)[:chapterWidth]) + "..."
}
