// Package export writes batch scoring results to spreadsheets.
package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"atsscorer/internal/formatters"
	"atsscorer/internal/types"
)

const (
	SummarySheet = "Summary"
	RankedSheet  = "Ranked"
)

// score bands used for row colouring and the summary distribution
var bands = []struct {
	label string
	min   int
	fill  string
}{
	{"Excellent (90-100)", 90, "C6EFCE"},
	{"Good (70-89)", 70, "FFEB9C"},
	{"Fair (50-69)", 50, "FFC7CE"},
	{"Poor (<50)", 0, "FF9999"},
}

func bandFor(score int) int {
	for i, b := range bands {
		if score >= b.min {
			return i
		}
	}
	return len(bands) - 1
}

// BatchReport describes one batch run
type BatchReport struct {
	JobSource string
	Generated time.Time
	Entries   []types.BatchEntry
}

// WriteXLSX saves the report to path, adding the .xlsx extension if missing.
// It returns the path actually written.
func WriteXLSX(path string, report BatchReport) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	path = filepath.Clean(path)

	f, err := Build(report)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return path, nil
}

// Build renders the report into an in-memory workbook
func Build(report BatchReport) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(RankedSheet); err != nil {
		_ = f.Close()
		return nil, err
	}

	ranked := formatters.RankEntries(report.Entries)
	if err := writeSummary(f, report, ranked); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := writeRanked(f, ranked); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create ranked sheet: %w", err)
	}
	return f, nil
}

// sheetWriter collects the first error so cell writes can be chained
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) set(col, row int, value any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetCellValue(w.sheet, cell, value)
}

func (w *sheetWriter) style(fromCol, toCol, row, style int) {
	if w.err != nil {
		return
	}
	from, _ := excelize.CoordinatesToCellName(fromCol, row)
	to, _ := excelize.CoordinatesToCellName(toCol, row)
	w.err = w.f.SetCellStyle(w.sheet, from, to, style)
}

func (w *sheetWriter) width(fromCol, toCol string, width float64) {
	if w.err == nil {
		w.err = w.f.SetColWidth(w.sheet, fromCol, toCol, width)
	}
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
}

func writeSummary(f *excelize.File, report BatchReport, ranked []types.BatchEntry) error {
	header, err := headerStyle(f)
	if err != nil {
		return err
	}
	label, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	w := &sheetWriter{f: f, sheet: SummarySheet}
	w.width("A", "A", 28)
	w.width("B", "B", 50)

	w.set(1, 1, "ATS Batch Report")
	w.style(1, 2, 1, header)

	scored, failed := 0, 0
	total, best, worst := 0, 0, 100
	counts := make([]int, len(bands))
	for _, e := range ranked {
		if e.Report == nil {
			failed++
			continue
		}
		s := e.Report.OverallScore
		scored++
		total += s
		best = max(best, s)
		worst = min(worst, s)
		counts[bandFor(s)]++
	}

	job := report.JobSource
	if job == "" {
		job = "(none)"
	}
	rows := [][2]any{
		{"Job description:", job},
		{"Generated:", report.Generated.Format("2006-01-02 15:04:05")},
		{"Documents scored:", scored},
		{"Documents failed:", failed},
	}
	if scored > 0 {
		rows = append(rows,
			[2]any{"Average score:", fmt.Sprintf("%.1f", float64(total)/float64(scored))},
			[2]any{"Highest score:", best},
			[2]any{"Lowest score:", worst},
		)
	}

	row := 3
	for _, r := range rows {
		w.set(1, row, r[0])
		w.style(1, 1, row, label)
		w.set(2, row, r[1])
		row++
	}

	if scored > 0 {
		row++
		w.set(1, row, "Distribution")
		w.style(1, 2, row, header)
		row++
		for i, b := range bands {
			w.set(1, row, b.label)
			w.set(2, row, counts[i])
			row++
		}
	}
	return w.err
}

func writeRanked(f *excelize.File, ranked []types.BatchEntry) error {
	header, err := headerStyle(f)
	if err != nil {
		return err
	}
	fills := make([]int, len(bands))
	for i, b := range bands {
		if fills[i], err = f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{b.fill}, Pattern: 1},
		}); err != nil {
			return err
		}
	}

	w := &sheetWriter{f: f, sheet: RankedSheet}
	w.width("A", "A", 8)
	w.width("B", "B", 28)
	w.width("C", "G", 13)
	w.width("H", "J", 40)

	headers := []string{"Rank", "Candidate", "Overall", "Keywords", "Formatting", "Content", "Impact", "Missing Keywords", "Top Issue", "Source"}
	for col, h := range headers {
		w.set(col+1, 1, h)
	}
	w.style(1, len(headers), 1, header)

	for i, e := range ranked {
		row := i + 2
		if e.Report == nil {
			w.set(1, row, "-")
			w.set(2, row, e.FullName)
			w.set(9, row, e.Error)
			w.set(10, row, e.Source)
			continue
		}
		r := e.Report
		topIssue := ""
		if len(r.Issues) > 0 {
			topIssue = r.Issues[0]
		}
		values := []any{
			i + 1, e.FullName, r.OverallScore,
			r.Breakdown.Keywords, r.Breakdown.Formatting, r.Breakdown.Content, r.Breakdown.Impact,
			strings.Join(r.Details.MissingKeywords, ", "), topIssue, e.Source,
		}
		for col, v := range values {
			w.set(col+1, row, v)
		}
		w.style(1, 7, row, fills[bandFor(r.OverallScore)])
	}
	if w.err != nil {
		return w.err
	}

	if len(ranked) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(headers), len(ranked)+1)
		if err := f.AutoFilter(RankedSheet, "A1:"+last, []excelize.AutoFilterOptions{}); err != nil {
			return err
		}
	}
	return f.SetPanes(RankedSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
