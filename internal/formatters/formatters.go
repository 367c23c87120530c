package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"atsscorer/internal/scoring"
	"atsscorer/internal/types"
)

// Formatter renders one data type in one output format
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "ScoreReport", &ScoreTextFormatter{})
	registry.RegisterFormatter("markdown", "ScoreReport", &ScoreMarkdownFormatter{})
	registry.RegisterFormatter("text", "KeywordExtractResponse", &KeywordsTextFormatter{})
	registry.RegisterFormatter("markdown", "KeywordExtractResponse", &KeywordsMarkdownFormatter{})
	registry.RegisterFormatter("text", "ImproveBulletResponse", &BulletTextFormatter{})
	registry.RegisterFormatter("markdown", "ImproveBulletResponse", &BulletMarkdownFormatter{})
	registry.RegisterFormatter("text", "BatchEntries", &BatchTextFormatter{})
	registry.RegisterFormatter("markdown", "BatchEntries", &BatchMarkdownFormatter{})
	registry.RegisterFormatter("text", "ResumeSummaries", &SummariesTextFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.ScoreReport, *types.ScoreReport:
		return "ScoreReport"
	case types.KeywordExtractResponse, *types.KeywordExtractResponse:
		return "KeywordExtractResponse"
	case types.ImproveBulletResponse, *types.ImproveBulletResponse:
		return "ImproveBulletResponse"
	case []types.BatchEntry:
		return "BatchEntries"
	case []types.ResumeSummary:
		return "ResumeSummaries"
	default:
		return "any"
	}
}

// deref accepts either a value or a pointer of T
func deref[T any](data any) (T, error) {
	switch v := data.(type) {
	case T:
		return v, nil
	case *T:
		if v != nil {
			return *v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("expected %T, got %T", zero, data)
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// breakdownRows lists the sub-scores in display order
func breakdownRows(r types.ScoreReport) []struct {
	key   string
	label string
	score int
} {
	return []struct {
		key   string
		label string
		score int
	}{
		{scoring.KeyKeywords, "Keywords", r.Breakdown.Keywords},
		{scoring.KeyFormatting, "Formatting", r.Breakdown.Formatting},
		{scoring.KeyContent, "Content", r.Breakdown.Content},
		{scoring.KeyImpact, "Impact", r.Breakdown.Impact},
	}
}

// ScoreTextFormatter renders a score report for the terminal
type ScoreTextFormatter struct{}

func (f *ScoreTextFormatter) Format(data any) (string, error) {
	report, err := deref[types.ScoreReport](data)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	out.WriteString("=== ATS SCORE ===\n")
	fmt.Fprintf(&out, "Overall: %d/100\n\n", report.OverallScore)

	for _, row := range breakdownRows(report) {
		fmt.Fprintf(&out, "  %-11s %3d  %s\n", row.label, row.score, bar(row.score))
	}
	out.WriteString("\n")

	if len(report.Issues) > 0 {
		out.WriteString("=== ISSUES ===\n")
		for _, issue := range report.Issues {
			fmt.Fprintf(&out, "- %s\n", issue)
		}
		out.WriteString("\n")
	}
	if len(report.Suggestions) > 0 {
		out.WriteString("=== SUGGESTIONS ===\n")
		for i, s := range report.Suggestions {
			fmt.Fprintf(&out, "%d. %s\n", i+1, s)
		}
		out.WriteString("\n")
	}

	d := report.Details
	if d.NoKeywordTarget {
		out.WriteString("Keywords: no job description or target keywords provided\n")
	} else {
		fmt.Fprintf(&out, "Matched keywords: %s\n", listOrNone(d.MatchedKeywords))
		fmt.Fprintf(&out, "Missing keywords: %s\n", listOrNone(d.MissingKeywords))
	}
	fmt.Fprintf(&out, "Bullets analysed: %d (%d weak)\n", d.BulletCount, len(d.WeakBullets))

	return out.String(), nil
}

func (f *ScoreTextFormatter) SupportedType() string {
	return "ScoreReport"
}

// ScoreMarkdownFormatter renders a score report with its insights
type ScoreMarkdownFormatter struct{}

func (f *ScoreMarkdownFormatter) Format(data any) (string, error) {
	report, err := deref[types.ScoreReport](data)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	out.WriteString("# ATS Score Report\n\n")
	fmt.Fprintf(&out, "**Overall Score:** %d/100\n\n", report.OverallScore)

	out.WriteString("| Metric | Score |\n|---|---|\n")
	for _, row := range breakdownRows(report) {
		fmt.Fprintf(&out, "| %s | %d |\n", row.label, row.score)
	}
	out.WriteString("\n")

	if len(report.Issues) > 0 {
		out.WriteString("## Issues\n\n")
		for _, issue := range report.Issues {
			fmt.Fprintf(&out, "- %s\n", issue)
		}
		out.WriteString("\n")
	}
	if len(report.Suggestions) > 0 {
		out.WriteString("## Suggestions\n\n")
		for i, s := range report.Suggestions {
			fmt.Fprintf(&out, "%d. %s\n", i+1, s)
		}
		out.WriteString("\n")
	}

	for _, row := range breakdownRows(report) {
		insight, ok := report.MetricInsights[row.key]
		if !ok {
			continue
		}
		fmt.Fprintf(&out, "## %s\n\n%s\n\n", insight.Label, insight.Explanation)
		writeMarkdownList(&out, "What's missing", insight.WhatsMissing)
		writeMarkdownList(&out, "Recommendations", insight.Recommendations)
		writeMarkdownList(&out, "Examples", insight.Examples)
	}

	if len(report.Details.WeakBullets) > 0 {
		writeMarkdownList(&out, "Weak bullets", report.Details.WeakBullets)
	}

	return out.String(), nil
}

func (f *ScoreMarkdownFormatter) SupportedType() string {
	return "ScoreReport"
}

// KeywordsTextFormatter prints one keyword per line
type KeywordsTextFormatter struct{}

func (f *KeywordsTextFormatter) Format(data any) (string, error) {
	resp, err := deref[types.KeywordExtractResponse](data)
	if err != nil {
		return "", err
	}
	var out strings.Builder
	fmt.Fprintf(&out, "Keywords (%d, source: %s)\n", len(resp.Keywords), resp.Source)
	for _, kw := range resp.Keywords {
		fmt.Fprintf(&out, "  %s\n", kw)
	}
	return out.String(), nil
}

func (f *KeywordsTextFormatter) SupportedType() string {
	return "KeywordExtractResponse"
}

// KeywordsMarkdownFormatter renders keywords as a list
type KeywordsMarkdownFormatter struct{}

func (f *KeywordsMarkdownFormatter) Format(data any) (string, error) {
	resp, err := deref[types.KeywordExtractResponse](data)
	if err != nil {
		return "", err
	}
	var out strings.Builder
	out.WriteString("# Job Keywords\n\n")
	fmt.Fprintf(&out, "_Source: %s_\n\n", resp.Source)
	for _, kw := range resp.Keywords {
		fmt.Fprintf(&out, "- %s\n", kw)
	}
	return out.String(), nil
}

func (f *KeywordsMarkdownFormatter) SupportedType() string {
	return "KeywordExtractResponse"
}

// BulletTextFormatter compares the original and improved bullet
type BulletTextFormatter struct{}

func (f *BulletTextFormatter) Format(data any) (string, error) {
	resp, err := deref[types.ImproveBulletResponse](data)
	if err != nil {
		return "", err
	}
	var out strings.Builder
	fmt.Fprintf(&out, "Original (%d/100%s): %s\n", resp.Original.Score, weakTag(resp.Original), resp.Original.Text)
	fmt.Fprintf(&out, "Improved (%d/100%s): %s\n", resp.Improved.Score, weakTag(resp.Improved), resp.Improved.Text)
	if resp.Rationale != "" {
		fmt.Fprintf(&out, "\nWhy: %s\n", resp.Rationale)
	}
	return out.String(), nil
}

func (f *BulletTextFormatter) SupportedType() string {
	return "ImproveBulletResponse"
}

// BulletMarkdownFormatter renders the comparison as a table
type BulletMarkdownFormatter struct{}

func (f *BulletMarkdownFormatter) Format(data any) (string, error) {
	resp, err := deref[types.ImproveBulletResponse](data)
	if err != nil {
		return "", err
	}
	var out strings.Builder
	out.WriteString("# Bullet Improvement\n\n")
	out.WriteString("| | Bullet | Action verb | Metric | Score |\n|---|---|---|---|---|\n")
	for _, row := range []struct {
		name string
		a    types.BulletAssessment
	}{{"Original", resp.Original}, {"Improved", resp.Improved}} {
		fmt.Fprintf(&out, "| %s | %s | %s | %s | %d |\n",
			row.name, escapePipes(row.a.Text), yesNo(row.a.HasActionVerb), yesNo(row.a.HasMetric), row.a.Score)
	}
	if resp.Rationale != "" {
		fmt.Fprintf(&out, "\n%s\n", resp.Rationale)
	}
	return out.String(), nil
}

func (f *BulletMarkdownFormatter) SupportedType() string {
	return "ImproveBulletResponse"
}

// BatchTextFormatter prints a ranked table
type BatchTextFormatter struct{}

func (f *BatchTextFormatter) Format(data any) (string, error) {
	entries, ok := data.([]types.BatchEntry)
	if !ok {
		return "", fmt.Errorf("expected []types.BatchEntry, got %T", data)
	}
	var out strings.Builder
	fmt.Fprintf(&out, "%-4s %-7s %-28s %s\n", "RANK", "SCORE", "NAME", "SOURCE")
	for i, e := range RankEntries(entries) {
		if e.Report == nil {
			fmt.Fprintf(&out, "%-4s %-7s %-28s %s (%s)\n", "-", "error", truncate(e.FullName, 28), e.Source, e.Error)
			continue
		}
		fmt.Fprintf(&out, "%-4d %-7d %-28s %s\n", i+1, e.Report.OverallScore, truncate(e.FullName, 28), e.Source)
	}
	return out.String(), nil
}

func (f *BatchTextFormatter) SupportedType() string {
	return "BatchEntries"
}

// BatchMarkdownFormatter prints the ranked table in markdown
type BatchMarkdownFormatter struct{}

func (f *BatchMarkdownFormatter) Format(data any) (string, error) {
	entries, ok := data.([]types.BatchEntry)
	if !ok {
		return "", fmt.Errorf("expected []types.BatchEntry, got %T", data)
	}
	var out strings.Builder
	out.WriteString("# Batch Results\n\n| Rank | Name | Overall | Keywords | Formatting | Content | Impact | Source |\n|---|---|---|---|---|---|---|---|\n")
	for i, e := range RankEntries(entries) {
		if e.Report == nil {
			fmt.Fprintf(&out, "| - | %s | error | | | | | %s |\n", escapePipes(e.FullName), escapePipes(e.Source))
			continue
		}
		b := e.Report.Breakdown
		fmt.Fprintf(&out, "| %d | %s | %d | %d | %d | %d | %d | %s |\n",
			i+1, escapePipes(e.FullName), e.Report.OverallScore, b.Keywords, b.Formatting, b.Content, b.Impact, escapePipes(e.Source))
	}
	return out.String(), nil
}

func (f *BatchMarkdownFormatter) SupportedType() string {
	return "BatchEntries"
}

// SummariesTextFormatter lists stored résumés
type SummariesTextFormatter struct{}

func (f *SummariesTextFormatter) Format(data any) (string, error) {
	summaries, ok := data.([]types.ResumeSummary)
	if !ok {
		return "", fmt.Errorf("expected []types.ResumeSummary, got %T", data)
	}
	if len(summaries) == 0 {
		return "No stored resumes\n", nil
	}
	var out strings.Builder
	for _, s := range summaries {
		fmt.Fprintf(&out, "%-38s %-28s %s\n", s.ID, truncate(s.FullName, 28), s.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return out.String(), nil
}

func (f *SummariesTextFormatter) SupportedType() string {
	return "ResumeSummaries"
}

// RankEntries orders scored entries by overall score, highest first, ties by
// source. Failed entries go last. The input is not modified.
func RankEntries(entries []types.BatchEntry) []types.BatchEntry {
	ranked := make([]types.BatchEntry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if (a.Report == nil) != (b.Report == nil) {
			return a.Report != nil
		}
		if a.Report != nil && a.Report.OverallScore != b.Report.OverallScore {
			return a.Report.OverallScore > b.Report.OverallScore
		}
		return a.Source < b.Source
	})
	return ranked
}

func writeMarkdownList(out *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "### %s\n\n", title)
	for _, item := range items {
		fmt.Fprintf(out, "- %s\n", item)
	}
	out.WriteString("\n")
}

func bar(score int) string {
	filled := max(0, min(score, 100)) / 5
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", 20-filled) + "]"
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func weakTag(a types.BulletAssessment) string {
	if a.Weak {
		return ", weak"
	}
	return ""
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// GlobalRegistry is the registry used by the CLI output handler
var GlobalRegistry = NewFormatterRegistry()
