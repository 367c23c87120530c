// Package jobtext normalizes job postings that arrive as HTML or plain text.
package jobtext

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
)

var htmlTagPattern = regexp.MustCompile(`(?i)<\s*/?\s*(p|div|br|li|ul|ol|h[1-6]|span|strong|em|b|i|a|table|tr|td|section|article|html|body)\b[^>]*>`)

const blockSelector = "p, li, div, br, h1, h2, h3, h4, h5, h6, tr, ul, ol, section, article"

// LooksLikeHTML reports whether s contains common HTML markup.
func LooksLikeHTML(s string) bool {
	return htmlTagPattern.MatchString(s)
}

// PlainText returns s as plain text with one block per line and runs of
// spaces collapsed. HTML input is parsed and its block elements become lines.
func PlainText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	if LooksLikeHTML(s) {
		if text, ok := htmlToText(s); ok {
			s = text
		}
	}
	return collapseLines(s)
}

// Markdown converts an HTML posting to markdown for prompts. Plain text is
// returned collapsed.
func Markdown(s string) string {
	if !LooksLikeHTML(s) {
		return collapseLines(s)
	}
	md, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return PlainText(s)
	}
	return strings.TrimSpace(md)
}

func htmlToText(s string) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return "", false
	}
	doc.Find("script, style, noscript").Remove()
	doc.Find(blockSelector).Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml("\n")
	})
	return doc.Text(), true
}

func collapseLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
