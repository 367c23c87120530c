package scoring

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"atsscorer/internal/types"
)

const (
	// NeutralKeywordScore is reported when there is nothing to match against.
	NeutralKeywordScore = 40
	// MaxDerivedKeywords caps heuristic extraction from a job description.
	MaxDerivedKeywords  = 40

	maxPhraseWords       = 3
	minPhraseOccurrences = 2
	maxMissingInIssue    = 5
)

var (
	tokenPattern   = regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{N}+#./-]*[\p{L}\p{N}+#]|[\p{L}\p{N}]`)
	numericPattern = regexp.MustCompile(`^[\p{N}.,/%+-]+$`)
)

type token struct {
	text       string
	lower      string
	start, end int
}

// KeywordResult is the keyword evaluator's output
type KeywordResult struct {
	Score    int
	Matched  []string
	Missing  []string
	NoTarget bool
	Issues   []string
}

type candidate struct {
	key     string
	display string
	words   int
	count   int
	order   int
}

func tokenize(text string) []token {
	locs := tokenPattern.FindAllStringIndex(text, -1)
	toks := make([]token, 0, len(locs))
	for _, loc := range locs {
		t := text[loc[0]:loc[1]]
		toks = append(toks, token{text: t, lower: strings.ToLower(t), start: loc[0], end: loc[1]})
	}
	return toks
}

// adjacent reports whether only spaces or tabs separate a and b. Line breaks
// and punctuation end a phrase.
func adjacent(text string, a, b token) bool {
	gap := text[a.end:b.start]
	if gap == "" {
		return false
	}
	return strings.Trim(gap, " \t") == ""
}

func eligibleWord(lex *Lexicon, t token) bool {
	if numericPattern.MatchString(t.text) || lex.IsStopWord(t.lower) {
		return false
	}
	if utf8.RuneCountInString(t.text) > 1 {
		return true
	}
	// single letters only count when capitalized, e.g. the languages C and R
	r, _ := utf8.DecodeRuneInString(t.text)
	return unicode.IsUpper(r)
}

// ExtractKeywords derives up to limit candidate keywords from a job
// description: single words plus 2-3 word phrases that recur. Candidates are
// ranked by frequency, ties broken by first appearance, and displayed with
// the casing of their first occurrence.
func ExtractKeywords(lex *Lexicon, text string, limit int) []string {
	toks := tokenize(text)
	byKey := make(map[string]*candidate)
	var all []*candidate

	for i := range toks {
		for n := 1; n <= maxPhraseWords && i+n <= len(toks); n++ {
			last := toks[i+n-1]
			if n > 1 && !adjacent(text, toks[i+n-2], last) {
				break
			}
			// earlier words were checked on the previous pass
			if !eligibleWord(lex, last) {
				break
			}

			key, display := joinTokens(toks[i : i+n])
			c, ok := byKey[key]
			if !ok {
				c = &candidate{key: key, display: display, words: n, order: len(all)}
				byKey[key] = c
				all = append(all, c)
			}
			c.count++
		}
	}

	kept := make([]*candidate, 0, len(all))
	for _, c := range all {
		if c.words > 1 && c.count < minPhraseOccurrences {
			continue
		}
		kept = append(kept, c)
	}
	sort.SliceStable(kept, func(a, b int) bool {
		if kept[a].count != kept[b].count {
			return kept[a].count > kept[b].count
		}
		return kept[a].order < kept[b].order
	})

	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	out := make([]string, len(kept))
	for i, c := range kept {
		out[i] = c.display
	}
	return out
}

func joinTokens(toks []token) (key, display string) {
	keys := make([]string, len(toks))
	shown := make([]string, len(toks))
	for i, t := range toks {
		keys[i] = t.lower
		shown[i] = t.text
	}
	return strings.Join(keys, " "), strings.Join(shown, " ")
}

// resumeCorpus is the lower-cased text keyword matching runs against. Each
// field becomes its own line so phrases never match across fields.
func resumeCorpus(doc types.ResumeDocument) string {
	var parts []string
	add := func(s string) {
		if s = strings.Join(strings.Fields(s), " "); s != "" {
			parts = append(parts, strings.ToLower(s))
		}
	}

	add(doc.PersonalInfo.Title)
	add(doc.Summary)
	for _, w := range doc.WorkHistory {
		add(w.Title)
		for _, a := range w.Achievements {
			add(a)
		}
	}
	for _, s := range doc.Skills {
		add(s)
	}
	for _, group := range [][]types.TextFields{doc.Projects, doc.Certifications, doc.CustomSections} {
		for _, fields := range group {
			for _, k := range sortedKeys(fields) {
				add(fields[k])
			}
		}
	}
	return strings.Join(parts, "\n")
}

func sortedKeys(m types.TextFields) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#'
}

// containsKeyword does a case-sensitive search for kw in corpus that only
// accepts matches sitting on word boundaries. Both sides must already be
// lower-cased.
func containsKeyword(corpus, kw string) bool {
	if kw == "" {
		return false
	}
	from := 0
	for from <= len(corpus)-len(kw) {
		i := strings.Index(corpus[from:], kw)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(kw)

		before := start == 0
		if !before {
			r, _ := utf8.DecodeLastRuneInString(corpus[:start])
			before = !isWordRune(r)
		}
		after := end == len(corpus)
		if !after {
			r, _ := utf8.DecodeRuneInString(corpus[end:])
			after = !isWordRune(r)
		}
		if before && after {
			return true
		}
		from = start + 1
	}
	return false
}

// evaluateKeywords matches the target keywords, or keywords derived from the
// job description when none are given, against the résumé corpus.
func evaluateKeywords(lex *Lexicon, corpus, jobDescription string, targetKeywords []string) KeywordResult {
	targets := types.UniqueFold(targetKeywords)
	if len(targets) == 0 && strings.TrimSpace(jobDescription) != "" {
		targets = ExtractKeywords(lex, jobDescription, MaxDerivedKeywords)
	}

	res := KeywordResult{
		Matched: []string{},
		Missing: []string{},
		Issues:  []string{},
	}
	if len(targets) == 0 {
		res.Score = NeutralKeywordScore
		res.NoTarget = true
		res.Issues = append(res.Issues, "Add a job description or target keywords to measure keyword match")
		return res
	}

	for _, kw := range targets {
		normalized := strings.ToLower(strings.Join(strings.Fields(kw), " "))
		if containsKeyword(corpus, normalized) {
			res.Matched = append(res.Matched, kw)
		} else {
			res.Missing = append(res.Missing, kw)
		}
	}

	res.Score = int(math.Round(100 * float64(len(res.Matched)) / float64(len(targets))))
	if len(res.Missing) > 0 {
		shown := res.Missing
		if len(shown) > maxMissingInIssue {
			shown = shown[:maxMissingInIssue]
		}
		res.Issues = append(res.Issues, "Add missing keywords: "+strings.Join(shown, ", "))
	}
	return res
}
