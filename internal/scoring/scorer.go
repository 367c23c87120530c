// Package scoring computes ATS compatibility reports for résumé documents.
//
// Scoring is a pure function of the document, the job description and the
// lexicon snapshot taken at the start of the call: it performs no I/O, keeps
// no state between calls and may be used from many goroutines at once.
package scoring

import (
	"fmt"
	"math"

	"atsscorer/internal/jobtext"
	"atsscorer/internal/types"
)

// Breakdown keys, also used as metricInsights keys
const (
	KeyKeywords   = "keywords"
	KeyFormatting = "formatting"
	KeyContent    = "content"
	KeyImpact     = "impact"
)

// Weights are the percentage contributions of each sub-score to the overall score.
type Weights struct {
	Keywords   int `json:"keywords"`
	Content    int `json:"content"`
	Impact     int `json:"impact"`
	Formatting int `json:"formatting"`
}

// DefaultWeights favour keyword match and substance over layout.
func DefaultWeights() Weights {
	return Weights{Keywords: 35, Content: 25, Impact: 25, Formatting: 15}
}

// Validate checks that the weights are non-negative and sum to 100.
func (w Weights) Validate() error {
	if w.Keywords < 0 || w.Content < 0 || w.Impact < 0 || w.Formatting < 0 {
		return fmt.Errorf("scoring weights must not be negative: %+v", w)
	}
	if sum := w.Keywords + w.Content + w.Impact + w.Formatting; sum != 100 {
		return fmt.Errorf("scoring weights must sum to 100, got %d", sum)
	}
	return nil
}

func (w Weights) combine(b types.Breakdown) int {
	total := float64(w.Keywords*b.Keywords+w.Content*b.Content+w.Impact*b.Impact+w.Formatting*b.Formatting) / 100
	return clamp(int(math.Round(total)))
}

func clamp(score int) int {
	return max(0, min(100, score))
}

// Scorer produces ScoreReports. The zero value is not usable; call New.
type Scorer struct {
	weights Weights
	lexicon LexiconSource
}

// Option configures a Scorer
type Option func(*Scorer)

// WithWeights overrides the default weights.
func WithWeights(w Weights) Option {
	return func(s *Scorer) {
		s.weights = w
	}
}

// WithLexicon sets where the lexicon comes from, e.g. a LexiconWatcher.
func WithLexicon(src LexiconSource) Option {
	return func(s *Scorer) {
		if src != nil {
			s.lexicon = src
		}
	}
}

// New creates a Scorer with the default weights and built-in lexicon unless
// overridden.
func New(opts ...Option) (*Scorer, error) {
	s := &Scorer{
		weights: DefaultWeights(),
		lexicon: DefaultLexicon(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.weights.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Weights returns the weights in use.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// LexiconSource returns where the scorer reads its lexicon from.
func (s *Scorer) LexiconSource() LexiconSource {
	return s.lexicon
}

// Score evaluates doc. jobDescription and targetKeywords fall back to the
// document's own targets when empty. Any well-typed input yields a complete
// report; sparse documents just score low.
func (s *Scorer) Score(doc types.ResumeDocument, jobDescription string, targetKeywords []string) types.ScoreReport {
	lex := s.lexicon.Lexicon()

	if jobDescription == "" {
		jobDescription = doc.TargetJobDescription
	}
	if len(targetKeywords) == 0 {
		targetKeywords = doc.TargetKeywords
	}

	sections := evaluateSections(doc)
	keywords := evaluateKeywords(lex, resumeCorpus(doc), jobtext.PlainText(jobDescription), targetKeywords)
	content := evaluateContent(lex, doc)

	breakdown := types.Breakdown{
		Keywords:   clamp(keywords.Score),
		Formatting: clamp(sections.Score),
		Content:    clamp(content.Score),
		Impact:     clamp(content.Impact),
	}

	// severity order: missing sections, then bullet quality, then keyword
	// coverage, then quantification
	var issues, suggestions []string
	issues = append(issues, sections.Issues...)
	issues = append(issues, content.Issues...)
	issues = append(issues, keywords.Issues...)
	issues = append(issues, content.ImpactIssues...)

	if len(sections.Issues) > 0 {
		suggestions = append(suggestions, suggestionFormatting)
	}
	if len(content.Issues) > 0 {
		suggestions = append(suggestions, suggestionContent)
	}
	if len(keywords.Issues) > 0 {
		if keywords.NoTarget {
			suggestions = append(suggestions, suggestionNoTarget)
		} else {
			suggestions = append(suggestions, suggestionKeywords)
		}
	}
	if len(content.ImpactIssues) > 0 {
		suggestions = append(suggestions, suggestionImpact)
	}

	return types.ScoreReport{
		OverallScore: s.weights.combine(breakdown),
		Breakdown:    breakdown,
		Issues:       nonNil(issues),
		Suggestions:  nonNil(suggestions),
		MetricInsights: map[string]types.MetricInsight{
			KeyKeywords:   keywordInsight(keywords),
			KeyFormatting: formattingInsight(sections),
			KeyContent:    contentInsight(content),
			KeyImpact:     impactInsight(content),
		},
		Details: types.ScoreDetails{
			MatchedKeywords:      keywords.Matched,
			MissingKeywords:      keywords.Missing,
			NoKeywordTarget:      keywords.NoTarget,
			WeakBullets:          content.Weak,
			StrongBulletExamples: content.Strong,
			BulletCount:          len(content.Bullets),
		},
	}
}

// ScoreRequest is Score for a request envelope.
func (s *Scorer) ScoreRequest(req types.ScoreRequest) types.ScoreReport {
	return s.Score(req.Resume, req.JobDescription, req.TargetKeywords)
}

// AssessBullet classifies a single bullet with the current lexicon.
func (s *Scorer) AssessBullet(text string) types.BulletAssessment {
	return AssessBullet(s.lexicon.Lexicon(), text)
}

// ExtractKeywords derives keywords from a job description heuristically.
func (s *Scorer) ExtractKeywords(jobDescription string) []string {
	return ExtractKeywords(s.lexicon.Lexicon(), jobtext.PlainText(jobDescription), MaxDerivedKeywords)
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
