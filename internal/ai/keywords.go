package ai

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"atsscorer/internal/cache"
	"atsscorer/internal/errors"
	"atsscorer/internal/jobtext"
	"atsscorer/internal/scoring"
	"atsscorer/internal/types"
)

// Observer receives one event per upstream model call.
type Observer interface {
	ObserveAI(ctx context.Context, operation, model string, duration time.Duration, usage *TokenUsage, err error)
}

// KeywordExtractor derives target keywords from a job description with a model,
// falling back to the lexicon-driven heuristic when the model is unavailable.
type KeywordExtractor struct {
	completer Completer // nil means heuristic only
	cache     cache.Cache
	lexicon   scoring.LexiconSource
	prompts   Prompts
	observer  Observer
	logger    *errors.Logger
}

// ExtractorOption configures a KeywordExtractor.
type ExtractorOption func(*KeywordExtractor)

// WithCache caches model responses by prompt and model.
func WithCache(c cache.Cache) ExtractorOption {
	return func(e *KeywordExtractor) { e.cache = c }
}

// WithPrompts overrides the built-in prompts.
func WithPrompts(p Prompts) ExtractorOption {
	return func(e *KeywordExtractor) { e.prompts = p }
}

// WithObserver reports every model call.
func WithObserver(o Observer) ExtractorOption {
	return func(e *KeywordExtractor) { e.observer = o }
}

// NewKeywordExtractor wires the extractor. completer may be nil.
func NewKeywordExtractor(completer Completer, lexicon scoring.LexiconSource, logger *errors.Logger, opts ...ExtractorOption) *KeywordExtractor {
	if lexicon == nil {
		lexicon = scoring.DefaultLexicon()
	}
	if logger == nil {
		logger = errors.NewDiscard()
	}
	e := &KeywordExtractor{
		completer: completer,
		lexicon:   lexicon,
		prompts:   DefaultExtractPrompts,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AIEnabled reports whether a model is wired in.
func (e *KeywordExtractor) AIEnabled() bool {
	return e.completer != nil
}

type keywordPayload struct {
	Keywords []string `json:"keywords"`
}

// Extract asks the model for keywords. The result is de-duplicated
// case-insensitively, trimmed and capped at scoring.MaxDerivedKeywords.
func (e *KeywordExtractor) Extract(ctx context.Context, jobDescription string) ([]string, error) {
	if e.completer == nil {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey, "keyword extraction model is not configured", nil)
	}
	text := jobtext.Markdown(jobDescription)
	if text == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "job description is empty", nil)
	}

	prompt := buildExtractPrompt(e.prompts, scoring.MaxDerivedKeywords, text)
	key := cache.Key(OperationExtract, e.completer.Model(), e.prompts.System, prompt)
	if cached, ok := cache.LoadJSON[[]string](ctx, e.cache, key); ok {
		return cached, nil
	}

	start := time.Now()
	resp, err := e.completer.Complete(ctx, Request{
		Operation: OperationExtract,
		System:    e.prompts.System,
		Prompt:    prompt,
		JSON:      true,
	})
	if e.observer != nil {
		var usage *TokenUsage
		if resp != nil {
			usage = resp.Usage
		}
		e.observer.ObserveAI(ctx, OperationExtract, e.completer.Model(), time.Since(start), usage, err)
	}
	if err != nil {
		return nil, err
	}

	keywords, err := parseKeywords(resp.Text)
	if err != nil {
		return nil, err
	}
	cache.StoreJSON(ctx, e.cache, key, keywords)
	return keywords, nil
}

func parseKeywords(raw string) ([]string, error) {
	var payload keywordPayload
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &payload); err != nil {
		return nil, errors.NewAIError("AI_RESPONSE_PARSE_FAILED", "Failed to parse keyword extraction response", err)
	}
	cleaned := make([]string, 0, len(payload.Keywords))
	for _, kw := range payload.Keywords {
		if kw = strings.Join(strings.Fields(kw), " "); kw != "" {
			cleaned = append(cleaned, kw)
		}
	}
	keywords := types.UniqueFold(cleaned)
	if len(keywords) > scoring.MaxDerivedKeywords {
		keywords = keywords[:scoring.MaxDerivedKeywords]
	}
	return keywords, nil
}

// stripCodeFence removes a ```json fence some models wrap around JSON output.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

// Keywords returns model keywords when useAI is set and a model is wired in,
// and the heuristic extraction otherwise. Model failures are logged and
// degrade to the heuristic.
func (e *KeywordExtractor) Keywords(ctx context.Context, jobDescription string, useAI bool) types.KeywordExtractResponse {
	if useAI && e.completer != nil {
		keywords, err := e.Extract(ctx, jobDescription)
		if err == nil && len(keywords) > 0 {
			return types.KeywordExtractResponse{Keywords: keywords, Source: types.KeywordSourceAI}
		}
		if err != nil {
			e.logger.LogError(err, "AI keyword extraction failed, using heuristic extraction")
		}
	}
	keywords := scoring.ExtractKeywords(e.lexicon.Lexicon(), jobtext.PlainText(jobDescription), scoring.MaxDerivedKeywords)
	if keywords == nil {
		keywords = []string{}
	}
	return types.KeywordExtractResponse{Keywords: keywords, Source: types.KeywordSourceHeuristic}
}

// Targets resolves the keywords a score request is measured against when the
// caller asked for model extraction. Explicit keywords, on the request or the
// document, always win. A nil result lets the scorer derive keywords itself.
func (e *KeywordExtractor) Targets(ctx context.Context, req types.ScoreRequest) []string {
	if len(req.TargetKeywords) > 0 {
		return req.TargetKeywords
	}
	if !req.UseAI || e.completer == nil || len(req.Resume.TargetKeywords) > 0 {
		return nil
	}
	jobDescription := req.JobDescription
	if jobDescription == "" {
		jobDescription = req.Resume.TargetJobDescription
	}
	if strings.TrimSpace(jobDescription) == "" {
		return nil
	}
	keywords, err := e.Extract(ctx, jobDescription)
	if err != nil {
		e.logger.LogError(err, "AI keyword extraction failed, scoring with heuristic keywords")
		return nil
	}
	return keywords
}
