package ai

import (
	"context"
	"fmt"

	"atsscorer/internal/cache"
	"atsscorer/internal/config"
	"atsscorer/internal/errors"
	"atsscorer/internal/scoring"
	"atsscorer/internal/types"
)

// NewCompleter builds the provider configured for one operation.
func NewCompleter(ctx context.Context, cfg *config.OperationAIConfig, operationType string, logger *errors.Logger) (Completer, error) {
	if logger != nil {
		logger.Debug("Initializing AI completer",
			"provider", cfg.Provider,
			"operation_type", operationType,
			"model", cfg.Model,
			"temperature", *cfg.Temperature,
			"timeout", *cfg.Timeout,
			"max_retries", *cfg.MaxRetries)
	}

	switch cfg.Provider {
	case "gemini":
		return NewGeminiProvider(ctx, cfg, operationType, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
}

// Service bundles the AI collaborators. Without an API key Extractor runs
// heuristic-only and Improver is nil.
type Service struct {
	Extractor *KeywordExtractor
	Improver  *BulletImprover

	scorer     *scoring.Scorer
	completers map[string]Completer
}

// Deps are the shared collaborators the AI service is wired with.
type Deps struct {
	Scorer   *scoring.Scorer
	Lexicon  scoring.LexiconSource
	Cache    cache.Cache
	Observer Observer
	Logger   *errors.Logger
}

// NewService builds extraction and improvement from configuration.
func NewService(ctx context.Context, cfg *config.Config, deps Deps) (*Service, error) {
	if deps.Scorer == nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "AI service requires a scorer", nil)
	}
	if deps.Lexicon == nil {
		deps.Lexicon = scoring.DefaultLexicon()
	}
	s := &Service{scorer: deps.Scorer, completers: map[string]Completer{}}

	var extractOpts []ExtractorOption
	if deps.Cache != nil {
		extractOpts = append(extractOpts, WithCache(deps.Cache))
	}
	if deps.Observer != nil {
		extractOpts = append(extractOpts, WithObserver(deps.Observer))
	}

	extractCfg := cfg.GetExtractConfig()
	extractOpts = append(extractOpts, WithPrompts(resolvePrompts(extractCfg.Prompts, DefaultExtractPrompts)))

	if extractCfg.APIKey == "" {
		if deps.Logger != nil {
			deps.Logger.Info("No AI API key configured; keyword extraction uses the heuristic extractor")
		}
		s.Extractor = NewKeywordExtractor(nil, deps.Lexicon, deps.Logger, extractOpts...)
		return s, nil
	}

	extractCompleter, err := NewCompleter(ctx, &extractCfg, OperationExtract, deps.Logger)
	if err != nil {
		return nil, err
	}
	s.completers[OperationExtract] = extractCompleter
	s.Extractor = NewKeywordExtractor(extractCompleter, deps.Lexicon, deps.Logger, extractOpts...)

	improveCfg := cfg.GetImproveConfig()
	improveCompleter, err := NewCompleter(ctx, &improveCfg, OperationImprove, deps.Logger)
	if err != nil {
		return nil, err
	}
	s.completers[OperationImprove] = improveCompleter
	s.Improver = NewBulletImprover(improveCompleter, deps.Scorer,
		resolvePrompts(improveCfg.Prompts, DefaultImprovePrompts), deps.Observer, deps.Logger)

	return s, nil
}

// Assemble wires a service from already built parts. improver may be nil.
func Assemble(scorer *scoring.Scorer, extractor *KeywordExtractor, improver *BulletImprover) *Service {
	if extractor == nil {
		extractor = NewKeywordExtractor(nil, scorer.LexiconSource(), nil)
	}
	s := &Service{Extractor: extractor, Improver: improver, scorer: scorer, completers: map[string]Completer{}}
	if extractor.completer != nil {
		s.completers[OperationExtract] = extractor.completer
	}
	if improver != nil && improver.completer != nil {
		s.completers[OperationImprove] = improver.completer
	}
	return s
}

// Score scores req, measuring it against model-extracted keywords when the
// request asks for them and a model is configured.
func (s *Service) Score(ctx context.Context, req types.ScoreRequest) types.ScoreReport {
	req.TargetKeywords = s.Extractor.Targets(ctx, req)
	return s.scorer.ScoreRequest(req)
}

// AssessBullet classifies one bullet with the scorer's lexicon.
func (s *Service) AssessBullet(text string) types.BulletAssessment {
	return s.scorer.AssessBullet(text)
}

// Keywords extracts target keywords from a job description.
func (s *Service) Keywords(ctx context.Context, req types.KeywordExtractRequest) types.KeywordExtractResponse {
	return s.Extractor.Keywords(ctx, req.JobDescription, req.UseAI)
}

// ImproveBullet rewrites one bullet. It fails with MISSING_API_KEY when no
// model is configured.
func (s *Service) ImproveBullet(ctx context.Context, req types.ImproveBulletRequest) (*types.ImproveBulletResponse, error) {
	if s.Improver == nil {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey, "bullet improvement requires an AI model; set ai.apiKey", nil)
	}
	return s.Improver.Improve(ctx, req)
}

// Enabled reports whether any model is configured.
func (s *Service) Enabled() bool {
	return len(s.completers) > 0
}

// ModelInfo checks each configured model.
func (s *Service) ModelInfo(ctx context.Context) map[string]*ModelInfo {
	out := make(map[string]*ModelInfo, len(s.completers))
	for op, c := range s.completers {
		if hr, ok := c.(HealthReporter); ok {
			out[op] = hr.GetModelInfo(ctx)
		}
	}
	return out
}

// BreakerStats returns circuit breaker statistics per operation.
func (s *Service) BreakerStats() map[string]any {
	out := make(map[string]any, len(s.completers))
	for op, c := range s.completers {
		if hr, ok := c.(HealthReporter); ok {
			out[op] = hr.GetCircuitBreakerStats()
		}
	}
	return out
}
