package cli

import (
	"context"
	"fmt"
	"time"

	"atsscorer/internal/ai"
	"atsscorer/internal/cache"
	"atsscorer/internal/config"
	"atsscorer/internal/errors"
	"atsscorer/internal/scoring"
)

const lexiconDebounce = 500 * time.Millisecond

// components are the scoring collaborators shared by every command
type components struct {
	scorer  *scoring.Scorer
	ai      *ai.Service
	cache   *cache.Tiered
	watcher *scoring.LexiconWatcher
	logger  *errors.Logger
}

// buildComponents wires the scorer, the lexicon source, the AI response cache
// and the AI service from configuration. observer may be nil.
func buildComponents(ctx context.Context, cfg *config.Config, logger *errors.Logger, observer ai.Observer) (*components, error) {
	c := &components{logger: logger}

	lexicon, err := c.lexiconSource(cfg.Scoring)
	if err != nil {
		return nil, err
	}

	weights := scoring.DefaultWeights()
	if cfg.Scoring.Weights.Sum() > 0 {
		weights = scoring.Weights{
			Keywords:   cfg.Scoring.Weights.Keywords,
			Content:    cfg.Scoring.Weights.Content,
			Impact:     cfg.Scoring.Weights.Impact,
			Formatting: cfg.Scoring.Weights.Formatting,
		}
	}

	c.scorer, err = scoring.New(scoring.WithWeights(weights), scoring.WithLexicon(lexicon))
	if err != nil {
		c.Close()
		return nil, err
	}

	deps := ai.Deps{Scorer: c.scorer, Lexicon: lexicon, Observer: observer, Logger: logger}
	if cfg.Cache.Enabled {
		c.cache = cache.New(ctx, cache.Options{
			TTL:             cfg.Cache.TTL,
			MaxEntries:      cfg.Cache.MaxEntries,
			CleanupInterval: cfg.Cache.CleanupInterval,
			RedisURL:        cfg.Cache.RedisURL,
		}, logger)
		deps.Cache = c.cache
	}

	c.ai, err = ai.NewService(ctx, cfg, deps)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create AI service: %w", err)
	}
	return c, nil
}

func (c *components) lexiconSource(cfg config.ScoringConfig) (scoring.LexiconSource, error) {
	if cfg.LexiconFile == "" {
		return scoring.DefaultLexicon(), nil
	}
	if !cfg.WatchLexicon {
		return scoring.LoadLexicon(cfg.LexiconFile)
	}

	watcher, err := scoring.NewLexiconWatcher(cfg.LexiconFile, lexiconDebounce, c.logger)
	if err != nil {
		return nil, err
	}
	if err := watcher.Start(); err != nil {
		return nil, err
	}
	c.watcher = watcher
	return watcher, nil
}

// lexiconReloads reports hot reloads, or nil when the lexicon is static
func (c *components) lexiconReloads() func() int64 {
	if c.watcher == nil {
		return nil
	}
	return c.watcher.Reloads
}

// Close stops the lexicon watcher and releases the cache.
func (c *components) Close() {
	if c.watcher != nil {
		if err := c.watcher.Stop(); err != nil {
			c.logger.LogError(err, "Failed to stop lexicon watcher")
		}
	}
	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			c.logger.LogError(err, "Failed to close cache")
		}
	}
}
