package ai

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"atsscorer/internal/errors"
	"atsscorer/internal/jobtext"
	"atsscorer/internal/scoring"
	"atsscorer/internal/types"
)

// BulletImprover rewrites weak achievement bullets and grades both versions.
type BulletImprover struct {
	completer Completer
	scorer    *scoring.Scorer
	prompts   Prompts
	observer  Observer
	logger    *errors.Logger
}

// NewBulletImprover wires the improver. completer is required.
func NewBulletImprover(completer Completer, scorer *scoring.Scorer, prompts Prompts, observer Observer, logger *errors.Logger) *BulletImprover {
	if logger == nil {
		logger = errors.NewDiscard()
	}
	return &BulletImprover{
		completer: completer,
		scorer:    scorer,
		prompts:   prompts,
		observer:  observer,
		logger:    logger,
	}
}

type improvePayload struct {
	Improved  string `json:"improved"`
	Rationale string `json:"rationale"`
}

// Improve returns the rewritten bullet with the scorer's assessment of the
// original and of the rewrite.
func (b *BulletImprover) Improve(ctx context.Context, req types.ImproveBulletRequest) (*types.ImproveBulletResponse, error) {
	bullet := strings.TrimSpace(req.Bullet)
	if bullet == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "bullet is required", nil)
	}
	if b.completer == nil {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey, "bullet improvement model is not configured", nil)
	}

	prompt := buildImprovePrompt(b.prompts, bullet, jobtext.Markdown(req.JobDescription))

	start := time.Now()
	resp, err := b.completer.Complete(ctx, Request{
		Operation: OperationImprove,
		System:    b.prompts.System,
		Prompt:    prompt,
		JSON:      true,
	})
	if b.observer != nil {
		var usage *TokenUsage
		if resp != nil {
			usage = resp.Usage
		}
		b.observer.ObserveAI(ctx, OperationImprove, b.completer.Model(), time.Since(start), usage, err)
	}
	if err != nil {
		return nil, err
	}

	var payload improvePayload
	if err := json.Unmarshal([]byte(stripCodeFence(resp.Text)), &payload); err != nil {
		return nil, errors.NewAIError("AI_RESPONSE_PARSE_FAILED", "Failed to parse bullet improvement response", err)
	}
	improved := strings.Join(strings.Fields(payload.Improved), " ")
	if improved == "" {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed, "model returned an empty bullet", nil)
	}

	b.logger.Debug("Bullet improved", "original_length", len(bullet), "improved_length", len(improved))

	return &types.ImproveBulletResponse{
		Original:  b.scorer.AssessBullet(bullet),
		Improved:  b.scorer.AssessBullet(improved),
		Rationale: payload.Rationale,
	}, nil
}
