package ai

import (
	"context"
	"testing"
	"time"

	"atsscorer/internal/config"
	apperrors "atsscorer/internal/errors"
	"atsscorer/internal/scoring"
	"atsscorer/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServiceWithoutKeyIsHeuristicOnly(t *testing.T) {
	scorer, err := scoring.New()
	require.NoError(t, err)

	cfg := &config.Config{AI: config.AIConfig{
		Provider:    "gemini",
		Model:       "gemini-2.0-flash",
		Timeout:     time.Second,
		MaxRetries:  1,
		Temperature: 0.1,
	}}

	svc, err := NewService(context.Background(), cfg, Deps{Scorer: scorer})
	require.NoError(t, err)

	assert.False(t, svc.Enabled())
	assert.Nil(t, svc.Improver)
	require.NotNil(t, svc.Extractor)
	assert.False(t, svc.Extractor.AIEnabled())
	assert.Empty(t, svc.ModelInfo(context.Background()))

	got := svc.Extractor.Keywords(context.Background(), "Rust services. Rust tooling.", true)
	assert.Equal(t, types.KeywordSourceHeuristic, got.Source)
	assert.Contains(t, got.Keywords, "Rust")
}

func TestResolvePrompts(t *testing.T) {
	p := resolvePrompts(config.PromptConfig{System: "custom system"}, DefaultExtractPrompts)
	assert.Equal(t, "custom system", p.System)
	assert.Equal(t, DefaultExtractPrompts.User, p.User)

	p = resolvePrompts(config.PromptConfig{User: "  "}, DefaultImprovePrompts)
	assert.Equal(t, DefaultImprovePrompts, p)
}

func TestBuildPrompts(t *testing.T) {
	assert.Contains(t, buildExtractPrompt(DefaultExtractPrompts, 40, "posting text"), "at most 40 keywords")
	assert.Contains(t, buildExtractPrompt(DefaultExtractPrompts, 40, "posting text"), "posting text")

	withJob := buildImprovePrompt(DefaultImprovePrompts, "Did things", "Go role")
	assert.Contains(t, withJob, "TARGET JOB POSTING")
	withoutJob := buildImprovePrompt(DefaultImprovePrompts, "Did things", "")
	assert.NotContains(t, withoutJob, "TARGET JOB POSTING")
	assert.Contains(t, withoutJob, "Did things")
}

func TestNewServiceRequiresScorer(t *testing.T) {
	_, err := NewService(context.Background(), &config.Config{}, Deps{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a scorer")
}

func TestServiceOperations(t *testing.T) {
	ctx := context.Background()
	scorer, err := scoring.New()
	require.NoError(t, err)

	completer := &fakeCompleter{responses: []string{`{"keywords": ["Terraform"]}`}}
	svc := Assemble(scorer, NewKeywordExtractor(completer, nil, nil), nil)
	assert.True(t, svc.Enabled())

	doc := types.ResumeDocument{
		PersonalInfo: types.PersonalInfo{FullName: "Ada", Email: "ada@example.com"},
		Skills:       []string{"Terraform"},
	}

	t.Run("score with model keywords", func(t *testing.T) {
		report := svc.Score(ctx, types.ScoreRequest{Resume: doc, JobDescription: "Infra role", UseAI: true})
		assert.Equal(t, []string{"Terraform"}, report.Details.MatchedKeywords)
		assert.Equal(t, 100, report.Breakdown.Keywords)
	})

	t.Run("keywords heuristic when not requested", func(t *testing.T) {
		got := svc.Keywords(ctx, types.KeywordExtractRequest{JobDescription: "Kotlin services. Kotlin tooling."})
		assert.Equal(t, types.KeywordSourceHeuristic, got.Source)
	})

	t.Run("improve without model", func(t *testing.T) {
		_, err := svc.ImproveBullet(ctx, types.ImproveBulletRequest{Bullet: "Did things"})
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeMissingAPIKey))
	})
}
