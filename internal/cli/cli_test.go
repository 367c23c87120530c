package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"atsscorer/internal/auth"
	"atsscorer/internal/common"
	"atsscorer/internal/config"
	"atsscorer/internal/errors"
	"atsscorer/internal/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			LogLevel:         "error",
			DefaultFormat:    "json",
			SupportedFormats: []string{"json", "text", "markdown"},
		},
		Scoring: config.ScoringConfig{BatchConcurrency: 2},
	}
}

func TestBuildComponentsWithoutAIKey(t *testing.T) {
	comps, err := buildComponents(context.Background(), testConfig(), errors.NewDiscard(), nil)
	require.NoError(t, err)
	defer comps.Close()

	assert.False(t, comps.ai.Enabled())
	assert.Nil(t, comps.cache)
	assert.Nil(t, comps.lexiconReloads())
}

func TestBuildComponentsRejectsBadLexicon(t *testing.T) {
	cfg := testConfig()
	cfg.Scoring.LexiconFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := buildComponents(context.Background(), cfg, errors.NewDiscard(), nil)
	assert.Error(t, err)
}

func TestScoreBatchKeepsOrderAndRecordsFailures(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))
		return path
	}

	paths := []string{
		write("a.json", `{"personalInfo": {"fullName": "Ada"}, "skills": ["Go"]}`),
		write("b.yaml", "personalInfo:\n  fullName: Grace\nskills: [COBOL]\n"),
		write("c.json", `{"skills": "Go"}`),
	}

	comps, err := buildComponents(context.Background(), testConfig(), errors.NewDiscard(), nil)
	require.NoError(t, err)
	defer comps.Close()

	entries := scoreBatch(context.Background(), comps.ai, batchInput{
		Target: types.ScoreRequest{TargetKeywords: []string{"Go"}},
		Paths:  paths,
		fp:     common.NewFileProcessor(errors.NewDiscard(), 0),
	}, 2)

	require.Len(t, entries, 3)
	assert.Equal(t, "a.json", entries[0].Source)
	assert.Equal(t, "Ada", entries[0].FullName)
	require.NotNil(t, entries[0].Report)
	assert.Equal(t, 100, entries[0].Report.Breakdown.Keywords)

	assert.Equal(t, "Grace", entries[1].FullName)
	require.NotNil(t, entries[1].Report)
	assert.Equal(t, 0, entries[1].Report.Breakdown.Keywords)

	assert.Nil(t, entries[2].Report)
	assert.Contains(t, entries[2].Error, errors.ErrCodeInvalidInputShape)
}

func runRoot(t *testing.T, cfg *config.Config, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, Execute(context.Background(), cfg, errors.NewDiscard()))
	return out.String()
}

func TestVersionCommand(t *testing.T) {
	out := runRoot(t, testConfig(), "version")
	assert.Contains(t, out, "atsscorer version "+Version)
}

func TestTokenCommand(t *testing.T) {
	cfg := testConfig()
	cfg.Server.JWTSecret = "test-secret"
	cfg.Server.JWTIssuer = "atsscorer"
	subject := uuid.New()

	out := runRoot(t, cfg, "token", "--subject", subject.String(), "--email", "ada@example.com", "--ttl", "1h")
	token := strings.SplitN(out, "\n", 2)[0]

	tokens, err := auth.NewTokenService("test-secret", "atsscorer", time.Hour)
	require.NoError(t, err)
	claims, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, subject, claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
}
