package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"atsscorer/internal/ai"
	"atsscorer/internal/scoring"
	"atsscorer/internal/types"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	scorer, err := scoring.New()
	require.NoError(t, err)
	server := New(ai.Assemble(scorer, nil, nil), "test", nil)

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func call[T any](t *testing.T, session *mcp.ClientSession, name string, args map[string]any) T {
	t.Helper()

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	require.False(t, res.IsError, "tool %s failed: %+v", name, res.Content)
	require.NotEmpty(t, res.Content)

	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	var out T
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out
}

func TestListTools(t *testing.T) {
	session := connect(t)

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"score_resume", "extract_keywords", "assess_bullet"}, names)
}

func TestScoreResumeTool(t *testing.T) {
	session := connect(t)

	report := call[types.ScoreReport](t, session, "score_resume", map[string]any{
		"resume": map[string]any{
			"personalInfo": map[string]any{"fullName": "Ada Lovelace", "email": "ada@example.com"},
			"summary":      "Backend engineer",
			"workHistory": []any{map[string]any{
				"title": "Engineer", "company": "Analytical", "startDate": "2020-01",
				"achievements": []any{"Reduced latency by 40% across 12 services"},
			}},
			"skills": []any{"Go", "PostgreSQL"},
		},
		"targetKeywords": []any{"Go", "Kafka"},
	})

	assert.Equal(t, []string{"Go"}, report.Details.MatchedKeywords)
	assert.Equal(t, []string{"Kafka"}, report.Details.MissingKeywords)
	assert.Equal(t, 50, report.Breakdown.Keywords)
	assert.Equal(t, 1, report.Details.BulletCount)
}

func TestScoreResumeToolScoresDegradedResume(t *testing.T) {
	session := connect(t)

	report := call[types.ScoreReport](t, session, "score_resume", map[string]any{
		"resume": map[string]any{
			"personalInfo": map[string]any{"fullName": "Ada Lovelace", "email": "ada-at-example"},
			"summary":      strings.Repeat("Go engineer. ", 50),
			"workHistory": []any{map[string]any{
				"title": "Engineer", "company": "Analytical", "startDate": "2021-05", "endDate": "2020-01",
			}},
		},
	})

	assert.Contains(t, report.Issues, "Use a valid email address")
	assert.Contains(t, report.Issues, "Shorten your summary to 500 characters")
	assert.Contains(t, report.Issues, "Fix the date range for Engineer at Analytical")
}

func TestScoreResumeToolRejectsMalformedResume(t *testing.T) {
	session := connect(t)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "score_resume",
		Arguments: map[string]any{"resume": map[string]any{"skills": "Go, SQL"}},
	})
	if err == nil {
		assert.True(t, res.IsError)
	}
}

func TestExtractKeywordsTool(t *testing.T) {
	session := connect(t)

	resp := call[types.KeywordExtractResponse](t, session, "extract_keywords", map[string]any{
		"jobDescription": "<p>Rust services. Rust tooling.</p>",
	})
	assert.Equal(t, types.KeywordSourceHeuristic, resp.Source)
	assert.Contains(t, resp.Keywords, "Rust")
}

func TestAssessBulletTool(t *testing.T) {
	session := connect(t)

	weak := call[types.BulletAssessment](t, session, "assess_bullet", map[string]any{"bullet": "Responsible for the build"})
	assert.True(t, weak.Weak)
	assert.False(t, weak.HasMetric)

	strong := call[types.BulletAssessment](t, session, "assess_bullet", map[string]any{"bullet": "Reduced build time by 40%"})
	assert.True(t, strong.HasActionVerb)
	assert.True(t, strong.HasMetric)
	assert.False(t, strong.Weak)
}
