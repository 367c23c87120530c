// Package mcpserver exposes the scorer as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"strings"

	"atsscorer/internal/ai"
	"atsscorer/internal/common"
	"atsscorer/internal/errors"
	"atsscorer/internal/types"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ScoreInput is the argument of score_resume.
type ScoreInput struct {
	Resume         map[string]any `json:"resume" jsonschema:"Structured resume: personalInfo, summary, workHistory, education, skills"`
	JobDescription string         `json:"jobDescription,omitempty" jsonschema:"Job description text or HTML to derive target keywords from"`
	TargetKeywords []string       `json:"targetKeywords,omitempty" jsonschema:"Explicit target keywords; take precedence over the job description"`
	UseAI          bool           `json:"useAI,omitempty" jsonschema:"Extract keywords with the configured AI model"`
}

// ExtractInput is the argument of extract_keywords.
type ExtractInput struct {
	JobDescription string `json:"jobDescription" jsonschema:"Job description text or HTML"`
	UseAI          bool   `json:"useAI,omitempty" jsonschema:"Use the configured AI model, falling back to heuristics on failure"`
}

// BulletInput is the argument of assess_bullet.
type BulletInput struct {
	Bullet string `json:"bullet" jsonschema:"One achievement bullet"`
}

// New builds the MCP server with every tool registered.
func New(svc *ai.Service, version string, logger *errors.Logger) *mcp.Server {
	if logger == nil {
		logger = errors.NewDiscard()
	}
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "atsscorer",
		Version: version,
	}, nil)

	registerScoreResume(server, svc, logger)
	registerExtractKeywords(server, svc)
	registerAssessBullet(server, svc)
	return server
}

// Run serves tools on stdin/stdout until ctx is cancelled or the client
// disconnects.
func Run(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

func registerScoreResume(server *mcp.Server, svc *ai.Service, logger *errors.Logger) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "score_resume",
		Description: "Score a structured resume for ATS compatibility against a job description or keyword list. Returns the overall score, the keywords/formatting/content/impact breakdown, issues, suggestions and per-component insights.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ScoreInput) (*mcp.CallToolResult, *types.ScoreReport, error) {
		doc, err := decodeResume(input.Resume)
		if err != nil {
			return nil, nil, err
		}
		req := types.ScoreRequest{
			Resume:         doc,
			JobDescription: input.JobDescription,
			TargetKeywords: input.TargetKeywords,
			UseAI:          input.UseAI,
		}
		// content problems are reported as issues, never rejected
		report := svc.Score(ctx, req)
		logger.Debug("score_resume", "overall", report.OverallScore)
		return nil, &report, nil
	})
}

// decodeResume runs the loosely typed tool argument through the same schema
// check and decoding as file input.
func decodeResume(resume map[string]any) (types.ResumeDocument, error) {
	raw, err := json.Marshal(resume)
	if err != nil {
		return types.ResumeDocument{}, errors.NewInputShapeError("resume is not a JSON object", err)
	}
	return common.DecodeDocument(raw, false)
}

func registerExtractKeywords(server *mcp.Server, svc *ai.Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "extract_keywords",
		Description: "Extract up to 40 target keywords and phrases from a job description, ranked by frequency.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ExtractInput) (*mcp.CallToolResult, *types.KeywordExtractResponse, error) {
		if strings.TrimSpace(input.JobDescription) == "" {
			return nil, nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "jobDescription is required", nil)
		}
		resp := svc.Keywords(ctx, types.KeywordExtractRequest{JobDescription: input.JobDescription, UseAI: input.UseAI})
		return nil, &resp, nil
	})
}

func registerAssessBullet(server *mcp.Server, svc *ai.Service) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "assess_bullet",
		Description: "Classify one achievement bullet: action verb, quantified result, score and whether it is weak.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(_ context.Context, _ *mcp.CallToolRequest, input BulletInput) (*mcp.CallToolResult, *types.BulletAssessment, error) {
		if strings.TrimSpace(input.Bullet) == "" {
			return nil, nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "bullet is required", nil)
		}
		assessment := svc.AssessBullet(input.Bullet)
		return nil, &assessment, nil
	})
}
