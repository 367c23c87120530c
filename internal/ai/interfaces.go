package ai

import (
	"context"
)

// Operation names used for breaker names, prompts and tracing.
const (
	OperationExtract = "extract_keywords"
	OperationImprove = "improve_bullet"
)

// Request is a single completion call.
type Request struct {
	Operation string
	System    string
	Prompt    string
	// JSON asks the provider for a JSON document shaped by the operation's response schema.
	JSON bool
}

// Response carries the raw model output.
type Response struct {
	Text  string
	Usage *TokenUsage
	Model string
}

// Completer is the upstream model collaborator.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Model() string
}

// HealthReporter is implemented by completers that can check model availability.
type HealthReporter interface {
	GetModelInfo(ctx context.Context) *ModelInfo
	GetCircuitBreakerStats() map[string]any
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}
