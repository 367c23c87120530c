package ai

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"time"

	"atsscorer/internal/config"
	"atsscorer/internal/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const maxBackoff = 30 * time.Second

// GeminiProvider implements Completer for Google Gemini
type GeminiProvider struct {
	client         *genai.Client
	config         *config.OperationAIConfig
	operation      string
	circuitBreaker *Breaker[*genai.GenerateContentResponse]
	modelBreaker   *Breaker[*genai.Model]
	logger         *errors.Logger
	// baseDelay is the first retry backoff; doubled per attempt.
	baseDelay time.Duration
}

var (
	_ Completer      = (*GeminiProvider)(nil)
	_ HealthReporter = (*GeminiProvider)(nil)
)

// NewGeminiProvider creates a new Gemini provider instance for a specific operation
func NewGeminiProvider(ctx context.Context, cfg *config.OperationAIConfig, operationType string, logger *errors.Logger) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.NewConfigError(errors.ErrCodeMissingAPIKey,
			"Gemini API key is not configured (set ATSSCORER_AI_APIKEY or GEMINI_API_KEY)", nil)
	}
	if logger == nil {
		logger = errors.NewDiscard()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: *cfg.Timeout},
	})
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed, "Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client:         client,
		config:         cfg,
		operation:      operationType,
		circuitBreaker: NewCompletionBreaker[*genai.GenerateContentResponse](operationType, cfg, logger),
		modelBreaker:   NewModelBreaker[*genai.Model](operationType, cfg, logger),
		logger:         logger,
		baseDelay:      time.Second,
	}, nil
}

// Model returns the configured model name.
func (g *GeminiProvider) Model() string {
	return g.config.Model
}

// Complete sends one prompt to Gemini under tracing, the circuit breaker and retries.
func (g *GeminiProvider) Complete(ctx context.Context, req Request) (*Response, error) {
	operation := req.Operation
	if operation == "" {
		operation = g.operation
	}

	tracer := otel.Tracer("atsscorer.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+operation)
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
		attribute.Int("input.prompt_length", len(req.Prompt)),
	)

	genaiConfig := g.generateConfig(req)

	timeoutCtx, cancel := context.WithTimeout(ctx, *g.config.Timeout)
	defer cancel()

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return g.executeWithRetry(timeoutCtx, operation, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(timeoutCtx, g.config.Model, genai.Text(req.Prompt), genaiConfig)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		code := errors.ErrCodeAIServiceFailed
		if stderrors.Is(err, context.DeadlineExceeded) {
			code = errors.ErrCodeAITimeout
		}
		return nil, errors.NewAIError(code, "Failed to generate content for "+operation, err)
	}

	usage := extractTokenUsage(result)
	if usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", usage.InputTokens),
			attribute.Int64("ai.tokens.output", usage.OutputTokens),
			attribute.Int64("ai.tokens.total", usage.TotalTokens),
		)
	}
	span.SetAttributes(attribute.Bool("success", true))

	return &Response{Text: result.Text(), Usage: usage, Model: g.config.Model}, nil
}

func (g *GeminiProvider) generateConfig(req Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = responseSchemas[req.Operation]
	}
	if *g.config.Temperature > 0 {
		cfg.Temperature = g.config.Temperature
	}
	if *g.config.UseSystemPrompts && req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	return cfg
}

// responseSchemas constrains JSON output per operation
var responseSchemas = map[string]*genai.Schema{
	OperationExtract: {
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"keywords": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeString},
			},
		},
		Required: []string{"keywords"},
	},
	OperationImprove: {
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"improved":  {Type: genai.TypeString},
			"rationale": {Type: genai.TypeString},
		},
		Required: []string{"improved"},
	},
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{Name: g.config.Model}

	checkCtx, cancel := context.WithTimeout(ctx, min(*g.config.Timeout, 10*time.Second))
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	modelInfo.DisplayName = model.DisplayName
	modelInfo.Version = model.Version
	return modelInfo
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":    g.circuitBreaker.Stats(),
		"model_operations": g.modelBreaker.Stats(),
		"overall_healthy":  g.circuitBreaker.IsHealthy() && g.modelBreaker.IsHealthy(),
	}
}

// executeWithRetry executes an AI operation with retry logic and exponential backoff
func (g *GeminiProvider) executeWithRetry(ctx context.Context, operation string, fn func() (*genai.GenerateContentResponse, error)) (*genai.GenerateContentResponse, error) {
	var lastErr error
	maxRetries := *g.config.MaxRetries

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := backoffFor(g.baseDelay, attempt)
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", maxRetries,
				"backoff", backoff,
				"error", lastErr.Error())

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"successful_attempt", attempt+1)
			}
			return result, nil
		}
		lastErr = err

		if !isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	g.logger.LogError(lastErr, "AI operation failed",
		"operation", operation,
		"max_retries", maxRetries)

	return nil, fmt.Errorf("operation '%s' failed: %w", operation, lastErr)
}

// backoffFor doubles base per attempt, adds up to 10% jitter and caps at maxBackoff.
func backoffFor(base time.Duration, attempt int) time.Duration {
	delay := time.Duration(math.Pow(2, float64(attempt-1))) * base
	if jitterMax := int64(float64(delay) * 0.1); jitterMax > 0 {
		if j, err := rand.Int(rand.Reader, big.NewInt(jitterMax)); err == nil {
			delay += time.Duration(j.Int64())
		}
	}
	return min(delay, maxBackoff)
}

// isRetryableError determines if an error should trigger a retry
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}

	var apiErr *googleapi.Error
	if stderrors.As(err, &apiErr) {
		return retryableStatus(apiErr.Code)
	}

	var genaiErr genai.APIError
	if stderrors.As(err, &genaiErr) {
		return retryableStatus(genaiErr.Code)
	}

	return false
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}
	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
