package observability

import (
	"context"
	"fmt"
	"time"

	"atsscorer/internal/ai"
	"atsscorer/internal/cache"
	"atsscorer/internal/config"
	"atsscorer/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the service instruments.
type Metrics struct {
	toggles config.CustomMetricsConfig
	meter   metric.Meter

	// Scoring
	ScoreRequests metric.Int64Counter
	OverallScore  metric.Int64Histogram
	StoreOps      metric.Int64Counter

	// AI
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	// Infrastructure
	RateLimitHits metric.Int64Counter
}

func (m *Manager) initCustomMetrics() error {
	meter := m.meterProvider.Meter(m.cfg.ServiceName)
	metrics := &Metrics{toggles: m.cfg.CustomMetrics, meter: meter}

	var err error
	if metrics.ScoreRequests, err = meter.Int64Counter(
		"atsscorer_score_requests_total",
		metric.WithDescription("Total number of scored documents"),
	); err != nil {
		return fmt.Errorf("failed to create score request metric: %w", err)
	}
	if metrics.OverallScore, err = meter.Int64Histogram(
		"atsscorer_overall_score",
		metric.WithDescription("Distribution of overall ATS scores"),
		metric.WithExplicitBucketBoundaries(20, 30, 40, 50, 60, 70, 80, 90, 100),
	); err != nil {
		return fmt.Errorf("failed to create overall score metric: %w", err)
	}
	if metrics.StoreOps, err = meter.Int64Counter(
		"atsscorer_resume_store_operations_total",
		metric.WithDescription("Résumé store operations by kind and outcome"),
	); err != nil {
		return fmt.Errorf("failed to create store operation metric: %w", err)
	}

	if metrics.AIProcessingTime, err = meter.Float64Histogram(
		"atsscorer_ai_processing_duration_seconds",
		metric.WithDescription("Time spent processing AI requests"),
		metric.WithUnit("s"),
	); err != nil {
		return fmt.Errorf("failed to create AI processing time metric: %w", err)
	}
	if metrics.AIRequestCount, err = meter.Int64Counter(
		"atsscorer_ai_requests_total",
		metric.WithDescription("Total number of AI requests"),
	); err != nil {
		return fmt.Errorf("failed to create AI request count metric: %w", err)
	}
	if metrics.AIErrorCount, err = meter.Int64Counter(
		"atsscorer_ai_errors_total",
		metric.WithDescription("Total number of AI request errors"),
	); err != nil {
		return fmt.Errorf("failed to create AI error count metric: %w", err)
	}
	if metrics.AITokenUsage, err = meter.Int64Histogram(
		"atsscorer_ai_token_usage",
		metric.WithDescription("Token usage for AI requests (input, output, total)"),
		metric.WithUnit("tokens"),
	); err != nil {
		return fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	if metrics.RateLimitHits, err = meter.Int64Counter(
		"atsscorer_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limited requests"),
	); err != nil {
		return fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	m.metrics = metrics
	return nil
}

// RecordScore counts one scored document and records its overall score.
// source names the surface that produced it (http, batch, cli, mcp).
func (m *Metrics) RecordScore(ctx context.Context, source string, report types.ScoreReport) {
	if !m.toggles.BusinessMetrics.Enabled {
		return
	}
	attrs := metric.WithAttributes(attribute.String("source", source))
	m.ScoreRequests.Add(ctx, 1, attrs)
	m.OverallScore.Record(ctx, int64(report.OverallScore), attrs)
}

// RecordStoreOperation counts one résumé store call.
func (m *Metrics) RecordStoreOperation(ctx context.Context, operation string, err error) {
	if !m.toggles.BusinessMetrics.Enabled {
		return
	}
	m.StoreOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	))
}

// ObserveAI records one completion call. It satisfies ai.Observer.
func (m *Metrics) ObserveAI(ctx context.Context, operation, model string, duration time.Duration, usage *ai.TokenUsage, err error) {
	if !m.toggles.AIOperations.Enabled {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.String("model", model),
		attribute.Bool("success", err == nil),
	}

	if m.toggles.AIOperations.TrackDuration {
		m.AIProcessingTime.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}
	m.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	if err != nil {
		m.AIErrorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	}

	if usage == nil || !m.toggles.AIOperations.TrackTokenUsage {
		return
	}
	tokenTypes := []struct {
		tokenType string
		value     int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
		{"total", usage.TotalTokens},
	}
	for _, tt := range tokenTypes {
		tokenAttrs := append([]attribute.KeyValue{attribute.String("token_type", tt.tokenType)}, attrs...)
		m.AITokenUsage.Record(ctx, tt.value, metric.WithAttributes(tokenAttrs...))
	}
}

// RecordRateLimitHit counts one rejected request.
func (m *Metrics) RecordRateLimitHit(ctx context.Context, endpoint string) {
	if !m.toggles.Infrastructure.Enabled || !m.toggles.Infrastructure.TrackRateLimits {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("endpoint", endpoint)))
}

// RegisterCacheStats exports cache hit, miss and size readings taken from stats at collection time.
func (m *Metrics) RegisterCacheStats(stats func() cache.Stats) error {
	if !m.toggles.Infrastructure.Enabled || !m.toggles.Infrastructure.TrackCache {
		return nil
	}

	hits, err := m.meter.Int64ObservableCounter("atsscorer_cache_hits_total",
		metric.WithDescription("Response cache hits"))
	if err != nil {
		return fmt.Errorf("failed to create cache hits metric: %w", err)
	}
	misses, err := m.meter.Int64ObservableCounter("atsscorer_cache_misses_total",
		metric.WithDescription("Response cache misses"))
	if err != nil {
		return fmt.Errorf("failed to create cache misses metric: %w", err)
	}
	entries, err := m.meter.Int64ObservableGauge("atsscorer_cache_entries",
		metric.WithDescription("Entries held in the in-process cache tier"))
	if err != nil {
		return fmt.Errorf("failed to create cache entries metric: %w", err)
	}

	_, err = m.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := stats()
		o.ObserveInt64(hits, s.Hits)
		o.ObserveInt64(misses, s.Misses)
		o.ObserveInt64(entries, int64(s.Entries))
		return nil
	}, hits, misses, entries)
	if err != nil {
		return fmt.Errorf("failed to register cache callback: %w", err)
	}
	return nil
}
