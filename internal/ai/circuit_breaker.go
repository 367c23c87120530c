package ai

import (
	"fmt"

	"atsscorer/internal/config"
	"atsscorer/internal/errors"

	"github.com/sony/gobreaker/v2"
)

// Breaker wraps calls returning T with the circuit breaker pattern.
// A nil *Breaker passes calls straight through.
type Breaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// tripFunc decides when the breaker opens.
type tripFunc func(counts gobreaker.Counts) bool

func ratioTrip(minRequests uint32, threshold float64) tripFunc {
	return func(counts gobreaker.Counts) bool {
		if counts.Requests == 0 {
			return false
		}
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= minRequests && failureRatio >= threshold
	}
}

func newBreaker[T any](name, operationType string, cfg config.CircuitBreakerConfig, trip tripFunc, logger *errors.Logger) *Breaker[T] {
	if !cfg.Enabled {
		return nil
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: trip,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if logger == nil {
				return
			}
			logger.Info("Circuit breaker state changed",
				"name", name,
				"operation_type", operationType,
				"from", from.String(),
				"to", to.String())
		},
	}

	return &Breaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// NewCompletionBreaker creates the breaker guarding generation calls of one operation.
func NewCompletionBreaker[T any](operationType string, cfg *config.OperationAIConfig, logger *errors.Logger) *Breaker[T] {
	cb := cfg.CircuitBreaker
	return newBreaker[T](fmt.Sprintf("AI-%s", operationType), operationType, cb, ratioTrip(cb.MinRequests, cb.FailureThreshold), logger)
}

// NewModelBreaker creates the breaker guarding model lookups. Model info only
// feeds health checks, so it trips later than the completion breaker.
func NewModelBreaker[T any](operationType string, cfg *config.OperationAIConfig, logger *errors.Logger) *Breaker[T] {
	return newBreaker[T](fmt.Sprintf("AI-Model-%s", operationType), operationType, cfg.CircuitBreaker, ratioTrip(5, 0.8), logger)
}

// Execute runs fn under breaker protection.
func (b *Breaker[T]) Execute(fn func() (T, error)) (T, error) {
	if b == nil || b.cb == nil {
		return fn()
	}
	return b.cb.Execute(fn)
}

// Stats returns breaker statistics.
func (b *Breaker[T]) Stats() map[string]any {
	if b == nil || b.cb == nil {
		return map[string]any{"enabled": false}
	}
	return map[string]any{
		"name":    b.cb.Name(),
		"state":   b.cb.State().String(),
		"counts":  b.cb.Counts(),
		"enabled": true,
	}
}

// IsHealthy reports whether the breaker is closed. A missing breaker is healthy.
func (b *Breaker[T]) IsHealthy() bool {
	if b == nil || b.cb == nil {
		return true
	}
	return b.cb.State() == gobreaker.StateClosed
}

// IsOpen reports whether calls are currently being rejected.
func (b *Breaker[T]) IsOpen() bool {
	return b != nil && b.cb != nil && b.cb.State() == gobreaker.StateOpen
}
