package ai

import (
	"errors"
	"testing"
	"time"

	"atsscorer/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func breakerConfig(enabled bool) *config.OperationAIConfig {
	return &config.OperationAIConfig{
		Provider: "gemini",
		Model:    "test-model",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          enabled,
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          time.Minute,
			MinRequests:      2,
			FailureThreshold: 0.5,
		},
	}
}

func TestCompletionBreakerNames(t *testing.T) {
	extract := NewCompletionBreaker[string](OperationExtract, breakerConfig(true), nil)
	improve := NewCompletionBreaker[string](OperationImprove, breakerConfig(true), nil)
	model := NewModelBreaker[int](OperationExtract, breakerConfig(true), nil)

	assert.Equal(t, "AI-extract_keywords", extract.Stats()["name"])
	assert.Equal(t, "AI-improve_bullet", improve.Stats()["name"])
	assert.Equal(t, "AI-Model-extract_keywords", model.Stats()["name"])
	assert.Equal(t, "closed", extract.Stats()["state"])
	assert.True(t, extract.IsHealthy())
	assert.False(t, extract.IsOpen())
}

func TestBreakerDisabledPassesThrough(t *testing.T) {
	b := NewCompletionBreaker[string]("disabled", breakerConfig(false), nil)
	require.Nil(t, b)

	out, err := b.Execute(func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.True(t, b.IsHealthy())
	assert.Equal(t, map[string]any{"enabled": false}, b.Stats())
}

func TestBreakerTripsOnFailureRatio(t *testing.T) {
	b := NewCompletionBreaker[string]("trip", breakerConfig(true), nil)
	boom := errors.New("upstream 503")

	for range 2 {
		_, err := b.Execute(func() (string, error) { return "", boom })
		require.ErrorIs(t, err, boom)
	}

	assert.True(t, b.IsOpen())
	assert.False(t, b.IsHealthy())

	called := false
	_, err := b.Execute(func() (string, error) {
		called = true
		return "", nil
	})
	assert.Error(t, err)
	assert.False(t, called, "open breaker must not call through")
}

func TestRatioTrip(t *testing.T) {
	trip := ratioTrip(3, 0.6)
	tests := []struct {
		name     string
		requests uint32
		failures uint32
		want     bool
	}{
		{"no requests", 0, 0, false},
		{"below minimum", 2, 2, false},
		{"below ratio", 5, 2, false},
		{"at ratio", 5, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counts := gobreakerCounts(tt.requests, tt.failures)
			assert.Equal(t, tt.want, trip(counts))
		})
	}
}
