package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorChain(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := NewStorageError(ErrCodeStorageFailed, "failed to save resume", cause).
		WithContext("resume_id", "abc")
	wrapped := fmt.Errorf("handler: %w", err)

	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrorTypeStorage, appErr.Type)
	assert.Equal(t, "abc", appErr.Context["resume_id"])
	assert.ErrorIs(t, wrapped, cause)
	assert.True(t, IsType(wrapped, ErrorTypeStorage))
	assert.True(t, IsCode(wrapped, ErrCodeStorageFailed))
	assert.False(t, IsCode(fmt.Errorf("plain"), ErrCodeStorageFailed))
	assert.Contains(t, err.Error(), "caused by: disk full")
}

func TestInputShapeError(t *testing.T) {
	err := NewInputShapeError("skills must be an array", nil)
	assert.Equal(t, ErrorTypeValidation, err.Type)
	assert.Equal(t, ErrCodeInvalidInputShape, err.Code)
	assert.Equal(t, "INVALID_INPUT_SHAPE: skills must be an array", err.Error())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"info", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogErrorUnpacksAppError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, slog.LevelDebug)

	logger.LogError(NewAIError(ErrCodeAITimeout, "gemini timed out", nil).WithContext("operation", "extract"), "keyword extraction failed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "keyword extraction failed", entry["msg"])
	assert.Equal(t, "ai", entry["error_type"])
	assert.Equal(t, ErrCodeAITimeout, entry["error_code"])
	assert.Equal(t, "extract", entry["operation"])
}
