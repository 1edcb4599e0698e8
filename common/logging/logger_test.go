package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamhub-systems/streamhub/common/middleware"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"bogus", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestNew(t *testing.T) {
	require.NotNil(t, New(slog.LevelInfo, "json").Logger)
	require.NotNil(t, New(slog.LevelDebug, "text").Logger)
	require.NotNil(t, New(slog.LevelWarn, "unknown").Logger)
}

func TestWithContext(t *testing.T) {
	l := New(slog.LevelInfo, "json")

	// Without a request ID the embedded logger is returned as-is.
	assert.Equal(t, l.Logger, l.WithContext(context.Background()))

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-42")
	assert.NotEqual(t, l.Logger, l.WithContext(ctx))
}
