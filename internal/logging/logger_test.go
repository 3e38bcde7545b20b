package logging

import (
	"bytes"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"0", slog.LevelError},
		{"1", slog.LevelWarn},
		{"2", slog.LevelInfo},
		{"3", slog.LevelDebug},
		{"", slog.LevelWarn},
		{"invalid", slog.LevelWarn},
		{"99", slog.LevelWarn},
		{"-1", slog.LevelWarn},
		{"debug", slog.LevelDebug},
		{" Info ", slog.LevelInfo},
		{"ERROR", slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.input))
		})
	}
}

func TestSetLogLevel(t *testing.T) {
	originalLevel := logLevel.Level()
	defer logLevel.Set(originalLevel)

	SetLogLevel(slog.LevelDebug)
	assert.Equal(t, slog.LevelDebug, logLevel.Level())

	SetLogLevel(slog.LevelError)
	assert.Equal(t, slog.LevelError, logLevel.Level())
}

func TestLoggerAndFor(t *testing.T) {
	require.NotNil(t, Logger())
	assert.Same(t, Logger(), Logger())

	child := For("engine")
	require.NotNil(t, child)
	assert.NotSame(t, Logger(), child)
}

func TestSetOutputRedirectsDerivedLoggers(t *testing.T) {
	child := For("window")
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	child.Warn("rejecting window input", "text", "abc")
	assert.Contains(t, buf.String(), "component=window")
	assert.Contains(t, buf.String(), "text=abc")

	SetOutput(nil)
	child.Warn("dropped")
	assert.NotContains(t, buf.String(), "dropped")
}
