package log

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"", slog.LevelInfo},
		{"info", slog.LevelInfo},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"debug", slog.LevelDebug},
		{"trace", LevelTrace},
	}

	for _, tt := range tests {
		got, err := parseLevel(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}

	_, err := parseLevel("verbose")
	assert.Error(t, err)
}

func TestSetLogLevel(t *testing.T) {
	original := GetLogLevel()
	t.Cleanup(func() { _ = SetLogLevel(original) })

	require.NoError(t, SetLogLevel("debug"))
	assert.Equal(t, "debug", GetLogLevel())

	assert.Error(t, SetLogLevel("loud"))
	assert.Equal(t, "debug", GetLogLevel())
}

func TestReplaceAttr_TraceLevel(t *testing.T) {
	attr := replaceAttr(false)(nil, slog.Any(slog.LevelKey, LevelTrace))
	assert.Equal(t, "TRACE", attr.Value.String())

	attr = replaceAttr(true)(nil, slog.Any(slog.LevelKey, slog.LevelInfo))
	assert.Equal(t, slog.LevelInfo, attr.Value.Any())
}
