package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		level   slog.Level
		enabled bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{"warning", slog.LevelWarn, true},
		{" error ", slog.LevelError, true},
	}
	for _, tt := range tests {
		level, enabled, err := ParseLevel(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.level, level, tt.name)
		assert.Equal(t, tt.enabled, enabled, tt.name)
	}

	_, _, err := ParseLevel("trace")
	assert.Error(t, err)
}

func TestLogger_RenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, slog.LevelInfo).Error("stop failed", "error", errors.New("boom"))
	assert.Contains(t, buf.String(), "err=boom")
	assert.NotContains(t, buf.String(), "error=boom")
}

func TestFromConfig(t *testing.T) {
	logger, err := FromConfig("")
	require.NoError(t, err)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))

	logger, err = FromConfig("warn")
	require.NoError(t, err)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelWarn))
	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))

	_, err = FromConfig("nope")
	assert.Error(t, err)
}
