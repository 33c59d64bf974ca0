package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/safar/pos-store/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" DEBUG ", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "level %q", tt.in)
	}
}

func TestNewWritesServiceAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.ServiceConfig{Name: "pos-store", Environment: "test", LogLevel: "info"}, &buf)

	logger.Debug("hidden")
	logger.Info("sale concluded", "sale_id", "abc")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "sale concluded", entry["msg"])
	assert.Equal(t, "pos-store", entry["service"])
	assert.Equal(t, "test", entry["environment"])
	assert.Equal(t, "abc", entry["sale_id"])
}
