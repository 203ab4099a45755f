package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" INFO ", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"chatty", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{Level: "info", Format: "json", Service: "signald"})

	log.Debug("hidden")
	log.Info("signal computed", "fixture_id", 55, "action", "PREPARE")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "signald", rec["service"])
	assert.Equal(t, "signal computed", rec["msg"])
	assert.Equal(t, "PREPARE", rec["action"])
	assert.Contains(t, rec, "timestamp")
	assert.NotContains(t, rec, "time")
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, Options{Level: "warn"})

	log.Info("dropped")
	log.Warn("odds unavailable", "fixture_id", 7)

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "odds unavailable")
	assert.Contains(t, out, "fixture_id=7")
	assert.NotContains(t, out, "service=")
}

func TestDiscard(t *testing.T) {
	assert.False(t, Discard().Enabled(context.Background(), slog.LevelError))
}
