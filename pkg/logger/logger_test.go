package logger

import (
	"bytes"
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
		{" WARN ", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNew_JSONWithServiceAndComponent(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Output: &buf, Service: "reservations"}).Component("scheduler")

	log.Info("tick", "rooms", 3)
	log.Debug("hidden")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "tick", record["msg"])
	assert.Equal(t, "reservations", record[SERVICE])
	assert.Equal(t, "scheduler", record[COMPONENT])
	assert.EqualValues(t, 3, record["rooms"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Output: &buf, Format: TEXT, Level: WARN}).Warn("careful")

	assert.Contains(t, buf.String(), "msg=careful")
}
