package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureJSON(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log = New(NewJSONHandler(&buf, &slog.HandlerOptions{Level: level}))
	return &buf
}

func TestInit(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	Init()
	assert.NotNil(t, Get())
	assert.True(t, Get().Enabled(context.Background(), slog.LevelDebug))
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name string
		emit func()
		want string
	}{
		{"info", func() { Info("court resolved") }, `"level":"INFO"`},
		{"infof", func() { Infof("swept %d bookings", 3) }, "swept 3 bookings"},
		{"warn", func() { Warn("slow query") }, `"level":"WARN"`},
		{"error", func() { Error("insert failed") }, `"level":"ERROR"`},
		{"errorf", func() { Errorf("venue %d missing", 7) }, "venue 7 missing"},
		{"debug", func() { Debug("lock acquired") }, `"level":"DEBUG"`},
		{"debugf", func() { Debugf("court %s", "Court 1") }, "court Court 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureJSON(t, slog.LevelDebug)
			tt.emit()
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestInfo_KeyValues(t *testing.T) {
	buf := captureJSON(t, slog.LevelInfo)

	Info("booking created", "booking_id", 42, "court", "Court 1")

	out := buf.String()
	assert.Contains(t, out, `"booking_id":42`)
	assert.Contains(t, out, `"court":"Court 1"`)
}

func TestDebugSuppressedAtInfo(t *testing.T) {
	buf := captureJSON(t, slog.LevelInfo)
	Debug("hidden")
	assert.Empty(t, buf.String())
}

func TestWithError(t *testing.T) {
	buf := captureJSON(t, slog.LevelInfo)

	WithError(assert.AnError).Info("sweep failed")

	out := buf.String()
	assert.Contains(t, out, "sweep failed")
	assert.Contains(t, out, assert.AnError.Error())
}

func TestWithFields(t *testing.T) {
	buf := captureJSON(t, slog.LevelInfo)

	WithFields(map[string]interface{}{
		"venue_id": 3,
		"sport":    "badminton",
	}).Info("venues listed")

	out := buf.String()
	assert.Contains(t, out, "venues listed")
	assert.Contains(t, out, `"venue_id":3`)
	assert.Contains(t, out, `"sport":"badminton"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}
