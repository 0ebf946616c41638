package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"info", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestZapAdapter_FieldsAndErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).With(map[string]interface{}{"taskType": "analyze-message"})

	log.Info("analyzed", map[string]interface{}{"segments": 2})
	log.WithError(errors.New("boom")).Error("failed", nil)

	entries := logs.All()
	assert.Len(t, entries, 2)
	assert.Equal(t, "analyze-message", entries[0].ContextMap()["taskType"])
	assert.EqualValues(t, 2, entries[0].ContextMap()["segments"])
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestNew_FallsBackOnBadOutput(t *testing.T) {
	l := New("info", "json", "/nonexistent-dir/for/sure/log.txt")
	assert.NotNil(t, l)
}

func TestNewNoOpLogger(t *testing.T) {
	log := NewNoOpLogger()
	assert.NotPanics(t, func() {
		log.Debug("ignored", map[string]interface{}{"k": "v"})
		log.WithFields(nil).Warn("ignored", nil)
	})
}
