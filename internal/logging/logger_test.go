package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"debug", zapcore.DebugLevel, false},
		{"WARN", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	l, err := New(DefaultConfig())
	require.NoError(t, err)
	assert.NotNil(t, l.Logger)

	_, err = New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestClientLogger_ForwardsKeyValues(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := &Logger{Logger: zap.New(core)}

	client := l.Client()
	client.Debug("refreshing", "path", "/api/projects")
	client.Info("session cleared")
	client.Warn("refresh failed", "status", 403)
	client.Error("boom")

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)
	assert.Equal(t, "refreshing", entries[0].Message)
	assert.Equal(t, "/api/projects", entries[0].ContextMap()["path"])
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.EqualValues(t, 403, entries[2].ContextMap()["status"])
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}
