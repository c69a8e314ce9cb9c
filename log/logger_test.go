package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewDefaultLogger(&buf, LogLevelWarn)

	logger.Debug("debug %d", 1)
	logger.Info("info %d", 2)
	logger.Warn("warn %d", 3)
	logger.Error("error %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "debug 1")
	assert.NotContains(t, out, "info 2")
	assert.Contains(t, out, Prefix)
	assert.Contains(t, out, "[WARN] warn 3")
	assert.Contains(t, out, "[ERROR] error 4")
}

func TestDefaultLogger_None(t *testing.T) {
	var buf bytes.Buffer
	logger := NewDefaultLogger(&buf, LogLevelNone)

	logger.Error("never")
	assert.Empty(t, buf.String())
}

func TestLogLevel_Allows(t *testing.T) {
	assert.True(t, LogLevelInfo.Allows(LogLevelError))
	assert.True(t, LogLevelInfo.Allows(LogLevelInfo))
	assert.False(t, LogLevelInfo.Allows(LogLevelDebug))
	assert.False(t, LogLevelNone.Allows(LogLevelError))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LogLevelDebug},
		{"INFO", LogLevelInfo},
		{"", LogLevelInfo},
		{"warning", LogLevelWarn},
		{" error ", LogLevelError},
		{"disable", LogLevelNone},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LogLevelDebug.String())
	assert.Equal(t, "NONE", LogLevelNone.String())
	assert.Equal(t, "UNKNOWN(9)", LogLevel(9).String())
}

func TestSetDefaultLogger(t *testing.T) {
	prev := GetDefaultLogger()
	defer SetDefaultLogger(prev)

	var buf bytes.Buffer
	SetDefaultLogger(NewDefaultLogger(&buf, LogLevelDebug))
	GetDefaultLogger().Debug("step %d", 1)
	assert.Contains(t, buf.String(), "[DEBUG] step 1")

	SetDefaultLogger(nil)
	assert.Equal(t, NoOpLogger{}, GetDefaultLogger())
}
