package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"Warn", LevelWarn},
		{"warning", LevelWarn},
		{"ERROR", LevelError},
		{"verbose", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLogLevel(tt.input))
		})
	}
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "INFO", LevelInfo.String())
	assert.Equal(t, "WARN", LevelWarn.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestDefaultLogger_FilterByLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewDefaultLogger(LevelWarn, buf)

	logger.Debug("tree walk")
	logger.Info("report loaded")
	logger.Warn("record skipped")
	logger.Error("fetch failed")

	output := buf.String()
	assert.NotContains(t, output, "tree walk")
	assert.NotContains(t, output, "report loaded")
	assert.Contains(t, output, "[WARN] record skipped")
	assert.Contains(t, output, "[ERROR] fetch failed")
}

func TestDefaultLogger_Fields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewDefaultLogger(LevelInfo, buf)

	logger.WithFields(map[string]interface{}{"session": "abc", "modules": 3}).
		WithField("action", "load").
		Info("report replaced")

	// Fields are emitted in key order.
	assert.Contains(t, buf.String(), "action=load modules=3 session=abc report replaced")
}

func TestDefaultLogger_DerivedSharesLevelAtCreation(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewDefaultLogger(LevelInfo, buf)
	derived := logger.WithField("k", "v")

	logger.SetLevel(LevelError)
	derived.Info("still info")

	assert.Contains(t, buf.String(), "still info")
}

func TestDefaultLogger_Formatting(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewDefaultLogger(LevelInfo, buf)

	logger.Info("built %d nodes for %q", 12, "/assets/")
	logger.Info("100% literal")

	output := buf.String()
	assert.Contains(t, output, `built 12 nodes for "/assets/"`)
	assert.Contains(t, output, "100% literal")
}

func TestDefaultLogger_NilOutput(t *testing.T) {
	logger := NewDefaultLogger(LevelError, nil)
	assert.NotPanics(t, func() { logger.Debug("dropped") })
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "chart.log")

	logger, err := NewFileLogger(LevelInfo, path)
	require.NoError(t, err)
	logger.Info("to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestNullLogger(t *testing.T) {
	logger := &NullLogger{}

	logger.Debug("debug")
	logger.Error("error")

	assert.Equal(t, logger, logger.WithField("key", "value"))
	assert.Equal(t, logger, logger.WithFields(map[string]interface{}{"key": "value"}))
}

func TestGlobalLogger(t *testing.T) {
	original := GetGlobalLogger()
	defer SetGlobalLogger(original)

	buf := &bytes.Buffer{}
	SetGlobalLogger(NewDefaultLogger(LevelInfo, buf))
	SetGlobalLogger(nil)

	GetGlobalLogger().Info("global log")
	assert.Contains(t, buf.String(), "global log")
}

func TestDefaultLogger_LineShape(t *testing.T) {
	buf := &bytes.Buffer{}
	NewDefaultLogger(LevelInfo, buf).Info("one line")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "["))
	assert.True(t, strings.HasSuffix(lines[0], "[INFO] one line"))
}

func TestLoggerInterface(t *testing.T) {
	var _ Logger = &DefaultLogger{}
	var _ Logger = &NullLogger{}
}
