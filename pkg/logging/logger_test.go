package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("WARN"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestComponentTagging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := Wrap(zap.New(core))

	logger.ComponentInfo(ComponentSubscribe, "poll completed", zap.Int("envelopes", 2))
	logger.ComponentWarn(ComponentRegistry, "queue overflow")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "[SUBSCRIBE] poll completed", entries[0].Message)
	assert.Equal(t, int64(2), entries[0].ContextMap()["envelopes"])
	assert.Equal(t, "[REGISTRY] queue overflow", entries[1].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestNewLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.log")
	logger, err := NewLogger(Options{Level: "info", Format: "json", OutputFile: path})
	require.NoError(t, err)

	logger.ComponentDebug(ComponentClient, "hidden")
	logger.ComponentInfo(ComponentClient, "visible")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "[CLIENT] visible"))
	assert.False(t, strings.Contains(string(data), "hidden"))
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.ComponentError(ComponentGeneral, "discarded")
	assert.NotNil(t, Wrap(nil).Logger)
}
