package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chrisuehlinger/vibedom/config"
)

func TestNewLoggerConsole(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.LoggerConfig{Level: "warn", Format: "json", ServiceName: "test", Console: true}
	logger := NewLogger(cfg, zapcore.AddSync(&buf))

	logger.Info("hidden")
	logger.Warn("shown", zap.String("window", "w1"))
	require.NoError(t, logger.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "test", entry["logger"])
	assert.Equal(t, "w1", entry["window"])
	assert.Equal(t, "WARN", entry["level"])
}

func TestNewLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vibedom.log")
	cfg := config.LoggerConfig{Level: "debug", Format: "console", LogFile: path, MaxSize: 1}
	logger := NewLogger(cfg, nil)
	logger.Debug("to file")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"to file"`)
}

func TestNewLoggerWithoutOutputsIsNop(t *testing.T) {
	logger := NewLogger(config.LoggerConfig{Level: "info"}, nil)
	assert.False(t, logger.Core().Enabled(zapcore.ErrorLevel))
}

func TestInitializeOnce(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)
	assert.False(t, GetLogger().Core().Enabled(zapcore.ErrorLevel), "nop before initialization")

	var first, second bytes.Buffer
	Initialize(config.LoggerConfig{Level: "info", Format: "json", Console: true}, zapcore.AddSync(&first))
	Initialize(config.LoggerConfig{Level: "info", Format: "json", Console: true}, zapcore.AddSync(&second))
	GetLogger().Info("hello")
	require.NoError(t, Sync())

	assert.Contains(t, first.String(), "hello")
	assert.Empty(t, second.String())
}
