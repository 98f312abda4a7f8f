package logging

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
	"go.uber.org/zap/zaptest/observer"

	"github.com/moffa90/go-uartfs/config"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(config.LoggingConfig{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Debug("frame sent", zap.String("cmd", "0x01"))
	require.NoError(t, logger.Sync())

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "frame sent", entry["msg"])
	assert.Equal(t, "0x01", entry["cmd"])
}

func TestNewLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(config.LoggingConfig{Level: "warn", Format: "console"}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	_ = logger.Sync()

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestNewUnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(config.LoggingConfig{Level: "chatty", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shown")
	_ = logger.Sync()

	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "uartfs.log")
	var buf bytes.Buffer
	logger, err := newLogger(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		File:   config.LumberjackConfig{Filename: path, MaxSizeMB: 1},
	}, &buf)
	require.NoError(t, err)

	logger.Info("to file")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
	assert.Contains(t, buf.String(), "to file")
}

func TestNewZapAdapter(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewZap(zap.New(core))

	l.Debug("chunk", "len", 1024)
	l.Info("connected", "port", "/dev/ttyUSB0")
	l.Error("timeout", "cmd", "0x10")

	require.Equal(t, 3, logs.Len())
	entries := logs.All()
	assert.Equal(t, "chunk", entries[0].Message)
	assert.Equal(t, int64(1024), entries[0].ContextMap()["len"])
	assert.Equal(t, "/dev/ttyUSB0", entries[1].ContextMap()["port"])
	assert.Equal(t, zap.ErrorLevel, entries[2].Level)
}

func TestCallerAttribution(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(config.LoggingConfig{Level: "info", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("direct")
	NewZap(logger).Info("adapted")
	_ = logger.Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		assert.Contains(t, entry["caller"], "logging/logger_test.go", "msg %v", entry["msg"])
	}
}

func TestNopAndNilZap(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Info("ignored", "k", "v")
		NewZap(nil).Error("ignored")
	})
}
