package logging_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dupscan/internal/config"
	"dupscan/internal/logging"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.File = filepath.Join(t.TempDir(), "logs", "dupscan.log")
	require.NoError(t, cfg.Finalize())

	logger, err := logging.NewFromConfig(&cfg)
	require.NoError(t, err)
	logger.Info("hello from config")

	assert.Contains(t, readLog(t, cfg.Logging.File), "hello from config")
}

func TestConsoleLoggerFormatsComponentAndAttrs(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	require.NoError(t, err)

	logging.NewComponentLogger(logger, "scanner").Warn("skipping entry",
		logging.String("path", "/tmp/with space"),
		logging.Int("count", 3),
	)

	line := readLog(t, logPath)
	assert.Contains(t, line, " WARN scanner: skipping entry")
	assert.Contains(t, line, `path="/tmp/with space"`)
	assert.Contains(t, line, "count=3")
	assert.NotContains(t, line, "component=")
	assert.NotContains(t, line, "\x1b[", "file output must not be colourized")
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "info.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	require.NoError(t, err)

	logger.Info("message without caller")
	assert.NotContains(t, readLog(t, logPath), ".go:")
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	require.NoError(t, err)

	logger.Info("message with caller")
	assert.Contains(t, readLog(t, logPath), ".go:")
}

func TestLevelFiltering(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "warn", OutputPaths: []string{logPath}})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Error("kept")

	content := readLog(t, logPath)
	assert.NotContains(t, content, "dropped")
	assert.Contains(t, content, "kept")
}

func TestJSONLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	require.NoError(t, err)

	logger.Info("json message", logging.String("k", "v"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "json message", entry["msg"])
	assert.Equal(t, "v", entry["k"])
	assert.Contains(t, entry, "ts")
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := logging.New(logging.Options{Format: "xml"})
	require.Error(t, err)
}

func TestNewNopDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("ignored")
	assert.False(t, logger.Enabled(t.Context(), 100))
}
