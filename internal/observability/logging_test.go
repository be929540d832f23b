package observability

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/culturebot/rpg/internal/config"
)

func TestNewLogger_JSON(t *testing.T) {
	logger, err := NewLogger(config.LoggingConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNewLogger_Console(t *testing.T) {
	logger, err := NewLogger(config.LoggingConfig{Level: "debug", Format: "console", Output: "stderr"})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	_, err := NewLogger(config.LoggingConfig{Level: "trace", Format: "json"})
	assert.Error(t, err)
}

func TestNewLogger_InvalidFormat(t *testing.T) {
	_, err := NewLogger(config.LoggingConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestNewLogger_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rpg.log")
	logger, err := NewLogger(config.LoggingConfig{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Info("encounter started")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"encounter started"`)
}

func TestNewLogger_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rpg.log")
	logger, err := NewLogger(config.LoggingConfig{Level: "warn", Format: "json", Output: path})
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}
