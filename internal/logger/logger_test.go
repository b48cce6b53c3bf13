package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLoggerIsNoop(t *testing.T) {
	require.NotNil(t, Logger)
	Logger.Infow("dropped", FieldListID, "temp_1")
}

func TestInitialize_WritesToFile(t *testing.T) {
	t.Cleanup(func() { _, _ = Initialize(Options{}) })

	path := filepath.Join(t.TempDir(), "todosync.log")
	log, err := Initialize(Options{File: path, Level: "debug"})
	require.NoError(t, err)

	log.Debugw("saved list", FieldListID, "abc123")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"list_id":"abc123"`), "log line missing: %s", data)
}

func TestInitialize_LevelFilters(t *testing.T) {
	t.Cleanup(func() { _, _ = Initialize(Options{}) })

	path := filepath.Join(t.TempDir(), "todosync.log")
	log, err := Initialize(Options{File: path, Level: "warn"})
	require.NoError(t, err)

	log.Infow("hidden")
	log.Warnw("shown")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestInitialize_BadLevel(t *testing.T) {
	_, err := Initialize(Options{Level: "loud"})
	assert.Error(t, err)
}
