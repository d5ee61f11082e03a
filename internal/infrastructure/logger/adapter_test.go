package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerAdapter_WithFieldsCarriesContext(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := NewFromZap(zap.New(core))

	child := log.WithFields(map[string]any{"task_id": "Amazon--1"}).WithField("endpoint", "west_eu")
	child.Info("Task started", "position", 3)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Task started", entries[0].Message)

	fields := entries[0].ContextMap()
	assert.Equal(t, "Amazon--1", fields["task_id"])
	assert.Equal(t, "west_eu", fields["endpoint"])
	assert.EqualValues(t, 3, fields["position"])
}

func TestNewLoggerAdapter_WritesJSONFile(t *testing.T) {
	dir := t.TempDir()

	log, err := newLoggerAdapter(dir, "bench run/1")
	require.NoError(t, err)
	log.Info("hello", "k", "v")
	require.NoError(t, log.Close())

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, strings.HasSuffix(files[0].Name(), "_bench_run_1.log"))

	data, err := os.ReadFile(filepath.Join(dir, files[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello"`)
	assert.Contains(t, string(data), `"k":"v"`)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "run", sanitize("///"))
	assert.Equal(t, "a_b", sanitize("a b"))
	assert.Len(t, sanitize(strings.Repeat("x", 100)), 60)
}
