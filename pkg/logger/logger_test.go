package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_WritesConsoleAndFile(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	file := filepath.Join(dir, "app.log")
	var console bytes.Buffer

	// Act
	log, err := newWithConsole(Options{Level: "info", File: file}, &console)
	require.NoError(t, err)
	log.Info("attempt submitted", zap.String("attempt_id", "a-1"))
	log.Debug("скрытое сообщение")
	require.NoError(t, log.Sync())

	// Assert
	assert.Contains(t, console.String(), "attempt submitted")
	assert.NotContains(t, console.String(), "скрытое сообщение", "Debug не должен попадать в лог уровня info")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"attempt_id":"a-1"`, "В файл пишется JSON")
}

func TestNew_DebugModeOverridesLevel(t *testing.T) {
	var console bytes.Buffer

	log, err := newWithConsole(Options{Level: "error", Debug: true}, &console)
	require.NoError(t, err)
	log.Debug("debug line")

	assert.Contains(t, console.String(), "debug line")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}
