package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(Config{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)

	l := Component(logger, "builder")
	l.Debug().Str("resource", "findWorkflow").Msg("built")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "builder", line["component"])
	assert.Equal(t, "findWorkflow", line["resource"])
	assert.Equal(t, "debug", line["level"])
}

func TestNewWithWriter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(Config{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info().Msg("hidden")
	assert.Empty(t, buf.String())

	logger.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewWithWriter_BadLevel(t *testing.T) {
	_, err := NewWithWriter(Config{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(Config{Format: "json"}, &buf)
	require.NoError(t, err)

	ctx := WithContext(context.Background(), logger)
	l := FromContext(ctx)
	l.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")

	// Missing logger is a no-op rather than a panic.
	nop := FromContext(context.Background())
	nop.Info().Msg("dropped")
	assert.NotContains(t, buf.String(), "dropped")
}

func TestNew_FileOutputIsClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.log")

	logger, closer, err := New(Config{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)
	logger.Info().Msg("to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")

	// Writes after Close fail at the file, so the descriptor was released.
	f := closer.(*os.File)
	_, err = f.Write([]byte("x"))
	assert.Error(t, err)
}

func TestNew_StandardStreamsAreNotClosed(t *testing.T) {
	_, closer, err := New(Config{Output: "stderr"})
	require.NoError(t, err)
	require.NoError(t, closer.Close())

	_, err = os.Stderr.Write(nil)
	assert.NoError(t, err)
}
