package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNew(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&buf, "json", slog.LevelInfo)
		logger.Debug("hidden")
		logger.Info("Proposal transitioned", "proposal_id", "p1")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "Proposal transitioned", entry["msg"])
		assert.Equal(t, "p1", entry["proposal_id"])
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&buf, "text", slog.LevelWarn)
		logger.Info("hidden")
		assert.Zero(t, buf.Len())

		logger.Warn("visible", "group_id", "g1")
		assert.Contains(t, buf.String(), "visible")
		assert.Contains(t, buf.String(), "g1")
	})
}
