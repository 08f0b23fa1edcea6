package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amanyadav21/moody-player/internal/config"
)

func TestNew_TextLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.Logging{Level: "warn", Format: "text"}, &buf)

	logger.Info("hidden")
	logger.Named("ingest").Warn("shown", "song", "abc")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "moodplayer.ingest: shown")
	assert.Contains(t, out, "song=abc")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.Logging{Level: "info", Format: "json"}, &buf)
	logger.Info("started", "addr", "127.0.0.1:3000")

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry))
	assert.Equal(t, "started", entry["@message"])
	assert.Equal(t, "127.0.0.1:3000", entry["addr"])
	assert.Equal(t, "moodplayer", entry["@module"])
}

func TestNew_UnknownLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(config.Logging{Level: "chatty"}, &buf)
	logger.Debug("hidden")
	logger.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
