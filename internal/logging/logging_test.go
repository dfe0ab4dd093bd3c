package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Tests share the global logger and therefore do not run in parallel.

func TestInit_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Debug: true, Out: &buf}))
	t.Cleanup(func() { _ = Init(Options{Out: &buf}) })

	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	log.Debug().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestInit_JSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Format: FormatJSON, Out: &buf}))

	l := For("reconcile")
	l.Info().Msg("hello")
	l.Debug().Msg("hidden")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "reconcile", line["component"])
	assert.Equal(t, "hello", line["message"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestInit_UnknownFormat(t *testing.T) {
	require.Error(t, Init(Options{Format: "xml", Out: &bytes.Buffer{}}))
}
