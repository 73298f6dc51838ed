package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestSetup_JSON(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	buf := new(bytes.Buffer)
	Setup(Options{Out: buf})

	log.Debug().Msg("hidden")
	log.Info().Str("mode", "production").Msg("Building assets")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "info", line["level"])
	require.Equal(t, "production", line["mode"])
	require.Equal(t, "Building assets", line["message"])
}

func TestSetup_DebugConsole(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	buf := new(bytes.Buffer)
	logger := Setup(Options{Out: buf, Debug: true})

	logger.Debug().Str("dir", "dist").Msg("Cleaned output directory")

	out := buf.String()
	require.Contains(t, out, "Cleaned output directory")
	require.Contains(t, out, "dir=dist")
	require.NotContains(t, out, "\x1b[")
}
