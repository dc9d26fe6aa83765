package bmxlog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNopLoggerDiscardsOutput(t *testing.T) {
	l := Nop()
	l.Info().Msg("should not appear anywhere")
}

func TestNewWriterEmitsJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, zerolog.InfoLevel)
	l.Info().Str("track", "v1").Msg("started")

	out := buf.String()
	require.True(t, strings.Contains(out, "\"track\":\"v1\""))
	require.True(t, strings.Contains(out, "\"message\":\"started\""))
}

func TestNewWriterRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, zerolog.WarnLevel)
	l.Debug().Msg("should be filtered out")
	require.Empty(t, buf.String())

	l.Warn().Msg("should appear")
	require.NotEmpty(t, buf.String())
}

func TestWithAddsFieldToChildLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, zerolog.InfoLevel).With("component", "reader")
	l.Info().Msg("hi")

	require.True(t, strings.Contains(buf.String(), "\"component\":\"reader\""))
}
