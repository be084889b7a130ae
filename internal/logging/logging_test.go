package logging

import (
	"bytes"
	"encoding/json"
	stdlog "log"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		" warn ":  zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"":        zerolog.InfoLevel,
		"chatty":  zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNewWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Config{Level: "info"})

	logger.Debug().Msg("hidden")
	logger.Info().Str("action", "add_book").Msg("action done")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "add_book", entry["action"])
	assert.Equal(t, "action done", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNewPretty(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, Config{Level: "debug", Pretty: true})
	logger.Debug().Msg("books fetched and displayed")
	assert.Contains(t, buf.String(), "books fetched and displayed")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestBridgeStdlog(t *testing.T) {
	defer stdlog.SetOutput(os.Stderr)
	defer stdlog.SetFlags(stdlog.LstdFlags)

	var buf bytes.Buffer
	BridgeStdlog(New(&buf, Config{}))
	stdlog.Print("from the standard library")

	assert.Contains(t, buf.String(), "from the standard library")
	assert.Contains(t, buf.String(), `"source":"stdlog"`)
}
