package observability_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/backport/internal/adapter/observability"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func TestLogInfoHuman(t *testing.T) {
	buf := captureLog(t)
	logger := observability.NewDefaultLogger(observability.LogLevelInfo, observability.LogFormatHuman)

	logger.LogInfo(context.Background(), "pr classified", map[string]interface{}{
		"commit":  "0123456789ab",
		"outcome": "BACKPORT",
	})

	output := buf.String()
	assert.Contains(t, output, "[INFO]")
	assert.Contains(t, output, "pr classified")
	assert.Contains(t, output, "commit=0123456789ab")
	assert.Contains(t, output, "outcome=BACKPORT")
}

func TestLogWarningHuman(t *testing.T) {
	buf := captureLog(t)
	logger := observability.NewDefaultLogger(observability.LogLevelError, observability.LogFormatHuman)

	logger.LogWarning(context.Background(), "cache write failed", map[string]interface{}{
		"error": "disk full",
	})

	output := buf.String()
	assert.Contains(t, output, "[WARN]")
	assert.Contains(t, output, "cache write failed")
	assert.Contains(t, output, "error=disk full")
}

func TestLogInfoSuppressedAtErrorLevel(t *testing.T) {
	buf := captureLog(t)
	logger := observability.NewDefaultLogger(observability.LogLevelError, observability.LogFormatHuman)

	logger.LogInfo(context.Background(), "noise", nil)

	assert.Empty(t, buf.String())
}

func TestLogInfoJSON(t *testing.T) {
	buf := captureLog(t)
	log.SetFlags(0)
	t.Cleanup(func() { log.SetFlags(log.LstdFlags) })

	logger := observability.NewDefaultLogger(observability.LogLevelInfo, observability.LogFormatJSON)
	logger.LogInfo(context.Background(), "pr classified", map[string]interface{}{
		"commit": "0123456789ab",
	})

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record))
	assert.Equal(t, "info", record["level"])
	assert.Equal(t, "pr classified", record["message"])
	assert.Equal(t, "0123456789ab", record["commit"])
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, observability.LogLevelDebug, observability.ParseLogLevel("debug"))
	assert.Equal(t, observability.LogLevelError, observability.ParseLogLevel("ERROR"))
	assert.Equal(t, observability.LogLevelInfo, observability.ParseLogLevel("anything"))
}

func TestParseLogFormat(t *testing.T) {
	assert.Equal(t, observability.LogFormatJSON, observability.ParseLogFormat("json"))
	assert.Equal(t, observability.LogFormatHuman, observability.ParseLogFormat("human"))
	assert.Equal(t, observability.LogFormatHuman, observability.ParseLogFormat(""))
}
