package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestLogger_FieldsAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewFromConfig("info", &buf).With(Component("test"))

	log.Debug("hidden")
	log.Info("level up",
		UserID("u-1"),
		ProgressLevel(3),
		Latency(1500*time.Millisecond),
		Err(errors.New("boom")),
	)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "level up", lines[0]["msg"])
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "test", lines[0]["component"])
	assert.Equal(t, "u-1", lines[0]["user_id"])
	assert.Equal(t, float64(3), lines[0]["user_level"])
	assert.Equal(t, "1.5s", lines[0]["latency"])
	assert.Equal(t, "boom", lines[0]["error"])
}

func TestLogger_SlogSharesFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewFromConfig("debug", &buf).WithRequestID("req-9")

	log.Slog().Debug("from slog", "k", "v")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "req-9", lines[0][RequestIDKey])
	assert.Equal(t, "v", lines[0]["k"])
}

func TestContext(t *testing.T) {
	var buf bytes.Buffer
	log := NewFromConfig("info", &buf)

	ctx := WithContext(context.Background(), log)
	assert.Same(t, log, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}
