package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

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

func TestLoggerWritesStructuredRecords(t *testing.T) {
	var buf bytes.Buffer
	traceID := func(context.Context) string { return "trace-123" }

	log := NewWithMetadata(&buf, LevelInfo, "secaudit", traceID, Events{}, map[string]string{"hostname": "h1"})
	log.With("component", "test").Info(context.Background(), "hello", "job_id", "abc")
	log.Debug(context.Background(), "filtered out")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "hello", lines[0]["msg"])
	assert.Equal(t, "secaudit", lines[0]["service"])
	assert.Equal(t, "h1", lines[0]["hostname"])
	assert.Equal(t, "test", lines[0]["component"])
	assert.Equal(t, "abc", lines[0]["job_id"])
	assert.Equal(t, "trace-123", lines[0]["trace_id"])
	assert.Contains(t, lines[0]["file"], "logger_test.go")
}

func TestLoggerEvents(t *testing.T) {
	var buf bytes.Buffer
	var got []Record

	log := NewWithEvents(&buf, LevelDebug, "secaudit", nil, Events{
		Error: func(_ context.Context, r Record) { got = append(got, r) },
	})

	log.Info(context.Background(), "not an error")
	log.Error(context.Background(), "boom", "err", "disk full")

	require.Len(t, got, 1)
	assert.Equal(t, "boom", got[0].Message)
	assert.Equal(t, "disk full", got[0].Attributes["err"])
}

func TestLoggerContextAccumulates(t *testing.T) {
	var buf bytes.Buffer
	lc := NewLoggerContext(New(&buf, LevelDebug, "secaudit", nil))

	lc.Add("job_id", "j1")
	lc.Info(context.Background(), "first")
	lc.Add("check", "Path Traversal")
	lc.Warn(context.Background(), "second", "extra", 1)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "j1", lines[0]["job_id"])
	assert.NotContains(t, lines[0], "check")
	assert.Equal(t, "Path Traversal", lines[1]["check"])
	assert.EqualValues(t, 1, lines[1]["extra"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel("ERROR"))
	assert.Equal(t, LevelInfo, ParseLevel("anything"))
}

func TestNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		Noop().With("k", "v").Error(context.Background(), "discarded")
	})
}
