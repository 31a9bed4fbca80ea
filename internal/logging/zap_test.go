package logging

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
		m := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestZapLogger_JSONLevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewZapLogger(&buf, "debug", "json")
	require.NoError(t, err)

	ctx := context.Background()
	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", "two")
	log.Warn(ctx, "wrn")
	log.Error(ctx, "err", "d", true)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 4)

	assert.Equal(t, "debug", lines[0]["level"])
	assert.Equal(t, "dbg", lines[0]["msg"])
	assert.EqualValues(t, 1, lines[0]["a"])
	assert.Equal(t, "info", lines[1]["level"])
	assert.Equal(t, "two", lines[1]["b"])
	assert.Equal(t, "warn", lines[2]["level"])
	assert.Equal(t, "error", lines[3]["level"])
	assert.Equal(t, true, lines[3]["d"])
}

func TestZapLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewZapLogger(&buf, "warn", "json")
	require.NoError(t, err)

	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "shown")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "shown", lines[0]["msg"])
}

func TestZapLogger_With(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewZapLogger(&buf, "info", "json")
	require.NoError(t, err)

	log.With("req_id", "123").Info(context.Background(), "hello", "k", "v")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "123", lines[0]["req_id"])
	assert.Equal(t, "v", lines[0]["k"])
}

func TestZapLogger_InvalidLevel(t *testing.T) {
	_, err := NewZapLogger(&bytes.Buffer{}, "loud", "json")
	require.Error(t, err)
}

func TestNew_SelectsBackend(t *testing.T) {
	t.Run("slog json with service", func(t *testing.T) {
		var buf bytes.Buffer
		log, err := New(&buf, Options{Level: "info", Service: "taskhub"})
		require.NoError(t, err)
		_, ok := log.(*SlogLogger)
		require.True(t, ok)

		log.Info(context.Background(), "started")
		lines := decodeLines(t, &buf)
		require.Len(t, lines, 1)
		assert.Equal(t, "taskhub", lines[0]["service"])
		assert.Equal(t, "INFO", lines[0]["level"])
	})

	t.Run("slog text", func(t *testing.T) {
		var buf bytes.Buffer
		log, err := New(&buf, Options{Format: "text", Level: "debug"})
		require.NoError(t, err)
		log.Debug(context.Background(), "dbg")
		assert.Contains(t, buf.String(), "level=DEBUG")
	})

	t.Run("zap", func(t *testing.T) {
		log, err := New(&bytes.Buffer{}, Options{Backend: "zap"})
		require.NoError(t, err)
		_, ok := log.(*ZapLogger)
		require.True(t, ok)
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := New(&bytes.Buffer{}, Options{Backend: "logrus"})
		require.Error(t, err)
	})

	t.Run("bad slog level", func(t *testing.T) {
		_, err := New(&bytes.Buffer{}, Options{Level: "loud"})
		require.Error(t, err)
	})
}
