package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/killallgit/tessera/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, raw string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		if line == "" {
			continue
		}
		entry := map[string]any{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestWithComponentUsesDefault(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(NewWithWriter(&buf, "debug"))
	t.Cleanup(func() { _ = Close() })

	log := WithComponent("session")
	log.Debug("send started", "message_id", "m1")

	entries := decodeLines(t, buf.String())
	require.Len(t, entries, 1)
	assert.Equal(t, "session", entries[0]["component"])
	assert.Equal(t, "m1", entries[0]["message_id"])
	assert.Equal(t, "send started", entries[0]["msg"])
}

func TestComponentLoggerFollowsLaterDefault(t *testing.T) {
	log := WithComponent("early")

	var buf bytes.Buffer
	SetDefault(NewWithWriter(&buf, "info"))
	t.Cleanup(func() { _ = Close() })

	log.Info("after init")
	assert.Contains(t, buf.String(), "after init")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn")

	l.Debug("hidden")
	l.Info("hidden too")
	l.Warn("shown")
	l.Error("also shown", "err", "boom")

	entries := decodeLines(t, buf.String())
	require.Len(t, entries, 2)
	assert.Equal(t, "warn", entries[0]["level"])
	assert.Equal(t, "error", entries[1]["level"])
}

func TestWithAddsFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "info").With("conversation", "c1")
	l.Info("hello")

	entries := decodeLines(t, buf.String())
	require.Len(t, entries, 1)
	assert.Equal(t, "c1", entries[0]["conversation"])
}

func TestInitLogFile(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "logs", "system.log")

	t.Run("truncates when preserve is false", func(t *testing.T) {
		require.NoError(t, os.MkdirAll(filepath.Dir(logPath), 0755))
		require.NoError(t, os.WriteFile(logPath, []byte("old line\n"), 0644))

		require.NoError(t, Init(config.LoggingConfig{LogFile: logPath, Level: "info"}))
		WithComponent("test").Info("fresh")
		require.NoError(t, Close())

		content, err := os.ReadFile(logPath)
		require.NoError(t, err)
		assert.NotContains(t, string(content), "old line")
		assert.Contains(t, string(content), "fresh")
	})

	t.Run("appends when preserve is true", func(t *testing.T) {
		require.NoError(t, os.WriteFile(logPath, []byte("{\"msg\":\"previous\"}\n"), 0644))

		require.NoError(t, Init(config.LoggingConfig{LogFile: logPath, Level: "info", Preserve: true}))
		WithComponent("test").Info("next")
		require.NoError(t, Close())

		content, err := os.ReadFile(logPath)
		require.NoError(t, err)
		assert.Contains(t, string(content), "previous")
		assert.Contains(t, string(content), "next")
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "debug", parseLevel("DEBUG").String())
	assert.Equal(t, "warn", parseLevel("warning").String())
	assert.Equal(t, "info", parseLevel("unknown").String())
}
