package runlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendIndex(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "agentrunlog")
	now := time.Date(2025, 10, 8, 14, 30, 0, 0, time.Local)
	logPath := filepath.Join(dir, "20251008.jsonl")

	require.NoError(t, appendIndexAt(dir, "terminal_demo", logPath, now))
	require.NoError(t, AppendIndex(dir, "terminal_demo", logPath))

	raw, err := os.ReadFile(filepath.Join(dir, IndexFile))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(raw), "\n"), "\n")
	require.Len(t, lines, 2)

	fields := strings.Split(lines[0], "\t")
	require.Len(t, fields, 3)
	assert.Equal(t, now.Format(TimestampFormat), fields[0])
	assert.Equal(t, "terminal_demo", fields[1])
	assert.Equal(t, logPath, fields[2])
}

func TestReadRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "20251008.jsonl")

	first := New(path, "20251008T090000")
	second := New(path, "20251008T100000")

	require.NoError(t, first.Log("session_start", "Agency", map[string]interface{}{"model": "gpt-5"}))
	require.NoError(t, second.Log("session_start", "Agency", nil))
	require.NoError(t, first.Log("session_end", "Agency", nil))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("not json\n\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	t.Run("all sessions", func(t *testing.T) {
		records, err := ReadRecords(path, "")
		require.NoError(t, err)
		assert.Len(t, records, 3)
	})

	t.Run("filter by session", func(t *testing.T) {
		records, err := ReadRecords(path, "20251008T090000")
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "session_start", records[0].Event)
		assert.Equal(t, "gpt-5", records[0].Data["model"])
		assert.Equal(t, "session_end", records[1].Event)
		assert.Nil(t, records[1].Data)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadRecords(filepath.Join(t.TempDir(), "none.jsonl"), "")
		assert.Error(t, err)
	})
}
