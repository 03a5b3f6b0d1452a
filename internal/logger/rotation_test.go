package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRotatingWriter(t *testing.T) {
	t.Run("creates directory and file", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "subdir", "app.log")

		rw, err := NewRotatingWriter(logFile, 10, 7, false)
		require.NoError(t, err)
		defer rw.Close()

		_, err = os.Stat(logFile)
		assert.NoError(t, err)
	})

	t.Run("resumes size of existing file", func(t *testing.T) {
		logFile := filepath.Join(t.TempDir(), "app.log")
		require.NoError(t, os.WriteFile(logFile, []byte("12345"), 0644))

		rw, err := NewRotatingWriter(logFile, 10, 7, false)
		require.NoError(t, err)
		defer rw.Close()

		assert.Equal(t, int64(5), rw.currentSize)
	})
}

func TestRotatingWriterRotate(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "app.log")

	rw, err := NewRotatingWriter(logFile, 1, 7, false)
	require.NoError(t, err)

	line := []byte(strings.Repeat("a", 600*1024) + "\n")
	_, err = rw.Write(line)
	require.NoError(t, err)
	_, err = rw.Write(line)
	require.NoError(t, err)
	require.NoError(t, rw.Close())

	rotated, err := filepath.Glob(logFile + ".*")
	require.NoError(t, err)
	assert.Len(t, rotated, 1)

	info, err := os.Stat(logFile)
	require.NoError(t, err)
	assert.Equal(t, int64(len(line)), info.Size())
}

func TestRotatingWriterCompress(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "app.log")

	rw, err := NewRotatingWriter(logFile, 1, 7, true)
	require.NoError(t, err)

	line := []byte(strings.Repeat("b", 700*1024) + "\n")
	_, err = rw.Write(line)
	require.NoError(t, err)
	_, err = rw.Write(line)
	require.NoError(t, err)
	require.NoError(t, rw.Close())

	compressed, err := filepath.Glob(logFile + ".*.gz")
	require.NoError(t, err)
	assert.Len(t, compressed, 1)
}

func TestRotatingWriterPrune(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "app.log")

	old := logFile + ".20200101-000000.000"
	fresh := logFile + ".20991231-000000.000"
	require.NoError(t, os.WriteFile(old, []byte("old"), 0644))
	require.NoError(t, os.WriteFile(fresh, []byte("fresh"), 0644))

	past := time.Now().Add(-30 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	rw, err := NewRotatingWriter(logFile, 1, 7, false)
	require.NoError(t, err)
	defer rw.Close()

	_, err = os.Stat(old)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
}

func TestRotatingWriterClosed(t *testing.T) {
	rw, err := NewRotatingWriter(filepath.Join(t.TempDir(), "app.log"), 1, 0, false)
	require.NoError(t, err)
	require.NoError(t, rw.Close())

	_, err = rw.Write([]byte("late"))
	assert.ErrorIs(t, err, os.ErrClosed)
}
