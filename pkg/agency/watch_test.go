package agency

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetSharedInstructions(t *testing.T) {
	a := buildTestAgency(t, &fakeProvider{}, nil)
	coder, _ := a.Agent(CoderName)
	own := coder.Instructions

	a.SetSharedInstructions("Use tabs.")
	assert.Equal(t, "Use tabs.", a.SharedInstructions())
	assert.Equal(t, "Use tabs.\n\n"+own, coder.Instructions)

	a.SetSharedInstructions("")
	assert.Equal(t, own, coder.Instructions)
}

func TestInstructionsWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project-overview.md")
	require.NoError(t, os.WriteFile(path, []byte("first"), 0644))

	var (
		mu      sync.Mutex
		updates []string
	)
	latest := func() string {
		mu.Lock()
		defer mu.Unlock()
		if len(updates) == 0 {
			return "<none>"
		}
		return updates[len(updates)-1]
	}

	w, err := NewInstructionsWatcher(path, 20*time.Millisecond, func(text string) {
		mu.Lock()
		defer mu.Unlock()
		updates = append(updates, text)
	}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	// unrelated files in the same directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0644))

	require.NoError(t, os.WriteFile(path, []byte("second\n"), 0644))
	require.Eventually(t, func() bool { return latest() == "second" }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool { return latest() == "" }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}

func TestWatchSharedInstructions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project-overview.md")
	require.NoError(t, os.WriteFile(path, []byte("Old overview."), 0644))

	a, err := Build(BuildOptions{
		Model:                  testModel,
		SharedInstructionsFile: path,
		Providers:              &fakeProvider{},
		Logger:                 zerolog.Nop(),
	})
	require.NoError(t, err)

	w, err := WatchSharedInstructions(a, path, zerolog.Nop())
	require.NoError(t, err)
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("New overview."), 0644))

	planner, _ := a.Agent(PlannerName)
	require.Eventually(t, func() bool {
		return a.SharedInstructions() == "New overview."
	}, 3*time.Second, 20*time.Millisecond)
	assert.True(t, strings.HasPrefix(planner.Instructions, "New overview.\n\n"))
}

func TestInstructionsWatcherMissingDirectory(t *testing.T) {
	w, err := NewInstructionsWatcher(filepath.Join(t.TempDir(), "missing", "overview.md"), 0, func(string) {}, zerolog.Nop())
	require.NoError(t, err)
	assert.Error(t, w.Start())
}
