package agency

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const defaultWatchDelay = 200 * time.Millisecond

// InstructionsWatcher reloads the shared instructions file when it changes on disk
// and hands the new text to onChange. A deleted file yields empty instructions.
type InstructionsWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	delay    time.Duration
	onChange func(string)
	logger   zerolog.Logger

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu    sync.Mutex
	timer *time.Timer
}

// WatchSharedInstructions keeps the shared instructions of a in sync with path
func WatchSharedInstructions(a *Agency, path string, logger zerolog.Logger) (*InstructionsWatcher, error) {
	w, err := NewInstructionsWatcher(path, 0, a.SetSharedInstructions, logger)
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		return nil, err
	}
	return w, nil
}

// NewInstructionsWatcher creates a watcher for path. Bursts of events closer than
// delay are folded into one reload; zero selects a default.
func NewInstructionsWatcher(path string, delay time.Duration, onChange func(string), logger zerolog.Logger) (*InstructionsWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if delay <= 0 {
		delay = defaultWatchDelay
	}

	return &InstructionsWatcher{
		watcher:  watcher,
		path:     abs,
		delay:    delay,
		onChange: onChange,
		logger:   logger.With().Str("component", "instructions_watcher").Logger(),
		done:     make(chan struct{}),
	}, nil
}

// Start watches the directory holding the file, so editors that replace the file
// by renaming are still seen
func (w *InstructionsWatcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		w.watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}

	w.wg.Add(1)
	go w.loop()

	w.logger.Debug().Str("path", w.path).Msg("Watching shared instructions")
	return nil
}

// Stop stops watching. Pending reloads are dropped.
func (w *InstructionsWatcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)

		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()

		err = w.watcher.Close()
		w.wg.Wait()
	})
	if err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

func (w *InstructionsWatcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path || event.Op == fsnotify.Chmod {
				continue
			}
			w.schedule()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Watcher error")

		case <-w.done:
			return
		}
	}
}

func (w *InstructionsWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.reload)
}

func (w *InstructionsWatcher) reload() {
	select {
	case <-w.done:
		return
	default:
	}

	text, err := LoadSharedInstructions(w.path)
	if err != nil {
		w.logger.Error().Err(err).Str("path", w.path).Msg("Failed to reload shared instructions")
		return
	}
	w.onChange(text)
	w.logger.Info().Str("path", w.path).Int("bytes", len(text)).Msg("Shared instructions reloaded")
}
