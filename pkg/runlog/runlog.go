package runlog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// FileSuffix is appended to the daily date to form the log file name.
	FileSuffix = ".jsonl"

	// TimestampFormat is the ISO-8601 layout of the timestamp field.
	TimestampFormat = "2006-01-02T15:04:05.000000-07:00"

	dailyLayout   = "20060102"
	sessionLayout = "20060102T150405"
)

var (
	// ErrEmptyEvent is returned when Log is called without an event name.
	ErrEmptyEvent = errors.New("event name is required")

	// ErrEmptyDirectory is returned when Create is called without a log directory.
	ErrEmptyDirectory = errors.New("log directory is required")
)

// Logger is the capability consumers depend on. Use Nop when session logging is disabled.
type Logger interface {
	Log(event, agent string, data map[string]interface{}) error
	Path() string
	SessionID() string
}

// SessionLogger appends session events to a JSONL file.
type SessionLogger struct {
	path      string
	sessionID string
	now       func() time.Time

	mu sync.Mutex
}

// New returns a logger bound to path and sessionID. The file is created on first Log.
func New(path, sessionID string) *SessionLogger {
	return &SessionLogger{
		path:      path,
		sessionID: sessionID,
		now:       time.Now,
	}
}

// Create ensures dir exists and returns a logger writing to today's file in dir,
// with a session id derived from the current time.
func Create(dir string) (*SessionLogger, error) {
	return createAt(dir, time.Now())
}

func createAt(dir string, now time.Time) (*SessionLogger, error) {
	if dir == "" {
		return nil, ErrEmptyDirectory
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return New(DailyPath(dir, now), SessionID(now)), nil
}

// DailyPath returns the log file path for the calendar date of t, e.g. dir/20251008.jsonl.
func DailyPath(dir string, t time.Time) string {
	return filepath.Join(dir, t.Format(dailyLayout)+FileSuffix)
}

// SessionID formats t as a session identifier, e.g. 20251008T143000.
// Two sessions started within the same second share an id.
func SessionID(t time.Time) string {
	return t.Format(sessionLayout)
}

// Path returns the log file path.
func (l *SessionLogger) Path() string {
	return l.path
}

// SessionID returns the session identifier stamped on every record.
func (l *SessionLogger) SessionID() string {
	return l.sessionID
}

// Log appends one record. agent is omitted when empty and data when it has no keys.
// Filesystem errors are returned to the caller; there is no retry or buffering.
func (l *SessionLogger) Log(event, agent string, data map[string]interface{}) error {
	if event == "" {
		return ErrEmptyEvent
	}

	var payload []byte
	if len(data) > 0 {
		encoded, err := encodeJSON(MakeJSONSafe(data))
		if err != nil {
			return fmt.Errorf("failed to encode event data: %w", err)
		}
		payload = encoded
	}

	timestamp := l.now().Format(TimestampFormat)

	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open session log: %w", err)
	}

	w := &captureWriter{w: file}
	zl := zerolog.New(w)
	entry := zl.Log().
		Str("timestamp", timestamp).
		Str("session_id", l.sessionID).
		Str("event", event)
	if agent != "" {
		entry = entry.Str("agent", agent)
	}
	if payload != nil {
		entry = entry.RawJSON("data", payload)
	}
	entry.Send()

	closeErr := file.Close()
	if w.err != nil {
		return fmt.Errorf("failed to append session log: %w", w.err)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close session log: %w", closeErr)
	}
	return nil
}

// encodeJSON marshals v without HTML escaping and without the trailing newline.
func encodeJSON(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// captureWriter keeps the write error for Log to return; zerolog would only print it.
type captureWriter struct {
	w   io.Writer
	err error
}

func (c *captureWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return len(p), nil
	}
	n, err := c.w.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	c.err = err
	return len(p), nil
}

type nopLogger struct{}

// Nop returns a Logger that discards every event.
func Nop() Logger {
	return nopLogger{}
}

func (nopLogger) Log(string, string, map[string]interface{}) error { return nil }
func (nopLogger) Path() string                                     { return "" }
func (nopLogger) SessionID() string                                { return "" }
