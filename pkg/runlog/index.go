package runlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// IndexFile is the run index kept next to the daily logs.
const IndexFile = "timestamp.log"

// Record is one parsed line of a session log.
type Record struct {
	Timestamp string                 `json:"timestamp"`
	SessionID string                 `json:"session_id"`
	Event     string                 `json:"event"`
	Agent     string                 `json:"agent,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// AppendIndex appends "<timestamp>\t<mode>\t<logPath>" to dir/timestamp.log so runs
// can be matched to the daily file they wrote to.
func AppendIndex(dir, mode, logPath string) error {
	return appendIndexAt(dir, mode, logPath, time.Now())
}

func appendIndexAt(dir, mode, logPath string, now time.Time) error {
	if dir == "" {
		return ErrEmptyDirectory
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(filepath.Join(dir, IndexFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open run index: %w", err)
	}
	defer file.Close()

	if _, err := fmt.Fprintf(file, "%s\t%s\t%s\n", now.Format(TimestampFormat), mode, logPath); err != nil {
		return fmt.Errorf("failed to append run index: %w", err)
	}
	return nil
}

// ReadRecords parses a session log. When sessionID is non-empty only that
// session's records are returned. Malformed lines are skipped.
func ReadRecords(path, sessionID string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session log: %w", err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		if sessionID != "" && rec.SessionID != sessionID {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read session log: %w", err)
	}

	return records, nil
}
