package retrieval

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// QueryLogEntry is one retrieval observation, written as a JSONL record.
// The entries are the raw material for answer-quality tuning: which queries
// ran, how many chunks came back and how long the round trip took.
type QueryLogEntry struct {
	Timestamp     time.Time     `json:"timestamp"`
	Query         string        `json:"query"`
	K             int           `json:"k"`
	NumResults    int           `json:"num_results"`
	Duration      time.Duration `json:"duration_ns"`
	LatencyMs     int64         `json:"latency_ms"`
	CorrelationID string        `json:"correlation_id"`
}

// QueryLogger appends entries to a writer, one JSON object per line.
// Safe for concurrent use.
type QueryLogger struct {
	mu  sync.Mutex
	out io.Writer
}

func NewQueryLogger(w io.Writer) *QueryLogger {
	return &QueryLogger{out: w}
}

// NewFileQueryLogger appends to the given file, creating parent directories
// as needed, and mirrors entries to stdout.
func NewFileQueryLogger(path string) (*QueryLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(filepath.Clean(path), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	return NewQueryLogger(io.MultiWriter(os.Stdout, f)), nil
}

func (l *QueryLogger) Log(entry QueryLogEntry) {
	entry.Timestamp = time.Now()
	entry.LatencyMs = entry.Duration.Milliseconds()

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := json.NewEncoder(l.out).Encode(entry); err != nil {
		slog.Error("failed to write query log entry", "error", err)
	}
}
