// Package audit records operator actions as JSON lines in a size-rotated file.
package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the audit log inside the configured directory.
const FileName = "audit.jsonl"

// Outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Entry is one audit record.
type Entry struct {
	Timestamp time.Time `json:"ts"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	URI       string    `json:"uri,omitempty"`
	Outcome   string    `json:"outcome"`
	Code      string    `json:"code"`
	LatencyMS int64     `json:"latencyMs"`
	Error     string    `json:"error,omitempty"`
}

// Logger appends entries to a rotated JSONL file. A nil *Logger discards entries.
type Logger struct {
	mu  sync.Mutex
	out io.WriteCloser
	now func() time.Time
}

// NewLogger opens dir/audit.jsonl, rotating at maxSizeMB and keeping maxBackups.
func NewLogger(dir string, maxSizeMB, maxBackups int) (*Logger, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}
	return &Logger{
		out: &lumberjack.Logger{
			Filename:   filepath.Join(dir, FileName),
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
		},
		now: time.Now,
	}, nil
}

// Record writes one action. code is the API code, SUCCESS when err is nil.
func (l *Logger) Record(actor, action, uri, code string, latency time.Duration, err error) error {
	if l == nil {
		return nil
	}

	entry := Entry{
		Timestamp: l.now().UTC(),
		Actor:     actor,
		Action:    action,
		URI:       uri,
		Outcome:   OutcomeSuccess,
		Code:      code,
		LatencyMS: latency.Milliseconds(),
	}
	if err != nil {
		entry.Outcome = OutcomeFailure
		entry.Error = err.Error()
	}

	data, mErr := json.Marshal(entry)
	if mErr != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", mErr)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, wErr := l.out.Write(append(data, '\n')); wErr != nil {
		return fmt.Errorf("failed to write audit entry: %w", wErr)
	}
	return nil
}

// Close closes the file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out.Close()
}
