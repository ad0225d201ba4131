// Package runlog maintains the append-only record of runner invocations.
// One JSON line is written per run, success or failure; entries are never
// mutated or deleted.
package runlog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrWrite indicates the run log could not be appended to.
var ErrWrite = errors.New("run log write failed")

// Status is the recorded outcome of one run.
type Status string

// Run outcomes.
const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Entry is one run log record.
type Entry struct {
	RunID      string        `json:"run_id"`
	Timestamp  time.Time     `json:"timestamp"`
	Identifier string        `json:"identifier"`
	Slug       string        `json:"slug,omitempty"`
	Idea       string        `json:"idea,omitempty"`
	Status     Status        `json:"status"`
	Detail     string        `json:"detail,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
}

// Log is an append-only JSONL run log at a fixed path.
type Log struct {
	path string
}

// New creates a run log handle. The file is created on first append.
func New(path string) *Log {
	return &Log{path: path}
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// Append writes one entry as a JSON line. The parent directory is created
// if needed.
func (l *Log) Append(entry Entry) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("%w: creating log directory: %v", ErrWrite, err)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("%w: marshaling entry: %v", ErrWrite, err)
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", ErrWrite, l.path, err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("%w: appending to %s: %v", ErrWrite, l.path, err)
	}

	return nil
}

// Read returns all entries in append order. Malformed lines are skipped so
// a damaged line never hides the rest of the history.
func (l *Log) Read() ([]Entry, error) {
	file, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open run log %s: %w", l.path, err)
	}
	defer func() { _ = file.Close() }()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("failed to read run log %s: %w", l.path, err)
	}

	return entries, nil
}

// Tail returns the last n entries in append order.
func (l *Log) Tail(n int) ([]Entry, error) {
	entries, err := l.Read()
	if err != nil {
		return nil, err
	}
	if n <= 0 || n >= len(entries) {
		return entries, nil
	}
	return entries[len(entries)-n:], nil
}
