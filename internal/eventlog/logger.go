// Package eventlog writes the NDJSON diagnostic event log and renders it back
// as a timeline.
package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

// Logger receives diagnostic events.
type Logger interface {
	Log(event Event) error
	Close() error
}

// JSONLogger appends events to a file, one JSON object per line.
type JSONLogger struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
	path string
}

// NewJSONLogger opens path for appending, creating parent directories.
func NewJSONLogger(path string) (*JSONLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating event log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}

	return &JSONLogger{
		file: f,
		enc:  json.NewEncoder(f),
		path: path,
	}, nil
}

// Open starts a new timestamped log inside dir.
func Open(dir string) (*JSONLogger, error) {
	return NewJSONLogger(DefaultLogPath(dir))
}

// Log writes a single event as one JSON line.
func (l *JSONLogger) Log(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enc.Encode(event)
}

// Close closes the underlying file.
func (l *JSONLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// Path returns the file path of the event log.
func (l *JSONLogger) Path() string {
	return l.path
}

// NopLogger discards all events.
type NopLogger struct{}

// Log is a no-op.
func (NopLogger) Log(Event) error { return nil }

// Close is a no-op.
func (NopLogger) Close() error { return nil }

// MemoryLogger keeps events in memory.
type MemoryLogger struct {
	mu     sync.Mutex
	events []Event
}

// Log appends event.
func (m *MemoryLogger) Log(event Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Close is a no-op.
func (m *MemoryLogger) Close() error { return nil }

// Events returns a copy of the recorded events.
func (m *MemoryLogger) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

// Types returns the recorded event types in order.
func (m *MemoryLogger) Types() []EventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EventType, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}

// Recorder emits events to a Logger and mirrors them to slog. Write failures
// are reported through slog and otherwise ignored.
type Recorder struct {
	sink   Logger
	logger *slog.Logger
}

// NewRecorder returns a Recorder. A nil sink discards events and a nil logger
// uses slog.Default().
func NewRecorder(sink Logger, logger *slog.Logger) *Recorder {
	if sink == nil {
		sink = NopLogger{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{sink: sink, logger: logger}
}

// Record logs an event of type t.
func (r *Recorder) Record(t EventType, data map[string]any) {
	level := slog.LevelDebug
	if t == EventError {
		level = slog.LevelError
	}
	ctx := context.Background()
	if r.logger.Enabled(ctx, level) {
		attrs := make([]any, 0, 2*len(data))
		for _, k := range slices.Sorted(maps.Keys(data)) {
			attrs = append(attrs, k, data[k])
		}
		r.logger.Log(ctx, level, string(t), attrs...)
	}

	if err := r.sink.Log(NewEvent(t, data)); err != nil {
		r.logger.Warn("failed to write event log", "event", t, "error", err)
	}
}

// Close closes the sink.
func (r *Recorder) Close() error {
	return r.sink.Close()
}

// DefaultLogPath returns a timestamped event log path inside dir.
func DefaultLogPath(dir string) string {
	ts := time.Now().UTC().Format("20060102T150405Z")
	return filepath.Join(dir, fmt.Sprintf("%s-events.jsonl", ts))
}
