package eventlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const logSuffix = "-events.jsonl"

// LogFile describes an event log on disk.
type LogFile struct {
	Path      string
	Name      string
	Size      int64
	ModTime   time.Time
	NumEvents int
}

// ListLogs finds event log files in dir, newest first.
func ListLogs(dir string) ([]LogFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading event log directory: %w", err)
	}

	var files []LogFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), logSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}

		path := filepath.Join(dir, e.Name())
		n, _ := countLines(path) //nolint:errcheck
		files = append(files, LogFile{
			Path:      path,
			Name:      e.Name(),
			Size:      info.Size(),
			ModTime:   info.ModTime(),
			NumEvents: n,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}

// Resolve returns the log path for name, which may be a path, a file name
// inside dir, or "latest".
func Resolve(dir, name string) (string, error) {
	if name == "" || name == "latest" {
		files, err := ListLogs(dir)
		if err != nil {
			return "", err
		}
		if len(files) == 0 {
			return "", fmt.Errorf("no event logs in %s", dir)
		}
		return files[0].Path, nil
	}
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("event log %q not found", name)
	}
	return path, nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close() //nolint:errcheck
	n := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		n++
	}
	return n, scanner.Err()
}

// ReadEvents parses all events from an event log file. Malformed lines are
// skipped.
func ReadEvents(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	defer f.Close() //nolint:errcheck

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading event log: %w", err)
	}
	return events, nil
}

// RenderTimeline writes a human-readable timeline to w.
//
//nolint:errcheck // display-only writes; errors are not actionable
func RenderTimeline(w io.Writer, events []Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events found.")
		return
	}

	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
	fmt.Fprintln(w, " EVENT TIMELINE")
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════")
	fmt.Fprintln(w)

	start := events[0].Timestamp
	for _, ev := range events {
		ts := formatDuration(ev.Timestamp.Sub(start))

		switch ev.Type {
		case EventSessionStart:
			surface, _ := ev.Data["surface"].(string) //nolint:errcheck
			url, _ := ev.Data["service_url"].(string) //nolint:errcheck
			fmt.Fprintf(w, "[%s] 🚀 Session started  surface=%s  service=%s\n", ts, surface, url)

		case EventConversationLoaded:
			file, _ := ev.Data["file"].(string) //nolint:errcheck
			fmt.Fprintf(w, "[%s] 📄 Conversation loaded  %s (%d entries)\n", ts, file, jsonNumber(ev.Data["entries"]))

		case EventEvaluationSubmitted:
			model, _ := ev.Data["model"].(string) //nolint:errcheck
			fmt.Fprintf(w, "[%s] ▶  Evaluation submitted  model=%s  metrics=%s\n", ts, model, joinStrings(ev.Data["metrics"]))

		case EventEvaluationApplied:
			model, _ := ev.Data["model"].(string) //nolint:errcheck
			fmt.Fprintf(w, "[%s] ✓  Evaluation applied  model=%s  %s (%dms)\n",
				ts, model, formatScores(ev.Data["scores"]), jsonNumber(ev.Data["duration_ms"]))

		case EventEvaluationDiscarded:
			model, _ := ev.Data["model"].(string)   //nolint:errcheck
			reason, _ := ev.Data["reason"].(string) //nolint:errcheck
			fmt.Fprintf(w, "[%s] ⏭  Evaluation discarded  model=%s  %s\n", ts, model, reason)

		case EventChatSent:
			fmt.Fprintf(w, "[%s] 💬 Chat sent  (%d chars)\n", ts, jsonNumber(ev.Data["length"]))

		case EventChatReplied:
			fmt.Fprintf(w, "[%s] 💬 Chat reply  (%d chars, %dms)\n", ts, jsonNumber(ev.Data["length"]), jsonNumber(ev.Data["duration_ms"]))

		case EventChatDiscarded:
			fmt.Fprintf(w, "[%s] ⏭  Chat reply discarded\n", ts)

		case EventBenchmarkCleared:
			fmt.Fprintf(w, "[%s] 🧹 Benchmark cleared\n", ts)

		case EventSessionReset:
			fmt.Fprintf(w, "[%s] ↺  Session reset\n", ts)

		case EventError:
			msg, _ := ev.Data["message"].(string) //nolint:errcheck
			kind, _ := ev.Data["kind"].(string)   //nolint:errcheck
			fmt.Fprintf(w, "[%s] ❌ Error [%s]: %s\n", ts, kind, msg)

		case EventSessionEnd:
			fmt.Fprintf(w, "[%s] 🏁 Session ended\n", ts)

		default:
			fmt.Fprintf(w, "[%s] %s %v\n", ts, ev.Type, ev.Data)
		}
	}
	fmt.Fprintln(w)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%6dms", d.Milliseconds())
	}
	return fmt.Sprintf("%6.1fs", d.Seconds())
}

func formatScores(v any) string {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return "no scores"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%.2f", k, jsonFloat(m[k]))
	}
	return strings.Join(parts, " ")
}

func joinStrings(v any) string {
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return "(none)"
	}
	parts := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ",")
}

// jsonNumber extracts an integer from a JSON-decoded value.
func jsonNumber(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case json.Number:
		i, _ := n.Int64() //nolint:errcheck
		return int(i)
	}
	return 0
}

func jsonFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case json.Number:
		f, _ := n.Float64() //nolint:errcheck
		return f
	}
	return 0
}
