package eventlog

import "time"

// EventType identifies the kind of diagnostic event.
type EventType string

const (
	EventSessionStart        EventType = "session_start"
	EventSessionEnd          EventType = "session_end"
	EventConversationLoaded  EventType = "conversation_loaded"
	EventEvaluationSubmitted EventType = "evaluation_submitted"
	EventEvaluationApplied   EventType = "evaluation_applied"
	EventEvaluationDiscarded EventType = "evaluation_discarded"
	EventChatSent            EventType = "chat_sent"
	EventChatReplied         EventType = "chat_replied"
	EventChatDiscarded       EventType = "chat_discarded"
	EventBenchmarkCleared    EventType = "benchmark_cleared"
	EventSessionReset        EventType = "session_reset"
	EventError               EventType = "error"
)

// Event is a single timestamped entry in an event log.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      EventType      `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewEvent creates an event with the current timestamp.
func NewEvent(t EventType, data map[string]any) Event {
	return Event{
		Timestamp: time.Now().UTC(),
		Type:      t,
		Data:      data,
	}
}

// SessionStartData returns event data for a session start.
func SessionStartData(surface, serviceURL string) map[string]any {
	return map[string]any{
		"surface":     surface,
		"service_url": serviceURL,
	}
}

// ConversationLoadedData returns event data for an ingested conversation file.
func ConversationLoadedData(fileName string, entries int) map[string]any {
	return map[string]any{
		"file":    fileName,
		"entries": entries,
	}
}

// EvaluationSubmittedData returns event data for an evaluation request.
func EvaluationSubmittedData(model string, metrics []string, hasFile bool) map[string]any {
	return map[string]any{
		"model":    model,
		"metrics":  metrics,
		"has_file": hasFile,
	}
}

// EvaluationAppliedData returns event data for an applied evaluation.
func EvaluationAppliedData(model string, scores map[string]float64, entries int, durationMs int64) map[string]any {
	return map[string]any{
		"model":       model,
		"scores":      scores,
		"entries":     entries,
		"duration_ms": durationMs,
	}
}

// EvaluationDiscardedData returns event data for a response dropped because
// the session changed.
func EvaluationDiscardedData(model, reason string) map[string]any {
	return map[string]any{
		"model":  model,
		"reason": reason,
	}
}

// ChatData returns event data for a chat message or reply.
func ChatData(length int, durationMs int64) map[string]any {
	return map[string]any{
		"length":      length,
		"duration_ms": durationMs,
	}
}

// ErrorData returns event data for an error.
func ErrorData(message, kind string, details map[string]any) map[string]any {
	d := map[string]any{
		"message": message,
		"kind":    kind,
	}
	for k, v := range details {
		d[k] = v
	}
	return d
}
