package webapi

import (
	"time"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/benchmark"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/models"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/render"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/state"
)

// EntryResponse is a transcript entry with its display text.
type EntryResponse struct {
	models.TranscriptEntry
	Display string `json:"display"`
}

// SelectionResponse is the evaluation form's current input. Only the name of
// the attached conversation file is exposed.
type SelectionResponse struct {
	Model    string   `json:"model"`
	Metrics  []string `json:"metrics"`
	Context  string   `json:"context"`
	FileName string   `json:"fileName,omitempty"`
}

// StateResponse is the API view of the session.
type StateResponse struct {
	Transcript []EntryResponse     `json:"transcript"`
	Summary    models.MetricScores `json:"summary"`
	Benchmark  benchmark.Table     `json:"benchmark"`
	Columns    []string            `json:"columns"`
	Selection  SelectionResponse   `json:"selection"`
	Notice     *state.Notice       `json:"notice,omitempty"`
	Evaluating bool                `json:"evaluating"`
	Chatting   bool                `json:"chatting"`
}

// NewStateResponse converts a snapshot into its API view.
func NewStateResponse(s state.Snapshot) StateResponse {
	entries := make([]EntryResponse, len(s.Transcript))
	for i, e := range s.Transcript {
		entries[i] = EntryResponse{TranscriptEntry: e, Display: render.EntryText(e)}
	}
	metrics := s.Selection.Metrics
	if metrics == nil {
		metrics = []string{}
	}
	sel := SelectionResponse{
		Model:   s.Selection.Model,
		Metrics: metrics,
		Context: s.Selection.Context,
	}
	if s.Selection.File != nil {
		sel.FileName = s.Selection.File.Name
	}
	return StateResponse{
		Transcript: entries,
		Summary:    s.Summary,
		Benchmark:  s.Benchmark,
		Columns:    benchmark.VisibleColumns(s.Benchmark),
		Selection:  sel,
		Notice:     s.Notice,
		Evaluating: s.Evaluating,
		Chatting:   s.Chatting,
	}
}

// ConversationResponse is returned after a conversation upload.
type ConversationResponse struct {
	Entries int           `json:"entries"`
	State   StateResponse `json:"state"`
}

// EvaluationResponse is returned after a successful evaluation.
type EvaluationResponse struct {
	RequestID      string        `json:"requestId"`
	TranscriptPath string        `json:"transcriptPath,omitempty"`
	State          StateResponse `json:"state"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `mapstructure:"message" validate:"required,max=4000"`
}

// ChatResponse is returned by POST /api/chat. Error is set when the reply is
// the fallback message.
type ChatResponse struct {
	Reply string `json:"reply"`
	Error string `json:"error,omitempty"`
}

// ResultSummary is the API response for a saved evaluation result in the
// list.
type ResultSummary struct {
	ID            string              `json:"id"`
	Model         string              `json:"model"`
	ModelLabel    string              `json:"modelLabel"`
	Metrics       []string            `json:"metrics"`
	AverageScores models.MetricScores `json:"averageScores"`
	Messages      int                 `json:"messages"`
	Timestamp     time.Time           `json:"timestamp"`
}

// HealthResponse is the health check response.
type HealthResponse struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	ServiceURL string `json:"serviceUrl,omitempty"`
}

// ErrorResponse is returned for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}
