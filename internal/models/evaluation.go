package models

import "time"

// ConversationFile is an uploaded conversation document kept with the
// selection so it can be attached to the next evaluation request.
type ConversationFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// EvaluationForm is the payload of an evaluation request.
type EvaluationForm struct {
	Model   string   `mapstructure:"model" json:"model" validate:"max=200"`
	Metrics []string `mapstructure:"metrics" json:"metrics" validate:"dive,required"`
	Context string   `mapstructure:"context" json:"context"`

	// File is attached as conversation_file when non-nil.
	File *ConversationFile `mapstructure:"-" json:"-"`
}

// EvaluationResponse is the body returned by POST /evaluation.
type EvaluationResponse struct {
	Code int            `json:"code,omitempty"`
	Data EvaluationData `json:"data"`
}

// EvaluationData holds the averaged scores and the scored conversation.
type EvaluationData struct {
	AverageScores MetricScores      `json:"average_scores"`
	Conversations []TranscriptEntry `json:"conversations"`
}

// ChatResponse is the body returned by the chat endpoint.
type ChatResponse struct {
	Data string `json:"data"`
}

// ScoreRecord is one model's average scores, ready to be folded into the
// benchmark table.
type ScoreRecord struct {
	Model  string       `json:"model"`
	Scores MetricScores `json:"scores"`
}

// EvaluationOutcome is the saved result of a single evaluation submission.
// The compare command folds a set of these into a benchmark table.
type EvaluationOutcome struct {
	RequestID  string            `json:"request_id"`
	Timestamp  time.Time         `json:"timestamp"`
	Model      string            `json:"model"`
	ModelLabel string            `json:"model_label"`
	Metrics    []string          `json:"metrics"`
	Context    string            `json:"context,omitempty"`
	Summary    MetricScores      `json:"average_scores"`
	Transcript []TranscriptEntry `json:"transcript"`
}

// Record returns the outcome's benchmark record, keyed by the model label
// when one is present.
func (o *EvaluationOutcome) Record() ScoreRecord {
	model := o.ModelLabel
	if model == "" {
		model = o.Model
	}
	return ScoreRecord{Model: model, Scores: o.Summary.Clone()}
}
