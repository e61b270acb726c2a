package models

// Sender identifies who authored a transcript entry.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// TranscriptEntry is one chat bubble in the active session. Order is
// chronological.
type TranscriptEntry struct {
	Text       string      `json:"text"`
	Sender     Sender      `json:"sender"`
	Evaluation *Evaluation `json:"evaluation,omitempty"`
}

// Evaluation is the per-message assessment returned by the evaluation
// service for a bot response.
type Evaluation struct {
	Scores   MetricScores `json:"scores"`
	Feedback string       `json:"feedback"`
}

// Clone returns a deep copy of the entry.
func (e TranscriptEntry) Clone() TranscriptEntry {
	if e.Evaluation != nil {
		ev := Evaluation{
			Scores:   e.Evaluation.Scores.Clone(),
			Feedback: e.Evaluation.Feedback,
		}
		e.Evaluation = &ev
	}
	return e
}

// CloneTranscript deep-copies a transcript. A nil input yields an empty,
// non-nil slice so JSON output is always an array.
func CloneTranscript(entries []TranscriptEntry) []TranscriptEntry {
	out := make([]TranscriptEntry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}

// ConversationTurn is one element of an uploaded conversation file.
type ConversationTurn struct {
	UserQuestion string `json:"user_question"`
	BotResponse  string `json:"bot_response"`
}
