// Package state holds the single session state container. All mutations go
// through Store methods; readers get deep copies via Snapshot.
package state

import (
	"errors"
	"sync"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/benchmark"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/models"
)

var (
	// ErrBusy is returned when a chat or evaluation request is already in
	// flight. The two never overlap.
	ErrBusy = errors.New("a request is already in progress")
	// ErrStale is returned when a response arrives after the session it was
	// issued for has been replaced.
	ErrStale = errors.New("response discarded: session changed while the request was in flight")
)

// NoticeKind classifies a user-facing notice.
type NoticeKind string

const (
	// NoticeAlert blocks until acknowledged; used for validation errors.
	NoticeAlert NoticeKind = "alert"
	// NoticeBanner is dismissible; used for request errors.
	NoticeBanner NoticeKind = "banner"
)

// Notice is a message shown to the user.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// Selection is the evaluation form's current input.
type Selection struct {
	Model   string                   `json:"model"`
	Metrics []string                 `json:"metrics"`
	Context string                   `json:"context"`
	File    *models.ConversationFile `json:"file,omitempty"`
}

// Ticket identifies the session generation a request was issued in.
type Ticket struct {
	generation uint64
}

// Snapshot is a point-in-time copy of the store.
type Snapshot struct {
	Transcript []models.TranscriptEntry `json:"transcript"`
	Summary    models.MetricScores      `json:"summary"`
	Benchmark  benchmark.Table          `json:"benchmark"`
	Selection  Selection                `json:"selection"`
	Notice     *Notice                  `json:"notice,omitempty"`
	Evaluating bool                     `json:"evaluating"`
	Chatting   bool                     `json:"chatting"`
	Generation uint64                   `json:"generation"`
}

// Store is the session state. It is safe for concurrent use.
type Store struct {
	mu         sync.Mutex
	transcript []models.TranscriptEntry
	summary    models.MetricScores
	table      benchmark.Table
	selection  Selection
	notice     *Notice
	evaluating bool
	chatting   bool
	generation uint64
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Transcript: models.CloneTranscript(s.transcript),
		Summary:    s.summary.Clone(),
		Benchmark:  s.table.Clone(),
		Selection:  cloneSelection(s.selection),
		Evaluating: s.evaluating,
		Chatting:   s.chatting,
		Generation: s.generation,
	}
	if s.notice != nil {
		n := *s.notice
		snap.Notice = &n
	}
	return snap
}

// SetSelection records the form's model, metrics, and context. The attached
// file is left alone.
func (s *Store) SetSelection(model string, metrics []string, context string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Model = model
	s.selection.Metrics = append([]string(nil), metrics...)
	s.selection.Context = context
}

// ReplaceTranscript swaps in a newly ingested conversation and attaches its
// file to future evaluations. Any in-flight response becomes stale.
func (s *Store) ReplaceTranscript(entries []models.TranscriptEntry, file models.ConversationFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = models.CloneTranscript(entries)
	f := file
	f.Data = append([]byte(nil), file.Data...)
	s.selection.File = &f
	s.generation++
}

// HasConversation reports whether a transcript is loaded.
func (s *Store) HasConversation() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transcript) > 0
}

// BeginEvaluation marks an evaluation in flight and returns its ticket.
// Earlier in-flight responses become stale.
func (s *Store) BeginEvaluation() (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.evaluating || s.chatting {
		return Ticket{}, ErrBusy
	}
	s.evaluating = true
	s.generation++
	return Ticket{generation: s.generation}, nil
}

// ApplyEvaluation ends the evaluation started with t. If t is still current
// the transcript and summary are replaced and the record is folded into the
// benchmark table; otherwise nothing changes and ErrStale is returned.
// A record with an empty model is not folded in. Replacing the transcript
// starts a new generation.
func (s *Store) ApplyEvaluation(t Ticket, entries []models.TranscriptEntry, summary models.MetricScores, rec models.ScoreRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evaluating = false
	if t.generation != s.generation {
		return ErrStale
	}
	s.transcript = models.CloneTranscript(entries)
	s.summary = summary.Clone()
	if rec.Model != "" {
		s.table = benchmark.Upsert(s.table, rec)
	}
	s.generation++
	return nil
}

// FailEvaluation ends the evaluation started with t without applying a
// result. It returns ErrStale if the session changed meanwhile.
func (s *Store) FailEvaluation(t Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evaluating = false
	if t.generation != s.generation {
		return ErrStale
	}
	return nil
}

// BeginChat appends the user's message and marks a chat request in flight.
// It fails with ErrBusy while an evaluation is pending, since applying the
// evaluation would replace the message.
func (s *Store) BeginChat(message string) (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chatting || s.evaluating {
		return Ticket{}, ErrBusy
	}
	s.chatting = true
	s.transcript = append(s.transcript, models.TranscriptEntry{Text: message, Sender: models.SenderUser})
	return Ticket{generation: s.generation}, nil
}

// FinishChat ends the chat request started with t and appends the bot's
// reply if t is still current. Otherwise it returns ErrStale.
func (s *Store) FinishChat(t Ticket, reply string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatting = false
	if t.generation != s.generation {
		return ErrStale
	}
	s.transcript = append(s.transcript, models.TranscriptEntry{Text: reply, Sender: models.SenderBot})
	return nil
}

// AppendMessages appends entries to the transcript.
func (s *Store) AppendMessages(entries ...models.TranscriptEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.transcript = append(s.transcript, e.Clone())
	}
}

// MergeBenchmark folds every row of t into the benchmark table, keeping t's
// columns.
func (s *Store) MergeBenchmark(t benchmark.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = benchmark.Merge(s.table, t)
}

// UpsertBenchmark folds rec into the benchmark table.
func (s *Store) UpsertBenchmark(rec models.ScoreRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = benchmark.Upsert(s.table, rec)
}

// ClearBenchmark empties the benchmark table.
func (s *Store) ClearBenchmark() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = benchmark.Clear()
}

// SetNotice replaces the current notice.
func (s *Store) SetNotice(n Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = &n
}

// DismissNotice clears the current notice.
func (s *Store) DismissNotice() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = nil
}

// Reset clears the transcript, summary, selection, and notice. The benchmark
// table is kept. In-flight responses become stale.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = nil
	s.summary = models.MetricScores{}
	s.selection = Selection{}
	s.notice = nil
	s.generation++
}

func cloneSelection(sel Selection) Selection {
	out := Selection{
		Model:   sel.Model,
		Metrics: append([]string(nil), sel.Metrics...),
		Context: sel.Context,
	}
	if sel.File != nil {
		f := *sel.File
		f.Data = append([]byte(nil), sel.File.Data...)
		out.File = &f
	}
	return out
}
