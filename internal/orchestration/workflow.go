// Package orchestration wires the evaluation service, file ingestion, result
// reshaping, and session state into the user-facing operations.
package orchestration

//go:generate go tool mockgen -source=workflow.go -destination=mocks_test.go -package=orchestration

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/benchmark"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/eventlog"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/evalclient"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/ingest"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/models"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/reshape"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/state"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/transcript"
)

// ChatFallback is the bot reply shown when a chat request fails.
const ChatFallback = "Something went wrong. Please try again later."

// ErrNoConversation is returned by SendChat before a conversation is loaded.
var ErrNoConversation = errors.New("load a conversation file before chatting")

// EvaluationService is the remote evaluation service.
type EvaluationService interface {
	SubmitEvaluation(ctx context.Context, form models.EvaluationForm) (*models.EvaluationResponse, error)
	SubmitChatQuery(ctx context.Context, message string) (string, error)
}

// ProgressListener receives progress updates.
type ProgressListener func(event ProgressEvent)

// ProgressType identifies a progress update.
type ProgressType string

const (
	ProgressEvaluationStart    ProgressType = "evaluation_start"
	ProgressEvaluationComplete ProgressType = "evaluation_complete"
	ProgressChatStart          ProgressType = "chat_start"
	ProgressChatComplete       ProgressType = "chat_complete"
)

// ProgressEvent is a progress update.
type ProgressEvent struct {
	Type       ProgressType
	Model      string
	DurationMs int64
	Err        error
}

// EvaluationResult is the applied outcome of SubmitEvaluation.
type EvaluationResult struct {
	Outcome *models.EvaluationOutcome
	Record  models.ScoreRecord

	// TranscriptPath is set when the outcome was saved.
	TranscriptPath string
}

// Workflow runs the session operations against a single state store.
type Workflow struct {
	service       EvaluationService
	store         *state.Store
	catalog       models.Catalog
	recorder      *eventlog.Recorder
	logger        *slog.Logger
	transcriptDir string
	now           func() time.Time

	progressMu sync.Mutex
	listeners  []ProgressListener
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithStore sets the state store. Defaults to an empty store.
func WithStore(s *state.Store) Option {
	return func(w *Workflow) {
		if s != nil {
			w.store = s
		}
	}
}

// WithCatalog sets the model and metric catalog used for labels.
func WithCatalog(c models.Catalog) Option {
	return func(w *Workflow) {
		w.catalog = c
	}
}

// WithRecorder sets the diagnostic event recorder.
func WithRecorder(r *eventlog.Recorder) Option {
	return func(w *Workflow) {
		if r != nil {
			w.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Workflow) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithTranscriptDir saves every applied evaluation outcome into dir.
func WithTranscriptDir(dir string) Option {
	return func(w *Workflow) {
		w.transcriptDir = dir
	}
}

// New creates a Workflow.
func New(service EvaluationService, opts ...Option) *Workflow {
	w := &Workflow{
		service: service,
		store:   state.New(),
		catalog: models.DefaultCatalog(),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(w)
	}
	if w.recorder == nil {
		w.recorder = eventlog.NewRecorder(nil, w.logger)
	}
	return w
}

// OnProgress registers a progress listener.
func (w *Workflow) OnProgress(listener ProgressListener) {
	w.progressMu.Lock()
	defer w.progressMu.Unlock()
	w.listeners = append(w.listeners, listener)
}

func (w *Workflow) notifyProgress(event ProgressEvent) {
	w.progressMu.Lock()
	listeners := make([]ProgressListener, len(w.listeners))
	copy(listeners, w.listeners)
	w.progressMu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// Snapshot returns a copy of the session state.
func (w *Workflow) Snapshot() state.Snapshot { return w.store.Snapshot() }

// Catalog returns the selectable models and metrics.
func (w *Workflow) Catalog() models.Catalog { return w.catalog }

// LoadConversation ingests a conversation file. On success the transcript is
// replaced and the file is attached to later evaluations; on failure an alert
// is raised and the session is otherwise unchanged.
func (w *Workflow) LoadConversation(name, contentType string, r io.Reader) (int, error) {
	contentType = ingest.DetectContentType(name, contentType)

	var raw bytes.Buffer
	entries, err := ingest.ParseConversationFile(contentType, io.TeeReader(r, &raw))
	if err != nil {
		w.store.SetNotice(state.Notice{Kind: state.NoticeAlert, Message: alertMessage(err)})
		w.recorder.Record(eventlog.EventError, eventlog.ErrorData(err.Error(), "ingest", map[string]any{"file": name}))
		return 0, fmt.Errorf("loading %s: %w", name, err)
	}

	w.store.ReplaceTranscript(entries, models.ConversationFile{
		Name:        name,
		ContentType: ingest.JSONContentType,
		Data:        raw.Bytes(),
	})
	w.store.DismissNotice()
	w.recorder.Record(eventlog.EventConversationLoaded, eventlog.ConversationLoadedData(name, len(entries)))
	return len(entries), nil
}

// SubmitEvaluation posts the selection with the attached conversation file
// and applies the reshaped result. The form's File is ignored; the last
// successfully loaded conversation is attached instead.
func (w *Workflow) SubmitEvaluation(ctx context.Context, form models.EvaluationForm) (*EvaluationResult, error) {
	ticket, err := w.store.BeginEvaluation()
	if err != nil {
		return nil, err
	}
	w.store.SetSelection(form.Model, form.Metrics, form.Context)

	form.File = w.store.Snapshot().Selection.File
	label := ""
	if form.Model != "" {
		label = w.catalog.ModelLabel(form.Model)
	}

	w.recorder.Record(eventlog.EventEvaluationSubmitted,
		eventlog.EvaluationSubmittedData(form.Model, form.Metrics, form.File != nil))
	w.notifyProgress(ProgressEvent{Type: ProgressEvaluationStart, Model: label})

	start := w.now()
	resp, err := w.service.SubmitEvaluation(ctx, form)
	elapsed := w.now().Sub(start)
	if err != nil {
		w.notifyProgress(ProgressEvent{Type: ProgressEvaluationComplete, Model: label, DurationMs: elapsed.Milliseconds(), Err: err})
		if errors.Is(w.store.FailEvaluation(ticket), state.ErrStale) {
			w.recorder.Record(eventlog.EventEvaluationDiscarded, eventlog.EvaluationDiscardedData(label, err.Error()))
			return nil, fmt.Errorf("%w: %w", state.ErrStale, err)
		}
		w.store.SetNotice(state.Notice{Kind: state.NoticeBanner, Message: evalclient.UserMessage(err)})
		w.recorder.Record(eventlog.EventError, eventlog.ErrorData(err.Error(), evalclient.Kind(err), map[string]any{"model": form.Model}))
		return nil, fmt.Errorf("submitting evaluation: %w", err)
	}

	entries, rec := reshape.Reshape(resp, label)
	summary := reshape.Summary(resp)
	if rec.Model == "" {
		w.logger.Warn("no model selected; benchmark table not updated")
	}

	if err := w.store.ApplyEvaluation(ticket, entries, summary, rec); err != nil {
		w.notifyProgress(ProgressEvent{Type: ProgressEvaluationComplete, Model: label, DurationMs: elapsed.Milliseconds(), Err: err})
		w.recorder.Record(eventlog.EventEvaluationDiscarded, eventlog.EvaluationDiscardedData(label, "session changed while the request was in flight"))
		return nil, err
	}

	w.store.DismissNotice()
	w.recorder.Record(eventlog.EventEvaluationApplied,
		eventlog.EvaluationAppliedData(label, scoreMap(summary), len(entries), elapsed.Milliseconds()))
	w.notifyProgress(ProgressEvent{Type: ProgressEvaluationComplete, Model: label, DurationMs: elapsed.Milliseconds()})

	result := &EvaluationResult{
		Outcome: transcript.Build(uuid.NewString(), form, label, summary, entries, start),
		Record:  rec,
	}
	if w.transcriptDir != "" {
		path, err := transcript.Write(w.transcriptDir, result.Outcome)
		if err != nil {
			w.logger.Warn("failed to save transcript", "dir", w.transcriptDir, "error", err)
		} else {
			result.TranscriptPath = path
		}
	}
	return result, nil
}

// SendChat posts message and appends the exchange to the transcript.
// Whitespace-only messages are ignored. When the request fails the fallback
// reply is appended and returned together with the error.
func (w *Workflow) SendChat(ctx context.Context, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", nil
	}
	if !w.store.HasConversation() {
		return "", ErrNoConversation
	}

	ticket, err := w.store.BeginChat(message)
	if err != nil {
		return "", err
	}
	w.recorder.Record(eventlog.EventChatSent, eventlog.ChatData(len(message), 0))
	w.notifyProgress(ProgressEvent{Type: ProgressChatStart})

	start := w.now()
	reply, err := w.service.SubmitChatQuery(ctx, message)
	elapsed := w.now().Sub(start).Milliseconds()
	if err != nil {
		w.recorder.Record(eventlog.EventError, eventlog.ErrorData(err.Error(), evalclient.Kind(err), map[string]any{"operation": "chat"}))
		reply = ChatFallback
	}
	w.notifyProgress(ProgressEvent{Type: ProgressChatComplete, DurationMs: elapsed, Err: err})

	if ferr := w.store.FinishChat(ticket, reply); ferr != nil {
		w.recorder.Record(eventlog.EventChatDiscarded, eventlog.ChatData(len(reply), elapsed))
		return "", ferr
	}
	if err != nil {
		return reply, fmt.Errorf("sending chat message: %w", err)
	}
	w.recorder.Record(eventlog.EventChatReplied, eventlog.ChatData(len(reply), elapsed))
	return reply, nil
}

// ClearBenchmark empties the benchmark table.
func (w *Workflow) ClearBenchmark() {
	w.store.ClearBenchmark()
	w.recorder.Record(eventlog.EventBenchmarkCleared, nil)
}

// Reset clears the conversation, summary, and selection. Responses still in
// flight are discarded when they arrive.
func (w *Workflow) Reset() {
	w.store.Reset()
	w.recorder.Record(eventlog.EventSessionReset, nil)
}

// DismissNotice clears the current notice.
func (w *Workflow) DismissNotice() {
	w.store.DismissNotice()
}

// Seed folds a saved benchmark table, e.g. one read from an export, into the
// session's table. Its columns are kept even when every cell is missing.
func (w *Workflow) Seed(t benchmark.Table) {
	w.store.MergeBenchmark(t)
}

func alertMessage(err error) string {
	switch {
	case errors.Is(err, ingest.ErrUnsupportedFileType):
		return "Only JSON files are allowed."
	case errors.Is(err, ingest.ErrInvalidSchema):
		return "Invalid JSON file format."
	default:
		return "The conversation file could not be read."
	}
}

func scoreMap(s models.MetricScores) map[string]float64 {
	out := make(map[string]float64, s.Len())
	for _, p := range s.Pairs() {
		out[p.Name] = p.Value
	}
	return out
}
