// Package webapi serves the JSON API behind the dashboard.
package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/benchmark"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/evalclient"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/ingest"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/models"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/orchestration"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/state"
)

// Version is set at build time or defaults to dev.
var Version = "dev"

// ConversationField is the multipart field carrying a conversation file.
const ConversationField = "conversation_file"

// Workflow is the session the handlers drive.
type Workflow interface {
	Snapshot() state.Snapshot
	Catalog() models.Catalog
	LoadConversation(name, contentType string, r io.Reader) (int, error)
	SubmitEvaluation(ctx context.Context, form models.EvaluationForm) (*orchestration.EvaluationResult, error)
	SendChat(ctx context.Context, message string) (string, error)
	ClearBenchmark()
	Reset()
	DismissNotice()
}

var _ Workflow = (*orchestration.Workflow)(nil)

// Handlers holds the HTTP handler methods for the web API.
type Handlers struct {
	wf         Workflow
	results    ResultStore
	serviceURL string
	logger     *slog.Logger
}

// HandlerOption configures Handlers.
type HandlerOption func(*Handlers)

// WithResults serves saved evaluation results from rs.
func WithResults(rs ResultStore) HandlerOption {
	return func(h *Handlers) { h.results = rs }
}

// WithServiceURL reports the evaluation service URL in health checks.
func WithServiceURL(u string) HandlerOption {
	return func(h *Handlers) { h.serviceURL = u }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) HandlerOption {
	return func(h *Handlers) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHandlers creates a new Handlers over wf.
func NewHandlers(wf Workflow, opts ...HandlerOption) *Handlers {
	h := &Handlers{
		wf:      wf,
		results: NewFileStore(""),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleHealth returns a simple health check response.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:     "ok",
		Version:    Version,
		ServiceURL: h.serviceURL,
	})
}

// HandleState returns the current session.
func (h *Handlers) HandleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, NewStateResponse(h.wf.Snapshot()))
}

// HandleCatalog returns the selectable models and metrics.
func (h *Handlers) HandleCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.wf.Catalog())
}

// HandleConversation loads a conversation from a multipart upload or a raw
// JSON body.
func (h *Handlers) HandleConversation(w http.ResponseWriter, r *http.Request) {
	name, contentType, body, err := conversationUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer body.Close() //nolint:errcheck

	n, err := h.wf.LoadConversation(name, contentType, body)
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ConversationResponse{
		Entries: n,
		State:   NewStateResponse(h.wf.Snapshot()),
	})
}

// LoadConversation is the upload half of HandleConversation, shared with
// the dashboard's form route.
func LoadConversation(wf Workflow, r *http.Request) (int, error) {
	name, contentType, body, err := conversationUpload(r)
	if err != nil {
		return 0, err
	}
	defer body.Close() //nolint:errcheck
	return wf.LoadConversation(name, contentType, body)
}

// HandleEvaluation submits an evaluation for the loaded conversation.
func (h *Handlers) HandleEvaluation(w http.ResponseWriter, r *http.Request) {
	form, err := DecodeEvaluationForm(r, h.wf.Catalog())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.wf.SubmitEvaluation(r.Context(), form)
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, EvaluationResponse{
		RequestID:      result.Outcome.RequestID,
		TranscriptPath: result.TranscriptPath,
		State:          NewStateResponse(h.wf.Snapshot()),
	})
}

// DecodeEvaluationForm reads and validates an evaluation form. An empty
// model or metric list is allowed; values outside the catalog are not.
func DecodeEvaluationForm(r *http.Request, catalog models.Catalog) (models.EvaluationForm, error) {
	var form models.EvaluationForm
	if err := decodeRequest(r, &form); err != nil {
		return models.EvaluationForm{}, err
	}
	if form.Model != "" && !catalog.HasModel(form.Model) {
		return models.EvaluationForm{}, fmt.Errorf("%w: unknown model %q", errBadRequest, form.Model)
	}
	for _, m := range form.Metrics {
		if !catalog.HasMetric(m) {
			return models.EvaluationForm{}, fmt.Errorf("%w: unknown metric %q", errBadRequest, m)
		}
	}
	form.Context = strings.TrimSpace(form.Context)
	return form, nil
}

// HandleChat sends a chat message. A failed request still returns the
// fallback reply.
func (h *Handlers) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := decodeRequest(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := h.wf.SendChat(r.Context(), req.Message)
	if err != nil && reply == "" {
		h.writeWorkflowError(w, err)
		return
	}
	resp := ChatResponse{Reply: reply}
	if err != nil {
		resp.Error = evalclient.UserMessage(err)
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleBenchmark returns the benchmark table as JSON, YAML, CSV or
// markdown, chosen by the format query parameter.
func (h *Handlers) HandleBenchmark(w http.ResponseWriter, r *http.Request) {
	t := h.wf.Snapshot().Benchmark
	format := r.URL.Query().Get("format")

	var buf bytes.Buffer
	var contentType string
	var err error
	switch format {
	case "", "json":
		contentType = "application/json"
		err = benchmark.WriteJSON(&buf, t)
	case "yaml":
		contentType = "application/yaml"
		err = benchmark.WriteYAML(&buf, t)
	case "csv":
		contentType = "text/csv; charset=utf-8"
		err = benchmark.WriteCSV(&buf, t)
	case "markdown", "md":
		contentType = "text/markdown; charset=utf-8"
		err = benchmark.WriteMarkdown(&buf, t)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q", format))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck
}

// HandleClearBenchmark empties the benchmark table.
func (h *Handlers) HandleClearBenchmark(w http.ResponseWriter, _ *http.Request) {
	h.wf.ClearBenchmark()
	writeJSON(w, http.StatusOK, NewStateResponse(h.wf.Snapshot()))
}

// HandleReset clears the session. The benchmark table is kept.
func (h *Handlers) HandleReset(w http.ResponseWriter, _ *http.Request) {
	h.wf.Reset()
	writeJSON(w, http.StatusOK, NewStateResponse(h.wf.Snapshot()))
}

// HandleDismissNotice clears the current notice.
func (h *Handlers) HandleDismissNotice(w http.ResponseWriter, _ *http.Request) {
	h.wf.DismissNotice()
	w.WriteHeader(http.StatusNoContent)
}

// HandleResults returns saved evaluation results, with optional sort/order
// query params.
func (h *Handlers) HandleResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.results.ListResults(r.URL.Query().Get("sort"), r.URL.Query().Get("order"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// HandleResultDetail returns one saved evaluation result.
func (h *Handlers) HandleResultDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "result id is required")
		return
	}

	o, err := h.results.GetResult(id)
	if err != nil {
		if errors.Is(err, ErrResultNotFound) {
			writeError(w, http.StatusNotFound, "result not found")
		} else {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// RegisterRoutes registers all web API routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, wf Workflow, opts ...HandlerOption) {
	h := NewHandlers(wf, opts...)
	mux.HandleFunc("GET /api/health", h.HandleHealth)
	mux.HandleFunc("GET /api/state", h.HandleState)
	mux.HandleFunc("GET /api/catalog", h.HandleCatalog)
	mux.HandleFunc("POST /api/conversation", h.HandleConversation)
	mux.HandleFunc("POST /api/evaluation", h.HandleEvaluation)
	mux.HandleFunc("POST /api/chat", h.HandleChat)
	mux.HandleFunc("GET /api/benchmark", h.HandleBenchmark)
	mux.HandleFunc("DELETE /api/benchmark", h.HandleClearBenchmark)
	mux.HandleFunc("POST /api/reset", h.HandleReset)
	mux.HandleFunc("DELETE /api/notice", h.HandleDismissNotice)
	mux.HandleFunc("GET /api/results", h.HandleResults)
	mux.HandleFunc("GET /api/results/{id}", h.HandleResultDetail)
}

// CORSMiddleware wraps a handler with CORS headers.
// If allowedOrigins is empty, no CORS header is set (same-origin only).
// Otherwise, the request Origin is checked against the allowed list.
func CORSMiddleware(next http.Handler, allowedOrigins ...string) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if len(allowedOrigins) > 0 && origin != "" && allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// StatusFor maps a workflow error onto an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, ingest.ErrInvalidSchema):
		return http.StatusBadRequest
	case errors.Is(err, ingest.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, state.ErrBusy),
		errors.Is(err, state.ErrStale),
		errors.Is(err, orchestration.ErrNoConversation):
		return http.StatusConflict
	case errors.Is(err, evalclient.ErrTimeout):
		return http.StatusGatewayTimeout
	case evalclient.Kind(err) != evalclient.KindUnclassified:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorMessage returns the text shown for err: the notice the workflow
// raised for ingestion and service failures, otherwise the error itself.
func ErrorMessage(wf Workflow, err error) string {
	switch {
	case errors.Is(err, state.ErrBusy), errors.Is(err, state.ErrStale):
		return err.Error()
	case errors.Is(err, ingest.ErrUnsupportedFileType), errors.Is(err, ingest.ErrInvalidSchema):
	case evalclient.Kind(err) != evalclient.KindUnclassified:
	default:
		return err.Error()
	}
	if n := wf.Snapshot().Notice; n != nil && n.Message != "" {
		return n.Message
	}
	return err.Error()
}

func (h *Handlers) writeWorkflowError(w http.ResponseWriter, err error) {
	code := StatusFor(err)
	if code >= http.StatusInternalServerError {
		h.logger.Warn("request failed", "status", code, "error", err)
	}
	writeError(w, code, ErrorMessage(h.wf, err))
}

// conversationUpload extracts the uploaded conversation from r.
func conversationUpload(r *http.Request) (string, string, io.ReadCloser, error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "multipart/form-data" {
		return "conversation.json", mt, io.NopCloser(io.LimitReader(r.Body, ingest.MaxFileSize+1)), nil
	}
	if err := r.ParseMultipartForm(ingest.MaxFileSize); err != nil {
		return "", "", nil, fmt.Errorf("parsing upload: %w", err)
	}
	for _, field := range []string{ConversationField, "file"} {
		f, hdr, err := r.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return "", "", nil, fmt.Errorf("reading upload: %w", err)
		}
		return hdr.Filename, hdr.Header.Get("Content-Type"), f, nil
	}
	return "", "", nil, fmt.Errorf("%s is required", ConversationField)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg, Code: code})
}
