package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/evalclient"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/models"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/orchestration"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/render"
)

const conversationJSON = `[
	{"user_question": "What is Go?", "bot_response": "A language."},
	{"user_question": "Who made it?", "bot_response": "Google."}
]`

const evaluationJSON = `{"data": {
	"average_scores": {"accuracy": 8.5, "relevancy": 7},
	"conversations": [
		{"text": "What is Go?", "sender": "user"},
		{"text": "A language.", "sender": "bot", "evaluation": {"scores": {"accuracy": 8.5}, "feedback": "Good."}}
	]}}`

// fakeService implements orchestration.EvaluationService for testing.
type fakeService struct {
	mu        sync.Mutex
	evalErr   error
	chatReply string
	chatErr   error
	forms     []models.EvaluationForm
}

func (f *fakeService) SubmitEvaluation(_ context.Context, form models.EvaluationForm) (*models.EvaluationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forms = append(f.forms, form)
	if f.evalErr != nil {
		return nil, f.evalErr
	}
	var resp models.EvaluationResponse
	if err := json.Unmarshal([]byte(evaluationJSON), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (f *fakeService) SubmitChatQuery(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chatReply, f.chatErr
}

func (f *fakeService) lastForm() models.EvaluationForm {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.forms[len(f.forms)-1]
}

func newTestServer(t *testing.T, svc *fakeService, opts ...HandlerOption) (*orchestration.Workflow, http.Handler) {
	t.Helper()
	wf := orchestration.New(svc)
	mux := http.NewServeMux()
	RegisterRoutes(mux, wf, opts...)
	return wf, mux
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, name, contentType, body string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, ConversationField, name))
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/conversation", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func loadConversation(t *testing.T, h http.Handler) {
	t.Helper()
	rec := do(t, h, uploadRequest(t, "convo.json", "application/json", conversationJSON))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestHandleHealth(t *testing.T) {
	_, h := newTestServer(t, &fakeService{}, WithServiceURL("http://localhost:9000"))

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[HealthResponse](t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Version)
	assert.Equal(t, "http://localhost:9000", resp.ServiceURL)
}

func TestHandleState_Empty(t *testing.T) {
	_, h := newTestServer(t, &fakeService{})

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `"transcript":[]`)
	assert.Contains(t, body, `"benchmark":[]`)
	assert.Contains(t, body, `"columns":["model"]`)
	assert.Contains(t, body, `"metrics":[]`)
	assert.NotContains(t, body, `"notice"`)
}

func TestHandleCatalog(t *testing.T) {
	_, h := newTestServer(t, &fakeService{})

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/catalog", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	catalog := decodeBody[models.Catalog](t, rec)
	assert.Equal(t, models.DefaultCatalog(), catalog)
}

func TestHandleConversation_Multipart(t *testing.T) {
	_, h := newTestServer(t, &fakeService{})

	rec := do(t, h, uploadRequest(t, "convo.json", "application/json", conversationJSON))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[ConversationResponse](t, rec)
	assert.Equal(t, 4, resp.Entries)
	require.Len(t, resp.State.Transcript, 4)
	assert.Equal(t, "What is Go?", resp.State.Transcript[0].Display)
	assert.Equal(t, models.SenderBot, resp.State.Transcript[1].Sender)
	assert.Equal(t, "convo.json", resp.State.Selection.FileName)
}

func TestHandleConversation_RawJSONBody(t *testing.T) {
	_, h := newTestServer(t, &fakeService{})

	rec := do(t, h, jsonRequest(http.MethodPost, "/api/conversation", conversationJSON))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 4, decodeBody[ConversationResponse](t, rec).Entries)
}

func TestHandleConversation_Rejected(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		contentType string
		body        string
		wantCode    int
		wantMsg     string
	}{
		{"not json", "notes.txt", "text/plain", conversationJSON, http.StatusUnsupportedMediaType, "Only JSON files are allowed."},
		{"wrong shape", "convo.json", "application/json", `{"user_question": "x"}`, http.StatusBadRequest, "Invalid JSON file format."},
		{"missing field", "convo.json", "application/json", `[{"user_question": "x"}]`, http.StatusBadRequest, "Invalid JSON file format."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf, h := newTestServer(t, &fakeService{})

			rec := do(t, h, uploadRequest(t, tt.file, tt.contentType, tt.body))
			require.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantMsg, decodeBody[ErrorResponse](t, rec).Error)
			assert.Empty(t, wf.Snapshot().Transcript)
		})
	}
}

func TestHandleConversation_MissingFile(t *testing.T) {
	_, h := newTestServer(t, &fakeService{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("model", "gpt-4"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/conversation", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := do(t, h, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[ErrorResponse](t, rec).Error, ConversationField)
}

func TestHandleEvaluation_JSON(t *testing.T) {
	svc := &fakeService{}
	wf, h := newTestServer(t, svc)
	loadConversation(t, h)

	rec := do(t, h, jsonRequest(http.MethodPost, "/api/evaluation",
		`{"model": "gpt-4", "metrics": ["accuracy", "relevancy"], "context": "  support  "}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[EvaluationResponse](t, rec)
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, []string{"model", "accuracy", "relevancy"}, resp.State.Columns)
	require.Len(t, resp.State.Transcript, 2)
	assert.Equal(t, render.EntryText(resp.State.Transcript[1].TranscriptEntry), resp.State.Transcript[1].Display)

	form := svc.lastForm()
	assert.Equal(t, "gpt-4", form.Model)
	assert.Equal(t, []string{"accuracy", "relevancy"}, form.Metrics)
	assert.Equal(t, "support", form.Context)
	require.NotNil(t, form.File)
	assert.Equal(t, conversationJSON, string(form.File.Data))

	row, ok := wf.Snapshot().Benchmark.Find("GPT-4")
	require.True(t, ok)
	assert.InDelta(t, 8.5, row.Cell("accuracy").Value, 1e-9)
}

func TestHandleEvaluation_FormEncodings(t *testing.T) {
	tests := map[string]string{
		"json array string": url.Values{"model": {"gpt-4"}, "metrics": {`["accuracy","coherence"]`}}.Encode(),
		"comma separated":   url.Values{"model": {"gpt-4"}, "metrics": {"accuracy,coherence"}}.Encode(),
		"repeated fields":   url.Values{"model": {"gpt-4"}, "metrics": {"accuracy", "coherence"}}.Encode(),
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			svc := &fakeService{}
			_, h := newTestServer(t, svc)

			req := httptest.NewRequest(http.MethodPost, "/api/evaluation", strings.NewReader(body))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := do(t, h, req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, []string{"accuracy", "coherence"}, svc.lastForm().Metrics)
		})
	}
}

func TestHandleEvaluation_EmptySelectionStillPosts(t *testing.T) {
	svc := &fakeService{}
	wf, h := newTestServer(t, svc)

	rec := do(t, h, jsonRequest(http.MethodPost, "/api/evaluation", `{}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, svc.lastForm().Model)
	assert.Equal(t, 0, wf.Snapshot().Benchmark.Len())
}

func TestHandleEvaluation_BadRequest(t *testing.T) {
	tests := map[string]string{
		"unknown model":  `{"model": "claude-9"}`,
		"unknown metric": `{"metrics": ["accuracy", "vibes"]}`,
		"blank metric":   `{"metrics": [""]}`,
		"bad json":       `{"model": `,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			svc := &fakeService{}
			_, h := newTestServer(t, svc)

			rec := do(t, h, jsonRequest(http.MethodPost, "/api/evaluation", body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, svc.forms)
		})
	}
}

func TestHandleEvaluation_ServiceFailures(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"timeout", fmt.Errorf("%w: deadline", evalclient.ErrTimeout), http.StatusGatewayTimeout},
		{"bad shape", fmt.Errorf("%w: no data", evalclient.ErrInvalidResponseShape), http.StatusBadGateway},
		{"transport", &evalclient.TransportError{StatusCode: 500}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf, h := newTestServer(t, &fakeService{evalErr: tt.err})
			loadConversation(t, h)

			rec := do(t, h, jsonRequest(http.MethodPost, "/api/evaluation", `{"model": "gpt-4"}`))
			require.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, evalclient.UserMessage(tt.err), decodeBody[ErrorResponse](t, rec).Error)

			snap := wf.Snapshot()
			require.NotNil(t, snap.Notice)
			assert.Len(t, snap.Transcript, 4)
			assert.False(t, snap.Evaluating)
		})
	}
}

func TestHandleChat(t *testing.T) {
	_, h := newTestServer(t, &fakeService{chatReply: "Go is fun."})
	loadConversation(t, h)

	rec := do(t, h, jsonRequest(http.MethodPost, "/api/chat", `{"message": "Tell me more"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, ChatResponse{Reply: "Go is fun."}, decodeBody[ChatResponse](t, rec))

	state := decodeBody[StateResponse](t, do(t, h, httptest.NewRequest(http.MethodGet, "/api/state", nil)))
	require.Len(t, state.Transcript, 6)
	assert.Equal(t, "Tell me more", state.Transcript[4].Text)
	assert.Equal(t, "Go is fun.", state.Transcript[5].Text)
}

func TestHandleChat_FallbackOnFailure(t *testing.T) {
	_, h := newTestServer(t, &fakeService{chatErr: &evalclient.TransportError{StatusCode: 503}})
	loadConversation(t, h)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(url.Values{"message": {"hi"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := do(t, h, req)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeBody[ChatResponse](t, rec)
	assert.Equal(t, orchestration.ChatFallback, resp.Reply)
	assert.NotEmpty(t, resp.Error)
}

func TestHandleChat_Errors(t *testing.T) {
	_, h := newTestServer(t, &fakeService{chatReply: "x"})

	rec := do(t, h, jsonRequest(http.MethodPost, "/api/chat", `{"message": "hi"}`))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, jsonRequest(http.MethodPost, "/api/chat", `{"message": ""}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleBenchmark_Formats(t *testing.T) {
	_, h := newTestServer(t, &fakeService{})
	rec := do(t, h, jsonRequest(http.MethodPost, "/api/evaluation", `{"model": "gpt-4"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	tests := []struct {
		format      string
		contentType string
		want        string
	}{
		{"", "application/json", `"model": "GPT-4"`},
		{"csv", "text/csv; charset=utf-8", "model,accuracy,relevancy\nGPT-4,8.5,7\n"},
		{"yaml", "application/yaml", "- model: GPT-4\n"},
		{"markdown", "text/markdown; charset=utf-8", "| Model | Accuracy | Relevancy |"},
	}
	for _, tt := range tests {
		t.Run("format="+tt.format, func(t *testing.T) {
			rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/benchmark?format="+tt.format, nil))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/benchmark?format=xml", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleClearBenchmarkAndReset(t *testing.T) {
	wf, h := newTestServer(t, &fakeService{})
	loadConversation(t, h)
	rec := do(t, h, jsonRequest(http.MethodPost, "/api/evaluation", `{"model": "gpt-4"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, httptest.NewRequest(http.MethodPost, "/api/reset", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	snap := wf.Snapshot()
	assert.Empty(t, snap.Transcript)
	assert.Equal(t, 1, snap.Benchmark.Len(), "reset keeps the benchmark table")

	rec = do(t, h, httptest.NewRequest(http.MethodDelete, "/api/benchmark", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, wf.Snapshot().Benchmark.Len())
}

func TestHandleDismissNotice(t *testing.T) {
	wf, h := newTestServer(t, &fakeService{})
	do(t, h, uploadRequest(t, "notes.txt", "text/plain", "hi"))
	require.NotNil(t, wf.Snapshot().Notice)

	rec := do(t, h, httptest.NewRequest(http.MethodDelete, "/api/notice", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Nil(t, wf.Snapshot().Notice)
}

func TestCORSMiddleware(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("no origins configured", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", "http://evil.example")
		rec := do(t, CORSMiddleware(inner), req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		rec := do(t, CORSMiddleware(inner, "http://localhost:5173"), req)
		assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
		rec := do(t, CORSMiddleware(inner, "http://localhost:5173"), req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
