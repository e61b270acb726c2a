package webapi

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/models"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/transcript"
)

func saveOutcome(t *testing.T, dir, model, label string, ts time.Time, bots int) string {
	t.Helper()
	var entries []models.TranscriptEntry
	for i := 0; i < bots; i++ {
		entries = append(entries,
			models.TranscriptEntry{Text: "q", Sender: models.SenderUser},
			models.TranscriptEntry{Text: "a", Sender: models.SenderBot},
		)
	}
	o := transcript.Build("req-"+model, models.EvaluationForm{Model: model, Metrics: []string{"accuracy"}}, label,
		models.NewMetricScores(models.MetricScore{Name: "accuracy", Value: 8}), entries, ts)
	path, err := transcript.Write(dir, o)
	require.NoError(t, err)
	return strings.TrimSuffix(filepath.Base(path), ".json")
}

func TestFileStore_ListAndGet(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	gptID := saveOutcome(t, dir, "gpt-4", "GPT-4", ts, 2)
	geminiID := saveOutcome(t, dir, "gemini-1.5-pro", "Gemini-1.5 Pro", ts.Add(time.Hour), 1)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	fs := NewFileStore(dir)

	results, err := fs.ListResults("", "")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, geminiID, results[0].ID, "newest first by default")
	assert.Equal(t, gptID, results[1].ID)
	assert.Equal(t, 2, results[1].Messages)
	assert.Equal(t, []string{"accuracy"}, results[1].Metrics)

	results, err = fs.ListResults("model", "asc")
	require.NoError(t, err)
	assert.Equal(t, "GPT-4", results[0].ModelLabel)
	assert.Equal(t, "Gemini-1.5 Pro", results[1].ModelLabel)

	o, err := fs.GetResult(gptID)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4", o.Model)
	assert.Len(t, o.Transcript, 4)

	_, err = fs.GetResult("missing")
	assert.ErrorIs(t, err, ErrResultNotFound)
}

func TestFileStore_MissingDir(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "nope"))
	results, err := fs.ListResults("", "")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFileStore_Reload(t *testing.T) {
	dir := t.TempDir()
	fs := NewFileStore(dir)

	results, err := fs.ListResults("", "")
	require.NoError(t, err)
	assert.Empty(t, results)

	saveOutcome(t, dir, "gpt-4", "GPT-4", time.Now(), 1)
	results, _ = fs.ListResults("", "")
	assert.Empty(t, results, "cached until reload")

	require.NoError(t, fs.Reload())
	results, _ = fs.ListResults("", "")
	assert.Len(t, results, 1)
}

func TestHandleResults(t *testing.T) {
	dir := t.TempDir()
	id := saveOutcome(t, dir, "gpt-4", "GPT-4", time.Now(), 1)
	_, h := newTestServer(t, &fakeService{}, WithResults(NewFileStore(dir)))

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/results", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	results := decodeBody[[]ResultSummary](t, rec)
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].ID)

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/results/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "GPT-4", decodeBody[models.EvaluationOutcome](t, rec).ModelLabel)

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/results/unknown", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
