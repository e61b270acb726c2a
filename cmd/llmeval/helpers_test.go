package main

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/projectconfig"
)

const conversationJSON = `[
	{"user_question": "What is Go?", "bot_response": "A language."},
	{"user_question": "Who made it?", "bot_response": "Google."}
]`

const evaluationJSON = `{"data": {
	"average_scores": {"accuracy": 8.5, "relevancy": 7},
	"conversations": [
		{"text": "What is Go?", "sender": "user"},
		{"text": "A language.", "sender": "bot", "evaluation": {"scores": {"accuracy": 9, "relevancy": 7}, "feedback": "Good."}},
		{"text": "Who made it?", "sender": "user"},
		{"text": "Google.", "sender": "bot", "evaluation": {"scores": {"accuracy": 8, "relevancy": 7}, "feedback": "Short."}}
	]}}`

// testEnv is an isolated config directory, log directory and evaluation
// service.
type testEnv struct {
	dir      string
	logDir   string
	failEval atomic.Bool
	failChat atomic.Bool
	evals    atomic.Int32
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{dir: t.TempDir(), logDir: t.TempDir()}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/evaluation":
			env.evals.Add(1)
			if env.failEval.Load() {
				http.Error(w, "boom", http.StatusInternalServerError)
				return
			}
			io.WriteString(w, evaluationJSON) //nolint:errcheck
		case "/":
			if env.failChat.Load() {
				http.Error(w, "boom", http.StatusBadGateway)
				return
			}
			io.WriteString(w, `{"data": "echo: `+r.FormValue("message")+`"}`) //nolint:errcheck
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	cfg := "service:\n  url: " + srv.URL + "\n  timeout_seconds: 5\n"
	require.NoError(t, os.WriteFile(filepath.Join(env.dir, projectconfig.FileName), []byte(cfg), 0o644))

	t.Setenv(projectconfig.EnvServiceURL, "")
	t.Setenv(projectconfig.EnvLogDir, env.logDir)
	return env
}

// writeFile writes content to name inside the env directory and returns
// its path.
func (env *testEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(env.dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

// run executes the CLI with args and returns stdout and stderr.
func (env *testEnv) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	a := newApp()
	t.Cleanup(a.close)

	cmd := a.rootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", env.dir}, args...))

	err := cmd.Execute()
	a.close()
	return out.String(), errOut.String(), err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
