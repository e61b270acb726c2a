package webserver

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"slices"
	"strconv"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/benchmark"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/models"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/render"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/state"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/webapi"
)

//go:embed templates/*.tmpl static/*
var assets embed.FS

var funcs = template.FuncMap{
	"entryHTML": render.EntryHTML,
	"score":     benchmark.FormatScore,
	"percent": func(v float64) string {
		return strconv.FormatFloat(v, 'f', 1, 64)
	},
	"contains": func(list []string, v string) bool {
		return slices.Contains(list, v)
	},
}

var indexTemplate = template.Must(template.New("index.html.tmpl").Funcs(funcs).ParseFS(assets, "templates/*.tmpl"))

// pageColumn is a visible benchmark column.
type pageColumn struct {
	Key   string
	Label string
}

// pageData is everything the dashboard template renders.
type pageData struct {
	Version     string
	Entries     []models.TranscriptEntry
	Bars        []render.ChartBar
	Placeholder string
	ChartTitle  string
	Columns     []pageColumn
	Rows        [][]string
	EmptyTable  string
	Catalog     models.Catalog
	Selection   state.Selection
	FileName    string
	Notice      *state.Notice
	Error       string
	Evaluating  bool
	Chatting    bool
	CanChat     bool
}

func newPageData(s state.Snapshot, catalog models.Catalog, errMsg string) pageData {
	cols := benchmark.VisibleColumns(s.Benchmark)
	pc := make([]pageColumn, len(cols))
	for i, c := range cols {
		pc[i] = pageColumn{Key: c, Label: benchmark.HeaderLabel(c)}
	}
	d := pageData{
		Version:     webapi.Version,
		Entries:     s.Transcript,
		Bars:        render.ChartBars(s.Summary),
		Placeholder: render.ChartPlaceholder,
		ChartTitle:  "Evaluation Chart",
		Columns:     pc,
		Rows:        benchmark.DisplayRows(s.Benchmark, cols),
		EmptyTable:  render.EmptyTableMessage,
		Catalog:     catalog,
		Selection:   s.Selection,
		Notice:      s.Notice,
		Error:       errMsg,
		Evaluating:  s.Evaluating,
		Chatting:    s.Chatting,
		CanChat:     len(s.Transcript) > 0 && !s.Chatting && !s.Evaluating,
	}
	if s.Selection.File != nil {
		d.FileName = s.Selection.File.Name
	}
	return d
}

// dashboard serves the HTML page and its form posts. Every post redirects
// back to the page, which renders the session as it now stands.
type dashboard struct {
	cfg Config
}

func registerRoutes(mux *http.ServeMux, cfg Config) error {
	static, err := fs.Sub(assets, "static")
	if err != nil {
		return fmt.Errorf("loading static assets: %w", err)
	}

	webapi.RegisterRoutes(mux, cfg.Workflow,
		webapi.WithResults(webapi.NewFileStore(cfg.ResultsDir)),
		webapi.WithServiceURL(cfg.ServiceURL),
		webapi.WithLogger(cfg.Logger),
	)

	d := &dashboard{cfg: cfg}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))
	mux.HandleFunc("GET /{$}", d.handleIndex)
	mux.HandleFunc("GET /benchmark.csv", d.handleBenchmarkCSV)
	mux.HandleFunc("POST /conversation", d.handleConversation)
	mux.HandleFunc("POST /evaluate", d.handleEvaluate)
	mux.HandleFunc("POST /chat", d.handleChat)
	mux.HandleFunc("POST /benchmark/clear", d.handleClearBenchmark)
	mux.HandleFunc("POST /reset", d.handleReset)
	mux.HandleFunc("POST /notice/dismiss", d.handleDismissNotice)
	return nil
}

func (d *dashboard) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := newPageData(d.cfg.Workflow.Snapshot(), d.cfg.Workflow.Catalog(), r.URL.Query().Get("error"))

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		d.cfg.Logger.Error("rendering dashboard", "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes()) //nolint:errcheck
}

func (d *dashboard) handleBenchmarkCSV(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := benchmark.WriteCSV(&buf, d.cfg.Workflow.Snapshot().Benchmark); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="benchmark.csv"`)
	w.Write(buf.Bytes()) //nolint:errcheck
}

func (d *dashboard) handleConversation(w http.ResponseWriter, r *http.Request) {
	_, err := webapi.LoadConversation(d.cfg.Workflow, r)
	d.redirect(w, r, err)
}

func (d *dashboard) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	form, err := webapi.DecodeEvaluationForm(r, d.cfg.Workflow.Catalog())
	if err == nil {
		_, err = d.cfg.Workflow.SubmitEvaluation(r.Context(), form)
	}
	d.redirect(w, r, err)
}

func (d *dashboard) handleChat(w http.ResponseWriter, r *http.Request) {
	reply, err := d.cfg.Workflow.SendChat(r.Context(), r.FormValue("message"))
	if reply != "" {
		// The fallback reply is already in the transcript.
		err = nil
	}
	d.redirect(w, r, err)
}

func (d *dashboard) handleClearBenchmark(w http.ResponseWriter, r *http.Request) {
	d.cfg.Workflow.ClearBenchmark()
	d.redirect(w, r, nil)
}

func (d *dashboard) handleReset(w http.ResponseWriter, r *http.Request) {
	d.cfg.Workflow.Reset()
	d.redirect(w, r, nil)
}

func (d *dashboard) handleDismissNotice(w http.ResponseWriter, r *http.Request) {
	d.cfg.Workflow.DismissNotice()
	d.redirect(w, r, nil)
}

// redirect sends the browser back to the page. Errors the workflow already
// raised as a notice are shown from state; the rest travel in the query.
func (d *dashboard) redirect(w http.ResponseWriter, r *http.Request, err error) {
	target := "/"
	if err != nil {
		code := webapi.StatusFor(err)
		if code >= http.StatusInternalServerError {
			d.cfg.Logger.Warn("dashboard request failed", "path", r.URL.Path, "status", code, "error", err)
		}
		if n := d.cfg.Workflow.Snapshot().Notice; n == nil || n.Message != webapi.ErrorMessage(d.cfg.Workflow, err) {
			target = "/?error=" + url.QueryEscape(webapi.ErrorMessage(d.cfg.Workflow, err))
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
