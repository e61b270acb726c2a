package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/benchmark"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/models"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/orchestration"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/spinner"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/state"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/transcript"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/wizard"
)

type evaluateOptions struct {
	model         string
	metrics       []string
	context       string
	file          string
	interactive   bool
	benchmarkPath string
	transcriptDir string
	saveResult    string
	format        *formatFlag
}

func (a *app) newEvaluateCommand() *cobra.Command {
	opts := &evaluateOptions{format: newFormatFlag("table", "table", "json", "markdown")}

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Score a conversation file with the evaluation service",
		Long: `Load a conversation file and submit it for evaluation.

The file must be a JSON array of {"user_question", "bot_response"} objects.
Every bot reply comes back with per-metric scores and feedback, and the
model's average scores are folded into the benchmark table.

An empty model or metric selection is still submitted; the service decides
what to do with it. Without a model the benchmark table is left unchanged.`,
		Example: `  llmeval evaluate --file convo.json --model gpt-4 --metric accuracy --metric relevancy
  llmeval evaluate --file convo.json --interactive
  llmeval evaluate --file convo.json --model gemini-1.5-pro --benchmark results/benchmark.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runEvaluate(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "Model to evaluate with (value or label from the catalog)")
	cmd.Flags().StringArrayVar(&opts.metrics, "metric", nil, "Metric to score (can be repeated)")
	cmd.Flags().StringVar(&opts.context, "context", "", "Free-text context sent with the request")
	cmd.Flags().StringVar(&opts.file, "file", "", "Conversation file to evaluate")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "Choose model, metrics and context in a form")
	cmd.Flags().StringVar(&opts.benchmarkPath, "benchmark", "", "Benchmark table (.json or .csv) to fold the result into and save")
	cmd.Flags().StringVar(&opts.transcriptDir, "transcript-dir", "", "Directory to save the evaluated transcript JSON")
	cmd.Flags().StringVarP(&opts.saveResult, "save-result", "o", "", "File to save the evaluation result JSON to")
	cmd.Flags().VarP(opts.format, "format", "f", opts.format.usage())

	return cmd
}

func (a *app) runEvaluate(cmd *cobra.Command, opts *evaluateOptions) error {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	wf, err := a.newWorkflow("cli", a.transcriptDir(opts.transcriptDir))
	if err != nil {
		return err
	}
	catalog := wf.Catalog()

	if opts.file != "" {
		if err := loadConversationFile(wf, opts.file); err != nil {
			printNotice(errOut, wf.Snapshot().Notice)
			return &RequestFailureError{Err: err}
		}
	}

	form, err := resolveSelection(catalog, opts.model, opts.metrics)
	if err != nil {
		return &RequestFailureError{Err: err}
	}
	form.Context = strings.TrimSpace(opts.context)

	if opts.interactive {
		form, err = wizard.RunEvaluationWizard(cmd.InOrStdin(), errOut, catalog, form)
		if err != nil {
			return fmt.Errorf("evaluation form: %w", err)
		}
	}

	if opts.benchmarkPath != "" {
		if err := checkBenchmarkPath(opts.benchmarkPath); err != nil {
			return err
		}
		t, err := readBenchmark(opts.benchmarkPath)
		if err != nil {
			return err
		}
		wf.Seed(t)
	}

	sp := spinner.New(errOut)
	wf.OnProgress(func(e orchestration.ProgressEvent) {
		switch e.Type {
		case orchestration.ProgressEvaluationStart:
			msg := "Evaluating"
			if e.Model != "" {
				msg += " with " + e.Model
			}
			sp.Start(msg + "...")
		case orchestration.ProgressEvaluationComplete:
			sp.Stop()
		}
	})

	result, err := wf.SubmitEvaluation(cmd.Context(), form)
	if err != nil {
		printNotice(errOut, wf.Snapshot().Notice)
		return &RequestFailureError{Err: err}
	}
	snap := wf.Snapshot()

	switch opts.format.value {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		err = enc.Encode(result.Outcome)
	case "markdown":
		err = writeMarkdownReport(out, result.Outcome, snap.Benchmark)
	default:
		err = printEvaluation(out, result.Outcome, snap.Benchmark)
	}
	if err != nil {
		return err
	}

	if result.Record.Model == "" {
		printNotice(errOut, &state.Notice{Kind: state.NoticeBanner, Message: "No model selected; the benchmark table was not updated."})
	}
	if result.TranscriptPath != "" {
		printSuccess(errOut, "Transcript saved to %s", result.TranscriptPath)
	}
	if opts.saveResult != "" {
		if err := transcript.WriteFile(opts.saveResult, result.Outcome); err != nil {
			return err
		}
		printSuccess(errOut, "Result saved to %s", opts.saveResult)
	}
	if opts.benchmarkPath != "" {
		if err := writeBenchmark(opts.benchmarkPath, snap.Benchmark); err != nil {
			return err
		}
		printSuccess(errOut, "Benchmark saved to %s", opts.benchmarkPath)
	}
	return nil
}

// loadConversationFile ingests path into wf. The content type is inferred
// from the extension, as a browser file picker would declare it.
func loadConversationFile(wf *orchestration.Workflow, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening conversation file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	_, err = wf.LoadConversation(filepath.Base(path), "", f)
	return err
}

// resolveSelection maps model and metric flags onto catalog values. Values
// and labels are both accepted; anything else is rejected.
func resolveSelection(catalog models.Catalog, model string, metrics []string) (models.EvaluationForm, error) {
	var form models.EvaluationForm
	if model != "" {
		v, ok := resolveOption(catalog.Models, model)
		if !ok {
			return form, fmt.Errorf("unknown model %q (see llmeval catalog)", model)
		}
		form.Model = v
	}
	for _, m := range metrics {
		for _, part := range strings.Split(m, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			v, ok := resolveOption(catalog.Metrics, part)
			if !ok {
				return form, fmt.Errorf("unknown metric %q (see llmeval catalog)", part)
			}
			form.Metrics = append(form.Metrics, v)
		}
	}
	return form, nil
}

func resolveOption(opts []models.Option, s string) (string, bool) {
	for _, o := range opts {
		if o.Value == s || strings.EqualFold(o.Label, s) {
			return o.Value, true
		}
	}
	return "", false
}

// readBenchmark loads a saved table. A missing file is an empty table.
func readBenchmark(path string) (benchmark.Table, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return benchmark.Clear(), nil
	}
	if err != nil {
		return benchmark.Table{}, fmt.Errorf("opening benchmark: %w", err)
	}
	defer f.Close() //nolint:errcheck

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return benchmark.ReadCSV(f)
	}
	return benchmark.ReadJSON(f)
}

func checkBenchmarkPath(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".json":
		return nil
	default:
		return fmt.Errorf("unsupported benchmark file %q: use .json or .csv", path)
	}
}

func writeBenchmark(path string, t benchmark.Table) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating benchmark directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating benchmark: %w", err)
	}
	defer f.Close() //nolint:errcheck

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		err = benchmark.WriteCSV(f, t)
	} else {
		err = benchmark.WriteJSON(f, t)
	}
	if err != nil {
		return fmt.Errorf("writing benchmark: %w", err)
	}
	return f.Close()
}
