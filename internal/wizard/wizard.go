// Package wizard collects an evaluation form interactively.
package wizard

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/models"
)

// IsTerminal reports whether r is an interactive terminal.
func IsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// RunEvaluationWizard asks for a model, metrics and context. initial
// pre-populates the answers. A terminal gets a huh form; any other reader is
// prompted line by line.
func RunEvaluationWizard(in io.Reader, out io.Writer, catalog models.Catalog, initial models.EvaluationForm) (models.EvaluationForm, error) {
	if IsTerminal(in) {
		return runForm(in, out, catalog, initial)
	}
	return runPrompts(in, out, catalog, initial)
}

func runForm(in io.Reader, out io.Writer, catalog models.Catalog, initial models.EvaluationForm) (models.EvaluationForm, error) {
	var (
		model       = initial.Model
		metrics     = append([]string(nil), initial.Metrics...)
		contextText = initial.Context
	)

	modelOpts := []huh.Option[string]{huh.NewOption("(none)", "")}
	for _, o := range catalog.Models {
		modelOpts = append(modelOpts, huh.NewOption(o.Label, o.Value))
	}
	metricOpts := make([]huh.Option[string], 0, len(catalog.Metrics))
	for _, o := range catalog.Metrics {
		metricOpts = append(metricOpts, huh.NewOption(o.Label, o.Value))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Model").
				Description("The model whose responses are being evaluated").
				Options(modelOpts...).
				Value(&model),
			huh.NewMultiSelect[string]().
				Title("Metrics").
				Description("Scores to request for every bot reply").
				Options(metricOpts...).
				Value(&metrics),
			huh.NewText().
				Title("Context").
				Description("Optional background passed to the evaluator").
				Value(&contextText),
		),
	).
		WithInput(in).
		WithOutput(out)

	if err := form.Run(); err != nil {
		return models.EvaluationForm{}, fmt.Errorf("wizard failed: %w", err)
	}

	return models.EvaluationForm{
		Model:   model,
		Metrics: metrics,
		Context: strings.TrimSpace(contextText),
	}, nil
}

// runPrompts reads one answer per line: model, metrics, context. A blank
// answer keeps the initial value.
func runPrompts(in io.Reader, out io.Writer, catalog models.Catalog, initial models.EvaluationForm) (models.EvaluationForm, error) {
	sc := bufio.NewScanner(in)
	form := initial

	listOptions(out, "Models", catalog.Models)
	line, err := ask(sc, out, "Model (number or value, blank to skip)")
	if err != nil {
		return models.EvaluationForm{}, err
	}
	if line != "" {
		v, err := pick(catalog.Models, line)
		if err != nil {
			return models.EvaluationForm{}, fmt.Errorf("unknown model %q", line)
		}
		form.Model = v
	}

	listOptions(out, "Metrics", catalog.Metrics)
	line, err = ask(sc, out, "Metrics (comma-separated numbers or values)")
	if err != nil {
		return models.EvaluationForm{}, err
	}
	if line != "" {
		var metrics []string
		for _, p := range splitAndTrim(line) {
			v, err := pick(catalog.Metrics, p)
			if err != nil {
				return models.EvaluationForm{}, fmt.Errorf("unknown metric %q", p)
			}
			if !contains(metrics, v) {
				metrics = append(metrics, v)
			}
		}
		form.Metrics = metrics
	}

	line, err = ask(sc, out, "Context (optional)")
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return models.EvaluationForm{}, err
	}
	if line != "" {
		form.Context = line
	}
	return form, nil
}

func listOptions(out io.Writer, title string, opts []models.Option) {
	fmt.Fprintf(out, "%s:\n", title) //nolint:errcheck
	for i, o := range opts {
		fmt.Fprintf(out, "  %d) %s [%s]\n", i+1, o.Label, o.Value) //nolint:errcheck
	}
}

// ask prints a prompt and returns the trimmed next line. Running out of input
// yields io.ErrUnexpectedEOF.
func ask(sc *bufio.Scanner, out io.Writer, prompt string) (string, error) {
	fmt.Fprintf(out, "%s: ", prompt) //nolint:errcheck
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return "", fmt.Errorf("unexpected end of input: %w", io.ErrUnexpectedEOF)
	}
	return strings.TrimSpace(sc.Text()), nil
}

// pick resolves a 1-based index, a value or a label to an option value.
func pick(opts []models.Option, answer string) (string, error) {
	if n, err := strconv.Atoi(answer); err == nil {
		if n < 1 || n > len(opts) {
			return "", fmt.Errorf("choice %d out of range", n)
		}
		return opts[n-1].Value, nil
	}
	for _, o := range opts {
		if strings.EqualFold(o.Value, answer) || strings.EqualFold(o.Label, answer) {
			return o.Value, nil
		}
	}
	return "", fmt.Errorf("no option %q", answer)
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
