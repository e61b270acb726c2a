package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/benchmark"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/models"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/render"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/reporting"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/state"
)

var (
	alertColor   = color.New(color.FgRed, color.Bold)
	bannerColor  = color.New(color.FgYellow)
	successColor = color.New(color.FgGreen)
	headingColor = color.New(color.Bold)
)

// printNotice writes a workflow notice: alerts in red, banners in yellow.
func printNotice(w io.Writer, n *state.Notice) {
	if n == nil || n.Message == "" {
		return
	}
	if n.Kind == state.NoticeAlert {
		alertColor.Fprintf(w, "✗ %s\n", n.Message) //nolint:errcheck
		return
	}
	bannerColor.Fprintf(w, "⚠ %s\n", n.Message) //nolint:errcheck
}

func printSuccess(w io.Writer, format string, args ...any) {
	successColor.Fprintf(w, "✓ "+format+"\n", args...) //nolint:errcheck
}

func printHeading(w io.Writer, title string) {
	fmt.Fprintf(w, "%s\n%s\n", headingColor.Sprint(title), strings.Repeat("─", len([]rune(title)))) //nolint:errcheck
}

// printEvaluation writes the annotated transcript, the chart, the benchmark
// table and the interpretation.
func printEvaluation(w io.Writer, o *models.EvaluationOutcome, t benchmark.Table) error {
	printHeading(w, "Transcript")
	fmt.Fprintln(w, render.Transcript(o.Transcript)) //nolint:errcheck

	printHeading(w, "Evaluation Chart")
	if err := render.Chart(w, o.Summary, render.DefaultBarWidth); err != nil {
		return err
	}
	fmt.Fprintln(w) //nolint:errcheck

	printHeading(w, "Benchmark")
	if err := render.Table(w, t); err != nil {
		return err
	}
	fmt.Fprintln(w) //nolint:errcheck

	_, err := io.WriteString(w, reporting.FormatSummaryReport(o))
	return err
}

// writeMarkdownReport writes the evaluation as a markdown document, e.g. for
// a PR comment.
func writeMarkdownReport(w io.Writer, o *models.EvaluationOutcome, t benchmark.Table) error {
	var b strings.Builder

	b.WriteString("## Evaluation Result\n\n")
	model := o.ModelLabel
	if model == "" {
		model = "(no model selected)"
	}
	fmt.Fprintf(&b, "**Model:** %s\n\n", model)

	if o.Summary.Len() == 0 {
		b.WriteString("No scores were returned.\n\n")
	} else {
		b.WriteString("| Metric | Score | Rating |\n")
		b.WriteString("|---|---|---|\n")
		for _, p := range o.Summary.Pairs() {
			fmt.Fprintf(&b, "| %s | %s | %s |\n",
				benchmark.HeaderLabel(p.Name), benchmark.FormatScore(p.Value), reporting.InterpretScore(p.Value))
		}
		b.WriteString("\n")
	}

	b.WriteString("### Benchmark\n\n")
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	if t.Len() == 0 {
		_, err := fmt.Fprintln(w, render.EmptyTableMessage)
		return err
	}
	return benchmark.WriteMarkdown(w, t)
}
