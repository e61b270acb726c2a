// Package reporting produces plain-language summaries of evaluation
// outcomes.
package reporting

import (
	"fmt"
	"strings"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/benchmark"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/metrics"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/models"
)

// InterpretScore returns a plain-language label for a score on the 0-10
// scale used by the evaluation service.
func InterpretScore(score float64) string {
	switch {
	case score > 9:
		return "Excellent (>9)"
	case score >= 7:
		return "Good (7-9)"
	case score >= 5:
		return "Needs Work (5-7)"
	default:
		return "Poor (<5)"
	}
}

// InterpretSpread explains how consistent a metric was across messages.
func InterpretSpread(s metrics.MetricStats) string {
	if s.Count < 2 {
		return "Only one scored message."
	}
	if s.Max-s.Min <= 1 {
		return "Consistent across messages."
	}
	return fmt.Sprintf("Varies across messages (%s to %s). Review the lowest-scoring replies.",
		benchmark.FormatScore(s.Min), benchmark.FormatScore(s.Max))
}

// FormatSummaryReport produces a plain-language report from an
// EvaluationOutcome.
func FormatSummaryReport(outcome *models.EvaluationOutcome) string {
	var b strings.Builder

	b.WriteString("=== Interpretation ===\n\n")

	model := outcome.ModelLabel
	if model == "" {
		model = "(no model selected)"
	}
	fmt.Fprintf(&b, "Model:    %s\n", model)

	turns := 0
	for _, e := range outcome.Transcript {
		if e.Sender == models.SenderBot {
			turns++
		}
	}
	fmt.Fprintf(&b, "Messages: %d bot replies\n", turns)

	if outcome.Summary.Len() == 0 {
		b.WriteString("\nNo scores were returned.\n")
		return b.String()
	}

	b.WriteString("\nAverage Scores:\n")
	for _, p := range outcome.Summary.Pairs() {
		fmt.Fprintf(&b, "  %s: %s - %s\n", benchmark.HeaderLabel(p.Name), benchmark.FormatScore(p.Value), InterpretScore(p.Value))
	}

	stats := metrics.Summarize(outcome.Transcript)
	if len(stats) > 0 {
		b.WriteString("\nPer-Message Spread:\n")
		for _, s := range stats {
			fmt.Fprintf(&b, "  %s: mean %s, sd %.2f, n=%d. %s\n",
				benchmark.HeaderLabel(s.Metric),
				benchmark.FormatScore(s.Mean),
				s.StdDev,
				s.Count,
				InterpretSpread(s))
		}
	}

	return b.String()
}
