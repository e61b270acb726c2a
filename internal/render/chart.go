package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/benchmark"
	"github.com/mohitsingh538/llm-metrics-evaluation/internal/models"
)

// ChartPlaceholder is shown instead of a chart when there are no scores.
const ChartPlaceholder = "Upload a conversation file to evaluate."

// ScoreScale is the top of the evaluation service's score range.
const ScoreScale = 10.0

// DefaultBarWidth is the bar length, in cells, of a full-scale score.
const DefaultBarWidth = 40

// ChartBar is one bar of the summary chart.
type ChartBar struct {
	Metric  string
	Value   float64
	Percent float64
}

// ChartBars returns one bar per metric, in order. Percent is relative to
// ScoreScale, or to the largest value when a score exceeds it.
func ChartBars(s models.MetricScores) []ChartBar {
	scale := ScoreScale
	for _, p := range s.Pairs() {
		scale = math.Max(scale, p.Value)
	}
	bars := make([]ChartBar, 0, s.Len())
	for _, p := range s.Pairs() {
		pct := 0.0
		if p.Value > 0 {
			pct = 100 * p.Value / scale
		}
		bars = append(bars, ChartBar{Metric: p.Name, Value: p.Value, Percent: pct})
	}
	return bars
}

// Chart writes a horizontal bar chart of s. width <= 0 uses DefaultBarWidth.
func Chart(w io.Writer, s models.MetricScores, width int) error {
	if s.Len() == 0 {
		_, err := fmt.Fprintln(w, ChartPlaceholder)
		return err
	}
	if width <= 0 {
		width = DefaultBarWidth
	}

	bars := ChartBars(s)
	labelWidth := 0
	for _, b := range bars {
		labelWidth = max(labelWidth, runewidth.StringWidth(b.Metric))
	}

	for _, b := range bars {
		n := int(math.Round(b.Percent * float64(width) / 100))
		line := fmt.Sprintf("%s │%s%s %s\n",
			padRight(b.Metric, labelWidth),
			strings.Repeat("█", n),
			strings.Repeat(" ", width-n),
			benchmark.FormatScore(b.Value))
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}
