package metrics

import (
	"math"
	"testing"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/models"
)

const epsilon = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestMean(t *testing.T) {
	tests := []struct {
		name   string
		input  []float64
		expect float64
	}{
		{"empty", nil, 0},
		{"single", []float64{5.0}, 5.0},
		{"multiple", []float64{1, 2, 3, 4, 5}, 3.0},
		{"all_same", []float64{7, 7, 7}, 7.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Mean(tt.input)
			if !approxEqual(got, tt.expect) {
				t.Errorf("Mean(%v) = %f, want %f", tt.input, got, tt.expect)
			}
		})
	}
}

func TestVarianceAndStdDev(t *testing.T) {
	input := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	if got := Variance(input); !approxEqual(got, 4.0) {
		t.Errorf("Variance = %f, want 4", got)
	}
	if got := StdDev(input); !approxEqual(got, 2.0) {
		t.Errorf("StdDev = %f, want 2", got)
	}
	if got := Variance(nil); got != 0 {
		t.Errorf("Variance(nil) = %f, want 0", got)
	}
}

func TestMinMax(t *testing.T) {
	lo, hi := MinMax([]float64{6, 2, 9, 4})
	if lo != 2 || hi != 9 {
		t.Errorf("MinMax = (%f, %f), want (2, 9)", lo, hi)
	}
	lo, hi = MinMax(nil)
	if lo != 0 || hi != 0 {
		t.Errorf("MinMax(nil) = (%f, %f), want (0, 0)", lo, hi)
	}
}

func TestConfidenceInterval95(t *testing.T) {
	lo, hi := ConfidenceInterval95([]float64{8})
	if lo != 8 || hi != 8 {
		t.Errorf("single value CI = (%f, %f), want (8, 8)", lo, hi)
	}

	lo, hi = ConfidenceInterval95([]float64{6, 8, 10})
	// sample sd = 2, margin = 1.96*2/sqrt(3)
	margin := 1.96 * 2 / math.Sqrt(3)
	if !approxEqual(lo, 8-margin) || !approxEqual(hi, 8+margin) {
		t.Errorf("CI = (%f, %f), want (%f, %f)", lo, hi, 8-margin, 8+margin)
	}
}

func scored(pairs ...models.MetricScore) models.TranscriptEntry {
	return models.TranscriptEntry{
		Sender:     models.SenderBot,
		Evaluation: &models.Evaluation{Scores: models.NewMetricScores(pairs...)},
	}
}

func TestSummarize(t *testing.T) {
	entries := []models.TranscriptEntry{
		{Text: "q1", Sender: models.SenderUser},
		scored(models.MetricScore{Name: "relevancy", Value: 6}, models.MetricScore{Name: "accuracy", Value: 8}),
		{Text: "q2", Sender: models.SenderUser},
		scored(models.MetricScore{Name: "accuracy", Value: 10}),
		{Text: "unscored", Sender: models.SenderBot},
	}

	stats := Summarize(entries)
	if len(stats) != 2 {
		t.Fatalf("len(stats) = %d, want 2", len(stats))
	}

	if stats[0].Metric != "relevancy" || stats[1].Metric != "accuracy" {
		t.Errorf("order = [%s %s], want [relevancy accuracy]", stats[0].Metric, stats[1].Metric)
	}

	acc := stats[1]
	if acc.Count != 2 || !approxEqual(acc.Mean, 9) || acc.Min != 8 || acc.Max != 10 || !approxEqual(acc.StdDev, 1) {
		t.Errorf("accuracy stats = %+v", acc)
	}
	if stats[0].Count != 1 || stats[0].CILow != 6 || stats[0].CIHigh != 6 {
		t.Errorf("relevancy stats = %+v", stats[0])
	}
}

func TestSummarize_NoScores(t *testing.T) {
	stats := Summarize([]models.TranscriptEntry{{Text: "hi", Sender: models.SenderUser}})
	if len(stats) != 0 {
		t.Errorf("Summarize() = %+v, want empty", stats)
	}
}
