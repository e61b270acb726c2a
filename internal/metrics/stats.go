// Package metrics computes per-metric statistics over the individual message
// scores of an evaluated transcript.
package metrics

import (
	"math"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/models"
)

// MetricStats summarizes one metric across the scored bot messages of a
// transcript.
type MetricStats struct {
	Metric string  `json:"metric"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	CILow  float64 `json:"ci95_low"`
	CIHigh float64 `json:"ci95_high"`
}

// Collect groups per-message scores by metric. Metrics are returned in the
// order they first appear in the transcript.
func Collect(entries []models.TranscriptEntry) ([]string, map[string][]float64) {
	var order []string
	values := make(map[string][]float64)
	for _, e := range entries {
		if e.Sender != models.SenderBot || e.Evaluation == nil {
			continue
		}
		for _, p := range e.Evaluation.Scores.Pairs() {
			if _, seen := values[p.Name]; !seen {
				order = append(order, p.Name)
			}
			values[p.Name] = append(values[p.Name], p.Value)
		}
	}
	return order, values
}

// Summarize returns one MetricStats per metric found in entries.
func Summarize(entries []models.TranscriptEntry) []MetricStats {
	order, values := Collect(entries)
	out := make([]MetricStats, 0, len(order))
	for _, name := range order {
		vs := values[name]
		lo, hi := ConfidenceInterval95(vs)
		mn, mx := MinMax(vs)
		out = append(out, MetricStats{
			Metric: name,
			Count:  len(vs),
			Mean:   Mean(vs),
			StdDev: StdDev(vs),
			Min:    mn,
			Max:    mx,
			CILow:  lo,
			CIHigh: hi,
		})
	}
	return out
}

// Mean computes the arithmetic mean of a float64 slice.
// Returns 0 for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Variance computes the population variance of a float64 slice.
// Returns 0 for empty input.
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := Mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return sumSq / float64(len(values))
}

// StdDev computes the population standard deviation.
func StdDev(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// MinMax returns the smallest and largest value, or (0, 0) for empty input.
func MinMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// ConfidenceInterval95 returns the 95% confidence interval (low, high)
// using the normal approximation (z=1.96). Returns (mean, mean) when
// fewer than 2 data points are available.
func ConfidenceInterval95(values []float64) (float64, float64) {
	n := len(values)
	m := Mean(values)
	if n < 2 {
		return m, m
	}
	sumSq := 0.0
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	sampleSD := math.Sqrt(sumSq / float64(n-1))
	margin := 1.96 * sampleSD / math.Sqrt(float64(n))
	return m - margin, m + margin
}
