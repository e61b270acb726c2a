// Package transcript saves evaluation outcomes as JSON files and loads them
// back for comparison.
package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/models"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

func sanitizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "-")
	s = unsafeChars.ReplaceAllString(s, "")
	if s == "" {
		s = "unnamed"
	}
	return s
}

// Filename returns the file name for an outcome of model taken at ts.
func Filename(model string, ts time.Time) string {
	return fmt.Sprintf("%s-%s.json", sanitizeName(model), ts.UTC().Format("20060102-150405"))
}

// Write serializes an outcome into dir and returns the file path.
func Write(dir string, o *models.EvaluationOutcome) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create transcript dir: %w", err)
	}

	path := filepath.Join(dir, Filename(o.Model, o.Timestamp))
	if err := WriteFile(path, o); err != nil {
		return "", err
	}
	return path, nil
}

// WriteFile serializes an outcome to path.
func WriteFile(path string, o *models.EvaluationOutcome) error {
	data, err := json.MarshalIndent(o, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}

// Read loads an outcome written by Write.
func Read(path string) (*models.EvaluationOutcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	var o models.EvaluationOutcome
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parse transcript %s: %w", path, err)
	}
	if o.Model == "" && o.ModelLabel == "" {
		return nil, fmt.Errorf("parse transcript %s: no model recorded", path)
	}
	return &o, nil
}

// Build assembles an outcome from a submitted form and its applied result.
func Build(requestID string, form models.EvaluationForm, label string, summary models.MetricScores, entries []models.TranscriptEntry, ts time.Time) *models.EvaluationOutcome {
	return &models.EvaluationOutcome{
		RequestID:  requestID,
		Timestamp:  ts.UTC(),
		Model:      form.Model,
		ModelLabel: label,
		Metrics:    append([]string{}, form.Metrics...),
		Context:    form.Context,
		Summary:    summary.Clone(),
		Transcript: models.CloneTranscript(entries),
	}
}
