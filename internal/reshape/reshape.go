// Package reshape converts an evaluation service response into session data:
// a display transcript and a benchmark score record.
package reshape

import "github.com/mohitsingh538/llm-metrics-evaluation/internal/models"

// Reshape returns the scored transcript and the average-score record for
// modelLabel. Entries are copied in order with any evaluation kept as
// structured data. The response is not modified.
func Reshape(resp *models.EvaluationResponse, modelLabel string) ([]models.TranscriptEntry, models.ScoreRecord) {
	record := models.ScoreRecord{Model: modelLabel}
	if resp == nil {
		return []models.TranscriptEntry{}, record
	}

	entries := make([]models.TranscriptEntry, 0, len(resp.Data.Conversations))
	for _, c := range resp.Data.Conversations {
		entries = append(entries, c.Clone())
	}

	record.Scores = resp.Data.AverageScores.Clone()
	return entries, record
}

// Summary returns the averaged scores that replace the current evaluation
// summary.
func Summary(resp *models.EvaluationResponse) models.MetricScores {
	if resp == nil {
		return models.MetricScores{}
	}
	return resp.Data.AverageScores.Clone()
}
