package benchmark

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/models"
)

func record(model string, pairs ...models.MetricScore) models.ScoreRecord {
	return models.ScoreRecord{Model: model, Scores: models.NewMetricScores(pairs...)}
}

func score(name string, v float64) models.MetricScore {
	return models.MetricScore{Name: name, Value: v}
}

func toJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestUpsert_AddsModelAndNormalizes(t *testing.T) {
	table := Upsert(Table{}, record("A", score("acc", 0.9)))
	table = Upsert(table, record("B", score("rel", 0.8)))

	assert.Equal(t, []string{"model", "acc", "rel"}, table.Columns())
	assert.JSONEq(t,
		`[{"model":"A","acc":0.9,"rel":"N/A"},{"model":"B","acc":"N/A","rel":0.8}]`,
		toJSON(t, table))
}

func TestUpsert_ReplacesExistingModel(t *testing.T) {
	table := Upsert(Table{}, record("A", score("acc", 0.9)))
	table = Upsert(table, record("B", score("rel", 0.8)))
	table = Upsert(table, record("A", score("acc", 0.95), score("rel", 0.7)))

	require.Equal(t, 2, table.Len())
	assert.Equal(t, "B", table.Rows[0].Model)
	assert.Equal(t, "A", table.Rows[1].Model, "replaced row moves to the end")
	assert.JSONEq(t,
		`[{"model":"B","acc":"N/A","rel":0.8},{"model":"A","acc":0.95,"rel":0.7}]`,
		toJSON(t, table))
}

func TestUpsert_Idempotent(t *testing.T) {
	base := Upsert(Table{}, record("A", score("acc", 0.9)))
	base = Upsert(base, record("B", score("rel", 0.8)))
	rec := record("C", score("coherence", 3), score("acc", 1))

	once := Upsert(base, rec)
	twice := Upsert(once, rec)
	assert.Equal(t, once, twice)
}

func TestUpsert_RowsShareColumnSet(t *testing.T) {
	table := Table{}
	recs := []models.ScoreRecord{
		record("A", score("x", 1)),
		record("B", score("y", 2), score("x", 3)),
		record("C", score("z", 4)),
		record("B", score("w", 5)),
	}
	prev := 0
	for _, r := range recs {
		table = Upsert(table, r)
		assert.GreaterOrEqual(t, len(table.Metrics), prev, "column set never shrinks")
		prev = len(table.Metrics)
		for _, row := range table.Rows {
			require.Len(t, row.Cells, len(table.Metrics))
			for i, c := range row.Cells {
				assert.Equal(t, table.Metrics[i], c.Metric)
			}
		}
	}

	assert.Equal(t, []string{"x", "y", "z", "w"}, table.Metrics)
	b, ok := table.Find("B")
	require.True(t, ok)
	assert.True(t, b.Cell("x").Missing, "latest record wins, old values are not merged")
	assert.Equal(t, 5.0, b.Cell("w").Value)
}

func TestUpsert_SingleRowReplacementKeepsColumns(t *testing.T) {
	table := Upsert(Table{}, record("A", score("acc", 0.9)))
	table = Upsert(table, record("A", score("rel", 0.5)))

	assert.Equal(t, []string{"acc", "rel"}, table.Metrics)
	assert.True(t, table.Rows[0].Cell("acc").Missing)
	assert.Equal(t, []string{"model", "rel"}, VisibleColumns(table))
}

func TestUpsert_DoesNotMutateInput(t *testing.T) {
	base := Upsert(Table{}, record("A", score("acc", 0.9)))
	snapshot := base.Clone()

	_ = Upsert(base, record("B", score("rel", 0.8)))
	_ = Upsert(base, record("A", score("acc", 0.1)))
	assert.Equal(t, snapshot, base)
}

func TestUpsert_IgnoresModelMetricKey(t *testing.T) {
	table := Upsert(Table{}, record("A", score("model", 1), score("acc", 2)))
	assert.Equal(t, []string{"acc"}, table.Metrics)
}

func TestClear(t *testing.T) {
	table := Clear()
	assert.Zero(t, table.Len())
	assert.Empty(t, table.Metrics)
	assert.Equal(t, "[]", toJSON(t, table))
}

func TestMerge(t *testing.T) {
	var src Table
	require.NoError(t, json.Unmarshal([]byte(`[{"model":"A","acc":0.9,"tone":"N/A"},{"model":"B","acc":"N/A","tone":"N/A"}]`), &src))
	dst := Upsert(Table{}, record("B", score("rel", 0.5)))
	before := dst.Clone()

	got := Merge(dst, src)

	assert.Equal(t, []string{"rel", "acc", "tone"}, got.Metrics)
	require.Equal(t, 2, got.Len())
	assert.Equal(t, "A", got.Rows[0].Model)
	assert.Equal(t, "B", got.Rows[1].Model)
	assert.True(t, got.Rows[1].Cell("rel").Missing, "src row replaces the dst row")
	assert.True(t, got.Rows[0].Cell("tone").Missing)
	assert.Equal(t, before, dst)

	again := Upsert(got, record("C", score("acc", 0.1)))
	assert.Equal(t, []string{"rel", "acc", "tone"}, again.Metrics, "columns are never removed")
}

func TestMerge_EmptySourceKeepsColumns(t *testing.T) {
	got := Merge(Table{}, Table{Metrics: []string{"acc"}})
	assert.Equal(t, []string{"acc"}, got.Metrics)
	assert.Zero(t, got.Len())
}

func TestRowRecord(t *testing.T) {
	table := Upsert(Table{}, record("A", score("acc", 0.9)))
	table = Upsert(table, record("B", score("rel", 0.8)))

	rec := table.Rows[0].Record()
	assert.Equal(t, "A", rec.Model)
	assert.Equal(t, []string{"acc"}, rec.Scores.Names())
}

func TestTableUnmarshalJSON(t *testing.T) {
	var table Table
	err := json.Unmarshal([]byte(`[{"model":"A","acc":0.9,"rel":"N/A"},{"model":"B","acc":"N/A","rel":0.8}]`), &table)
	require.NoError(t, err)

	assert.Equal(t, []string{"acc", "rel"}, table.Metrics)
	assert.True(t, table.Rows[1].Cell("acc").Missing)
	assert.Equal(t, 0.8, table.Rows[1].Cell("rel").Value)
}

func TestTableUnmarshalJSON_Rejects(t *testing.T) {
	tests := map[string]string{
		"not array":    `{"model":"A"}`,
		"no model":     `[{"acc":1}]`,
		"bad string":   `[{"model":"A","acc":"high"}]`,
		"model number": `[{"model":3}]`,
		"bool value":   `[{"model":"A","acc":true}]`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			var table Table
			assert.Error(t, json.Unmarshal([]byte(body), &table))
		})
	}
}
