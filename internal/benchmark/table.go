// Package benchmark folds per-model average scores into a comparison table
// whose rows always carry the same column set.
package benchmark

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/models"
)

const (
	// ModelColumn is the leading column of every table.
	ModelColumn = "model"
	// Sentinel marks a cell with no score.
	Sentinel = "N/A"
)

// Cell is one metric value of a row.
type Cell struct {
	Metric  string
	Value   float64
	Missing bool
}

// Row is one model's scores, aligned with the table's metric columns.
type Row struct {
	Model string
	Cells []Cell
}

// Table is the benchmark comparison table. At most one row exists per model.
//
// The zero value is an empty table.
type Table struct {
	Metrics []string
	Rows    []Row
}

// Upsert returns a new table with rec folded in. Any existing row for the
// same model is dropped, rec is appended last, and every row is rebuilt with
// the table's columns followed by any new metrics of rec. Columns are never
// removed. t is not modified.
func Upsert(t Table, rec models.ScoreRecord) Table {
	return upsertRow(t, rowFromRecord(rec))
}

// Merge returns dst with every row of src folded in, in order, as Upsert
// would. Missing cells stay missing and src's columns are kept even when no
// row has a score for them. Neither table is modified.
func Merge(dst, src Table) Table {
	metrics := append([]string(nil), dst.Metrics...)
	seen := make(map[string]bool, len(metrics))
	for _, m := range metrics {
		seen[m] = true
	}
	for _, m := range src.Metrics {
		if !seen[m] {
			seen[m] = true
			metrics = append(metrics, m)
		}
	}

	out := normalize(metrics, dst.Rows)
	for _, r := range src.Rows {
		if r.Model == "" {
			continue
		}
		out = upsertRow(out, r)
	}
	return out
}

// Clear returns an empty table.
func Clear() Table {
	return Table{}
}

// Columns returns the model column followed by the metric columns.
func (t Table) Columns() []string {
	return append([]string{ModelColumn}, t.Metrics...)
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// Find returns the row for model.
func (t Table) Find(model string) (Row, bool) {
	for _, r := range t.Rows {
		if r.Model == model {
			return r, true
		}
	}
	return Row{}, false
}

// Clone returns a deep copy.
func (t Table) Clone() Table {
	out := Table{Metrics: append([]string(nil), t.Metrics...)}
	if t.Rows != nil {
		out.Rows = make([]Row, len(t.Rows))
		for i, r := range t.Rows {
			out.Rows[i] = Row{Model: r.Model, Cells: append([]Cell(nil), r.Cells...)}
		}
	}
	return out
}

// Cell returns the cell for metric. Unknown metrics are reported missing.
func (r Row) Cell(metric string) Cell {
	for _, c := range r.Cells {
		if c.Metric == metric {
			return c
		}
	}
	return Cell{Metric: metric, Missing: true}
}

// Record returns the row's present scores as a score record.
func (r Row) Record() models.ScoreRecord {
	rec := models.ScoreRecord{Model: r.Model}
	for _, c := range r.Cells {
		if !c.Missing {
			rec.Scores.Set(c.Metric, c.Value)
		}
	}
	return rec
}

func rowFromRecord(rec models.ScoreRecord) Row {
	row := Row{Model: rec.Model}
	for _, p := range rec.Scores.Pairs() {
		if p.Name == ModelColumn {
			continue
		}
		row.Cells = append(row.Cells, Cell{Metric: p.Name, Value: p.Value})
	}
	return row
}

// normalize rebuilds rows against known followed by every other metric of
// rows in first-appearance order.
func normalize(known []string, rows []Row) Table {
	metrics := append([]string(nil), known...)
	seen := make(map[string]bool, len(known))
	for _, m := range known {
		seen[m] = true
	}
	for _, r := range rows {
		for _, c := range r.Cells {
			if !seen[c.Metric] {
				seen[c.Metric] = true
				metrics = append(metrics, c.Metric)
			}
		}
	}

	out := Table{Metrics: metrics, Rows: make([]Row, len(rows))}
	for i, r := range rows {
		byMetric := make(map[string]Cell, len(r.Cells))
		for _, c := range r.Cells {
			byMetric[c.Metric] = c
		}
		cells := make([]Cell, len(metrics))
		for j, m := range metrics {
			c, ok := byMetric[m]
			if !ok {
				c = Cell{Metric: m, Missing: true}
			}
			cells[j] = c
		}
		out.Rows[i] = Row{Model: r.Model, Cells: cells}
	}
	return out
}

// MarshalJSON encodes the row as an object keyed by column, in column order.
// Missing cells encode as the sentinel string.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	model, err := json.Marshal(r.Model)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`{"` + ModelColumn + `":`)
	buf.Write(model)
	for _, c := range r.Cells {
		key, err := json.Marshal(c.Metric)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(key)
		buf.WriteByte(':')
		if c.Missing {
			buf.WriteString(`"` + Sentinel + `"`)
			continue
		}
		val, err := json.Marshal(c.Value)
		if err != nil {
			return nil, fmt.Errorf("metric %q: %w", c.Metric, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a row object, keeping key order. Values must be
// numbers or the sentinel.
func (r *Row) UnmarshalJSON(data []byte) error {
	*r = Row{}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("benchmark row: expected a JSON object")
	}

	hasModel := false
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		if key == ModelColumn {
			if err := json.Unmarshal(raw, &r.Model); err != nil {
				return fmt.Errorf("benchmark row: model must be a string: %w", err)
			}
			hasModel = true
			continue
		}

		var s string
		if json.Unmarshal(raw, &s) == nil {
			if s != Sentinel {
				return fmt.Errorf("benchmark row: %q has non-numeric value %q", key, s)
			}
			r.Cells = append(r.Cells, Cell{Metric: key, Missing: true})
			continue
		}
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return fmt.Errorf("benchmark row: %q is not a number: %w", key, err)
		}
		r.Cells = append(r.Cells, Cell{Metric: key, Value: v})
	}
	if !hasModel {
		return errors.New("benchmark row: missing model")
	}
	_, err = dec.Token()
	return err
}

// MarshalJSON encodes the table as an array of row objects.
func (t Table) MarshalJSON() ([]byte, error) {
	rows := t.Rows
	if rows == nil {
		rows = []Row{}
	}
	return json.Marshal(rows)
}

// UnmarshalJSON decodes an array of row objects, folding them in order.
func (t *Table) UnmarshalJSON(data []byte) error {
	var rows []Row
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	var out Table
	for _, r := range rows {
		out = upsertRow(out, r)
	}
	*t = out
	return nil
}

// upsertRow is Upsert for a row that may carry missing cells.
func upsertRow(t Table, row Row) Table {
	rows := make([]Row, 0, len(t.Rows)+1)
	for _, r := range t.Rows {
		if r.Model != row.Model {
			rows = append(rows, r)
		}
	}
	rows = append(rows, row)
	return normalize(t.Metrics, rows)
}
