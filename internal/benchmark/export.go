package benchmark

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// WriteJSON writes the table as an indented JSON array of row objects.
func WriteJSON(w io.Writer, t Table) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding benchmark: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// ReadJSON reads a table written by WriteJSON.
func ReadJSON(r io.Reader) (Table, error) {
	var t Table
	if err := json.NewDecoder(r).Decode(&t); err != nil {
		return Table{}, fmt.Errorf("decoding benchmark: %w", err)
	}
	return t, nil
}

// WriteYAML writes the table as a YAML sequence of mappings in column order.
func WriteYAML(w io.Writer, t Table) error {
	doc := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, r := range t.Rows {
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		m.Content = append(m.Content, strNode(ModelColumn), strNode(r.Model))
		for _, c := range r.Cells {
			val := strNode(Sentinel)
			if !c.Missing {
				val = numberNode(c.Value)
			}
			m.Content = append(m.Content, strNode(c.Metric), val)
		}
		doc.Content = append(doc.Content, m)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding benchmark: %w", err)
	}
	return enc.Close()
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func numberNode(v float64) *yaml.Node {
	tag := "!!float"
	if v == math.Trunc(v) {
		tag = "!!int"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: strconv.FormatFloat(v, 'f', -1, 64)}
}

// WriteCSV writes a header row of column keys followed by one record per
// row. Scores are written at full precision.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns()); err != nil {
		return err
	}
	for _, r := range t.Rows {
		rec := make([]string, 0, len(r.Cells)+1)
		rec = append(rec, r.Model)
		for _, c := range r.Cells {
			if c.Missing {
				rec = append(rec, Sentinel)
				continue
			}
			rec = append(rec, strconv.FormatFloat(c.Value, 'f', -1, 64))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a table written by WriteCSV. The first record is the header
// and must start with the model column.
func ReadCSV(r io.Reader) (Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("csv: parse: %w", err)
	}
	if len(records) == 0 {
		return Table{}, fmt.Errorf("csv: empty input (no header row)")
	}

	headers := records[0]
	if len(headers) == 0 || headers[0] != ModelColumn {
		return Table{}, fmt.Errorf("csv: first column must be %q", ModelColumn)
	}

	var t Table
	for i, rec := range records[1:] {
		if len(rec) != len(headers) {
			return Table{}, fmt.Errorf("csv: row %d has %d columns, expected %d", i+2, len(rec), len(headers))
		}
		row := Row{Model: rec[0]}
		for j, h := range headers[1:] {
			raw := strings.TrimSpace(rec[j+1])
			if raw == Sentinel || raw == "" {
				row.Cells = append(row.Cells, Cell{Metric: h, Missing: true})
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return Table{}, fmt.Errorf("csv: row %d column %q: %w", i+2, h, err)
			}
			row.Cells = append(row.Cells, Cell{Metric: h, Value: v})
		}
		t = upsertRow(t, row)
	}
	return t, nil
}

// WriteMarkdown writes the visible columns as a GitHub-flavored markdown
// table with display labels and formatted cells.
func WriteMarkdown(w io.Writer, t Table) error {
	cols := VisibleColumns(t)
	labels := make([]string, len(cols))
	sep := make([]string, len(cols))
	for i, c := range cols {
		labels[i] = HeaderLabel(c)
		sep[i] = "---"
		if c != ModelColumn {
			sep[i] = "---:"
		}
	}

	var b strings.Builder
	writeMarkdownRow(&b, labels)
	writeMarkdownRow(&b, sep)
	for _, line := range DisplayRows(t, cols) {
		writeMarkdownRow(&b, line)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeMarkdownRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" ")
		b.WriteString(strings.ReplaceAll(c, "|", `\|`))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}
