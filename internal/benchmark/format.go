package benchmark

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English, cases.NoLower)

// HeaderLabel turns a column key into a display label:
// "contextual_understanding" becomes "Contextual Understanding".
func HeaderLabel(col string) string {
	return titleCaser.String(strings.ReplaceAll(col, "_", " "))
}

// FormatCell renders a cell for display. Whole numbers print without
// decimals, other values with two, and missing cells as the sentinel.
func FormatCell(c Cell) string {
	if c.Missing {
		return Sentinel
	}
	return FormatScore(c.Value)
}

// FormatScore renders a score the way FormatCell renders a present cell.
func FormatScore(v float64) string {
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// VisibleColumns returns the model column and every metric column with at
// least one present cell.
func VisibleColumns(t Table) []string {
	cols := []string{ModelColumn}
	for _, m := range t.Metrics {
		for _, r := range t.Rows {
			if !r.Cell(m).Missing {
				cols = append(cols, m)
				break
			}
		}
	}
	return cols
}

// DisplayRows returns the table as display strings for cols, one slice per
// row.
func DisplayRows(t Table, cols []string) [][]string {
	out := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		line := make([]string, len(cols))
		for i, c := range cols {
			if c == ModelColumn {
				line[i] = r.Model
				continue
			}
			line[i] = FormatCell(r.Cell(c))
		}
		out = append(out, line)
	}
	return out
}
