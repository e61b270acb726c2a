package render

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/mohitsingh538/llm-metrics-evaluation/internal/benchmark"
)

// EmptyTableMessage is printed for a table with no rows.
const EmptyTableMessage = "No benchmark results yet."

// Table writes the benchmark table with aligned columns. Metric columns that
// are missing for every row are hidden.
func Table(w io.Writer, t benchmark.Table) error {
	if t.Len() == 0 {
		_, err := io.WriteString(w, EmptyTableMessage+"\n")
		return err
	}

	cols := benchmark.VisibleColumns(t)
	header := make([]string, len(cols))
	widths := make([]int, len(cols))
	for i, c := range cols {
		header[i] = benchmark.HeaderLabel(c)
		widths[i] = runewidth.StringWidth(header[i])
	}
	rows := benchmark.DisplayRows(t, cols)
	for _, r := range rows {
		for i, cell := range r {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	var b strings.Builder
	writeTableRow(&b, header, widths)
	sep := make([]string, len(cols))
	for i, wd := range widths {
		sep[i] = strings.Repeat("─", wd)
	}
	writeTableRow(&b, sep, widths)
	for _, r := range rows {
		writeTableRow(&b, r, widths)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// writeTableRow writes cells left-aligned in the first column and
// right-aligned in the rest.
func writeTableRow(b *strings.Builder, cells []string, widths []int) {
	for i, c := range cells {
		if i > 0 {
			b.WriteString("  ")
		}
		if i == 0 {
			b.WriteString(padRight(c, widths[i]))
			continue
		}
		b.WriteString(padLeft(c, widths[i]))
	}
	b.WriteString("\n")
}

func padLeft(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return strings.Repeat(" ", width-sw) + s
}
