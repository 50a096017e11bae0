package widgets

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Table renders rows under a header with columns padded to a common width
// and separated by " | ". Rows keep their input order.
type Table struct {
	Headers []string
	Rows    [][]string
	// Empty is shown below the header when there are no rows.
	Empty string
}

func (t Table) Render(width int) string {
	if len(t.Headers) == 0 {
		return "No data"
	}
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = ansi.StringWidth(h)
	}
	for _, row := range t.Rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], ansi.StringWidth(row[i]))
		}
	}

	lines := make([]string, 0, len(t.Rows)+1)
	lines = append(lines, t.line(t.Headers, widths, width))
	for _, row := range t.Rows {
		lines = append(lines, t.line(row, widths, width))
	}
	if len(t.Rows) == 0 && t.Empty != "" {
		lines = append(lines, t.Empty)
	}
	return strings.Join(lines, "\n")
}

func (t Table) line(cells []string, widths []int, width int) string {
	parts := make([]string, len(widths))
	for i := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		if i < len(widths)-1 {
			cell += strings.Repeat(" ", widths[i]-ansi.StringWidth(cell))
		}
		parts[i] = cell
	}
	line := strings.Join(parts, " | ")
	if width > 0 {
		line = ansi.Truncate(line, width, "…")
	}
	return line
}
