package display

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// RowStyle controls how a table row is drawn.
type RowStyle int

const (
	RowPlain RowStyle = iota
	// RowPast dims prayers whose time has gone.
	RowPast
	// RowCurrent marks the window we are in.
	RowCurrent
	// RowNext marks the upcoming prayer.
	RowNext
)

// Table renders an aligned text table. Widths count runes, so Turkish names
// such as "İkindi" line up.
type Table struct {
	headers []string
	rows    [][]string
	styles  []RowStyle
}

func NewTable(headers ...string) *Table {
	return &Table{headers: headers}
}

// AddRow appends a row drawn in style.
func (t *Table) AddRow(style RowStyle, values ...string) {
	t.rows = append(t.rows, values)
	t.styles = append(t.styles, style)
}

// Render produces the formatted table with a two-space indent.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if n := utf8.RuneCountInString(cell); i < len(widths) && n > widths[i] {
				widths[i] = n
			}
		}
	}

	var sb strings.Builder
	sb.WriteString("  " + Bold(formatRow(t.headers, widths)) + "\n")

	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("─", w)
	}
	sb.WriteString(Dim("  "+strings.Join(sep, "  ")) + "\n")

	for i, row := range t.rows {
		line := formatRow(row, widths)
		switch t.styles[i] {
		case RowPast:
			line = Gray(line)
		case RowCurrent:
			line = Green(line)
		case RowNext:
			line = Accent(line)
		}
		sb.WriteString("  " + line + "\n")
	}
	return sb.String()
}

// formatRow pads each cell to its column width.
func formatRow(cells []string, widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		pad := w - utf8.RuneCountInString(cell)
		if pad < 0 {
			pad = 0
		}
		parts[i] = fmt.Sprintf("%s%s", cell, strings.Repeat(" ", pad))
	}
	return strings.Join(parts, "  ")
}
