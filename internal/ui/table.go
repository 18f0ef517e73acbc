package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table renders rows of plain-text cells in aligned columns
type Table struct {
	Headers []string
	Rows    [][]string
	Width   int
}

// NewTable creates a table sized to the terminal
func NewTable(headers ...string) *Table {
	return &Table{Headers: headers, Width: GetTerminalWidth()}
}

// AddRow appends a row. Missing cells render empty; extra cells are dropped.
func (t *Table) AddRow(cells ...string) *Table {
	row := make([]string, len(t.Headers))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
	return t
}

// columnWidths sizes every column to its widest cell. The last column is
// truncated so the table fits in Width.
func (t *Table) columnWidths() []int {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	if len(widths) > 0 && t.Width > 0 {
		used := 0
		for _, w := range widths[:len(widths)-1] {
			used += w + 2
		}
		last := len(widths) - 1
		if avail := t.Width - used; avail >= 8 && widths[last] > avail {
			widths[last] = avail
		}
	}
	return widths
}

// Render returns the table as a string
func (t *Table) Render() string {
	widths := t.columnWidths()

	var b strings.Builder
	b.WriteString(t.renderRow(t.Headers, widths, TableHeaderStyle))
	b.WriteString("\n")

	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat("─", w)
	}
	b.WriteString(lipgloss.NewStyle().Foreground(MutedColor).Render(strings.Join(rule, "  ")))

	for _, row := range t.Rows {
		b.WriteString("\n")
		b.WriteString(t.renderRow(row, widths, TableCellStyle))
	}
	return b.String()
}

func (t *Table) renderRow(cells []string, widths []int, style lipgloss.Style) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = truncate(cells[i], w)
		}
		parts[i] = style.Render(cell + strings.Repeat(" ", w-lipgloss.Width(cell)))
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}

// String implements fmt.Stringer
func (t *Table) String() string {
	return t.Render()
}

// truncate shortens s to width runes, ending with an ellipsis
func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	if width <= 1 {
		return "…"
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}

// Summary renders a muted footer line such as "12 images (offset 0)"
func Summary(format string, args ...any) string {
	return FooterStyle.Render(fmt.Sprintf(format, args...))
}
