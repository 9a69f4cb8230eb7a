package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/logiq/internal/dashboard"
	"github.com/tinytelemetry/logiq/internal/model"
)

const (
	maxColumnWidth = 40
	minColumnWidth = 4
	columnGap      = 2
)

// renderResults draws rows [offset, offset+height) of table as aligned text,
// colored by the row's severity when the table has one.
func renderResults(table model.Table, offset, height, width int) string {
	if len(table.Columns) == 0 {
		return helpStyle.Render("No results")
	}
	if height < 1 {
		height = 1
	}
	offset = clampOffset(offset, table.Len(), height)
	end := min(offset+height, table.Len())
	visible := table.Rows[offset:end]

	widths := columnWidths(table.Columns, visible)
	shown := fitColumns(widths, width)

	var b strings.Builder
	header := make([]string, shown)
	for i := 0; i < shown; i++ {
		header[i] = pad(truncate(table.Columns[i].Name, widths[i]), widths[i])
	}
	b.WriteString(headerStyle.Render(strings.Join(header, strings.Repeat(" ", columnGap))))
	if hidden := len(table.Columns) - shown; hidden > 0 {
		b.WriteString(helpStyle.Render(fmt.Sprintf("  +%d cols", hidden)))
	}

	sevIdx := table.ColumnIndex("severity")
	for _, row := range visible {
		cells := make([]string, shown)
		for i := 0; i < shown; i++ {
			cells[i] = pad(truncate(cellText(row, i), widths[i]), widths[i])
		}
		line := strings.Join(cells, strings.Repeat(" ", columnGap))
		style := lipgloss.NewStyle()
		if sevIdx >= 0 {
			style = style.Foreground(severityColor(model.Severity(cellText(row, sevIdx))))
		}
		b.WriteString("\n")
		b.WriteString(style.Render(line))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(fmt.Sprintf("rows %d-%d of %d", offset+min(1, len(visible)), end, table.Len())))
	return b.String()
}

func columnWidths(columns []model.Column, rows [][]any) []int {
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = max(minColumnWidth, len([]rune(col.Name)))
	}
	for _, row := range rows {
		for i := range columns {
			if n := len([]rune(cellText(row, i))); n > widths[i] {
				widths[i] = n
			}
		}
	}
	for i := range widths {
		widths[i] = min(widths[i], maxColumnWidth)
	}
	return widths
}

// fitColumns returns how many leading columns fit in width. At least one
// column is always shown.
func fitColumns(widths []int, width int) int {
	used := 0
	for i, w := range widths {
		if i > 0 {
			used += columnGap
		}
		used += w
		if used > width && i > 0 {
			return i
		}
	}
	return len(widths)
}

func clampOffset(offset, total, height int) int {
	maxOffset := max(total-height, 0)
	return min(max(offset, 0), maxOffset)
}

func cellText(row []any, i int) string {
	if i >= len(row) {
		return ""
	}
	text := dashboard.FormatValue(row[i])
	return strings.ReplaceAll(text, "\n", " ")
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}

func pad(s string, width int) string {
	if n := len([]rune(s)); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
