package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"prismdeck/internal/format"
)

// Table renders rows of block data with sized columns and an optional
// cursor highlight. It is a plain value; block pages rebuild one per
// frame from derived state.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	// Cursor highlights one row; -1 for none.
	Cursor int
}

// NewTable creates a table with the given title and headers.
func NewTable(title string, headers []string) *Table {
	return &Table{
		Title:   title,
		Headers: headers,
		Rows:    make([][]string, 0),
		Cursor:  -1,
	}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(row ...string) {
	t.Rows = append(t.Rows, row)
}

// View renders the table using the provided styles, truncating cells
// so the widest row fits maxWidth. maxWidth <= 0 disables truncation.
func (t *Table) View(styles Styles, maxWidth int) string {
	if len(t.Rows) == 0 {
		if t.Title != "" {
			return styles.Title.Render(t.Title) + "\n" + styles.Muted.Render("nothing here")
		}
		return styles.Muted.Render("nothing here")
	}

	var sb strings.Builder

	if t.Title != "" {
		sb.WriteString(styles.Title.Render(t.Title))
		sb.WriteString("\n")
	}

	// Column widths from the widest cell per column.
	colWidths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		colWidths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(colWidths) {
				if w := lipgloss.Width(cell); w > colWidths[i] {
					colWidths[i] = w
				}
			}
		}
	}

	// Shrink the widest column until the row fits.
	if maxWidth > 0 {
		for total(colWidths, len(t.Headers)) > maxWidth {
			widest := 0
			for i := range colWidths {
				if colWidths[i] > colWidths[widest] {
					widest = i
				}
			}
			if colWidths[widest] <= 4 {
				break
			}
			colWidths[widest]--
		}
	}

	headerStyle := styles.Bold.Padding(0, 1)
	rowStyle := styles.Body.Padding(0, 1)
	cursorStyle := styles.Selected.Padding(0, 1)
	sepStyle := styles.Muted

	for i, h := range t.Headers {
		sb.WriteString(headerStyle.Width(colWidths[i] + 2).Render(format.Truncate(h, colWidths[i])))
		if i < len(t.Headers)-1 {
			sb.WriteString(sepStyle.Render("|"))
		}
	}
	sb.WriteString("\n")
	sb.WriteString(sepStyle.Render(strings.Repeat("-", total(colWidths, len(t.Headers)))))
	sb.WriteString("\n")

	for r, row := range t.Rows {
		cellStyle := rowStyle
		if r == t.Cursor {
			cellStyle = cursorStyle
		}
		for i, cell := range row {
			if i < len(colWidths) {
				sb.WriteString(cellStyle.Width(colWidths[i] + 2).Render(format.Truncate(cell, colWidths[i])))
				if i < len(row)-1 {
					sb.WriteString(sepStyle.Render("|"))
				}
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// total sums padded column widths plus separators for cols columns.
func total(colWidths []int, cols int) int {
	w := 0
	for _, c := range colWidths {
		w += c + 2
	}
	if cols > 1 {
		w += cols - 1
	}
	return w
}
