package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTableRendersRows(t *testing.T) {
	table := NewTable("Open Files", []string{"NAME", "SIZE"})
	table.AddRow("sequencer.go", "12 kB")
	table.AddRow("prism.go", "4 kB")

	view := table.View(NewStyles(LightTheme()), 0)
	t.Logf("View:\n%q", view)

	if !strings.Contains(view, "Open Files") {
		t.Error("view missing title")
	}
	if !strings.Contains(view, "sequencer.go") {
		t.Error("view missing cell content")
	}
	if !strings.Contains(view, "NAME") {
		t.Error("view missing header")
	}
}

func TestTableEmpty(t *testing.T) {
	table := NewTable("Habits", []string{"NAME"})
	view := table.View(NewStyles(LightTheme()), 0)
	if !strings.Contains(view, "nothing here") {
		t.Errorf("empty table should render a placeholder, got %q", view)
	}
}

func TestTableTruncatesToWidth(t *testing.T) {
	table := NewTable("", []string{"PATH"})
	table.AddRow(strings.Repeat("deep/nested/dir/", 10) + "file.go")

	view := table.View(NewStyles(LightTheme()), 40)
	for _, line := range strings.Split(view, "\n") {
		if w := lipgloss.Width(line); w > 46 {
			t.Errorf("line width %d well past the 40-col budget: %q", w, line)
		}
	}
}

func TestTableCursorRowStillRenders(t *testing.T) {
	table := NewTable("", []string{"NAME"})
	table.AddRow("meditate")
	table.AddRow("journal")
	table.Cursor = 1

	view := table.View(NewStyles(LightTheme()), 0)
	if !strings.Contains(view, "journal") {
		t.Errorf("cursor row content missing from view: %q", view)
	}
}
