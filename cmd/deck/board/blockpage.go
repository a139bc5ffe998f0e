package board

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"prismdeck/cmd/deck/ui"
	"prismdeck/internal/blocks"
	"prismdeck/internal/format"
)

// blockRow is one selectable line of a block page. Rows with an empty
// ID render but take no gestures.
type blockRow struct {
	ID    string
	Cells []string
}

// lensPass applies filter to one item's fields. A broken filter fails
// open so a typo in deck.yaml hides nothing.
func (m Model) lensPass(filter string, fields map[string]any) bool {
	if filter == "" {
		return true
	}
	ok, err := m.lenses.Match(filter, fields)
	if err != nil {
		return true
	}
	return ok
}

// rowsFor builds the page rows for kind with the active lens applied.
// Update uses the same rows for cursor bounds and gesture targets that
// View renders, so the two can never disagree.
func (m Model) rowsFor(kind blocks.Kind) []blockRow {
	filter := m.activeLensFilter(kind)
	now := time.Now()
	var rows []blockRow

	switch kind {
	case blocks.KindHabits:
		d := m.habits.Derived()
		for _, h := range m.habits.Payload().Habits {
			if !m.lensPass(filter, h.Fields()) {
				continue
			}
			mark := "[ ]"
			if h.Done {
				mark = "[x]"
			}
			streak := "-"
			if h.Streak > 0 {
				streak = fmt.Sprintf("%dd", h.Streak)
			}
			due := "-"
			if next, ok := d.NextDue(h.ID, now); ok {
				due = format.RelTime(next, now)
			}
			rows = append(rows, blockRow{ID: h.ID, Cells: []string{mark, h.Title, streak, due}})
		}

	case blocks.KindCalendar:
		d := m.calendar.Derived()
		for _, day := range d.Days {
			for _, ev := range d.ByDay[day] {
				if !m.lensPass(filter, ev.Fields()) {
					continue
				}
				rows = append(rows, blockRow{ID: ev.ID, Cells: []string{
					day, format.Clock(ev.At), ev.Title, format.CompactDuration(ev.Duration),
				}})
			}
		}

	case blocks.KindContacts:
		d := m.contacts.Derived()
		for _, role := range d.Roles {
			for _, c := range d.ByRole[role] {
				if !m.lensPass(filter, c.Fields()) {
					continue
				}
				rows = append(rows, blockRow{ID: c.ID, Cells: []string{
					c.Name, c.Role, c.Email, format.RelTime(c.LastTouch, now),
				}})
			}
		}

	case blocks.KindFiles:
		d := m.files.Derived()
		for _, e := range d.Sorted {
			if !m.lensPass(filter, e.Fields()) {
				continue
			}
			name, size := e.Name, format.Bytes(e.Size)
			if e.Dir {
				name, size = name+"/", "-"
			}
			rows = append(rows, blockRow{ID: e.ID, Cells: []string{
				name, size, format.RelTime(e.ModTime, now),
			}})
		}

	case blocks.KindProjects:
		d := m.projects.Derived()
		for _, status := range d.Statuses {
			for _, p := range d.ByStatus[status] {
				if !m.lensPass(filter, p.Fields()) {
					continue
				}
				rows = append(rows, blockRow{ID: p.ID, Cells: []string{
					p.Name, p.Status, format.Percent(p.Progress),
					fmt.Sprintf("%d/%d", p.TasksDone, p.TasksTotal),
				}})
			}
		}

	case blocks.KindGitStatus:
		p := m.git.Payload()
		d := m.git.Derived()
		for _, path := range p.Staged {
			rows = append(rows, blockRow{ID: path, Cells: []string{"staged", path}})
		}
		for _, path := range p.Unstaged {
			rows = append(rows, blockRow{ID: path, Cells: []string{"modified", path}})
		}
		for _, path := range p.Untracked {
			rows = append(rows, blockRow{ID: path, Cells: []string{"untracked", path}})
		}
		for _, c := range p.Commits {
			rows = append(rows, blockRow{Cells: []string{"commit", d.ShortHash[c.Hash] + "  " + c.Subject}})
		}

	case blocks.KindConversation:
		d := m.conversation.Derived()
		for _, t := range m.conversation.Payload().Turns {
			if !m.lensPass(filter, t.Fields()) {
				continue
			}
			line := strings.SplitN(t.Content, "\n", 2)[0]
			rows = append(rows, blockRow{ID: t.ID, Cells: []string{
				t.Role, fmt.Sprintf("%d tok", d.Tokens[t.ID]), format.RelTime(t.At, now), line,
			}})
		}
	}
	return rows
}

// pageHeaders returns the column headers for kind's page table.
func pageHeaders(kind blocks.Kind) []string {
	switch kind {
	case blocks.KindHabits:
		return []string{"", "Habit", "Streak", "Next"}
	case blocks.KindCalendar:
		return []string{"Day", "At", "Event", "For"}
	case blocks.KindContacts:
		return []string{"Name", "Role", "Email", "Last Touch"}
	case blocks.KindFiles:
		return []string{"Name", "Size", "Modified"}
	case blocks.KindProjects:
		return []string{"Project", "Status", "Progress", "Tasks"}
	case blocks.KindGitStatus:
		return []string{"State", "Path"}
	case blocks.KindConversation:
		return []string{"Role", "Tokens", "When", "Content"}
	}
	return nil
}

// pageSummary is the one line of derived state above the table.
func (m Model) pageSummary(kind blocks.Kind) string {
	now := time.Now()
	switch kind {
	case blocks.KindHabits:
		d := m.habits.Derived()
		return fmt.Sprintf("%d of %d done (%s)",
			d.DoneCount, len(m.habits.Payload().Habits), format.Percent(d.Completion))
	case blocks.KindCalendar:
		d := m.calendar.Derived()
		return fmt.Sprintf("%d events across %d days", len(d.ByID), len(d.Days))
	case blocks.KindContacts:
		d := m.contacts.Derived()
		return fmt.Sprintf("%d contacts in %d roles", len(d.ByID), len(d.Roles))
	case blocks.KindFiles:
		d := m.files.Derived()
		return fmt.Sprintf("%d dirs, %d files, %s total",
			d.DirCount, d.FileCount, format.Bytes(d.TotalSize))
	case blocks.KindProjects:
		d := m.projects.Derived()
		return fmt.Sprintf("%d projects, %s of tasks done", len(d.ByID), format.Percent(d.Overall))
	case blocks.KindGitStatus:
		p := m.git.Payload()
		d := m.git.Derived()
		if d.Clean {
			return fmt.Sprintf("%s: clean, %d ahead %d behind", p.Branch, p.Ahead, p.Behind)
		}
		return fmt.Sprintf("%s: %d changes, %d ahead %d behind",
			p.Branch, d.ChangeCount, p.Ahead, p.Behind)
	case blocks.KindConversation:
		d := m.conversation.Derived()
		if d.LastAt.IsZero() {
			return "no turns"
		}
		return fmt.Sprintf("%d turns, %d tokens, last %s",
			len(m.conversation.Payload().Turns), d.TotalTokens, format.RelTime(d.LastAt, now))
	}
	return ""
}

// gestureHint names the page's keys for the footer.
func gestureHint(kind blocks.Kind) string {
	switch kind {
	case blocks.KindHabits:
		return "t toggle"
	case blocks.KindGitStatus:
		return "s stage | u unstage"
	case blocks.KindConversation:
		return "y copy"
	default:
		return "enter open"
	}
}

// renderBlockPage renders the full page for the active block.
func (m Model) renderBlockPage() string {
	kind := m.activeBlock
	width := m.layout.ContentWidth()

	rows := m.rowsFor(kind)
	table := ui.NewTable("", pageHeaders(kind))
	for _, r := range rows {
		table.AddRow(r.Cells...)
	}
	table.Cursor = m.cursor

	var b strings.Builder
	b.WriteString(m.styles.Title.Render(title(kind)))
	if name := m.activeLensName(kind); name != "" {
		b.WriteString("  ")
		b.WriteString(m.styles.Badge.Render("lens: " + name))
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render(m.pageSummary(kind)))
	b.WriteString("\n\n")
	b.WriteString(table.View(m.styles, width))

	// The conversation page renders the selected turn under the table.
	if kind == blocks.KindConversation {
		if body := m.selectedTurnBody(rows); body != "" {
			b.WriteString("\n")
			b.WriteString(m.styles.RenderDivider(width))
			b.WriteString("\n")
			b.WriteString(body)
		}
	}

	return lipgloss.NewStyle().Width(width).Render(b.String())
}

// selectedTurnBody renders the cursor's turn as markdown.
func (m Model) selectedTurnBody(rows []blockRow) string {
	if m.cursor < 0 || m.cursor >= len(rows) {
		return ""
	}
	d := m.conversation.Derived()
	turn, ok := d.ByID[rows[m.cursor].ID]
	if !ok {
		return ""
	}
	return m.safeRenderMarkdown(turn.Content)
}

// activeLensName returns the display name of kind's active lens, or "".
func (m Model) activeLensName(kind blocks.Kind) string {
	idx, ok := m.activeLens[kind]
	if !ok || idx < 0 {
		return ""
	}
	defs := m.lensesFor[kind]
	if idx >= len(defs) {
		return ""
	}
	return defs[idx].Name
}
