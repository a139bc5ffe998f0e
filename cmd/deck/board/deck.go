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

// renderDeck renders the card grid. Cards come out of the render cache;
// payload changes and resizes invalidate them, and the minute stamp in
// the key refreshes relative times without a payload change.
func (m Model) renderDeck() string {
	cols := m.gridColumns()
	gridRows := ui.GridRows(len(m.order), cols)
	cardW := m.layout.CardWidth(cols)
	cardH := m.layout.CardHeight(gridRows)
	stamp := time.Now().Format("15:04")

	cards := make([]string, 0, len(m.order))
	for i, kind := range m.order {
		focused := i == m.focused
		card := m.cardCache[kind].Render(
			[]any{string(kind), cardW, cardH, focused, stamp},
			func() string { return m.renderCard(kind, cardW, cardH, focused) },
		)
		cards = append(cards, card)
	}

	gutter := strings.Repeat(" ", ui.CardGutter)
	var rows []string
	for i := 0; i < len(cards); i += cols {
		end := i + cols
		if end > len(cards) {
			end = len(cards)
		}
		row := cards[i]
		for _, c := range cards[i+1 : end] {
			row = lipgloss.JoinHorizontal(lipgloss.Top, row, gutter, c)
		}
		rows = append(rows, row)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderCard renders one block's summary card.
func (m Model) renderCard(kind blocks.Kind, w, h int, focused bool) string {
	style := m.styles.Card
	if focused {
		style = m.styles.CardFocused
	}
	innerW := ui.CardContentWidth(w)
	innerH := ui.CardContentHeight(h)

	lines := m.cardLines(kind, innerW)
	// First inner line is the title.
	if len(lines) > innerH-1 && innerH > 1 {
		lines = lines[:innerH-1]
	}
	for i, line := range lines {
		lines[i] = format.Truncate(line, innerW)
	}

	head := m.styles.CardTitle.Render(format.Truncate(title(kind), innerW))
	content := head + "\n" + strings.Join(lines, "\n")
	return style.
		Width(w - 2*ui.CardBorderWidth).
		Height(h - 2*ui.CardBorderWidth).
		Render(content)
}

// cardLines builds the summary lines for one card from derived state.
func (m Model) cardLines(kind blocks.Kind, innerW int) []string {
	now := time.Now()
	meta := m.styles.CardMeta
	var lines []string

	switch kind {
	case blocks.KindHabits:
		d := m.habits.Derived()
		habits := m.habits.Payload().Habits
		lines = append(lines,
			fmt.Sprintf("%d of %d done", d.DoneCount, len(habits)),
			progressBar(d.Completion, innerW),
		)
		shown := 0
		for _, h := range habits {
			if h.Done || shown >= 3 {
				continue
			}
			lines = append(lines, meta.Render("· "+h.Title))
			shown++
		}

	case blocks.KindCalendar:
		d := m.calendar.Derived()
		lines = append(lines, fmt.Sprintf("%d events, %d days", len(d.ByID), len(d.Days)))
		shown := 0
		for _, day := range d.Days {
			for _, ev := range d.ByDay[day] {
				if shown >= 4 {
					break
				}
				lines = append(lines, meta.Render(format.Clock(ev.At)+"  "+ev.Title))
				shown++
			}
		}

	case blocks.KindContacts:
		d := m.contacts.Derived()
		lines = append(lines, fmt.Sprintf("%d contacts, %d roles", len(d.ByID), len(d.Roles)))
		shown := 0
		for _, c := range m.contacts.Payload().Contacts {
			if shown >= 4 {
				break
			}
			lines = append(lines, meta.Render(c.Name+" · "+c.Role))
			shown++
		}

	case blocks.KindFiles:
		d := m.files.Derived()
		lines = append(lines, fmt.Sprintf("%d dirs, %d files, %s",
			d.DirCount, d.FileCount, format.Bytes(d.TotalSize)))
		shown := 0
		for _, e := range d.Sorted {
			if shown >= 4 {
				break
			}
			name := e.Name
			if e.Dir {
				name += "/"
			}
			lines = append(lines, meta.Render(name))
			shown++
		}

	case blocks.KindProjects:
		d := m.projects.Derived()
		lines = append(lines,
			"Overall "+format.Percent(d.Overall),
			progressBar(d.Overall, innerW),
		)
		for _, status := range d.Statuses {
			lines = append(lines, meta.Render(fmt.Sprintf("%s: %d", status, len(d.ByStatus[status]))))
		}

	case blocks.KindGitStatus:
		p := m.git.Payload()
		d := m.git.Derived()
		lines = append(lines, fmt.Sprintf("%s  +%d -%d", p.Branch, p.Ahead, p.Behind))
		if d.Clean {
			lines = append(lines, m.styles.Success.Render("clean"))
		} else {
			lines = append(lines, fmt.Sprintf("%d staged, %d modified, %d untracked",
				len(p.Staged), len(p.Unstaged), len(p.Untracked)))
		}
		if len(p.Commits) > 0 {
			c := p.Commits[0]
			lines = append(lines, meta.Render(d.ShortHash[c.Hash]+"  "+c.Subject))
		}

	case blocks.KindConversation:
		d := m.conversation.Derived()
		turns := m.conversation.Payload().Turns
		lines = append(lines, fmt.Sprintf("%d turns, %d tokens", len(turns), d.TotalTokens))
		if len(turns) > 0 {
			last := turns[len(turns)-1]
			lines = append(lines,
				meta.Render(last.Role+" · "+format.RelTime(last.At, now)),
				meta.Render(strings.SplitN(last.Content, "\n", 2)[0]),
			)
		}
	}
	return lines
}

// progressBar renders a completion fraction as a filled bar colored by
// how far along it is.
func progressBar(frac float64, width int) string {
	if width < 4 {
		width = 4
	}
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac*float64(width) + 0.5)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return lipgloss.NewStyle().Foreground(ui.ScoreColor(frac, 1)).Render(bar)
}
