package board

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"prismdeck/internal/blocks"
	"prismdeck/internal/lens"
	"prismdeck/internal/logging"
)

// paletteTarget is what executing one palette entry does. The entry's
// Kind picks which fields matter.
type paletteTarget struct {
	page      ViewMode
	block     blocks.Kind
	lensIndex int
	command   string
}

// paletteVisible caps how many ranked entries the overlay lists.
const paletteVisible = 10

func paletteKey(e lens.PaletteEntry) string {
	return e.Kind + "\x00" + e.Title
}

// paletteEntries builds the searchable entries and the target each one
// executes. Rebuilt per keystroke; the set is small and config-driven.
func (m Model) paletteEntries() ([]lens.PaletteEntry, map[string]paletteTarget) {
	var entries []lens.PaletteEntry
	targets := make(map[string]paletteTarget)

	add := func(entryTitle, entryKind string, t paletteTarget) {
		e := lens.PaletteEntry{Title: entryTitle, Kind: entryKind}
		entries = append(entries, e)
		targets[paletteKey(e)] = t
	}

	add("Deck", "page", paletteTarget{page: DeckView})
	add("Observatory", "page", paletteTarget{page: ObservatoryView})
	for _, kind := range m.order {
		add(title(kind), "page", paletteTarget{page: BlockView, block: kind})
	}

	for _, kind := range m.order {
		for i, def := range m.lensesFor[kind] {
			add(def.Name+" ("+title(kind)+")", "lens",
				paletteTarget{block: kind, lensIndex: i})
		}
	}

	add("Refresh blocks", "action", paletteTarget{command: "refresh"})
	add("Reload runs", "action", paletteTarget{command: "runs"})
	add("Go live", "action", paletteTarget{command: "golive"})
	add("Clear lenses", "action", paletteTarget{command: "clear"})

	return entries, targets
}

// openPalette shows the overlay with an empty query.
func (m Model) openPalette() (tea.Model, tea.Cmd) {
	m.showPalette = true
	m.paletteInput.SetValue("")
	m.paletteCursor = 0
	entries, _ := m.paletteEntries()
	m.paletteRanked = lens.RankPalette("", entries)
	return m, m.paletteInput.Focus()
}

// handlePaletteKey owns every key while the overlay is open.
func (m Model) handlePaletteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.performShutdown()
		return m, tea.Quit

	case tea.KeyEsc:
		m.showPalette = false
		m.paletteInput.Blur()
		return m, nil

	case tea.KeyUp:
		if m.paletteCursor > 0 {
			m.paletteCursor--
		}
		return m, nil

	case tea.KeyDown:
		if m.paletteCursor+1 < len(m.paletteRanked) {
			m.paletteCursor++
		}
		return m, nil

	case tea.KeyEnter:
		return m.runPaletteEntry()
	}

	var cmd tea.Cmd
	m.paletteInput, cmd = m.paletteInput.Update(msg)
	entries, _ := m.paletteEntries()
	m.paletteRanked = lens.RankPalette(m.paletteInput.Value(), entries)
	if m.paletteCursor >= len(m.paletteRanked) {
		m.paletteCursor = 0
	}
	return m, cmd
}

// runPaletteEntry executes the highlighted entry and closes the
// overlay.
func (m Model) runPaletteEntry() (tea.Model, tea.Cmd) {
	m.showPalette = false
	m.paletteInput.Blur()

	if m.paletteCursor < 0 || m.paletteCursor >= len(m.paletteRanked) {
		return m, nil
	}
	picked := m.paletteRanked[m.paletteCursor]
	_, targets := m.paletteEntries()
	t, ok := targets[paletteKey(picked.PaletteEntry)]
	if !ok {
		return m, nil
	}

	switch picked.Kind {
	case "page":
		switch t.page {
		case ObservatoryView:
			return m.openObservatory()
		case BlockView:
			return m.openBlock(t.block)
		}
		m.viewMode = DeckView
		return m, nil

	case "lens":
		defs := m.lensesFor[t.block]
		if t.lensIndex >= len(defs) {
			return m, nil
		}
		def := defs[t.lensIndex]
		if err := m.lenses.Check(def.Filter); err != nil {
			m.log.Warn("Lens %q rejected: %v", def.Name, err)
			m.statusMessage = "Lens rejected: " + def.Name
			return m, nil
		}
		m.activeLens[t.block] = t.lensIndex
		m.store.SetLens(string(t.block), def.Name, def.Filter)
		m.statusMessage = "Lens: " + def.Name
		return m.openBlock(t.block)

	case "action":
		return m.runPaletteCommand(t.command)
	}
	return m, nil
}

func (m Model) runPaletteCommand(command string) (tea.Model, tea.Cmd) {
	switch command {
	case "refresh":
		if m.offline {
			m.statusMessage = "Offline: nothing to refresh"
			return m, nil
		}
		m.statusMessage = "Refreshing blocks"
		return m, m.fetchBlocks()

	case "runs":
		return m, m.listRuns()

	case "golive":
		next, cmd := m.openObservatory()
		model := next.(Model)
		model.sequencer.GoLive()
		model.auditPlayback(logging.AuditPlaybackGoLive)
		return model, cmd

	case "clear":
		for k := range m.activeLens {
			m.activeLens[k] = -1
		}
		m.store.ClearLens()
		m.statusMessage = "Lenses cleared"
	}
	return m, nil
}

// =============================================================================
// RENDERING
// =============================================================================

// renderPalette renders the overlay centered on the screen.
func (m Model) renderPalette() string {
	w := m.width - 8
	if w > 60 {
		w = 60
	}
	innerW := w - 4

	var b strings.Builder
	b.WriteString(m.paletteInput.View())
	b.WriteString("\n")
	b.WriteString(m.styles.RenderDivider(innerW))

	end := len(m.paletteRanked)
	if end > paletteVisible {
		end = paletteVisible
	}
	if end == 0 {
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render("no matches"))
	}
	for i := 0; i < end; i++ {
		r := m.paletteRanked[i]
		marker := "  "
		line := highlightMatches(r.Title, r.MatchedIndexes, m.styles.Body, m.styles.Info)
		if i == m.paletteCursor {
			marker = m.styles.Info.Render("> ")
		}
		b.WriteString("\n")
		b.WriteString(marker)
		b.WriteString(m.styles.Muted.Render("[" + r.Kind + "] "))
		b.WriteString(line)
	}

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.styles.Theme.Accent).
		Padding(0, 1).
		Width(w).
		Render(b.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
}

// highlightMatches styles the runes the fuzzy query hit.
func highlightMatches(s string, matches []int, base, hit lipgloss.Style) string {
	set := make(map[int]bool, len(matches))
	for _, i := range matches {
		set[i] = true
	}
	var b strings.Builder
	for i, r := range s {
		if set[i] {
			b.WriteString(hit.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}
	return b.String()
}
