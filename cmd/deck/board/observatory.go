package board

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"prismdeck/cmd/deck/ui"
	"prismdeck/internal/bridge"
	"prismdeck/internal/format"
	"prismdeck/internal/observatory"
	"prismdeck/internal/playback"
)

// runEntry is one row of the run picker: a recording on disk, a
// backend run, or both when the ids line up.
type runEntry struct {
	ID         string
	Path       string // empty for backend-only runs
	Goal       string
	Iterations int
	StopReason string
}

// runEntries merges local recordings with the backend's run index.
// Local files keep their newest-first order; backend-only runs follow.
func (m Model) runEntries() []runEntry {
	byID := make(map[string]bridge.RunInfo, len(m.runs))
	for _, r := range m.runs {
		byID[r.ID] = r
	}

	var entries []runEntry
	seen := make(map[string]bool)
	for _, path := range m.recordings {
		id := strings.TrimSuffix(filepath.Base(path), observatory.RecordingExt)
		e := runEntry{ID: id, Path: path}
		if info, ok := byID[id]; ok {
			e.Goal = info.Goal
			e.Iterations = info.Iterations
			e.StopReason = info.StopReason
		}
		seen[id] = true
		entries = append(entries, e)
	}
	for _, r := range m.runs {
		if seen[r.ID] {
			continue
		}
		entries = append(entries, runEntry{
			ID:         r.ID,
			Goal:       r.Goal,
			Iterations: r.Iterations,
			StopReason: r.StopReason,
		})
	}
	return entries
}

// fetchRunCmd pulls a backend-only run over the bridge.
func (m Model) fetchRunCmd(id string) tea.Cmd {
	b := m.bridge
	ctx := m.shutdownCtx
	return func() tea.Msg {
		rec, err := b.FetchRun(ctx, id)
		return recordingLoadedMsg{rec: rec, err: err}
	}
}

// =============================================================================
// RENDERING
// =============================================================================

// renderObservatory renders the split page: run picker on the left,
// the playback panels on the right.
func (m Model) renderObservatory() string {
	width := m.layout.ContentWidth()
	listW, vizW := ui.SplitPaneWidths(width)

	list := m.renderRunList(listW)
	viz := m.renderViz(vizW)

	return lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(listW).Render(list),
		strings.Repeat(" ", ui.SplitPaneDiv),
		viz,
	)
}

// renderRunList renders the run picker pane.
func (m Model) renderRunList(w int) string {
	entries := m.runEntries()

	table := ui.NewTable("", []string{"Run", "It", "Stop"})
	for _, e := range entries {
		id := e.ID
		if e.Path == "" {
			id = "~" + id // backend-only, fetched over the bridge
		}
		iter := "-"
		if e.Iterations > 0 {
			iter = strconv.Itoa(e.Iterations)
		}
		stop := e.StopReason
		if stop == "" {
			stop = "-"
		}
		table.AddRow(id, iter, stop)
	}
	table.Cursor = m.runCursor

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Runs"))
	b.WriteString("\n")
	b.WriteString(table.View(m.styles, w))
	if m.runCursor >= 0 && m.runCursor < len(entries) && entries[m.runCursor].Goal != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render(format.Truncate(entries[m.runCursor].Goal, w)))
	}
	return b.String()
}

// renderViz stacks the playback panels.
func (m Model) renderViz(w int) string {
	sections := []string{
		m.renderTransport(w),
		m.renderWave(w),
		m.renderPrism(w),
		m.renderStats(w),
		m.renderDAG(w),
	}
	if m.layout.TerminalHeight >= 34 {
		sections = append(sections, m.renderRing(w, 9))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderTransport renders the playback control line.
func (m Model) renderTransport(w int) string {
	snap := m.snapshot

	icon := "■"
	switch {
	case snap.Running && !snap.Paused:
		icon = "▶"
	case snap.Paused:
		icon = "⏸"
	}

	mode := m.styles.Badge.Render(snap.Mode.String())
	pos := fmt.Sprintf("%d/%d", snap.Index+1, snap.Count)
	if snap.Count == 0 {
		pos = "-/-"
	}
	speed := fmt.Sprintf("%gx", snap.Speed)

	barW := w - lipgloss.Width(icon) - lipgloss.Width(mode) -
		lipgloss.Width(pos) - lipgloss.Width(speed) - 8
	bar := ""
	if barW >= 4 {
		bar = progressBar(snap.Progress, barW)
	}

	return strings.Join([]string{icon, mode, pos, bar, speed}, "  ")
}

// renderWave renders the resonance spring: score history as a
// sparkline plus where the spring sits against its target.
func (m Model) renderWave(w int) string {
	var b strings.Builder
	b.WriteString(m.styles.Subtitle.Render("Resonance"))
	b.WriteString("\n")
	b.WriteString(sparkline(m.wave.History(), m.wave.Scale(), w))
	b.WriteString("\n")

	state := fmt.Sprintf("%.2f → %.2f", m.wave.Value(), m.wave.Target())
	if m.wave.Settled() {
		state += "  " + m.styles.Success.Render("settled")
	}
	b.WriteString(m.styles.Muted.Render(state))
	return b.String()
}

// renderPrism renders the candidate fracture for the current
// iteration: lanes reveal left to right, scores land, one converges.
func (m Model) renderPrism(w int) string {
	view := m.prism.View()
	scale := m.wave.Scale()

	var b strings.Builder
	b.WriteString(m.styles.Subtitle.Render("Prism"))
	b.WriteString("  ")
	b.WriteString(m.styles.Muted.Render(view.Phase.String()))
	b.WriteString("\n")

	if len(view.Candidates) == 0 {
		b.WriteString(m.styles.Muted.Render("single-path iteration"))
		return b.String()
	}

	n := len(view.Candidates)
	for i, c := range view.Candidates {
		if i >= view.Visible {
			b.WriteString(m.styles.Muted.Render("  ·"))
			b.WriteString("\n")
			continue
		}
		label := c.Label
		if label == "" {
			label = c.ID
		}
		lane := lipgloss.NewStyle().Foreground(ui.SpectrumColor(i, n)).Render("▍ " + label)
		if i < view.Scored {
			lane += lipgloss.NewStyle().
				Foreground(ui.ScoreColor(c.Score, scale)).
				Render(fmt.Sprintf("  %.1f", c.Score))
		}
		if i == view.Winner {
			lane += "  " + m.styles.Success.Render("◆")
		}
		b.WriteString(format.Truncate(lane, w))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderStats renders the convergence numbers up to the pointer.
func (m Model) renderStats(w int) string {
	s := m.stats

	var b strings.Builder
	b.WriteString(m.styles.Subtitle.Render("Convergence"))
	b.WriteString("\n")
	if s.Count == 0 {
		b.WriteString(m.styles.Muted.Render("no iterations yet"))
		return b.String()
	}

	line := fmt.Sprintf("n=%d  mean=%.2f  σ=%.2f  best=%.2f@%d  Δ=%+.2f",
		s.Count, s.Mean, s.StdDev, s.Best, s.BestIndex, s.Delta)
	b.WriteString(format.Truncate(line, w))

	cur := m.snapshot.Current
	if len(cur.Gates) > 0 {
		b.WriteString("\n")
		b.WriteString(format.Truncate(m.renderGates(cur), w))
	}
	if cur.Improvement != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render(format.Truncate(cur.Improvement, w)))
	}
	return b.String()
}

// renderGates renders the current iteration's gate results in a stable
// order.
func (m Model) renderGates(it playback.Iteration) string {
	names := make([]string, 0, len(it.Gates))
	for name := range it.Gates {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		if it.Gates[name] {
			parts = append(parts, m.styles.Success.Render(name+"✓"))
		} else {
			parts = append(parts, m.styles.Error.Render(name+"✗"))
		}
	}
	return strings.Join(parts, " ")
}

// renderDAG renders the workflow layers with the pointer's node lit.
func (m Model) renderDAG(w int) string {
	if len(m.layers) == 0 {
		return ""
	}
	active := observatory.ActiveNode(m.layers, m.snapshot.Index)
	labels := nodeLabels(m.graphNodes)

	var parts []string
	for _, layer := range m.layers {
		names := make([]string, 0, len(layer))
		for _, id := range layer {
			name := labels[id]
			if id == active {
				name = m.styles.Badge.Render(name)
			} else {
				name = m.styles.Muted.Render(name)
			}
			names = append(names, name)
		}
		parts = append(parts, strings.Join(names, " "))
	}

	var b strings.Builder
	b.WriteString(m.styles.Subtitle.Render("Pipeline"))
	b.WriteString("\n")
	b.WriteString(format.Truncate(strings.Join(parts, " → "), w))
	return b.String()
}

// renderRing plots the knowledge graph on a ring. Only drawn when the
// terminal is tall enough to spare the rows.
func (m Model) renderRing(w, h int) string {
	if len(m.ringNodes) == 0 || w < 16 || h < 5 {
		return ""
	}
	pos := observatory.RingLayout(m.ringNodes)
	labels := nodeLabels(m.ringNodes)

	grid := make([][]rune, h)
	for y := range grid {
		grid[y] = make([]rune, w)
		for x := range grid[y] {
			grid[y][x] = ' '
		}
	}
	for _, n := range m.ringNodes {
		p := pos[n.ID]
		x := int(p.X * float64(w-1))
		y := int(p.Y * float64(h-1))
		for i, r := range labels[n.ID] {
			if x+i >= w {
				break
			}
			grid[y][x+i] = r
		}
	}

	var b strings.Builder
	b.WriteString(m.styles.Subtitle.Render(
		fmt.Sprintf("Graph  %d nodes, %d edges", len(m.ringNodes), len(m.ringEdges))))
	for _, row := range grid {
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render(strings.TrimRight(string(row), " ")))
	}
	return b.String()
}

// nodeLabels maps node ids to display labels, falling back to the id.
func nodeLabels(nodes []observatory.Node) map[string]string {
	out := make(map[string]string, len(nodes))
	for _, n := range nodes {
		if n.Label != "" {
			out[n.ID] = n.Label
		} else {
			out[n.ID] = n.ID
		}
	}
	return out
}

// sparkline renders score history as level blocks colored by value.
func sparkline(history []float64, scale float64, width int) string {
	if len(history) == 0 {
		return ""
	}
	if width > 0 && len(history) > width {
		history = history[len(history)-width:]
	}
	levels := []rune("▁▂▃▄▅▆▇█")

	var b strings.Builder
	for _, v := range history {
		frac := v / scale
		if frac < 0 {
			frac = 0
		}
		if frac > 1 {
			frac = 1
		}
		idx := int(frac*float64(len(levels)-1) + 0.5)
		b.WriteString(lipgloss.NewStyle().
			Foreground(ui.ScoreColor(v, scale)).
			Render(string(levels[idx])))
	}
	return b.String()
}
