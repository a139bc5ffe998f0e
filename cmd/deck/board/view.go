package board

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"prismdeck/cmd/deck/ui"
	"prismdeck/internal/format"
	"prismdeck/internal/observatory"
)

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	if m.width < ui.MinimumTerminalWidth || m.height < ui.MinimumTerminalHeight {
		return m.renderTooSmall()
	}

	if m.showPalette {
		return m.renderPalette()
	}

	var page string
	switch m.viewMode {
	case BlockView:
		page = m.renderBlockPage()
	case ObservatoryView:
		page = m.renderObservatory()
	default:
		page = m.renderDeck()
	}

	sections := []string{m.renderHeader(), page}
	if m.cfg.UI.ShowStatusLine {
		sections = append(sections, m.renderStatusLine())
	}
	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderTooSmall asks for a bigger terminal instead of painting a
// scrambled layout.
func (m Model) renderTooSmall() string {
	msg := fmt.Sprintf("Terminal too small\nNeed %dx%d, have %dx%d",
		ui.MinimumTerminalWidth, ui.MinimumTerminalHeight, m.width, m.height)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
		m.styles.Warning.Render(msg))
}

// =============================================================================
// CHROME
// =============================================================================

func (m Model) renderHeader() string {
	left := m.styles.Header.Render("PRISM DECK") + " " + m.styles.Badge.Render(m.pageName())

	var status string
	switch {
	case m.connecting:
		status = m.spinner.View() + " " + m.styles.Muted.Render("connecting")
	case m.offline:
		status = m.styles.Warning.Render("● offline")
	default:
		status = m.styles.Success.Render("● online")
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(status)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + status
}

// pageName names the visible page for the header badge.
func (m Model) pageName() string {
	switch m.viewMode {
	case BlockView:
		return title(m.activeBlock)
	case ObservatoryView:
		return "Observatory"
	default:
		return "Deck"
	}
}

// renderStatusLine shows shared state: the open document and lens on
// deck pages, the playback state on the observatory.
func (m Model) renderStatusLine() string {
	var parts []string

	if m.viewMode == ObservatoryView {
		snap := m.snapshot
		parts = append(parts, "mode:"+snap.Mode.String())
		if run := m.runID(); run != "" {
			parts = append(parts, "run:"+run)
		}
		if snap.Count > 0 {
			parts = append(parts, fmt.Sprintf("iter:%d/%d", snap.Index+1, snap.Count))
		}
		parts = append(parts, fmt.Sprintf("speed:%gx", snap.Speed))
		if m.recording != nil {
			if r := m.recording.StopReason(); r != observatory.StopReasonNone {
				parts = append(parts, "stop:"+r.Label())
			}
		}
	} else {
		st := m.store.State()
		if st.Document.Path != "" {
			doc := "doc:" + st.Document.Title
			if st.Document.Dirty {
				doc += "*"
			}
			parts = append(parts, doc)
		}
		if st.Lens.Name != "" {
			parts = append(parts, "lens:"+st.Lens.Name)
		}
		if st.Workflow.Status != "" {
			parts = append(parts, "workflow:"+st.Workflow.Status)
		}
	}

	if m.statusMessage != "" {
		parts = append(parts, m.statusMessage)
	}
	return m.styles.Muted.Render(format.Truncate(strings.Join(parts, " | "), m.width))
}

func (m Model) renderFooter() string {
	hints := m.styles.KeyHint.Render(m.keyHints())
	clock := m.styles.Muted.Render(time.Now().Format("15:04"))

	gap := m.width - lipgloss.Width(hints) - lipgloss.Width(clock)
	if gap < 1 {
		gap = 1
	}
	return m.styles.Footer.Render(hints + strings.Repeat(" ", gap) + clock)
}

// keyHints lists the keys that matter on the visible page.
func (m Model) keyHints() string {
	switch m.viewMode {
	case BlockView:
		return "↑/↓ move | l lens | " + gestureHint(m.activeBlock) + " | esc back"
	case ObservatoryView:
		return "space play | ←/→ scrub | +/- speed | g live | s stop | ↑/↓ runs | esc back"
	default:
		return "↑↓←→ focus | enter open | o observatory | / palette | q quit"
	}
}

// safeRenderMarkdown renders markdown, falling back to the raw text
// when the renderer is missing or panics on malformed input.
func (m Model) safeRenderMarkdown(content string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Warn("Markdown render panic: %v", r)
			out = content
		}
	}()

	if m.renderer == nil {
		return content
	}
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}
