package board

import (
	"fmt"
	"math"
	"path/filepath"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"prismdeck/cmd/deck/ui"
	"prismdeck/internal/blocks"
	"prismdeck/internal/logging"
	"prismdeck/internal/observatory"
	"prismdeck/internal/playback"
	"prismdeck/internal/store"
)

// waveSpan is how many resonance samples the sparkline keeps.
const waveSpan = 48

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		// The first size paints immediately so the board never sits on
		// a blank alt screen waiting out the debounce window. Later
		// sizes coalesce through the debouncer; its handler fires on a
		// timer goroutine, so it posts a message instead of touching
		// the model.
		if !m.ready {
			m.applySize(msg.Width, msg.Height)
			m.ready = true
			return m, nil
		}
		ch := m.resizeCh
		m.resizeDeb.Resize(msg.Width, msg.Height, func(w, h int) {
			select {
			case ch <- resizedMsg{width: w, height: h}:
			default:
			}
		})
		return m, nil

	case resizedMsg:
		m.applySize(msg.width, msg.height)
		return m, m.waitForResize()

	case statusMsg:
		m.statusMessage = string(msg)
		return m, m.waitForStatus() // Listen for next update

	case errorMsg:
		m.err = msg
		return m, nil

	case storeEventMsg:
		ev := store.Event(msg)
		if ev.Type == store.EventActionDispatched {
			m.forwardAction(ev.Action, ev.Subject, ev.Payload)
		}
		return m, m.waitForStoreEvent()

	case snapshotMsg:
		return m.handleSnapshot(playback.Snapshot(msg))

	case watchMsg:
		return m.handleWatch(observatory.WatchEvent(msg))

	case frameMsg:
		// The frame clock only runs while the observatory page is
		// visible; leaving the page lets the chain die here.
		if m.viewMode != ObservatoryView {
			m.framesOn = false
			return m, nil
		}
		m.framesOn = true
		m.wave.Step()
		return m, m.tickFrame()

	case connectedMsg:
		m.connecting = false
		if msg.err != nil {
			m.offline = true
			m.log.Warn("Backend handshake failed: %v", msg.err)
			m.statusMessage = "Offline: showing sample data"
			return m, nil
		}
		m.offline = false
		m.statusMessage = fmt.Sprintf("Connected to %s", msg.server)
		return m, tea.Batch(m.fetchBlocks(), m.listRuns())

	case blocksFetchedMsg:
		for kind, raw := range msg {
			m.applyPayload(kind, raw)
		}
		return m, nil

	case runsListedMsg:
		m.recordings = msg.paths
		m.runs = msg.runs
		n := len(m.runEntries())
		switch {
		case n == 0:
			m.runCursor = -1
		case m.runCursor < 0:
			m.runCursor = 0
		case m.runCursor >= n:
			m.runCursor = n - 1
		}
		return m, nil

	case recordingLoadedMsg:
		return m.handleRecordingLoaded(msg)

	case spinner.TickMsg:
		if m.connecting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

// applySize recomputes the layout for a new terminal size and drops
// every cached card render.
func (m *Model) applySize(w, h int) {
	m.width = w
	m.height = h
	m.layout = ui.NewLayoutConfig(w, h)

	wrap := m.layout.ContentWidth() - 2*ui.CardPaddingH
	if wrap < 20 {
		wrap = 20
	}
	if r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	); err == nil {
		m.renderer = r
	}

	for _, c := range m.cardCache {
		c.Invalidate()
	}
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The palette overlay captures every key while open.
	if m.showPalette {
		return m.handlePaletteKey(msg)
	}

	// Global keybindings (Ctrl+C, Esc, palette)
	switch msg.Type {
	case tea.KeyCtrlC:
		m.performShutdown()
		return m, tea.Quit

	case tea.KeyEsc:
		switch m.viewMode {
		case BlockView:
			m.viewMode = DeckView
			m.store.ResetSlice(store.SliceDocument)
			return m, nil
		case ObservatoryView:
			m.viewMode = DeckView
			return m, nil
		}
		m.performShutdown()
		return m, tea.Quit
	}

	switch msg.String() {
	case "ctrl+p", "/":
		return m.openPalette()
	}

	switch m.viewMode {
	case BlockView:
		return m.handleBlockKey(msg)
	case ObservatoryView:
		return m.handleObservatoryKey(msg)
	}
	return m.handleDeckKey(msg)
}

// handleDeckKey navigates the card grid.
func (m Model) handleDeckKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.performShutdown()
		return m, tea.Quit

	case "o":
		return m.openObservatory()

	case "r":
		if !m.offline {
			m.statusMessage = "Refreshing blocks"
			return m, m.fetchBlocks()
		}

	case "tab", "right", "l":
		m.focused = (m.focused + 1) % len(m.order)

	case "shift+tab", "left", "h":
		m.focused = (m.focused - 1 + len(m.order)) % len(m.order)

	case "down", "j":
		if cols := m.gridColumns(); m.focused+cols < len(m.order) {
			m.focused += cols
		}

	case "up", "k":
		if cols := m.gridColumns(); m.focused-cols >= 0 {
			m.focused -= cols
		}

	case "enter":
		return m.openBlock(m.order[m.focused])

	case "1", "2", "3", "4", "5", "6", "7":
		if idx := int(msg.String()[0] - '1'); idx < len(m.order) {
			return m.openBlock(m.order[idx])
		}
	}
	return m, nil
}

// handleBlockKey drives a single block page: cursor movement, lens
// cycling and the block's gestures.
func (m Model) handleBlockKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.viewMode = DeckView
		m.store.ResetSlice(store.SliceDocument)
		return m, nil

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case "down", "j":
		if m.cursor+1 < len(m.rowsFor(m.activeBlock)) {
			m.cursor++
		}
		return m, nil

	case "l":
		m.cycleLens(m.activeBlock)
		return m, nil
	}

	return m.handleGesture(msg)
}

// handleGesture maps the remaining keys onto the active block's
// actions. Blocks dispatch intents; they never mutate their payloads.
func (m Model) handleGesture(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rows := m.rowsFor(m.activeBlock)
	if m.cursor < 0 || m.cursor >= len(rows) {
		return m, nil
	}
	id := rows[m.cursor].ID
	if id == "" {
		return m, nil
	}

	key := msg.String()
	switch m.activeBlock {
	case blocks.KindHabits:
		if key == "t" || key == "enter" || key == " " {
			m.habits.Toggle(id)
		}
	case blocks.KindCalendar:
		if key == "o" || key == "enter" {
			m.calendar.Open(id)
		}
	case blocks.KindContacts:
		if key == "o" || key == "enter" {
			m.contacts.Open(id)
		}
	case blocks.KindFiles:
		if key == "o" || key == "enter" {
			m.files.Open(id)
		}
	case blocks.KindProjects:
		if key == "o" || key == "enter" {
			m.projects.Open(id)
		}
	case blocks.KindGitStatus:
		switch key {
		case "s":
			m.git.Stage(id)
		case "u":
			m.git.Unstage(id)
		}
	case blocks.KindConversation:
		if key == "y" {
			m.conversation.Copy(id)
		}
	}
	return m, nil
}

// handleObservatoryKey drives playback and the run picker.
func (m Model) handleObservatoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.viewMode = DeckView
		return m, nil

	case " ":
		snap := m.snapshot
		switch {
		case !snap.Running:
			m.sequencer.Start()
			m.auditPlayback(logging.AuditPlaybackStart)
		case snap.Paused:
			m.sequencer.Resume()
		default:
			m.sequencer.Pause()
		}

	case "left", "h":
		m.sequencer.ScrubTo(m.snapshot.Index - 1)

	case "right", "l":
		m.sequencer.ScrubTo(m.snapshot.Index + 1)

	case "home":
		m.sequencer.ScrubTo(0)

	case "end":
		m.sequencer.ScrubTo(m.snapshot.Count - 1)

	case "+", "=":
		m.sequencer.SetSpeed(m.steppedSpeed(1))

	case "-", "_":
		m.sequencer.SetSpeed(m.steppedSpeed(-1))

	case "g":
		m.sequencer.GoLive()
		m.auditPlayback(logging.AuditPlaybackGoLive)

	case "s":
		m.sequencer.Stop()
		m.auditPlayback(logging.AuditPlaybackStop)

	case "up", "k":
		if m.runCursor > 0 {
			m.runCursor--
		}

	case "down", "j":
		if m.runCursor+1 < len(m.runEntries()) {
			m.runCursor++
		}

	case "enter":
		entries := m.runEntries()
		if m.runCursor < 0 || m.runCursor >= len(entries) {
			break
		}
		if e := entries[m.runCursor]; e.Path != "" {
			return m, loadRecordingCmd(e.Path)
		} else if !m.offline {
			return m, m.fetchRunCmd(e.ID)
		}

	case "r":
		return m, m.listRuns()
	}
	return m, nil
}

// =============================================================================
// PAGE TRANSITIONS
// =============================================================================

// openBlock switches to the full page for kind and records it as the
// open document.
func (m Model) openBlock(kind blocks.Kind) (tea.Model, tea.Cmd) {
	m.viewMode = BlockView
	m.activeBlock = kind
	m.cursor = 0
	for i, k := range m.order {
		if k == kind {
			m.focused = i
		}
	}
	m.store.SetDocument(string(kind), title(kind))
	return m, nil
}

// openObservatory switches to the observatory page and starts the
// frame clock. Without a loaded recording it replays the bundled
// sample run so the page is never empty.
func (m Model) openObservatory() (tea.Model, tea.Cmd) {
	m.viewMode = ObservatoryView

	var cmds []tea.Cmd
	if !m.framesOn {
		m.framesOn = true
		cmds = append(cmds, m.tickFrame())
	}

	if m.recording == nil {
		switch {
		case m.recPath != "":
			cmds = append(cmds, loadRecordingCmd(m.recPath))
		case len(m.recordings) > 0:
			cmds = append(cmds, loadRecordingCmd(m.recordings[0]))
		default:
			m.installRecording("", observatory.SampleRecording())
		}
	}
	return m, tea.Batch(cmds...)
}

// =============================================================================
// PLAYBACK
// =============================================================================

// handleSnapshot folds one sequencer update into the page state.
func (m Model) handleSnapshot(snap playback.Snapshot) (tea.Model, tea.Cmd) {
	prev := m.snapshot
	m.snapshot = snap
	m.wave.SetTarget(snap.Score)

	if m.recording != nil {
		m.stats = observatory.ComputeStats(m.recording.Iterations, snap.Index)
		m.store.SetWorkflowStatus(m.recording.Run.ID, playbackStatus(snap), snap.Index+1, snap.Count)
	}

	// A pointer move re-fractures the iteration's candidate lanes.
	if snap.Index != prev.Index || snap.Count != prev.Count {
		if cands := snap.Current.Candidates; len(cands) > 0 {
			m.prism.SetCandidates(cands)
			m.prism.Begin()
		} else {
			m.prism.SetCandidates(nil)
		}
	}

	return m, m.waitForSnapshot()
}

// playbackStatus names the sequencer state for the workflow slice.
func playbackStatus(s playback.Snapshot) string {
	switch {
	case s.Mode == playback.ModeLive:
		return "live"
	case s.Paused:
		return "paused"
	case s.Running:
		return "replaying"
	default:
		return "idle"
	}
}

// steppedSpeed returns the configured speed one step away from the
// current one in the given direction.
func (m Model) steppedSpeed(dir int) float64 {
	steps := m.speedSteps
	if len(steps) == 0 {
		return m.snapshot.Speed
	}
	best := 0
	for i, s := range steps {
		if math.Abs(s-m.snapshot.Speed) < math.Abs(steps[best]-m.snapshot.Speed) {
			best = i
		}
	}
	best += dir
	if best < 0 {
		best = 0
	}
	if best >= len(steps) {
		best = len(steps) - 1
	}
	return steps[best]
}

func (m Model) auditPlayback(event logging.AuditEventType) {
	logging.Audit().PlaybackEvent(event, m.runID(), m.snapshot.Index, m.snapshot.Count)
}

func (m Model) runID() string {
	if m.recording == nil {
		return ""
	}
	return m.recording.Run.ID
}

// installRecording makes rec the replayed run: sequencer reloaded and
// restarted from the top, wave rescaled to the run's score scale, and
// the store's observatory slice rebuilt under the new run id.
func (m *Model) installRecording(path string, rec *observatory.Recording) {
	m.recording = rec
	m.recPath = path

	m.sequencer.Stop()
	m.sequencer.SetIterations(rec.Iterations)
	m.sequencer.ScrubTo(0)

	m.wave = observatory.NewWave(rec.Scale(), waveSpan)
	m.prism.SetCandidates(nil)
	m.stats = observatory.ComputeStats(rec.Iterations, 0)

	for _, it := range rec.Iterations {
		m.store.RecordIteration(rec.Run.ID, it.Score)
	}
	m.store.SetStopReason(rec.Run.StopReason)

	m.sequencer.Start()
}

// handleRecordingLoaded merges a (re)loaded recording. A grown file for
// the run already on screen feeds the sequencer its new tail, so live
// mode follows; anything else replaces the run outright.
func (m Model) handleRecordingLoaded(msg recordingLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.log.Warn("Recording rejected: %v", msg.err)
		m.statusMessage = fmt.Sprintf("Rejected: %v", msg.err)
		return m, nil
	}

	rec := msg.rec
	sameRun := m.recording != nil && msg.path == m.recPath &&
		rec.Run.ID == m.recording.Run.ID &&
		len(rec.Iterations) >= len(m.recording.Iterations)

	if sameRun {
		added := rec.Iterations[len(m.recording.Iterations):]
		for _, it := range added {
			m.sequencer.Append(it)
			m.store.RecordIteration(rec.Run.ID, it.Score)
		}
		m.recording = rec
		m.store.SetStopReason(rec.Run.StopReason)
		if len(added) > 0 {
			m.statusMessage = fmt.Sprintf("%d new iterations", len(added))
		}
		return m, nil
	}

	m.installRecording(msg.path, rec)
	m.statusMessage = fmt.Sprintf("Loaded %s: %d iterations", filepath.Base(msg.path), len(rec.Iterations))
	return m, nil
}

// handleWatch reacts to a settled recording file change. The active
// file reloads in place; anything else just refreshes the run picker.
func (m Model) handleWatch(ev observatory.WatchEvent) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.waitForWatch()}

	switch {
	case ev.Removed && ev.Path == m.recPath:
		// Keep replaying the in-memory copy; it just can't reload.
		m.statusMessage = fmt.Sprintf("%s removed", filepath.Base(ev.Path))
		cmds = append(cmds, m.listRuns())

	case ev.Path == m.recPath:
		cmds = append(cmds, loadRecordingCmd(ev.Path))

	default:
		cmds = append(cmds, m.listRuns())
	}
	return m, tea.Batch(cmds...)
}

// =============================================================================
// LENSES
// =============================================================================

// cycleLens advances kind's lens: none, then each configured lens in
// order, then none again. Lenses that fail to compile are skipped with
// a status note.
func (m *Model) cycleLens(kind blocks.Kind) {
	defs := m.lensesFor[kind]
	if len(defs) == 0 {
		m.statusMessage = fmt.Sprintf("No lenses for %s", title(kind))
		return
	}

	next := m.activeLens[kind] + 1
	for next < len(defs) {
		err := m.lenses.Check(defs[next].Filter)
		if err == nil {
			break
		}
		m.log.Warn("Lens %q rejected: %v", defs[next].Name, err)
		next++
	}

	if next >= len(defs) {
		m.activeLens[kind] = -1
		m.store.ClearLens()
		m.statusMessage = "Lens cleared"
	} else {
		m.activeLens[kind] = next
		def := defs[next]
		m.store.SetLens(string(kind), def.Name, def.Filter)
		m.statusMessage = fmt.Sprintf("Lens: %s", def.Name)
	}
	m.cursor = 0
}

// activeLensFilter returns the compiled-checkable filter source for
// kind, or "" when no lens is active.
func (m Model) activeLensFilter(kind blocks.Kind) string {
	idx, ok := m.activeLens[kind]
	if !ok || idx < 0 {
		return ""
	}
	defs := m.lensesFor[kind]
	if idx >= len(defs) {
		return ""
	}
	return defs[idx].Filter
}

func (m Model) gridColumns() int {
	return m.layout.GridColumns(m.cfg.UI.GridColumns)
}
