package board

import (
	"encoding/json"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"prismdeck/internal/blocks"
	"prismdeck/internal/config"
	"prismdeck/internal/logging"
	"prismdeck/internal/observatory"
)

// framePeriod paces the spring and fracture animations. The wave is
// tuned for 60fps; ticking at that rate keeps its timing honest.
const framePeriod = time.Second / 60

// Shutdown stops all background goroutines and releases resources.
// Safe to call multiple times - only executes once.
// MUST be called before tea.Quit to prevent goroutine leaks.
func (m *Model) Shutdown() {
	m.shutdownOnce.Do(func() {
		if m.shutdownCancel != nil {
			m.shutdownCancel()
		}

		// Cancel the store subscription before the channel readers go.
		if m.storeStop != nil {
			m.storeStop()
		}

		if m.watcher != nil {
			m.watcher.Stop()
		}

		// Dispose closes the snapshot channel, ending its listener.
		if m.sequencer != nil {
			m.sequencer.Dispose()
		}

		if m.bridge != nil {
			if err := m.bridge.Close(); err != nil {
				m.log.Warn("Bridge close: %v", err)
			}
		}

		// Close status channel to unblock waitForStatus
		// Set to nil after close to prevent sends on closed channel
		if m.statusChan != nil {
			close(m.statusChan)
			m.statusChan = nil
		}

		m.resizeDeb.Cancel()
	})
}

// performShutdown is a value-receiver wrapper for Shutdown() that can
// be called from Update(). Safe because Shutdown uses sync.Once
// through a shared pointer.
func (m Model) performShutdown() {
	modelPtr := &m
	modelPtr.Shutdown()
}

// ReportStatus sends a non-blocking status update
func (m Model) ReportStatus(msg string) {
	if m.statusChan != nil {
		select {
		case m.statusChan <- msg:
		default:
			// Channel full, drop update to prevent blocking
		}
	}
}

// waitForStatus listens for status updates
func (m Model) waitForStatus() tea.Cmd {
	return func() tea.Msg {
		return statusMsg(<-m.statusChan)
	}
}

// waitForStoreEvent listens for shared-state changes and forwarded
// gestures. The subscription channel never closes; after shutdown the
// goroutine parks until the program exits.
func (m Model) waitForStoreEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.storeCh
		if !ok {
			return nil
		}
		return storeEventMsg(ev)
	}
}

// waitForSnapshot listens for sequencer state changes.
func (m Model) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-m.sequencer.Updates()
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

// waitForWatch listens for settled recording changes.
func (m Model) waitForWatch() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-m.watcher.Events()
		if !ok {
			return nil
		}
		return watchMsg(ev)
	}
}

// waitForResize listens for debounced terminal sizes.
func (m Model) waitForResize() tea.Cmd {
	return func() tea.Msg {
		return <-m.resizeCh
	}
}

// tickFrame schedules the next animation frame.
func (m Model) tickFrame() tea.Cmd {
	return tea.Tick(framePeriod, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// startWatcher brings up the recordings watcher and begins listening.
func (m Model) startWatcher() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	if err := m.watcher.Start(m.shutdownCtx); err != nil {
		m.log.Warn("Recordings watcher start: %v", err)
		return nil
	}
	return m.waitForWatch()
}

// connectBridge performs the backend handshake off the UI loop.
func (m Model) connectBridge() tea.Cmd {
	if m.bridge == nil {
		return nil
	}
	ctx := m.shutdownCtx
	b := m.bridge
	return func() tea.Msg {
		if err := b.Connect(ctx); err != nil {
			return connectedMsg{err: err}
		}
		return connectedMsg{server: b.ServerName()}
	}
}

// fetchBlocks pulls every block payload from the backend.
func (m Model) fetchBlocks() tea.Cmd {
	if m.bridge == nil {
		return nil
	}
	ctx := m.shutdownCtx
	b := m.bridge
	kinds := m.order
	return func() tea.Msg {
		return blocksFetchedMsg(b.FetchAll(ctx, kinds))
	}
}

// listRuns gathers the run picker entries: recordings on disk plus,
// when connected, the backend's run index.
func (m Model) listRuns() tea.Cmd {
	dir := m.cfg.ResolveRecordingsDir(m.home)
	b := m.bridge
	ctx := m.shutdownCtx
	return func() tea.Msg {
		msg := runsListedMsg{}
		paths, err := observatory.ListRecordings(dir)
		if err != nil {
			logging.Get(logging.CategoryObservatory).Warn("List recordings: %v", err)
		}
		msg.paths = paths
		if b != nil && b.Connected() {
			runs, err := b.ListRuns(ctx)
			if err != nil {
				logging.Get(logging.CategoryBridge).Warn("List runs: %v", err)
			}
			msg.runs = runs
		}
		return msg
	}
}

// loadRecordingCmd parses one recording file off the UI loop.
func loadRecordingCmd(path string) tea.Cmd {
	return func() tea.Msg {
		rec, err := observatory.LoadRecording(path)
		return recordingLoadedMsg{path: path, rec: rec, err: err}
	}
}

// Init starts the background listeners and the initial data loads.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		m.waitForStatus(),
		m.waitForStoreEvent(),
		m.waitForSnapshot(),
		m.waitForResize(),
		m.startWatcher(),
		m.connectBridge(),
		m.listRuns(),
	}
	if m.recPath != "" {
		cmds = append(cmds, loadRecordingCmd(m.recPath))
	}
	if m.viewMode == ObservatoryView {
		cmds = append(cmds, m.tickFrame())
	}
	return tea.Batch(cmds...)
}

// Run starts the interactive board session and blocks until it exits.
func Run(cfg *config.Config, home string, opts Options) error {
	sessionID := uuid.NewString()
	started := time.Now()
	logging.Audit().SessionStart(sessionID)
	defer func() {
		logging.Audit().SessionEnd(sessionID, time.Since(started).Milliseconds())
	}()

	model := New(cfg, home, opts)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	model.Shutdown()
	return err
}

// forwardAction relays a block gesture to the backend. Offline decks
// only log it; the UI state was already updated optimistically.
func (m Model) forwardAction(action, subject string, payload map[string]any) {
	if m.bridge == nil || !m.bridge.Connected() {
		m.log.Debug("Gesture %s on %s (offline, not forwarded)", action, subject)
		return
	}
	m.bridge.Dispatcher()(action, subject, payload)
}

// applyPayload decodes one backend payload into its block. Bad
// payloads keep the previous content.
func (m *Model) applyPayload(kind blocks.Kind, raw []byte) {
	var err error
	switch kind {
	case blocks.KindHabits:
		var p blocks.HabitsPayload
		if err = json.Unmarshal(raw, &p); err == nil {
			m.habits.SetPayload(p)
		}
	case blocks.KindCalendar:
		var p blocks.CalendarPayload
		if err = json.Unmarshal(raw, &p); err == nil {
			m.calendar.SetPayload(p)
		}
	case blocks.KindContacts:
		var p blocks.ContactsPayload
		if err = json.Unmarshal(raw, &p); err == nil {
			m.contacts.SetPayload(p)
		}
	case blocks.KindFiles:
		var p blocks.FilesPayload
		if err = json.Unmarshal(raw, &p); err == nil {
			m.files.SetPayload(p)
		}
	case blocks.KindProjects:
		var p blocks.ProjectsPayload
		if err = json.Unmarshal(raw, &p); err == nil {
			m.projects.SetPayload(p)
		}
	case blocks.KindGitStatus:
		var p blocks.GitStatusPayload
		if err = json.Unmarshal(raw, &p); err == nil {
			m.git.SetPayload(p)
		}
	case blocks.KindConversation:
		var p blocks.ConversationPayload
		if err = json.Unmarshal(raw, &p); err == nil {
			m.conversation.SetPayload(p)
		}
	}
	if err != nil {
		m.log.Warn("Payload for %s rejected: %v", kind, err)
		return
	}
	m.cardCache[kind].Invalidate()
}
