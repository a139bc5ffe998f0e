// Package board test utilities: model builders, fixtures and helpers
// shared by the update, view and palette tests.
package board

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"prismdeck/internal/blocks"
	"prismdeck/internal/config"
	"prismdeck/internal/observatory"
	"prismdeck/internal/playback"
	"prismdeck/internal/store"
)

// =============================================================================
// TEST MODEL BUILDER
// =============================================================================

// TestModelOption configures a test model.
type TestModelOption func(*Model)

// NewTestModel builds an offline board over the default configuration
// and a temp home, sized so the deck page renders. Cleanup releases the
// watcher, sequencer and channels the constructor created.
func NewTestModel(t *testing.T, opts ...TestModelOption) Model {
	t.Helper()

	m := New(config.DefaultConfig(), t.TempDir(), Options{})
	m.applySize(100, 40)
	m.ready = true

	for _, opt := range opts {
		opt(&m)
	}

	t.Cleanup(m.Shutdown)
	return m
}

// WithViewMode sets the visible page.
func WithViewMode(mode ViewMode) TestModelOption {
	return func(m *Model) {
		m.viewMode = mode
	}
}

// WithSize sets the terminal dimensions.
func WithSize(width, height int) TestModelOption {
	return func(m *Model) {
		m.applySize(width, height)
	}
}

// WithUnsized rewinds the model to the state before the first
// WindowSizeMsg.
func WithUnsized() TestModelOption {
	return func(m *Model) {
		m.ready = false
		m.width = 0
		m.height = 0
	}
}

// WithBlock opens the full page for one block.
func WithBlock(kind blocks.Kind) TestModelOption {
	return func(m *Model) {
		m.viewMode = BlockView
		m.activeBlock = kind
		m.cursor = 0
	}
}

// WithRecording installs a recording as the replayed run, as if it had
// been loaded from path.
func WithRecording(path string, rec *observatory.Recording) TestModelOption {
	return func(m *Model) {
		m.installRecording(path, rec)
	}
}

// =============================================================================
// MESSAGE FIXTURES
// =============================================================================

// TestKeys provides common key fixtures for testing.
var TestKeys = struct {
	Enter tea.Msg
	Esc   tea.Msg
	CtrlC tea.Msg
	Tab   tea.Msg
	Up    tea.Msg
	Down  tea.Msg
	Left  tea.Msg
	Right tea.Msg
	Home  tea.Msg
	End   tea.Msg
	Space tea.Msg
}{
	Enter: tea.KeyMsg{Type: tea.KeyEnter},
	Esc:   tea.KeyMsg{Type: tea.KeyEsc},
	CtrlC: tea.KeyMsg{Type: tea.KeyCtrlC},
	Tab:   tea.KeyMsg{Type: tea.KeyTab},
	Up:    tea.KeyMsg{Type: tea.KeyUp},
	Down:  tea.KeyMsg{Type: tea.KeyDown},
	Left:  tea.KeyMsg{Type: tea.KeyLeft},
	Right: tea.KeyMsg{Type: tea.KeyRight},
	Home:  tea.KeyMsg{Type: tea.KeyHome},
	End:   tea.KeyMsg{Type: tea.KeyEnd},
	Space: tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}},
}

// MakeKeyMsg creates a key message from a string (e.g. "q", "3", "/").
func MakeKeyMsg(key string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

// SimulateMessages sends messages through Update and returns the final
// model.
func SimulateMessages(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		newModel, _ := m.Update(msg)
		m = newModel.(Model)
	}
	return m
}

// SimulateTyping sends each rune of input as its own key message, so
// per-keystroke handlers (palette re-ranking) run.
func SimulateTyping(m Model, input string) Model {
	for _, r := range input {
		m = SimulateMessages(m, MakeKeyMsg(string(r)))
	}
	return m
}

// =============================================================================
// RECORDING FIXTURES
// =============================================================================

// MakeRecording builds a minimal valid run with n iterations and
// strictly improving scores.
func MakeRecording(id string, n int) *observatory.Recording {
	started := time.Date(2026, time.August, 20, 10, 0, 0, 0, time.UTC)
	rec := &observatory.Recording{
		Run: observatory.Run{
			ID:         id,
			Goal:       "test goal",
			StartedAt:  started,
			Scale:      10,
			StopReason: "plateau",
		},
	}
	for i := 0; i < n; i++ {
		rec.Iterations = append(rec.Iterations, playback.Iteration{
			Index:   i,
			Score:   float64(i + 1),
			Elapsed: time.Second,
			At:      started.Add(time.Duration(i+1) * time.Second),
		})
	}
	return rec
}

// WriteRecording marshals rec into dir under its run id and returns the
// path, matching what the backend writes.
func WriteRecording(t *testing.T, dir string, rec *observatory.Recording) string {
	t.Helper()
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		t.Fatalf("marshal recording: %v", err)
	}
	path := filepath.Join(dir, rec.Run.ID+observatory.RecordingExt)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write recording: %v", err)
	}
	return path
}

// =============================================================================
// STORE HELPERS
// =============================================================================

// DrainActions empties the model's store subscription and returns the
// dispatched gestures, dropping state-change events.
func DrainActions(m Model) []store.Event {
	var out []store.Event
	for {
		select {
		case ev := <-m.storeCh:
			if ev.Type == store.EventActionDispatched {
				out = append(out, ev)
			}
		default:
			return out
		}
	}
}

// FindAction returns the first drained gesture with the given action
// id, if any.
func FindAction(events []store.Event, action string) (store.Event, bool) {
	for _, ev := range events {
		if ev.Action == action {
			return ev, true
		}
	}
	return store.Event{}, false
}

// AssertNoPanic runs fn and returns the recovered value, nil when fn
// completed normally.
func AssertNoPanic(fn func()) (panicValue any) {
	defer func() {
		panicValue = recover()
	}()
	fn()
	return nil
}
