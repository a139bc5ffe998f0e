// Package board is the interactive prismdeck TUI: a grid of blocks
// over shared state, with the observatory pages that replay refinement
// runs. One Model owns every page; pages are view modes over it, not
// separate programs.
package board

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"prismdeck/cmd/deck/ui"
	"prismdeck/internal/blocks"
	"prismdeck/internal/bridge"
	"prismdeck/internal/config"
	"prismdeck/internal/lens"
	"prismdeck/internal/logging"
	"prismdeck/internal/observatory"
	"prismdeck/internal/playback"
	"prismdeck/internal/store"
)

// ViewMode determines which page is focused/active
type ViewMode int

const (
	DeckView ViewMode = iota
	BlockView
	ObservatoryView
)

// Options configures a board session.
type Options struct {
	// ReplayPath opens the board on the observatory page with the
	// given recording loaded.
	ReplayPath string

	// Bridge is the connected-or-not backend. Nil runs the deck on
	// bundled sample payloads.
	Bridge *bridge.Bridge
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the main model for the interactive board.
type Model struct {
	// UI Components
	styles       ui.Styles
	layout       ui.LayoutConfig
	spinner      spinner.Model
	paletteInput textinput.Model
	renderer     *glamour.TermRenderer
	cardCache    map[blocks.Kind]*ui.CachedRender

	viewMode ViewMode

	// Deck State
	order   []blocks.Kind
	focused int

	// Block Page State
	activeBlock blocks.Kind
	cursor      int

	// Blocks
	habits       *blocks.Habits
	calendar     *blocks.Calendar
	contacts     *blocks.Contacts
	files        *blocks.Files
	projects     *blocks.Projects
	git          *blocks.GitStatus
	conversation *blocks.Conversation

	// Lenses
	lenses     *lens.Engine
	lensesFor  map[blocks.Kind][]config.LensConfig
	activeLens map[blocks.Kind]int // index into lensesFor, -1 none

	// Palette Overlay
	showPalette   bool
	paletteRanked []lens.Ranked
	paletteCursor int

	// Shared State
	store     *store.Store
	storeCh   <-chan store.Event
	storeStop func()

	// Backend
	bridge     *bridge.Bridge
	offline    bool
	connecting bool

	// Observatory
	sequencer  *playback.Sequencer
	prism      *observatory.Prism
	wave       *observatory.Wave
	watcher    *observatory.Watcher
	recordings []string
	runs       []bridge.RunInfo
	runCursor  int
	framesOn   bool
	recording  *observatory.Recording
	recPath    string
	snapshot   playback.Snapshot
	stats      observatory.Stats
	graphNodes []observatory.Node
	graphEdges []observatory.Edge
	layers     [][]string
	ringNodes  []observatory.Node
	ringEdges  []observatory.Edge
	speedSteps []float64

	// Status Tracking
	statusMessage string
	statusChan    chan string

	// Resize Coalescing
	resizeDeb *ui.ResizeDebouncer
	resizeCh  chan tea.Msg

	// State
	cfg    *config.Config
	home   string
	width  int
	height int
	ready  bool
	err    error
	log    *logging.Logger

	// Shutdown coordination
	shutdownOnce   *sync.Once
	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

// Messages for tea updates
type (
	// statusMsg represents a status update from a background process
	statusMsg string

	errorMsg error

	// storeEventMsg carries one shared-state change or a block gesture
	// that fell back to the store.
	storeEventMsg store.Event

	// snapshotMsg carries one sequencer state change.
	snapshotMsg playback.Snapshot

	// watchMsg announces a settled change to one recording file.
	watchMsg observatory.WatchEvent

	// resizedMsg is a debounced terminal size.
	resizedMsg struct {
		width  int
		height int
	}

	// frameMsg drives the spring and fracture animations while the
	// observatory page is visible.
	frameMsg time.Time

	// connectedMsg reports the backend handshake result.
	connectedMsg struct {
		server string
		err    error
	}

	// blocksFetchedMsg carries backend payloads keyed by block kind.
	blocksFetchedMsg map[blocks.Kind]json.RawMessage

	// runsListedMsg carries the recordings visible to the run picker.
	runsListedMsg struct {
		paths []string
		runs  []bridge.RunInfo
	}

	// recordingLoadedMsg carries a parsed recording ready for replay.
	recordingLoadedMsg struct {
		path string
		rec  *observatory.Recording
		err  error
	}
)

// New assembles a stopped board from configuration. Run drives it.
func New(cfg *config.Config, home string, opts Options) Model {
	styles := ui.NewStyles(ui.ThemeFromName(cfg.Theme))

	st := store.New()

	input := textinput.New()
	input.Placeholder = "pages, lenses, actions"
	input.Prompt = "| "
	input.CharLimit = 64
	input.Width = 40
	input.PromptStyle = styles.Bold
	input.TextStyle = styles.Body

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styles.Spinner

	seq := playback.NewSequencer(playback.Options{Interval: cfg.PlaybackInterval()})

	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		styles:       styles,
		spinner:      spin,
		paletteInput: input,
		cardCache:    make(map[blocks.Kind]*ui.CachedRender),

		order: blocks.Kinds(),

		habits:       blocks.NewHabits(st),
		calendar:     blocks.NewCalendar(st),
		contacts:     blocks.NewContacts(st),
		files:        blocks.NewFiles(st),
		projects:     blocks.NewProjects(st),
		git:          blocks.NewGitStatus(st),
		conversation: blocks.NewConversation(st),

		lenses:     lens.NewEngine(),
		lensesFor:  groupLenses(cfg.Lenses),
		activeLens: make(map[blocks.Kind]int),

		store: st,

		bridge:     opts.Bridge,
		offline:    opts.Bridge == nil,
		connecting: opts.Bridge != nil,

		sequencer:  seq,
		prism:      observatory.NewPrism(nil, cfg.StaggerBase(), cfg.StaggerPerItem()),
		wave:       observatory.NewWave(observatory.DefaultScale, 48),
		runCursor:  -1,
		speedSteps: cfg.SpeedSteps(),

		statusChan: make(chan string, 10),
		resizeDeb:  ui.NewResizeDebouncer(ui.DefaultResizeDuration),
		resizeCh:   make(chan tea.Msg, 1),

		cfg:  cfg,
		home: home,
		log:  logging.Get(logging.CategoryBoard),

		shutdownOnce:   &sync.Once{},
		shutdownCtx:    ctx,
		shutdownCancel: cancel,
	}

	for _, kind := range m.order {
		m.activeLens[kind] = -1
		m.cardCache[kind] = ui.NewCachedRender(nil)
	}

	// The context is fresh, so the subscription cannot fail.
	if ch, stop, err := st.Subscribe(ctx, store.Filter{}); err == nil {
		m.storeCh = ch
		m.storeStop = stop
	}

	m.loadSamples()
	m.graphNodes, m.graphEdges = observatory.SampleDAG()
	if layers, err := observatory.TopoLayers(m.graphNodes, m.graphEdges); err == nil {
		m.layers = layers
	}
	m.ringNodes, m.ringEdges = observatory.SampleGraph()

	if w, err := observatory.NewWatcher(cfg.ResolveRecordingsDir(home)); err == nil {
		m.watcher = w
	} else {
		m.log.Warn("Recordings watcher unavailable: %v", err)
	}

	if opts.ReplayPath != "" {
		m.viewMode = ObservatoryView
		m.recPath = opts.ReplayPath
	}

	return m
}

// loadSamples fills every block with its bundled payload so an offline
// deck renders real content immediately. Backend payloads overwrite
// these as they arrive.
func (m *Model) loadSamples() {
	m.habits.SetPayload(sampleHabitsFromConfig(m.cfg))
	m.calendar.SetPayload(blocks.SampleCalendar())
	m.contacts.SetPayload(blocks.SampleContacts())
	m.files.SetPayload(blocks.SampleFiles())
	m.projects.SetPayload(blocks.SampleProjects())
	m.git.SetPayload(blocks.SampleGitStatus())
	m.conversation.SetPayload(blocks.SampleConversation())
}

// sampleHabitsFromConfig merges configured habits over the bundled
// sample: a deck.yaml with a habits section shows those instead.
func sampleHabitsFromConfig(cfg *config.Config) blocks.HabitsPayload {
	if len(cfg.Habits) == 0 {
		return blocks.SampleHabits()
	}
	p := blocks.HabitsPayload{Habits: make([]blocks.Habit, 0, len(cfg.Habits))}
	for _, h := range cfg.Habits {
		p.Habits = append(p.Habits, blocks.Habit{
			ID:       h.ID,
			Title:    h.Title,
			Schedule: h.Schedule,
		})
	}
	return p
}

// groupLenses indexes the configured lenses by the block they filter.
func groupLenses(list []config.LensConfig) map[blocks.Kind][]config.LensConfig {
	out := make(map[blocks.Kind][]config.LensConfig)
	for _, lc := range list {
		kind := blocks.Kind(lc.Block)
		out[kind] = append(out[kind], lc)
	}
	return out
}

// title returns the display name of a block kind.
func title(kind blocks.Kind) string {
	switch kind {
	case blocks.KindHabits:
		return "Habits"
	case blocks.KindCalendar:
		return "Calendar"
	case blocks.KindContacts:
		return "Contacts"
	case blocks.KindFiles:
		return "Files"
	case blocks.KindProjects:
		return "Projects"
	case blocks.KindGitStatus:
		return "Git Status"
	case blocks.KindConversation:
		return "Conversation"
	default:
		return string(kind)
	}
}
