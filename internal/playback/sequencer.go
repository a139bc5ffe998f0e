// Package playback drives observatory visualizations through ordered
// iteration data. A Sequencer owns a current-position pointer over an
// iteration list and advances it either on an internal timer (replay) or
// as new records arrive from an external stream (live). All UI-facing
// values are derived from the pointer; the source data is never mutated.
package playback

import (
	"math"
	"sync"
	"time"
)

// Mode selects the playback driver.
type Mode int

const (
	// ModeReplay advances the pointer on the internal timer over
	// already-available iterations.
	ModeReplay Mode = iota
	// ModeLive tracks the newest externally-arriving iteration.
	ModeLive
)

// String returns the lowercase mode name.
func (m Mode) String() string {
	switch m {
	case ModeReplay:
		return "replay"
	case ModeLive:
		return "live"
	default:
		return "unknown"
	}
}

// Candidate is one entry of a multi-candidate synthesis step.
type Candidate struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	Score  float64 `json:"score"`
	Winner bool    `json:"winner,omitempty"`
}

// Iteration is one recorded step of a refinement or synthesis process.
// Immutable once produced by the source.
type Iteration struct {
	Index       int             `json:"index"`
	Score       float64         `json:"score"`
	Gates       map[string]bool `json:"gates,omitempty"`
	Improvement string          `json:"improvement,omitempty"`
	Candidates  []Candidate     `json:"candidates,omitempty"`
	Elapsed     time.Duration   `json:"elapsed,omitempty"`
	At          time.Time       `json:"at,omitempty"`
}

// State is the control-plane view of a sequencer.
type State struct {
	Mode    Mode
	Running bool
	Paused  bool
	Index   int
	Speed   float64
	Count   int
}

// Snapshot couples control state with the values derived from the
// current pointer. Published after every state change.
type Snapshot struct {
	State
	Current  Iteration
	Score    float64
	Progress float64
}

// DefaultInterval is the base advance interval at speed 1.
const DefaultInterval = 800 * time.Millisecond

// snapshotBuffer bounds the update channel. Sends never block; when the
// reader is behind an update is dropped and the next one supersedes it.
const snapshotBuffer = 32

// Options configures a Sequencer. The zero value is usable.
type Options struct {
	// Interval is the base advance interval at speed 1.
	// Zero means DefaultInterval.
	Interval time.Duration
	// Clock supplies timers. Nil means the system clock.
	Clock Clock
}

// Sequencer presents a controllable current position over an ordered
// iteration list. Safe for concurrent use; timer callbacks arrive on
// their own goroutines.
type Sequencer struct {
	mu         sync.Mutex
	clock      Clock
	interval   time.Duration
	iterations []Iteration
	mode       Mode
	running    bool
	paused     bool
	index      int
	speed      float64
	timer      Timer
	gen        uint64
	disposed   bool
	updates    chan Snapshot
}

// NewSequencer creates a stopped sequencer in replay mode at speed 1.
func NewSequencer(opts Options) *Sequencer {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	return &Sequencer{
		clock:    opts.Clock,
		interval: opts.Interval,
		speed:    1,
		updates:  make(chan Snapshot, snapshotBuffer),
	}
}

// Updates returns the snapshot channel. One snapshot is published after
// every state change; the channel closes on Dispose.
func (s *Sequencer) Updates() <-chan Snapshot {
	return s.updates
}

// Start begins timer-driven advancement. A second Start while running is
// a no-op, as is Start on an empty iteration list.
func (s *Sequencer) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || s.running || len(s.iterations) == 0 {
		return
	}
	s.mode = ModeReplay
	s.running = true
	s.paused = false
	s.scheduleLocked()
	s.publishLocked()
}

// Pause suspends the timer without moving the pointer. No-op unless
// running and unpaused.
func (s *Sequencer) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || !s.running || s.paused {
		return
	}
	s.paused = true
	s.cancelTimerLocked()
	s.publishLocked()
}

// Resume restarts the timer after Pause. No-op unless running and paused.
func (s *Sequencer) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || !s.running || !s.paused {
		return
	}
	s.paused = false
	s.scheduleLocked()
	s.publishLocked()
}

// Stop halts the timer and clears the running flag. The pointer keeps
// its current value.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || !s.running {
		return
	}
	s.stopLocked()
	s.publishLocked()
}

// ScrubTo moves the pointer to index, clamped into the valid range.
// Always succeeds; running and paused flags are untouched.
func (s *Sequencer) ScrubTo(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.index = clampIndex(index, len(s.iterations))
	s.publishLocked()
}

// SetSpeed changes the playback speed multiplier. Zero, negative and
// non-finite input is ignored and the previous speed retained. While
// running, the pending tick is rescheduled at the new rate.
func (s *Sequencer) SetSpeed(multiplier float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	if multiplier <= 0 || math.IsNaN(multiplier) || math.IsInf(multiplier, 0) {
		return
	}
	s.speed = multiplier
	if s.running && !s.paused {
		s.cancelTimerLocked()
		s.scheduleLocked()
	}
	s.publishLocked()
}

// GoLive switches to live mode: the replay timer is canceled, the
// pointer jumps to the newest iteration, and advancement follows Append.
func (s *Sequencer) GoLive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.mode = ModeLive
	s.running = false
	s.paused = false
	s.cancelTimerLocked()
	s.index = clampIndex(len(s.iterations)-1, len(s.iterations))
	s.publishLocked()
}

// Append adds a live record. In live mode the pointer follows it; in
// replay mode the record is buffered and the pointer stays put until
// GoLive.
func (s *Sequencer) Append(iter Iteration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.iterations = append(s.iterations, iter)
	if s.mode == ModeLive {
		s.index = len(s.iterations) - 1
	}
	s.publishLocked()
}

// SetIterations replaces the iteration list in full and re-clamps the
// pointer. The slice is copied; callers keep ownership of theirs.
func (s *Sequencer) SetIterations(list []Iteration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.iterations = append([]Iteration(nil), list...)
	s.index = clampIndex(s.index, len(s.iterations))
	s.publishLocked()
}

// Snapshot returns the current state and derived values.
func (s *Sequencer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Dispose cancels any pending timer and closes the update channel.
// Every later operation on the sequencer is a no-op.
func (s *Sequencer) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.disposed = true
	s.cancelTimerLocked()
	close(s.updates)
}

// tick advances the pointer by one step, or stops at the end of the
// list. Stale generations are ignored so a canceled timer that already
// fired cannot move the pointer.
func (s *Sequencer) tick(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || gen != s.gen || !s.running || s.paused {
		return
	}
	if s.index < len(s.iterations)-1 {
		s.index++
		s.scheduleLocked()
	} else {
		s.stopLocked()
	}
	s.publishLocked()
}

func (s *Sequencer) scheduleLocked() {
	s.gen++
	gen := s.gen
	d := time.Duration(float64(s.interval) / s.speed)
	s.timer = s.clock.AfterFunc(d, func() { s.tick(gen) })
}

func (s *Sequencer) cancelTimerLocked() {
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Sequencer) stopLocked() {
	s.cancelTimerLocked()
	s.running = false
	s.paused = false
}

func (s *Sequencer) snapshotLocked() Snapshot {
	snap := Snapshot{
		State: State{
			Mode:    s.mode,
			Running: s.running,
			Paused:  s.paused,
			Index:   s.index,
			Speed:   s.speed,
			Count:   len(s.iterations),
		},
	}
	if len(s.iterations) > 0 {
		snap.Current = s.iterations[s.index]
		snap.Score = snap.Current.Score
		snap.Progress = float64(s.index+1) / float64(len(s.iterations))
	}
	return snap
}

// publishLocked sends a snapshot without blocking. A full channel drops
// the update; the next one supersedes it.
func (s *Sequencer) publishLocked() {
	select {
	case s.updates <- s.snapshotLocked():
	default:
	}
}

// clampIndex bounds i into [0, n-1], or 0 for an empty list.
func clampIndex(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}
