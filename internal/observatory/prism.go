package observatory

import (
	"time"

	"prismdeck/internal/playback"
)

// DefaultConverge is the hold between full scoring and completion.
const DefaultConverge = 600 * time.Millisecond

// Fracture fixes the reveal timeline for one candidate set: candidates
// become visible on a staggered schedule while refracting, scored on a
// second later schedule while scoring, then the winner holds through
// converging until complete.
type Fracture struct {
	Visible  playback.Reveal
	Scored   playback.Reveal
	Converge time.Duration
}

// NewFracture sizes both reveal windows for count candidates.
func NewFracture(count int, base, perItem time.Duration) Fracture {
	return Fracture{
		Visible:  playback.Reveal{Base: base, PerItem: perItem, Count: count},
		Scored:   playback.Reveal{Base: base, PerItem: perItem, Count: count},
		Converge: DefaultConverge,
	}
}

// PhaseAt returns the active phase at elapsed time since the timeline
// began. An empty candidate set completes immediately.
func (f Fracture) PhaseAt(elapsed time.Duration) playback.Phase {
	if f.Visible.Count == 0 {
		return playback.PhaseComplete
	}
	visEnd := f.Visible.Total()
	scoreEnd := visEnd + f.Scored.Total()
	switch {
	case elapsed < visEnd:
		return playback.PhaseRefracting
	case elapsed < scoreEnd:
		return playback.PhaseScoring
	case elapsed < scoreEnd+f.Converge:
		return playback.PhaseConverging
	default:
		return playback.PhaseComplete
	}
}

// VisibleAt returns how many candidates are visible at elapsed.
func (f Fracture) VisibleAt(elapsed time.Duration) int {
	return f.Visible.FiredCount(elapsed)
}

// ScoredAt returns how many candidates are scored at elapsed. The
// scored window opens once every candidate is visible.
func (f Fracture) ScoredAt(elapsed time.Duration) int {
	return f.Scored.FiredCount(elapsed - f.Visible.Total())
}

// Total returns the timeline's full duration.
func (f Fracture) Total() time.Duration {
	return f.Visible.Total() + f.Scored.Total() + f.Converge
}

// WinnerIndex picks the winning candidate: the first marked winner, or
// the highest score with ties broken by index. Returns -1 for an empty
// set.
func WinnerIndex(cands []playback.Candidate) int {
	if len(cands) == 0 {
		return -1
	}
	for i, c := range cands {
		if c.Winner {
			return i
		}
	}
	best := 0
	for i, c := range cands {
		if c.Score > cands[best].Score {
			best = i
		}
	}
	return best
}

// Prism tracks the fracture animation for the current iteration's
// candidate set. Replacing the candidates resets the timeline to
// ready; Begin starts it; View derives one frame from the clock.
type Prism struct {
	clock   playback.Clock
	base    time.Duration
	perItem time.Duration

	frac    Fracture
	cands   []playback.Candidate
	started time.Time
	begun   bool
}

// PrismView is one frame of the fracture.
type PrismView struct {
	Phase      playback.Phase
	Candidates []playback.Candidate
	Visible    int
	Scored     int
	// Winner indexes Candidates once the phase reaches converging; -1
	// before that and for empty sets.
	Winner int
}

// NewPrism creates a prism with the given stagger tuning. A nil clock
// uses the wall clock.
func NewPrism(clock playback.Clock, base, perItem time.Duration) *Prism {
	if clock == nil {
		clock = playback.SystemClock()
	}
	return &Prism{clock: clock, base: base, perItem: perItem}
}

// SetCandidates replaces the candidate set and resets the timeline to
// ready.
func (p *Prism) SetCandidates(cands []playback.Candidate) {
	p.cands = make([]playback.Candidate, len(cands))
	copy(p.cands, cands)
	p.frac = NewFracture(len(cands), p.base, p.perItem)
	p.begun = false
}

// Begin starts the timeline. Re-entrant calls are no-ops; only
// SetCandidates resets a timeline that has begun.
func (p *Prism) Begin() {
	if p.begun {
		return
	}
	p.begun = true
	p.started = p.clock.Now()
}

// View derives the current frame.
func (p *Prism) View() PrismView {
	v := PrismView{Phase: playback.PhaseReady, Candidates: p.cands, Winner: -1}
	if !p.begun {
		return v
	}
	elapsed := p.clock.Now().Sub(p.started)
	v.Phase = p.frac.PhaseAt(elapsed)
	v.Visible = p.frac.VisibleAt(elapsed)
	v.Scored = p.frac.ScoredAt(elapsed)
	if v.Phase >= playback.PhaseConverging {
		v.Winner = WinnerIndex(p.cands)
	}
	return v
}

// Done reports whether the timeline has completed.
func (p *Prism) Done() bool {
	return p.begun && p.frac.PhaseAt(p.clock.Now().Sub(p.started)) == playback.PhaseComplete
}
