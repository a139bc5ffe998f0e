package playback

import "time"

// Phase is the stage of a multi-step reveal animation. Transitions are
// strictly forward; only a reset returns to PhaseReady.
type Phase int

const (
	PhaseReady Phase = iota
	PhaseRefracting
	PhaseScoring
	PhaseConverging
	PhaseComplete
)

// String returns the lowercase phase name.
func (p Phase) String() string {
	switch p {
	case PhaseReady:
		return "ready"
	case PhaseRefracting:
		return "refracting"
	case PhaseScoring:
		return "scoring"
	case PhaseConverging:
		return "converging"
	case PhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Next returns the following phase, or PhaseComplete when already there.
func (p Phase) Next() Phase {
	if p >= PhaseComplete {
		return PhaseComplete
	}
	return p + 1
}

// Reveal computes a staggered reveal window over an indexed item set:
// item j fires at Base + j*PerItem from the window's start. Reveal is a
// pure schedule; callers supply elapsed time and read set sizes back.
type Reveal struct {
	Base    time.Duration
	PerItem time.Duration
	Count   int
}

// At returns the instant, relative to the window start, at which the
// item at index fires.
func (r Reveal) At(index int) time.Duration {
	return r.Base + time.Duration(index)*r.PerItem
}

// Total returns the window's full duration: the firing instant of the
// last item, or zero for an empty set.
func (r Reveal) Total() time.Duration {
	if r.Count == 0 {
		return 0
	}
	return r.Base + time.Duration(r.Count-1)*r.PerItem
}

// FiredCount returns how many items have fired after elapsed time,
// bounded by the set size. Items fire in index order.
func (r Reveal) FiredCount(elapsed time.Duration) int {
	if r.Count == 0 || elapsed < r.Base {
		return 0
	}
	if r.PerItem <= 0 {
		return r.Count
	}
	n := int((elapsed-r.Base)/r.PerItem) + 1
	if n > r.Count {
		n = r.Count
	}
	return n
}

// Done reports whether every item has fired.
func (r Reveal) Done(elapsed time.Duration) bool {
	return r.FiredCount(elapsed) == r.Count
}
