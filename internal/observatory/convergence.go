package observatory

import (
	"math"

	"prismdeck/internal/playback"
)

// StopReason represents why a refinement run ended: the score reached
// its threshold, scores plateaued, the budget ran out or an operator
// interrupted. The zero value means the run has not ended.
type StopReason int

const (
	StopReasonNone StopReason = iota
	StopReasonThreshold
	StopReasonPlateau
	StopReasonBudget
	StopReasonInterrupted
)

// String returns the wire token for the reason, matching the
// stop_reason field of a recording.
func (s StopReason) String() string {
	switch s {
	case StopReasonThreshold:
		return "threshold"
	case StopReasonPlateau:
		return "plateau"
	case StopReasonBudget:
		return "budget"
	case StopReasonInterrupted:
		return "interrupted"
	default:
		return ""
	}
}

// Label returns a human-readable description for the status line.
func (s StopReason) Label() string {
	switch s {
	case StopReasonThreshold:
		return "Target threshold reached"
	case StopReasonPlateau:
		return "Scores plateaued"
	case StopReasonBudget:
		return "Budget exhausted"
	case StopReasonInterrupted:
		return "Interrupted by operator"
	default:
		return "Run in progress"
	}
}

// ParseStopReason maps a wire token to its reason. Unknown tokens
// parse as none.
func ParseStopReason(s string) StopReason {
	switch s {
	case "threshold":
		return StopReasonThreshold
	case "plateau":
		return StopReasonPlateau
	case "budget":
		return StopReasonBudget
	case "interrupted":
		return StopReasonInterrupted
	default:
		return StopReasonNone
	}
}

// Stats summarizes the score series up to and including one pointer
// position.
type Stats struct {
	Count     int
	Mean      float64
	StdDev    float64
	Best      float64
	BestIndex int
	// Delta is the score change from the previous iteration, 0 at the
	// first.
	Delta float64
}

// ComputeStats reduces iterations[0..upto] to summary statistics. The
// pointer clamps into range; an empty series yields zero stats.
func ComputeStats(iterations []playback.Iteration, upto int) Stats {
	if len(iterations) == 0 {
		return Stats{}
	}
	if upto < 0 {
		upto = 0
	}
	if upto > len(iterations)-1 {
		upto = len(iterations) - 1
	}

	st := Stats{Count: upto + 1, BestIndex: 0, Best: iterations[0].Score}
	var sum float64
	for i := 0; i <= upto; i++ {
		score := iterations[i].Score
		sum += score
		if score > st.Best {
			st.Best = score
			st.BestIndex = i
		}
	}
	st.Mean = sum / float64(st.Count)

	var sqDiff float64
	for i := 0; i <= upto; i++ {
		d := iterations[i].Score - st.Mean
		sqDiff += d * d
	}
	st.StdDev = math.Sqrt(sqDiff / float64(st.Count))

	if upto > 0 {
		st.Delta = iterations[upto].Score - iterations[upto-1].Score
	}
	return st
}
