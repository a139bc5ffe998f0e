package observatory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"prismdeck/internal/playback"
)

func testCandidates() []playback.Candidate {
	return []playback.Candidate{
		{ID: "c1", Label: "Variant A", Score: 6.0},
		{ID: "c2", Label: "Variant B", Score: 8.5},
		{ID: "c3", Label: "Variant C", Score: 7.0},
	}
}

func TestWinnerIndex(t *testing.T) {
	t.Run("marked winner overrides score", func(t *testing.T) {
		cands := testCandidates()
		cands[0].Winner = true
		assert.Equal(t, 0, WinnerIndex(cands))
	})

	t.Run("highest score without a mark", func(t *testing.T) {
		assert.Equal(t, 1, WinnerIndex(testCandidates()))
	})

	t.Run("score tie keeps the earliest", func(t *testing.T) {
		cands := testCandidates()
		cands[0].Score = 8.5
		assert.Equal(t, 0, WinnerIndex(cands))
	})

	t.Run("empty set", func(t *testing.T) {
		assert.Equal(t, -1, WinnerIndex(nil))
	})
}

func TestFractureTimeline(t *testing.T) {
	f := NewFracture(3, 120*time.Millisecond, 80*time.Millisecond)
	assert.Equal(t, 1160*time.Millisecond, f.Total())

	cases := []struct {
		elapsed time.Duration
		phase   playback.Phase
		visible int
		scored  int
	}{
		{0, playback.PhaseRefracting, 0, 0},
		{120 * time.Millisecond, playback.PhaseRefracting, 1, 0},
		{200 * time.Millisecond, playback.PhaseRefracting, 2, 0},
		{279 * time.Millisecond, playback.PhaseRefracting, 2, 0},
		{280 * time.Millisecond, playback.PhaseScoring, 3, 0},
		{400 * time.Millisecond, playback.PhaseScoring, 3, 1},
		{559 * time.Millisecond, playback.PhaseScoring, 3, 2},
		{560 * time.Millisecond, playback.PhaseConverging, 3, 3},
		{1159 * time.Millisecond, playback.PhaseConverging, 3, 3},
		{1160 * time.Millisecond, playback.PhaseComplete, 3, 3},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.phase, f.PhaseAt(tc.elapsed), "phase at %v", tc.elapsed)
		assert.Equal(t, tc.visible, f.VisibleAt(tc.elapsed), "visible at %v", tc.elapsed)
		assert.Equal(t, tc.scored, f.ScoredAt(tc.elapsed), "scored at %v", tc.elapsed)
	}
}

func TestFractureEmptySetCompletesImmediately(t *testing.T) {
	f := NewFracture(0, 120*time.Millisecond, 80*time.Millisecond)
	assert.Equal(t, playback.PhaseComplete, f.PhaseAt(0))
	assert.Equal(t, DefaultConverge, f.Total())
}

func TestPrismReadyBeforeBegin(t *testing.T) {
	clock := playback.NewManualClock(time.Unix(0, 0))
	p := NewPrism(clock, 120*time.Millisecond, 80*time.Millisecond)
	p.SetCandidates(testCandidates())

	v := p.View()
	assert.Equal(t, playback.PhaseReady, v.Phase)
	assert.Equal(t, 0, v.Visible)
	assert.Equal(t, 0, v.Scored)
	assert.Equal(t, -1, v.Winner)
	assert.False(t, p.Done())
}

func TestPrismRevealsWinnerWhileConverging(t *testing.T) {
	clock := playback.NewManualClock(time.Unix(0, 0))
	p := NewPrism(clock, 120*time.Millisecond, 80*time.Millisecond)
	p.SetCandidates(testCandidates())
	p.Begin()

	clock.Advance(559 * time.Millisecond)
	v := p.View()
	assert.Equal(t, playback.PhaseScoring, v.Phase)
	assert.Equal(t, -1, v.Winner, "winner hidden until converging")

	clock.Advance(1 * time.Millisecond)
	v = p.View()
	assert.Equal(t, playback.PhaseConverging, v.Phase)
	assert.Equal(t, 1, v.Winner)
	assert.False(t, p.Done())

	clock.Advance(600 * time.Millisecond)
	v = p.View()
	assert.Equal(t, playback.PhaseComplete, v.Phase)
	assert.Equal(t, 1, v.Winner)
	assert.True(t, p.Done())
}

func TestPrismBeginIsReentrant(t *testing.T) {
	clock := playback.NewManualClock(time.Unix(0, 0))
	p := NewPrism(clock, 120*time.Millisecond, 80*time.Millisecond)
	p.SetCandidates(testCandidates())
	p.Begin()

	clock.Advance(300 * time.Millisecond)
	p.Begin()
	assert.Equal(t, playback.PhaseScoring, p.View().Phase, "second Begin must not restart the timeline")
}

func TestPrismSetCandidatesResets(t *testing.T) {
	clock := playback.NewManualClock(time.Unix(0, 0))
	p := NewPrism(clock, 120*time.Millisecond, 80*time.Millisecond)
	p.SetCandidates(testCandidates())
	p.Begin()
	clock.Advance(2 * time.Second)
	assert.True(t, p.Done())

	p.SetCandidates(testCandidates()[:2])
	v := p.View()
	assert.Equal(t, playback.PhaseReady, v.Phase)
	assert.Len(t, v.Candidates, 2)
	assert.False(t, p.Done())
}

func TestPrismCopiesCandidates(t *testing.T) {
	clock := playback.NewManualClock(time.Unix(0, 0))
	p := NewPrism(clock, 120*time.Millisecond, 80*time.Millisecond)

	cands := testCandidates()
	p.SetCandidates(cands)
	cands[1].Score = 0

	p.Begin()
	clock.Advance(2 * time.Second)
	assert.Equal(t, 1, p.View().Winner, "caller mutations must not leak in")
}

func TestPrismEmptyCandidates(t *testing.T) {
	clock := playback.NewManualClock(time.Unix(0, 0))
	p := NewPrism(clock, 120*time.Millisecond, 80*time.Millisecond)
	p.SetCandidates(nil)
	p.Begin()

	v := p.View()
	assert.Equal(t, playback.PhaseComplete, v.Phase)
	assert.Equal(t, -1, v.Winner)
	assert.True(t, p.Done())
}
