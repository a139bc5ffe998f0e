package playback

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testInterval = 100 * time.Millisecond

// newTestSequencer returns a sequencer on a manual clock preloaded with
// n iterations scored by index.
func newTestSequencer(n int) (*Sequencer, *ManualClock) {
	clock := NewManualClock(time.Unix(0, 0))
	seq := NewSequencer(Options{Interval: testInterval, Clock: clock})
	iters := make([]Iteration, n)
	for i := range iters {
		iters[i] = Iteration{Index: i, Score: float64(i)}
	}
	seq.SetIterations(iters)
	return seq, clock
}

// drain empties the update channel so later sends are never dropped.
func drain(s *Sequencer) {
	for {
		select {
		case <-s.Updates():
		default:
			return
		}
	}
}

func TestScrubToClampsIndex(t *testing.T) {
	cases := []struct {
		name  string
		count int
		scrub int
		want  int
	}{
		{"negative on empty", 0, -3, 0},
		{"past end on empty", 0, 10, 0},
		{"negative", 5, -1, 0},
		{"in range", 5, 2, 2},
		{"at end", 5, 4, 4},
		{"past end", 5, 9, 4},
		{"single item negative", 1, -7, 0},
		{"single item past end", 1, 3, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seq, _ := newTestSequencer(tc.count)
			defer seq.Dispose()

			seq.ScrubTo(tc.scrub)

			snap := seq.Snapshot()
			assert.Equal(t, tc.want, snap.Index)
			assert.False(t, snap.Running, "scrub must not touch the running flag")
		})
	}
}

func TestScrubToMovesBackward(t *testing.T) {
	seq, _ := newTestSequencer(5)
	defer seq.Dispose()

	seq.ScrubTo(4)
	seq.ScrubTo(1)

	snap := seq.Snapshot()
	assert.Equal(t, 1, snap.Index)
	assert.Equal(t, 1.0, snap.Score)
}

func TestReplayTerminatesAtFinalIndex(t *testing.T) {
	seq, clock := newTestSequencer(4)
	defer seq.Dispose()

	seq.Start()
	moves := 0
	last := 0
	for i := 0; i < 20; i++ {
		clock.Advance(testInterval)
		idx := seq.Snapshot().Index
		if idx != last {
			require.Equal(t, last+1, idx, "pointer must advance one step per tick")
			moves++
			last = idx
		}
	}

	snap := seq.Snapshot()
	assert.Equal(t, 3, moves, "n iterations advance exactly n-1 times")
	assert.Equal(t, 3, snap.Index)
	assert.False(t, snap.Running, "playback stops at the end of the list")
}

func TestSingleIterationNeverAdvances(t *testing.T) {
	seq, clock := newTestSequencer(1)
	defer seq.Dispose()

	seq.Start()
	clock.Advance(10 * testInterval)

	snap := seq.Snapshot()
	assert.Equal(t, 0, snap.Index)
	assert.False(t, snap.Running)
}

func TestStartTwiceKeepsOneTimer(t *testing.T) {
	seq, clock := newTestSequencer(10)
	defer seq.Dispose()

	seq.Start()
	seq.Start()
	clock.Advance(testInterval)

	assert.Equal(t, 1, seq.Snapshot().Index, "one simulated tick moves one step, not two")
}

func TestStartOnEmptyListIsNoOp(t *testing.T) {
	seq, clock := newTestSequencer(0)
	defer seq.Dispose()

	seq.Start()
	clock.Advance(10 * testInterval)

	snap := seq.Snapshot()
	assert.False(t, snap.Running)
	assert.Equal(t, 0, snap.Index)
	assert.Equal(t, 0, snap.Count)
}

func TestPauseAndResume(t *testing.T) {
	seq, clock := newTestSequencer(10)
	defer seq.Dispose()

	seq.Start()
	clock.Advance(testInterval)
	require.Equal(t, 1, seq.Snapshot().Index)

	seq.Pause()
	clock.Advance(5 * testInterval)
	snap := seq.Snapshot()
	assert.Equal(t, 1, snap.Index, "paused playback must not move")
	assert.True(t, snap.Running)
	assert.True(t, snap.Paused)

	seq.Resume()
	clock.Advance(testInterval)
	snap = seq.Snapshot()
	assert.Equal(t, 2, snap.Index)
	assert.False(t, snap.Paused)
}

func TestPauseRequiresRunning(t *testing.T) {
	seq, _ := newTestSequencer(3)
	defer seq.Dispose()

	seq.Pause()
	assert.False(t, seq.Snapshot().Paused)

	seq.Resume()
	assert.False(t, seq.Snapshot().Running)
}

func TestStopKeepsPointer(t *testing.T) {
	seq, clock := newTestSequencer(10)
	defer seq.Dispose()

	seq.Start()
	clock.Advance(3 * testInterval)
	require.Equal(t, 3, seq.Snapshot().Index)

	seq.Stop()
	clock.Advance(5 * testInterval)

	snap := seq.Snapshot()
	assert.Equal(t, 3, snap.Index)
	assert.False(t, snap.Running)
}

func TestSetSpeedScalesTickInterval(t *testing.T) {
	seq, clock := newTestSequencer(10)
	defer seq.Dispose()

	seq.SetSpeed(2)
	seq.Start()
	clock.Advance(testInterval / 2)
	assert.Equal(t, 1, seq.Snapshot().Index, "double speed halves the tick interval")

	seq.SetSpeed(0.5)
	clock.Advance(testInterval)
	assert.Equal(t, 1, seq.Snapshot().Index, "half speed doubles the tick interval")
	clock.Advance(testInterval)
	assert.Equal(t, 2, seq.Snapshot().Index)
}

func TestSetSpeedRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name string
		in   float64
	}{
		{"zero", 0},
		{"negative", -1.5},
		{"nan", math.NaN()},
		{"positive inf", math.Inf(1)},
		{"negative inf", math.Inf(-1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seq, _ := newTestSequencer(3)
			defer seq.Dispose()

			seq.SetSpeed(1.5)
			seq.SetSpeed(tc.in)

			assert.Equal(t, 1.5, seq.Snapshot().Speed, "invalid speed input retains the previous value")
		})
	}
}

func TestDisposeFreezesState(t *testing.T) {
	seq, clock := newTestSequencer(10)

	seq.Start()
	clock.Advance(testInterval)
	before := seq.Snapshot()
	require.Equal(t, 1, before.Index)

	seq.Dispose()
	clock.Advance(10 * testInterval)
	seq.ScrubTo(5)
	seq.Start()
	seq.SetSpeed(4)
	seq.Append(Iteration{Index: 10})

	after := seq.Snapshot()
	assert.Equal(t, before.Index, after.Index)
	assert.Equal(t, before.Count, after.Count)
	assert.Equal(t, before.Speed, after.Speed)
}

func TestDisposeClosesUpdates(t *testing.T) {
	seq, clock := newTestSequencer(5)

	seq.Start()
	seq.Dispose()
	clock.Advance(10 * testInterval)

	for {
		_, ok := <-seq.Updates()
		if !ok {
			return
		}
	}
}

func TestDisposeTwiceIsSafe(t *testing.T) {
	seq, _ := newTestSequencer(2)
	seq.Dispose()
	seq.Dispose()
}

func TestGoLiveCancelsReplayTimer(t *testing.T) {
	seq, clock := newTestSequencer(10)
	defer seq.Dispose()

	seq.Start()
	clock.Advance(testInterval)
	require.Equal(t, 1, seq.Snapshot().Index)

	seq.GoLive()
	snap := seq.Snapshot()
	assert.Equal(t, ModeLive, snap.Mode)
	assert.Equal(t, 9, snap.Index, "go-live jumps to the newest iteration")

	clock.Advance(10 * testInterval)
	assert.Equal(t, 9, seq.Snapshot().Index, "no replay ticks after go-live")
}

func TestAppendFollowsInLiveMode(t *testing.T) {
	seq, _ := newTestSequencer(2)
	defer seq.Dispose()

	seq.GoLive()
	seq.Append(Iteration{Index: 2, Score: 7.5})

	snap := seq.Snapshot()
	assert.Equal(t, 2, snap.Index)
	assert.Equal(t, 7.5, snap.Score)
	assert.Equal(t, 3, snap.Count)
}

func TestAppendBuffersInReplayMode(t *testing.T) {
	seq, clock := newTestSequencer(3)
	defer seq.Dispose()

	seq.Start()
	clock.Advance(testInterval)
	require.Equal(t, 1, seq.Snapshot().Index)

	seq.Append(Iteration{Index: 3, Score: 4.0})
	snap := seq.Snapshot()
	assert.Equal(t, 1, snap.Index, "replay ignores live pushes")
	assert.Equal(t, 4, snap.Count, "but the list still grows")

	seq.GoLive()
	assert.Equal(t, 3, seq.Snapshot().Index)
}

func TestReplayScenario(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	seq := NewSequencer(Options{Interval: testInterval, Clock: clock})
	defer seq.Dispose()
	seq.SetIterations([]Iteration{
		{Index: 0, Score: 1.0},
		{Index: 1, Score: 6.0},
		{Index: 2, Score: 9.5},
	})

	seq.Start()
	clock.Advance(4 * testInterval)

	snap := seq.Snapshot()
	assert.Equal(t, 2, snap.Index)
	assert.Equal(t, 9.5, snap.Score)
	assert.False(t, snap.Running)
	assert.Equal(t, 1.0, snap.Progress)
}

func TestSetIterationsReclampsPointer(t *testing.T) {
	seq, _ := newTestSequencer(10)
	defer seq.Dispose()

	seq.ScrubTo(9)
	seq.SetIterations([]Iteration{{Index: 0, Score: 2.0}, {Index: 1, Score: 3.0}})

	snap := seq.Snapshot()
	assert.Equal(t, 1, snap.Index)
	assert.Equal(t, 3.0, snap.Score)
}

func TestSetIterationsCopiesInput(t *testing.T) {
	seq, _ := newTestSequencer(0)
	defer seq.Dispose()

	src := []Iteration{{Index: 0, Score: 1.0}}
	seq.SetIterations(src)
	src[0].Score = 99

	assert.Equal(t, 1.0, seq.Snapshot().Score)
}

func TestSnapshotProgress(t *testing.T) {
	seq, _ := newTestSequencer(4)
	defer seq.Dispose()

	assert.Equal(t, 0.25, seq.Snapshot().Progress)
	seq.ScrubTo(1)
	assert.Equal(t, 0.5, seq.Snapshot().Progress)
	seq.ScrubTo(3)
	assert.Equal(t, 1.0, seq.Snapshot().Progress)

	empty, _ := newTestSequencer(0)
	defer empty.Dispose()
	assert.Equal(t, 0.0, empty.Snapshot().Progress)
}

func TestUpdatesPublishOnEveryChange(t *testing.T) {
	seq, _ := newTestSequencer(5)
	defer seq.Dispose()
	drain(seq)

	seq.ScrubTo(2)

	select {
	case snap := <-seq.Updates():
		assert.Equal(t, 2, snap.Index)
	default:
		t.Fatal("expected a snapshot on the update channel")
	}
}

func TestUpdatesNeverBlock(t *testing.T) {
	seq, _ := newTestSequencer(5)
	defer seq.Dispose()

	// Nobody reads; far more changes than the channel buffers.
	for i := 0; i < 4*snapshotBuffer; i++ {
		seq.ScrubTo(i % 5)
	}

	assert.Equal(t, (4*snapshotBuffer - 1) % 5, seq.Snapshot().Index)
}
