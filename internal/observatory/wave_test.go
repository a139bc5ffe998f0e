package observatory

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWaveConvergesToTarget(t *testing.T) {
	w := NewWave(10, 40)
	w.SetTarget(7.5)

	for i := 0; i < 300; i++ {
		w.Step()
	}
	assert.InDelta(t, 7.5, w.Value(), 0.01)
	assert.True(t, w.Settled())
}

func TestWaveOvershootsBeforeSettling(t *testing.T) {
	// An underdamped spring rises past its target at least once, which
	// is what makes the wave read as motion instead of a fade.
	w := NewWave(10, 400)
	w.SetTarget(7.5)

	peak := 0.0
	for i := 0; i < 300; i++ {
		if v := w.Step(); v > peak {
			peak = v
		}
	}
	assert.Greater(t, peak, 7.5)
}

func TestWaveRetargetsMidFlight(t *testing.T) {
	w := NewWave(10, 40)
	w.SetTarget(9.0)
	for i := 0; i < 20; i++ {
		w.Step()
	}
	assert.False(t, w.Settled())

	w.SetTarget(2.0)
	assert.Equal(t, 2.0, w.Target())
	for i := 0; i < 300; i++ {
		w.Step()
	}
	assert.InDelta(t, 2.0, w.Value(), 0.01)
}

func TestWaveHistoryCapped(t *testing.T) {
	w := NewWave(10, 5)
	w.SetTarget(4.0)
	for i := 0; i < 30; i++ {
		w.Step()
	}

	hist := w.History()
	assert.Len(t, hist, 5)
	assert.Equal(t, w.Value(), hist[len(hist)-1], "newest frame is last")
}

func TestWaveDefaults(t *testing.T) {
	w := NewWave(0, 0)
	assert.Equal(t, DefaultScale, w.Scale())

	w.SetTarget(1.0)
	for i := 0; i < 10; i++ {
		w.Step()
	}
	assert.Len(t, w.History(), 1, "span below one keeps a single frame")
}

func TestWaveStartsAtRest(t *testing.T) {
	w := NewWave(10, 40)
	assert.Equal(t, 0.0, w.Value())
	assert.True(t, w.Settled(), "zero target, zero position")
	assert.True(t, math.Abs(w.Step()) < 1e-9, "no target, no motion")
}
