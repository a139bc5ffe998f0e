package observatory

import (
	"math"

	"github.com/charmbracelet/harmonica"
)

// waveFPS is the frame rate the spring integrates at; the board ticks
// frames at the same rate.
const waveFPS = 60

// Spring tuning for the resonance line.
const (
	waveFrequency = 7.0
	waveDamping   = 0.6
)

// Wave animates the resonance line: a spring-physics value chasing the
// current iteration's score, with a trail of recent frames for the
// waveform. The spring may overshoot the scale; clamping happens at
// draw time only.
type Wave struct {
	spring  harmonica.Spring
	pos     float64
	vel     float64
	target  float64
	scale   float64
	history []float64
	span    int
}

// NewWave creates a wave over a score scale keeping a trail of span
// frames.
func NewWave(scale float64, span int) *Wave {
	if scale <= 0 {
		scale = DefaultScale
	}
	if span < 1 {
		span = 1
	}
	return &Wave{
		spring: harmonica.NewSpring(harmonica.FPS(waveFPS), waveFrequency, waveDamping),
		scale:  scale,
		span:   span,
	}
}

// SetTarget points the spring at a new score. The board calls this on
// every pointer move.
func (w *Wave) SetTarget(score float64) { w.target = score }

// Target returns the current equilibrium score.
func (w *Wave) Target() float64 { return w.target }

// Step advances one frame and returns the displayed value.
func (w *Wave) Step() float64 {
	w.pos, w.vel = w.spring.Update(w.pos, w.vel, w.target)
	w.history = append(w.history, w.pos)
	if len(w.history) > w.span {
		w.history = w.history[len(w.history)-w.span:]
	}
	return w.pos
}

// Value returns the last displayed value without advancing.
func (w *Wave) Value() float64 { return w.pos }

// History returns the trail, oldest first, at most span frames long.
func (w *Wave) History() []float64 { return w.history }

// Scale returns the score scale the wave renders against.
func (w *Wave) Scale() float64 { return w.scale }

// Settled reports whether the spring has effectively reached its
// target.
func (w *Wave) Settled() bool {
	return math.Abs(w.pos-w.target) < 1e-3 && math.Abs(w.vel) < 1e-3
}
