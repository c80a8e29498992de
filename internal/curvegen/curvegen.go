// Package curvegen synthesizes torque/angle/time fastening curves for
// tests and demos. The profiles mirror what real drivers produce: an
// S-shaped torque ramp over a linear angle sweep, with optional fault
// shapes for exercising the hard physics gate.
package curvegen

import (
	"math"
	"math/rand"
	"strconv"

	"github.com/banshee-data/torque.report/internal/features"
)

// Mode selects the simulated scenario.
type Mode string

const (
	// ModeNormal is a healthy fastening: S-curve to ~5 Nm with mild noise.
	ModeNormal Mode = "normal"
	// ModeLoose simulates a stripped thread: shallow ramp peaking ~2 Nm.
	ModeLoose Mode = "loose"
	// ModeDrift simulates process aging: healthy shape, peak ~6 Nm.
	ModeDrift Mode = "drift"
	// ModeNegSlope forces torque to fall over the back half of the curve,
	// tripping the negative-slope hard constraint.
	ModeNegSlope Mode = "hard_ng_slope"
	// ModeNoRise is a flat near-zero trace with no torque rise.
	ModeNoRise Mode = "hard_ng_torque"
)

// Generator produces synthetic curves from a seeded source so tests are
// reproducible.
type Generator struct {
	rng *rand.Rand
}

// New creates a Generator with the given seed.
func New(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

const (
	steps    = 100
	duration = 2.0   // seconds
	sweep    = 360.0 // degrees
)

func sigmoid(t, k, t0 float64) float64 {
	return 1 / (1 + math.Exp(-k*(t-t0)))
}

// Curve generates one fastening curve in the given mode.
func (g *Generator) Curve(mode Mode) features.Curve {
	c := features.Curve{
		Torque: make([]float64, steps),
		Angle:  make([]float64, steps),
		Time:   make([]float64, steps),
	}
	for i := 0; i < steps; i++ {
		frac := float64(i) / float64(steps-1)
		c.Time[i] = frac * duration
		c.Angle[i] = frac * sweep
	}

	for i, t := range c.Time {
		var torque float64
		switch mode {
		case ModeLoose:
			torque = 2*sigmoid(t, 5, 1.0) + g.rng.NormFloat64()*0.05
		case ModeDrift:
			torque = 6*sigmoid(t, 10, 1.0) + g.rng.NormFloat64()*0.05
		case ModeNegSlope:
			torque = 5 * sigmoid(t, 10, 0.5)
			if i >= steps/2 {
				// Linear decay to half over the back half of the trace.
				decay := 1 - 0.5*float64(i-steps/2)/float64(steps/2-1)
				torque *= decay
			}
		case ModeNoRise:
			torque = 0.1
		default:
			torque = 5*sigmoid(t, 10, 1.0) + g.rng.NormFloat64()*0.05
		}
		c.Torque[i] = math.Max(0, torque)
	}
	return c
}

// Batch generates curves for holes numbered 1..count, keyed "[1]1" style
// like line equipment emits.
func (g *Generator) Batch(mode Mode, count int) map[string]features.Curve {
	batch := make(map[string]features.Curve, count)
	for i := 1; i <= count; i++ {
		batch[holeKey(i)] = g.Curve(mode)
	}
	return batch
}

func holeKey(i int) string {
	// Equipment convention: "[station]hole".
	return "[1]" + strconv.Itoa(i)
}
