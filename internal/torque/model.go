// Package torque implements the per-hole online statistical model and the
// diagnosis session that drives batches of holes through it. Each fastening
// point learns its own unlabeled baseline as production proceeds: the first
// 100 accepted samples freeze a golden reference, a bounded rolling window
// tracks the live process, and drift between the two feeds optimization
// recommendations.
package torque

import (
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/torque.report/internal/features"
)

// Model lifecycle states. Status is a pure function of the accepted sample
// count; there are no external transitions.
const (
	// StatusShadowMode covers samples 1-50: the model observes and learns
	// but verdicts stay conservative.
	StatusShadowMode = "SHADOW_MODE"
	// StatusStabilizing covers samples 51-100; the golden baseline freezes
	// at exactly 100.
	StatusStabilizing = "STABILIZING"
	// StatusEstablished is terminal, from sample 101 onward.
	StatusEstablished = "ESTABLISHED"
)

const (
	// GoldenWindowSize is the number of accepted samples that define the
	// frozen golden baseline.
	GoldenWindowSize = 100
	// RollingWindowSize caps the live comparison window.
	RollingWindowSize = 500
	// shadowModeSamples is the last sample count still in shadow mode.
	shadowModeSamples = 50

	// stdEpsilon keeps standard deviations strictly positive so z-scores
	// never divide by zero.
	stdEpsilon = 1e-6
)

// featureDims is the dimensionality of the statistical feature vector:
// peak torque, rigidity slope, total work (in that order).
const featureDims = 3

// Indices into the feature vector.
const (
	dimTorque = 0
	dimSlope  = 1
	dimWork   = 2
)

// Stats holds the mean and standard deviation of a feature buffer. Std
// components are always strictly positive (epsilon-floored).
type Stats struct {
	Mean    []float64 `json:"mean"`
	Std     []float64 `json:"std"`
	Samples int       `json:"n_samples"`
}

// computeStats derives Stats over a buffer of feature vectors. The whole
// window is recomputed; at the 500-element cap this is cheap enough that an
// incremental scheme is not worth its bookkeeping.
func computeStats(buffer [][]float64) *Stats {
	s := &Stats{
		Mean:    make([]float64, featureDims),
		Std:     make([]float64, featureDims),
		Samples: len(buffer),
	}
	if len(buffer) == 0 {
		for d := 0; d < featureDims; d++ {
			s.Std[d] = stdEpsilon
		}
		return s
	}

	col := make([]float64, len(buffer))
	for d := 0; d < featureDims; d++ {
		for i, vec := range buffer {
			col[i] = vec[d]
		}
		s.Mean[d] = stat.Mean(col, nil)
		if len(col) > 1 {
			s.Std[d] = stat.StdDev(col, nil)
		}
		s.Std[d] += stdEpsilon
	}
	return s
}

// HoleModel owns one fastening point's online statistics. It is not safe
// for concurrent use; the Session serializes access.
type HoleModel struct {
	HoleID string
	Count  int
	Status string

	// goldenBuffer accumulates the first GoldenWindowSize accepted vectors.
	// Its raw contents are never persisted; only the frozen stats survive a
	// snapshot.
	goldenBuffer [][]float64
	// GoldenStats is computed once, at the instant Count first reaches
	// GoldenWindowSize, and never changes afterward.
	GoldenStats *Stats

	// rollingBuffer is a FIFO window of the most recent accepted vectors,
	// capped at RollingWindowSize with the oldest evicted first.
	rollingBuffer [][]float64
	// RollingStats is recomputed from the full window on every update.
	RollingStats *Stats
}

// NewHoleModel creates a fresh model for a hole. Models are created lazily
// on first observation of a (carrier, hole) pair.
func NewHoleModel(holeID string) *HoleModel {
	return &HoleModel{
		HoleID: holeID,
		Status: StatusShadowMode,
	}
}

// statusForCount maps an accepted sample count to a lifecycle status.
func statusForCount(n int) string {
	switch {
	case n <= shadowModeSamples:
		return StatusShadowMode
	case n <= GoldenWindowSize:
		return StatusStabilizing
	default:
		return StatusEstablished
	}
}

// Update ingests an accepted fingerprint: appends it to the rolling window
// (and the golden buffer while building the baseline), advances the state
// machine, freezes the golden stats at exactly GoldenWindowSize samples,
// and recomputes the rolling stats over the full current window.
func (m *HoleModel) Update(fp features.Fingerprint) {
	vec := fp.Vector()
	m.Count++

	m.rollingBuffer = append(m.rollingBuffer, vec)
	if len(m.rollingBuffer) > RollingWindowSize {
		m.rollingBuffer = m.rollingBuffer[1:]
	}

	if m.Count <= GoldenWindowSize {
		m.goldenBuffer = append(m.goldenBuffer, vec)
		if m.Count == GoldenWindowSize {
			m.GoldenStats = computeStats(m.goldenBuffer)
		}
	}

	m.Status = statusForCount(m.Count)
	m.RollingStats = computeStats(m.rollingBuffer)
}

// RollingCount returns the number of vectors currently in the rolling
// window.
func (m *HoleModel) RollingCount() int {
	return len(m.rollingBuffer)
}

// Verdict is the outcome of one statistical evaluation.
type Verdict struct {
	Status      string  // VerdictOK or VerdictNG
	ECode       Code    // empty when OK
	WCode       string  // weight tag carried through to the report
	RCode       Code    // remediation code
	HealthScore float64 // 100 = nominal, 0 = NG
}

// Verdict statuses.
const (
	VerdictOK = "OK"
	VerdictNG = "NG"
)

// Evaluate scores a fingerprint against the rolling baseline. Before two
// samples exist there is nothing to compare against and the verdict is OK
// with full health. In shadow mode the effective tolerance is floored at
// 3.0 sigma to avoid false kills on a thin baseline. NG classification
// follows a fixed priority: rigidity slope, then peak torque, then work.
// The first offending dimension names the fault.
func (m *HoleModel) Evaluate(fp features.Fingerprint, toleranceFactor float64) Verdict {
	if m.Count < 2 || m.RollingStats == nil {
		return Verdict{Status: VerdictOK, RCode: CodeRemedyNone, HealthScore: 100}
	}

	vec := fp.Vector()
	z := make([]float64, featureDims)
	maxZ := 0.0
	for d := 0; d < featureDims; d++ {
		dev := vec[d] - m.RollingStats.Mean[d]
		if dev < 0 {
			dev = -dev
		}
		z[d] = dev / m.RollingStats.Std[d]
		if z[d] > maxZ {
			maxZ = z[d]
		}
	}

	tolerance := toleranceFactor
	if m.Status == StatusShadowMode && tolerance < 3.0 {
		tolerance = 3.0
	}

	if maxZ <= tolerance {
		health := 100 - maxZ/tolerance*100
		if health < 0 {
			health = 0
		}
		return Verdict{Status: VerdictOK, RCode: CodeRemedyNone, HealthScore: health}
	}

	// Priority order: slope anomalies implicate the carrier or thread,
	// torque anomalies the tool setting, work anomalies the joint stack.
	switch {
	case z[dimSlope] > tolerance:
		return Verdict{Status: VerdictNG, ECode: CodeSlopeAnomaly, WCode: "1.0", RCode: CodeRemedyThread}
	case z[dimTorque] > tolerance:
		return Verdict{Status: VerdictNG, ECode: CodeTorqueAnomaly, WCode: "1.0", RCode: CodeRemedyTool}
	default:
		return Verdict{Status: VerdictNG, ECode: CodeWorkAnomaly, WCode: "1.0", RCode: CodeRemedyWasher}
	}
}
