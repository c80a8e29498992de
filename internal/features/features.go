// Package features turns a sanitized fastening curve into a fixed physical
// fingerprint and applies the hard physics checks that gate statistical
// learning.
package features

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/torque.report/internal/signal"
)

// Curve is one hole's raw torque/angle/time trace as delivered by the
// fastening controller. The three slices are index-aligned samples: torque
// in Nm, angle in degrees, time in seconds.
type Curve struct {
	Torque []float64 `json:"torque"`
	Angle  []float64 `json:"angle"`
	Time   []float64 `json:"time"`
}

// Validate rejects curves the engine cannot process: mismatched lengths or
// empty traces. Timestamp ordering is assumed, not checked.
func (c Curve) Validate() error {
	if len(c.Torque) == 0 {
		return fmt.Errorf("empty torque trace")
	}
	if len(c.Angle) != len(c.Torque) || len(c.Time) != len(c.Torque) {
		return fmt.Errorf("trace length mismatch: torque=%d angle=%d time=%d",
			len(c.Torque), len(c.Angle), len(c.Time))
	}
	return nil
}

// Fingerprint is the scalar physical summary of one fastening operation.
// An identically-zero Fingerprint is the data-insufficiency sentinel: real
// curves cannot produce one, so callers treat it as "not enough signal".
type Fingerprint struct {
	PeakTorque    float64 `json:"peak_torque"`    // Nm
	SeatingAngle  float64 `json:"seating_angle"`  // degrees past the snug point
	RigiditySlope float64 `json:"rigidity_slope"` // Nm/deg over the linear region
	TotalWork     float64 `json:"total_work"`     // J
	SnugTorque    float64 `json:"snug_torque"`    // Nm at the snug point
}

// Vector returns the three-dimensional subset fed to the statistical model.
// Order is fixed: peak torque, rigidity slope, total work.
func (f Fingerprint) Vector() []float64 {
	return []float64{f.PeakTorque, f.RigiditySlope, f.TotalWork}
}

// IsZero reports whether f is the data-insufficiency sentinel.
func (f Fingerprint) IsZero() bool {
	return f == Fingerprint{}
}

// Violation identifies a hard physical constraint a fingerprint breaks.
// Violations mark the sample as physically impossible; it must be
// quarantined from statistical learning.
type Violation string

const (
	// ViolationNegSlope: rigidity slope at or below zero. Torque cannot
	// fall as a fastener tightens (VDI 2647).
	ViolationNegSlope Violation = "E_NEG_SLOPE"
	// ViolationNoTorqueRise: peak torque never exceeded the snug torque.
	ViolationNoTorqueRise Violation = "E_NO_TORQUE_RISE"
	// ViolationZeroWork: no mechanical work was done.
	ViolationZeroWork Violation = "E_ZERO_WORK"
)

// Extractor derives fingerprints from raw curves. The zero value is not
// usable; construct with NewExtractor.
type Extractor struct {
	sanitizeThreshold float64
	resampleFreq      float64
}

// NewExtractor returns an Extractor with the given saturation threshold and
// resample frequency. Non-positive arguments fall back to the package
// defaults in signal.
func NewExtractor(sanitizeThreshold, resampleFreq float64) *Extractor {
	if sanitizeThreshold <= 0 {
		sanitizeThreshold = signal.DefaultSanitizeThreshold
	}
	if resampleFreq <= 0 {
		resampleFreq = signal.DefaultResampleFrequencyHz
	}
	return &Extractor{
		sanitizeThreshold: sanitizeThreshold,
		resampleFreq:      resampleFreq,
	}
}

// snugIndex locates the snug point: the first sample where torque reaches
// 10% of the curve's own peak. Everything before it is the free-running
// phase, before the fastener makes substantial resistance.
func snugIndex(torque []float64) int {
	if len(torque) == 0 {
		return 0
	}
	threshold := floats.Max(torque) * 0.10
	for i, t := range torque {
		if t >= threshold {
			return i
		}
	}
	return 0
}

// Extract sanitizes and resamples the curve, corrects for the free-running
// phase, and computes the physical fingerprint over the effective zone. If
// the effective zone holds fewer than 5 samples, or any derived quantity is
// non-finite, the zero sentinel is returned.
func (e *Extractor) Extract(c Curve) Fingerprint {
	torqueClean := signal.Sanitize(c.Torque, e.sanitizeThreshold)

	// Torque and angle are resampled independently onto the same uniform
	// time grid so indices line up for the snug cut.
	_, torqueRes := signal.Resample(c.Time, torqueClean, e.resampleFreq)
	_, angleRes := signal.Resample(c.Time, c.Angle, e.resampleFreq)

	snug := snugIndex(torqueRes)
	torqueEff := torqueRes[snug:]
	angleEff := angleRes[snug:]

	if len(torqueEff) < 5 {
		return Fingerprint{}
	}

	// The 30%-80% index range of the effective zone is the locally linear
	// rigidity region, clear of the snug transient and the final clamp.
	midStart := int(float64(len(torqueEff)) * 0.3)
	midEnd := int(float64(len(torqueEff)) * 0.8)

	fp := Fingerprint{
		PeakTorque:    floats.Max(torqueEff),
		SeatingAngle:  angleEff[len(angleEff)-1] - angleEff[0],
		RigiditySlope: signal.RobustSlope(angleEff[midStart:midEnd], torqueEff[midStart:midEnd]),
		TotalWork:     signal.Work(torqueEff, angleEff),
		SnugTorque:    torqueEff[0],
	}

	if !finite(fp.PeakTorque) || !finite(fp.SeatingAngle) || !finite(fp.RigiditySlope) ||
		!finite(fp.TotalWork) || !finite(fp.SnugTorque) {
		return Fingerprint{}
	}
	return fp
}

// CheckHardConstraints returns the physical constraints fp violates, in
// fixed priority order. An empty result means the sample is physically
// plausible and may enter the statistical baseline.
func CheckHardConstraints(fp Fingerprint) []Violation {
	var violations []Violation
	if fp.RigiditySlope <= 0 {
		violations = append(violations, ViolationNegSlope)
	}
	if fp.PeakTorque <= fp.SnugTorque {
		violations = append(violations, ViolationNoTorqueRise)
	}
	if fp.TotalWork <= 0 {
		violations = append(violations, ViolationZeroWork)
	}
	return violations
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
