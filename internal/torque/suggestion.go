package torque

import (
	"fmt"
	"math"
)

// Tuning thresholds for process optimization.
const (
	// cvThreshold is the coefficient-of-variation ceiling on rolling peak
	// torque; above it the process is "unstable" and a speed reduction is
	// proposed. 3% is the common industrial bar.
	cvThreshold = 0.03
	// driftSigmaThreshold is the rolling-vs-golden mean divergence, in
	// golden sigma units, past which a target adjustment is proposed.
	driftSigmaThreshold = 1.5
	// speedAdjustmentPercent is the fixed speed reduction proposed on an
	// unstable process.
	speedAdjustmentPercent = -10
)

// Suggestion is a process-optimization recommendation derived from the gap
// between the frozen golden baseline and the live rolling window.
type Suggestion struct {
	Status string         `json:"status"` // N/A, STABLE, or OPTIMIZE
	ECode  Code           `json:"e_code"`
	WCode  string         `json:"w_code"`
	RCode  Code           `json:"r_code"`
	Params map[string]any `json:"params"`
}

// Suggestion statuses.
const (
	SuggestionNotAvailable = "N/A"
	SuggestionStable       = "STABLE"
	SuggestionOptimize     = "OPTIMIZE"
)

// OptimizationSuggestion compares the rolling window against the golden
// baseline. It requires both; before the golden baseline freezes the status
// is N/A. Two independent checks can fire:
//
//   - Stability: CV of rolling peak torque above cvThreshold proposes a
//     fixed speed reduction. High scatter at constant target usually means
//     the driver is running too fast for the joint.
//   - Drift: any feature whose rolling mean has moved more than
//     driftSigmaThreshold golden sigmas proposes retargeting torque by the
//     percentage change of the rolling mean torque against the golden mean,
//     rounded to one decimal.
//
// Either check firing makes the overall status OPTIMIZE.
func (m *HoleModel) OptimizationSuggestion() Suggestion {
	if m.GoldenStats == nil || m.RollingStats == nil {
		return Suggestion{Status: SuggestionNotAvailable, Params: map[string]any{}}
	}

	params := map[string]any{}
	fired := false

	meanTorque := m.RollingStats.Mean[dimTorque]
	cv := m.RollingStats.Std[dimTorque] / (meanTorque + stdEpsilon)
	if cv > cvThreshold {
		params["suggested_speed_adjustment_percent"] = speedAdjustmentPercent
		params["reason_speed"] = fmt.Sprintf("High Variance (CV=%.2f%%), reduce speed to stabilize.", cv*100)
		fired = true
	}

	maxDrift := 0.0
	drifted := false
	for d := 0; d < featureDims; d++ {
		drift := math.Abs(m.RollingStats.Mean[d]-m.GoldenStats.Mean[d]) / m.GoldenStats.Std[d]
		if drift > maxDrift {
			maxDrift = drift
		}
		if drift > driftSigmaThreshold {
			drifted = true
		}
	}
	if drifted {
		golden := m.GoldenStats.Mean[dimTorque]
		pctChange := 0.0
		if golden != 0 {
			pctChange = (meanTorque - golden) / golden * 100
		}
		params["suggested_torque_adjustment_percent"] = math.Round(pctChange*10) / 10
		params["reason_torque"] = fmt.Sprintf("Mean Drift Detected (%.2f sigma)", maxDrift)
		fired = true
	}

	if fired {
		return Suggestion{
			Status: SuggestionOptimize,
			ECode:  CodeDriftDetected,
			WCode:  "0.8",
			RCode:  CodeUpdateParam,
			Params: params,
		}
	}
	return Suggestion{Status: SuggestionStable, Params: map[string]any{}}
}
