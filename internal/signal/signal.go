// Package signal provides conditioning primitives for raw torque-controller
// curves: glitch repair, time-axis resampling, robust slope estimation, and
// work integration. All functions operate on plain float64 slices and never
// mutate their inputs.
package signal

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate"
)

// DefaultSanitizeThreshold marks the sensor saturation ceiling. Overflowed
// ADC readings from the torque transducer arrive as values at or near the
// int16 limit.
const DefaultSanitizeThreshold = 32000

// DefaultResampleFrequencyHz is the uniform grid frequency curves are
// normalized to before derivative and integral computation.
const DefaultResampleFrequencyHz = 100.0

// Sanitize repairs sensor saturation and glitch samples in data. Samples
// above threshold or below zero are replaced by linear interpolation from
// the nearest valid neighbours, extrapolating at the boundaries. If fewer
// than two valid samples remain the whole signal is considered corrupt and
// an all-zero slice of the same length is returned.
func Sanitize(data []float64, threshold float64) []float64 {
	out := make([]float64, len(data))
	copy(out, data)

	var validX, validY []float64
	invalid := make([]int, 0)
	for i, v := range data {
		if v > threshold || v < 0 {
			invalid = append(invalid, i)
			continue
		}
		validX = append(validX, float64(i))
		validY = append(validY, v)
	}

	if len(invalid) == 0 {
		return out
	}
	if len(validX) < 2 {
		// Total corruption guard: nothing trustworthy to interpolate from.
		return make([]float64, len(data))
	}

	for _, i := range invalid {
		out[i] = Interpolate(validX, validY, float64(i))
	}
	return out
}

// Resample maps an irregularly sampled signal onto a uniform time grid
// spanning [time[0], time[len-1]] at targetFreq. With fewer than two
// timestamps the input is returned unchanged. The grid point count is
// round(duration*targetFreq); if that falls below 2 the original sample
// count is kept. Values outside the observed span are linearly extrapolated
// from the edge segments. Timestamps are assumed non-decreasing; this is
// not validated.
func Resample(times, data []float64, targetFreq float64) (newTimes, newData []float64) {
	if len(times) < 2 {
		return times, data
	}

	duration := times[len(times)-1] - times[0]
	n := int(math.Round(duration * targetFreq))
	if n < 2 {
		n = len(times)
	}

	newTimes = make([]float64, n)
	newData = make([]float64, n)
	step := duration / float64(n-1)
	for i := 0; i < n; i++ {
		t := times[0] + float64(i)*step
		if i == n-1 {
			t = times[len(times)-1]
		}
		newTimes[i] = t
		newData[i] = Interpolate(times, data, t)
	}
	return newTimes, newData
}

// RobustSlope estimates the slope of y over x with a Theil-Sen estimator:
// the median of all pairwise slopes. Isolated spikes that would drag a
// least-squares fit barely move the median. Returns 0 with fewer than three
// points.
func RobustSlope(x, y []float64) float64 {
	if len(x) < 3 || len(x) != len(y) {
		return 0
	}

	slopes := make([]float64, 0, len(x)*(len(x)-1)/2)
	for i := 0; i < len(x); i++ {
		for j := i + 1; j < len(x); j++ {
			dx := x[j] - x[i]
			if dx == 0 {
				continue
			}
			slopes = append(slopes, (y[j]-y[i])/dx)
		}
	}
	if len(slopes) == 0 {
		return 0
	}

	sort.Float64s(slopes)
	mid := len(slopes) / 2
	if len(slopes)%2 == 1 {
		return slopes[mid]
	}
	return (slopes[mid-1] + slopes[mid]) / 2
}

// Work integrates torque over angle (degrees, converted to radians) with
// the trapezoidal rule and clamps the result at zero: a negative integral
// on a fastening curve is numerical noise, not physics.
func Work(torque, angleDeg []float64) float64 {
	if len(torque) < 2 || len(torque) != len(angleDeg) {
		return 0
	}

	rad := make([]float64, len(angleDeg))
	for i, a := range angleDeg {
		rad[i] = a * math.Pi / 180
	}

	var w float64
	if sorted(rad) {
		w = integrate.Trapezoidal(rad, torque)
	} else {
		// Noisy angle samples can go non-monotone; fall back to a direct
		// trapezoid sum which tolerates reversals the same way the
		// resampled path does.
		for i := 1; i < len(rad); i++ {
			w += (torque[i] + torque[i-1]) / 2 * (rad[i] - rad[i-1])
		}
	}
	return math.Max(0, w)
}

// Interpolate evaluates the piecewise-linear function through (xs, ys) at x,
// extrapolating from the edge segments outside the observed range. xs must
// be sorted ascending and at least two points long.
func Interpolate(xs, ys []float64, x float64) float64 {
	n := len(xs)
	// Locate the segment via binary search for the first xs[i] >= x.
	i := sort.SearchFloat64s(xs, x)
	switch {
	case i == 0:
		i = 1
	case i >= n:
		i = n - 1
	}

	x0, x1 := xs[i-1], xs[i]
	y0, y1 := ys[i-1], ys[i]
	if x1 == x0 {
		return y0
	}
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}

func sorted(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i] < xs[i-1] {
			return false
		}
	}
	return true
}
