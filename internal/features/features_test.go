package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurveValidate(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()
		c := Curve{Torque: []float64{1, 2}, Angle: []float64{0, 1}, Time: []float64{0, 0.1}}
		assert.NoError(t, c.Validate())
	})

	t.Run("empty torque", func(t *testing.T) {
		t.Parallel()
		c := Curve{}
		assert.Error(t, c.Validate())
	})

	t.Run("length mismatch", func(t *testing.T) {
		t.Parallel()
		c := Curve{Torque: []float64{1, 2}, Angle: []float64{0}, Time: []float64{0, 0.1}}
		assert.Error(t, c.Validate())
	})
}

// referenceCurve is a realistic short fastening trace: free run, snug,
// rigidity ramp to 5 Nm.
func referenceCurve() Curve {
	return Curve{
		Torque: []float64{0, 0.5, 1.2, 2.8, 4.5, 5.0},
		Angle:  []float64{0, 10.5, 45, 90, 150, 180},
		Time:   []float64{0.01, 0.05, 0.12, 0.25, 0.45, 0.6},
	}
}

func TestExtract_ReferenceCurve(t *testing.T) {
	t.Parallel()

	fp := NewExtractor(0, 0).Extract(referenceCurve())
	require.False(t, fp.IsZero())

	assert.InDelta(t, 5.0, fp.PeakTorque, 0.1)
	assert.Greater(t, fp.RigiditySlope, 0.0)
	assert.Greater(t, fp.TotalWork, 0.0)
	assert.Greater(t, fp.SeatingAngle, 0.0)
	assert.Less(t, fp.SnugTorque, fp.PeakTorque)

	assert.Empty(t, CheckHardConstraints(fp))
}

func TestExtract_ShortEffectiveZone(t *testing.T) {
	t.Parallel()

	// Two samples cannot produce an effective zone of 5; resampling a
	// 10 ms trace keeps the original count.
	c := Curve{
		Torque: []float64{0, 1},
		Angle:  []float64{0, 5},
		Time:   []float64{0, 0.01},
	}
	fp := NewExtractor(0, 0).Extract(c)
	assert.True(t, fp.IsZero())
}

func TestExtract_SaturatedCurveRepaired(t *testing.T) {
	t.Parallel()

	c := referenceCurve()
	c.Torque[3] = 32767 // transducer overflow mid-ramp
	fp := NewExtractor(0, 0).Extract(c)
	require.False(t, fp.IsZero())
	assert.InDelta(t, 5.0, fp.PeakTorque, 0.2)
	assert.Empty(t, CheckHardConstraints(fp))
}

func TestVector_OrderIsFixed(t *testing.T) {
	t.Parallel()

	fp := Fingerprint{PeakTorque: 1, RigiditySlope: 2, TotalWork: 3, SeatingAngle: 9, SnugTorque: 9}
	assert.Equal(t, []float64{1, 2, 3}, fp.Vector())
}

func TestCheckHardConstraints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fp   Fingerprint
		want []Violation
	}{
		{
			name: "all pass",
			fp:   Fingerprint{PeakTorque: 5, SnugTorque: 0.5, RigiditySlope: 0.03, TotalWork: 4},
			want: nil,
		},
		{
			name: "negative slope",
			fp:   Fingerprint{PeakTorque: 5, SnugTorque: 0.5, RigiditySlope: -0.1, TotalWork: 4},
			want: []Violation{ViolationNegSlope},
		},
		{
			name: "no torque rise",
			fp:   Fingerprint{PeakTorque: 0.5, SnugTorque: 0.5, RigiditySlope: 0.03, TotalWork: 4},
			want: []Violation{ViolationNoTorqueRise},
		},
		{
			name: "zero work",
			fp:   Fingerprint{PeakTorque: 5, SnugTorque: 0.5, RigiditySlope: 0.03, TotalWork: 0},
			want: []Violation{ViolationZeroWork},
		},
		{
			name: "flat dead curve violates everything",
			fp:   Fingerprint{},
			want: []Violation{ViolationNegSlope, ViolationNoTorqueRise, ViolationZeroWork},
		},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, CheckHardConstraints(tc.fp))
		})
	}
}
