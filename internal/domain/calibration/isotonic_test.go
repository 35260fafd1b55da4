package calibration_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkdev28/Cropp/internal/domain/calibration"
)

func TestFitIsotonic_PoolsViolators(t *testing.T) {
	raw := []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}
	labels := []float64{0, 1, 0, 0, 1, 1}

	iso, err := calibration.FitIsotonic(raw, labels)
	require.NoError(t, err)
	require.NoError(t, iso.Validate())

	assert.Equal(t, 0.0, iso.Predict(0.1))
	assert.InDelta(t, 1.0/3, iso.Predict(0.3), 1e-12)
	assert.Equal(t, 1.0, iso.Predict(0.6))
}

func TestIsotonic_InterpolatesAndClips(t *testing.T) {
	iso := &calibration.Isotonic{X: []float64{0.2, 0.4, 0.8}, Y: []float64{0.1, 0.3, 0.9}}

	assert.Equal(t, 0.1, iso.Predict(0))
	assert.Equal(t, 0.9, iso.Predict(1))
	assert.InDelta(t, 0.2, iso.Predict(0.3), 1e-12)
	assert.InDelta(t, 0.6, iso.Predict(0.6), 1e-12)
}

func TestIsotonic_Monotone(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	raw := make([]float64, 500)
	labels := make([]float64, 500)
	for i := range raw {
		raw[i] = rnd.Float64()
		if rnd.Float64() < raw[i] {
			labels[i] = 1
		}
	}

	iso, err := calibration.FitIsotonic(raw, labels)
	require.NoError(t, err)

	prev := -1.0
	for p := -0.1; p <= 1.1; p += 0.001 {
		v := iso.Predict(p)
		assert.GreaterOrEqual(t, v, prev)
		assert.True(t, v >= 0 && v <= 1)
		prev = v
	}
}

func TestFitIsotonic_TiesShareValue(t *testing.T) {
	iso, err := calibration.FitIsotonic([]float64{0.5, 0.5, 0.7, 0.7}, []float64{0, 1, 1, 1})
	require.NoError(t, err)

	assert.Equal(t, 0.5, iso.Predict(0.5))
	assert.Equal(t, 1.0, iso.Predict(0.7))
}

func TestFitIsotonic_Degenerate(t *testing.T) {
	tests := []struct {
		name   string
		raw    []float64
		labels []float64
	}{
		{"empty", nil, nil},
		{"single class", []float64{0.1, 0.5, 0.9}, []float64{1, 1, 1}},
		{"one distinct input", []float64{0.4, 0.4, 0.4}, []float64{0, 1, 0}},
		{"non-finite", []float64{0.1, math.NaN()}, []float64{0, 1}},
		{"length mismatch", []float64{0.1, 0.2}, []float64{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := calibration.FitIsotonic(tt.raw, tt.labels)
			assert.ErrorIs(t, err, calibration.ErrDegenerate)
		})
	}
}
