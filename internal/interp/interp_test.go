package interp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func TestSlerpEndpoints(t *testing.T) {
	v0 := []float64{1, 0, 2, -1}
	v1 := []float64{0, 3, -1, 0.5}

	assert.InDeltaSlice(t, v0, Slerp(0, v0, v1), tolerance)
	assert.InDeltaSlice(t, v1, Slerp(1, v0, v1), tolerance)
}

func TestSlerpEqualVectorsFallsBackToLerp(t *testing.T) {
	v := []float64{0.5, -2, 3}

	for _, tt := range []float64{0, 0.25, 0.5, 0.75, 1} {
		got := Slerp(tt, v, v)
		want := Lerp(tt, v, v)
		assert.InDeltaSlice(t, want, got, tolerance, "t=%v", tt)
	}
}

func TestSlerpNearParallelFallsBackToLerp(t *testing.T) {
	v0 := []float64{1, 0}
	v1 := []float64{1, 1e-4}

	got := Slerp(0.5, v0, v1)
	want := Lerp(0.5, v0, v1)
	assert.InDeltaSlice(t, want, got, tolerance)
}

func TestSlerpOrthogonal(t *testing.T) {
	v0 := []float64{1, 0}
	v1 := []float64{0, 1}

	// Halfway along a quarter circle.
	got := Slerp(0.5, v0, v1)
	want := math.Sin(math.Pi/4) / math.Sin(math.Pi/2)
	assert.InDelta(t, want, got[0], tolerance)
	assert.InDelta(t, want, got[1], tolerance)
}

func TestSlerpSymmetry(t *testing.T) {
	v0 := []float64{2, -1, 0.5, 4}
	v1 := []float64{-0.5, 3, 1, -2}

	for _, tt := range []float64{0, 0.1, 0.3, 0.5, 0.7, 0.9, 1} {
		a := Slerp(tt, v0, v1)
		b := Slerp(1-tt, v1, v0)
		assert.InDeltaSlice(t, a, b, 1e-7, "t=%v", tt)
	}
}

func TestLerp(t *testing.T) {
	v0 := []float64{0, 10}
	v1 := []float64{10, 0}

	assert.InDeltaSlice(t, []float64{5, 5}, Lerp(0.5, v0, v1), tolerance)
	assert.InDeltaSlice(t, v0, Lerp(0, v0, v1), tolerance)
	assert.InDeltaSlice(t, v1, Lerp(1, v0, v1), tolerance)
}

func TestLinspace(t *testing.T) {
	got := Linspace(5)
	require.Len(t, got, 5)
	assert.InDeltaSlice(t, []float64{0, 0.25, 0.5, 0.75, 1}, got, tolerance)

	got = Linspace(2)
	assert.InDeltaSlice(t, []float64{0, 1}, got, tolerance)

	assert.Equal(t, []float64{0}, Linspace(1))
}
