// Package interp holds the pure interpolation math used to build smooth
// trajectories between prompt embeddings and noise latents. All functions
// operate on the canonical []float64 representation; conversion to and from
// the pipeline's tensor representation happens at the call sites.
package interp

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Above this cosine similarity the vectors are close enough to parallel
// that the spherical formula is numerically unstable.
const dotThreshold = 0.9995

// Lerp returns the linear interpolation (1-t)*v0 + t*v1.
func Lerp(t float64, v0, v1 []float64) []float64 {
	out := make([]float64, len(v0))
	for i := range v0 {
		out[i] = (1-t)*v0[i] + t*v1[i]
	}
	return out
}

// Slerp spherically interpolates between v0 and v1 at parameter t in [0,1].
// The cosine similarity is computed over the flattened vectors, so
// multi-dimensional inputs still yield a single scalar similarity. Near
// parallel or anti-parallel inputs fall back to Lerp.
func Slerp(t float64, v0, v1 []float64) []float64 {
	dot := floats.Dot(v0, v1) / (floats.Norm(v0, 2) * floats.Norm(v1, 2))
	if math.Abs(dot) > dotThreshold {
		return Lerp(t, v0, v1)
	}

	theta0 := math.Acos(dot)
	sinTheta0 := math.Sin(theta0)
	thetaT := theta0 * t
	s0 := math.Sin(theta0-thetaT) / sinTheta0
	s1 := math.Sin(thetaT) / sinTheta0

	out := make([]float64, len(v0))
	for i := range v0 {
		out[i] = s0*v0[i] + s1*v1[i]
	}
	return out
}

// Linspace returns n evenly spaced samples covering [0,1] inclusive.
func Linspace(n int) []float64 {
	if n <= 1 {
		return []float64{0}
	}
	return floats.Span(make([]float64, n), 0, 1)
}
