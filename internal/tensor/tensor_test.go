package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLen(t *testing.T) {
	assert.Equal(t, 24, Tensor{Shape: []int{1, 4, 2, 3}}.Len())
	assert.Equal(t, 5, Tensor{Shape: []int{5}}.Len())
	assert.Equal(t, 0, Tensor{}.Len())
}

func TestRoundTrip(t *testing.T) {
	data := []float64{0.5, -1.25, 3, 0}
	tt := New([]int{2, 2}, data)

	require.Equal(t, []int{2, 2}, tt.Shape)
	assert.InDeltaSlice(t, data, tt.Float64s(), 1e-6)
}

func TestNoiseDeterministic(t *testing.T) {
	shape := []int{1, 4, 8, 8}

	a := Noise(shape, 42)
	b := Noise(shape, 42)
	require.Equal(t, a.Len(), len(a.Data))
	assert.Equal(t, a.Data, b.Data)

	c := Noise(shape, 43)
	assert.NotEqual(t, a.Data, c.Data)
}

func TestNoiseLooksGaussian(t *testing.T) {
	n := Noise([]int{1, 4, 64, 64}, 7)

	var sum float64
	for _, v := range n.Data {
		sum += float64(v)
	}
	mean := sum / float64(len(n.Data))
	assert.InDelta(t, 0, mean, 0.05)
}
