package tensor

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/stat/distuv"
)

// Noise returns a standard-normal tensor of the given shape drawn from a
// source seeded with seed. The same seed always yields the same tensor, so
// a prompt's initial latent is fully determined by its seed.
func Noise(shape []int, seed int) Tensor {
	dist := distuv.Normal{
		Mu:    0,
		Sigma: 1,
		Src:   rand.NewSource(uint64(seed)),
	}

	t := Tensor{Shape: shape}
	t.Data = make([]float32, t.Len())
	for i := range t.Data {
		t.Data[i] = float32(dist.Rand())
	}
	return t
}
