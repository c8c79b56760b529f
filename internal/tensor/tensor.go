// Package tensor defines the dense tensor representation exchanged with the
// generation pipeline, and the conversion boundary between it and the
// []float64 vectors the interpolation math works on.
package tensor

// Tensor is a dense float32 tensor in the pipeline's wire layout.
type Tensor struct {
	Shape []int     `json:"shape"`
	Data  []float32 `json:"data"`
}

// New builds a tensor with the given shape from canonical float64 data.
func New(shape []int, data []float64) Tensor {
	out := Tensor{Shape: shape, Data: make([]float32, len(data))}
	for i, v := range data {
		out.Data[i] = float32(v)
	}
	return out
}

// Len returns the number of elements implied by the shape.
func (t Tensor) Len() int {
	if len(t.Shape) == 0 {
		return 0
	}
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// Float64s returns the flattened data in the canonical representation.
func (t Tensor) Float64s() []float64 {
	out := make([]float64, len(t.Data))
	for i, v := range t.Data {
		out[i] = float64(v)
	}
	return out
}
