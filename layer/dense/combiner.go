package dense

import (
	"github.com/neurlang/digitnet/layer"
	"gonum.org/v1/gonum/floats"
)

// Forward computes in·W + b.
func (f *Dense) Forward(in []float64, pass layer.Pass) (out []float64, cache layer.Cache) {
	u := f.units
	weights := len(in) * u
	out = make([]float64, u)
	copy(out, f.params[weights:])
	for i, x := range in {
		if x == 0 {
			continue
		}
		floats.AddScaled(out, x, f.params[i*u:(i+1)*u])
	}
	return out, in
}

// Backward accumulates the outer product in ⊗ gradOut into the weights and returns W·gradOut.
func (f *Dense) Backward(cache layer.Cache, gradOut, gradParams []float64) (gradIn []float64) {
	in := cache.([]float64)
	u := f.units
	weights := len(in) * u
	gradIn = make([]float64, len(in))
	for i, x := range in {
		if x != 0 {
			floats.AddScaled(gradParams[i*u:(i+1)*u], x, gradOut)
		}
		gradIn[i] = floats.Dot(f.params[i*u:(i+1)*u], gradOut)
	}
	floats.Add(gradParams[weights:], gradOut)
	return gradIn
}
