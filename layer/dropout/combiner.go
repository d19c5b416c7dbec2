package dropout

import (
	"github.com/neurlang/digitnet/hash"
	"github.com/neurlang/digitnet/layer"
)

// Forward applies the mask drawn from pass.Seed when training.
func (d *Dropout) Forward(in []float64, pass layer.Pass) (out []float64, cache layer.Cache) {
	if !pass.Train || d.rate == 0 {
		return in, nil
	}
	scale := 1 / (1 - d.rate)
	mask := make([]float64, len(in))
	out = make([]float64, len(in))
	for n, v := range in {
		if hash.Keep(uint32(n), pass.Seed, d.rate) {
			mask[n] = scale
			out[n] = v * scale
		}
	}
	return out, mask
}

// Backward applies the same mask to the gradient.
func (d *Dropout) Backward(cache layer.Cache, gradOut, gradParams []float64) (gradIn []float64) {
	if cache == nil {
		return gradOut
	}
	mask := cache.([]float64)
	gradIn = make([]float64, len(gradOut))
	for n, m := range mask {
		gradIn[n] = gradOut[n] * m
	}
	return gradIn
}
