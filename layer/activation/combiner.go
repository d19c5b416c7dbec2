package activation

import (
	"math"

	"github.com/neurlang/digitnet/layer"
	"gonum.org/v1/gonum/floats"
)

// Forward applies the activation. The cache is the output.
func (a *Activation) Forward(in []float64, pass layer.Pass) (out []float64, cache layer.Cache) {
	switch a.fn {
	case ReLU:
		out = make([]float64, len(in))
		for n, v := range in {
			if v > 0 {
				out[n] = v
			}
		}
	case Softmax:
		out = SoftmaxOf(in)
	default:
		out = in
	}
	return out, out
}

// Backward multiplies the gradient by the activation's Jacobian.
func (a *Activation) Backward(cache layer.Cache, gradOut, gradParams []float64) (gradIn []float64) {
	out := cache.([]float64)
	switch a.fn {
	case ReLU:
		gradIn = make([]float64, len(gradOut))
		for n, v := range out {
			if v > 0 {
				gradIn[n] = gradOut[n]
			}
		}
	case Softmax:
		dot := floats.Dot(gradOut, out)
		gradIn = make([]float64, len(gradOut))
		for n, p := range out {
			gradIn[n] = p * (gradOut[n] - dot)
		}
	default:
		gradIn = gradOut
	}
	return gradIn
}

// SoftmaxOf returns exp(x)/sum(exp(x)), shifted by the maximum for stability.
func SoftmaxOf(x []float64) []float64 {
	out := make([]float64, len(x))
	if len(x) == 0 {
		return out
	}
	m := floats.Max(x)
	var sum float64
	for n, v := range x {
		out[n] = math.Exp(v - m)
		sum += out[n]
	}
	floats.Scale(1/sum, out)
	return out
}
