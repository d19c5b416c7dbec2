// Package layertest checks combiners against finite differences.
package layertest

import (
	"math"
	"testing"

	"github.com/neurlang/digitnet/hash"
	"github.com/neurlang/digitnet/layer"
	"gonum.org/v1/gonum/floats"
)

const (
	step      = 1e-5
	tolerance = 1e-5
)

// Input returns n deterministic values in [-1, 1).
func Input(n int, seed uint32) []float64 {
	in := make([]float64, n)
	for i := range in {
		in[i] = hash.Uniform(uint32(i), seed, 1)
	}
	return in
}

// loss projects the output on fixed random weights so every output position matters.
func loss(c layer.Combiner, in []float64, pass layer.Pass, weights []float64) float64 {
	out, _ := c.Forward(in, pass)
	return floats.Dot(out, weights)
}

func near(analytic, numeric float64) bool {
	diff := math.Abs(analytic - numeric)
	scale := math.Max(1, math.Max(math.Abs(analytic), math.Abs(numeric)))
	return diff <= tolerance*scale
}

// CheckGradients compares Backward with central differences of Forward for every input and
// every parameter of c.
func CheckGradients(t *testing.T, c layer.Combiner, pass layer.Pass) {
	t.Helper()
	in := Input(c.InShape().Size(), 11)
	weights := Input(c.OutShape().Size(), 13)

	_, cache := c.Forward(in, pass)
	params := c.Params()
	gradParams := make([]float64, len(params))
	gradIn := c.Backward(cache, weights, gradParams)
	if len(gradIn) != len(in) {
		t.Fatalf("%s: input gradient has %d values, input has %d", c.Kind(), len(gradIn), len(in))
	}

	for i := range in {
		orig := in[i]
		in[i] = orig + step
		plus := loss(c, in, pass, weights)
		in[i] = orig - step
		minus := loss(c, in, pass, weights)
		in[i] = orig
		numeric := (plus - minus) / (2 * step)
		if !near(gradIn[i], numeric) {
			t.Errorf("%s: input %d gradient %v, numeric %v", c.Kind(), i, gradIn[i], numeric)
		}
	}
	for i := range params {
		orig := params[i]
		params[i] = orig + step
		plus := loss(c, in, pass, weights)
		params[i] = orig - step
		minus := loss(c, in, pass, weights)
		params[i] = orig
		numeric := (plus - minus) / (2 * step)
		if !near(gradParams[i], numeric) {
			t.Errorf("%s: param %d gradient %v, numeric %v", c.Kind(), i, gradParams[i], numeric)
		}
	}
}
