// Package dense implements a fully connected layer and combiner
package dense

import (
	"math"

	"github.com/neurlang/digitnet/hash"
	"github.com/neurlang/digitnet/layer"
	"github.com/pkg/errors"
)

// DenseLayer describes a fully connected layer with units outputs.
type DenseLayer struct {
	units int
}

// Dense is an instantiated fully connected layer. Weights are stored as an inputs × units
// matrix followed by units biases. Inputs of any shape are read as a flat vector.
type Dense struct {
	in     layer.Shape
	units  int
	params []float64
}

// MustNew creates a new dense layer with units outputs
func MustNew(units int) *DenseLayer {
	o, err := New(units)
	if err != nil {
		panic(err.Error())
	}
	return o
}

// New creates a new dense layer with units outputs
func New(units int) (o *DenseLayer, err error) {
	if units <= 0 {
		return nil, errors.Errorf("New Dense: units %d must be positive", units)
	}
	return &DenseLayer{units: units}, nil
}

// Lay turns dense layer into a combiner
func (i *DenseLayer) Lay(in layer.Shape) (layer.Combiner, error) {
	if !in.Valid() {
		return nil, errors.Wrapf(layer.ErrShape, "dense input %s", in)
	}
	o := new(Dense)
	o.in = in
	o.units = i.units
	o.params = make([]float64, in.Size()*i.units+i.units)
	return o, nil
}

func (f *Dense) Kind() string          { return "dense" }
func (f *Dense) InShape() layer.Shape  { return f.in }
func (f *Dense) OutShape() layer.Shape { return layer.Flat(f.units) }
func (f *Dense) Params() []float64     { return f.params }

// Init draws Glorot uniform weights and zeroes the biases.
func (f *Dense) Init(seed uint32) {
	inputs := f.in.Size()
	limit := math.Sqrt(6 / float64(inputs+f.units))
	weights := inputs * f.units
	for n := range f.params {
		if n < weights {
			f.params[n] = hash.Uniform(uint32(n), seed, limit)
		} else {
			f.params[n] = 0
		}
	}
}
