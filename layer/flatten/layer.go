// Package flatten implements the layer turning a feature map into a vector
package flatten

import (
	"github.com/neurlang/digitnet/layer"
	"github.com/pkg/errors"
)

// FlattenLayer describes a flatten layer.
type FlattenLayer struct{}

// Flatten reshapes height × width × channels into a vector. Data is channel last already,
// so the values pass through unchanged.
type Flatten struct {
	in layer.Shape
}

// New creates a new flatten layer
func New() *FlattenLayer {
	return &FlattenLayer{}
}

// Lay turns flatten layer into a combiner
func (FlattenLayer) Lay(in layer.Shape) (layer.Combiner, error) {
	if !in.Valid() {
		return nil, errors.Wrapf(layer.ErrShape, "flatten input %s", in)
	}
	return &Flatten{in: in}, nil
}

func (f *Flatten) Kind() string          { return "flatten" }
func (f *Flatten) InShape() layer.Shape  { return f.in }
func (f *Flatten) OutShape() layer.Shape { return layer.Flat(f.in.Size()) }
func (f *Flatten) Params() []float64     { return nil }
func (f *Flatten) Init(uint32)           {}

// Forward returns the input unchanged.
func (f *Flatten) Forward(in []float64, pass layer.Pass) ([]float64, layer.Cache) {
	return in, nil
}

// Backward returns the output gradient unchanged.
func (f *Flatten) Backward(cache layer.Cache, gradOut, gradParams []float64) []float64 {
	return gradOut
}
