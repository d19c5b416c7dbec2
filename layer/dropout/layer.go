// Package dropout implements an inverted dropout layer and combiner
package dropout

import (
	"github.com/neurlang/digitnet/layer"
	"github.com/pkg/errors"
)

// DropoutLayer describes dropout with a rate.
type DropoutLayer struct {
	rate float64
}

// Dropout zeroes a rate fraction of its inputs during training and scales the survivors
// by 1/(1-rate). Outside training it is the identity.
type Dropout struct {
	in   layer.Shape
	rate float64
}

// New creates a new dropout layer with rate in [0, 1)
func New(rate float64) (*DropoutLayer, error) {
	if rate < 0 || rate >= 1 {
		return nil, errors.Errorf("New Dropout: rate %v outside [0, 1)", rate)
	}
	return &DropoutLayer{rate: rate}, nil
}

// MustNew creates a new dropout layer with rate in [0, 1)
func MustNew(rate float64) *DropoutLayer {
	o, err := New(rate)
	if err != nil {
		panic(err.Error())
	}
	return o
}

// Lay turns dropout layer into a combiner
func (d *DropoutLayer) Lay(in layer.Shape) (layer.Combiner, error) {
	if !in.Valid() {
		return nil, errors.Wrapf(layer.ErrShape, "dropout input %s", in)
	}
	return &Dropout{in: in, rate: d.rate}, nil
}

func (d *Dropout) Kind() string          { return "dropout" }
func (d *Dropout) InShape() layer.Shape  { return d.in }
func (d *Dropout) OutShape() layer.Shape { return d.in }
func (d *Dropout) Params() []float64     { return nil }
func (d *Dropout) Init(uint32)           {}

// Rate is the fraction of dropped inputs.
func (d *Dropout) Rate() float64 { return d.rate }
