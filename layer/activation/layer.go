// Package activation implements element-wise and softmax activation layers
package activation

import (
	"github.com/neurlang/digitnet/layer"
	"github.com/pkg/errors"
)

// Function names an activation.
type Function string

const (
	Linear  Function = "linear"
	ReLU    Function = "relu"
	Softmax Function = "softmax"
)

// ErrUnknown is returned for an activation name that is not implemented.
var ErrUnknown = errors.New("unknown activation")

// Parse validates an activation name. The empty name means Linear.
func Parse(name string) (Function, error) {
	switch Function(name) {
	case "", Linear:
		return Linear, nil
	case ReLU, Softmax:
		return Function(name), nil
	}
	return "", errors.Wrapf(ErrUnknown, "%q", name)
}

// ActivationLayer describes an activation layer.
type ActivationLayer struct {
	fn Function
}

// Activation applies fn to every sample. Softmax normalizes over the whole sample.
type Activation struct {
	in layer.Shape
	fn Function
}

// New creates a new activation layer
func New(name string) (*ActivationLayer, error) {
	fn, err := Parse(name)
	if err != nil {
		return nil, err
	}
	return &ActivationLayer{fn: fn}, nil
}

// MustNew creates a new activation layer
func MustNew(name string) *ActivationLayer {
	o, err := New(name)
	if err != nil {
		panic(err.Error())
	}
	return o
}

// Lay turns activation layer into a combiner
func (a *ActivationLayer) Lay(in layer.Shape) (layer.Combiner, error) {
	if !in.Valid() {
		return nil, errors.Wrapf(layer.ErrShape, "activation input %s", in)
	}
	return &Activation{in: in, fn: a.fn}, nil
}

func (a *Activation) Kind() string          { return "activation" }
func (a *Activation) InShape() layer.Shape  { return a.in }
func (a *Activation) OutShape() layer.Shape { return a.in }
func (a *Activation) Params() []float64     { return nil }
func (a *Activation) Init(uint32)           {}

// Function reports the activation applied.
func (a *Activation) Function() Function { return a.fn }
