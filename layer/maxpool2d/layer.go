// Package maxpool2d implements a 2D max pooling layer and combiner
package maxpool2d

import (
	"github.com/neurlang/digitnet/layer"
	"github.com/pkg/errors"
)

// MaxPool2DLayer describes non overlapping max pooling, stride equal to the pool size.
type MaxPool2DLayer struct {
	subheight, subwidth int
}

// MaxPool2D is an instantiated max pooling. Trailing rows and columns which do not fill a
// whole window are dropped.
type MaxPool2D struct {
	in, out             layer.Shape
	subheight, subwidth int
}

// New creates a new MaxPool2D layer with pool size
func New(subheight, subwidth int) (o *MaxPool2DLayer, err error) {
	if subheight <= 0 || subwidth <= 0 {
		return nil, errors.Errorf("New MaxPool2D: pool %dx%d must be positive", subheight, subwidth)
	}
	return &MaxPool2DLayer{subheight: subheight, subwidth: subwidth}, nil
}

// MustNew creates a new MaxPool2D layer with pool size
func MustNew(subheight, subwidth int) *MaxPool2DLayer {
	o, err := New(subheight, subwidth)
	if err != nil {
		panic(err.Error())
	}
	return o
}

// Lay turns MaxPool2D layer into a combiner
func (i *MaxPool2DLayer) Lay(in layer.Shape) (layer.Combiner, error) {
	if !in.Valid() || in.Height < i.subheight || in.Width < i.subwidth {
		return nil, errors.Wrapf(layer.ErrShape, "maxpool2d pool %dx%d on input %s", i.subheight, i.subwidth, in)
	}
	var o MaxPool2D
	o.in = in
	o.out = layer.Shape{
		Height:   in.Height / i.subheight,
		Width:    in.Width / i.subwidth,
		Channels: in.Channels,
	}
	o.subheight = i.subheight
	o.subwidth = i.subwidth
	return &o, nil
}

func (s *MaxPool2D) Kind() string          { return "maxpool2d" }
func (s *MaxPool2D) InShape() layer.Shape  { return s.in }
func (s *MaxPool2D) OutShape() layer.Shape { return s.out }
func (s *MaxPool2D) Params() []float64     { return nil }
func (s *MaxPool2D) Init(uint32)           {}
