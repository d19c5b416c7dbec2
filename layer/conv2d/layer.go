// Package conv2d implements a 2D convolution layer and combiner
package conv2d

import (
	"math"

	"github.com/neurlang/digitnet/hash"
	"github.com/neurlang/digitnet/layer"
	"github.com/pkg/errors"
)

// Conv2DLayer describes a stride 1, valid padding convolution.
type Conv2DLayer struct {
	filters, subheight, subwidth int
}

// Conv2D is an instantiated convolution. Weights are stored as a
// (subheight*subwidth*channels) × filters matrix followed by filters biases.
type Conv2D struct {
	in, out                      layer.Shape
	filters, subheight, subwidth int
	params                       []float64
}

// MustNew creates a new Conv2D layer with filters and kernel size
func MustNew(filters, subheight, subwidth int) *Conv2DLayer {
	o, err := New(filters, subheight, subwidth)
	if err != nil {
		panic(err.Error())
	}
	return o
}

// New creates a new Conv2D layer with filters and kernel size
func New(filters, subheight, subwidth int) (o *Conv2DLayer, err error) {
	if filters <= 0 {
		return nil, errors.Errorf("New Conv2D: filters %d must be positive", filters)
	}
	if subheight <= 0 || subwidth <= 0 {
		return nil, errors.Errorf("New Conv2D: kernel %dx%d must be positive", subheight, subwidth)
	}
	o = new(Conv2DLayer)
	o.filters = filters
	o.subheight = subheight
	o.subwidth = subwidth
	return
}

// Lay turns Conv2D layer into a combiner
func (i *Conv2DLayer) Lay(in layer.Shape) (layer.Combiner, error) {
	if !in.Valid() {
		return nil, errors.Wrapf(layer.ErrShape, "conv2d input %s", in)
	}
	if in.Height < i.subheight || in.Width < i.subwidth {
		return nil, errors.Wrapf(layer.ErrShape, "conv2d kernel %dx%d larger than input %s", i.subheight, i.subwidth, in)
	}
	var o Conv2D
	o.in = in
	o.out = layer.Shape{
		Height:   in.Height - i.subheight + 1,
		Width:    in.Width - i.subwidth + 1,
		Channels: i.filters,
	}
	o.filters = i.filters
	o.subheight = i.subheight
	o.subwidth = i.subwidth
	o.params = make([]float64, o.patch()*o.filters+o.filters)
	return &o, nil
}

func (f *Conv2D) patch() int {
	return f.subheight * f.subwidth * f.in.Channels
}

// Kind names the layer kind.
func (f *Conv2D) Kind() string { return "conv2d" }

// InShape is the shape of one input sample.
func (f *Conv2D) InShape() layer.Shape { return f.in }

// OutShape is the shape of one output sample.
func (f *Conv2D) OutShape() layer.Shape { return f.out }

// Params returns weights followed by biases.
func (f *Conv2D) Params() []float64 { return f.params }

// Init draws Glorot uniform weights and zeroes the biases.
func (f *Conv2D) Init(seed uint32) {
	fanIn := f.patch()
	fanOut := f.subheight * f.subwidth * f.filters
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	weights := f.patch() * f.filters
	for n := range f.params {
		if n < weights {
			f.params[n] = hash.Uniform(uint32(n), seed, limit)
		} else {
			f.params[n] = 0
		}
	}
}
