// Package feedforward implements the feedforward network type: an ordered stack of layer
// combiners which is built from an architecture, compiled with a loss and an optimizer,
// trained batch by batch and persisted to disk.
package feedforward

import (
	"github.com/neurlang/digitnet/config"
	"github.com/neurlang/digitnet/hash"
	"github.com/neurlang/digitnet/layer"
	"github.com/neurlang/digitnet/layer/activation"
	"github.com/neurlang/digitnet/layer/conv2d"
	"github.com/neurlang/digitnet/layer/dense"
	"github.com/neurlang/digitnet/layer/dropout"
	"github.com/neurlang/digitnet/layer/flatten"
	"github.com/neurlang/digitnet/layer/maxpool2d"
	"github.com/neurlang/digitnet/parallel"
	"github.com/pkg/errors"
)

// ErrNotCompiled is returned when training or evaluating a network that was never compiled.
var ErrNotCompiled = errors.New("network is not compiled")

// FeedforwardNetwork is the feedforward network
type FeedforwardNetwork struct {
	input     layer.Shape
	combiners []layer.Combiner

	// records are the architecture records; owner maps each combiner to its record, -1 for
	// combiners added directly.
	records  []config.LayerSpec
	owner    []int
	detached bool

	compiled *compilation
	seed     uint32

	// Metadata is stored alongside the weights.
	Metadata Metadata

	// Workers bounds the goroutines used per batch. Zero means parallel.Workers().
	Workers int
}

// Metadata describes where a set of weights came from.
type Metadata struct {
	RunID       string  `json:"run_id,omitempty"`
	Epochs      int     `json:"epochs,omitempty"`
	ValAccuracy float64 `json:"val_accuracy,omitempty"`
}

// New creates an empty network consuming samples of the given shape.
func New(input layer.Shape) (*FeedforwardNetwork, error) {
	if !input.Valid() {
		return nil, errors.Wrapf(layer.ErrShape, "network input %s", input)
	}
	return &FeedforwardNetwork{input: input}, nil
}

// Build creates a network from an architecture and initializes its parameters from seed.
func Build(arch config.Architecture, seed uint32) (*FeedforwardNetwork, error) {
	if err := arch.Validate(); err != nil {
		return nil, err
	}
	f, err := New(arch.Input)
	if err != nil {
		return nil, err
	}
	for i, spec := range arch.Layers {
		if err := f.NewLayer(spec); err != nil {
			return nil, errors.Wrapf(err, "layer %d (%s)", i, spec.Kind)
		}
	}
	f.Init(seed)
	return f, nil
}

// Layers returns the layer descriptors a record expands to: conv2d and dense records with an
// activation become the layer followed by an activation layer.
func Layers(spec config.LayerSpec) (o []layer.Layer, err error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	switch spec.Kind {
	case config.Conv2D:
		l, err := conv2d.New(spec.Filters, spec.Kernel[0], spec.Kernel[1])
		if err != nil {
			return nil, err
		}
		o = append(o, l)
	case config.MaxPool2D:
		l, err := maxpool2d.New(spec.Pool[0], spec.Pool[1])
		if err != nil {
			return nil, err
		}
		o = append(o, l)
	case config.Flatten:
		o = append(o, flatten.New())
	case config.Dropout:
		l, err := dropout.New(spec.Rate)
		if err != nil {
			return nil, err
		}
		o = append(o, l)
	case config.Dense:
		l, err := dense.New(spec.Units)
		if err != nil {
			return nil, err
		}
		o = append(o, l)
	}
	if spec.Kind == config.Activation || (spec.Activation != "" && spec.Activation != string(activation.Linear)) {
		l, err := activation.New(spec.Activation)
		if err != nil {
			return nil, err
		}
		o = append(o, l)
	}
	return o, nil
}

// NewLayer adds the combiners of an architecture record to the end of the network.
func (f *FeedforwardNetwork) NewLayer(spec config.LayerSpec) error {
	layers, err := Layers(spec)
	if err != nil {
		return err
	}
	f.records = append(f.records, spec)
	for _, l := range layers {
		if err := f.add(l, len(f.records)-1); err != nil {
			f.records = f.records[:len(f.records)-1]
			return err
		}
	}
	return nil
}

// NewCombiner adds a combiner layer to the end of network. A network with combiners added
// this way has no architecture record and cannot be saved.
func (f *FeedforwardNetwork) NewCombiner(l layer.Layer) error {
	if err := f.add(l, -1); err != nil {
		return err
	}
	f.detached = true
	return nil
}

// MustNewCombiner adds a combiner layer to the end of network, panicking on shape errors.
func (f *FeedforwardNetwork) MustNewCombiner(l layer.Layer) {
	if err := f.NewCombiner(l); err != nil {
		panic(err.Error())
	}
}

func (f *FeedforwardNetwork) add(l layer.Layer, record int) error {
	c, err := l.Lay(f.OutShape())
	if err != nil {
		return err
	}
	f.combiners = append(f.combiners, c)
	f.owner = append(f.owner, record)
	return nil
}

// Architecture returns the records the network was built from.
func (f *FeedforwardNetwork) Architecture() (config.Architecture, error) {
	if f.detached {
		return config.Architecture{}, errors.New("network has combiners without an architecture record")
	}
	return config.Architecture{Input: f.input, Layers: append([]config.LayerSpec(nil), f.records...)}, nil
}

// Init (re)initializes all parameters, each combiner from its own stream of seed.
func (f *FeedforwardNetwork) Init(seed uint32) {
	f.seed = seed
	for i, c := range f.combiners {
		c.Init(hash.Uint32(uint32(i), seed))
	}
}

// InShape is the shape of one input sample.
func (f *FeedforwardNetwork) InShape() layer.Shape {
	return f.input
}

// OutShape is the shape of one output sample.
func (f *FeedforwardNetwork) OutShape() layer.Shape {
	if len(f.combiners) == 0 {
		return f.input
	}
	return f.combiners[len(f.combiners)-1].OutShape()
}

// Len returns the number of combiners.
func (f *FeedforwardNetwork) Len() int {
	return len(f.combiners)
}

// Combiner returns the n-th combiner.
func (f *FeedforwardNetwork) Combiner(n int) layer.Combiner {
	return f.combiners[n]
}

// Params returns the parameter slices of every combiner, in order. Combiners without
// parameters contribute empty slices.
func (f *FeedforwardNetwork) Params() [][]float64 {
	o := make([][]float64, len(f.combiners))
	for i, c := range f.combiners {
		o[i] = c.Params()
	}
	return o
}

// CountParams is the total number of trainable parameters.
func (f *FeedforwardNetwork) CountParams() (n int) {
	for _, c := range f.combiners {
		n += len(c.Params())
	}
	return
}

func (f *FeedforwardNetwork) workers() int {
	if f.Workers > 0 {
		return f.Workers
	}
	return parallel.Workers()
}

// forward runs one sample through the network. The per-combiner caches are kept only when
// training.
func (f *FeedforwardNetwork) forward(in []float64, pass layer.Pass, caches []layer.Cache) []float64 {
	seed := pass.Seed
	for i, c := range f.combiners {
		pass.Seed = hash.Uint32(uint32(i), seed)
		var cache layer.Cache
		in, cache = c.Forward(in, pass)
		if caches != nil {
			caches[i] = cache
		}
	}
	return in
}
