package feedforward

import (
	"github.com/neurlang/digitnet/layer/activation"
	"github.com/neurlang/digitnet/learning"
	"github.com/pkg/errors"
)

type compilation struct {
	learning.Compilation
	loss      learning.Loss
	optimizer learning.Optimizer

	// fused is set when the network ends in a softmax trained with cross-entropy; the
	// gradient then enters below the softmax as p - y.
	fused bool
}

// Compile sets the loss, the optimizer and the metrics. Compiling again resets the
// optimizer state.
func (f *FeedforwardNetwork) Compile(c learning.Compilation) error {
	if err := c.Validate(); err != nil {
		return err
	}
	loss, err := learning.LossByName(c.Loss)
	if err != nil {
		return err
	}
	opt, err := c.HyperParameters.NewOptimizer()
	if err != nil {
		return err
	}
	if len(f.combiners) == 0 {
		return errors.New("compiling an empty network")
	}
	fused := false
	if act, ok := f.combiners[len(f.combiners)-1].(*activation.Activation); ok {
		fused = act.Function() == activation.Softmax && c.Loss == learning.CategoricalCrossentropy
	}
	f.compiled = &compilation{Compilation: c, loss: loss, optimizer: opt, fused: fused}
	return nil
}

// Compiled reports whether Compile succeeded.
func (f *FeedforwardNetwork) Compiled() bool {
	return f.compiled != nil
}

// Compilation returns what the network was compiled with.
func (f *FeedforwardNetwork) Compilation() (learning.Compilation, error) {
	if f.compiled == nil {
		return learning.Compilation{}, ErrNotCompiled
	}
	return f.compiled.Compilation, nil
}

// Loss returns the compiled loss.
func (f *FeedforwardNetwork) Loss() (learning.Loss, error) {
	if f.compiled == nil {
		return nil, ErrNotCompiled
	}
	return f.compiled.loss, nil
}
