// Package layer defines the layer descriptor and runtime combiner interfaces shared by the
// layer kinds of the feedforward network.
package layer

// Pass carries the per-sample context of one forward call.
type Pass struct {

	// Train enables training-only behaviour such as dropout.
	Train bool

	// Seed selects the random stream used by stochastic combiners for this sample.
	Seed uint32
}

// Cache is whatever a combiner needs to remember between Forward and Backward for one sample.
type Cache interface{}

// Combiner is one instantiated layer. Combiners own their parameters and are safe for
// concurrent Forward and Backward calls as long as the parameters are not being updated.
type Combiner interface {

	// Kind names the layer kind, like "conv2d".
	Kind() string

	// InShape is the shape of one input sample.
	InShape() Shape

	// OutShape is the shape of one output sample.
	OutShape() Shape

	// Params returns the trainable parameters as one flat slice, nil if there are none.
	// Optimizers update the returned slice in place.
	Params() []float64

	// Init (re)initializes the parameters deterministically from seed.
	Init(seed uint32)

	// Forward computes the output for one sample.
	Forward(in []float64, pass Pass) (out []float64, cache Cache)

	// Backward receives the gradient of the loss with respect to the output, accumulates the
	// gradient with respect to the parameters into gradParams (same length as Params) and
	// returns the gradient with respect to the input.
	Backward(cache Cache, gradOut, gradParams []float64) (gradIn []float64)
}
