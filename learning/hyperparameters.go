// Package learning implements the optimizers, losses and metrics the network is compiled with.
package learning

import "github.com/pkg/errors"

// ErrHyperParameters is returned for an invalid optimizer configuration.
var ErrHyperParameters = errors.New("invalid hyperparameters")

// HyperParameters configure the optimizer.
type HyperParameters struct {
	Optimizer    string  `json:"optimizer" yaml:"optimizer"`         // adam or sgd
	LearningRate float64 `json:"learning_rate" yaml:"learning_rate"` // step size
	Beta1        float64 `json:"beta1" yaml:"beta1"`                 // adam first moment decay
	Beta2        float64 `json:"beta2" yaml:"beta2"`                 // adam second moment decay
	Epsilon      float64 `json:"epsilon" yaml:"epsilon"`             // adam denominator fuzz
	Momentum     float64 `json:"momentum" yaml:"momentum"`           // sgd momentum
}

// DefaultHyperParameters are Adam's usual defaults.
func DefaultHyperParameters() HyperParameters {
	return HyperParameters{
		Optimizer:    "adam",
		LearningRate: 0.001,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-7,
	}
}

// Validate checks the ranges of the hyperparameters.
func (h HyperParameters) Validate() error {
	if !(h.LearningRate > 0) {
		return errors.Wrapf(ErrHyperParameters, "learning rate %v", h.LearningRate)
	}
	switch h.Optimizer {
	case "adam":
		if h.Beta1 < 0 || h.Beta1 >= 1 || h.Beta2 < 0 || h.Beta2 >= 1 {
			return errors.Wrapf(ErrHyperParameters, "adam betas %v, %v", h.Beta1, h.Beta2)
		}
		if !(h.Epsilon > 0) {
			return errors.Wrapf(ErrHyperParameters, "adam epsilon %v", h.Epsilon)
		}
	case "sgd":
		if h.Momentum < 0 || h.Momentum >= 1 {
			return errors.Wrapf(ErrHyperParameters, "sgd momentum %v", h.Momentum)
		}
	default:
		return errors.Wrapf(ErrHyperParameters, "optimizer %q", h.Optimizer)
	}
	return nil
}

// Compilation is what a network is compiled with: a loss, an optimizer and reported metrics.
type Compilation struct {
	Loss            string          `json:"loss" yaml:"loss"`
	HyperParameters HyperParameters `json:"optimizer" yaml:"optimizer"`
	Metrics         []string        `json:"metrics" yaml:"metrics"`
}

// DefaultCompilation is categorical cross-entropy with Adam, reporting accuracy.
func DefaultCompilation() Compilation {
	return Compilation{
		Loss:            CategoricalCrossentropy,
		HyperParameters: DefaultHyperParameters(),
		Metrics:         []string{"accuracy"},
	}
}

// Validate checks the loss, the metrics and the optimizer.
func (c Compilation) Validate() error {
	if _, err := LossByName(c.Loss); err != nil {
		return err
	}
	for _, m := range c.Metrics {
		if m != "accuracy" {
			return errors.Wrapf(ErrHyperParameters, "metric %q", m)
		}
	}
	return c.HyperParameters.Validate()
}
