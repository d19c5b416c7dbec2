// Package config holds the YAML description of a training run: the network architecture as
// an ordered list of typed layer records, what the network is compiled with and how it is fit.
package config

import (
	"os"

	"github.com/neurlang/digitnet/layer"
	"github.com/neurlang/digitnet/learning"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned for a configuration that cannot describe a run.
var ErrInvalid = errors.New("invalid configuration")

// Layer kinds understood by the network builder.
const (
	Conv2D     = "conv2d"
	MaxPool2D  = "maxpool2d"
	Flatten    = "flatten"
	Dropout    = "dropout"
	Dense      = "dense"
	Activation = "activation"
)

// LayerSpec is one record of the architecture. Which fields apply depends on Kind.
type LayerSpec struct {
	Kind       string  `yaml:"kind" json:"kind"`
	Filters    int     `yaml:"filters,omitempty" json:"filters,omitempty"`       // conv2d
	Kernel     [2]int  `yaml:"kernel,flow,omitempty" json:"kernel,omitempty"`    // conv2d height, width
	Pool       [2]int  `yaml:"pool,flow,omitempty" json:"pool,omitempty"`        // maxpool2d height, width
	Units      int     `yaml:"units,omitempty" json:"units,omitempty"`           // dense
	Rate       float64 `yaml:"rate,omitempty" json:"rate,omitempty"`             // dropout
	Activation string  `yaml:"activation,omitempty" json:"activation,omitempty"` // conv2d, dense, activation
}

// Architecture is the input shape and the ordered layer records.
type Architecture struct {
	Input  layer.Shape `yaml:"input" json:"input"`
	Layers []LayerSpec `yaml:"layers" json:"layers"`
}

// Fit configures the training loop.
type Fit struct {
	BatchSize       int     `yaml:"batch_size" json:"batch_size"`
	Epochs          int     `yaml:"epochs" json:"epochs"`
	ValidationSplit float64 `yaml:"validation_split" json:"validation_split"`
	Shuffle         bool    `yaml:"shuffle" json:"shuffle"`
	Seed            uint32  `yaml:"seed" json:"seed"`
}

// Config is a whole training run.
type Config struct {
	Architecture Architecture         `yaml:"architecture"`
	Compile      learning.Compilation `yaml:"compile"`
	Fit          Fit                  `yaml:"fit"`
}

// Load reads a YAML configuration. Fields missing from the file keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	return Parse(data)
}

// Parse decodes a YAML configuration over the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	c := Default()
	layers := c.Architecture.Layers
	c.Architecture.Layers = nil
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	if c.Architecture.Layers == nil {
		c.Architecture.Layers = layers
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Write stores the configuration as YAML.
func (c *Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encoding config")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "writing config %s", path)
}

// Validate checks every part of the configuration.
func (c *Config) Validate() error {
	if err := c.Architecture.Validate(); err != nil {
		return err
	}
	if err := c.Compile.Validate(); err != nil {
		return errors.Wrap(err, "compile")
	}
	return c.Fit.Validate()
}

// Validate checks the fit ranges.
func (f Fit) Validate() error {
	if f.BatchSize < 1 {
		return errors.Wrapf(ErrInvalid, "batch size %d", f.BatchSize)
	}
	if f.Epochs < 1 {
		return errors.Wrapf(ErrInvalid, "epochs %d", f.Epochs)
	}
	if !(f.ValidationSplit > 0 && f.ValidationSplit < 1) {
		return errors.Wrapf(ErrInvalid, "validation split %v", f.ValidationSplit)
	}
	return nil
}

// Validate checks the input shape and each layer record in isolation. Whether the shapes
// chain up is checked when the network is built.
func (a Architecture) Validate() error {
	if !a.Input.Valid() {
		return errors.Wrapf(ErrInvalid, "input shape %s", a.Input)
	}
	if len(a.Layers) == 0 {
		return errors.Wrap(ErrInvalid, "no layers")
	}
	for i, l := range a.Layers {
		if err := l.Validate(); err != nil {
			return errors.Wrapf(err, "layer %d", i)
		}
	}
	return nil
}

// Validate checks that the fields Kind needs are set.
func (l LayerSpec) Validate() error {
	switch l.Kind {
	case Conv2D:
		if l.Filters < 1 || l.Kernel[0] < 1 || l.Kernel[1] < 1 {
			return errors.Wrapf(ErrInvalid, "conv2d filters %d kernel %v", l.Filters, l.Kernel)
		}
	case MaxPool2D:
		if l.Pool[0] < 1 || l.Pool[1] < 1 {
			return errors.Wrapf(ErrInvalid, "maxpool2d pool %v", l.Pool)
		}
	case Dense:
		if l.Units < 1 {
			return errors.Wrapf(ErrInvalid, "dense units %d", l.Units)
		}
	case Dropout:
		if l.Rate < 0 || l.Rate >= 1 {
			return errors.Wrapf(ErrInvalid, "dropout rate %v", l.Rate)
		}
	case Flatten:
	case Activation:
		if l.Activation == "" {
			return errors.Wrap(ErrInvalid, "activation without a function")
		}
	default:
		return errors.Wrapf(ErrInvalid, "layer kind %q", l.Kind)
	}
	switch l.Activation {
	case "", "linear", "relu", "softmax":
	default:
		return errors.Wrapf(ErrInvalid, "activation %q", l.Activation)
	}
	return nil
}
