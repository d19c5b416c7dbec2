package config

import (
	"github.com/neurlang/digitnet/layer"
	"github.com/neurlang/digitnet/learning"
	"github.com/neurlang/digitnet/preprocess"
)

// DefaultArchitecture is the reference digit classifier: two convolution and pooling
// stages, dropout and a softmax classifier.
func DefaultArchitecture() Architecture {
	return Architecture{
		Input: layer.Shape{Height: preprocess.ImgSize, Width: preprocess.ImgSize, Channels: 1},
		Layers: []LayerSpec{
			{Kind: Conv2D, Filters: 32, Kernel: [2]int{3, 3}, Activation: "relu"},
			{Kind: MaxPool2D, Pool: [2]int{2, 2}},
			{Kind: Conv2D, Filters: 64, Kernel: [2]int{3, 3}, Activation: "relu"},
			{Kind: MaxPool2D, Pool: [2]int{2, 2}},
			{Kind: Flatten},
			{Kind: Dropout, Rate: 0.5},
			{Kind: Dense, Units: preprocess.NumClasses, Activation: "softmax"},
		},
	}
}

// DefaultFit is 10 epochs of batches of 254 with a tenth held out for validation.
func DefaultFit() Fit {
	return Fit{
		BatchSize:       254,
		Epochs:          10,
		ValidationSplit: 0.1,
		Shuffle:         true,
		Seed:            1,
	}
}

// Default returns the reference configuration.
func Default() *Config {
	return &Config{
		Architecture: DefaultArchitecture(),
		Compile:      learning.DefaultCompilation(),
		Fit:          DefaultFit(),
	}
}
