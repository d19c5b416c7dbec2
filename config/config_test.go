package config

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Len(t, c.Architecture.Layers, 7)
	assert.Equal(t, 254, c.Fit.BatchSize)
	assert.Equal(t, 10, c.Fit.Epochs)
	assert.Equal(t, "adam", c.Compile.HyperParameters.Optimizer)
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	want := Default()
	want.Fit.Epochs = 3
	want.Compile.HyperParameters.LearningRate = 0.01
	require.NoError(t, want.Write(path))

	got, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("config round trip (-want +got):\n%s", diff)
	}
}

func TestParsePartial(t *testing.T) {
	c, err := Parse([]byte("fit:\n  epochs: 2\n  batch_size: 32\n  validation_split: 0.2\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Fit.Epochs)
	assert.Equal(t, 32, c.Fit.BatchSize)
	if diff := cmp.Diff(DefaultArchitecture(), c.Architecture); diff != "" {
		t.Errorf("architecture should keep defaults (-want +got):\n%s", diff)
	}
}

func TestParseArchitecture(t *testing.T) {
	doc := `
architecture:
  input: {height: 4, width: 4, channels: 1}
  layers:
    - kind: flatten
    - kind: dense
      units: 3
      activation: softmax
`
	c, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, c.Architecture.Layers, 2)
	assert.Equal(t, LayerSpec{Kind: Dense, Units: 3, Activation: "softmax"}, c.Architecture.Layers[1])
}

func TestInvalid(t *testing.T) {
	for name, doc := range map[string]string{
		"kind":       "architecture:\n  input: {height: 2, width: 2, channels: 1}\n  layers:\n    - kind: lstm\n",
		"units":      "architecture:\n  input: {height: 2, width: 2, channels: 1}\n  layers:\n    - kind: dense\n",
		"activation": "architecture:\n  input: {height: 2, width: 2, channels: 1}\n  layers:\n    - kind: dense\n      units: 2\n      activation: tanh\n",
		"rate":       "architecture:\n  input: {height: 2, width: 2, channels: 1}\n  layers:\n    - kind: dropout\n      rate: 1\n",
		"input":      "architecture:\n  input: {height: 0, width: 2, channels: 1}\n",
		"batch":      "fit:\n  batch_size: 0\n",
		"epochs":     "fit:\n  epochs: 0\n",
		"split":      "fit:\n  validation_split: 1\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid), "%v", err)
		})
	}
}

func TestInvalidOptimizer(t *testing.T) {
	_, err := Parse([]byte("compile:\n  optimizer:\n    optimizer: rmsprop\n"))
	require.Error(t, err)
}
