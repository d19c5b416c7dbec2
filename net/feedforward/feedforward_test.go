package feedforward

import (
	"bytes"
	"compress/lzw"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/neurlang/digitnet/config"
	"github.com/neurlang/digitnet/hash"
	"github.com/neurlang/digitnet/layer"
	"github.com/neurlang/digitnet/layer/dense"
	"github.com/neurlang/digitnet/layer/flatten"
	"github.com/neurlang/digitnet/learning"
	"github.com/neurlang/digitnet/preprocess"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// halves generates size×size images whose left (label 0) or right (label 1) half is bright.
func halves(n, size int, seed uint32) ([]preprocess.Sample, []preprocess.OneHot) {
	samples := make([]preprocess.Sample, n)
	labels := make([]preprocess.OneHot, n)
	for i := range samples {
		label := i % 2
		data := make([]float64, size*size)
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				k := y*size + x
				v := 0.2 * hash.Float64(uint32(i*size*size+k), seed)
				if (x < size/2) == (label == 0) {
					v += 0.7
				}
				data[k] = v
			}
		}
		samples[i] = preprocess.Sample{Height: size, Width: size, Channels: 1, Data: data}
		labels[i], _ = preprocess.EncodeLabel(label, 2)
	}
	return samples, labels
}

func smallArch(size int) config.Architecture {
	return config.Architecture{
		Input: layer.Shape{Height: size, Width: size, Channels: 1},
		Layers: []config.LayerSpec{
			{Kind: config.Conv2D, Filters: 4, Kernel: [2]int{3, 3}, Activation: "relu"},
			{Kind: config.MaxPool2D, Pool: [2]int{2, 2}},
			{Kind: config.Flatten},
			{Kind: config.Dropout, Rate: 0.25},
			{Kind: config.Dense, Units: 2, Activation: "softmax"},
		},
	}
}

func compiled(t *testing.T, arch config.Architecture, lr float64) *FeedforwardNetwork {
	t.Helper()
	f, err := Build(arch, 3)
	require.NoError(t, err)
	c := learning.DefaultCompilation()
	c.HyperParameters.LearningRate = lr
	require.NoError(t, f.Compile(c))
	return f
}

func TestBuildDefault(t *testing.T) {
	f, err := Build(config.DefaultArchitecture(), 1)
	require.NoError(t, err)
	assert.Equal(t, 9, f.Len(), "conv2d and dense records expand to an activation each")
	assert.Equal(t, layer.Flat(10), f.OutShape())
	assert.Equal(t, 34826, f.CountParams())

	s := f.Summary()
	assert.Contains(t, s, "conv2d_0")
	assert.Contains(t, s, "(5, 5, 64)")
	assert.Contains(t, s, "34826")
}

func TestBuildShapeError(t *testing.T) {
	arch := config.Architecture{
		Input:  layer.Shape{Height: 2, Width: 2, Channels: 1},
		Layers: []config.LayerSpec{{Kind: config.Conv2D, Filters: 1, Kernel: [2]int{3, 3}}},
	}
	_, err := Build(arch, 1)
	assert.True(t, errors.Is(err, layer.ErrShape), "%v", err)
}

func TestNotCompiled(t *testing.T) {
	f, err := Build(smallArch(6), 1)
	require.NoError(t, err)
	samples, labels := halves(4, 6, 1)
	_, _, err = f.TrainBatch(samples, labels, 0)
	assert.True(t, errors.Is(err, ErrNotCompiled))
	_, _, err = f.Evaluate(samples, labels)
	assert.True(t, errors.Is(err, ErrNotCompiled))

	preds, err := f.PredictSamples(samples)
	require.NoError(t, err, "predicting needs no compilation")
	assert.Len(t, preds, 4)
}

func TestPredictShape(t *testing.T) {
	f := compiled(t, smallArch(6), 0.01)
	samples, _ := halves(3, 6, 1)
	b, err := preprocess.NewBatch(samples...)
	require.NoError(t, err)

	preds, err := f.Predict(b)
	require.NoError(t, err)
	require.Len(t, preds, 3)
	for _, p := range preds {
		require.Len(t, p, 2)
		assert.InDelta(t, 1, p[0]+p[1], 1e-9)
		assert.GreaterOrEqual(t, p[0], 0.0)
		assert.GreaterOrEqual(t, p[1], 0.0)
	}

	wrong, _ := halves(1, 5, 1)
	_, err = f.Predict(preprocess.Unsqueeze(wrong[0]))
	assert.True(t, errors.Is(err, layer.ErrShape))

	b.Data = b.Data[1:]
	_, err = f.Predict(b)
	assert.True(t, errors.Is(err, layer.ErrShape))
}

func TestPredictDoesNotMutate(t *testing.T) {
	f := compiled(t, smallArch(6), 0.01)
	samples, _ := halves(2, 6, 2)
	before := append([]float64(nil), f.Combiner(0).Params()...)
	input := append([]float64(nil), samples[0].Data...)

	first, err := f.PredictSamples(samples)
	require.NoError(t, err)
	second, err := f.PredictSamples(samples)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, before, f.Combiner(0).Params())
	assert.Equal(t, input, samples[0].Data)
}

func TestTrainSeparable(t *testing.T) {
	f := compiled(t, smallArch(6), 0.05)
	samples, labels := halves(64, 6, 5)
	for step := 0; step < 60; step++ {
		lo := (step * 16) % 64
		_, _, err := f.TrainBatch(samples[lo:lo+16], labels[lo:lo+16], step)
		require.NoError(t, err)
	}
	test, testLabels := halves(40, 6, 99)
	loss, acc, err := f.Evaluate(test, testLabels)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, acc, 0.9, "loss %v", loss)
}

func TestTrainDeterministic(t *testing.T) {
	samples, labels := halves(12, 6, 7)
	run := func() [][]float64 {
		f := compiled(t, smallArch(6), 0.01)
		f.Workers = 3
		for step := 0; step < 3; step++ {
			_, _, err := f.TrainBatch(samples, labels, step)
			require.NoError(t, err)
		}
		return f.Params()
	}
	assert.Equal(t, run(), run())
}

// TestTrainGradient checks the fused softmax cross-entropy step against finite differences
// of the mean loss: with plain SGD the update is exactly -lr times the gradient.
func TestTrainGradient(t *testing.T) {
	arch := config.Architecture{
		Input: layer.Shape{Height: 2, Width: 2, Channels: 1},
		Layers: []config.LayerSpec{
			{Kind: config.Flatten},
			{Kind: config.Dense, Units: 3, Activation: "relu"},
			{Kind: config.Dense, Units: 3, Activation: "softmax"},
		},
	}
	f, err := Build(arch, 11)
	require.NoError(t, err)
	c := learning.DefaultCompilation()
	c.HyperParameters = learning.HyperParameters{Optimizer: "sgd", LearningRate: 1}
	require.NoError(t, f.Compile(c))

	samples := []preprocess.Sample{
		{Height: 2, Width: 2, Channels: 1, Data: []float64{0.1, 0.9, 0.4, 0.3}},
		{Height: 2, Width: 2, Channels: 1, Data: []float64{0.8, 0.2, 0.5, 0.7}},
	}
	y0, _ := preprocess.EncodeLabel(2, 3)
	y1, _ := preprocess.EncodeLabel(0, 3)
	labels := []preprocess.OneHot{y0, y1}

	const step = 1e-6
	params := f.Params()
	numeric := make([][]float64, len(params))
	for l, p := range params {
		numeric[l] = make([]float64, len(p))
		for j := range p {
			orig := p[j]
			p[j] = orig + step
			up, _, err := f.Evaluate(samples, labels)
			require.NoError(t, err)
			p[j] = orig - step
			down, _, err := f.Evaluate(samples, labels)
			require.NoError(t, err)
			p[j] = orig
			numeric[l][j] = (up - down) / (2 * step)
		}
	}

	before := make([][]float64, len(params))
	for l, p := range params {
		before[l] = append([]float64(nil), p...)
	}
	_, _, err = f.TrainBatch(samples, labels, 0)
	require.NoError(t, err)
	for l, p := range f.Params() {
		for j := range p {
			analytic := before[l][j] - p[j]
			assert.InDelta(t, numeric[l][j], analytic, 1e-5, "combiner %d param %d", l, j)
		}
	}
}

func TestTrainNonFinite(t *testing.T) {
	f, err := New(layer.Shape{Height: 1, Width: 1, Channels: 2})
	require.NoError(t, err)
	f.MustNewCombiner(flatten.New())
	f.MustNewCombiner(dense.MustNew(2))
	f.Init(1)
	c := learning.DefaultCompilation()
	c.Loss = learning.MeanSquaredError
	require.NoError(t, f.Compile(c))

	before := append([]float64(nil), f.Combiner(1).Params()...)
	samples := []preprocess.Sample{{Height: 1, Width: 1, Channels: 2, Data: []float64{math.Inf(1), 0}}}
	labels := []preprocess.OneHot{{1, 0}}
	_, _, err = f.TrainBatch(samples, labels, 0)
	assert.True(t, errors.Is(err, ErrNonFinite), "%v", err)
	assert.Equal(t, before, f.Combiner(1).Params())
}

func TestTrainLabelMismatch(t *testing.T) {
	f := compiled(t, smallArch(6), 0.01)
	samples, labels := halves(4, 6, 1)
	_, _, err := f.TrainBatch(samples, labels[:3], 0)
	assert.True(t, errors.Is(err, layer.ErrShape))

	ten, _ := preprocess.EncodeLabel(1, 10)
	labels[0] = ten
	_, _, err = f.TrainBatch(samples, labels, 0)
	assert.True(t, errors.Is(err, layer.ErrShape))
}

func TestSaveLoad(t *testing.T) {
	f := compiled(t, smallArch(6), 0.05)
	samples, labels := halves(16, 6, 3)
	_, _, err := f.TrainBatch(samples, labels, 0)
	require.NoError(t, err)
	f.Metadata = Metadata{RunID: "run", Epochs: 1, ValAccuracy: 0.5}

	path := filepath.Join(t.TempDir(), "model.json.lzw")
	require.NoError(t, f.Save(path))
	g, err := Load(path)
	require.NoError(t, err)

	assert.True(t, g.Compiled())
	assert.Equal(t, f.Metadata, g.Metadata)
	want, err := f.PredictSamples(samples)
	require.NoError(t, err)
	got, err := g.PredictSamples(samples)
	require.NoError(t, err)
	for i := range want {
		assert.InDeltaSlice(t, want[i], got[i], 1e-5)
	}

	arch, err := g.Architecture()
	require.NoError(t, err)
	assert.Equal(t, smallArch(6), arch)
}

func TestSaveDetached(t *testing.T) {
	f, err := New(layer.Shape{Height: 1, Width: 1, Channels: 2})
	require.NoError(t, err)
	f.MustNewCombiner(dense.MustNew(2))
	var buf bytes.Buffer
	assert.Error(t, f.WriteCompressedWeights(&buf))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	var buf bytes.Buffer
	lw := lzw.NewWriter(&buf, lzw.LSB, 8)
	lw.Write([]byte(`{"version": 7, "params": []}`))
	lw.Close()
	_, err = ReadCompressedWeights(&buf)
	assert.True(t, errors.Is(err, ErrFormat), "%v", err)

	_, err = ReadCompressedWeights(strings.NewReader("not lzw json"))
	assert.True(t, errors.Is(err, ErrFormat), "%v", err)
}
