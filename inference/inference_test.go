package inference

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/neurlang/digitnet/imageio"
	"github.com/neurlang/digitnet/layer"
	"github.com/neurlang/digitnet/net/feedforward"
	"github.com/neurlang/digitnet/preprocess"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixed returns the same vector for every item and counts its calls.
type fixed struct {
	vector []float64
	calls  atomic.Int32
	last   preprocess.Batch
}

func (f *fixed) Predict(b preprocess.Batch) ([][]float64, error) {
	f.calls.Add(1)
	f.last = b
	if b.Height != preprocess.ImgSize || b.Width != preprocess.ImgSize {
		return nil, layer.ErrShape
	}
	out := make([][]float64, b.N)
	for i := range out {
		out[i] = append([]float64(nil), f.vector...)
	}
	return out, nil
}

func TestArgmax(t *testing.T) {
	v := []float64{0, 0, 0.5, 0, 0, 0.5, 0, 0, 0, 0}
	assert.Equal(t, 2, Argmax(v))
	assert.Equal(t, 0, Argmax([]float64{0.1, 0.1, 0.1}))
	assert.Equal(t, 9, Argmax([]float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 1}))
	assert.Equal(t, -1, Argmax(nil))
}

func TestClassify(t *testing.T) {
	model := &fixed{vector: []float64{0.01, 0.01, 0.01, 0.9, 0.01, 0.01, 0.01, 0.02, 0.01, 0.01}}
	p, err := New(model, 0)
	require.NoError(t, err)

	img := preprocess.NewImage(28, 28)
	img.Set(14, 14, 255)
	pred, err := p.Classify(img)
	require.NoError(t, err)
	assert.Equal(t, 3, pred.Label)
	assert.Equal(t, 0.9, pred.Confidence)
	assert.False(t, pred.Cached)

	b := model.last
	assert.Equal(t, 1, b.N, "a leading batch dimension of one")
	assert.Equal(t, 1, b.Channels)
	assert.Equal(t, 1.0, b.Data[14*28+14])
	assert.Equal(t, 0.0, b.Data[0])

	top := pred.Top(3)
	require.Len(t, top, 3)
	assert.Equal(t, 3, top[0].Label)
	assert.Equal(t, 7, top[1].Label)
	assert.Equal(t, 0, top[2].Label)
}

func TestClassifyCache(t *testing.T) {
	model := &fixed{vector: []float64{0.2, 0.8}}
	p, err := New(model, 4)
	require.NoError(t, err)

	img := preprocess.NewImage(28, 28)
	first, err := p.Classify(img)
	require.NoError(t, err)
	first.Vector[0] = 42

	second, err := p.Classify(img)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, []float64{0.2, 0.8}, second.Vector)
	assert.Equal(t, int32(1), model.calls.Load())

	other := preprocess.NewImage(28, 28)
	other.Set(0, 0, 1)
	third, err := p.Classify(other)
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.Equal(t, int32(2), model.calls.Load())
}

func TestClassifyErrors(t *testing.T) {
	p, err := New(&fixed{vector: []float64{1}}, 0)
	require.NoError(t, err)

	_, err = p.Classify(preprocess.Image{Height: 28, Width: 28, Pix: make([]uint8, 10)})
	assert.True(t, errors.Is(err, preprocess.ErrShape))

	_, err = p.Classify(preprocess.NewImage(27, 28))
	assert.True(t, errors.Is(err, layer.ErrShape))
}

func TestClassifyFile(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 28, 28))
	src.SetGray(1, 2, color.Gray{Y: 51})
	path := filepath.Join(t.TempDir(), "digit.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, src))
	require.NoError(t, f.Close())

	model := &fixed{vector: []float64{0, 1}}
	p, err := New(model, 0)
	require.NoError(t, err)
	img, pred, err := p.ClassifyFile(path, imageio.Options{})
	require.NoError(t, err)
	assert.Equal(t, uint8(51), img.At(2, 1))
	assert.Equal(t, 1, pred.Label)
	assert.InDelta(t, 0.2, model.last.Data[2*28+1], 1e-12)
}

// TestDigitThree classifies a hand drawn three with a trained model when both are provided.
func TestDigitThree(t *testing.T) {
	if testing.Short() {
		t.Skip("short mode")
	}
	modelPath, imagePath := os.Getenv("DIGITNET_MODEL"), os.Getenv("DIGITNET_DIGIT3")
	if modelPath == "" || imagePath == "" {
		t.Skip("DIGITNET_MODEL and DIGITNET_DIGIT3 not set")
	}
	net, err := feedforward.Load(modelPath)
	require.NoError(t, err)
	p, err := New(net, 1)
	require.NoError(t, err)
	_, pred, err := p.ClassifyFile(imagePath, imageio.Options{Resize: true})
	require.NoError(t, err)
	assert.Equal(t, 3, pred.Label, "prediction %v", pred.Vector)
	assert.InDelta(t, 1, sumOf(pred.Vector), 1e-6)
}

func sumOf(v []float64) (s float64) {
	for _, x := range v {
		s += x
	}
	return
}
