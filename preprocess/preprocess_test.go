package preprocess

import (
	"math/rand/v2"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomImage(r *rand.Rand) Image {
	img := NewImage(ImgSize, ImgSize)
	for i := range img.Pix {
		img.Pix[i] = uint8(r.IntN(256))
	}
	return img
}

func TestNormalizeRangeAndShape(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for n := 0; n < 50; n++ {
		s, err := Normalize(randomImage(r))
		require.NoError(t, err)
		assert.Equal(t, ImgSize, s.Height)
		assert.Equal(t, ImgSize, s.Width)
		assert.Equal(t, 1, s.Channels)
		require.Len(t, s.Data, ImgSize*ImgSize)
		for _, v := range s.Data {
			require.GreaterOrEqual(t, v, 0.0)
			require.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestNormalizeExtremes(t *testing.T) {
	img := NewImage(2, 2)
	img.Pix = []uint8{0, 255, 51, 102}
	s, err := Normalize(img)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 1, 0.2, 0.4}, s.Data, 1e-12)
}

func TestNormalizeBadShape(t *testing.T) {
	_, err := Normalize(Image{Height: 28, Width: 28, Pix: make([]uint8, 10)})
	assert.True(t, errors.Is(err, ErrShape))
}

func TestNormalizeIdempotent(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	first, err := Normalize(randomImage(r))
	require.NoError(t, err)
	back, err := Denormalize(first)
	require.NoError(t, err)
	second, err := Normalize(back)
	require.NoError(t, err)
	assert.InDeltaSlice(t, first.Data, second.Data, 1e-12)
}

func TestDenormalizeClamps(t *testing.T) {
	img, err := Denormalize(Sample{Height: 1, Width: 3, Channels: 1, Data: []float64{-0.5, 0.5, 1.5}})
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 128, 255}, img.Pix)
}

func TestEncodeLabel(t *testing.T) {
	for l := 0; l < NumClasses; l++ {
		o, err := EncodeLabel(l, NumClasses)
		require.NoError(t, err)
		require.Len(t, o, NumClasses)
		var sum float64
		for i, v := range o {
			sum += v
			if i == l {
				assert.Equal(t, 1.0, v)
			} else {
				assert.Equal(t, 0.0, v)
			}
		}
		assert.Equal(t, 1.0, sum)
		assert.Equal(t, l, o.Label())
	}
}

func TestEncodeLabelOutOfRange(t *testing.T) {
	for _, l := range []int{NumClasses, -1, 100} {
		o, err := EncodeLabel(l, NumClasses)
		assert.Nil(t, o)
		assert.True(t, errors.Is(err, ErrLabelRange), "label %d", l)
	}
	_, err := EncodeLabels([]uint8{1, 2, 10}, NumClasses)
	assert.True(t, errors.Is(err, ErrLabelRange))
}

func TestBatch(t *testing.T) {
	a := Sample{Height: 1, Width: 2, Channels: 1, Data: []float64{1, 2}}
	b := Sample{Height: 1, Width: 2, Channels: 1, Data: []float64{3, 4}}
	batch, err := NewBatch(a, b)
	require.NoError(t, err)
	assert.Equal(t, 2, batch.N)
	assert.Equal(t, []float64{3, 4}, batch.Item(1))
	assert.Equal(t, a, batch.Sample(0))

	_, err = NewBatch(a, Sample{Height: 2, Width: 1, Channels: 1, Data: []float64{1, 2}})
	assert.True(t, errors.Is(err, ErrShape))
	_, err = NewBatch()
	assert.True(t, errors.Is(err, ErrShape))

	single := Unsqueeze(a)
	assert.Equal(t, 1, single.N)
	assert.Equal(t, a.Data, single.Item(0))
}
