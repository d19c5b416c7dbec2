package imageio

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/neurlang/digitnet/preprocess"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngOf(t *testing.T, img image.Image) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &buf
}

func TestDecodeGray(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 28, 28))
	src.SetGray(3, 5, color.Gray{Y: 200})
	img, err := Decode(pngOf(t, src), Options{})
	require.NoError(t, err)
	assert.Equal(t, 28, img.Height)
	assert.Equal(t, 28, img.Width)
	assert.Equal(t, uint8(200), img.At(5, 3))
	assert.Equal(t, uint8(0), img.At(0, 0))
}

func TestDecodeLuminance(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 28, 28))
	src.Set(0, 0, color.RGBA{R: 255, A: 255})
	src.Set(1, 0, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	img, err := Decode(pngOf(t, src), Options{})
	require.NoError(t, err)
	assert.InDelta(t, 76, int(img.At(0, 0)), 1)
	assert.Equal(t, uint8(255), img.At(0, 1))
	assert.Equal(t, uint8(0), img.At(0, 2), "transparent pixels are black")
}

func TestDecodeResolution(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 56, 56))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	_, err := Decode(pngOf(t, src), Options{})
	assert.True(t, errors.Is(err, ErrResolution), "%v", err)

	img, err := Decode(pngOf(t, src), Options{Resize: true})
	require.NoError(t, err)
	require.NoError(t, img.Validate())
	assert.Equal(t, 28, img.Width)
	for _, v := range img.Pix {
		assert.InDelta(t, 255, int(v), 1)
	}
}

func TestDecodeInvert(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 28, 28))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	src.SetGray(10, 10, color.Gray{Y: 0})
	img, err := Decode(pngOf(t, src), Options{Invert: true})
	require.NoError(t, err)
	assert.Equal(t, uint8(255), img.At(10, 10))
	assert.Equal(t, uint8(0), img.At(0, 0))
}

func TestDecodeInvertTransparent(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 28, 28))
	for y := 4; y < 24; y++ {
		src.Set(14, y, color.NRGBA{A: 255})
	}
	img, err := Decode(pngOf(t, src), Options{Invert: true})
	require.NoError(t, err)
	assert.Equal(t, uint8(255), img.At(10, 14), "stroke")
	assert.Equal(t, uint8(0), img.At(3, 3), "transparent background")

	plain, err := Decode(pngOf(t, src), Options{})
	require.NoError(t, err)
	assert.Equal(t, uint8(0), plain.At(10, 14))
	assert.Equal(t, uint8(0), plain.At(3, 3))
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("not an image")), Options{})
	assert.Error(t, err)
	_, err = DecodeFile(filepath.Join(t.TempDir(), "missing.png"), Options{})
	assert.Error(t, err)
}

func TestEncodeFile(t *testing.T) {
	img := preprocess.NewImage(28, 28)
	img.Set(7, 9, 123)
	path := filepath.Join(t.TempDir(), "digit.png")
	require.NoError(t, EncodeFile(path, img))
	got, err := DecodeFile(path, Options{})
	require.NoError(t, err)
	assert.Equal(t, img, got)
}
