// Package imageio decodes image files into grayscale digit images the network can classify.
package imageio

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"

	"github.com/neurlang/digitnet/preprocess"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrResolution is returned for an image whose size differs from the requested one when
// resizing is not enabled.
var ErrResolution = errors.New("unexpected image resolution")

// Options control decoding.
type Options struct {
	// Width and Height are the required size, 28×28 when zero.
	Width, Height int

	// Resize rescales images of another size with Catmull-Rom interpolation.
	Resize bool

	// Invert maps dark strokes on a light background to the light on dark MNIST polarity.
	// Transparent pixels then count as background and end up black.
	Invert bool
}

func (o Options) size() (w, h int) {
	w, h = o.Width, o.Height
	if w <= 0 {
		w = preprocess.ImgSize
	}
	if h <= 0 {
		h = preprocess.ImgSize
	}
	return
}

// Decode reads a PNG, JPEG, GIF, BMP, TIFF or WebP image and converts it to luminance.
// Transparent pixels are composited over black, or over white before inversion.
func Decode(r io.Reader, opts Options) (preprocess.Image, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return preprocess.Image{}, errors.Wrap(err, "decoding image")
	}
	w, h := opts.size()
	b := src.Bounds()
	if (b.Dx() != w || b.Dy() != h) && !opts.Resize {
		return preprocess.Image{}, errors.Wrapf(ErrResolution, "%s image is %dx%d, want %dx%d", format, b.Dx(), b.Dy(), w, h)
	}

	gray := image.NewGray(image.Rect(0, 0, w, h))
	background := image.Black
	if opts.Invert {
		background = image.White
	}
	draw.Draw(gray, gray.Bounds(), background, image.Point{}, draw.Src)
	if b.Dx() == w && b.Dy() == h {
		draw.Draw(gray, gray.Bounds(), src, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(gray, gray.Bounds(), src, b, draw.Over, nil)
	}

	img := preprocess.NewImage(h, w)
	for y := 0; y < h; y++ {
		copy(img.Pix[y*w:(y+1)*w], gray.Pix[y*gray.Stride:y*gray.Stride+w])
	}
	if opts.Invert {
		for i, v := range img.Pix {
			img.Pix[i] = preprocess.MaxIntensity - v
		}
	}
	return img, nil
}

// DecodeFile decodes the image stored at path.
func DecodeFile(path string, opts Options) (preprocess.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return preprocess.Image{}, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	img, err := Decode(f, opts)
	return img, errors.Wrap(err, path)
}

// Encode writes img as a grayscale PNG.
func Encode(w io.Writer, img preprocess.Image) error {
	if err := img.Validate(); err != nil {
		return err
	}
	gray := &image.Gray{Pix: img.Pix, Stride: img.Width, Rect: image.Rect(0, 0, img.Width, img.Height)}
	return errors.Wrap(png.Encode(w, gray), "encoding png")
}

// EncodeFile writes img as a grayscale PNG file.
func EncodeFile(path string, img preprocess.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	if err := Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "writing %s", path)
}
