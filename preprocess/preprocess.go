// Package preprocess holds the data contract shared by training and inference: raw images,
// normalized samples, batches and one-hot labels. Every sample the network ever sees goes
// through Normalize, so a model can never be fed pixels scaled differently from the ones it
// was trained on.
package preprocess

import (
	"math"

	"github.com/pkg/errors"
)

const (
	// ImgSize is the side of an MNIST image.
	ImgSize = 28

	// NumClasses is the number of digit classes.
	NumClasses = 10

	// MaxIntensity is the largest pixel value and the normalization divisor.
	MaxIntensity = 255
)

// ErrShape is returned when pixel or sample data does not match its declared dimensions.
var ErrShape = errors.New("shape mismatch")

// ErrLabelRange is returned when a label is outside [0, numClasses).
var ErrLabelRange = errors.New("label out of range")

// Image is a grayscale grid of 8-bit intensities, stored row major.
type Image struct {
	Height, Width int
	Pix           []uint8
}

// NewImage allocates a blank image.
func NewImage(height, width int) Image {
	return Image{Height: height, Width: width, Pix: make([]uint8, height*width)}
}

// At returns the intensity at row y, column x.
func (i Image) At(y, x int) uint8 {
	return i.Pix[y*i.Width+x]
}

// Set sets the intensity at row y, column x.
func (i Image) Set(y, x int, v uint8) {
	i.Pix[y*i.Width+x] = v
}

// Validate checks that the pixel buffer matches the dimensions.
func (i Image) Validate() error {
	if i.Height <= 0 || i.Width <= 0 || len(i.Pix) != i.Height*i.Width {
		return errors.Wrapf(ErrShape, "image %dx%d with %d pixels", i.Height, i.Width, len(i.Pix))
	}
	return nil
}

// Sample is a normalized image: height × width × channels floats in [0, 1], channel last.
type Sample struct {
	Height, Width, Channels int
	Data                    []float64
}

// Len is the number of values in the sample.
func (s Sample) Len() int {
	return s.Height * s.Width * s.Channels
}

// Normalize scales every intensity by 1/255 and appends a unit channel dimension.
func Normalize(img Image) (Sample, error) {
	if err := img.Validate(); err != nil {
		return Sample{}, err
	}
	data := make([]float64, len(img.Pix))
	for i, v := range img.Pix {
		data[i] = float64(v) / MaxIntensity
	}
	return Sample{Height: img.Height, Width: img.Width, Channels: 1, Data: data}, nil
}

// NormalizeAll normalizes a whole partition.
func NormalizeAll(imgs []Image) ([]Sample, error) {
	out := make([]Sample, len(imgs))
	for i := range imgs {
		s, err := Normalize(imgs[i])
		if err != nil {
			return nil, errors.Wrapf(err, "image %d", i)
		}
		out[i] = s
	}
	return out, nil
}

// Denormalize maps a single channel sample back to 8-bit intensities, rounding to nearest
// and clamping to [0, 255].
func Denormalize(s Sample) (Image, error) {
	if s.Channels != 1 || len(s.Data) != s.Len() {
		return Image{}, errors.Wrapf(ErrShape, "sample %dx%dx%d with %d values", s.Height, s.Width, s.Channels, len(s.Data))
	}
	img := NewImage(s.Height, s.Width)
	for i, v := range s.Data {
		v = math.Round(v * MaxIntensity)
		switch {
		case v < 0:
			v = 0
		case v > MaxIntensity:
			v = MaxIntensity
		}
		img.Pix[i] = uint8(v)
	}
	return img, nil
}
