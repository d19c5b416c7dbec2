package layer

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrShape is returned when a layer cannot consume the shape it is given.
var ErrShape = errors.New("layer shape mismatch")

// Shape is the height × width × channels shape of one sample.
type Shape struct {
	Height   int `json:"height" yaml:"height"`
	Width    int `json:"width" yaml:"width"`
	Channels int `json:"channels" yaml:"channels"`
}

// Size is the number of values in a sample of this shape.
func (s Shape) Size() int {
	return s.Height * s.Width * s.Channels
}

// Valid reports whether all dimensions are positive.
func (s Shape) Valid() bool {
	return s.Height > 0 && s.Width > 0 && s.Channels > 0
}

func (s Shape) String() string {
	return fmt.Sprintf("(%d, %d, %d)", s.Height, s.Width, s.Channels)
}

// Flat is the shape of a vector of n values.
func Flat(n int) Shape {
	return Shape{Height: 1, Width: 1, Channels: n}
}
