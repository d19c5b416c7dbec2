package preprocess

import "github.com/pkg/errors"

// Batch is a stack of samples sharing one shape, with the batch dimension leading.
type Batch struct {
	N                       int
	Height, Width, Channels int
	Data                    []float64
}

// SampleLen is the number of values per item.
func (b Batch) SampleLen() int {
	return b.Height * b.Width * b.Channels
}

// Item returns the values of the i-th sample without copying.
func (b Batch) Item(i int) []float64 {
	n := b.SampleLen()
	return b.Data[i*n : (i+1)*n]
}

// Sample returns the i-th item as a Sample sharing the batch's memory.
func (b Batch) Sample(i int) Sample {
	return Sample{Height: b.Height, Width: b.Width, Channels: b.Channels, Data: b.Item(i)}
}

// Unsqueeze inserts a leading singleton batch dimension.
func Unsqueeze(s Sample) Batch {
	return Batch{N: 1, Height: s.Height, Width: s.Width, Channels: s.Channels, Data: s.Data}
}

// NewBatch stacks samples into one batch. All samples must share a shape.
func NewBatch(samples ...Sample) (Batch, error) {
	if len(samples) == 0 {
		return Batch{}, errors.Wrap(ErrShape, "empty batch")
	}
	first := samples[0]
	b := Batch{
		N:        len(samples),
		Height:   first.Height,
		Width:    first.Width,
		Channels: first.Channels,
		Data:     make([]float64, 0, len(samples)*first.Len()),
	}
	for i, s := range samples {
		if s.Height != first.Height || s.Width != first.Width || s.Channels != first.Channels || len(s.Data) != s.Len() {
			return Batch{}, errors.Wrapf(ErrShape, "sample %d is %dx%dx%d, batch is %dx%dx%d",
				i, s.Height, s.Width, s.Channels, first.Height, first.Width, first.Channels)
		}
		b.Data = append(b.Data, s.Data...)
	}
	return b, nil
}
