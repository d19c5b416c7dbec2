package feedforward

import (
	"github.com/neurlang/digitnet/layer"
	"github.com/neurlang/digitnet/parallel"
	"github.com/neurlang/digitnet/preprocess"
	"github.com/pkg/errors"
)

func (f *FeedforwardNetwork) checkSample(i int, s preprocess.Sample) error {
	in := f.input
	if s.Height != in.Height || s.Width != in.Width || s.Channels != in.Channels || len(s.Data) != in.Size() {
		return errors.Wrapf(layer.ErrShape, "sample %d is %dx%dx%d with %d values, network takes %s",
			i, s.Height, s.Width, s.Channels, len(s.Data), in)
	}
	return nil
}

// Predict returns the output vector of every item of the batch. The network is not modified.
func (f *FeedforwardNetwork) Predict(b preprocess.Batch) ([][]float64, error) {
	in := f.input
	if b.Height != in.Height || b.Width != in.Width || b.Channels != in.Channels {
		return nil, errors.Wrapf(layer.ErrShape, "batch of %dx%dx%d, network takes %s", b.Height, b.Width, b.Channels, in)
	}
	if b.N < 0 || len(b.Data) != b.N*b.SampleLen() {
		return nil, errors.Wrapf(layer.ErrShape, "batch of %d items has %d values", b.N, len(b.Data))
	}
	samples := make([]preprocess.Sample, b.N)
	for i := range samples {
		samples[i] = b.Sample(i)
	}
	return f.PredictSamples(samples)
}

// PredictSamples returns the output vector of every sample.
func (f *FeedforwardNetwork) PredictSamples(samples []preprocess.Sample) ([][]float64, error) {
	for i, s := range samples {
		if err := f.checkSample(i, s); err != nil {
			return nil, err
		}
	}
	out := make([][]float64, len(samples))
	parallel.ForEach(len(samples), f.workers(), func(i int) {
		out[i] = f.forward(samples[i].Data, layer.Pass{}, nil)
	})
	return out, nil
}
