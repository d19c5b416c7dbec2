package feedforward

import (
	"math"

	"github.com/neurlang/digitnet/hash"
	"github.com/neurlang/digitnet/layer"
	"github.com/neurlang/digitnet/learning"
	"github.com/neurlang/digitnet/parallel"
	"github.com/neurlang/digitnet/preprocess"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// ErrNonFinite is returned when a batch produces a NaN or infinite loss. The parameters are
// left as they were before the batch.
var ErrNonFinite = errors.New("non-finite loss")

func (f *FeedforwardNetwork) checkLabels(samples []preprocess.Sample, labels []preprocess.OneHot) error {
	if len(samples) != len(labels) {
		return errors.Wrapf(layer.ErrShape, "%d samples, %d labels", len(samples), len(labels))
	}
	classes := f.OutShape().Size()
	for i, s := range samples {
		if err := f.checkSample(i, s); err != nil {
			return err
		}
		if len(labels[i]) != classes {
			return errors.Wrapf(layer.ErrShape, "label %d has %d classes, network outputs %d", i, len(labels[i]), classes)
		}
	}
	return nil
}

type partial struct {
	grads   [][]float64
	loss    float64
	correct int
}

// TrainBatch runs one optimizer step on a batch and returns the mean training loss and the
// accuracy of the batch before the step. step selects the dropout masks.
func (f *FeedforwardNetwork) TrainBatch(samples []preprocess.Sample, labels []preprocess.OneHot, step int) (loss, accuracy float64, err error) {
	if f.compiled == nil {
		return 0, 0, ErrNotCompiled
	}
	if len(samples) == 0 {
		return 0, 0, errors.Wrap(layer.ErrShape, "empty batch")
	}
	if err := f.checkLabels(samples, labels); err != nil {
		return 0, 0, err
	}

	params := f.Params()
	stepSeed := hash.Uint32(uint32(step), f.seed)
	chunks := parallel.Chunks(len(samples), f.workers())
	parts := make([]partial, len(chunks))

	parallel.ForEach(len(chunks), len(chunks), func(w int) {
		part := &parts[w]
		part.grads = make([][]float64, len(params))
		for l := range params {
			part.grads[l] = make([]float64, len(params[l]))
		}
		caches := make([]layer.Cache, len(f.combiners))
		for i := chunks[w][0]; i < chunks[w][1]; i++ {
			pass := layer.Pass{Train: true, Seed: hash.Uint32(uint32(i), stepSeed)}
			p := f.forward(samples[i].Data, pass, caches)
			y := labels[i]
			part.loss += f.compiled.loss.Value(p, y)
			if learning.Correct(p, y) {
				part.correct++
			}
			top := len(f.combiners)
			var g []float64
			if f.compiled.fused {
				g = learning.SoftmaxGradient(p, y)
				top--
			} else {
				g = f.compiled.loss.Gradient(p, y)
			}
			for l := top - 1; l >= 0; l-- {
				g = f.combiners[l].Backward(caches[l], g, part.grads[l])
			}
		}
	})

	grads := parts[0].grads
	for _, part := range parts {
		loss += part.loss
		accuracy += float64(part.correct)
	}
	for _, part := range parts[1:] {
		for l := range grads {
			floats.Add(grads[l], part.grads[l])
		}
	}
	n := float64(len(samples))
	loss /= n
	accuracy /= n
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		return loss, accuracy, errors.Wrapf(ErrNonFinite, "batch loss %v", loss)
	}
	for l := range grads {
		floats.Scale(1/n, grads[l])
	}
	f.compiled.optimizer.Step(params, grads)
	return loss, accuracy, nil
}

// Evaluate returns the mean loss and the accuracy over the samples without modifying the network.
func (f *FeedforwardNetwork) Evaluate(samples []preprocess.Sample, labels []preprocess.OneHot) (loss, accuracy float64, err error) {
	if f.compiled == nil {
		return 0, 0, ErrNotCompiled
	}
	if len(samples) == 0 {
		return 0, 0, errors.Wrap(layer.ErrShape, "nothing to evaluate")
	}
	if err := f.checkLabels(samples, labels); err != nil {
		return 0, 0, err
	}
	preds, err := f.PredictSamples(samples)
	if err != nil {
		return 0, 0, err
	}
	for i, p := range preds {
		loss += f.compiled.loss.Value(p, labels[i])
		if learning.Correct(p, labels[i]) {
			accuracy++
		}
	}
	n := float64(len(samples))
	return loss / n, accuracy / n, nil
}
