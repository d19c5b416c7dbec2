package trainer

import (
	"fmt"

	"github.com/neurlang/digitnet/learning"
	"github.com/neurlang/digitnet/net/feedforward"
	"github.com/neurlang/digitnet/parallel"
	"github.com/neurlang/digitnet/preprocess"
	"github.com/pkg/errors"
)

// Result is the outcome of evaluating a network on a labelled partition.
type Result struct {
	Loss     float64
	Accuracy float64
	Correct  int
	Total    int

	// Confusion counts Confusion[actual][predicted].
	Confusion [][]int

	// Digest fingerprints the predicted labels; two networks agree on every sample of the
	// partition exactly when their digests match.
	Digest [32]byte
}

// Evaluate measures net on a partition without modifying it.
func Evaluate(net *feedforward.FeedforwardNetwork, samples []preprocess.Sample, labels []preprocess.OneHot) (Result, error) {
	lossFn, err := net.Loss()
	if err != nil {
		return Result{}, err
	}
	if len(samples) != len(labels) {
		return Result{}, errors.Errorf("%d samples, %d labels", len(samples), len(labels))
	}
	if len(samples) == 0 {
		return Result{}, errors.New("nothing to evaluate")
	}
	preds, err := net.PredictSamples(samples)
	if err != nil {
		return Result{}, err
	}
	classes := net.OutShape().Size()
	r := Result{Total: len(samples), Confusion: make([][]int, classes)}
	for i := range r.Confusion {
		r.Confusion[i] = make([]int, classes)
	}
	digest := parallel.NewDigest(len(preds))
	for i, p := range preds {
		y := labels[i]
		if len(y) != classes {
			return Result{}, errors.Errorf("label %d has %d classes, network outputs %d", i, len(y), classes)
		}
		predicted, actual := learning.Argmax(p), learning.Argmax(y)
		digest.MustPut(i, uint16(predicted))
		r.Confusion[actual][predicted]++
		if predicted == actual {
			r.Correct++
		}
		r.Loss += lossFn.Value(p, y)
	}
	r.Loss /= float64(r.Total)
	r.Accuracy = float64(r.Correct) / float64(r.Total)
	r.Digest = digest.Sum()
	return r, nil
}

// String prints the result the way the command line tools report it.
func (r Result) String() string {
	return fmt.Sprintf("loss %.4f accuracy %.2f%% (%d/%d) digest %x", r.Loss, 100*r.Accuracy, r.Correct, r.Total, r.Digest[:8])
}
