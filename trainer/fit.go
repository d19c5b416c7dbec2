package trainer

import (
	"context"
	"fmt"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/google/uuid"
	"github.com/neurlang/digitnet/datasets"
	"github.com/neurlang/digitnet/hash"
	"github.com/neurlang/digitnet/layer"
	"github.com/neurlang/digitnet/net/feedforward"
	"github.com/neurlang/digitnet/preprocess"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Fit trains net on samples and labels. The trailing ValidationSplit fraction is held out
// and only measured. Each epoch visits the training part in consecutive batches of BatchSize,
// the last one possibly smaller, taking one optimizer step per batch.
func Fit(net *feedforward.FeedforwardNetwork, samples []preprocess.Sample, labels []preprocess.OneHot, opts Options) (History, error) {
	if err := opts.validate(); err != nil {
		return History{}, err
	}
	if !net.Compiled() {
		return History{}, feedforward.ErrNotCompiled
	}
	if len(samples) != len(labels) {
		return History{}, errors.Wrapf(layer.ErrShape, "%d samples, %d labels", len(samples), len(labels))
	}
	train, _, err := datasets.Split(len(samples), opts.ValidationSplit)
	if err != nil {
		return History{}, errors.Wrapf(ErrOptions, "%v", err)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}

	trainX, trainY := samples[:train], labels[:train]
	valX, valY := samples[train:], labels[train:]
	batches := (train + opts.BatchSize - 1) / opts.BatchSize
	history := History{RunID: opts.RunID}
	best := -1.0

	log.Info("fit",
		zap.String("run", opts.RunID),
		zap.Int("train", len(trainX)),
		zap.Int("validation", len(valX)),
		zap.Int("batch_size", opts.BatchSize),
		zap.Int("batches", batches),
		zap.Int("epochs", opts.Epochs))

	batchX := make([]preprocess.Sample, 0, opts.BatchSize)
	batchY := make([]preprocess.OneHot, 0, opts.BatchSize)
	for epoch := 0; epoch < opts.Epochs; epoch++ {
		start := time.Now()
		order := identity(train)
		if opts.Shuffle {
			order = datasets.Permutation(train, hash.Uint32(uint32(epoch), opts.Seed))
		}

		var bar *pb.ProgressBar
		if opts.Progress != nil {
			bar = pb.New(batches).SetWriter(opts.Progress).Set("prefix", fmt.Sprintf("epoch %d/%d ", epoch+1, opts.Epochs)).Start()
		}

		var lossSum, accSum float64
		for b := 0; b < batches; b++ {
			if err := ctx.Err(); err != nil {
				if bar != nil {
					bar.Finish()
				}
				log.Warn("interrupted", zap.Int("epoch", epoch+1), zap.Int("batch", b))
				return history, errors.Wrapf(err, "epoch %d batch %d", epoch+1, b)
			}
			lo, hi := b*opts.BatchSize, (b+1)*opts.BatchSize
			if hi > train {
				hi = train
			}
			batchX, batchY = batchX[:0], batchY[:0]
			for _, i := range order[lo:hi] {
				batchX = append(batchX, trainX[i])
				batchY = append(batchY, trainY[i])
			}
			loss, acc, err := net.TrainBatch(batchX, batchY, epoch*batches+b)
			if err != nil {
				if bar != nil {
					bar.Finish()
				}
				if errors.Is(err, feedforward.ErrNonFinite) {
					log.Error("diverged", zap.Int("epoch", epoch+1), zap.Int("batch", b), zap.Float64("loss", loss))
					return history, errors.Wrapf(ErrDiverged, "epoch %d batch %d: %v", epoch+1, b, err)
				}
				return history, errors.Wrapf(err, "epoch %d batch %d", epoch+1, b)
			}
			n := float64(hi - lo)
			lossSum += loss * n
			accSum += acc * n
			if bar != nil {
				bar.Increment()
			}
		}
		if bar != nil {
			bar.Finish()
		}

		valLoss, valAcc, err := net.Evaluate(valX, valY)
		if err != nil {
			return history, errors.Wrapf(err, "validating epoch %d", epoch+1)
		}
		e := Epoch{
			Index:       epoch + 1,
			Loss:        lossSum / float64(train),
			Accuracy:    accSum / float64(train),
			ValLoss:     valLoss,
			ValAccuracy: valAcc,
			Duration:    time.Since(start),
		}
		history.Epochs = append(history.Epochs, e)
		log.Info("epoch",
			zap.Int("epoch", e.Index),
			zap.Float64("loss", e.Loss),
			zap.Float64("accuracy", e.Accuracy),
			zap.Float64("val_loss", e.ValLoss),
			zap.Float64("val_accuracy", e.ValAccuracy),
			zap.Duration("duration", e.Duration))

		net.Metadata = feedforward.Metadata{RunID: opts.RunID, Epochs: e.Index, ValAccuracy: e.ValAccuracy}
		if opts.Checkpoint != "" && e.ValAccuracy > best {
			best = e.ValAccuracy
			if err := net.Save(opts.Checkpoint); err != nil {
				return history, err
			}
			log.Info("checkpoint", zap.String("path", opts.Checkpoint), zap.Float64("val_accuracy", best))
		}
		if opts.OnEpoch != nil {
			opts.OnEpoch(e)
		}
	}
	return history, nil
}

func identity(n int) []int {
	o := make([]int, n)
	for i := range o {
		o[i] = i
	}
	return o
}
