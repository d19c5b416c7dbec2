package trainer

import (
	"context"
	"io"
	"time"

	"github.com/neurlang/digitnet/config"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrOptions is returned for training options out of range.
var ErrOptions = errors.New("invalid training options")

// ErrDiverged is returned when training produced a non-finite loss.
var ErrDiverged = errors.New("training diverged")

// Options configure Fit.
type Options struct {
	BatchSize       int
	Epochs          int
	ValidationSplit float64

	// Shuffle reorders the training part, never the validation part, before each epoch.
	Shuffle bool
	Seed    uint32

	// RunID names the run in the history and in checkpoints. Empty means a fresh uuid.
	RunID string

	Logger *zap.Logger

	// Progress receives a progress bar per epoch when set.
	Progress io.Writer

	// Checkpoint is where the network is saved each time validation accuracy improves.
	Checkpoint string

	// OnEpoch is called after every epoch.
	OnEpoch func(Epoch)

	// Context stops training between batches once it is done. Nil never stops.
	Context context.Context
}

// FromConfig returns the options described by a fit configuration.
func FromConfig(c config.Fit) Options {
	return Options{
		BatchSize:       c.BatchSize,
		Epochs:          c.Epochs,
		ValidationSplit: c.ValidationSplit,
		Shuffle:         c.Shuffle,
		Seed:            c.Seed,
	}
}

func (o *Options) validate() error {
	if o.BatchSize < 1 {
		return errors.Wrapf(ErrOptions, "batch size %d", o.BatchSize)
	}
	if o.Epochs < 1 {
		return errors.Wrapf(ErrOptions, "epochs %d", o.Epochs)
	}
	if !(o.ValidationSplit > 0 && o.ValidationSplit < 1) {
		return errors.Wrapf(ErrOptions, "validation split %v", o.ValidationSplit)
	}
	return nil
}

// Epoch holds the metrics of one epoch. Loss and Accuracy are means over the training
// batches; the validation metrics are measured after the last batch.
type Epoch struct {
	Index       int           `json:"epoch"`
	Loss        float64       `json:"loss"`
	Accuracy    float64       `json:"accuracy"`
	ValLoss     float64       `json:"val_loss"`
	ValAccuracy float64       `json:"val_accuracy"`
	Duration    time.Duration `json:"duration"`
}

// History is the record of a Fit call.
type History struct {
	RunID  string  `json:"run_id"`
	Epochs []Epoch `json:"epochs"`
}

// Best returns the epoch with the highest validation accuracy, the earliest among equals.
func (h History) Best() (Epoch, bool) {
	if len(h.Epochs) == 0 {
		return Epoch{}, false
	}
	best := h.Epochs[0]
	for _, e := range h.Epochs[1:] {
		if e.ValAccuracy > best.ValAccuracy {
			best = e
		}
	}
	return best, true
}
