package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/alexflint/go-arg"
	"github.com/google/uuid"
	"github.com/neurlang/digitnet/config"
	"github.com/neurlang/digitnet/datasets/mnist"
	"github.com/neurlang/digitnet/net/feedforward"
	"github.com/neurlang/digitnet/parallel"
	"github.com/neurlang/digitnet/preprocess"
	"github.com/neurlang/digitnet/runlog"
	"github.com/neurlang/digitnet/trainer"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type args struct {
	Config       string  `arg:"help:YAML run configuration (defaults to the reference network)"`
	WriteConfig  string  `arg:"--write-config,help:write the effective configuration to this file and exit"`
	Data         string  `arg:"help:MNIST directory (searched when empty)"`
	Fetch        bool    `arg:"help:download MNIST when it cannot be found"`
	Dstmodel     string  `arg:"help:model destination .json.lzw file"`
	Resume       bool    `arg:"help:continue training the model stored at dstmodel"`
	Epochs       int     `arg:"help:override the number of epochs"`
	BatchSize    int     `arg:"--batch-size,help:override the batch size"`
	LearningRate float64 `arg:"--learning-rate,help:override the learning rate"`
	Train        int     `arg:"help:use only the first N training images"`
	Test         int     `arg:"help:use only the first N test images"`
	Runlog       string  `arg:"help:SQLite file journaling the run"`
	Quiet        bool    `arg:"help:no progress bars"`
	JSONLog      bool    `arg:"--json-log,help:log JSON lines"`
	Pgo          bool    `arg:"help:write a CPU profile to default.pgo"`
}

func (args) Description() string {
	return "Train a convolutional handwritten digit classifier on MNIST."
}

func main() {
	a := args{Dstmodel: "mnist.json.lzw", Train: -1, Test: -1}
	arg.MustParse(&a)

	logger, err := newLogger(a.JSONLog)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if a.Pgo {
		stop, err := profile("default.pgo")
		if err != nil {
			logger.Fatal("profile", zap.Error(err))
		}
		defer stop()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if err := run(ctx, a, logger); err != nil {
		logger.Sync()
		fmt.Fprintln(os.Stderr, "train_mnist:", err)
		os.Exit(1)
	}
}

func newLogger(json bool) (*zap.Logger, error) {
	if json {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func effectiveConfig(a args) (*config.Config, error) {
	c := config.Default()
	if a.Config != "" {
		var err error
		if c, err = config.Load(a.Config); err != nil {
			return nil, err
		}
	}
	if a.Epochs > 0 {
		c.Fit.Epochs = a.Epochs
	}
	if a.BatchSize > 0 {
		c.Fit.BatchSize = a.BatchSize
	}
	if a.LearningRate > 0 {
		c.Compile.HyperParameters.LearningRate = a.LearningRate
	}
	return c, c.Validate()
}

func dataset(ctx context.Context, a args, logger *zap.Logger) (*mnist.Dataset, error) {
	dir := a.Data
	if dir == "" {
		found, err := mnist.Find()
		switch {
		case err == nil:
			dir = found
		case a.Fetch:
			if dir, err = mnist.Fetch(ctx, mnist.Options{Logger: logger}); err != nil {
				return nil, err
			}
		default:
			return nil, errors.Wrap(err, "run with --fetch to download it")
		}
	}
	d, err := (&mnist.Loader{Dir: dir, Logger: logger}).Load()
	if err != nil {
		return nil, err
	}
	return d.Head(a.Train, a.Test), nil
}

func run(ctx context.Context, a args, logger *zap.Logger) error {
	fmt.Println(parallel.CPU())

	c, err := effectiveConfig(a)
	if err != nil {
		return err
	}
	if a.WriteConfig != "" {
		return c.Write(a.WriteConfig)
	}

	d, err := dataset(ctx, a, logger)
	if err != nil {
		return err
	}
	trainX, err := preprocess.NormalizeAll(d.TrainImages)
	if err != nil {
		return err
	}
	trainY, err := preprocess.EncodeLabels(d.TrainLabels, preprocess.NumClasses)
	if err != nil {
		return err
	}
	testX, err := preprocess.NormalizeAll(d.TestImages)
	if err != nil {
		return err
	}
	testY, err := preprocess.EncodeLabels(d.TestLabels, preprocess.NumClasses)
	if err != nil {
		return err
	}

	var net *feedforward.FeedforwardNetwork
	if a.Resume {
		resumed, found, err := trainer.Resume(a.Dstmodel)
		if err != nil {
			return err
		}
		if found {
			logger.Info("resuming", zap.String("model", a.Dstmodel), zap.Int("epochs", resumed.Metadata.Epochs))
			net = resumed
		}
	}
	if net == nil {
		if net, err = feedforward.Build(c.Architecture, c.Fit.Seed); err != nil {
			return err
		}
	}
	if err := net.Compile(c.Compile); err != nil {
		return err
	}
	fmt.Print(net.Summary())

	opts := trainer.FromConfig(c.Fit)
	opts.RunID = uuid.NewString()
	opts.Logger = logger
	opts.Checkpoint = a.Dstmodel
	opts.Context = ctx
	if !a.Quiet {
		opts.Progress = os.Stdout
	}

	var journal *runlog.Store
	if a.Runlog != "" {
		if journal, err = runlog.Open(a.Runlog); err != nil {
			return err
		}
		defer journal.Close()
		if err := journal.StartRun(ctx, opts.RunID, c); err != nil {
			return err
		}
		opts.OnEpoch = func(e trainer.Epoch) {
			if err := journal.RecordEpoch(ctx, opts.RunID, e); err != nil {
				logger.Warn("run log", zap.Error(err))
			}
		}
	}

	history, err := trainer.Fit(net, trainX, trainY, opts)
	if err != nil {
		return err
	}
	if best, ok := history.Best(); ok {
		fmt.Printf("[best epoch] %d val_accuracy %.4f\n", best.Index, best.ValAccuracy)
	}

	if best, found, err := trainer.Resume(a.Dstmodel); err != nil {
		return err
	} else if found {
		net = best
	}
	result, err := trainer.Evaluate(net, testX, testY)
	if err != nil {
		return err
	}
	fmt.Printf("[infer success rate] %s\n", result)
	printConfusion(os.Stdout, result.Confusion)

	if journal != nil {
		return journal.FinishRun(ctx, opts.RunID, result.Loss, result.Accuracy)
	}
	return nil
}

func printConfusion(w io.Writer, confusion [][]int) {
	fmt.Fprint(w, "     ")
	for j := range confusion {
		fmt.Fprintf(w, "%6d", j)
	}
	fmt.Fprintln(w)
	for i, row := range confusion {
		fmt.Fprintf(w, "%4d ", i)
		for _, v := range row {
			fmt.Fprintf(w, "%6d", v)
		}
		fmt.Fprintln(w)
	}
}
