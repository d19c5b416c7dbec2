package main

import (
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
	"github.com/neurlang/digitnet/datasets/mnist"
	"github.com/neurlang/digitnet/display"
	"github.com/neurlang/digitnet/imageio"
	"github.com/neurlang/digitnet/inference"
	"github.com/neurlang/digitnet/net/feedforward"
	"github.com/neurlang/digitnet/preprocess"
	"github.com/neurlang/digitnet/trainer"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type args struct {
	Model   string `arg:"help:trained model .json.lzw file"`
	Image   string `arg:"help:classify this image instead of the test partition"`
	Resize  bool   `arg:"help:rescale an image of another size to 28x28"`
	Invert  bool   `arg:"help:the image is dark strokes on a light background"`
	Data    string `arg:"help:MNIST directory (searched when empty)"`
	Test    int    `arg:"help:use only the first N test images"`
	JSONLog bool   `arg:"--json-log,help:log JSON lines"`
}

func (args) Description() string {
	return "Classify handwritten digits with a trained model."
}

func main() {
	a := args{Model: "mnist.json.lzw", Test: -1}
	arg.MustParse(&a)

	var logger *zap.Logger
	var err error
	if a.JSONLog {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(a, logger); err != nil {
		logger.Sync()
		fmt.Fprintln(os.Stderr, "infer_mnist:", err)
		os.Exit(1)
	}
}

func run(a args, logger *zap.Logger) error {
	net, err := feedforward.Load(a.Model)
	if err != nil {
		return err
	}
	logger.Info("model loaded",
		zap.String("path", a.Model),
		zap.String("run", net.Metadata.RunID),
		zap.Int("epochs", net.Metadata.Epochs),
		zap.Int("params", net.CountParams()))

	if a.Image != "" {
		return classify(net, a)
	}
	return evaluate(net, a, logger)
}

func classify(net *feedforward.FeedforwardNetwork, a args) error {
	p, err := inference.New(net, 0)
	if err != nil {
		return err
	}
	img, pred, err := p.ClassifyFile(a.Image, imageio.Options{Resize: a.Resize, Invert: a.Invert})
	if err != nil {
		return err
	}
	fmt.Println(display.RenderPrediction(img, pred))
	fmt.Printf("%d %v\n", pred.Label, pred.Vector)
	return nil
}

func evaluate(net *feedforward.FeedforwardNetwork, a args, logger *zap.Logger) error {
	if !net.Compiled() {
		return errors.New("model was saved without a compilation, cannot compute its loss")
	}
	dir := a.Data
	if dir == "" {
		var err error
		if dir, err = mnist.Find(); err != nil {
			return err
		}
	}
	d, err := (&mnist.Loader{Dir: dir, Logger: logger}).Load()
	if err != nil {
		return err
	}
	d = d.Head(0, a.Test)
	testX, err := preprocess.NormalizeAll(d.TestImages)
	if err != nil {
		return err
	}
	testY, err := preprocess.EncodeLabels(d.TestLabels, preprocess.NumClasses)
	if err != nil {
		return err
	}
	result, err := trainer.Evaluate(net, testX, testY)
	if err != nil {
		return err
	}
	fmt.Printf("[infer success rate] %.2f %% with %d errors\n", 100*result.Accuracy, result.Total-result.Correct)
	fmt.Printf("[infer loss] %.4f\n[digest] %x\n", result.Loss, result.Digest)
	return nil
}
