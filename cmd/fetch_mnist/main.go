package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/neurlang/digitnet/datasets/mnist"
	"go.uber.org/zap"
)

type args struct {
	Dir     string        `arg:"help:target directory (defaults to $MNIST_DIR or the user cache)"`
	BaseURL string        `arg:"--base-url,help:mirror serving the four archives"`
	Timeout time.Duration `arg:"help:give up after this long"`
}

func (args) Description() string {
	return "Download and verify the MNIST dataset."
}

func main() {
	a := args{BaseURL: mnist.DefaultBaseURL, Timeout: 10 * time.Minute}
	arg.MustParse(&a)

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, a.Timeout)
	defer cancelTimeout()

	dir, err := mnist.Fetch(ctx, mnist.Options{BaseURL: a.BaseURL, Dir: a.Dir, Logger: logger})
	if err != nil {
		logger.Sync()
		fmt.Fprintln(os.Stderr, "fetch_mnist:", err)
		os.Exit(1)
	}
	fmt.Println(dir)
}
