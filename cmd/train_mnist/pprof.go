package main

import (
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"

	"github.com/pkg/errors"
)

// profile collects a CPU profile into path, usable as default.pgo for profile guided builds.
// The profile is written and the program exits on SIGINT or SIGTERM; the returned stop
// function writes it on a normal exit.
func profile(path string) (stop func(), err error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "creating %s", path)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "starting cpu profile")
	}
	stop = func() {
		pprof.StopCPUProfile()
		f.Close()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		stop()
		os.Exit(130)
	}()
	return stop, nil
}
