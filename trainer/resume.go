package trainer

import (
	"os"

	"github.com/neurlang/digitnet/net/feedforward"
	"github.com/pkg/errors"
)

// Resume loads the network saved at path. It reports false without an error when there is
// no file to resume from.
func Resume(path string) (*feedforward.FeedforwardNetwork, bool, error) {
	if path == "" {
		return nil, false, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	net, err := feedforward.Load(path)
	if err != nil {
		return nil, false, err
	}
	return net, true, nil
}
