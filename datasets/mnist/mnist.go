// Package mnist loads the MNIST handwritten digit dataset from its four canonical IDX archives.
package mnist

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/neurlang/digitnet/preprocess"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrChecksum is returned when an archive does not have its published sha256 digest.
var ErrChecksum = errors.New("mnist checksum mismatch")

// ErrNotFound is returned when no search directory holds the whole dataset.
var ErrNotFound = errors.New("mnist dataset not found")

const tmpDirectory = "/tmp/mnist/"

type archive struct {
	name   string
	digest string
	train  bool
	images bool
}

var archives = []archive{
	{"train-images-idx3-ubyte.gz", "440fcabf73cc546fa21475e81ea370265605f56be210a4024d2ca8f203523609", true, true},
	{"train-labels-idx1-ubyte.gz", "3552534a0a558bbed6aed32b30c495cca23d567ec52cac8be1a0730e8010255c", true, false},
	{"t10k-images-idx3-ubyte.gz", "8d422c7b0a1c1c79245a5bcf07fe86e33eeafee792b84584aec276f5a2dbc4e6", false, true},
	{"t10k-labels-idx1-ubyte.gz", "f7ae60f92e00ec6debd23a6088c31dbd2371eca3ffa0defaefb259924204aec6", false, false},
}

// Dataset holds the train and test partitions as parallel image and label arrays.
type Dataset struct {
	TrainImages []preprocess.Image
	TrainLabels []uint8
	TestImages  []preprocess.Image
	TestLabels  []uint8
}

// Head returns a dataset restricted to the first train and test samples of each partition.
// Negative or oversized counts keep the whole partition.
func (d *Dataset) Head(train, test int) *Dataset {
	clip := func(want, have int) int {
		if want < 0 || want > have {
			return have
		}
		return want
	}
	train = clip(train, len(d.TrainLabels))
	test = clip(test, len(d.TestLabels))
	return &Dataset{
		TrainImages: d.TrainImages[:train:train],
		TrainLabels: d.TrainLabels[:train:train],
		TestImages:  d.TestImages[:test:test],
		TestLabels:  d.TestLabels[:test:test],
	}
}

// Loader reads the archives of one directory.
type Loader struct {
	Dir string

	// SkipVerify disables the digest check, for datasets in MNIST format that are not MNIST.
	SkipVerify bool

	Logger *zap.Logger
}

// Load reads and verifies the dataset stored in dir.
func Load(dir string) (*Dataset, error) {
	return (&Loader{Dir: dir}).Load()
}

// Load reads the four archives.
func (l *Loader) Load() (*Dataset, error) {
	log := l.Logger
	if log == nil {
		log = zap.NewNop()
	}
	d := new(Dataset)
	for _, a := range archives {
		path := filepath.Join(l.Dir, a.name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", path)
		}
		if !l.SkipVerify {
			if err := verify(data, a.digest); err != nil {
				return nil, errors.Wrap(err, path)
			}
		}
		if a.images {
			images, err := ParseImages(bytes.NewReader(data))
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s", path)
			}
			if a.train {
				d.TrainImages = images
			} else {
				d.TestImages = images
			}
		} else {
			labels, err := ParseLabels(bytes.NewReader(data))
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s", path)
			}
			if a.train {
				d.TrainLabels = labels
			} else {
				d.TestLabels = labels
			}
		}
	}
	if len(d.TrainImages) != len(d.TrainLabels) {
		return nil, errors.Wrapf(ErrFormat, "%d train images, %d train labels", len(d.TrainImages), len(d.TrainLabels))
	}
	if len(d.TestImages) != len(d.TestLabels) {
		return nil, errors.Wrapf(ErrFormat, "%d test images, %d test labels", len(d.TestImages), len(d.TestLabels))
	}
	log.Info("mnist loaded",
		zap.String("dir", l.Dir),
		zap.Int("train", len(d.TrainLabels)),
		zap.Int("test", len(d.TestLabels)))
	return d, nil
}

func verify(data []byte, digest string) error {
	sum := sha256.Sum256(data)
	if got := hex.EncodeToString(sum[:]); got != digest {
		return errors.Wrapf(ErrChecksum, "sha256 %s, want %s", got, digest)
	}
	return nil
}

// DefaultDir is $MNIST_DIR when set, otherwise a directory in the user cache.
func DefaultDir() string {
	if dir := os.Getenv("MNIST_DIR"); dir != "" {
		return dir
	}
	if cache, err := os.UserCacheDir(); err == nil {
		return filepath.Join(cache, "digitnet", "mnist")
	}
	return tmpDirectory
}

// Find returns the first of dirs holding all four archives. Without dirs it searches
// $MNIST_DIR, /tmp/mnist/ and the user cache.
func Find(dirs ...string) (string, error) {
	if len(dirs) == 0 {
		if dir := os.Getenv("MNIST_DIR"); dir != "" {
			dirs = append(dirs, dir)
		}
		dirs = append(dirs, tmpDirectory)
		if cache, err := os.UserCacheDir(); err == nil {
			dirs = append(dirs, filepath.Join(cache, "digitnet", "mnist"))
		}
	}
outer:
	for _, dir := range dirs {
		for _, a := range archives {
			if _, err := os.Stat(filepath.Join(dir, a.name)); err != nil {
				continue outer
			}
		}
		return dir, nil
	}
	return "", errors.Wrapf(ErrNotFound, "searched %v", dirs)
}
