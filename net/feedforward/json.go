package feedforward

import (
	"compress/lzw"
	"encoding/json"
	"io"
	"os"

	"github.com/neurlang/digitnet/config"
	"github.com/neurlang/digitnet/learning"
	"github.com/pkg/errors"
)

// ErrFormat is returned for a weights file this version cannot read.
var ErrFormat = errors.New("unsupported weights file")

const formatVersion = 1

type document struct {
	Version      int                   `json:"version"`
	Architecture config.Architecture   `json:"architecture"`
	Compile      *learning.Compilation `json:"compile,omitempty"`
	Seed         uint32                `json:"seed"`
	Metadata     Metadata              `json:"metadata"`
	Params       [][]float64           `json:"params"`
}

// WriteCompressedWeightsToFile writes the network to a lzw file
func (f *FeedforwardNetwork) WriteCompressedWeightsToFile(name string) error {
	file, err := os.Create(name)
	if err != nil {
		return errors.Wrapf(err, "creating %s", name)
	}
	err = f.WriteCompressedWeights(file)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return errors.Wrapf(err, "writing %s", name)
}

// WriteCompressedWeights writes the architecture, the compilation and the weights to a writer
func (f *FeedforwardNetwork) WriteCompressedWeights(w io.Writer) error {
	arch, err := f.Architecture()
	if err != nil {
		return err
	}
	doc := document{
		Version:      formatVersion,
		Architecture: arch,
		Seed:         f.seed,
		Metadata:     f.Metadata,
		Params:       f.Params(),
	}
	if f.compiled != nil {
		c := f.compiled.Compilation
		doc.Compile = &c
	}
	lw := lzw.NewWriter(w, lzw.LSB, 8)
	if err := json.NewEncoder(lw).Encode(&doc); err != nil {
		lw.Close()
		return errors.Wrap(err, "encoding weights")
	}
	return lw.Close()
}

// ReadCompressedWeightsFromFile reads a network from a lzw file
func ReadCompressedWeightsFromFile(name string) (*FeedforwardNetwork, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", name)
	}
	defer file.Close()
	f, err := ReadCompressedWeights(file)
	return f, errors.Wrapf(err, "reading %s", name)
}

// ReadCompressedWeights rebuilds a network from its architecture and restores its weights.
// A network saved after compiling comes back compiled, with fresh optimizer state.
func ReadCompressedWeights(r io.Reader) (*FeedforwardNetwork, error) {
	lr := lzw.NewReader(r, lzw.LSB, 8)
	defer lr.Close()

	var doc document
	if err := json.NewDecoder(lr).Decode(&doc); err != nil {
		return nil, errors.Wrapf(ErrFormat, "decoding weights: %v", err)
	}
	if doc.Version != formatVersion {
		return nil, errors.Wrapf(ErrFormat, "version %d, want %d", doc.Version, formatVersion)
	}
	f, err := Build(doc.Architecture, doc.Seed)
	if err != nil {
		return nil, err
	}
	params := f.Params()
	if len(params) != len(doc.Params) {
		return nil, errors.Wrapf(ErrFormat, "%d parameter groups for %d combiners", len(doc.Params), len(params))
	}
	for i := range params {
		if len(params[i]) != len(doc.Params[i]) {
			return nil, errors.Wrapf(ErrFormat, "combiner %d has %d parameters, file has %d", i, len(params[i]), len(doc.Params[i]))
		}
		copy(params[i], doc.Params[i])
	}
	f.Metadata = doc.Metadata
	if doc.Compile != nil {
		if err := f.Compile(*doc.Compile); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Save writes the network to path.
func (f *FeedforwardNetwork) Save(path string) error {
	return f.WriteCompressedWeightsToFile(path)
}

// Load reads a network saved with Save.
func Load(path string) (*FeedforwardNetwork, error) {
	return ReadCompressedWeightsFromFile(path)
}
