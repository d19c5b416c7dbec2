package mnist

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/peterbourgon/diskv"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DefaultBaseURL is a public mirror of the MNIST archives.
const DefaultBaseURL = "https://storage.googleapis.com/cvdf-datasets/mnist/"

// Options configure Fetch.
type Options struct {
	BaseURL string // defaults to DefaultBaseURL
	Dir     string // defaults to DefaultDir()
	Client  *http.Client
	Logger  *zap.Logger
}

// Fetch downloads the archives missing from the target directory and verifies them.
// Archives already present with the right digest are kept; corrupt ones are replaced.
// It returns the directory holding the dataset.
func Fetch(ctx context.Context, opts Options) (string, error) {
	return fetch(ctx, opts, archives)
}

func fetch(ctx context.Context, opts Options, list []archive) (string, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(opts.BaseURL, "/") {
		opts.BaseURL += "/"
	}
	if opts.Dir == "" {
		opts.Dir = DefaultDir()
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	store := diskv.New(diskv.Options{
		BasePath:     opts.Dir,
		Transform:    func(string) []string { return nil },
		CacheSizeMax: 0,
	})

	for _, a := range list {
		if store.Has(a.name) {
			data, err := store.Read(a.name)
			if err == nil && verify(data, a.digest) == nil {
				log.Debug("archive present", zap.String("file", a.name))
				continue
			}
			log.Warn("replacing corrupt archive", zap.String("file", a.name))
			if err := store.Erase(a.name); err != nil {
				return "", errors.Wrapf(err, "removing %s", a.name)
			}
		}
		if err := download(ctx, opts, store, a); err != nil {
			return "", err
		}
		log.Info("archive downloaded", zap.String("file", a.name))
	}
	return opts.Dir, nil
}

func download(ctx context.Context, opts Options, store *diskv.Diskv, a archive) error {
	url := opts.BaseURL + a.name
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrapf(err, "requesting %s", url)
	}
	resp, err := opts.Client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "downloading %s", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("downloading %s: %s", url, resp.Status)
	}

	h := sha256.New()
	if err := store.WriteStream(a.name, io.TeeReader(resp.Body, h), true); err != nil {
		store.Erase(a.name)
		return errors.Wrapf(err, "storing %s", a.name)
	}
	if got := hex.EncodeToString(h.Sum(nil)); got != a.digest {
		store.Erase(a.name)
		return errors.Wrapf(ErrChecksum, "%s: sha256 %s, want %s", url, got, a.digest)
	}
	return nil
}
