// Package datasets implements the partitioning shared by every dataset: the trailing
// validation hold-out and the deterministic epoch shuffle.
package datasets

import (
	"math"

	"github.com/neurlang/digitnet/hash"
	"github.com/pkg/errors"
)

// ErrSplit is returned when a partition cannot be split as requested.
var ErrSplit = errors.New("invalid split")

// Split returns the sizes of the leading training part and the trailing validation part of n
// samples. Training keeps floor(n*(1-fraction)) samples and validation gets the rest, so
// 10 samples with fraction 0.25 split 7/3. Both parts must be non empty.
func Split(n int, fraction float64) (train, validation int, err error) {
	if !(fraction > 0 && fraction < 1) {
		return 0, 0, errors.Wrapf(ErrSplit, "fraction %v", fraction)
	}
	train = int(math.Floor(float64(n) * (1 - fraction)))
	validation = n - train
	if validation < 1 || train < 1 {
		return 0, 0, errors.Wrapf(ErrSplit, "%d samples with fraction %v leave %d for training and %d for validation",
			n, fraction, train, validation)
	}
	return train, validation, nil
}

// Permutation returns a permutation of [0, n) fully determined by seed.
func Permutation(n int, seed uint32) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := int(hash.Hash(uint32(i), hash.Uint32(uint32(i), seed), uint32(i+1)))
		p[i], p[j] = p[j], p[i]
	}
	return p
}
