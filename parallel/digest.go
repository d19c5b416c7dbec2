package parallel

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"sync"
)

// Digest fingerprints the labels predicted over a partition. Predictions may arrive in any
// order from concurrent workers; the sum only depends on the label at each index, so two
// models agree on every sample exactly when their digests match.
type Digest struct {
	mut     sync.Mutex
	labels  []uint16
	written []bool
}

// NewDigest creates a digest for n predictions.
func NewDigest(n int) *Digest {
	return &Digest{
		labels:  make([]uint16, n),
		written: make([]bool, n),
	}
}

// MustPut records the label predicted for sample n. Each sample may be recorded once.
func (d *Digest) MustPut(n int, label uint16) {
	d.mut.Lock()
	defer d.mut.Unlock()
	if d.written[n] {
		panic(fmt.Sprintf("duplicate digest write at %d", n))
	}
	d.written[n] = true
	d.labels[n] = label
}

// Len is the number of predictions the digest covers.
func (d *Digest) Len() int {
	return len(d.labels)
}

// Sum returns the sha256 of the recorded labels in index order. Missing entries hash as 0xffff.
func (d *Digest) Sum() (ret [32]byte) {
	d.mut.Lock()
	defer d.mut.Unlock()
	h := sha256.New()
	var buf [2]byte
	for i, v := range d.labels {
		if !d.written[i] {
			v = 0xffff
		}
		binary.LittleEndian.PutUint16(buf[:], v)
		h.Write(buf[:])
	}
	copy(ret[:], h.Sum(nil))
	return
}
