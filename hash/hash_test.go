package hash

import (
	"math"
	"testing"
)

// performance benchmark
func BenchmarkHash(b *testing.B) {
	n := uint32(0)
	s := uint32(0)
	for i := 0; i < b.N; i++ {
		n = Hash(n, s, uint32(i)|1)
		s++
	}
}

// loop length test
func TestHash(t *testing.T) {
	const bound1 = 20
	const bound2 = 100000
	var count uint64
	for max := uint32(1); max <= 1<<bound1; max <<= 1 {
		var visited = make([]bool, max)
		var current uint32
		for s := uint32(0); s < bound2; s++ {
			current = Hash(current, s, max)
			if current == 0 || visited[current] {
				visited = make([]bool, max)
				continue
			}
			visited[current] = true
			count++
		}
	}
	if count == 0 {
		t.Errorf("hash never left zero")
	}
}

// sanity check fuzz
func FuzzHash(f *testing.F) {
	f.Add(uint32(0), uint32(0), uint32(0))
	f.Fuzz(func(t *testing.T, n, s, max uint32) {
		out := Hash(n, s, max)
		if max == 0 && out != 0 {
			t.Errorf("Hash(%d, %d, 0) == %d (max=0 should be 0)", n, s, out)
		}
		if max > 1 && out >= max {
			t.Errorf("Hash(%d, %d, %d) == %d (output bigger or equal than max)", n, s, max, out)
		}
	})
}

func TestFloat64(t *testing.T) {
	testCases := []struct {
		name string
		seed uint32
	}{
		{"zero", 0},
		{"one", 1},
		{"large", math.MaxUint32},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var sum float64
			const n = 100000
			for i := uint32(0); i < n; i++ {
				v := Float64(i, tc.seed)
				if v < 0 || v >= 1 {
					t.Fatalf("Float64(%d, %d) = %v out of [0,1)", i, tc.seed, v)
				}
				if v != Float64(i, tc.seed) {
					t.Fatalf("Float64(%d, %d) not deterministic", i, tc.seed)
				}
				sum += v
			}
			if mean := sum / n; math.Abs(mean-0.5) > 0.01 {
				t.Errorf("mean %v too far from 0.5", mean)
			}
		})
	}
}

func TestNeighbouringSeeds(t *testing.T) {
	var equal int
	for i := uint32(0); i < 1000; i++ {
		if math.Abs(Float64(i+1, 8)-Float64(i, 7)) < 1e-3 {
			equal++
		}
	}
	if equal > 10 {
		t.Errorf("seeds 7 and 8 are correlated: %d near-equal values", equal)
	}
}

func TestKeep(t *testing.T) {
	for _, rate := range []float64{0, 0.25, 0.5, 0.9} {
		var kept int
		const n = 50000
		for i := uint32(0); i < n; i++ {
			if Keep(i, 42, rate) {
				kept++
			}
		}
		if got := float64(kept) / n; math.Abs(got-(1-rate)) > 0.01 {
			t.Errorf("rate %v kept fraction %v", rate, got)
		}
	}
}

func TestUniform(t *testing.T) {
	for i := uint32(0); i < 10000; i++ {
		v := Uniform(i, 3, 0.25)
		if v < -0.25 || v >= 0.25 {
			t.Fatalf("Uniform(%d) = %v outside limit", i, v)
		}
	}
}
