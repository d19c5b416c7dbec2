// Package parallel contains the bounded fan-out primitives used by the network to spread
// per-sample work of a batch across CPU cores.
package parallel

import "sync"

// ForEach executes a for loop with a limited number of concurrent goroutines.
// Each goroutine processes one integer, from 0 to length.
func ForEach(length, limit int, body func(i int)) {
	if limit <= 0 {
		limit = 1
	}
	if length <= 0 {
		return
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	wg.Add(length)

	for i := 0; i < length; i++ {
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			body(i)
		}(i)
	}

	wg.Wait()
}

// Chunks splits the range [0, length) into at most parts contiguous half-open ranges of
// nearly equal size. Empty ranges are never returned.
func Chunks(length, parts int) (o [][2]int) {
	if length <= 0 {
		return nil
	}
	if parts <= 0 {
		parts = 1
	}
	if parts > length {
		parts = length
	}
	base := length / parts
	extra := length % parts
	start := 0
	for p := 0; p < parts; p++ {
		size := base
		if p < extra {
			size++
		}
		o = append(o, [2]int{start, start + size})
		start += size
	}
	return o
}
