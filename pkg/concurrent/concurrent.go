package concurrent

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Workers normalizes a requested worker count: non-positive means GOMAXPROCS.
func Workers(requested int) int {
	if requested <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return requested
}

// ForEachChunk splits the index range [0, n) into contiguous chunks and runs action for each chunk
// in a separate goroutine, at most workers at a time. It waits for all chunks to finish and returns
// the first error encountered.
func ForEachChunk(n, workers int, action func(lo, hi int) error) error {
	if n <= 0 {
		return nil
	}
	workers = Workers(workers)
	if workers > n {
		workers = n
	}
	if workers == 1 {
		return action(0, n)
	}

	chunk := (n + workers - 1) / workers
	errGroup := errgroup.Group{}
	errGroup.SetLimit(workers)

	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		errGroup.Go(func() error {
			return action(lo, hi)
		})
	}

	return errGroup.Wait()
}
