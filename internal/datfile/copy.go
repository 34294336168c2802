package datfile

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// parallelCopyThreshold is the size below which a plain copy is faster than fanning out
const parallelCopyThreshold = 4 << 20

// parallelCopy copies min(len(dst), len(src)) bytes, splitting large copies into
// independent ranges copied concurrently.
func parallelCopy(dst, src []byte) int {
	n := min(len(dst), len(src))
	if n < parallelCopyThreshold {
		return copy(dst, src)
	}

	workers := runtime.GOMAXPROCS(0)
	chunk := (n + workers - 1) / workers

	var g errgroup.Group
	for off := 0; off < n; off += chunk {
		end := min(off+chunk, n)
		g.Go(func() error {
			copy(dst[off:end], src[off:end])
			return nil
		})
	}
	_ = g.Wait()

	return n
}
