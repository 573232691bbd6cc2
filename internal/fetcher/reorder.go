package fetcher

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers returns a worker-pool size derived from the available
// CPUs, the teacher's default for any bounded parallel fan-out.
func DefaultWorkers() int {
	if n := runtime.GOMAXPROCS(0); n > 0 {
		return n
	}
	return 1
}

type parseResult struct {
	entry BlockEntry
	err   error
}

// streamInOrder parses heights [from, to] with up to workers goroutines
// running concurrently (via errgroup.Group.SetLimit), and emits the
// results on out in strictly ascending height order via a fixed-size
// ring of single-slot channels. Each height writes into its own ring
// slot, and the dispatcher starts height i only after the emitter has
// drained height i-ringSize from that same slot; once ringSize parsed
// blocks are waiting unconsumed, the dispatcher blocks — this is the
// "reorder buffer full" backpressure the Indexer relies on.
func streamInOrder(ctx context.Context, from, to uint64, workers int, parseOne func(context.Context, uint64) (BlockEntry, error)) (<-chan BlockEntry, <-chan error) {
	out := make(chan BlockEntry)
	errc := make(chan error, 1)

	if to < from {
		close(out)
		close(errc)
		return out, errc
	}
	total := to - from + 1
	if workers <= 0 {
		workers = 1
	}
	ringSize := workers * 2
	if ringSize < 2 {
		ringSize = 2
	}
	ring := make([]chan parseResult, ringSize)
	for i := range ring {
		ring[i] = make(chan parseResult, 1)
	}

	free := make(chan struct{}, ringSize)
	for i := 0; i < ringSize; i++ {
		free <- struct{}{}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	go func() {
		for i := uint64(0); i < total; i++ {
			select {
			case <-free:
			case <-ctx.Done():
				return
			}
			height := from + i
			slot := ring[i%uint64(ringSize)]
			g.Go(func() error {
				entry, err := parseOne(gctx, height)
				slot <- parseResult{entry: entry, err: err}
				return nil
			})
		}
	}()

	go func() {
		defer close(out)
		defer close(errc)
		for i := uint64(0); i < total; i++ {
			slot := ring[i%uint64(ringSize)]
			select {
			case res := <-slot:
				free <- struct{}{}
				if res.err != nil {
					errc <- res.err
					return
				}
				select {
				case out <- res.entry:
				case <-ctx.Done():
					errc <- ctx.Err()
					return
				}
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
	}()

	return out, errc
}
