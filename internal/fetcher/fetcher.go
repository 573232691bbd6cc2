// Package fetcher streams block data from the collaborator node, in
// contiguous height order, with parallel parsing bounded by a worker
// pool and a height-indexed reorder buffer.
package fetcher

import (
	"context"

	"github.com/Klingon-tech/klingindex/pkg/block"
	"github.com/Klingon-tech/klingindex/pkg/types"
)

// BlockEntry is one block handed to the Indexer, in height order.
type BlockEntry struct {
	Block     *block.Block
	BlockHash types.Hash
	Height    uint64
	Size      int
}

// Fetcher produces BlockEntry values for a requested height range.
// Implementations close both channels when the range is exhausted or
// ctx is canceled; at most one of the two channels ever yields a final
// value for a given range.
type Fetcher interface {
	Stream(ctx context.Context, from, to uint64) (<-chan BlockEntry, <-chan error)
}
