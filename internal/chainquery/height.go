package chainquery

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingindex/internal/errs"
	"github.com/Klingon-tech/klingindex/internal/schema"
	"github.com/Klingon-tech/klingindex/internal/store"
	"github.com/Klingon-tech/klingindex/pkg/block"
	"github.com/Klingon-tech/klingindex/pkg/types"
)

// BestHeight returns the highest height for which a Height→hash row
// exists, by exponential-then-binary search over point lookups — the
// Height→hash family shares its tag byte with the Tx history family
// (schema.TagHeightHash == schema.TagHistory), so it can't be found by
// a prefix scan; this mirrors internal/indexer's own localBestHeight,
// duplicated here rather than imported since ChainQuery and Indexer are
// deliberately kept without a dependency on each other.
func (q *ChainQuery) BestHeight() (height uint64, ok bool, err error) {
	has, err := q.store.Has(schema.HeightHashKey(0))
	if err != nil {
		return 0, false, err
	}
	if !has {
		return 0, false, nil
	}

	lo, hi := uint64(0), uint64(1)
	for {
		has, err := q.store.Has(schema.HeightHashKey(hi))
		if err != nil {
			return 0, false, err
		}
		if !has {
			break
		}
		lo = hi
		if hi > hi*2 {
			break
		}
		hi *= 2
	}
	for lo+1 < hi {
		mid := lo + (hi-lo)/2
		has, err := q.store.Has(schema.HeightHashKey(mid))
		if err != nil {
			return 0, false, err
		}
		if has {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo, true, nil
}

// BestHash returns the blockhash at BestHeight.
func (q *ChainQuery) BestHash() (types.Hash, bool, error) {
	height, ok, err := q.BestHeight()
	if err != nil || !ok {
		return types.Hash{}, ok, err
	}
	hash, err := q.heightHash(height)
	if err != nil {
		return types.Hash{}, false, err
	}
	return hash, true, nil
}

// heightHash reads the blockhash recorded at height, wrapping a missing
// row as ErrStoreCorruption: every height below BestHeight must have one.
func (q *ChainQuery) heightHash(height uint64) (types.Hash, error) {
	value, err := q.store.Get(schema.HeightHashKey(height))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Hash{}, fmt.Errorf("chainquery: %w: height %d missing from height-hash map", errs.ErrStoreCorruption, height)
		}
		return types.Hash{}, err
	}
	return schema.DecodeHeightHash(value)
}

// HeaderByHeight reads the blockhash at height, then its header.
func (q *ChainQuery) HeaderByHeight(height uint64) (*block.Header, bool, error) {
	hash, err := q.heightHash(height)
	if err != nil {
		if errors.Is(err, errs.ErrStoreCorruption) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return q.HeaderByHash(hash)
}

// HeaderByHash reads and decodes a block header by its hash.
func (q *ChainQuery) HeaderByHash(hash types.Hash) (*block.Header, bool, error) {
	value, err := q.store.Get(schema.BlockHeaderKey(hash))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	header, err := schema.DecodeBlockHeader(value)
	if err != nil {
		return nil, false, fmt.Errorf("chainquery: %w: decode header %s: %v", errs.ErrStoreCorruption, hash, err)
	}
	return header, true, nil
}

// BlockStatus is the result of get_block_status(hash).
type BlockStatus struct {
	InBestChain bool
	Height      uint64
	NextBest    *types.Hash
}

// GetBlockStatus reports whether hash is on the current best chain and,
// if so, the hash that immediately follows it.
func (q *ChainQuery) GetBlockStatus(hash types.Hash) (BlockStatus, bool, error) {
	header, found, err := q.HeaderByHash(hash)
	if err != nil || !found {
		return BlockStatus{}, found, err
	}

	chainHash, err := q.heightHash(header.Height)
	if err != nil {
		if errors.Is(err, errs.ErrStoreCorruption) {
			return BlockStatus{Height: header.Height}, true, nil
		}
		return BlockStatus{}, false, err
	}
	status := BlockStatus{Height: header.Height, InBestChain: chainHash == hash}
	if !status.InBestChain {
		return status, true, nil
	}

	nextHash, err := q.heightHash(header.Height + 1)
	if err != nil {
		if errors.Is(err, errs.ErrStoreCorruption) {
			return status, true, nil
		}
		return BlockStatus{}, false, err
	}
	status.NextBest = &nextHash
	return status, true, nil
}
