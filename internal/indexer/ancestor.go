package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingindex/internal/errs"
	"github.com/Klingon-tech/klingindex/internal/rpcclient"
	"github.com/Klingon-tech/klingindex/internal/schema"
	"github.com/Klingon-tech/klingindex/internal/store"
	"github.com/Klingon-tech/klingindex/pkg/types"
)

// localBestHeight finds the highest height for which a Height→hash row
// exists, by exponential then binary search over point lookups. The
// Height→hash family can't be found by a single-byte prefix scan
// because it shares its tag byte with the Tx history family (see
// internal/schema/heighthash.go) — a targeted per-height Has is the one
// unambiguous way to probe it.
func localBestHeight(s store.Store) (height uint64, ok bool, err error) {
	has, err := s.Has(schema.HeightHashKey(0))
	if err != nil {
		return 0, false, err
	}
	if !has {
		return 0, false, nil
	}

	lo, hi := uint64(0), uint64(1)
	for {
		has, err := s.Has(schema.HeightHashKey(hi))
		if err != nil {
			return 0, false, err
		}
		if !has {
			break
		}
		lo = hi
		if hi > hi*2 { // overflow guard; astronomically unlikely
			break
		}
		hi *= 2
	}

	for lo+1 < hi {
		mid := lo + (hi-lo)/2
		has, err := s.Has(schema.HeightHashKey(mid))
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

// heightHash reads the blockhash recorded at height from the store.
func heightHash(s store.Store, height uint64) (types.Hash, error) {
	value, err := s.Get(schema.HeightHashKey(height))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Hash{}, fmt.Errorf("%w: height %d missing from height-hash map", errs.ErrStoreCorruption, height)
		}
		return types.Hash{}, err
	}
	return schema.DecodeHeightHash(value)
}

// commonAncestor walks the node's header chain backward from its tip,
// at most MaxReorgDepth steps, comparing each visited height against the
// locally recorded hash, until it finds a height where both chains
// agree. reorg is true when that height is below the local tip.
func (t *Ticker) commonAncestor(ctx context.Context, nodeTipHash types.Hash, nodeTipHeader *rpcclient.NodeHeader) (height uint64, reorg bool, err error) {
	cur := nodeTipHash
	curHeader := nodeTipHeader

	for steps := uint64(0); steps <= t.cfg.MaxReorgDepth; steps++ {
		if curHeader.Height <= t.localHeight {
			localHash, err := heightHash(t.store, curHeader.Height)
			if err != nil {
				return 0, false, fmt.Errorf("indexer: common ancestor search: %w", err)
			}
			if localHash == cur {
				return curHeader.Height, curHeader.Height < t.localHeight, nil
			}
		}

		if curHeader.Height == 0 {
			return 0, false, fmt.Errorf("indexer: %w: no common ancestor found down to genesis", errs.ErrReorgTooDeep)
		}

		prevHash, hexErr := types.HexToHash(curHeader.PreviousHash)
		if hexErr != nil {
			return 0, false, fmt.Errorf("indexer: %w: bad previousblockhash from node: %v", errs.ErrNodeUnavailable, hexErr)
		}
		prevHeader, err := t.node.GetBlockHeader(ctx, prevHash)
		if err != nil {
			return 0, false, fmt.Errorf("indexer: %w: getblockheader(%s): %v", errs.ErrNodeUnavailable, prevHash, err)
		}
		cur, curHeader = prevHash, prevHeader
	}

	return 0, false, fmt.Errorf("indexer: %w: exceeded %d blocks without finding a common ancestor", errs.ErrReorgTooDeep, t.cfg.MaxReorgDepth)
}
