package chainquery

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingindex/internal/errs"
	"github.com/Klingon-tech/klingindex/internal/schema"
	"github.com/Klingon-tech/klingindex/internal/store"
	"github.com/Klingon-tech/klingindex/pkg/types"
)

// Stats computes a script's confirmed funding/spending activity, served
// from the "K" cache when it was computed against the current tip.
//
// Tx history rows are key-only (see internal/schema/history.go), so a
// single prefix scan over them can't recover the funded/spent values a
// ScriptStats needs. Instead this joins the Funding family directly
// against the Spending-edge family — the same existence check utxo()
// performs — recovering both the count/sum of funded outputs and, for
// each one with a Spending edge, the count/sum of spent outputs and the
// spender's txid, in one pass over the script's Funding rows. Because
// the Indexer is the sole writer and extends the chain strictly
// upward, a cache entry computed against the current best hash can
// never be stale — the "prefix has grown by more than a threshold"
// condition spec §4.5 describes collapses to the same tip-hash check.
func (q *ChainQuery) Stats(scripthash types.ScriptHash) (schema.ScriptStats, error) {
	tipHash, ok, err := q.BestHash()
	if err != nil {
		return schema.ScriptStats{}, err
	}

	if ok {
		if cached, hit, err := q.cachedStats(scripthash, tipHash); err != nil {
			return schema.ScriptStats{}, err
		} else if hit {
			return cached, nil
		}
	}

	stats, err := q.computeStats(scripthash)
	if err != nil {
		return schema.ScriptStats{}, err
	}

	if ok {
		entry := schema.StatsCacheEntry{Stats: stats, LastIndexedBlockHash: tipHash}
		batch := q.store.NewBatch()
		if err := batch.Put(schema.StatsCacheKey(scripthash), schema.EncodeStatsCacheEntry(entry)); err == nil {
			_ = batch.Commit()
		}
	}
	return stats, nil
}

func (q *ChainQuery) cachedStats(scripthash types.ScriptHash, tipHash types.Hash) (schema.ScriptStats, bool, error) {
	value, err := q.store.Get(schema.StatsCacheKey(scripthash))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return schema.ScriptStats{}, false, nil
		}
		return schema.ScriptStats{}, false, err
	}
	entry, err := schema.DecodeStatsCacheEntry(value)
	if err != nil {
		return schema.ScriptStats{}, false, fmt.Errorf("chainquery: %w: decode stats cache: %v", errs.ErrStoreCorruption, err)
	}
	if entry.LastIndexedBlockHash != tipHash {
		return schema.ScriptStats{}, false, nil
	}
	return entry.Stats, true, nil
}

func (q *ChainQuery) computeStats(scripthash types.ScriptHash) (schema.ScriptStats, error) {
	it := q.store.Scan(schema.FundingPrefix(scripthash))
	defer it.Close()

	var stats schema.ScriptStats
	txids := make(map[types.Hash]struct{})

	for {
		key, value, ok := it.Next()
		if !ok {
			break
		}
		fk, err := schema.DecodeFundingKey(key)
		if err != nil {
			return schema.ScriptStats{}, fmt.Errorf("chainquery: %w: decode funding key: %v", errs.ErrStoreCorruption, err)
		}
		amount, err := schema.DecodeFundingValue(value)
		if err != nil {
			return schema.ScriptStats{}, fmt.Errorf("chainquery: %w: decode funding value: %v", errs.ErrStoreCorruption, err)
		}

		stats.FundedTxoCount++
		stats.FundedTxoSum += amount
		txids[fk.Txid] = struct{}{}

		edgeValue, err := q.store.Get(schema.SpendingKey(fk.Txid, fk.Vout))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return schema.ScriptStats{}, err
		}
		edge, err := schema.DecodeSpendingEdge(edgeValue)
		if err != nil {
			return schema.ScriptStats{}, fmt.Errorf("chainquery: %w: decode spending edge: %v", errs.ErrStoreCorruption, err)
		}
		stats.SpentTxoCount++
		stats.SpentTxoSum += amount
		txids[edge.SpenderTxid] = struct{}{}
	}
	if err := it.Err(); err != nil {
		return schema.ScriptStats{}, err
	}

	stats.TxCount = uint64(len(txids))
	return stats, nil
}
