package chainquery

import (
	"fmt"

	"github.com/Klingon-tech/klingindex/internal/errs"
	"github.com/Klingon-tech/klingindex/internal/schema"
	"github.com/Klingon-tech/klingindex/pkg/types"
)

// HistoryEvent is one deduplicated confirmed event touching a script.
type HistoryEvent struct {
	Txid  types.Hash
	Block types.BlockID
}

// History returns up to limit of a script's confirmed events, newest
// first, deduplicated by txid. When cursor is non-nil, iteration resumes
// strictly after the cursor's position in the newest-first order (i.e.
// strictly before it chronologically) — ErrBadInput if cursor does not
// appear in the script's history.
func (q *ChainQuery) History(scripthash types.ScriptHash, cursor *types.Hash, limit int) ([]HistoryEvent, error) {
	events, err := q.historyEventsDescending(scripthash, 0)
	if err != nil {
		return nil, err
	}

	if cursor != nil {
		idx := -1
		for i, e := range events {
			if e.Txid == *cursor {
				idx = i
				break
			}
		}
		if idx == -1 {
			return nil, fmt.Errorf("chainquery: %w: cursor txid %s not found in history", errs.ErrBadInput, cursor)
		}
		events = events[idx+1:]
	}

	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// HistoryTxids returns the full confirmed history, newest first, bounded
// by cfg.HistoryTxidsCap.
func (q *ChainQuery) HistoryTxids(scripthash types.ScriptHash) ([]HistoryEvent, error) {
	return q.historyEventsDescending(scripthash, q.cfg.HistoryTxidsCap)
}

// historyEventsDescending scans the script's full Tx history prefix
// ascending (the family's natural key order), deduplicates by txid, and
// reverses to newest-first. maxResults, if positive, truncates the
// final newest-first list to that many entries.
func (q *ChainQuery) historyEventsDescending(scripthash types.ScriptHash, maxResults int) ([]HistoryEvent, error) {
	it := q.store.Scan(schema.HistoryPrefix(scripthash))
	defer it.Close()

	seen := make(map[types.Hash]struct{})
	hashCache := make(map[uint64]types.Hash)
	var events []HistoryEvent

	for {
		key, _, ok := it.Next()
		if !ok {
			break
		}
		hk, err := schema.DecodeHistoryKey(key)
		if err != nil {
			return nil, fmt.Errorf("chainquery: %w: decode history key: %v", errs.ErrStoreCorruption, err)
		}
		if _, dup := seen[hk.Txid]; dup {
			continue
		}
		seen[hk.Txid] = struct{}{}

		blockHash, ok := hashCache[hk.Height]
		if !ok {
			blockHash, err = q.heightHash(hk.Height)
			if err != nil {
				return nil, err
			}
			hashCache[hk.Height] = blockHash
		}
		events = append(events, HistoryEvent{Txid: hk.Txid, Block: types.BlockID{Height: hk.Height, Hash: blockHash}})
	}
	if err := it.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
	if maxResults > 0 && len(events) > maxResults {
		events = events[:maxResults]
	}
	return events, nil
}
