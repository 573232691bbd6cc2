package chainquery

import (
	"context"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingindex/internal/errs"
	"github.com/Klingon-tech/klingindex/internal/schema"
	"github.com/Klingon-tech/klingindex/internal/store"
	"github.com/Klingon-tech/klingindex/pkg/tx"
	"github.com/Klingon-tech/klingindex/pkg/types"
)

// TxConfirmingBlock reads C[txid] and cross-checks its recorded height
// against H[height], filtering out a txid left behind by an incomplete
// rollback (the confirm row deleted only after the height-hash row,
// per internal/indexer/rollback.go's ordering, can transiently disagree).
func (q *ChainQuery) TxConfirmingBlock(txid types.Hash) (types.BlockID, bool, error) {
	value, err := q.store.Get(schema.ConfirmKey(txid))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.BlockID{}, false, nil
		}
		return types.BlockID{}, false, err
	}
	entry, err := schema.DecodeConfirmEntry(value)
	if err != nil {
		return types.BlockID{}, false, fmt.Errorf("chainquery: %w: decode confirm entry: %v", errs.ErrStoreCorruption, err)
	}

	chainHash, err := q.heightHash(entry.Height)
	if err != nil {
		if errors.Is(err, errs.ErrStoreCorruption) {
			return types.BlockID{}, false, nil
		}
		return types.BlockID{}, false, err
	}
	if chainHash != entry.BlockHash {
		return types.BlockID{}, false, nil
	}
	return types.BlockID{Height: entry.Height, Hash: entry.BlockHash}, true, nil
}

// LookupTxn loads a confirmed transaction's raw bytes via the node,
// provided C[txid] exists (tx_confirming_block succeeds first, so a
// dangling post-rollback confirm row never triggers a needless RPC).
func (q *ChainQuery) LookupTxn(ctx context.Context, txid types.Hash) (*tx.Transaction, bool, error) {
	if _, confirmed, err := q.TxConfirmingBlock(txid); err != nil || !confirmed {
		return nil, false, err
	}
	raw, err := q.node.GetRawTransaction(ctx, txid)
	if err != nil {
		return nil, false, fmt.Errorf("chainquery: %w: getrawtransaction(%s): %v", errs.ErrNodeUnavailable, txid, err)
	}
	transaction, err := tx.FromBytes(raw)
	if err != nil {
		return nil, false, fmt.Errorf("chainquery: %w: decode transaction %s: %v", errs.ErrStoreCorruption, txid, err)
	}
	return transaction, true, nil
}

// LookupSpend reads the Spending edge row for outpoint, if any.
func (q *ChainQuery) LookupSpend(outpoint types.Outpoint) (schema.SpendingEdge, bool, error) {
	value, err := q.store.Get(schema.SpendingKey(outpoint.TxID, outpoint.Index))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return schema.SpendingEdge{}, false, nil
		}
		return schema.SpendingEdge{}, false, err
	}
	edge, err := schema.DecodeSpendingEdge(value)
	if err != nil {
		return schema.SpendingEdge{}, false, fmt.Errorf("chainquery: %w: decode spending edge at %s: %v", errs.ErrStoreCorruption, outpoint, err)
	}
	return edge, true, nil
}
