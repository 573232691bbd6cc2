package query

import (
	"context"
	"fmt"

	"github.com/Klingon-tech/klingindex/internal/errs"
	"github.com/Klingon-tech/klingindex/pkg/types"
)

// BroadcastRaw forwards a raw transaction hex string to the
// collaborator node and, on success, immediately indexes the returned
// txid into the mempool mirror so a query issued right after this
// call returns without waiting for the next poll cycle.
func (q *Query) BroadcastRaw(ctx context.Context, rawHex string) (types.Hash, error) {
	txid, err := q.node.SendRawTransaction(ctx, rawHex)
	if err != nil {
		return types.Hash{}, fmt.Errorf("query: %w: %v", errs.ErrTransportBroadcast, err)
	}
	if err := q.mempool.Insert(ctx, txid); err != nil {
		return txid, fmt.Errorf("query: broadcast accepted (txid %s) but mempool insert failed: %w", txid, err)
	}
	return txid, nil
}
