package query

import (
	"context"

	"github.com/Klingon-tech/klingindex/internal/fetcher"
	"github.com/Klingon-tech/klingindex/internal/schema"
	"github.com/Klingon-tech/klingindex/pkg/tx"
	"github.com/Klingon-tech/klingindex/pkg/types"

	"golang.org/x/sync/errgroup"
)

// LookupTxn resolves a transaction, preferring the confirmed chain view
// over a mempool shadow of the same txid.
func (q *Query) LookupTxn(ctx context.Context, txid types.Hash) (*tx.Transaction, bool, error) {
	if transaction, found, err := q.chain.LookupTxn(ctx, txid); err != nil || found {
		return transaction, found, err
	}
	transaction, found := q.mempool.Get(txid)
	return transaction, found, nil
}

// LookupRawTxn resolves a transaction's canonical bytes, same
// chain-first precedence as LookupTxn.
func (q *Query) LookupRawTxn(ctx context.Context, txid types.Hash) ([]byte, bool, error) {
	transaction, found, err := q.LookupTxn(ctx, txid)
	if err != nil || !found {
		return nil, found, err
	}
	return transaction.Bytes(), true, nil
}

// LookupSpend resolves the spending edge for outpoint, preferring a
// confirmed spend over a mempool-only one.
func (q *Query) LookupSpend(outpoint types.Outpoint) (schema.SpendingEdge, bool, error) {
	if edge, found, err := q.chain.LookupSpend(outpoint); err != nil || found {
		return edge, found, err
	}
	edge, found := q.mempool.LookupSpend(outpoint)
	return edge, found, nil
}

// LookupTxos resolves outpoints via the mempool, which itself falls
// back to ChainQuery for confirmed prevouts it doesn't mirror.
func (q *Query) LookupTxos(outpoints []types.Outpoint) (map[types.Outpoint]schema.TxoEntry, error) {
	return q.mempool.LookupTxos(outpoints)
}

// LookupTxSpends resolves, in parallel, the spend of every spendable
// output of transaction. A non-spendable output's slot is always
// absent. Mirrors the bounded-worker-pool fan-out internal/fetcher uses
// for per-block parsing, sized the same way.
func (q *Query) LookupTxSpends(ctx context.Context, txid types.Hash, transaction *tx.Transaction) ([]*schema.SpendingEdge, error) {
	spends := make([]*schema.SpendingEdge, len(transaction.Outputs))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(fetcher.DefaultWorkers())
	for vout, out := range transaction.Outputs {
		vout, out := vout, out
		if types.IsProvablyUnspendable(out.Script) {
			continue
		}
		g.Go(func() error {
			edge, found, err := q.LookupSpend(types.Outpoint{TxID: txid, Index: uint32(vout)})
			if err != nil {
				return err
			}
			if found {
				spends[vout] = &edge
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return spends, nil
}
