package indexer

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

// rollback undoes every block above ancestorHeight (exclusive), in a
// single atomic batch, per spec §4.4's "the rollback batch is applied
// atomically". Orphaned txids are enumerated from the locally persisted
// `X` row (BlockTxids) rather than by re-fetching and re-decoding the
// orphaned block — rollback must not depend on the node still serving a
// block that has left its best chain, which a pruned node may refuse.
// Each transaction's body is then fetched individually by txid, since
// the Store persists only derived rows, never raw transaction bytes.
func (t *Ticker) rollback(ctx context.Context, ancestorHeight uint64) error {
	batch := t.store.NewBatch()

	for height := t.localHeight; height > ancestorHeight; height-- {
		blockHash, err := heightHash(t.store, height)
		if err != nil {
			return fmt.Errorf("rollback: %w", err)
		}
		value, err := t.store.Get(schema.BlockTxidsKey(blockHash))
		if err != nil {
			return fmt.Errorf("rollback: %w: read block txids for orphaned height %d (%s): %v", errs.ErrStoreCorruption, height, blockHash, err)
		}
		txids, err := schema.DecodeBlockTxids(value)
		if err != nil {
			return fmt.Errorf("rollback: %w: decode block txids for orphaned height %d (%s): %v", errs.ErrStoreCorruption, height, blockHash, err)
		}

		for _, txid := range txids {
			raw, err := t.node.GetRawTransaction(ctx, txid)
			if err != nil {
				return fmt.Errorf("rollback: %w: getrawtransaction(%s) at orphaned height %d: %v", errs.ErrNodeUnavailable, txid, height, err)
			}
			transaction, err := tx.FromBytes(raw)
			if err != nil {
				return fmt.Errorf("rollback: %w: decode orphaned tx %s at height %d: %v", errs.ErrStoreCorruption, txid, height, err)
			}
			if err := t.unapplyTransaction(ctx, batch, transaction, height); err != nil {
				return fmt.Errorf("rollback: height %d: %w", height, err)
			}
		}

		if err := batch.Delete(schema.BlockHeaderKey(blockHash)); err != nil {
			return err
		}
		if err := batch.Delete(schema.BlockMetaKey(blockHash)); err != nil {
			return err
		}
		if err := batch.Delete(schema.BlockTxidsKey(blockHash)); err != nil {
			return err
		}
		if err := batch.Delete(schema.HeightHashKey(height)); err != nil {
			return err
		}
	}

	return batch.Commit()
}

// unapplyTransaction deletes every row a single orphaned transaction
// contributed at the given (now-orphaned) height.
func (t *Ticker) unapplyTransaction(ctx context.Context, batch store.Batch, transaction *tx.Transaction, height uint64) error {
	txid := transaction.Txid()

	if !transaction.IsCoinbase() {
		for vin, input := range transaction.Inputs {
			var prevTxo schema.TxoEntry
			value, err := t.store.Get(schema.TxoKey(input.PrevOut.TxID, input.PrevOut.Index))
			if err != nil {
				if !errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("lookup prevout %s:%d: %w", input.PrevOut.TxID, input.PrevOut.Index, err)
				}
				// light_mode never persisted this prevout's Txo row; fall
				// back to the node rather than skip a real spending edge.
				found := false
				if t.cfg.LightMode {
					prevTxo, found, err = t.fetchTxoFromNode(ctx, input.PrevOut)
					if err != nil {
						return err
					}
				}
				if !found {
					continue // prevout was genuinely filtered as unspendable
				}
			} else {
				prevTxo, err = schema.DecodeTxoEntry(value)
				if err != nil {
					return fmt.Errorf("%w: decode txo at %s:%d: %v", errs.ErrStoreCorruption, input.PrevOut.TxID, input.PrevOut.Index, err)
				}
			}

			if err := batch.Delete(schema.SpendingKey(input.PrevOut.TxID, input.PrevOut.Index)); err != nil {
				return err
			}
			scripthash := schema.ComputeScriptHash(prevTxo.Script)
			historyKey := schema.HistoryKeyBytes(schema.HistoryKey{
				ScriptHash: scripthash, Height: height, Txid: txid,
				Kind: schema.KindSpending, Index: uint32(vin),
			})
			if err := batch.Delete(historyKey); err != nil {
				return err
			}
		}
	}

	for vout, output := range transaction.Outputs {
		if !t.cfg.IndexUnspendables && types.IsProvablyUnspendable(output.Script) {
			continue
		}
		scripthash := schema.ComputeScriptHash(output.Script)
		fundingKey := schema.FundingKeyBytes(schema.FundingKey{
			ScriptHash: scripthash, Height: height, Txid: txid, Vout: uint32(vout),
		})
		if err := batch.Delete(fundingKey); err != nil {
			return err
		}
		historyKey := schema.HistoryKeyBytes(schema.HistoryKey{
			ScriptHash: scripthash, Height: height, Txid: txid,
			Kind: schema.KindFunding, Index: uint32(vout),
		})
		if err := batch.Delete(historyKey); err != nil {
			return err
		}
		if !t.cfg.LightMode {
			if err := batch.Delete(schema.TxoKey(txid, uint32(vout))); err != nil {
				return err
			}
		}
	}

	return batch.Delete(schema.ConfirmKey(txid))
}
