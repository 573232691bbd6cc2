package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingindex/internal/errs"
	"github.com/Klingon-tech/klingindex/internal/fetcher"
	"github.com/Klingon-tech/klingindex/internal/log"
	"github.com/Klingon-tech/klingindex/internal/schema"
	"github.com/Klingon-tech/klingindex/internal/store"
	"github.com/Klingon-tech/klingindex/pkg/tx"
	"github.com/Klingon-tech/klingindex/pkg/types"
)

// applyRange streams blocks [from, to] through the Fetcher and commits
// one atomic batch per block, in ascending height order. A failure
// midway leaves the store at the last successfully committed height;
// the next Tick resumes from there.
func (t *Ticker) applyRange(ctx context.Context, from, to uint64) error {
	if to < from {
		return nil
	}
	out, errc := t.fetch.Stream(ctx, from, to)
	for entry := range out {
		batch := t.store.NewBatch()
		if err := t.applyBlock(ctx, batch, entry); err != nil {
			return fmt.Errorf("indexer: build batch at height %d: %w", entry.Height, err)
		}
		if err := batch.Commit(); err != nil {
			return fmt.Errorf("indexer: commit batch at height %d: %w", entry.Height, err)
		}
		t.localHeight, t.localHeightOK = entry.Height, true
		t.metrics.BlocksIndexed.Inc()
		log.Indexer.Debug().Uint64("height", entry.Height).Int("txs", entry.Block.TxCount()).Msg("applied block")
	}
	if err := <-errc; err != nil {
		return fmt.Errorf("indexer: fetch range [%d,%d]: %w", from, to, err)
	}
	return nil
}

// applyBlock writes every schema row §3 assigns to a confirmed block
// into batch. Inputs are processed before outputs within a transaction;
// a txo created earlier in the same block is resolved from an in-batch
// pending map before falling back to the Store, so intra-block spend
// chains resolve without a round trip.
func (t *Ticker) applyBlock(ctx context.Context, batch store.Batch, entry fetcher.BlockEntry) error {
	pending := make(map[types.Outpoint]schema.TxoEntry)

	for position, transaction := range entry.Block.Transactions {
		txid := transaction.Txid()

		if !transaction.IsCoinbase() {
			for vin, input := range transaction.Inputs {
				prevTxo, found, err := t.resolvePrevout(ctx, pending, input.PrevOut)
				if err != nil {
					return err
				}
				if !found {
					continue // prevout was filtered as unspendable; no spending edge to emit
				}

				edge := schema.EncodeSpendingEdge(schema.SpendingEdge{SpenderTxid: txid, SpenderVin: uint32(vin)})
				if err := batch.Put(schema.SpendingKey(input.PrevOut.TxID, input.PrevOut.Index), edge); err != nil {
					return err
				}

				scripthash := schema.ComputeScriptHash(prevTxo.Script)
				historyKey := schema.HistoryKeyBytes(schema.HistoryKey{
					ScriptHash: scripthash, Height: entry.Height, Txid: txid,
					Kind: schema.KindSpending, Index: uint32(vin),
				})
				if err := batch.Put(historyKey, nil); err != nil {
					return err
				}
			}
		}

		for vout, output := range transaction.Outputs {
			outpoint := types.Outpoint{TxID: txid, Index: uint32(vout)}
			if !t.cfg.IndexUnspendables && types.IsProvablyUnspendable(output.Script) {
				continue
			}
			t.metrics.OutputsByType.WithLabelValues(string(types.ClassifyScript(output.Script))).Inc()

			scripthash := schema.ComputeScriptHash(output.Script)
			fundingKey := schema.FundingKeyBytes(schema.FundingKey{
				ScriptHash: scripthash, Height: entry.Height, Txid: txid, Vout: uint32(vout),
			})
			if err := batch.Put(fundingKey, schema.EncodeFundingValue(output.Value)); err != nil {
				return err
			}
			historyKey := schema.HistoryKeyBytes(schema.HistoryKey{
				ScriptHash: scripthash, Height: entry.Height, Txid: txid,
				Kind: schema.KindFunding, Index: uint32(vout),
			})
			if err := batch.Put(historyKey, nil); err != nil {
				return err
			}

			txoEntry := schema.TxoEntry{Value: output.Value, Script: output.Script}
			pending[outpoint] = txoEntry
			if !t.cfg.LightMode {
				if err := batch.Put(schema.TxoKey(txid, uint32(vout)), schema.EncodeTxoEntry(txoEntry)); err != nil {
					return err
				}
			}
		}

		confirmEntry := schema.EncodeConfirmEntry(schema.ConfirmEntry{
			BlockHash: entry.BlockHash, Height: entry.Height, Position: uint32(position),
		})
		if err := batch.Put(schema.ConfirmKey(txid), confirmEntry); err != nil {
			return err
		}
	}

	if err := batch.Put(schema.BlockHeaderKey(entry.BlockHash), schema.EncodeBlockHeader(entry.Block.Header)); err != nil {
		return err
	}
	meta := schema.BlockMeta{TxCount: uint32(entry.Block.TxCount()), Size: uint64(entry.Size), Weight: uint64(entry.Size)}
	if err := batch.Put(schema.BlockMetaKey(entry.BlockHash), schema.EncodeBlockMeta(meta)); err != nil {
		return err
	}
	if err := batch.Put(schema.BlockTxidsKey(entry.BlockHash), schema.EncodeBlockTxids(entry.Block.Txids())); err != nil {
		return err
	}
	if err := batch.Put(schema.HeightHashKey(entry.Height), schema.EncodeHeightHash(entry.BlockHash)); err != nil {
		return err
	}
	return nil
}

// resolvePrevout looks up a spent output's (value, script), preferring
// an entry created earlier in the same block's batch over a committed
// Store row, since the latter may not exist yet. In light_mode the Txo
// cache is never written (apply.go's own output loop), so a Store miss
// there is resolved against the node instead of being treated as the
// prevout having been filtered — light_mode is a disk/latency tradeoff,
// never a correctness one. found is false only when the prevout was
// genuinely filtered as unspendable (index_unspendables=false).
func (t *Ticker) resolvePrevout(ctx context.Context, pending map[types.Outpoint]schema.TxoEntry, outpoint types.Outpoint) (schema.TxoEntry, bool, error) {
	if entry, ok := pending[outpoint]; ok {
		return entry, true, nil
	}
	value, err := t.store.Get(schema.TxoKey(outpoint.TxID, outpoint.Index))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return schema.TxoEntry{}, false, fmt.Errorf("lookup prevout %s:%d: %w", outpoint.TxID, outpoint.Index, err)
		}
		if !t.cfg.LightMode {
			return schema.TxoEntry{}, false, nil // Txo cache is authoritative here: genuinely filtered
		}
		return t.fetchTxoFromNode(ctx, outpoint)
	}
	entry, err := schema.DecodeTxoEntry(value)
	if err != nil {
		return schema.TxoEntry{}, false, fmt.Errorf("%w: decode txo at %s:%d: %v", errs.ErrStoreCorruption, outpoint.TxID, outpoint.Index, err)
	}
	return entry, true, nil
}

// fetchTxoFromNode reconstructs a prevout's (value, script) by fetching
// its owning transaction from the node — the "slower prevout lookups"
// light_mode trades the Txo cache for. found is false only when the
// resolved output is itself filtered as unspendable, so a light_mode
// miss still produces the same spending edges a cached lookup would.
func (t *Ticker) fetchTxoFromNode(ctx context.Context, outpoint types.Outpoint) (schema.TxoEntry, bool, error) {
	raw, err := t.node.GetRawTransaction(ctx, outpoint.TxID)
	if err != nil {
		return schema.TxoEntry{}, false, fmt.Errorf("%w: getrawtransaction(%s) for light_mode prevout lookup: %v", errs.ErrNodeUnavailable, outpoint.TxID, err)
	}
	prevTx, err := tx.FromBytes(raw)
	if err != nil {
		return schema.TxoEntry{}, false, fmt.Errorf("%w: decode prevout tx %s: %v", errs.ErrStoreCorruption, outpoint.TxID, err)
	}
	if int(outpoint.Index) >= len(prevTx.Outputs) {
		return schema.TxoEntry{}, false, fmt.Errorf("prevout %s:%d: vout out of range (tx has %d outputs)", outpoint.TxID, outpoint.Index, len(prevTx.Outputs))
	}
	output := prevTx.Outputs[outpoint.Index]
	if !t.cfg.IndexUnspendables && types.IsProvablyUnspendable(output.Script) {
		return schema.TxoEntry{}, false, nil
	}
	return schema.TxoEntry{Value: output.Value, Script: output.Script}, true, nil
}
