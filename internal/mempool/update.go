package mempool

import (
	"context"
	"fmt"
	"time"

	"github.com/Klingon-tech/klingindex/internal/errs"
	"github.com/Klingon-tech/klingindex/internal/log"
	"github.com/Klingon-tech/klingindex/internal/schema"
	"github.com/Klingon-tech/klingindex/pkg/tx"
	"github.com/Klingon-tech/klingindex/pkg/types"
)

// Update runs one poll cycle of the sync protocol: diff the node's
// current mempool txid set against the local mirror, unlink what
// dropped out, and fetch+index what's new. The write lock is taken
// only to apply an already-computed removal or insertion — the node
// RPC calls and transaction decoding that dominate an update's cost
// all happen unlocked, so concurrent readers are never blocked on
// network I/O. New txids are indexed in the order the node lists them,
// so an input resolves against another new transaction of the same
// cycle only when that transaction is listed earlier.
func (m *Mempool) Update(ctx context.Context) error {
	start := time.Now()
	defer func() { m.metrics.UpdateDuration.Observe(time.Since(start).Seconds()) }()

	nodeTxids, err := m.node.GetRawMempool(ctx)
	if err != nil {
		return fmt.Errorf("mempool: %w: getrawmempool: %v", errs.ErrNodeUnavailable, err)
	}
	nodeSet := make(map[types.Hash]struct{}, len(nodeTxids))
	for _, txid := range nodeTxids {
		nodeSet[txid] = struct{}{}
	}

	m.mu.RLock()
	var removed, added []types.Hash
	for txid := range m.txstore {
		if _, ok := nodeSet[txid]; !ok {
			removed = append(removed, txid)
		}
	}
	for _, txid := range nodeTxids {
		if _, ok := m.txstore[txid]; !ok {
			added = append(added, txid)
		}
	}
	m.mu.RUnlock()

	if len(removed) > 0 {
		m.mu.Lock()
		for _, txid := range removed {
			m.unlinkLocked(txid)
		}
		m.mu.Unlock()
	}

	for _, txid := range added {
		if err := m.addOne(ctx, txid); err != nil {
			log.Mempool.Warn().Err(err).Str("txid", txid.String()).Msg("dropping mempool entry")
		}
	}

	m.metrics.Size.Set(float64(m.Count()))
	log.Mempool.Debug().Int("added", len(added)).Int("removed", len(removed)).Int("size", len(nodeTxids)).Msg("mempool updated")
	return nil
}

// Insert indexes a single txid immediately, outside the regular poll
// cycle — used right after a successful broadcast so the mirror
// reflects it without waiting for the next Update.
func (m *Mempool) Insert(ctx context.Context, txid types.Hash) error {
	return m.addOne(ctx, txid)
}

// addOne fetches, decodes, and indexes a single newly observed
// transaction. A failure drops just that one transaction from the
// mirror for this cycle; the next Update retries it since it still
// appears in the node's getrawmempool set.
func (m *Mempool) addOne(ctx context.Context, txid types.Hash) error {
	raw, err := m.node.GetRawTransaction(ctx, txid)
	if err != nil {
		return fmt.Errorf("%w: getrawtransaction(%s): %v", errs.ErrNodeUnavailable, txid, err)
	}
	transaction, err := tx.FromBytes(raw)
	if err != nil {
		return fmt.Errorf("decode transaction %s: %w", txid, err)
	}

	prevouts, allResolved, err := m.resolvePrevouts(transaction)
	if err != nil {
		return fmt.Errorf("resolve prevouts for %s: %w", txid, err)
	}

	touchedScripts := make(map[types.ScriptHash]struct{})
	additions := make(map[types.ScriptHash][]HistoryInfo)
	edges := make(map[types.Outpoint]schema.SpendingEdge)

	if !transaction.IsCoinbase() {
		for vin, in := range transaction.Inputs {
			edges[in.PrevOut] = schema.SpendingEdge{SpenderTxid: txid, SpenderVin: uint32(vin)}
			entry, ok := prevouts[in.PrevOut]
			if !ok {
				continue
			}
			sh := schema.ComputeScriptHash(entry.Script)
			additions[sh] = append(additions[sh], HistoryInfo{
				Txid: txid, Kind: schema.KindSpending, Index: uint32(vin), Value: entry.Value,
			})
			touchedScripts[sh] = struct{}{}
		}
	}

	for vout, out := range transaction.Outputs {
		if !m.cfg.IndexUnspendables && types.IsProvablyUnspendable(out.Script) {
			continue
		}
		sh := schema.ComputeScriptHash(out.Script)
		additions[sh] = append(additions[sh], HistoryInfo{
			Txid: txid, Kind: schema.KindFunding, Index: uint32(vout), Value: out.Value,
		})
		touchedScripts[sh] = struct{}{}
	}

	var fee FeeInfo
	if allResolved {
		var in, out uint64
		for _, entry := range prevouts {
			in += entry.Value
		}
		for _, o := range transaction.Outputs {
			out += o.Value
		}
		if in >= out {
			fee = FeeInfo{Fee: in - out, VSize: uint64(len(transaction.Bytes())), HasFee: true}
		}
	}

	m.mu.Lock()
	m.txstore[txid] = transaction
	m.feeinfo[txid] = fee
	for sh, infos := range additions {
		m.history[sh] = append(m.history[sh], infos...)
	}
	scripts := make([]types.ScriptHash, 0, len(touchedScripts))
	for sh := range touchedScripts {
		scripts = append(scripts, sh)
	}
	m.touched[txid] = scripts
	for outpoint, edge := range edges {
		m.edges[outpoint] = edge
	}
	m.recent = append(m.recent, RecentEntry{Txid: txid, Fee: fee.Fee, VSize: fee.VSize})
	if len(m.recent) > m.cfg.RecentCap {
		m.recent = m.recent[len(m.recent)-m.cfg.RecentCap:]
	}
	m.mu.Unlock()

	return nil
}

// resolvePrevouts resolves every non-coinbase input's prevout, first
// against the mempool's own txstore, then in a single batch against
// ChainQuery for whatever remains. allResolved is false if any prevout
// could not be found either way.
func (m *Mempool) resolvePrevouts(transaction *tx.Transaction) (map[types.Outpoint]schema.TxoEntry, bool, error) {
	prevouts := make(map[types.Outpoint]schema.TxoEntry)
	if transaction.IsCoinbase() {
		return prevouts, true, nil
	}

	var unresolved []types.Outpoint
	m.mu.RLock()
	for _, in := range transaction.Inputs {
		if entry, ok := m.txoFromMempoolLocked(in.PrevOut); ok {
			prevouts[in.PrevOut] = entry
		} else {
			unresolved = append(unresolved, in.PrevOut)
		}
	}
	m.mu.RUnlock()

	if len(unresolved) > 0 && m.chain != nil {
		chainEntries, err := m.chain.LookupTxos(unresolved)
		if err != nil {
			return nil, false, err
		}
		for _, outpoint := range unresolved {
			if entry, ok := chainEntries[outpoint]; ok {
				prevouts[outpoint] = entry
			}
		}
	}

	allResolved := len(prevouts) == len(transaction.Inputs)
	return prevouts, allResolved, nil
}

// txoFromMempoolLocked looks up outpoint against another mirrored
// transaction's output. Must be called with m.mu held for reading.
func (m *Mempool) txoFromMempoolLocked(outpoint types.Outpoint) (schema.TxoEntry, bool) {
	funder, ok := m.txstore[outpoint.TxID]
	if !ok || int(outpoint.Index) >= len(funder.Outputs) {
		return schema.TxoEntry{}, false
	}
	out := funder.Outputs[outpoint.Index]
	return schema.TxoEntry{Value: out.Value, Script: out.Script}, true
}

// unlinkLocked removes every trace of txid from the mirror, using the
// touched side index rather than scanning the full history map. Must
// be called with m.mu held for writing.
func (m *Mempool) unlinkLocked(txid types.Hash) {
	for _, sh := range m.touched[txid] {
		list := m.history[sh]
		filtered := list[:0]
		for _, info := range list {
			if info.Txid != txid {
				filtered = append(filtered, info)
			}
		}
		if len(filtered) == 0 {
			delete(m.history, sh)
		} else {
			m.history[sh] = filtered
		}
	}
	delete(m.touched, txid)

	if transaction, ok := m.txstore[txid]; ok {
		for _, in := range transaction.Inputs {
			if !in.PrevOut.IsZero() {
				delete(m.edges, in.PrevOut)
			}
		}
	}
	delete(m.txstore, txid)
	delete(m.feeinfo, txid)
}
