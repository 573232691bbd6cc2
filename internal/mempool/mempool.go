// Package mempool mirrors the collaborator node's mempool: the same
// query surface ChainQuery offers for confirmed activity, but for
// unconfirmed transactions, kept in sync by periodically diffing
// against the node's own view. It holds no fee policy or validation
// logic of its own — the node already decided what belongs in its
// mempool; this package only indexes what it reports.
package mempool

import (
	"context"
	"sync"

	"github.com/Klingon-tech/klingindex/internal/schema"
	"github.com/Klingon-tech/klingindex/pkg/tx"
	"github.com/Klingon-tech/klingindex/pkg/types"
)

// NodeClient is the subset of the collaborator interface the mempool
// mirror needs to stay in sync.
type NodeClient interface {
	GetRawMempool(ctx context.Context) ([]types.Hash, error)
	GetRawTransaction(ctx context.Context, txid types.Hash) ([]byte, error)
}

// ChainLookup resolves a prevout's (value, script) for an unconfirmed
// input whose previous output is not itself another mempool entry.
// internal/chainquery.ChainQuery satisfies this directly.
type ChainLookup interface {
	LookupTxos(outpoints []types.Outpoint) (map[types.Outpoint]schema.TxoEntry, error)
}

// HistoryInfo is one unconfirmed event touching a script — spec §4.6's
// TxHistoryInfo. Unlike the Store's key-only Tx history rows, the
// mempool mirror is free to carry Value inline since it is an ordinary
// in-memory structure with no byte-exact wire format to honor.
type HistoryInfo struct {
	Txid  types.Hash
	Kind  schema.Kind
	Index uint32
	Value uint64
}

// FeeInfo is the fee/virtual-size pair backlog reporting needs. HasFee
// is false when at least one input's prevout could not be resolved
// (neither another mempool entry nor a confirmed Txo), matching spec
// §4.6's "compute fee ... when all prevouts resolve".
type FeeInfo struct {
	Fee    uint64
	VSize  uint64
	HasFee bool
}

// RecentEntry summarizes one transaction's arrival, for the bounded
// "recent" deque spec §4.6 describes.
type RecentEntry struct {
	Txid  types.Hash
	Fee   uint64
	VSize uint64
}

// Config tunes the mempool mirror.
type Config struct {
	// RecentCap bounds the "recent arrivals" deque.
	RecentCap int
	// IndexUnspendables mirrors the Indexer's own knob: when false,
	// provably unspendable outputs contribute no funding history row.
	IndexUnspendables bool
}

// Mempool is an in-memory mirror of the node's mempool. The entire
// state is guarded by a single RWMutex per spec §4.6/§5 — no finer
// granularity, because an update must atomically keep txstore, history,
// edges, and feeinfo mutually consistent.
type Mempool struct {
	node    NodeClient
	chain   ChainLookup
	cfg     Config
	metrics *Metrics

	mu sync.RWMutex

	txstore map[types.Hash]*tx.Transaction
	history map[types.ScriptHash][]HistoryInfo
	edges   map[types.Outpoint]schema.SpendingEdge
	feeinfo map[types.Hash]FeeInfo
	recent  []RecentEntry

	// touched is the side index unlink relies on: for each mempool
	// txid, every scripthash it contributed a history entry for, so
	// removal never scans the full history map.
	touched map[types.Hash][]types.ScriptHash
}

// New builds an empty mempool mirror.
func New(node NodeClient, chain ChainLookup, cfg Config, metrics *Metrics) *Mempool {
	if cfg.RecentCap <= 0 {
		cfg.RecentCap = 100
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Mempool{
		node:    node,
		chain:   chain,
		cfg:     cfg,
		metrics: metrics,
		txstore: make(map[types.Hash]*tx.Transaction),
		history: make(map[types.ScriptHash][]HistoryInfo),
		edges:   make(map[types.Outpoint]schema.SpendingEdge),
		feeinfo: make(map[types.Hash]FeeInfo),
		touched: make(map[types.Hash][]types.ScriptHash),
	}
}

// Has reports whether txid is currently mirrored.
func (m *Mempool) Has(txid types.Hash) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.txstore[txid]
	return ok
}

// Get returns the mirrored transaction for txid, if any.
func (m *Mempool) Get(txid types.Hash) (*tx.Transaction, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	transaction, ok := m.txstore[txid]
	return transaction, ok
}

// Count returns the number of mirrored transactions.
func (m *Mempool) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.txstore)
}

// HasSpend reports whether outpoint is spent by any mempool transaction.
func (m *Mempool) HasSpend(outpoint types.Outpoint) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.edges[outpoint]
	return ok
}

// LookupSpend returns the mempool Spending edge for outpoint, if any.
func (m *Mempool) LookupSpend(outpoint types.Outpoint) (schema.SpendingEdge, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	edge, ok := m.edges[outpoint]
	return edge, ok
}

// FeeInfo returns the fee/vsize entry for txid, if mirrored.
func (m *Mempool) FeeInfo(txid types.Hash) (FeeInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.feeinfo[txid]
	return info, ok
}

// Recent returns a snapshot of the bounded recent-arrivals deque,
// oldest first.
func (m *Mempool) Recent() []RecentEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]RecentEntry, len(m.recent))
	copy(out, m.recent)
	return out
}

// HistoryTxids returns the distinct txids of unconfirmed events
// touching scripthash, in arrival order.
func (m *Mempool) HistoryTxids(scripthash types.ScriptHash) []types.Hash {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[types.Hash]struct{})
	var out []types.Hash
	for _, info := range m.history[scripthash] {
		if _, dup := seen[info.Txid]; dup {
			continue
		}
		seen[info.Txid] = struct{}{}
		out = append(out, info.Txid)
	}
	return out
}

// Utxo enumerates a script's unconfirmed funding events whose outpoint
// is not spent by any mempool transaction. A chain-confirmed spend of
// the same outpoint is a Query-layer concern (the has_spend filter),
// not this method's.
func (m *Mempool) Utxo(scripthash types.ScriptHash) []Utxo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var utxos []Utxo
	for _, info := range m.history[scripthash] {
		if info.Kind != schema.KindFunding {
			continue
		}
		outpoint := types.Outpoint{TxID: info.Txid, Index: info.Index}
		if _, spent := m.edges[outpoint]; spent {
			continue
		}
		utxos = append(utxos, Utxo{Outpoint: outpoint, Value: info.Value})
	}
	return utxos
}

// Utxo is one unconfirmed unspent output funded to a script.
type Utxo struct {
	Outpoint types.Outpoint
	Value    uint64
}

// Stats aggregates a script's unconfirmed funding/spending activity.
// Unlike ChainQuery.Stats, no join against a second family is needed:
// HistoryInfo already carries Value inline.
func (m *Mempool) Stats(scripthash types.ScriptHash) schema.ScriptStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var stats schema.ScriptStats
	txids := make(map[types.Hash]struct{})
	for _, info := range m.history[scripthash] {
		txids[info.Txid] = struct{}{}
		if info.Kind == schema.KindFunding {
			stats.FundedTxoCount++
			stats.FundedTxoSum += info.Value
		} else {
			stats.SpentTxoCount++
			stats.SpentTxoSum += info.Value
		}
	}
	stats.TxCount = uint64(len(txids))
	return stats
}
