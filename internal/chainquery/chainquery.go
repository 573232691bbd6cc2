// Package chainquery is a thin read-only view over the committed index:
// internal/store plus internal/schema, with no state of its own beyond
// an optional stats cache row. Every exported method observes a single
// store snapshot per call; nothing here ever writes except the "K"
// stats cache, which is a pure memoization of a value fully derivable
// from the other families.
package chainquery

import (
	"context"

	"github.com/Klingon-tech/klingindex/internal/store"
	"github.com/Klingon-tech/klingindex/pkg/types"
)

// NodeClient is the subset of the collaborator interface ChainQuery
// needs to resolve a confirmed transaction's raw bytes (lookup_txn).
type NodeClient interface {
	GetRawTransaction(ctx context.Context, txid types.Hash) ([]byte, error)
}

// Config tunes the read-side behaviors spec §4.5 leaves to the
// implementation.
type Config struct {
	// HistoryTxidsCap bounds history_txids' unbounded confirmed-history
	// variant, per spec §4.5 ("bounded by a configurable cap").
	HistoryTxidsCap int
}

// ChainQuery is the read-only query surface over a Store.
type ChainQuery struct {
	store store.Store
	node  NodeClient
	cfg   Config
}

// New builds a ChainQuery over store, using node only for lookup_txn's
// raw-transaction fetch.
func New(s store.Store, node NodeClient, cfg Config) *ChainQuery {
	if cfg.HistoryTxidsCap <= 0 {
		cfg.HistoryTxidsCap = 10_000
	}
	return &ChainQuery{store: s, node: node, cfg: cfg}
}
