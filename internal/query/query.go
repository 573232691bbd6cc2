// Package query composes internal/chainquery and internal/mempool into
// the single read surface a REST façade (out of scope here) would
// serve from. It holds no state of its own beyond its two collaborators
// and the node client used for broadcast and fee estimation.
package query

import (
	"context"

	"github.com/Klingon-tech/klingindex/internal/chainquery"
	"github.com/Klingon-tech/klingindex/internal/mempool"
	"github.com/Klingon-tech/klingindex/pkg/types"
)

// NodeClient is the subset of the collaborator interface Query forwards
// to directly rather than through ChainQuery or Mempool.
type NodeClient interface {
	SendRawTransaction(ctx context.Context, rawHex string) (types.Hash, error)
	EstimateSmartFee(ctx context.Context, confTarget int) (rate float32, ok bool, err error)
}

// ConfTargets is the fixed set of confirmation targets (in blocks) fee
// estimates are recognized for. A target outside this set always
// reports absent, matching the node-facing contract the REST façade
// exposes.
var ConfTargets = [...]int{2, 3, 4, 6, 10, 20, 144, 504, 1008}

// Query is the composition layer. Every method combines a ChainQuery
// result with a Mempool result under a fixed precedence rule: the
// transaction and spend lookups prefer confirmed state, LookupTxos
// consults the mempool first, and Utxo drops confirmed outputs that a
// mempool transaction spends.
type Query struct {
	chain   *chainquery.ChainQuery
	mempool *mempool.Mempool
	node    NodeClient
}

// New builds a Query over an already-constructed ChainQuery and Mempool.
func New(chain *chainquery.ChainQuery, mp *mempool.Mempool, node NodeClient) *Query {
	return &Query{chain: chain, mempool: mp, node: node}
}

// Chain exposes the confirmed-state collaborator directly, for callers
// that need chain-only semantics (e.g. block explorers).
func (q *Query) Chain() *chainquery.ChainQuery { return q.chain }

// Mempool exposes the unconfirmed-state collaborator directly.
func (q *Query) Mempool() *mempool.Mempool { return q.mempool }
