package query

import (
	"github.com/Klingon-tech/klingindex/internal/schema"
	"github.com/Klingon-tech/klingindex/pkg/types"
)

// Stats returns the chain and mempool component stats separately; the
// caller (the REST façade) decides how to present or sum them.
type Stats struct {
	Chain   schema.ScriptStats
	Mempool schema.ScriptStats
}

func (q *Query) Stats(scripthash types.ScriptHash) (Stats, error) {
	chainStats, err := q.chain.Stats(scripthash)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Chain: chainStats, Mempool: q.mempool.Stats(scripthash)}, nil
}
