package query

import (
	"github.com/Klingon-tech/klingindex/pkg/types"
)

// Utxo is one unspent output, confirmed or mempool-only. Block is nil
// for a mempool-only utxo.
type Utxo struct {
	Outpoint types.Outpoint
	Value    uint64
	Block    *types.BlockID
}

// Utxo starts from the confirmed utxo set, drops any outpoint the
// mempool records as spent (a just-broadcast spend not yet confirmed),
// then extends with the mempool's own unconfirmed funding events.
func (q *Query) Utxo(scripthash types.ScriptHash) ([]Utxo, error) {
	chainUtxos, err := q.chain.Utxo(scripthash)
	if err != nil {
		return nil, err
	}

	utxos := make([]Utxo, 0, len(chainUtxos))
	for _, u := range chainUtxos {
		if q.mempool.HasSpend(u.Outpoint) {
			continue
		}
		block := u.Block
		utxos = append(utxos, Utxo{Outpoint: u.Outpoint, Value: u.Value, Block: &block})
	}

	for _, u := range q.mempool.Utxo(scripthash) {
		utxos = append(utxos, Utxo{Outpoint: u.Outpoint, Value: u.Value, Block: nil})
	}

	return utxos, nil
}
