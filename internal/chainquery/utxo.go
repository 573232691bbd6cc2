package chainquery

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingindex/internal/errs"
	"github.com/Klingon-tech/klingindex/internal/schema"
	"github.com/Klingon-tech/klingindex/internal/store"
	"github.com/Klingon-tech/klingindex/pkg/types"
)

// Utxo is one confirmed unspent output funded to a script.
type Utxo struct {
	Outpoint types.Outpoint
	Value    uint64
	Block    types.BlockID
}

// Utxo enumerates funding events for scripthash and drops any whose
// outpoint has a Spending edge, per spec §4.5.
func (q *ChainQuery) Utxo(scripthash types.ScriptHash) ([]Utxo, error) {
	it := q.store.Scan(schema.FundingPrefix(scripthash))
	defer it.Close()

	hashCache := make(map[uint64]types.Hash)
	var utxos []Utxo

	for {
		key, value, ok := it.Next()
		if !ok {
			break
		}
		fk, err := schema.DecodeFundingKey(key)
		if err != nil {
			return nil, fmt.Errorf("chainquery: %w: decode funding key: %v", errs.ErrStoreCorruption, err)
		}
		amount, err := schema.DecodeFundingValue(value)
		if err != nil {
			return nil, fmt.Errorf("chainquery: %w: decode funding value: %v", errs.ErrStoreCorruption, err)
		}

		spent, err := q.store.Has(schema.SpendingKey(fk.Txid, fk.Vout))
		if err != nil {
			return nil, err
		}
		if spent {
			continue
		}

		blockHash, cached := hashCache[fk.Height]
		if !cached {
			blockHash, err = q.heightHash(fk.Height)
			if err != nil {
				return nil, err
			}
			hashCache[fk.Height] = blockHash
		}

		utxos = append(utxos, Utxo{
			Outpoint: types.Outpoint{TxID: fk.Txid, Index: fk.Vout},
			Value:    amount,
			Block:    types.BlockID{Height: fk.Height, Hash: blockHash},
		})
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return utxos, nil
}

// LookupTxos batch-fetches the Txo cache for outpoints. Absent entries
// (light_mode, or a prevout that was never tracked) are simply omitted
// from the returned map rather than erroring.
func (q *ChainQuery) LookupTxos(outpoints []types.Outpoint) (map[types.Outpoint]schema.TxoEntry, error) {
	result := make(map[types.Outpoint]schema.TxoEntry, len(outpoints))
	for _, op := range outpoints {
		value, err := q.store.Get(schema.TxoKey(op.TxID, op.Index))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}
		entry, err := schema.DecodeTxoEntry(value)
		if err != nil {
			return nil, fmt.Errorf("chainquery: %w: decode txo %s: %v", errs.ErrStoreCorruption, op, err)
		}
		result[op] = entry
	}
	return result, nil
}
