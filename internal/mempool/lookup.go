package mempool

import (
	"github.com/Klingon-tech/klingindex/internal/schema"
	"github.com/Klingon-tech/klingindex/pkg/types"
)

// LookupTxos resolves outpoints against the mempool mirror first, then
// falls back to the injected ChainLookup for whatever remains — the
// same "mempool, then chain" precedence Query.lookup_txos relies on to
// resolve confirmed prevouts transparently.
func (m *Mempool) LookupTxos(outpoints []types.Outpoint) (map[types.Outpoint]schema.TxoEntry, error) {
	result := make(map[types.Outpoint]schema.TxoEntry)
	var unresolved []types.Outpoint

	m.mu.RLock()
	for _, op := range outpoints {
		if entry, ok := m.txoFromMempoolLocked(op); ok {
			result[op] = entry
		} else {
			unresolved = append(unresolved, op)
		}
	}
	m.mu.RUnlock()

	if len(unresolved) > 0 && m.chain != nil {
		chainEntries, err := m.chain.LookupTxos(unresolved)
		if err != nil {
			return nil, err
		}
		for op, entry := range chainEntries {
			result[op] = entry
		}
	}

	return result, nil
}
