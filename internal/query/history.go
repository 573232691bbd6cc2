package query

import "github.com/Klingon-tech/klingindex/pkg/types"

// HistoryEvent is one event (funding or spending) touching a script,
// confirmed or unconfirmed. Block is nil for a mempool event.
type HistoryEvent struct {
	Txid  types.Hash
	Block *types.BlockID
}

// HistoryTxids returns every event touching scripthash: the full
// confirmed history (newest first) followed by unconfirmed mempool
// events, matching the precedence the chain view takes everywhere else
// in this layer.
func (q *Query) HistoryTxids(scripthash types.ScriptHash) ([]HistoryEvent, error) {
	confirmed, err := q.chain.HistoryTxids(scripthash)
	if err != nil {
		return nil, err
	}

	events := make([]HistoryEvent, 0, len(confirmed))
	for _, e := range confirmed {
		block := e.Block
		events = append(events, HistoryEvent{Txid: e.Txid, Block: &block})
	}
	for _, txid := range q.mempool.HistoryTxids(scripthash) {
		events = append(events, HistoryEvent{Txid: txid, Block: nil})
	}
	return events, nil
}
