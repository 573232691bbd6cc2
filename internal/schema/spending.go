package schema

import (
	"encoding/binary"
	"fmt"

	"github.com/Klingon-tech/klingindex/pkg/types"
)

const spendingKeySize = 1 + 32 + 4
const spendingValueSize = 32 + 4

// SpendingEdge is the value half of a Spending edge row: the
// transaction (and input index) that spends the keyed outpoint.
type SpendingEdge struct {
	SpenderTxid types.Hash
	SpenderVin  uint32
}

// SpendingKey builds the "S" ‖ prev_txid ‖ prev_vout_be key.
func SpendingKey(prevTxid types.Hash, prevVout uint32) []byte {
	key := make([]byte, 0, spendingKeySize)
	key = append(key, TagSpending)
	key = append(key, prevTxid[:]...)
	key = binary.BigEndian.AppendUint32(key, prevVout)
	return key
}

// EncodeSpendingEdge serializes the (spending_txid, spending_vin) value.
func EncodeSpendingEdge(e SpendingEdge) []byte {
	buf := make([]byte, 0, spendingValueSize)
	buf = append(buf, e.SpenderTxid[:]...)
	buf = binary.BigEndian.AppendUint32(buf, e.SpenderVin)
	return buf
}

// DecodeSpendingEdge parses a Spending edge row value.
func DecodeSpendingEdge(value []byte) (SpendingEdge, error) {
	if len(value) != spendingValueSize {
		return SpendingEdge{}, fmt.Errorf("schema: spending edge: want %d bytes, got %d", spendingValueSize, len(value))
	}
	var e SpendingEdge
	copy(e.SpenderTxid[:], value[0:32])
	e.SpenderVin = binary.BigEndian.Uint32(value[32:36])
	return e, nil
}
