package schema

import (
	"encoding/binary"
	"fmt"

	"github.com/Klingon-tech/klingindex/pkg/types"
)

const txoKeySize = 1 + 32 + 4

// TxoEntry is the value half of a Txo cache row: what's needed to
// resolve a future spend of this output without re-fetching its
// transaction.
type TxoEntry struct {
	Value  uint64
	Script types.Script
}

// TxoKey builds the "T" ‖ txid ‖ vout_be key.
func TxoKey(txid types.Hash, vout uint32) []byte {
	key := make([]byte, 0, txoKeySize)
	key = append(key, TagTxo)
	key = append(key, txid[:]...)
	key = binary.BigEndian.AppendUint32(key, vout)
	return key
}

// EncodeTxoEntry serializes a (value, scriptpubkey) row value.
func EncodeTxoEntry(e TxoEntry) []byte {
	buf := make([]byte, 0, 8+len(e.Script))
	buf = binary.BigEndian.AppendUint64(buf, e.Value)
	buf = append(buf, e.Script...)
	return buf
}

// DecodeTxoEntry parses a Txo cache row value.
func DecodeTxoEntry(value []byte) (TxoEntry, error) {
	if len(value) < 8 {
		return TxoEntry{}, fmt.Errorf("schema: txo entry: want at least 8 bytes, got %d", len(value))
	}
	return TxoEntry{
		Value:  binary.BigEndian.Uint64(value[0:8]),
		Script: types.Script(append([]byte(nil), value[8:]...)),
	}, nil
}
