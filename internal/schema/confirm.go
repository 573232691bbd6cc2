package schema

import (
	"encoding/binary"
	"fmt"

	"github.com/Klingon-tech/klingindex/pkg/types"
)

const confirmKeySize = 1 + 32
const confirmValueSize = 32 + 4 + 4

// ConfirmEntry is the value half of a Tx confirm row.
type ConfirmEntry struct {
	BlockHash types.Hash
	Height    uint64
	Position  uint32 // index of the transaction within the block
}

// ConfirmKey builds the "C" ‖ txid key.
func ConfirmKey(txid types.Hash) []byte {
	key := make([]byte, 0, confirmKeySize)
	key = append(key, TagConfirm)
	key = append(key, txid[:]...)
	return key
}

// EncodeConfirmEntry serializes a (blockhash, block_height, position) row value.
func EncodeConfirmEntry(e ConfirmEntry) []byte {
	buf := make([]byte, 0, confirmValueSize)
	buf = append(buf, e.BlockHash[:]...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(e.Height))
	buf = binary.BigEndian.AppendUint32(buf, e.Position)
	return buf
}

// DecodeConfirmEntry parses a Tx confirm row value.
func DecodeConfirmEntry(value []byte) (ConfirmEntry, error) {
	if len(value) != confirmValueSize {
		return ConfirmEntry{}, fmt.Errorf("schema: confirm entry: want %d bytes, got %d", confirmValueSize, len(value))
	}
	var e ConfirmEntry
	copy(e.BlockHash[:], value[0:32])
	e.Height = uint64(binary.BigEndian.Uint32(value[32:36]))
	e.Position = binary.BigEndian.Uint32(value[36:40])
	return e, nil
}
