package schema

import (
	"encoding/binary"
	"fmt"

	"github.com/Klingon-tech/klingindex/pkg/types"
)

// historyKeySize is the exact length of a Tx history key: tag(1) ‖
// scripthash(32) ‖ conf_height_be(4) ‖ txid(32) ‖ kind_byte(1) ‖
// vout_or_vin_be(4). It is always longer than heightHashKeySize, so a
// scan of HistoryPrefix(scripthash) (33 bytes) can never match a
// Height→hash row even though both families share the 'H' tag.
const historyKeySize = 1 + 32 + 4 + 32 + 1 + 4

// HistoryKey describes one Tx history row.
type HistoryKey struct {
	ScriptHash types.ScriptHash
	Height     uint64
	Txid       types.Hash
	Kind       Kind
	Index      uint32 // vout for a funding event, vin for a spending event
}

// HistoryPrefix builds the "H" ‖ scripthash scan prefix for a script's
// full history.
func HistoryPrefix(scripthash types.ScriptHash) []byte {
	key := make([]byte, 0, 1+32)
	key = append(key, TagHistory)
	key = append(key, scripthash[:]...)
	return key
}

// HistoryKeyBytes builds the full "H" ‖ scripthash ‖ conf_height_be ‖
// txid ‖ kind_byte ‖ vout_or_vin_be key.
func HistoryKeyBytes(k HistoryKey) []byte {
	key := make([]byte, 0, historyKeySize)
	key = append(key, TagHistory)
	key = append(key, k.ScriptHash[:]...)
	key = binary.BigEndian.AppendUint32(key, uint32(k.Height))
	key = append(key, k.Txid[:]...)
	key = append(key, byte(k.Kind))
	key = binary.BigEndian.AppendUint32(key, k.Index)
	return key
}

// DecodeHistoryKey parses a Tx history key, as produced by HistoryKeyBytes.
func DecodeHistoryKey(key []byte) (HistoryKey, error) {
	if len(key) != historyKeySize || key[0] != TagHistory {
		return HistoryKey{}, fmt.Errorf("schema: not a history key")
	}
	var k HistoryKey
	off := 1
	copy(k.ScriptHash[:], key[off:off+32])
	off += 32
	k.Height = uint64(binary.BigEndian.Uint32(key[off : off+4]))
	off += 4
	copy(k.Txid[:], key[off:off+32])
	off += 32
	k.Kind = Kind(key[off])
	off++
	k.Index = binary.BigEndian.Uint32(key[off : off+4])
	return k, nil
}
