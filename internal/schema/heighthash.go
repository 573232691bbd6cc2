package schema

import (
	"encoding/binary"
	"fmt"

	"github.com/Klingon-tech/klingindex/pkg/types"
)

// heightHashKeySize is the exact length of a Height→hash key: the "H"
// tag plus a 4-byte big-endian height. No other family produces a key
// of this length, so a point Get on this key never collides with the
// "H"‖scripthash... Tx history family even though both share tag 'H'.
const heightHashKeySize = 1 + 4

// HeightHashKey builds the "H" ‖ height_be key.
func HeightHashKey(height uint64) []byte {
	key := make([]byte, 0, heightHashKeySize)
	key = append(key, TagHeightHash)
	key = binary.BigEndian.AppendUint32(key, uint32(height))
	return key
}

// EncodeHeightHash serializes the blockhash row value.
func EncodeHeightHash(blockhash types.Hash) []byte {
	return append([]byte(nil), blockhash[:]...)
}

// DecodeHeightHash parses a Height→hash row value.
func DecodeHeightHash(value []byte) (types.Hash, error) {
	return types.HashFromBytes(value)
}

// HeightFromHeightHashKey extracts the height encoded in a Height→hash
// key, as produced by HeightHashKey.
func HeightFromHeightHashKey(key []byte) (uint64, error) {
	if len(key) != heightHashKeySize || key[0] != TagHeightHash {
		return 0, fmt.Errorf("schema: not a height-hash key")
	}
	return uint64(binary.BigEndian.Uint32(key[1:])), nil
}
