package schema

import (
	"encoding/binary"
	"fmt"

	"github.com/Klingon-tech/klingindex/pkg/types"
)

const fundingKeySize = 1 + 32 + 4 + 32 + 4

// FundingKey describes one Funding stats row: a confirmed output paying
// scripthash.
type FundingKey struct {
	ScriptHash types.ScriptHash
	Height     uint64
	Txid       types.Hash
	Vout       uint32
}

// FundingPrefix builds the "h" ‖ scripthash scan prefix.
func FundingPrefix(scripthash types.ScriptHash) []byte {
	key := make([]byte, 0, 1+32)
	key = append(key, TagFunding)
	key = append(key, scripthash[:]...)
	return key
}

// FundingKeyBytes builds the full "h" ‖ scripthash ‖ conf_height_be ‖
// txid ‖ vout_be key.
func FundingKeyBytes(k FundingKey) []byte {
	key := make([]byte, 0, fundingKeySize)
	key = append(key, TagFunding)
	key = append(key, k.ScriptHash[:]...)
	key = binary.BigEndian.AppendUint32(key, uint32(k.Height))
	key = append(key, k.Txid[:]...)
	key = binary.BigEndian.AppendUint32(key, k.Vout)
	return key
}

// DecodeFundingKey parses a Funding stats key.
func DecodeFundingKey(key []byte) (FundingKey, error) {
	if len(key) != fundingKeySize || key[0] != TagFunding {
		return FundingKey{}, fmt.Errorf("schema: not a funding key")
	}
	var k FundingKey
	off := 1
	copy(k.ScriptHash[:], key[off:off+32])
	off += 32
	k.Height = uint64(binary.BigEndian.Uint32(key[off : off+4]))
	off += 4
	copy(k.Txid[:], key[off:off+32])
	off += 32
	k.Vout = binary.BigEndian.Uint32(key[off : off+4])
	return k, nil
}

// EncodeFundingValue serializes the output value carried by a funding row.
func EncodeFundingValue(value uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, value)
	return buf
}

// DecodeFundingValue parses a funding row's value field.
func DecodeFundingValue(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("schema: funding value: want 8 bytes, got %d", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}
