package schema

import (
	"encoding/binary"
	"fmt"

	"github.com/Klingon-tech/klingindex/pkg/types"
)

// BlockMeta summarizes a block for quick lookup without decoding its
// full transaction list.
type BlockMeta struct {
	TxCount uint32
	Size    uint64
	Weight  uint64
}

const blockMetaSize = 4 + 8 + 8

// BlockMetaKey builds the "M" ‖ blockhash key.
func BlockMetaKey(blockhash types.Hash) []byte {
	key := make([]byte, 0, 1+32)
	key = append(key, TagBlockMeta)
	key = append(key, blockhash[:]...)
	return key
}

// EncodeBlockMeta serializes a BlockMeta row value.
func EncodeBlockMeta(m BlockMeta) []byte {
	buf := make([]byte, 0, blockMetaSize)
	buf = binary.BigEndian.AppendUint32(buf, m.TxCount)
	buf = binary.BigEndian.AppendUint64(buf, m.Size)
	buf = binary.BigEndian.AppendUint64(buf, m.Weight)
	return buf
}

// DecodeBlockMeta parses a BlockMeta row value.
func DecodeBlockMeta(value []byte) (BlockMeta, error) {
	if len(value) != blockMetaSize {
		return BlockMeta{}, fmt.Errorf("schema: block meta: want %d bytes, got %d", blockMetaSize, len(value))
	}
	return BlockMeta{
		TxCount: binary.BigEndian.Uint32(value[0:4]),
		Size:    binary.BigEndian.Uint64(value[4:12]),
		Weight:  binary.BigEndian.Uint64(value[12:20]),
	}, nil
}
