package schema

import (
	"github.com/Klingon-tech/klingindex/pkg/block"
	"github.com/Klingon-tech/klingindex/pkg/types"
)

// BlockHeaderKey builds the "B" ‖ blockhash key.
func BlockHeaderKey(blockhash types.Hash) []byte {
	key := make([]byte, 0, 1+32)
	key = append(key, TagBlockHeader)
	key = append(key, blockhash[:]...)
	return key
}

// EncodeBlockHeader returns the canonical serialized header used as the
// row's value.
func EncodeBlockHeader(h *block.Header) []byte {
	return h.Bytes()
}

// DecodeBlockHeader parses a row value back into a Header.
func DecodeBlockHeader(value []byte) (*block.Header, error) {
	return block.HeaderFromBytes(value)
}
