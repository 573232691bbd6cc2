package schema

import (
	"encoding/binary"
	"fmt"

	"github.com/Klingon-tech/klingindex/pkg/types"
)

// BlockTxidsKey builds the "X" ‖ blockhash key.
func BlockTxidsKey(blockhash types.Hash) []byte {
	key := make([]byte, 0, 1+32)
	key = append(key, TagBlockTxids)
	key = append(key, blockhash[:]...)
	return key
}

// EncodeBlockTxids serializes an ordered txid list as a varint count
// followed by each 32-byte txid, preserving block order.
func EncodeBlockTxids(txids []types.Hash) []byte {
	buf := make([]byte, 0, binary.MaxVarintLen64+len(txids)*32)
	var hdr [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(hdr[:], uint64(len(txids)))
	buf = append(buf, hdr[:n]...)
	for _, txid := range txids {
		buf = append(buf, txid[:]...)
	}
	return buf
}

// DecodeBlockTxids parses a row value back into an ordered txid list.
func DecodeBlockTxids(value []byte) ([]types.Hash, error) {
	count, n := binary.Uvarint(value)
	if n <= 0 {
		return nil, fmt.Errorf("schema: block txids: invalid varint count")
	}
	rest := value[n:]
	if uint64(len(rest)) != count*32 {
		return nil, fmt.Errorf("schema: block txids: want %d bytes of txids, got %d", count*32, len(rest))
	}
	txids := make([]types.Hash, count)
	for i := range txids {
		copy(txids[i][:], rest[i*32:(i+1)*32])
	}
	return txids, nil
}
