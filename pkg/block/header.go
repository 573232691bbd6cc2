// Package block defines the block and header shapes the fetcher streams
// from the node and the indexer consumes.
package block

import (
	"encoding/binary"
	"fmt"

	"github.com/Klingon-tech/klingindex/pkg/crypto"
	"github.com/Klingon-tech/klingindex/pkg/types"
)

// headerByteSize is the fixed encoded length of a Header.
const headerByteSize = 4 + 32 + 32 + 8 + 8 + 8

// Header contains block metadata — the fields of §3's Block entity other
// than its transaction list.
type Header struct {
	Version    uint32     `json:"version"`
	PrevHash   types.Hash `json:"prev_hash"`
	MerkleRoot types.Hash `json:"merkle_root"`
	Timestamp  uint64     `json:"timestamp"`
	Height     uint64     `json:"height"`
	Nonce      uint64     `json:"nonce"`
}

// Hash computes the block header hash — the block's canonical 32-byte
// identifier.
func (h *Header) Hash() types.Hash {
	return crypto.Hash(h.Bytes())
}

// Bytes returns the canonical serialized representation used for hashing.
// Format: version(4) | prev_hash(32) | merkle_root(32) | timestamp(8) | height(8) | nonce(8)
func (h *Header) Bytes() []byte {
	buf := make([]byte, 0, 92)
	buf = binary.LittleEndian.AppendUint32(buf, h.Version)
	buf = append(buf, h.PrevHash[:]...)
	buf = append(buf, h.MerkleRoot[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, h.Timestamp)
	buf = binary.LittleEndian.AppendUint64(buf, h.Height)
	buf = binary.LittleEndian.AppendUint64(buf, h.Nonce)
	return buf
}

// HeaderFromBytes decodes the canonical representation produced by Bytes.
func HeaderFromBytes(data []byte) (*Header, error) {
	if len(data) != headerByteSize {
		return nil, fmt.Errorf("block: header: want %d bytes, got %d", headerByteSize, len(data))
	}
	h := &Header{}
	off := 0
	h.Version = binary.LittleEndian.Uint32(data[off:])
	off += 4
	copy(h.PrevHash[:], data[off:off+32])
	off += 32
	copy(h.MerkleRoot[:], data[off:off+32])
	off += 32
	h.Timestamp = binary.LittleEndian.Uint64(data[off:])
	off += 8
	h.Height = binary.LittleEndian.Uint64(data[off:])
	off += 8
	h.Nonce = binary.LittleEndian.Uint64(data[off:])
	return h, nil
}
