package block

import (
	"encoding/binary"
	"fmt"

	"github.com/Klingon-tech/klingindex/pkg/tx"
	"github.com/Klingon-tech/klingindex/pkg/types"
)

// Block is a header plus an ordered list of transactions (§3's Block
// entity).
type Block struct {
	Header       *Header           `json:"header"`
	Transactions []*tx.Transaction `json:"transactions"`
}

// NewBlock creates a new block with the given header and transactions.
func NewBlock(header *Header, txs []*tx.Transaction) *Block {
	return &Block{
		Header:       header,
		Transactions: txs,
	}
}

// Hash returns the block's identifying hash (its header hash).
func (b *Block) Hash() types.Hash {
	return b.Header.Hash()
}

// TxCount returns the number of transactions in the block.
func (b *Block) TxCount() int {
	return len(b.Transactions)
}

// Txids returns the txid of every transaction in block order.
func (b *Block) Txids() []types.Hash {
	ids := make([]types.Hash, len(b.Transactions))
	for i, t := range b.Transactions {
		ids[i] = t.Txid()
	}
	return ids
}

// Bytes returns the full wire serialization of the block: the header
// followed by every transaction, each length-prefixed. This is the
// format the BlockFiles fetcher reads back off disk and the format a
// Bitcoind getblock(hash, 0) response is expected to contain.
func (b *Block) Bytes() []byte {
	buf := b.Header.Bytes()
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(b.Transactions)))
	for _, t := range b.Transactions {
		txBytes := t.Bytes()
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(txBytes)))
		buf = append(buf, txBytes...)
	}
	return buf
}

// BlockFromBytes decodes the wire format produced by Bytes. It only
// round-trips the raw transaction bytes, not a Transaction struct — the
// caller's deserializer is responsible for turning per-tx bytes back
// into a *tx.Transaction using the same framing tx.Transaction.Bytes
// used to hash it; the fetchers decode each one with tx.FromBytes.
func BlockFromBytes(data []byte) (header *Header, txBytesList [][]byte, err error) {
	const headerSize = 4 + 32 + 32 + 8 + 8 + 8
	if len(data) < headerSize+4 {
		return nil, nil, fmt.Errorf("block: too short: %d bytes", len(data))
	}
	header, err = HeaderFromBytes(data[:headerSize])
	if err != nil {
		return nil, nil, fmt.Errorf("block: decode header: %w", err)
	}
	off := headerSize
	txCount := binary.LittleEndian.Uint32(data[off:])
	off += 4

	txBytesList = make([][]byte, 0, txCount)
	for i := uint32(0); i < txCount; i++ {
		if off+4 > len(data) {
			return nil, nil, fmt.Errorf("block: truncated tx length at index %d", i)
		}
		txLen := binary.LittleEndian.Uint32(data[off:])
		off += 4
		if off+int(txLen) > len(data) {
			return nil, nil, fmt.Errorf("block: truncated tx body at index %d", i)
		}
		txBytesList = append(txBytesList, data[off:off+int(txLen)])
		off += int(txLen)
	}
	return header, txBytesList, nil
}
