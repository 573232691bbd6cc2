package fetcher

import (
	"context"
	"fmt"

	"github.com/Klingon-tech/klingindex/internal/rpcclient"
	"github.com/Klingon-tech/klingindex/pkg/block"
)

// Bitcoind streams blocks over the node's JSON-RPC interface, one
// getblockhash + getblock round trip per height. Slower than BlockFiles
// but reorg-aware: it always asks the node for the hash currently at a
// given height, so it follows the node's best chain as it changes. The
// daemon uses it for every range when jsonrpc_import is set.
type Bitcoind struct {
	client  *rpcclient.Client
	workers int
}

// NewBitcoind builds a Bitcoind fetcher over an already-dialed RPC client.
func NewBitcoind(client *rpcclient.Client, workers int) *Bitcoind {
	return &Bitcoind{client: client, workers: workers}
}

// Stream implements Fetcher.
func (b *Bitcoind) Stream(ctx context.Context, from, to uint64) (<-chan BlockEntry, <-chan error) {
	return streamInOrder(ctx, from, to, b.workers, func(ctx context.Context, height uint64) (BlockEntry, error) {
		hash, err := b.client.GetBlockHash(ctx, height)
		if err != nil {
			return BlockEntry{}, fmt.Errorf("fetcher: bitcoind: getblockhash(%d): %w", height, err)
		}
		raw, err := b.client.GetBlock(ctx, hash)
		if err != nil {
			return BlockEntry{}, fmt.Errorf("fetcher: bitcoind: getblock(%s): %w", hash, err)
		}
		header, txBytesList, err := block.BlockFromBytes(raw)
		if err != nil {
			return BlockEntry{}, fmt.Errorf("fetcher: bitcoind: decode block %s: %w", hash, err)
		}
		txs, err := decodeTxs(txBytesList)
		if err != nil {
			return BlockEntry{}, fmt.Errorf("fetcher: bitcoind: decode block %s: %w", hash, err)
		}
		blk := block.NewBlock(header, txs)
		if got := blk.Hash(); got != hash {
			return BlockEntry{}, fmt.Errorf("fetcher: bitcoind: hash mismatch at height %d: node said %s, computed %s", height, hash, got)
		}
		return BlockEntry{Block: blk, BlockHash: hash, Height: height, Size: len(raw)}, nil
	})
}
