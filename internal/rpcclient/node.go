package rpcclient

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/Klingon-tech/klingindex/pkg/types"
)

// The following methods are the node collaborator interface required by
// spec §6.3. klingindex never validates or relays blocks itself; it only
// calls these to stream block data and to forward mempool/fee/broadcast
// requests to the node that already does.

// GetBestBlockHash returns the node's current best chain tip.
func (c *Client) GetBestBlockHash(ctx context.Context) (types.Hash, error) {
	var hexHash string
	if err := c.CallContext(ctx, "getbestblockhash", nil, &hexHash); err != nil {
		return types.Hash{}, err
	}
	return types.HexToHash(hexHash)
}

// GetBlockHash returns the blockhash at the given height on the node's
// current best chain.
func (c *Client) GetBlockHash(ctx context.Context, height uint64) (types.Hash, error) {
	var hexHash string
	if err := c.CallContext(ctx, "getblockhash", []interface{}{height}, &hexHash); err != nil {
		return types.Hash{}, err
	}
	return types.HexToHash(hexHash)
}

// GetBlockHeader fetches and decodes a single block header by hash.
func (c *Client) GetBlockHeader(ctx context.Context, hash types.Hash) (*NodeHeader, error) {
	var result NodeHeader
	if err := c.CallContext(ctx, "getblockheader", []interface{}{hash.String()}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// NodeHeader is the node's JSON representation of a block header,
// sufficient for the Indexer's common-ancestor walk (height and
// previous-block linkage).
type NodeHeader struct {
	Hash          string `json:"hash"`
	PreviousHash  string `json:"previousblockhash"`
	Height        uint64 `json:"height"`
	Confirmations int64  `json:"confirmations"`
}

// GetBlock fetches the raw serialized block bytes by hash. Verbosity 0
// on the node side: callers (the Fetcher's Bitcoind variant) parse the
// bytes themselves with pkg/block.
func (c *Client) GetBlock(ctx context.Context, hash types.Hash) ([]byte, error) {
	var hexBlock string
	if err := c.CallContext(ctx, "getblock", []interface{}{hash.String(), 0}, &hexBlock); err != nil {
		return nil, err
	}
	return hex.DecodeString(hexBlock)
}

// GetRawMempool returns the node's full current mempool txid set.
func (c *Client) GetRawMempool(ctx context.Context) ([]types.Hash, error) {
	var hexTxids []string
	if err := c.CallContext(ctx, "getrawmempool", nil, &hexTxids); err != nil {
		return nil, err
	}
	txids := make([]types.Hash, len(hexTxids))
	for i, h := range hexTxids {
		txid, err := types.HexToHash(h)
		if err != nil {
			return nil, fmt.Errorf("rpcclient: getrawmempool: decode txid %q: %w", h, err)
		}
		txids[i] = txid
	}
	return txids, nil
}

// GetRawTransaction fetches the raw serialized transaction bytes by txid.
func (c *Client) GetRawTransaction(ctx context.Context, txid types.Hash) ([]byte, error) {
	var hexTx string
	if err := c.CallContext(ctx, "getrawtransaction", []interface{}{txid.String(), 0}, &hexTx); err != nil {
		return nil, err
	}
	return hex.DecodeString(hexTx)
}

// SendRawTransaction broadcasts a raw transaction and returns its txid.
// A node-side rejection is returned as *RPCError; Query.BroadcastRaw
// wraps it as ErrTransportBroadcast.
func (c *Client) SendRawTransaction(ctx context.Context, rawHex string) (types.Hash, error) {
	var hexTxid string
	if err := c.CallContext(ctx, "sendrawtransaction", []interface{}{rawHex}, &hexTxid); err != nil {
		return types.Hash{}, err
	}
	return types.HexToHash(hexTxid)
}

// EstimateSmartFee asks the node for a fee estimate (BTC/kvB) for the
// given confirmation target. ok is false when the node cannot produce
// an estimate for that target.
func (c *Client) EstimateSmartFee(ctx context.Context, confTarget int) (rate float32, ok bool, err error) {
	var result struct {
		FeeRate *float32 `json:"feerate"`
		Errors  []string `json:"errors"`
	}
	if err := c.CallContext(ctx, "estimatesmartfee", []interface{}{confTarget}, &result); err != nil {
		return 0, false, err
	}
	if result.FeeRate == nil {
		return 0, false, nil
	}
	return *result.FeeRate, true, nil
}
