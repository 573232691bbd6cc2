package fetcher

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Klingon-tech/klingindex/internal/rpcclient"
	"github.com/Klingon-tech/klingindex/pkg/block"
	"github.com/Klingon-tech/klingindex/pkg/tx"
	"github.com/Klingon-tech/klingindex/pkg/types"
)

type rpcRequest struct {
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
	ID     int           `json:"id"`
}

type rpcResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	ID      int         `json:"id"`
}

// multiMethodServer answers getblockhash/getblock for a small fixed
// height->block map, the way a real node would for a contiguous range.
func multiMethodServer(t *testing.T, blocks map[uint64]*block.Block) *httptest.Server {
	t.Helper()
	hashByHeight := make(map[float64]types.Hash, len(blocks))
	rawByHash := make(map[types.Hash]string, len(blocks))
	for h, b := range blocks {
		hashByHeight[float64(h)] = b.Hash()
		rawByHash[b.Hash()] = hex.EncodeToString(b.Bytes())
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
		switch req.Method {
		case "getblockhash":
			height := req.Params[0].(float64)
			resp.Result = hashByHeight[height].String()
		case "getblock":
			hash, err := types.HexToHash(req.Params[0].(string))
			if err != nil {
				t.Fatalf("bad hash param: %v", err)
			}
			resp.Result = rawByHash[hash]
		default:
			t.Fatalf("unexpected method %q", req.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func fixtureBlock(height uint64, nonce uint64) *block.Block {
	header := &block.Header{Version: 1, Height: height, Nonce: nonce}
	transaction := &tx.Transaction{
		Version: 1,
		Inputs:  []tx.Input{{PrevOut: types.Outpoint{}}},
		Outputs: []tx.Output{{Value: 5_000_000_000, Script: types.Script{0x51}}},
	}
	return block.NewBlock(header, []*tx.Transaction{transaction})
}

func TestBitcoind_Stream(t *testing.T) {
	blocks := map[uint64]*block.Block{
		10: fixtureBlock(10, 1),
		11: fixtureBlock(11, 2),
		12: fixtureBlock(12, 3),
	}
	srv := multiMethodServer(t, blocks)
	client := rpcclient.New(srv.URL)
	fetcher := NewBitcoind(client, 2)

	out, errc := fetcher.Stream(context.Background(), 10, 12)

	var got []BlockEntry
	for entry := range out {
		got = append(got, entry)
	}
	if err := <-errc; err != nil {
		t.Fatalf("Stream() error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}
	for i, entry := range got {
		wantHeight := uint64(10 + i)
		if entry.Height != wantHeight {
			t.Errorf("entry[%d].Height = %d, want %d", i, entry.Height, wantHeight)
		}
		if entry.BlockHash != blocks[wantHeight].Hash() {
			t.Errorf("entry[%d].BlockHash mismatch", i)
		}
	}
}

func TestBitcoind_Stream_MissingBlock(t *testing.T) {
	blocks := map[uint64]*block.Block{5: fixtureBlock(5, 1)}
	srv := multiMethodServer(t, blocks)
	client := rpcclient.New(srv.URL)
	fetcher := NewBitcoind(client, 1)

	out, errc := fetcher.Stream(context.Background(), 5, 6)
	for range out {
	}
	if err := <-errc; err == nil {
		t.Fatal("expected error for a height the node has no hash for")
	}
}
