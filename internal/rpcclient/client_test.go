package rpcclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Klingon-tech/klingindex/pkg/types"
)

// jsonRPCServer builds an httptest.Server that answers a single JSON-RPC
// method with the given result (or error when errMsg is non-empty).
func jsonRPCServer(t *testing.T, method string, result interface{}, errMsg string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Method != method {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(response{JSONRPC: "2.0", ID: req.ID, Error: &rpcError{Code: -32601, Message: "method not found"}})
			return
		}

		resp := response{JSONRPC: "2.0", ID: req.ID}
		if errMsg != "" {
			resp.Error = &rpcError{Code: -32000, Message: errMsg}
		} else {
			raw, err := json.Marshal(result)
			if err != nil {
				t.Fatalf("marshal result: %v", err)
			}
			resp.Result = raw
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_GetBestBlockHash(t *testing.T) {
	want := types.Hash{0x01, 0x02}
	srv := jsonRPCServer(t, "getbestblockhash", want.String(), "")
	client := New(srv.URL)

	got, err := client.GetBestBlockHash(context.Background())
	if err != nil {
		t.Fatalf("GetBestBlockHash() error: %v", err)
	}
	if got != want {
		t.Errorf("GetBestBlockHash() = %v, want %v", got, want)
	}
}

func TestClient_GetBlockHash(t *testing.T) {
	want := types.Hash{0xAA}
	srv := jsonRPCServer(t, "getblockhash", want.String(), "")
	client := New(srv.URL)

	got, err := client.GetBlockHash(context.Background(), 100)
	if err != nil {
		t.Fatalf("GetBlockHash() error: %v", err)
	}
	if got != want {
		t.Errorf("GetBlockHash() = %v, want %v", got, want)
	}
}

func TestClient_GetRawMempool(t *testing.T) {
	t1 := types.Hash{0x01}
	t2 := types.Hash{0x02}
	srv := jsonRPCServer(t, "getrawmempool", []string{t1.String(), t2.String()}, "")
	client := New(srv.URL)

	got, err := client.GetRawMempool(context.Background())
	if err != nil {
		t.Fatalf("GetRawMempool() error: %v", err)
	}
	if len(got) != 2 || got[0] != t1 || got[1] != t2 {
		t.Errorf("GetRawMempool() = %v, want [%v %v]", got, t1, t2)
	}
}

func TestClient_SendRawTransaction(t *testing.T) {
	want := types.Hash{0x09}
	srv := jsonRPCServer(t, "sendrawtransaction", want.String(), "")
	client := New(srv.URL)

	got, err := client.SendRawTransaction(context.Background(), "deadbeef")
	if err != nil {
		t.Fatalf("SendRawTransaction() error: %v", err)
	}
	if got != want {
		t.Errorf("SendRawTransaction() = %v, want %v", got, want)
	}
}

func TestClient_SendRawTransaction_Rejected(t *testing.T) {
	srv := jsonRPCServer(t, "sendrawtransaction", nil, "insufficient fee")
	client := New(srv.URL)

	_, err := client.SendRawTransaction(context.Background(), "deadbeef")
	if err == nil {
		t.Fatal("expected rejection error")
	}
	rpcErr, ok := err.(*RPCError)
	if !ok {
		t.Fatalf("expected RPCError, got %T: %v", err, err)
	}
	if rpcErr.Message != "insufficient fee" {
		t.Errorf("rpcErr.Message = %q, want %q", rpcErr.Message, "insufficient fee")
	}
}

func TestClient_EstimateSmartFee(t *testing.T) {
	rate := float32(0.0002)
	srv := jsonRPCServer(t, "estimatesmartfee", map[string]interface{}{"feerate": rate}, "")
	client := New(srv.URL)

	got, ok, err := client.EstimateSmartFee(context.Background(), 6)
	if err != nil {
		t.Fatalf("EstimateSmartFee() error: %v", err)
	}
	if !ok {
		t.Fatal("EstimateSmartFee() ok = false, want true")
	}
	if got != rate {
		t.Errorf("EstimateSmartFee() = %v, want %v", got, rate)
	}
}

func TestClient_EstimateSmartFee_NoEstimate(t *testing.T) {
	srv := jsonRPCServer(t, "estimatesmartfee", map[string]interface{}{"errors": []string{"insufficient data"}}, "")
	client := New(srv.URL)

	_, ok, err := client.EstimateSmartFee(context.Background(), 1008)
	if err != nil {
		t.Fatalf("EstimateSmartFee() error: %v", err)
	}
	if ok {
		t.Fatal("EstimateSmartFee() ok = true, want false when the node reports no feerate")
	}
}

func TestClient_Call_InvalidEndpoint(t *testing.T) {
	client := New("http://127.0.0.1:1/") // port 1 — should refuse

	var result string
	err := client.Call("getbestblockhash", nil, &result)
	if err == nil {
		t.Fatal("expected connection error")
	}
}

func TestClient_Call_MethodNotFound(t *testing.T) {
	srv := jsonRPCServer(t, "getbestblockhash", "", "")
	client := New(srv.URL)

	var raw json.RawMessage
	err := client.Call("nonexistent_method", nil, &raw)
	if err == nil {
		t.Fatal("expected error for unknown method")
	}
	rpcErr, ok := err.(*RPCError)
	if !ok {
		t.Fatalf("expected RPCError, got %T: %v", err, err)
	}
	if rpcErr.Code != -32601 {
		t.Errorf("error code = %d, want -32601", rpcErr.Code)
	}
}
