package tx

import (
	"encoding/json"
	"testing"
)

// FuzzTxUnmarshal tests that arbitrary JSON input does not panic
// when unmarshaled into a Transaction struct.
func FuzzTxUnmarshal(f *testing.F) {
	f.Add([]byte(`{"inputs":[{"prevout":{"tx_id":"0000000000000000000000000000000000000000000000000000000000000000","index":0}}],"outputs":[{"value":1000,"script":"76a9"}]}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`null`))
	f.Add([]byte(`{"inputs":null,"outputs":null}`))
	f.Add([]byte(`{"inputs":[{"prevout":{"tx_id":"","index":0},"witness":""}],"outputs":[{"value":0}]}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		var transaction Transaction
		if err := json.Unmarshal(data, &transaction); err != nil {
			return
		}
		// If unmarshal succeeded, these must not panic.
		transaction.Txid()
		transaction.Bytes()
		transaction.IsCoinbase()
		transaction.TotalOutputValue()
	})
}
