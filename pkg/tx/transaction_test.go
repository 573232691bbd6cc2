package tx

import (
	"math"
	"testing"

	"github.com/Klingon-tech/klingindex/pkg/types"
)

func TestTransaction_Txid_Deterministic(t *testing.T) {
	transaction := &Transaction{
		Version: 1,
		Inputs:  []Input{{PrevOut: types.Outpoint{TxID: types.Hash{0x01}, Index: 0}}},
		Outputs: []Output{{Value: 1000, Script: types.Script{0x76, 0xa9}}},
	}

	h1 := transaction.Txid()
	h2 := transaction.Txid()
	if h1 != h2 {
		t.Error("Txid() should be deterministic")
	}
	if h1.IsZero() {
		t.Error("Txid() should not be zero")
	}
}

func TestTransaction_Txid_ChangesWithContent(t *testing.T) {
	tx1 := &Transaction{
		Version: 1,
		Inputs:  []Input{{PrevOut: types.Outpoint{TxID: types.Hash{0x01}, Index: 0}}},
		Outputs: []Output{{Value: 1000, Script: types.Script{0x76, 0xa9}}},
	}
	tx2 := &Transaction{
		Version: 1,
		Inputs:  []Input{{PrevOut: types.Outpoint{TxID: types.Hash{0x01}, Index: 0}}},
		Outputs: []Output{{Value: 2000, Script: types.Script{0x76, 0xa9}}},
	}

	if tx1.Txid() == tx2.Txid() {
		t.Error("different transactions should have different txids")
	}
}

func TestTransaction_Txid_ChangesWithWitness(t *testing.T) {
	transaction := &Transaction{
		Version: 1,
		Inputs:  []Input{{PrevOut: types.Outpoint{TxID: types.Hash{0x01}, Index: 0}}},
		Outputs: []Output{{Value: 1000, Script: types.Script{0x76, 0xa9}}},
	}
	h1 := transaction.Txid()

	transaction.Inputs[0].Witness = []byte("some signature")
	h2 := transaction.Txid()

	if h1 == h2 {
		t.Error("txid should change when witness data changes")
	}
}

func TestTransaction_IsCoinbase(t *testing.T) {
	coinbase := &Transaction{
		Inputs: []Input{{PrevOut: types.Outpoint{}}},
	}
	if !coinbase.IsCoinbase() {
		t.Error("transaction with a single zero outpoint input should be coinbase")
	}

	regular := &Transaction{
		Inputs: []Input{{PrevOut: types.Outpoint{TxID: types.Hash{0x01}, Index: 0}}},
	}
	if regular.IsCoinbase() {
		t.Error("transaction with a non-zero prevout should not be coinbase")
	}
}

func TestTransaction_TotalOutputValue(t *testing.T) {
	transaction := &Transaction{
		Outputs: []Output{
			{Value: 1000},
			{Value: 2000},
			{Value: 3000},
		},
	}
	got, err := transaction.TotalOutputValue()
	if err != nil {
		t.Fatalf("TotalOutputValue() error: %v", err)
	}
	if got != 6000 {
		t.Errorf("TotalOutputValue() = %d, want 6000", got)
	}
}

func TestTransaction_TotalOutputValue_Empty(t *testing.T) {
	transaction := &Transaction{}
	got, err := transaction.TotalOutputValue()
	if err != nil {
		t.Fatalf("TotalOutputValue() error: %v", err)
	}
	if got != 0 {
		t.Errorf("TotalOutputValue() empty = %d, want 0", got)
	}
}

func TestTransaction_BytesRoundTrip(t *testing.T) {
	transaction := &Transaction{
		Version: 2,
		Inputs: []Input{
			{PrevOut: types.Outpoint{TxID: types.Hash{0x01}, Index: 3}, Witness: []byte("sig")},
		},
		Outputs: []Output{
			{Value: 1000, Script: types.Script{0x76, 0xa9}},
			{Value: 0, Script: types.Script{}},
		},
		LockTime: 500_000,
	}

	got, err := FromBytes(transaction.Bytes())
	if err != nil {
		t.Fatalf("FromBytes() error: %v", err)
	}
	if got.Txid() != transaction.Txid() {
		t.Errorf("round-tripped txid = %v, want %v", got.Txid(), transaction.Txid())
	}
	if got.LockTime != transaction.LockTime {
		t.Errorf("round-tripped locktime = %d, want %d", got.LockTime, transaction.LockTime)
	}
}

func TestTransaction_TotalOutputValue_Overflow(t *testing.T) {
	transaction := &Transaction{
		Outputs: []Output{
			{Value: math.MaxUint64},
			{Value: 1},
		},
	}
	_, err := transaction.TotalOutputValue()
	if err == nil {
		t.Error("TotalOutputValue() should return error on overflow")
	}
}
