// Package tx defines transaction types used by the indexer, fetcher, and
// mempool mirror.
package tx

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Klingon-tech/klingindex/pkg/crypto"
	"github.com/Klingon-tech/klingindex/pkg/types"
)

// Transaction is identified by its txid and contains inputs (each a
// reference to a prior outpoint plus a witness/script) and outputs (each a
// value and a locking script) — §3's Transaction entity.
type Transaction struct {
	Version  uint32   `json:"version"`
	Inputs   []Input  `json:"inputs"`
	Outputs  []Output `json:"outputs"`
	LockTime uint64   `json:"locktime"`
}

// Input references a prior output being spent, plus the witness/script
// data that redeems it. The indexer never interprets Witness; it only
// needs PrevOut to build the spending edge and history rows.
type Input struct {
	PrevOut types.Outpoint `json:"prevout"`
	Witness []byte         `json:"witness"`
}

// Output defines a new, possibly-unspent transaction output.
type Output struct {
	Value  uint64       `json:"value"`
	Script types.Script `json:"script"`
}

// Txid computes the transaction's identifying hash.
func (t *Transaction) Txid() types.Hash {
	return crypto.Hash(t.Bytes())
}

// IsCoinbase reports whether this is a coinbase transaction: its sole
// input has no real previous output (a zero outpoint).
func (t *Transaction) IsCoinbase() bool {
	return len(t.Inputs) == 1 && t.Inputs[0].PrevOut.IsZero()
}

// Bytes returns the canonical serialized representation used for hashing.
// Format: version(4) | input_count(4) | [prevout(36) + witness_len(4) + witness]...
//
//	| output_count(4) | [value(8) + script_len(4) + script]... | locktime(8)
func (t *Transaction) Bytes() []byte {
	var buf []byte

	buf = binary.LittleEndian.AppendUint32(buf, t.Version)

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(t.Inputs)))
	for _, in := range t.Inputs {
		buf = append(buf, in.PrevOut.TxID[:]...)
		buf = binary.LittleEndian.AppendUint32(buf, in.PrevOut.Index)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(in.Witness)))
		buf = append(buf, in.Witness...)
	}

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(t.Outputs)))
	for _, out := range t.Outputs {
		buf = binary.LittleEndian.AppendUint64(buf, out.Value)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(out.Script)))
		buf = append(buf, out.Script...)
	}

	buf = binary.LittleEndian.AppendUint64(buf, t.LockTime)

	return buf
}

// TotalOutputValue returns the sum of all output values. Returns an error
// if the sum overflows uint64.
func (t *Transaction) TotalOutputValue() (uint64, error) {
	var total uint64
	for _, out := range t.Outputs {
		if total > math.MaxUint64-out.Value {
			return 0, fmt.Errorf("output value overflow")
		}
		total += out.Value
	}
	return total, nil
}

// FromBytes decodes the wire format produced by Bytes.
func FromBytes(data []byte) (*Transaction, error) {
	t := &Transaction{}
	off := 0

	readU32 := func() (uint32, error) {
		if off+4 > len(data) {
			return 0, fmt.Errorf("tx: truncated at offset %d", off)
		}
		v := binary.LittleEndian.Uint32(data[off:])
		off += 4
		return v, nil
	}
	readU64 := func() (uint64, error) {
		if off+8 > len(data) {
			return 0, fmt.Errorf("tx: truncated at offset %d", off)
		}
		v := binary.LittleEndian.Uint64(data[off:])
		off += 8
		return v, nil
	}

	version, err := readU32()
	if err != nil {
		return nil, err
	}
	t.Version = version

	inputCount, err := readU32()
	if err != nil {
		return nil, err
	}
	t.Inputs = make([]Input, inputCount)
	for i := range t.Inputs {
		if off+36 > len(data) {
			return nil, fmt.Errorf("tx: truncated prevout at input %d", i)
		}
		copy(t.Inputs[i].PrevOut.TxID[:], data[off:off+32])
		off += 32
		t.Inputs[i].PrevOut.Index = binary.LittleEndian.Uint32(data[off:])
		off += 4

		witnessLen, err := readU32()
		if err != nil {
			return nil, err
		}
		if off+int(witnessLen) > len(data) {
			return nil, fmt.Errorf("tx: truncated witness at input %d", i)
		}
		t.Inputs[i].Witness = append([]byte(nil), data[off:off+int(witnessLen)]...)
		off += int(witnessLen)
	}

	outputCount, err := readU32()
	if err != nil {
		return nil, err
	}
	t.Outputs = make([]Output, outputCount)
	for i := range t.Outputs {
		value, err := readU64()
		if err != nil {
			return nil, err
		}
		t.Outputs[i].Value = value

		scriptLen, err := readU32()
		if err != nil {
			return nil, err
		}
		if off+int(scriptLen) > len(data) {
			return nil, fmt.Errorf("tx: truncated script at output %d", i)
		}
		t.Outputs[i].Script = types.Script(append([]byte(nil), data[off:off+int(scriptLen)]...))
		off += int(scriptLen)
	}

	lockTime, err := readU64()
	if err != nil {
		return nil, err
	}
	t.LockTime = lockTime

	return t, nil
}
