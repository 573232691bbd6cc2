package types

import (
	"encoding/hex"
	"encoding/json"
	"testing"
)

func TestScriptJSONRoundTrip(t *testing.T) {
	tests := []Script{
		nil,
		{},
		{0x76, 0xa9, 0x14},
		Script(make([]byte, 64)),
	}

	for _, s := range tests {
		data, err := json.Marshal(s)
		if err != nil {
			t.Fatalf("Marshal(%x): %v", []byte(s), err)
		}
		var got Script
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal(%s): %v", data, err)
		}
		if hex.EncodeToString(got) != hex.EncodeToString(s) {
			t.Errorf("roundtrip: got %x, want %x", got, s)
		}
	}
}

func TestComputeScriptHash(t *testing.T) {
	s1 := Script{0x76, 0xa9, 0x14, 0x01}
	s2 := Script{0x76, 0xa9, 0x14, 0x02}

	h1 := ComputeScriptHash(s1)
	h1Again := ComputeScriptHash(s1)
	h2 := ComputeScriptHash(s2)

	if h1 != h1Again {
		t.Error("ComputeScriptHash must be deterministic")
	}
	if h1 == h2 {
		t.Error("different scripts must hash differently")
	}
	if len(h1.Bytes()) != ScriptHashSize {
		t.Errorf("scripthash length = %d, want %d", len(h1.Bytes()), ScriptHashSize)
	}
}

func TestIsProvablyUnspendable(t *testing.T) {
	tests := []struct {
		name   string
		script Script
		want   bool
	}{
		{"empty", nil, true},
		{"op_return", Script{0x6a, 0x04, 0xde, 0xad, 0xbe, 0xef}, true},
		{"p2pkh-like", Script{0x76, 0xa9, 0x14}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsProvablyUnspendable(tt.script); got != tt.want {
				t.Errorf("IsProvablyUnspendable(%x) = %v, want %v", tt.script, got, tt.want)
			}
		})
	}
}
