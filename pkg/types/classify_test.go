package types

import (
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

func TestClassifyScript(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatalf("GeneratePrivateKey: %v", err)
	}
	pubkey := priv.PubKey().SerializeCompressed()

	p2pk := append([]byte{0x21}, pubkey...)
	p2pk = append(p2pk, opCheckSig)

	p2pkh := make([]byte, 25)
	p2pkh[0], p2pkh[1], p2pkh[2] = opDup, opHash160, opPush20
	p2pkh[23], p2pkh[24] = opEqualVerify, opCheckSig

	p2sh := make([]byte, 23)
	p2sh[0], p2sh[1] = opHash160, opPush20
	p2sh[22] = opEqual

	p2wpkh := make([]byte, 22)
	p2wpkh[1] = opPush20

	p2wsh := make([]byte, 34)
	p2wsh[1] = opPush32

	garbagePubkey := append([]byte{0x21}, make([]byte, 33)...)
	garbagePubkey = append(garbagePubkey, opCheckSig)

	tests := []struct {
		name   string
		script Script
		want   ScriptType
	}{
		{"p2pk", p2pk, ScriptTypeP2PK},
		{"p2pk with invalid point", garbagePubkey, ScriptTypeNonStandard},
		{"p2pkh", p2pkh, ScriptTypeP2PKH},
		{"p2sh", p2sh, ScriptTypeP2SH},
		{"p2wpkh", p2wpkh, ScriptTypeP2WPKH},
		{"p2wsh", p2wsh, ScriptTypeP2WSH},
		{"op_return", Script{0x6a, 0x04, 'd', 'a', 't', 'a'}, ScriptTypeOpReturn},
		{"empty", Script{}, ScriptTypeOpReturn},
		{"nonstandard", Script{0x51, 0x52, 0x93}, ScriptTypeNonStandard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyScript(tt.script); got != tt.want {
				t.Errorf("ClassifyScript(%s) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
}
