package types

import "github.com/decred/dcrd/dcrec/secp256k1/v4"

// ScriptType is a coarse classification of a locking script's shape. The
// indexer never needs it to key or serve any row — scripts are always
// addressed by their hash — but it is useful for operators inspecting
// what kind of outputs index_unspendables is dropping or keeping.
type ScriptType string

const (
	ScriptTypeP2PK        ScriptType = "p2pk"
	ScriptTypeP2PKH       ScriptType = "p2pkh"
	ScriptTypeP2SH        ScriptType = "p2sh"
	ScriptTypeP2WPKH      ScriptType = "p2wpkh"
	ScriptTypeP2WSH       ScriptType = "p2wsh"
	ScriptTypeOpReturn    ScriptType = "op_return"
	ScriptTypeNonStandard ScriptType = "nonstandard"
)

const (
	opDup         = 0x76
	opHash160     = 0xa9
	opEqualVerify = 0x88
	opCheckSig    = 0xac
	opEqual       = 0x87
	opReturn      = 0x6a
	opPush20      = 0x14
	opPush32      = 0x20
)

// ClassifyScript inspects a locking script's byte pattern and reports its
// standard type. P2PK candidates are validated by actually parsing the
// embedded public key with secp256k1 — a script that merely has the right
// length but carries garbage instead of a point on the curve classifies
// as nonstandard rather than p2pk.
func ClassifyScript(script Script) ScriptType {
	switch {
	case IsProvablyUnspendable(script):
		return ScriptTypeOpReturn

	case len(script) == 25 && script[0] == opDup && script[1] == opHash160 &&
		script[2] == opPush20 && script[23] == opEqualVerify && script[24] == opCheckSig:
		return ScriptTypeP2PKH

	case len(script) == 23 && script[0] == opHash160 && script[1] == opPush20 &&
		script[22] == opEqual:
		return ScriptTypeP2SH

	case len(script) == 22 && script[0] == 0x00 && script[1] == opPush20:
		return ScriptTypeP2WPKH

	case len(script) == 34 && script[0] == 0x00 && script[1] == opPush32:
		return ScriptTypeP2WSH

	case (len(script) == 35 && script[0] == 33 || len(script) == 67 && script[0] == 65) &&
		script[len(script)-1] == opCheckSig:
		if _, err := secp256k1.ParsePubKey(script[1 : len(script)-1]); err == nil {
			return ScriptTypeP2PK
		}
		return ScriptTypeNonStandard

	default:
		return ScriptTypeNonStandard
	}
}
