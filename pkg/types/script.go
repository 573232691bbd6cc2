package types

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Script is a locking script (scriptPubKey) attached to a transaction
// output: an opaque byte string. The indexer never interprets script
// contents — it only keys rows by the script's hash.
type Script []byte

// MarshalJSON encodes the script as a hex string.
func (s Script) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(s))
}

// UnmarshalJSON decodes a hex string into a script.
func (s *Script) UnmarshalJSON(data []byte) error {
	var h string
	if err := json.Unmarshal(data, &h); err != nil {
		return err
	}
	if h == "" {
		*s = nil
		return nil
	}
	b, err := hex.DecodeString(h)
	if err != nil {
		return err
	}
	*s = b
	return nil
}

// ScriptHashSize is the length of a scripthash in bytes.
const ScriptHashSize = sha256.Size

// ScriptHash is the SHA-256 digest of a script's bytes — the primary
// index key for address-like queries (§3 of the spec it implements).
type ScriptHash [ScriptHashSize]byte

// String returns the hex-encoded scripthash.
func (h ScriptHash) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns a copy of the scripthash as a byte slice.
func (h ScriptHash) Bytes() []byte {
	b := make([]byte, ScriptHashSize)
	copy(b, h[:])
	return b
}

// ComputeScriptHash hashes a script's raw bytes with SHA-256. No further
// transformation is applied — this must stay byte-exact with existing
// client expectations (compute_script_hash in the spec).
func ComputeScriptHash(script Script) ScriptHash {
	return ScriptHash(sha256.Sum256(script))
}

// ScriptHashFromBytes copies a byte slice into a ScriptHash.
func ScriptHashFromBytes(b []byte) (ScriptHash, error) {
	h, err := HashFromBytes(b)
	return ScriptHash(h), err
}

// IsProvablyUnspendable reports whether a script can never be redeemed —
// an empty script or one beginning with an OP_RETURN-style marker byte
// (0x6a, matching the Bitcoin-family convention). Indexing of such
// outputs is controlled by the index_unspendables configuration option.
func IsProvablyUnspendable(script Script) bool {
	return len(script) == 0 || script[0] == 0x6a
}
