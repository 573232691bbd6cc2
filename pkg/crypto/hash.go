// Package crypto provides the hash primitives used to identify blocks and
// transactions.
package crypto

import (
	"github.com/Klingon-tech/klingindex/pkg/types"
	"github.com/zeebo/blake3"
)

// Hash computes a BLAKE3-256 hash of the input data. This is the chain's
// txid/block-hash function: fast, fixed-size, and — unlike SHA-256d — free
// of length-extension surface, which is why it is kept as the network's
// identifier function rather than swapped for a Bitcoin-style double-SHA256
// when adapting this engine to the UTXO ledger domain.
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// HashConcat hashes the concatenation of two hashes, the pairing step of
// a merkle-root computation. The fetchers do not verify merkle roots.
func HashConcat(a, b types.Hash) types.Hash {
	var buf [64]byte
	copy(buf[:32], a[:])
	copy(buf[32:], b[:])
	return Hash(buf[:])
}
