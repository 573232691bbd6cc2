// Package schema encodes and decodes every index row family defined for
// the ledger index: pure functions over bytes, with no Store dependency
// of their own. Every family's key begins with a single-byte tag; within
// a family, multi-byte integers are big-endian so that lexicographic key
// order matches numeric order.
package schema

// Family tags. A single byte identifies which row family a key belongs
// to; family layouts below disambiguate same-tag collisions (see
// heighthash.go and history.go) by length and prefix shape rather than
// by tag value, mirroring the byte-exact layout spec.md prescribes.
const (
	TagBlockHeader byte = 'B'
	TagBlockMeta   byte = 'M'
	TagBlockTxids  byte = 'X'
	TagHeightHash  byte = 'H'
	TagHistory     byte = 'H'
	TagFunding     byte = 'h'
	TagSpending    byte = 'S'
	TagTxo         byte = 'T'
	TagConfirm     byte = 'C'
	TagStatsCache  byte = 'K'
)

// Kind distinguishes a funding (output) event from a spending (input)
// event within a Tx history row.
type Kind byte

const (
	KindFunding  Kind = 0
	KindSpending Kind = 1
)
