// Package store wraps an ordered key/value engine behind an opaque
// contract: point lookups, prefix scans, and atomic batched writes. The
// indexer is the only writer; every other component only ever reads.
package store

import "errors"

// ErrNotFound is returned by Get when the key is absent. Callers use
// errors.Is to distinguish "absent" from a fatal store error.
var ErrNotFound = errors.New("store: key not found")

// Iterator yields the rows of a prefix scan in lexicographic key order.
// It is finite and not restartable: once Next reports ok=false, or once
// the underlying store mutates, the iterator must be discarded. Key and
// value are copied out of the engine's internal buffers before return,
// so callers may retain them past the next Next call.
type Iterator interface {
	Next() (key, value []byte, ok bool)
	Err() error
	Close()
}

// Batch buffers a set of row mutations for atomic application. Put and
// Delete never fail on their own; only Commit can.
type Batch interface {
	Put(key, value []byte) error
	Delete(key []byte) error
	Commit() error
}

// Store is the opaque ordered key/value contract every other component
// is built on.
type Store interface {
	// Get returns ErrNotFound when key is absent.
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	// Scan returns an iterator over every row whose key begins with prefix.
	Scan(prefix []byte) Iterator
	// NewBatch returns a fresh batch; Commit applies it atomically and
	// durably (fsync) before returning.
	NewBatch() Batch
	// DeleteRange removes every row with lo <= key < hi.
	DeleteRange(lo, hi []byte) error
	// Compact is an optional, idempotent maintenance hint.
	Compact() error
	Close() error
}
