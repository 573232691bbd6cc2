// Package errs defines the sentinel errors shared across the indexing and
// query engine, in the teacher's style (internal/chain/reorg.go's
// ErrForkDetected, ErrReorgTooDeep, ErrGenesisReorg).
package errs

import "fmt"

// ErrStoreCorruption indicates a read-time invariant violation in the
// store — a row decoded into a shape the schema package rejects. Fatal:
// the process should not keep serving from a store it can't trust.
var ErrStoreCorruption = fmt.Errorf("store corruption detected")

// ErrNodeUnavailable wraps a collaborator-node RPC failure. The
// Indexer's tick loop and the Mempool's poll loop both retry this with
// backoff rather than treating it as fatal.
var ErrNodeUnavailable = fmt.Errorf("collaborator node unavailable")

// ErrReorgTooDeep is returned when the Indexer's common-ancestor search
// exceeds the configured maximum reorg depth. Fatal: a rollback this
// deep is treated as an operator problem, not something to silently
// work around.
var ErrReorgTooDeep = fmt.Errorf("reorg too deep")

// ErrBadInput marks a caller-supplied value the query layer rejects
// before ever reaching the store or the node — a malformed hash, an
// out-of-range height, an unparseable raw transaction. Never retried.
var ErrBadInput = fmt.Errorf("bad input")

// ErrTransportBroadcast wraps a sendrawtransaction rejection from the
// node, returned to the caller verbatim rather than retried.
var ErrTransportBroadcast = fmt.Errorf("broadcast rejected")
