// Package indexer drives the main ledger-indexing pipeline: initial bulk
// scan, tip-follow, and reorg detection/rollback, writing schema rows to
// the Store via the Fetcher.
package indexer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Klingon-tech/klingindex/internal/errs"
	"github.com/Klingon-tech/klingindex/internal/fetcher"
	"github.com/Klingon-tech/klingindex/internal/log"
	"github.com/Klingon-tech/klingindex/internal/rpcclient"
	"github.com/Klingon-tech/klingindex/internal/store"
	"github.com/Klingon-tech/klingindex/pkg/types"
)

// State names the Ticker's current pipeline phase.
type State int

const (
	StateIdle State = iota
	StateScanning
	StateRollback
	StateApplying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateRollback:
		return "rollback"
	case StateApplying:
		return "applying"
	default:
		return "unknown"
	}
}

// Collaborator is the subset of the node RPC interface the Indexer needs
// to detect the current tip and walk header chains for common-ancestor
// search. Satisfied by *rpcclient.Client.
type Collaborator interface {
	GetBestBlockHash(ctx context.Context) (types.Hash, error)
	GetBlockHeader(ctx context.Context, hash types.Hash) (*rpcclient.NodeHeader, error)
	GetBlock(ctx context.Context, hash types.Hash) ([]byte, error)
	GetRawTransaction(ctx context.Context, txid types.Hash) ([]byte, error)
}

// Config tunes the Ticker's reorg handling and what gets indexed.
type Config struct {
	MaxReorgDepth     uint64
	IndexUnspendables bool
	LightMode         bool
}

// Ticker drives one tick of the Indexer state machine. It owns all
// writes to the Store; callers must never write to the same Store
// concurrently from elsewhere.
type Ticker struct {
	store   store.Store
	fetch   fetcher.Fetcher
	node    Collaborator
	cfg     Config
	metrics *Metrics

	mu           sync.Mutex
	state        State
	localHeight  uint64
	localHeightOK bool
}

// NewTicker builds a Ticker. localHeight is discovered lazily on the
// first Tick via a search over the Height→hash family.
func NewTicker(s store.Store, f fetcher.Fetcher, node Collaborator, cfg Config) *Ticker {
	return &Ticker{
		store:   s,
		fetch:   f,
		node:    node,
		cfg:     cfg,
		metrics: NewMetrics(),
		state:   StateIdle,
	}
}

// State returns the Ticker's current phase, safe to call from any
// goroutine (e.g. a health-check handler).
func (t *Ticker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Metrics exposes the Ticker's Prometheus collectors for registration
// into the process's registry.
func (t *Ticker) Metrics() *Metrics {
	return t.metrics
}

func (t *Ticker) setState(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

// Tick runs one pass of the pipeline: find the node's tip, detect and
// resolve any reorg, then apply any new blocks up to the node's tip. It
// returns nil when there was nothing new to do. An error wrapping
// errs.ErrNodeUnavailable is transient and the caller may Tick again
// later; any other returned error is fatal and the caller should stop
// calling Tick and exit.
func (t *Ticker) Tick(ctx context.Context) error {
	start := time.Now()
	defer func() {
		t.metrics.TickDuration.Observe(time.Since(start).Seconds())
	}()

	t.setState(StateScanning)
	defer t.setState(StateIdle)

	if !t.localHeightOK {
		height, ok, err := localBestHeight(t.store)
		if err != nil {
			return fmt.Errorf("indexer: discover local tip: %w", err)
		}
		t.localHeight, t.localHeightOK = height, ok
	}

	nodeHash, err := t.node.GetBestBlockHash(ctx)
	if err != nil {
		return fmt.Errorf("indexer: %w: getbestblockhash: %v", errs.ErrNodeUnavailable, err)
	}
	nodeHeader, err := t.node.GetBlockHeader(ctx, nodeHash)
	if err != nil {
		return fmt.Errorf("indexer: %w: getblockheader(%s): %v", errs.ErrNodeUnavailable, nodeHash, err)
	}

	if !t.localHeightOK {
		// Empty store: apply from genesis, no ancestor search needed.
		return t.applyRange(ctx, 0, nodeHeader.Height)
	}

	if nodeHeader.Height == t.localHeight {
		localHash, err := heightHash(t.store, t.localHeight)
		if err != nil {
			return fmt.Errorf("indexer: %w", err)
		}
		if localHash == nodeHash {
			return nil // already caught up, nothing to do
		}
	}

	ancestorHeight, reorg, err := t.commonAncestor(ctx, nodeHash, nodeHeader)
	if err != nil {
		return err
	}

	if reorg {
		log.Indexer.Warn().
			Uint64("local_height", t.localHeight).
			Uint64("ancestor_height", ancestorHeight).
			Msg("reorg detected, rolling back")
		t.setState(StateRollback)
		t.metrics.ReorgDepth.Set(float64(t.localHeight - ancestorHeight))
		if err := t.rollback(ctx, ancestorHeight); err != nil {
			return fmt.Errorf("indexer: rollback: %w", err)
		}
		t.localHeight = ancestorHeight
	}

	t.setState(StateApplying)
	return t.applyRange(ctx, ancestorHeight+1, nodeHeader.Height)
}
