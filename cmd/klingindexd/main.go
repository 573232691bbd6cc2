// klingindex indexing daemon.
//
// Configuration is read from KLINGINDEX_CONFIG (defaulting to
// klingindex.conf in the parent directory of KLINGINDEX_NETWORK's default
// db_path, default network mainnet).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Klingon-tech/klingindex/config"
	"github.com/Klingon-tech/klingindex/internal/chainquery"
	"github.com/Klingon-tech/klingindex/internal/errs"
	"github.com/Klingon-tech/klingindex/internal/fetcher"
	"github.com/Klingon-tech/klingindex/internal/indexer"
	klog "github.com/Klingon-tech/klingindex/internal/log"
	"github.com/Klingon-tech/klingindex/internal/mempool"
	"github.com/Klingon-tech/klingindex/internal/query"
	"github.com/Klingon-tech/klingindex/internal/rpcclient"
	"github.com/Klingon-tech/klingindex/internal/store"
)

func main() {
	os.Exit(run())
}

// run builds and wires every component, then blocks until a shutdown
// signal arrives. Exit codes follow spec §6.4: 0 on clean shutdown,
// non-zero on fatal store or node-protocol errors. The starting network
// and the config file path come from the KLINGINDEX_NETWORK and
// KLINGINDEX_CONFIG environment variables; every other setting comes
// from the .conf file. This daemon has no command-line flags to parse.
func run() int {
	// ── 1. Load config (defaults → file) ────────────────────────────
	network := config.NetworkType(os.Getenv("KLINGINDEX_NETWORK"))
	if network == "" {
		network = config.Mainnet
	}
	cfg := config.Default(network)

	path := os.Getenv("KLINGINDEX_CONFIG")
	if path == "" {
		path = cfg.ConfigFile()
	}
	values, err := config.LoadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading config %s: %v\n", path, err)
		return 1
	}
	if err := config.ApplyFileConfig(cfg, values); err != nil {
		fmt.Fprintf(os.Stderr, "Error applying config %s: %v\n", path, err)
		return 1
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		return 1
	}

	// ── 2. Init logger ───────────────────────────────────────────────
	logFile := cfg.Log.File
	if logFile == "" {
		logFile = cfg.DBPath + "/klingindexd.log"
	}
	if err := os.MkdirAll(cfg.DBPath, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating db_path %s: %v\n", cfg.DBPath, err)
		return 1
	}
	if err := klog.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		return 1
	}

	klog.Logger.Info().Str("network", string(cfg.Network)).Str("db_path", cfg.DBPath).Msg("starting klingindexd")

	// ── 3. Open storage ──────────────────────────────────────────────
	db, err := store.NewBadger(cfg.DBPath)
	if err != nil {
		klog.Logger.Error().Err(err).Str("path", cfg.DBPath).Msg("failed to open store")
		return 1
	}
	defer db.Close()

	// ── 4. Collaborator node and block source ───────────────────────
	node := rpcclient.NewWithTimeout(cfg.Node.Endpoint(), cfg.Node.Timeout)

	var fetch fetcher.Fetcher
	if cfg.Node.JSONRPCImport {
		fetch = fetcher.NewBitcoind(node, fetcher.DefaultWorkers())
	} else {
		blockFiles, err := fetcher.NewBlockFiles(cfg.BlocksDir, blockMagic(cfg.Network), fetcher.DefaultWorkers())
		if err != nil {
			klog.Logger.Error().Err(err).Str("blocks_dir", cfg.BlocksDir).Msg("failed to open block files")
			return 1
		}
		defer blockFiles.Close()
		fetch = blockFiles
	}

	// ── 5. Wire the indexer and the read-side query stack ───────────
	ticker := indexer.NewTicker(db, fetch, node, indexer.Config{
		MaxReorgDepth:     cfg.Indexing.MaxReorgDepth,
		IndexUnspendables: cfg.Indexing.IndexUnspendables,
		LightMode:         cfg.Indexing.LightMode,
	})

	chain := chainquery.New(db, node, chainquery.Config{})
	mpool := mempool.New(node, chain, mempool.Config{
		RecentCap:         cfg.Mempool.RecentCap,
		IndexUnspendables: cfg.Indexing.IndexUnspendables,
	}, nil)
	q := query.New(chain, mpool, node)

	// ── 6. Run the indexer and mempool loops until shutdown ─────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	indexerDone := make(chan error, 1)
	go func() { indexerDone <- runIndexLoop(ctx, ticker) }()

	mempoolDone := make(chan struct{})
	go func() {
		defer close(mempoolDone)
		runMempoolLoop(ctx, mpool, cfg.Mempool.PollInterval)
	}()

	go logFeeEstimates(ctx, q, cfg.Mempool.PollInterval*10)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		klog.Logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		cancel()
	case err := <-indexerDone:
		if err != nil {
			klog.Logger.Error().Err(err).Msg("indexer stopped with a fatal error")
			cancel()
			<-mempoolDone
			return 1
		}
	}

	// ── 7. Graceful shutdown ─────────────────────────────────────────
	<-mempoolDone
	klog.Logger.Info().Msg("shutdown complete")
	return 0
}

// runIndexLoop calls Tick repeatedly until ctx is canceled, which it
// only observes at the next batch boundary — a tick already in
// progress always finishes its current batch atomically. An error
// wrapping errs.ErrNodeUnavailable is logged and retried after the idle
// backoff; any other error is fatal and stops the loop.
func runIndexLoop(ctx context.Context, ticker *indexer.Ticker) error {
	const idleBackoff = 2 * time.Second
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := ticker.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if !errors.Is(err, errs.ErrNodeUnavailable) {
				return err
			}
			klog.Indexer.Warn().Err(err).Msg("node unavailable, retrying after backoff")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(idleBackoff):
		}
	}
}

// runMempoolLoop polls the mempool mirror at interval until ctx is
// canceled; interruptible between polls, never mid-poll, per spec §5.
func runMempoolLoop(ctx context.Context, mp *mempool.Mempool, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := mp.Update(ctx); err != nil {
				klog.Mempool.Warn().Err(err).Msg("mempool update failed, retrying next cycle")
			}
		}
	}
}

// logFeeEstimates periodically logs the node's current fee-rate ladder
// through the composed Query layer, giving operators visibility into
// mempool conditions without standing up the out-of-scope REST façade.
func logFeeEstimates(ctx context.Context, q *query.Query, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			estimates, err := q.EstimateFeeTargets(ctx)
			if err != nil {
				klog.Logger.Warn().Err(err).Msg("fee estimate sweep failed")
				continue
			}
			klog.Logger.Debug().Int("targets", len(estimates)).Int("mempool_size", q.Mempool().Count()).Msg("fee estimate sweep")
		}
	}
}

// blockMagic returns the network's block-file magic bytes, used to
// frame records in blocks_dir when jsonrpc_import is false.
func blockMagic(network config.NetworkType) [4]byte {
	switch network {
	case config.Testnet:
		return [4]byte{0x0b, 0x11, 0x09, 0x07}
	case config.Regtest:
		return [4]byte{0xfa, 0xbf, 0xb5, 0xda}
	case config.Liquid, config.LiquidRegtest:
		return [4]byte{0x5c, 0x48, 0x72, 0x22}
	default:
		return [4]byte{0xf9, 0xbe, 0xb4, 0xd9}
	}
}
