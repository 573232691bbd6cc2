// Package config handles application configuration.
//
// Configuration is split into two categories, the same split the
// teacher's config package draws:
//   - Network parameters: which chain this instance serves, fixed per
//     deployment and shared by every component that touches the Store.
//   - Runtime settings: how this process reaches its node, where it
//     keeps its data, and how it logs — can vary per node without
//     changing what's indexed.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// NetworkType selects the chain this instance indexes, per spec §6.4.
type NetworkType string

const (
	Mainnet       NetworkType = "mainnet"
	Testnet       NetworkType = "testnet"
	Regtest       NetworkType = "regtest"
	Liquid        NetworkType = "liquid"
	LiquidRegtest NetworkType = "liquidregtest"
)

// Config holds everything the composition root needs to build a Store,
// a Fetcher, an Indexer, a Mempool, and a node RPC client.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DBPath  string      `conf:"db_path"`

	// Indexing behavior
	Indexing IndexingConfig

	// Node collaborator (JSON-RPC)
	Node NodeConfig

	// Block-file fetching, used when Node.JSONRPCImport is false
	BlocksDir string `conf:"blocks_dir"`

	// Mempool mirror
	Mempool MempoolConfig

	// Logging
	Log LogConfig
}

// IndexingConfig controls what the Indexer writes, per spec §6.4 and
// §4.4's LightMode/IndexUnspendables knobs.
type IndexingConfig struct {
	IndexUnspendables bool   `conf:"index_unspendables"`
	LightMode         bool   `conf:"light_mode"`
	MaxReorgDepth     uint64 `conf:"max_reorg_depth"`
}

// NodeConfig is the collaborator node's JSON-RPC endpoint, per spec
// §6.3. Endpoint() assembles these into the URL rpcclient.NewWithTimeout
// expects, embedding basic auth in the userinfo component the way a
// bitcoind-style JSON-RPC server expects it.
type NodeConfig struct {
	JSONRPCImport bool          `conf:"jsonrpc_import"`
	Host          string        `conf:"node.host"`
	User          string        `conf:"node.user"`
	Password      string        `conf:"node.password"`
	Timeout       time.Duration `conf:"node.timeout"`
}

// MempoolConfig tunes the mempool mirror's poll cycle and bounded deque.
type MempoolConfig struct {
	PollInterval time.Duration `conf:"mempool.poll_interval"`
	RecentCap    int           `conf:"mempool.recent_cap"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// DefaultDataDir returns the platform-specific default data directory,
// parallel to the teacher's own DefaultDataDir.
//
//	Linux:   ~/.klingindex
//	macOS:   ~/Library/Application Support/Klingindex
//	Windows: %APPDATA%\Klingindex
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".klingindex"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Klingindex")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Klingindex")
		}
		return filepath.Join(home, "AppData", "Roaming", "Klingindex")
	default:
		return filepath.Join(home, ".klingindex")
	}
}

// ConfigFile returns the default config file path alongside DBPath.
func (c *Config) ConfigFile() string {
	return filepath.Join(filepath.Dir(c.DBPath), "klingindex.conf")
}
