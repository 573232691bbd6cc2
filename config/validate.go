package config

import "fmt"

// Validate checks a config for obvious operator mistakes before it
// reaches the composition root, the same role the teacher's Validate
// plays for its own Config.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	switch cfg.Network {
	case Mainnet, Testnet, Regtest, Liquid, LiquidRegtest:
	default:
		return fmt.Errorf("network must be one of %q, %q, %q, %q, %q",
			Mainnet, Testnet, Regtest, Liquid, LiquidRegtest)
	}
	if cfg.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}

	if cfg.Node.JSONRPCImport {
		if cfg.Node.Host == "" {
			return fmt.Errorf("node.host is required when jsonrpc_import is true")
		}
	} else if cfg.BlocksDir == "" {
		return fmt.Errorf("blocks_dir is required when jsonrpc_import is false")
	}

	if cfg.Indexing.MaxReorgDepth == 0 {
		return fmt.Errorf("max_reorg_depth must be positive")
	}
	if cfg.Mempool.RecentCap <= 0 {
		return fmt.Errorf("mempool.recent_cap must be positive")
	}
	if cfg.Mempool.PollInterval <= 0 {
		return fmt.Errorf("mempool.poll_interval must be positive")
	}

	return nil
}
