package config

import "time"

// DefaultMainnet returns the default configuration for mainnet.
func DefaultMainnet() *Config {
	return &Config{
		Network: Mainnet,
		DBPath:  DefaultDataDir(),
		Indexing: IndexingConfig{
			IndexUnspendables: false,
			LightMode:         false,
			MaxReorgDepth:     100,
		},
		Node: NodeConfig{
			JSONRPCImport: true,
			Host:          "127.0.0.1:8332",
			Timeout:       30 * time.Second,
		},
		Mempool: MempoolConfig{
			PollInterval: 5 * time.Second,
			RecentCap:    100,
		},
		Log: LogConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// DefaultTestnet returns the default configuration for testnet.
func DefaultTestnet() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Testnet
	cfg.Node.Host = "127.0.0.1:18332"
	return cfg
}

// DefaultRegtest returns the default configuration for regtest.
func DefaultRegtest() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Regtest
	cfg.Node.Host = "127.0.0.1:18443"
	cfg.Indexing.MaxReorgDepth = 1000 // regtest reorgs are test-driven, often deep
	return cfg
}

// DefaultLiquid returns the default configuration for the Liquid sidechain.
func DefaultLiquid() *Config {
	cfg := DefaultMainnet()
	cfg.Network = Liquid
	cfg.Node.Host = "127.0.0.1:7041"
	return cfg
}

// DefaultLiquidRegtest returns the default configuration for a local
// Liquid regtest deployment.
func DefaultLiquidRegtest() *Config {
	cfg := DefaultLiquid()
	cfg.Network = LiquidRegtest
	cfg.Node.Host = "127.0.0.1:7040"
	cfg.Indexing.MaxReorgDepth = 1000
	return cfg
}

// Default returns the default configuration for the given network.
func Default(network NetworkType) *Config {
	switch network {
	case Testnet:
		return DefaultTestnet()
	case Regtest:
		return DefaultRegtest()
	case Liquid:
		return DefaultLiquid()
	case LiquidRegtest:
		return DefaultLiquidRegtest()
	default:
		return DefaultMainnet()
	}
}
