package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFile loads configuration from a .conf file.
// Format: key = value (one per line, # for comments).
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}
		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file configuration onto cfg.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	case "network":
		cfg.Network = NetworkType(value)
	case "db_path":
		cfg.DBPath = value
	case "blocks_dir":
		cfg.BlocksDir = value

	case "index_unspendables":
		cfg.Indexing.IndexUnspendables = parseBool(value)
	case "light_mode":
		cfg.Indexing.LightMode = parseBool(value)
	case "max_reorg_depth":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		cfg.Indexing.MaxReorgDepth = n

	case "jsonrpc_import":
		cfg.Node.JSONRPCImport = parseBool(value)
	case "node.host":
		cfg.Node.Host = value
	case "node.user":
		cfg.Node.User = value
	case "node.password":
		cfg.Node.Password = value
	case "node.timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.Node.Timeout = d

	case "mempool.poll_interval":
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		cfg.Mempool.PollInterval = d
	case "mempool.recent_cap":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Mempool.RecentCap = n

	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored.
	}
	return nil
}

func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// WriteDefaultConfig writes a default configuration file for network.
func WriteDefaultConfig(path string, network NetworkType) error {
	cfg := Default(network)
	content := `# klingindex configuration
#
# network: mainnet, testnet, regtest, liquid, or liquidregtest
network = ` + string(cfg.Network) + `

# Directory for the persistent key-value store.
db_path = ` + cfg.DBPath + `

# ============================================================================
# Indexing behavior
# ============================================================================

# If false, provably unspendable outputs (e.g. OP_RETURN) are not indexed.
index_unspendables = ` + strconv.FormatBool(cfg.Indexing.IndexUnspendables) + `

# Disables the Txo cache: smaller DB, slower prevout lookups.
light_mode = ` + strconv.FormatBool(cfg.Indexing.LightMode) + `

# Maximum reorg depth the Indexer will attempt to resolve before giving up.
max_reorg_depth = ` + strconv.FormatUint(cfg.Indexing.MaxReorgDepth, 10) + `

# ============================================================================
# Node collaborator (JSON-RPC)
# ============================================================================

# If true, fetch blocks via RPC. If false, read from blocks_dir instead.
jsonrpc_import = ` + strconv.FormatBool(cfg.Node.JSONRPCImport) + `

node.host = ` + cfg.Node.Host + `
# node.user =
# node.password =
node.timeout = ` + cfg.Node.Timeout.String() + `

# Used only when jsonrpc_import is false.
# blocks_dir = /path/to/node/blocks

# ============================================================================
# Mempool mirror
# ============================================================================

mempool.poll_interval = ` + cfg.Mempool.PollInterval.String() + `
mempool.recent_cap = ` + strconv.Itoa(cfg.Mempool.RecentCap) + `

# ============================================================================
# Logging
# ============================================================================

log.level = ` + cfg.Log.Level + `
# log.file =
log.json = ` + strconv.FormatBool(cfg.Log.JSON) + `
`
	return os.WriteFile(path, []byte(content), 0644)
}
