package schema

import "github.com/Klingon-tech/klingindex/pkg/types"

// ComputeScriptHash is compute_script_hash: SHA-256 of the script
// bytes, no further transformation. It must stay byte-exact with
// existing client expectations, so it is a direct call-through to
// pkg/types rather than a reimplementation.
func ComputeScriptHash(script types.Script) types.ScriptHash {
	return types.ComputeScriptHash(script)
}
