package schema

import (
	"encoding/binary"
	"fmt"

	"github.com/Klingon-tech/klingindex/pkg/types"
)

const statsValuesSize = 5 * 8
const statsCacheValueSize = statsValuesSize + 32

// ScriptStats aggregates a script's confirmed funding/spending activity.
type ScriptStats struct {
	FundedTxoCount uint64
	FundedTxoSum   uint64
	SpentTxoCount  uint64
	SpentTxoSum    uint64
	TxCount        uint64
}

// StatsCacheEntry is the value of a "K" row: a computed ScriptStats plus
// the blockhash it was computed against, so readers can detect
// staleness against the current tip.
type StatsCacheEntry struct {
	Stats              ScriptStats
	LastIndexedBlockHash types.Hash
}

// StatsCacheKey builds the "K" ‖ scripthash key.
func StatsCacheKey(scripthash types.ScriptHash) []byte {
	key := make([]byte, 0, 1+32)
	key = append(key, TagStatsCache)
	key = append(key, scripthash[:]...)
	return key
}

// EncodeStatsCacheEntry serializes a (stats, last_indexed_blockhash) row value.
func EncodeStatsCacheEntry(e StatsCacheEntry) []byte {
	buf := make([]byte, 0, statsCacheValueSize)
	buf = binary.BigEndian.AppendUint64(buf, e.Stats.FundedTxoCount)
	buf = binary.BigEndian.AppendUint64(buf, e.Stats.FundedTxoSum)
	buf = binary.BigEndian.AppendUint64(buf, e.Stats.SpentTxoCount)
	buf = binary.BigEndian.AppendUint64(buf, e.Stats.SpentTxoSum)
	buf = binary.BigEndian.AppendUint64(buf, e.Stats.TxCount)
	buf = append(buf, e.LastIndexedBlockHash[:]...)
	return buf
}

// DecodeStatsCacheEntry parses a "K" row value.
func DecodeStatsCacheEntry(value []byte) (StatsCacheEntry, error) {
	if len(value) != statsCacheValueSize {
		return StatsCacheEntry{}, fmt.Errorf("schema: stats cache: want %d bytes, got %d", statsCacheValueSize, len(value))
	}
	var e StatsCacheEntry
	e.Stats.FundedTxoCount = binary.BigEndian.Uint64(value[0:8])
	e.Stats.FundedTxoSum = binary.BigEndian.Uint64(value[8:16])
	e.Stats.SpentTxoCount = binary.BigEndian.Uint64(value[16:24])
	e.Stats.SpentTxoSum = binary.BigEndian.Uint64(value[24:32])
	e.Stats.TxCount = binary.BigEndian.Uint64(value[32:40])
	copy(e.LastIndexedBlockHash[:], value[40:72])
	return e, nil
}
