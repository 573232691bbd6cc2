package mempool

import (
	"context"
	"errors"
	"testing"

	"github.com/Klingon-tech/klingindex/internal/schema"
	"github.com/Klingon-tech/klingindex/pkg/tx"
	"github.com/Klingon-tech/klingindex/pkg/types"
)

func hash(b byte) types.Hash {
	var h types.Hash
	h[0] = b
	return h
}

func scripthash(b byte) types.ScriptHash {
	return schema.ComputeScriptHash(types.Script{b, 0xCD})
}

// fakeNode serves a fixed mempool txid set and a fixed txid->raw map.
// GetRawMempool and GetRawTransaction calls are counted so tests can
// assert the mirror doesn't re-fetch what it already holds.
type fakeNode struct {
	mempoolTxids []types.Hash
	raw          map[types.Hash][]byte
	fetchCount   map[types.Hash]int
}

func newFakeNode() *fakeNode {
	return &fakeNode{raw: make(map[types.Hash][]byte), fetchCount: make(map[types.Hash]int)}
}

func (n *fakeNode) GetRawMempool(ctx context.Context) ([]types.Hash, error) {
	return n.mempoolTxids, nil
}

func (n *fakeNode) GetRawTransaction(ctx context.Context, txid types.Hash) ([]byte, error) {
	n.fetchCount[txid]++
	raw, ok := n.raw[txid]
	if !ok {
		return nil, errors.New("fake node: no such transaction")
	}
	return raw, nil
}

func (n *fakeNode) put(transaction *tx.Transaction) types.Hash {
	txid := transaction.Txid()
	n.raw[txid] = transaction.Bytes()
	n.mempoolTxids = append(n.mempoolTxids, txid)
	return txid
}

// fakeChain resolves a fixed set of confirmed outpoints, counting calls.
type fakeChain struct {
	txos  map[types.Outpoint]schema.TxoEntry
	calls int
}

func (c *fakeChain) LookupTxos(outpoints []types.Outpoint) (map[types.Outpoint]schema.TxoEntry, error) {
	c.calls++
	out := make(map[types.Outpoint]schema.TxoEntry)
	for _, op := range outpoints {
		if entry, ok := c.txos[op]; ok {
			out[op] = entry
		}
	}
	return out, nil
}

func coinbase(scriptByte byte, value uint64) *tx.Transaction {
	return &tx.Transaction{
		Version: 1,
		Inputs:  []tx.Input{{PrevOut: types.Outpoint{}}},
		Outputs: []tx.Output{{Value: value, Script: types.Script{scriptByte, 0xCD}}},
	}
}

func spender(prevout types.Outpoint, scriptByte byte, value uint64) *tx.Transaction {
	return &tx.Transaction{
		Version: 1,
		Inputs:  []tx.Input{{PrevOut: prevout}},
		Outputs: []tx.Output{{Value: value, Script: types.Script{scriptByte, 0xCD}}},
	}
}

func TestUpdate_AddsFromChainPrevout(t *testing.T) {
	node := newFakeNode()
	confirmed := types.Outpoint{TxID: hash(0x01), Index: 0}
	chain := &fakeChain{txos: map[types.Outpoint]schema.TxoEntry{
		confirmed: {Value: 5000, Script: types.Script{0xAA, 0xCD}},
	}}
	spend := spender(confirmed, 0xBB, 4000)
	txid := node.put(spend)

	m := New(node, chain, Config{IndexUnspendables: true}, nil)
	if err := m.Update(context.Background()); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if !m.Has(txid) {
		t.Fatalf("expected txid %s to be mirrored", txid)
	}
	if chain.calls != 1 {
		t.Errorf("chain.calls = %d, want 1", chain.calls)
	}

	info, ok := m.FeeInfo(txid)
	if !ok || !info.HasFee || info.Fee != 1000 {
		t.Errorf("FeeInfo = %+v, %v, want fee 1000", info, ok)
	}

	if !m.HasSpend(confirmed) {
		t.Errorf("expected confirmed outpoint to be marked spent")
	}
	edge, ok := m.LookupSpend(confirmed)
	if !ok || edge.SpenderTxid != txid || edge.SpenderVin != 0 {
		t.Errorf("LookupSpend = %+v, %v, want spender %s vin 0", edge, ok, txid)
	}

	spentSh := scripthash(0xAA)
	fundedSh := scripthash(0xBB)
	spentTxids := m.HistoryTxids(spentSh)
	if len(spentTxids) != 1 || spentTxids[0] != txid {
		t.Errorf("HistoryTxids(spent) = %v, want [%s]", spentTxids, txid)
	}
	fundedUtxos := m.Utxo(fundedSh)
	if len(fundedUtxos) != 1 || fundedUtxos[0].Value != 4000 {
		t.Errorf("Utxo(funded) = %+v, want one entry of value 4000", fundedUtxos)
	}
}

func TestUpdate_ResolvesPrevoutFromMempoolBeforeChain(t *testing.T) {
	node := newFakeNode()
	chain := &fakeChain{txos: map[types.Outpoint]schema.TxoEntry{}}

	funder := coinbase(0xAA, 7000)
	funderTxid := node.put(funder)
	spend := spender(types.Outpoint{TxID: funderTxid, Index: 0}, 0xBB, 6500)
	node.put(spend)

	m := New(node, chain, Config{IndexUnspendables: true}, nil)
	if err := m.Update(context.Background()); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if chain.calls != 0 {
		t.Errorf("chain.calls = %d, want 0 (prevout should resolve from mempool)", chain.calls)
	}
	spendTxid := spend.Txid()
	info, ok := m.FeeInfo(spendTxid)
	if !ok || !info.HasFee || info.Fee != 500 {
		t.Errorf("FeeInfo = %+v, %v, want fee 500", info, ok)
	}
}

func TestUpdate_UnresolvedPrevoutHasNoFee(t *testing.T) {
	node := newFakeNode()
	chain := &fakeChain{txos: map[types.Outpoint]schema.TxoEntry{}}
	spend := spender(types.Outpoint{TxID: hash(0x99), Index: 0}, 0xBB, 1000)
	txid := node.put(spend)

	m := New(node, chain, Config{IndexUnspendables: true}, nil)
	if err := m.Update(context.Background()); err != nil {
		t.Fatalf("Update: %v", err)
	}

	info, ok := m.FeeInfo(txid)
	if !ok || info.HasFee {
		t.Errorf("FeeInfo = %+v, %v, want HasFee=false", info, ok)
	}
}

func TestUpdate_RemovalUnlinksWithoutScanningWholeMap(t *testing.T) {
	node := newFakeNode()
	chain := &fakeChain{txos: map[types.Outpoint]schema.TxoEntry{}}
	txA := node.put(coinbase(0xAA, 1000))
	txB := node.put(coinbase(0xBB, 2000))

	m := New(node, chain, Config{IndexUnspendables: true}, nil)
	if err := m.Update(context.Background()); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if m.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", m.Count())
	}

	// txA drops out of the node's mempool (e.g. confirmed or evicted).
	node.mempoolTxids = []types.Hash{txB}
	if err := m.Update(context.Background()); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if m.Has(txA) {
		t.Errorf("txA should have been unlinked")
	}
	if !m.Has(txB) {
		t.Errorf("txB should remain mirrored")
	}
	if len(m.HistoryTxids(scripthash(0xAA))) != 0 {
		t.Errorf("scripthash(0xAA) history should be empty after unlink")
	}
	if len(m.HistoryTxids(scripthash(0xBB))) != 1 {
		t.Errorf("scripthash(0xBB) history should still have one entry")
	}
}

func TestUpdate_SkipsUnspendableOutputsWhenConfigured(t *testing.T) {
	node := newFakeNode()
	chain := &fakeChain{txos: map[types.Outpoint]schema.TxoEntry{}}
	opReturn := &tx.Transaction{
		Version: 1,
		Inputs:  []tx.Input{{PrevOut: types.Outpoint{}}},
		Outputs: []tx.Output{{Value: 0, Script: types.Script{0x6a, 0x01, 0x02}}},
	}
	node.put(opReturn)

	m := New(node, chain, Config{IndexUnspendables: false}, nil)
	if err := m.Update(context.Background()); err != nil {
		t.Fatalf("Update: %v", err)
	}

	sh := schema.ComputeScriptHash(types.Script{0x6a, 0x01, 0x02})
	if len(m.HistoryTxids(sh)) != 0 {
		t.Errorf("unspendable output should not be indexed when IndexUnspendables is false")
	}
}

func TestStats(t *testing.T) {
	node := newFakeNode()
	chain := &fakeChain{txos: map[types.Outpoint]schema.TxoEntry{}}
	sh := byte(0xAA)
	funder := coinbase(sh, 1000)
	funderTxid := node.put(funder)
	spend := spender(types.Outpoint{TxID: funderTxid, Index: 0}, 0xBB, 900)
	node.put(spend)

	m := New(node, chain, Config{IndexUnspendables: true}, nil)
	if err := m.Update(context.Background()); err != nil {
		t.Fatalf("Update: %v", err)
	}

	stats := m.Stats(scripthash(sh))
	if stats.FundedTxoCount != 1 || stats.FundedTxoSum != 1000 {
		t.Errorf("funded side = %+v, want count=1 sum=1000", stats)
	}
	if stats.SpentTxoCount != 1 || stats.SpentTxoSum != 1000 {
		t.Errorf("spent side = %+v, want count=1 sum=1000", stats)
	}
	if stats.TxCount != 2 {
		t.Errorf("TxCount = %d, want 2 (funding + spending txid)", stats.TxCount)
	}
}

func TestRecentBoundedByCap(t *testing.T) {
	node := newFakeNode()
	chain := &fakeChain{txos: map[types.Outpoint]schema.TxoEntry{}}
	for i := byte(0); i < 5; i++ {
		node.put(coinbase(i, uint64(i)+1))
	}

	m := New(node, chain, Config{RecentCap: 3, IndexUnspendables: true}, nil)
	if err := m.Update(context.Background()); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if got := len(m.Recent()); got != 3 {
		t.Errorf("Recent() len = %d, want 3 (bounded by RecentCap)", got)
	}
}
