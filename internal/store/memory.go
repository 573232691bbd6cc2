package store

import (
	"bytes"
	"sort"
	"strings"
	"sync"
)

// MemoryStore implements Store over an in-memory map, for tests that
// need a Store without a real Badger directory.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(key []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[string(key)]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryStore) Has(key []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[string(key)]
	return ok, nil
}

func (m *MemoryStore) Scan(prefix []byte) Iterator {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := string(prefix)
	keys := make([]string, 0)
	for k := range m.data {
		if strings.HasPrefix(k, p) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return &memoryIterator{store: m, keys: keys}
}

type memoryIterator struct {
	store *MemoryStore
	keys  []string
	pos   int
}

func (it *memoryIterator) Next() (key, value []byte, ok bool) {
	for it.pos < len(it.keys) {
		k := it.keys[it.pos]
		it.pos++

		it.store.mu.Lock()
		v, exists := it.store.data[k]
		it.store.mu.Unlock()
		if !exists {
			// Deleted since the scan started; skip it.
			continue
		}
		vcopy := make([]byte, len(v))
		copy(vcopy, v)
		return []byte(k), vcopy, true
	}
	return nil, nil, false
}

func (it *memoryIterator) Err() error { return nil }
func (it *memoryIterator) Close()     {}

func (m *MemoryStore) NewBatch() Batch {
	return &memoryBatch{store: m}
}

type memoryOp struct {
	key   []byte
	value []byte
	del   bool
}

type memoryBatch struct {
	store *MemoryStore
	ops   []memoryOp
}

func (b *memoryBatch) Put(key, value []byte) error {
	k := append([]byte(nil), key...)
	v := append([]byte(nil), value...)
	b.ops = append(b.ops, memoryOp{key: k, value: v})
	return nil
}

func (b *memoryBatch) Delete(key []byte) error {
	k := append([]byte(nil), key...)
	b.ops = append(b.ops, memoryOp{key: k, del: true})
	return nil
}

func (b *memoryBatch) Commit() error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	for _, op := range b.ops {
		if op.del {
			delete(b.store.data, string(op.key))
			continue
		}
		b.store.data[string(op.key)] = op.value
	}
	return nil
}

func (m *MemoryStore) DeleteRange(lo, hi []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		kb := []byte(k)
		if bytes.Compare(kb, lo) >= 0 && bytes.Compare(kb, hi) < 0 {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *MemoryStore) Compact() error { return nil }
func (m *MemoryStore) Close() error   { return nil }
