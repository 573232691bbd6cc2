package store

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

// batchTxnThreshold is the op-count boundary between "small batch,
// single transaction" and "large batch, WriteBatch". A single badger
// transaction holds the whole batch in memory and conflicts with
// concurrent writers; WriteBatch streams writes across several internal
// transactions, which is fine here since the Indexer is the only writer
// and batches never overlap.
const batchTxnThreshold = 1000

// BadgerStore implements Store over a *badger.DB.
type BadgerStore struct {
	db *badger.DB
}

// NewBadger opens (or creates) a Badger database at path.
func NewBadger(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // badger's own logger is replaced by the component logger

	db, err := badger.Open(opts)
	if err != nil {
		errMsg := err.Error()
		if strings.Contains(errMsg, "Cannot acquire directory lock") ||
			strings.Contains(errMsg, "resource temporarily unavailable") {
			return nil, fmt.Errorf("store: database at %s is locked by another process (is another klingindexd instance running?): %w", path, err)
		}
		return nil, fmt.Errorf("store: open database at %s: %w", path, err)
	}
	return &BadgerStore{db: db}, nil
}

// Get retrieves a value by key.
func (s *BadgerStore) Get(key []byte) ([]byte, error) {
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get: %w", err)
	}
	return val, nil
}

// Has checks if a key exists.
func (s *BadgerStore) Has(key []byte) (bool, error) {
	var exists bool
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("store: has: %w", err)
	}
	return exists, nil
}

// Scan opens a read-only iterator over the prefix.
func (s *BadgerStore) Scan(prefix []byte) Iterator {
	p := append([]byte(nil), prefix...)
	txn := s.db.NewTransaction(false)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = p
	it := txn.NewIterator(opts)
	it.Seek(p)
	return &badgerIterator{txn: txn, it: it, prefix: p}
}

type badgerIterator struct {
	txn    *badger.Txn
	it     *badger.Iterator
	prefix []byte
	err    error
}

func (bi *badgerIterator) Next() (key, value []byte, ok bool) {
	if bi.err != nil || !bi.it.ValidForPrefix(bi.prefix) {
		return nil, nil, false
	}
	item := bi.it.Item()
	key = item.KeyCopy(nil)
	value, err := item.ValueCopy(nil)
	if err != nil {
		bi.err = err
		return nil, nil, false
	}
	bi.it.Next()
	return key, value, true
}

func (bi *badgerIterator) Err() error { return bi.err }

func (bi *badgerIterator) Close() {
	bi.it.Close()
	bi.txn.Discard()
}

// NewBatch returns a Batch that commits via a single badger transaction
// (small batch) or a badger.WriteBatch (large batch).
func (s *BadgerStore) NewBatch() Batch {
	return &badgerBatch{db: s.db}
}

type batchOp struct {
	key   []byte
	value []byte
	del   bool
}

type badgerBatch struct {
	db  *badger.DB
	ops []batchOp
}

func (b *badgerBatch) Put(key, value []byte) error {
	k := append([]byte(nil), key...)
	v := append([]byte(nil), value...)
	b.ops = append(b.ops, batchOp{key: k, value: v})
	return nil
}

func (b *badgerBatch) Delete(key []byte) error {
	k := append([]byte(nil), key...)
	b.ops = append(b.ops, batchOp{key: k, del: true})
	return nil
}

func (b *badgerBatch) Commit() error {
	if len(b.ops) == 0 {
		return nil
	}

	var err error
	if len(b.ops) <= batchTxnThreshold {
		err = b.db.Update(func(txn *badger.Txn) error {
			for _, op := range b.ops {
				if op.del {
					if e := txn.Delete(op.key); e != nil {
						return e
					}
					continue
				}
				if e := txn.Set(op.key, op.value); e != nil {
					return e
				}
			}
			return nil
		})
	} else {
		wb := b.db.NewWriteBatch()
		defer wb.Cancel()
		for _, op := range b.ops {
			if op.del {
				if e := wb.Delete(op.key); e != nil {
					err = e
					break
				}
				continue
			}
			if e := wb.Set(op.key, op.value); e != nil {
				err = e
				break
			}
		}
		if err == nil {
			err = wb.Flush()
		}
	}
	if err != nil {
		return fmt.Errorf("store: commit batch: %w", err)
	}
	return b.db.Sync()
}

// DeleteRange removes every row with lo <= key < hi.
func (s *BadgerStore) DeleteRange(lo, hi []byte) error {
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(lo); it.Valid(); it.Next() {
			key := it.Item().KeyCopy(nil)
			if bytes.Compare(key, hi) >= 0 {
				break
			}
			if err := wb.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: delete range: %w", err)
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("store: delete range flush: %w", err)
	}
	return s.db.Sync()
}

// Compact runs badger's value-log garbage collection and level compaction.
func (s *BadgerStore) Compact() error {
	if err := s.db.Flatten(1); err != nil {
		return fmt.Errorf("store: compact: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
