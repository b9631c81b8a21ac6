package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"github.com/hailam/staticeval/internal/eval"
)

const keyPrefix = "eval/"

// EvalCache stores split evaluation vectors in BadgerDB, keyed by engine name
// and position command.
type EvalCache struct {
	db     *badger.DB
	hits   atomic.Uint64
	misses atomic.Uint64
}

// Open opens (or creates) the cache in dir. An empty dir selects GetCacheDir.
func Open(dir string) (*EvalCache, error) {
	if dir == "" {
		var err error
		if dir, err = GetCacheDir(); err != nil {
			return nil, fmt.Errorf("storage: %w", err)
		}
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", dir, err)
	}
	return &EvalCache{db: db}, nil
}

// Close closes the database.
func (c *EvalCache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Get returns the cached vector for key.
func (c *EvalCache) Get(key string) (eval.Vector, bool, error) {
	var v eval.Vector
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &v)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		c.misses.Add(1)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage: get: %w", err)
	}
	c.hits.Add(1)
	return v, true, nil
}

// Put stores v under key, replacing any previous value.
func (c *EvalCache) Put(key string, v eval.Vector) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+key), data)
	})
}

// Len returns the number of cached evaluations.
func (c *EvalCache) Len() (int, error) {
	n := 0
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// HitRate returns the cache hit rate as a percentage.
func (c *EvalCache) HitRate() float64 {
	hits, misses := c.hits.Load(), c.misses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}
