package cache

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/quantmind-br/cargofmt/internal/domain"
)

// BadgerCache is a render cache backed by BadgerDB. Values are stored zstd
// compressed.
type BadgerCache struct {
	db        *badger.DB
	directory string
	stop      chan struct{}
	closeOnce sync.Once
}

// NewBadgerCache creates a new BadgerDB cache
func NewBadgerCache(opts Options) (*BadgerCache, error) {
	var badgerOpts badger.Options

	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Directory == "" {
			opts.Directory = DefaultDirectory()
		}

		if err := os.MkdirAll(opts.Directory, 0755); err != nil {
			return nil, err
		}

		badgerOpts = badger.DefaultOptions(opts.Directory)
	}

	// Disable logging unless explicitly enabled
	if !opts.Logger {
		badgerOpts = badgerOpts.WithLogger(nil)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}

	c := &BadgerCache{db: db, directory: opts.Directory, stop: make(chan struct{})}
	if !opts.InMemory {
		go c.collectGarbage(5 * time.Minute)
	}
	return c, nil
}

func (c *BadgerCache) collectGarbage(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			_ = c.db.RunValueLogGC(0.5)
		}
	}
}

// Get retrieves and decompresses a value
func (c *BadgerCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var raw []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domain.ErrCacheMiss
			}
			return err
		}

		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	return decompress(raw)
}

// Set compresses and stores a value with TTL; a zero TTL never expires
func (c *BadgerCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := compress(value)
	if err != nil {
		return err
	}

	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), data)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

// Has checks if a key exists in cache
func (c *BadgerCache) Has(ctx context.Context, key string) bool {
	err := c.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		return err
	})

	return err == nil
}

// Delete removes a key from cache
func (c *BadgerCache) Delete(ctx context.Context, key string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Close stops background garbage collection and releases cache resources
func (c *BadgerCache) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.stop)
		err = c.db.Close()
	})
	return err
}

// Clear removes all entries from the cache
func (c *BadgerCache) Clear() error {
	return c.db.DropAll()
}

// Size returns the number of entries in the cache
func (c *BadgerCache) Size() int64 {
	var count int64
	_ = c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count
}

// Stats returns cache statistics
func (c *BadgerCache) Stats() domain.CacheStats {
	lsm, vlog := c.db.Size()
	return domain.CacheStats{
		Directory: c.directory,
		Entries:   int(c.Size()),
		SizeBytes: lsm + vlog,
	}
}
