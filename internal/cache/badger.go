package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/replify/kbengine/internal/kberrors"
)

// BadgerSharedCache is a disk-backed shared tier with per-entry TTL.
type BadgerSharedCache struct {
	db  *badger.DB
	ttl time.Duration
}

var _ SharedCache = (*BadgerSharedCache)(nil)

// NewBadgerSharedCache opens (or creates) the cache database at dir.
func NewBadgerSharedCache(dir string, ttl time.Duration) (*BadgerSharedCache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, kberrors.CacheBackend("open shared cache", err)
	}
	return &BadgerSharedCache{db: db, ttl: ttl}, nil
}

// Get implements SharedCache.
func (c *BadgerSharedCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	var vec []float32
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			vec = decodeVector(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, kberrors.CacheBackend("shared cache get", err)
	}
	return vec, true, nil
}

// Set implements SharedCache.
func (c *BadgerSharedCache) Set(_ context.Context, key string, vec []float32) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), encodeVector(vec)).WithTTL(c.ttl)
		return txn.SetEntry(e)
	})
	if err != nil {
		return kberrors.CacheBackend("shared cache set", err)
	}
	return nil
}

// Delete implements SharedCache.
func (c *BadgerSharedCache) Delete(_ context.Context, key string) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return kberrors.CacheBackend("shared cache delete", err)
	}
	return nil
}

// Keys implements SharedCache. Expired entries are skipped by the iterator.
func (c *BadgerSharedCache) Keys(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, kberrors.CacheBackend("shared cache keys", err)
	}
	return keys, nil
}

// Close implements SharedCache.
func (c *BadgerSharedCache) Close() error {
	return c.db.Close()
}

// encodeVector packs a float32 slice little-endian.
func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(data []byte) []float32 {
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec
}
