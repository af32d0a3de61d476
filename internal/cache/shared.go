// Package cache implements the two-tier embedding cache: an in-process LRU
// in front of an optional shared TTL-bound tier. The shared tier is strictly
// best-effort; its failures never surface to callers.
package cache

import "context"

// SharedCache is the optional cross-process cache tier.
type SharedCache interface {
	// Get returns the cached vector for key, or ok=false on miss.
	Get(ctx context.Context, key string) (vec []float32, ok bool, err error)

	// Set stores the vector under key with the tier's TTL.
	Set(ctx context.Context, key string, vec []float32) error

	// Delete removes the entry for key. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error

	// Keys lists the stored keys starting with prefix. An empty prefix
	// lists everything.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases cache resources.
	Close() error
}

// NoopSharedCache is the shared tier used when none is configured.
// Every lookup misses and every write is dropped.
type NoopSharedCache struct{}

var _ SharedCache = (*NoopSharedCache)(nil)

func (NoopSharedCache) Get(context.Context, string) ([]float32, bool, error) { return nil, false, nil }
func (NoopSharedCache) Set(context.Context, string, []float32) error         { return nil }
func (NoopSharedCache) Delete(context.Context, string) error                 { return nil }
func (NoopSharedCache) Keys(context.Context, string) ([]string, error)       { return nil, nil }
func (NoopSharedCache) Close() error                                         { return nil }
