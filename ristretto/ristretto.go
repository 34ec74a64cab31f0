// Package ristretto backs a ticktock.Cache with the Ristretto cache library.
package ristretto

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/byte4ever/ticktock"
)

// Ristretto recommends ten counters per entry and 64 buffer items.
const (
	countersPerEntry = 10
	bufferItems      = 64
)

var errCapacity = errors.New("ticktock/ristretto: max size must be positive")

type (
	// Key is the subset of ristretto.Key types that are also comparable, as
	// ticktock.Cache requires.
	Key interface {
		uint64 | string | byte | int | int32 | uint32 | int64
	}

	cache[K Key, V any] struct {
		entries *ristretto.Cache[K, V]
	}
)

// New creates a ticktock.Cache backed by a Ristretto cache holding at most
// cfg.MaxSize entries. Writes wait for admission, so a value set is
// readable at once.
//
//nolint:ireturn // generic adapter returned through its interface
func New[K Key, V any](cfg ticktock.CacheConfig) (ticktock.Cache[K, V], error) {
	if cfg.MaxSize <= 0 {
		return nil, errCapacity
	}

	// Every entry costs one, so MaxCost counts entries.
	entries, err := ristretto.NewCache(&ristretto.Config[K, V]{
		NumCounters:        int64(cfg.MaxSize) * countersPerEntry,
		MaxCost:            int64(cfg.MaxSize),
		BufferItems:        bufferItems,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("ticktock/ristretto: build cache: %w", err)
	}

	return &cache[K, V]{entries: entries}, nil
}

// MustNew is like [New] but panics on error.
//
//nolint:ireturn // generic adapter returned through its interface
func MustNew[K Key, V any](cfg ticktock.CacheConfig) ticktock.Cache[K, V] {
	c, err := New[K, V](cfg)
	if err != nil {
		panic(err.Error())
	}

	return c
}

// LocationOption builds a time zone cache from cfg and returns the option
// installing it, with cfg.TTL as the entry lifetime.
func LocationOption(cfg ticktock.CacheConfig) (ticktock.Option, error) {
	c, err := New[string, *time.Location](cfg)
	if err != nil {
		return nil, err
	}

	return ticktock.WithLocationCache(c, cfg.TTL), nil
}

//nolint:ireturn // generic type parameter V, not an interface
func (c *cache[K, V]) Get(key K) (V, bool) {
	return c.entries.Get(key)
}

func (c *cache[K, V]) Set(key K, value V, ttl time.Duration) {
	c.entries.SetWithTTL(key, value, 1, ttl)
	c.entries.Wait()
}

func (c *cache[K, V]) Delete(key K) {
	c.entries.Del(key)
}
