// Package otter backs a ticktock.Cache with the Otter cache library. The
// world clock uses it to keep resolved time zones between redraws.
package otter

import (
	"errors"
	"fmt"
	"time"

	"github.com/maypok86/otter"

	"github.com/byte4ever/ticktock"
)

var errCapacity = errors.New("ticktock/otter: max size must be positive")

// cache wraps an otter.CacheWithVariableTTL to implement ticktock.Cache.
type cache[K comparable, V any] struct {
	entries otter.CacheWithVariableTTL[K, V]
}

// New creates a ticktock.Cache backed by an Otter cache with per-entry TTL
// support. MaxSize from [ticktock.CacheConfig] bounds the cache.
//
//nolint:ireturn // generic adapter returned through its interface
func New[K comparable, V any](cfg ticktock.CacheConfig) (ticktock.Cache[K, V], error) {
	if cfg.MaxSize <= 0 {
		return nil, errCapacity
	}

	entries, err := otter.MustBuilder[K, V](cfg.MaxSize).
		WithVariableTTL().
		Build()
	if err != nil {
		return nil, fmt.Errorf("ticktock/otter: build cache: %w", err)
	}

	return &cache[K, V]{entries: entries}, nil
}

// MustNew is like [New] but panics on error.
//
//nolint:ireturn // generic adapter returned through its interface
func MustNew[K comparable, V any](cfg ticktock.CacheConfig) ticktock.Cache[K, V] {
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
	c.entries.Set(key, value, ttl)
}

func (c *cache[K, V]) Delete(key K) {
	c.entries.Delete(key)
}
