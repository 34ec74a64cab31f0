package ticktock

import "time"

type (
	// Cache is the interface that cache adapters must implement. The world
	// clock uses it to keep resolved [time.Location] values between redraws.
	// TTL is passed per Set call; the underlying cache library handles
	// expiration.
	Cache[K comparable, V any] interface {
		// Get retrieves a cached value by key. Returns the value and true if
		// found.
		Get(key K) (V, bool)
		// Set stores a value with the given TTL.
		Set(key K, value V, ttl time.Duration)
		// Delete removes a cached entry by key. The world clock evicts zones
		// it no longer lists.
		Delete(key K)
	}

	// CacheConfig holds configuration for a cache instance.
	CacheConfig struct {
		// Adapter names the cache library: "otter", "ristretto" or "none".
		Adapter string
		// TTL is the time-to-live for cached entries.
		TTL time.Duration
		// MaxSize is the maximum number of entries the cache can hold.
		MaxSize int
	}
)
