package ticktock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/byte4ever/ticktock/internal/logfields"
)

// Persisted keys. Values are JSON documents.
const (
	// KeyWorldCities holds an array of IANA time zone identifiers.
	KeyWorldCities = "worldCities"
	// KeyAlarms holds an array of alarm objects.
	KeyAlarms = "alarms"
	// KeyBedtime holds a {sleep, wake} object; the key is absent when no
	// bedtime is set.
	KeyBedtime = "bedtime"
)

// Store is the key-value persistence adapter. Values are opaque JSON bytes;
// a missing key is reported as ok == false with a nil error.
type Store interface {
	// Get returns the value stored under key.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// MemoryStore is an in-process [Store]. The zero value is ready to use.
type MemoryStore struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns a copy of the value stored under key.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}

	return append([]byte(nil), v...), true, nil
}

// Set stores a copy of value under key.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data == nil {
		m.data = make(map[string][]byte)
	}

	m.data[key] = append([]byte(nil), value...)

	return nil
}

// Remove deletes key.
func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)

	return nil
}

// Keys returns the number of stored keys.
func (m *MemoryStore) Keys() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.data)
}

// loadValue decodes the JSON value under key into a T. Missing keys, read
// failures and malformed JSON all yield the zero T and false; failures are
// logged and reported to hooks rather than returned, so a damaged store
// never prevents a component from starting.
func loadValue[T any](
	ctx context.Context,
	store Store,
	key string,
	logger *slog.Logger,
	hooks *Hooks,
) (T, bool) {
	v, ok, err := readValue[T](ctx, store, key)
	if err != nil {
		logger.Warn("read persisted value, using default",
			logfields.StoreKey(key), logfields.Error(err))
		hooks.emitStoreError(key, err)

		var zero T

		return zero, false
	}

	return v, ok
}

// readValue decodes the JSON value under key into a T. A missing key yields
// the zero T, false and no error.
func readValue[T any](ctx context.Context, store Store, key string) (T, bool, error) {
	var v T

	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return v, false, fmt.Errorf("read %s: %w", key, err)
	}

	if !ok {
		return v, false, nil
	}

	if err = json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero, false, fmt.Errorf("decode %s: %w", key, err)
	}

	return v, true, nil
}

// saveValue encodes v as JSON and stores it under key.
func saveValue(ctx context.Context, store Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	if err = store.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}

	return nil
}

// removeValue deletes key from the store.
func removeValue(ctx context.Context, store Store, key string) error {
	if err := store.Remove(ctx, key); err != nil {
		return fmt.Errorf("remove %s: %w", key, err)
	}

	return nil
}
