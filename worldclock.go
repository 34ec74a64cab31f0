package ticktock

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/byte4ever/ticktock/internal/logfields"
)

type (
	// Zone is a selectable world clock entry.
	Zone struct {
		Label string `json:"label"`
		TZ    string `json:"tz"`
	}

	// CityReading is the current wall time of one world clock city.
	CityReading struct {
		Zone string `json:"zone"`
		City string `json:"city"`
		Time string `json:"time"`
	}

	// WorldClock is the persisted list of time zones shown side by side.
	// Insertion order is kept and duplicates are rejected.
	WorldClock struct {
		store       Store
		hooks       *Hooks
		logger      *slog.Logger
		locations   Cache[string, *time.Location]
		locationTTL time.Duration

		mu     sync.Mutex
		cities []string
	}
)

// Zones returns the built-in catalogue of selectable zones.
func Zones() []Zone {
	return []Zone{
		{Label: "London", TZ: "Europe/London"},
		{Label: "New York", TZ: "America/New_York"},
		{Label: "Tokyo", TZ: "Asia/Tokyo"},
		{Label: "Dubai", TZ: "Asia/Dubai"},
		{Label: "Karachi", TZ: "Asia/Karachi"},
		{Label: "Sydney", TZ: "Australia/Sydney"},
		{Label: "Los Angeles", TZ: "America/Los_Angeles"},
		{Label: "Berlin", TZ: "Europe/Berlin"},
	}
}

// CityName derives a display name from a zone identifier: its last path
// segment with underscores as spaces ("America/New_York" -> "New York").
func CityName(zone string) string {
	if i := strings.LastIndexByte(zone, '/'); i >= 0 {
		zone = zone[i+1:]
	}

	return strings.ReplaceAll(zone, "_", " ")
}

// NewWorldClock loads the city list from store.
func NewWorldClock(ctx context.Context, store Store, opts ...Option) *WorldClock {
	cfg := buildSettings(opts)

	cities, _ := loadValue[[]string](ctx, store, KeyWorldCities, cfg.logger, cfg.hooks)

	return &WorldClock{
		store:       store,
		hooks:       cfg.hooks,
		logger:      cfg.logger,
		locations:   cfg.locations,
		locationTTL: cfg.locationTTL,
		cities:      cities,
	}
}

// Reload replaces the in-memory city list with the stored one. A read or
// decode failure keeps the current list and is returned.
func (w *WorldClock) Reload(ctx context.Context) error {
	cities, _, err := readValue[[]string](ctx, w.store, KeyWorldCities)
	if err != nil {
		w.logger.Warn("reload world cities, keeping current list", logfields.Error(err))
		w.hooks.emitStoreError(KeyWorldCities, err)

		return err
	}

	w.mu.Lock()
	changed := !slices.Equal(w.cities, cities)
	if changed {
		w.cities = cities
	}
	w.mu.Unlock()

	if changed {
		w.hooks.emitRender(ComponentWorldClock)
	}

	return nil
}

// Add appends zone and persists the list. A zone already listed is ignored
// and reports false. An unknown zone returns an [ErrInvalidInput] error.
func (w *WorldClock) Add(ctx context.Context, zone string) (bool, error) {
	zone = strings.TrimSpace(zone)
	if _, err := w.location(zone); err != nil {
		return false, fmt.Errorf("add city: %w", err)
	}

	w.mu.Lock()
	if slices.Contains(w.cities, zone) {
		w.mu.Unlock()
		return false, nil
	}

	w.cities = append(w.cities, zone)
	err := w.persistLocked(ctx)
	w.mu.Unlock()

	w.hooks.emitCityAdded(zone)
	w.hooks.emitRender(ComponentWorldClock)

	return true, err
}

// Remove deletes the city at index and persists the list.
func (w *WorldClock) Remove(ctx context.Context, index int) error {
	w.mu.Lock()
	if index < 0 || index >= len(w.cities) {
		n := len(w.cities)
		w.mu.Unlock()

		return fmt.Errorf("remove city %d of %d: %w", index, n, ErrIndexOutOfRange)
	}

	zone := w.cities[index]
	w.cities = slices.Delete(w.cities, index, index+1)
	err := w.persistLocked(ctx)
	w.mu.Unlock()

	w.evict(zone)

	w.hooks.emitCityRemoved(zone)
	w.hooks.emitRender(ComponentWorldClock)

	return err
}

// Clear empties the list and removes it from the store.
func (w *WorldClock) Clear(ctx context.Context) error {
	w.mu.Lock()
	cleared := w.cities
	w.cities = nil
	err := removeValue(ctx, w.store, KeyWorldCities)
	w.mu.Unlock()

	for _, zone := range cleared {
		w.evict(zone)
	}

	if err != nil {
		w.storeFailed(err)
	}

	w.hooks.emitRender(ComponentWorldClock)

	return err
}

// List returns the zones in insertion order.
func (w *WorldClock) List() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return append([]string(nil), w.cities...)
}

// Readings returns the wall time of every listed city at now, formatted
// "15:04:05". Cities whose zone can no longer be resolved are skipped.
func (w *WorldClock) Readings(now time.Time) []CityReading {
	cities := w.List()
	readings := make([]CityReading, 0, len(cities))

	for _, zone := range cities {
		loc, err := w.location(zone)
		if err != nil {
			w.logger.Warn("skipping unresolvable zone",
				logfields.Zone(zone), logfields.Error(err))

			continue
		}

		readings = append(readings, CityReading{
			Zone: zone,
			City: CityName(zone),
			Time: now.In(loc).Format(time.TimeOnly),
		})
	}

	return readings
}

// location resolves zone through the location cache.
func (w *WorldClock) location(zone string) (*time.Location, error) {
	if zone == "" {
		return nil, fmt.Errorf("%w: empty time zone", ErrInvalidInput)
	}

	if w.locations != nil {
		if loc, ok := w.locations.Get(zone); ok {
			return loc, nil
		}
	}

	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown time zone %q", ErrInvalidInput, zone)
	}

	if w.locations != nil {
		w.locations.Set(zone, loc, w.locationTTL)
	}

	return loc, nil
}

// evict drops zone from the location cache.
func (w *WorldClock) evict(zone string) {
	if w.locations != nil {
		w.locations.Delete(zone)
	}
}

func (w *WorldClock) persistLocked(ctx context.Context) error {
	cities := w.cities
	if cities == nil {
		cities = []string{}
	}

	if err := saveValue(ctx, w.store, KeyWorldCities, cities); err != nil {
		w.storeFailed(err)
		return err
	}

	return nil
}

func (w *WorldClock) storeFailed(err error) {
	w.logger.Warn("persist world cities", logfields.Error(err))
	w.hooks.emitStoreError(KeyWorldCities, err)
}
