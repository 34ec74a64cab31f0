package ticktock

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Scheduler backends accepted by [Config].
const (
	SchedulerBuiltin = "builtin"
	SchedulerGocron  = "gocron"
)

// Location cache adapters accepted by [LocationCacheConfig].
const (
	CacheAdapterNone      = "none"
	CacheAdapterOtter     = "otter"
	CacheAdapterRistretto = "ristretto"
)

const (
	defaultCacheAdapter = CacheAdapterOtter
	defaultCacheSize    = 64
)

type (
	// Config holds the decoded suite configuration. Every field is optional;
	// unset fields keep the library defaults. Embed it in your own app
	// config for JSON or YAML unmarshaling, then call [BuildOptions] to
	// obtain functional options for [NewSuite].
	Config struct {
		// Store selects the persistence backend.
		// Optional. Example: {"path": "ticktock.db"}.
		Store *StoreConfig `json:"store,omitempty" yaml:"store,omitempty"`
		// Intervals overrides the periodic work cadences.
		// Optional. Example: {"alarm": "500ms"}.
		Intervals *IntervalsConfig `json:"intervals,omitempty" yaml:"intervals,omitempty"`
		// LocationCache configures the world clock time zone cache.
		// Optional. Example: {"adapter": "ristretto", "ttl": "30m"}.
		LocationCache *LocationCacheConfig `json:"location_cache,omitempty" yaml:"location_cache,omitempty"`
		// Scheduler names the tick source.
		// Optional. One of: "builtin", "gocron". Default "builtin".
		Scheduler *string `json:"scheduler,omitempty" yaml:"scheduler,omitempty"`
		// HTTP configures the status and metrics server.
		// Optional. Example: {"addr": ":8080"}.
		HTTP *HTTPConfig `json:"http,omitempty" yaml:"http,omitempty"`
	}

	// StoreConfig holds persistence settings.
	StoreConfig struct {
		// Path is the store location. A ".db" suffix selects SQLite,
		// ":memory:" keeps state in process, anything else is a JSON file.
		// Required when StoreConfig is set. Example: "~/.ticktock.json".
		Path *string `json:"path,omitempty" yaml:"path,omitempty"`
	}

	// IntervalsConfig holds the periodic cadences. Each value is parsed
	// via time.ParseDuration and must be positive.
	IntervalsConfig struct {
		// WorldRefresh is the world clock redraw interval. Example: "1s".
		WorldRefresh *string `json:"world_refresh,omitempty" yaml:"world_refresh,omitempty"`
		// StopwatchRefresh is the stopwatch redraw interval. Example: "33ms".
		StopwatchRefresh *string `json:"stopwatch_refresh,omitempty" yaml:"stopwatch_refresh,omitempty"`
		// Alarm is the alarm matching interval. Example: "1s".
		Alarm *string `json:"alarm,omitempty" yaml:"alarm,omitempty"`
		// Countdown is the countdown tick interval. Example: "1s".
		Countdown *string `json:"countdown,omitempty" yaml:"countdown,omitempty"`
	}

	// LocationCacheConfig holds time zone cache settings.
	LocationCacheConfig struct {
		// Adapter names the cache library.
		// Optional. One of: "otter", "ristretto", "none". Default "otter".
		Adapter *string `json:"adapter,omitempty" yaml:"adapter,omitempty"`
		// TTL is how long a resolved zone stays cached.
		// Optional. Parsed via time.ParseDuration. Example: "1h".
		TTL *string `json:"ttl,omitempty" yaml:"ttl,omitempty"`
		// MaxSize bounds the number of cached zones.
		// Optional. Example: 64.
		MaxSize *int `json:"max_size,omitempty" yaml:"max_size,omitempty"`
	}

	// HTTPConfig holds the status server settings.
	HTTPConfig struct {
		// Addr is the listen address. Example: "127.0.0.1:8080".
		Addr *string `json:"addr,omitempty" yaml:"addr,omitempty"`
	}
)

// LoadConfig reads a configuration file. Files ending in ".yaml" or ".yml"
// are decoded as YAML, everything else as JSON. The configuration is
// validated eagerly so errors surface at load time.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ticktock: read config: %w", err)
	}

	var cfg Config

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}

	if err != nil {
		return nil, fmt.Errorf("ticktock: parse config: %w", err)
	}

	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("ticktock: %w", err)
	}

	return &cfg, nil
}

// Validate checks every set field.
func (c *Config) Validate() error {
	if _, err := BuildOptions(c); err != nil {
		return err
	}

	if _, err := c.CacheConfig(); err != nil {
		return err
	}

	if c.Store != nil && (c.Store.Path == nil || *c.Store.Path == "") {
		return fmt.Errorf("store.path: %w: required", ErrInvalidInput)
	}

	switch c.SchedulerName() {
	case SchedulerBuiltin, SchedulerGocron:
	default:
		return fmt.Errorf("scheduler: %w: unknown scheduler %q", ErrInvalidInput, *c.Scheduler)
	}

	return nil
}

// BuildOptions converts the interval settings of a [Config] into functional
// options for [NewSuite] and its components. A nil config yields no
// options.
func BuildOptions(c *Config) ([]Option, error) {
	if c == nil || c.Intervals == nil {
		return nil, nil
	}

	var opts []Option

	fields := []struct {
		name  string
		value *string
		apply func(time.Duration) Option
	}{
		{"intervals.world_refresh", c.Intervals.WorldRefresh, WithWorldClockRefresh},
		{"intervals.stopwatch_refresh", c.Intervals.StopwatchRefresh, WithStopwatchRefresh},
		{"intervals.alarm", c.Intervals.Alarm, WithAlarmInterval},
		{"intervals.countdown", c.Intervals.Countdown, WithCountdownInterval},
	}

	for _, f := range fields {
		if f.value == nil {
			continue
		}

		d, err := parsePositiveDuration(*f.value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.name, err)
		}

		opts = append(opts, f.apply(d))
	}

	return opts, nil
}

// CacheConfig returns the location cache settings with defaults applied.
// Adapter "none" means no cache.
func (c *Config) CacheConfig() (CacheConfig, error) {
	out := CacheConfig{
		Adapter: defaultCacheAdapter,
		TTL:     DefaultLocationTTL,
		MaxSize: defaultCacheSize,
	}

	if c == nil || c.LocationCache == nil {
		return out, nil
	}

	lc := c.LocationCache

	if lc.Adapter != nil {
		switch a := strings.ToLower(*lc.Adapter); a {
		case CacheAdapterNone, CacheAdapterOtter, CacheAdapterRistretto:
			out.Adapter = a
		default:
			return CacheConfig{}, fmt.Errorf(
				"location_cache.adapter: %w: unknown adapter %q",
				ErrInvalidInput, *lc.Adapter,
			)
		}
	}

	if lc.TTL != nil {
		d, err := parsePositiveDuration(*lc.TTL)
		if err != nil {
			return CacheConfig{}, fmt.Errorf("location_cache.ttl: %w", err)
		}

		out.TTL = d
	}

	if lc.MaxSize != nil {
		if *lc.MaxSize <= 0 {
			return CacheConfig{}, fmt.Errorf(
				"location_cache.max_size: %w: %d must be positive",
				ErrInvalidInput, *lc.MaxSize,
			)
		}

		out.MaxSize = *lc.MaxSize
	}

	return out, nil
}

// SchedulerName returns the configured scheduler, "builtin" when unset.
func (c *Config) SchedulerName() string {
	if c == nil || c.Scheduler == nil || *c.Scheduler == "" {
		return SchedulerBuiltin
	}

	return strings.ToLower(*c.Scheduler)
}

// StorePath returns the configured store path, or "" when unset.
func (c *Config) StorePath() string {
	if c == nil || c.Store == nil || c.Store.Path == nil {
		return ""
	}

	return *c.Store.Path
}

// HTTPAddr returns the configured status server address, or "" when unset.
func (c *Config) HTTPAddr() string {
	if c == nil || c.HTTP == nil || c.HTTP.Addr == nil {
		return ""
	}

	return *c.HTTP.Addr
}

func parsePositiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if d <= 0 {
		return 0, fmt.Errorf("%w: duration %v must be positive", ErrInvalidInput, d)
	}

	return d, nil
}
