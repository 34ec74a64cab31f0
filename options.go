package ticktock

import (
	"log/slog"
	"time"
)

// Default periodic intervals.
const (
	// DefaultWorldClockRefresh is how often world clock readings are redrawn.
	DefaultWorldClockRefresh = time.Second
	// DefaultStopwatchRefresh is the stopwatch redraw cadence while running
	// (about 30 frames per second).
	DefaultStopwatchRefresh = 33 * time.Millisecond
	// DefaultAlarmInterval is how often alarms are matched against the clock.
	DefaultAlarmInterval = time.Second
	// DefaultCountdownInterval is the countdown tick; one tick removes one
	// second from the remaining time.
	DefaultCountdownInterval = time.Second
	// DefaultLocationTTL is how long a resolved time zone stays cached.
	DefaultLocationTTL = time.Hour
)

type (
	// Option configures a suite component or a whole [Suite].
	//
	// Pattern: Functional Options; components share one option type so a
	// single option list can configure the suite and each of its parts.
	Option func(*settings)

	settings struct {
		clock             Clock
		logger            *slog.Logger
		hooks             *Hooks
		locations         Cache[string, *time.Location]
		locationTTL       time.Duration
		worldRefresh      time.Duration
		stopwatchRefresh  time.Duration
		alarmInterval     time.Duration
		countdownInterval time.Duration
	}
)

func defaultSettings() settings {
	return settings{
		clock:             RealClock{},
		hooks:             &Hooks{},
		locationTTL:       DefaultLocationTTL,
		worldRefresh:      DefaultWorldClockRefresh,
		stopwatchRefresh:  DefaultStopwatchRefresh,
		alarmInterval:     DefaultAlarmInterval,
		countdownInterval: DefaultCountdownInterval,
	}
}

func buildSettings(opts []Option) settings {
	cfg := defaultSettings()
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	return cfg
}

// WithClock sets the clock every component reads time from.
func WithClock(c Clock) Option {
	return func(s *settings) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the structured logger. Defaults to [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

// WithHooks sets the lifecycle callbacks, including the render collaborator.
func WithHooks(h *Hooks) Option {
	return func(s *settings) {
		if h != nil {
			s.hooks = h
		}
	}
}

// WithLocationCache caches resolved time zones for the world clock. ttl
// defaults to [DefaultLocationTTL] when non-positive.
func WithLocationCache(c Cache[string, *time.Location], ttl time.Duration) Option {
	return func(s *settings) {
		s.locations = c
		if ttl > 0 {
			s.locationTTL = ttl
		}
	}
}

// WithWorldClockRefresh sets the world clock redraw interval.
func WithWorldClockRefresh(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.worldRefresh = d
		}
	}
}

// WithStopwatchRefresh sets the stopwatch redraw interval while running.
func WithStopwatchRefresh(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.stopwatchRefresh = d
		}
	}
}

// WithAlarmInterval sets how often alarms are matched.
func WithAlarmInterval(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.alarmInterval = d
		}
	}
}

// WithCountdownInterval sets the countdown tick period. Each tick still
// counts down exactly one second; shorter periods only make sense for demos.
func WithCountdownInterval(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.countdownInterval = d
		}
	}
}
