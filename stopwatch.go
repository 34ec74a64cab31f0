package ticktock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/byte4ever/ticktock/internal/logfields"
)

type (
	// StopwatchState is a point-in-time copy of the stopwatch.
	StopwatchState struct {
		StartedAt   time.Time
		Laps        []time.Duration
		Accumulated time.Duration
		Elapsed     time.Duration
		Running     bool
	}

	// Stopwatch accumulates running time across start/stop cycles and
	// records lap snapshots, newest first. Elapsed is Accumulated plus the
	// live interval since StartedAt while running.
	//
	// When built with a [TickSource], a running stopwatch subscribes a
	// redraw tick that emits OnRender for [ComponentStopwatch]; stopping or
	// resetting cancels it.
	Stopwatch struct {
		clock   Clock
		hooks   *Hooks
		logger  *slog.Logger
		ticks   TickSource
		refresh time.Duration

		mu          sync.Mutex
		running     bool
		startedAt   time.Time
		accumulated time.Duration
		laps        []time.Duration
		redraw      Subscription
	}
)

// NewStopwatch creates a zeroed stopwatch. ticks may be nil, in which case
// no periodic redraw is emitted.
func NewStopwatch(ticks TickSource, opts ...Option) *Stopwatch {
	cfg := buildSettings(opts)

	return &Stopwatch{
		clock:   cfg.clock,
		hooks:   cfg.hooks,
		logger:  cfg.logger,
		ticks:   ticks,
		refresh: cfg.stopwatchRefresh,
	}
}

// Start begins timing. It is a no-op when already running.
func (sw *Stopwatch) Start() error {
	sw.mu.Lock()
	if sw.running {
		sw.mu.Unlock()
		return nil
	}

	sw.startedAt = sw.clock.Now()
	sw.running = true

	err := sw.subscribeLocked()
	sw.mu.Unlock()

	sw.hooks.emitRender(ComponentStopwatch)

	return err
}

// Stop folds the live interval into the accumulated time. It is a no-op
// when not running.
func (sw *Stopwatch) Stop() {
	sw.mu.Lock()
	if !sw.running {
		sw.mu.Unlock()
		return
	}

	sw.accumulated += sw.clock.Now().Sub(sw.startedAt)
	sw.running = false
	sw.startedAt = time.Time{}
	sw.unsubscribeLocked()
	sw.mu.Unlock()

	sw.hooks.emitRender(ComponentStopwatch)
}

// Toggle starts a stopped stopwatch and stops a running one.
func (sw *Stopwatch) Toggle() error {
	if sw.Running() {
		sw.Stop()
		return nil
	}

	return sw.Start()
}

// Lap records the current elapsed time as the newest lap and returns it.
// Laps are only taken while running; a stopped stopwatch returns
// [ErrNotRunning].
func (sw *Stopwatch) Lap() (time.Duration, error) {
	sw.mu.Lock()
	if !sw.running {
		sw.mu.Unlock()
		return 0, fmt.Errorf("lap: stopwatch %w", ErrNotRunning)
	}

	lap := sw.elapsedLocked()
	sw.laps = append([]time.Duration{lap}, sw.laps...)
	sw.mu.Unlock()

	sw.hooks.emitLap(lap)
	sw.hooks.emitRender(ComponentStopwatch)

	return lap, nil
}

// Reset clears the elapsed time and laps whatever the current state.
func (sw *Stopwatch) Reset() {
	sw.mu.Lock()
	sw.running = false
	sw.startedAt = time.Time{}
	sw.accumulated = 0
	sw.laps = nil
	sw.unsubscribeLocked()
	sw.mu.Unlock()

	sw.hooks.emitRender(ComponentStopwatch)
}

// Elapsed returns the accumulated time plus the live interval. It has no
// side effects.
func (sw *Stopwatch) Elapsed() time.Duration {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	return sw.elapsedLocked()
}

// Running reports whether the stopwatch is timing.
func (sw *Stopwatch) Running() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	return sw.running
}

// Laps returns the recorded laps, newest first.
func (sw *Stopwatch) Laps() []time.Duration {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	return append([]time.Duration(nil), sw.laps...)
}

// State returns a copy of the stopwatch state.
func (sw *Stopwatch) State() StopwatchState {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	return StopwatchState{
		Running:     sw.running,
		StartedAt:   sw.startedAt,
		Accumulated: sw.accumulated,
		Elapsed:     sw.elapsedLocked(),
		Laps:        append([]time.Duration(nil), sw.laps...),
	}
}

func (sw *Stopwatch) elapsedLocked() time.Duration {
	if !sw.running {
		return sw.accumulated
	}

	return sw.accumulated + sw.clock.Now().Sub(sw.startedAt)
}

func (sw *Stopwatch) subscribeLocked() error {
	if sw.ticks == nil || sw.redraw != nil {
		return nil
	}

	sub, err := sw.ticks.Every(
		"stopwatch.redraw",
		sw.refresh,
		func(context.Context, time.Time) {
			if sw.Running() {
				sw.hooks.emitRender(ComponentStopwatch)
			}
		},
	)
	if err != nil {
		sw.logger.Warn("stopwatch redraw unavailable", logfields.Error(err))
		return fmt.Errorf("stopwatch redraw: %w", err)
	}

	sw.redraw = sub

	return nil
}

func (sw *Stopwatch) unsubscribeLocked() {
	if sw.redraw != nil {
		sw.redraw.Cancel()
		sw.redraw = nil
	}
}
