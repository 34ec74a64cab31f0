package ticktock

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/byte4ever/ticktock/internal/logfields"
)

// CountdownPhase is the state of a [Countdown].
type CountdownPhase uint32

// Countdown phases.
const (
	CountdownIdle CountdownPhase = iota
	CountdownRunning
	CountdownPaused
	CountdownFired
)

// countdownSource is the ring source reported to the notifier.
const countdownSource = "Timer"

// String returns the phase as a lower-case word.
func (p CountdownPhase) String() string {
	switch p {
	case CountdownRunning:
		return "running"
	case CountdownPaused:
		return "paused"
	case CountdownFired:
		return "fired"
	default:
		return "idle"
	}
}

type (
	// CountdownState is a point-in-time copy of the countdown.
	CountdownState struct {
		Phase     CountdownPhase
		Remaining int
	}

	// Countdown counts a duration down in whole seconds and rings when it
	// reaches zero.
	//
	// Idle --Start--> Running --PauseOrResume--> Paused --PauseOrResume-->
	// Running --reaches 0--> Fired --Reset--> Idle. Start and Reset are
	// accepted in every phase.
	Countdown struct {
		ticks    TickSource
		notifier Notifier
		hooks    *Hooks
		logger   *slog.Logger
		interval time.Duration

		mu        sync.Mutex
		phase     CountdownPhase
		remaining int
		sub       Subscription
		gen       uint64
	}
)

// NewCountdown creates an idle countdown that ticks on ticks and rings
// notifier when it fires.
func NewCountdown(ticks TickSource, notifier Notifier, opts ...Option) *Countdown {
	cfg := buildSettings(opts)

	if notifier == nil {
		notifier = NopNotifier{}
	}

	return &Countdown{
		ticks:    ticks,
		notifier: notifier,
		hooks:    cfg.hooks,
		logger:   cfg.logger,
		interval: cfg.countdownInterval,
	}
}

// ParseCountdownInput converts the minutes and seconds fields of a timer
// form. An empty field counts as zero; anything else must be a
// non-negative integer.
func ParseCountdownInput(minutes, seconds string) (int, error) {
	m, err := parseCountdownField("minutes", minutes)
	if err != nil {
		return 0, err
	}

	s, err := parseCountdownField("seconds", seconds)
	if err != nil {
		return 0, err
	}

	return m*60 + s, nil
}

func parseCountdownField(name, value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a number", ErrInvalidInput, name, value)
	}

	if n < 0 {
		return 0, fmt.Errorf("%w: %s %d is negative", ErrInvalidInput, name, n)
	}

	return n, nil
}

// Start parses the form fields and starts counting down from
// minutes*60+seconds. Invalid input returns an [ErrInvalidInput] error and
// leaves the countdown untouched. A countdown already in progress is
// replaced.
func (c *Countdown) Start(minutes, seconds string) error {
	total, err := ParseCountdownInput(minutes, seconds)
	if err != nil {
		return err
	}

	return c.startSeconds(total)
}

// StartFor starts counting down d, truncated to whole seconds.
func (c *Countdown) StartFor(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%w: duration %v is negative", ErrInvalidInput, d)
	}

	return c.startSeconds(int(d / time.Second))
}

func (c *Countdown) startSeconds(total int) error {
	c.mu.Lock()
	c.cancelLocked()
	c.remaining = total

	if err := c.subscribeLocked(); err != nil {
		c.phase = CountdownIdle
		c.mu.Unlock()

		return err
	}

	c.phase = CountdownRunning
	c.mu.Unlock()

	c.logger.Debug("countdown started", logfields.Remaining(total))
	c.hooks.emitRender(ComponentCountdown)

	return nil
}

// PauseOrResume pauses a running countdown or resumes a paused one. Resuming
// continues from the current remaining value; a countdown with nothing left
// does not resume. In every other phase it is a no-op.
func (c *Countdown) PauseOrResume() error {
	c.mu.Lock()

	switch c.phase {
	case CountdownRunning:
		c.cancelLocked()
		c.phase = CountdownPaused

	case CountdownPaused:
		if c.remaining <= 0 {
			c.mu.Unlock()
			return nil
		}

		if err := c.subscribeLocked(); err != nil {
			c.mu.Unlock()
			return err
		}

		c.phase = CountdownRunning

	default:
		c.mu.Unlock()
		return nil
	}

	c.mu.Unlock()
	c.hooks.emitRender(ComponentCountdown)

	return nil
}

// Reset stops ticking and returns to idle with nothing remaining.
func (c *Countdown) Reset() {
	c.mu.Lock()
	c.cancelLocked()
	c.remaining = 0
	c.phase = CountdownIdle
	c.mu.Unlock()

	c.hooks.emitRender(ComponentCountdown)
}

// Remaining returns the seconds left.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.remaining
}

// Phase returns the current phase.
func (c *Countdown) Phase() CountdownPhase {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.phase
}

// State returns a copy of the countdown state.
func (c *Countdown) State() CountdownState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CountdownState{Phase: c.phase, Remaining: c.remaining}
}

// tick removes one second. The tick that reaches zero fires; a countdown
// started at zero fires on its first tick.
func (c *Countdown) tick(ctx context.Context, gen uint64) {
	c.mu.Lock()
	if c.gen != gen || c.phase != CountdownRunning {
		// A tick dispatched just before a pause, reset or restart.
		c.mu.Unlock()
		return
	}

	if c.remaining > 0 {
		c.remaining--
	}

	remaining := c.remaining
	fired := remaining <= 0

	if fired {
		c.cancelLocked()
		c.phase = CountdownFired
	}
	c.mu.Unlock()

	c.hooks.emitCountdownTick(remaining)
	c.hooks.emitRender(ComponentCountdown)

	if fired {
		c.logger.Info("countdown finished")
		ring(ctx, c.notifier, c.logger, countdownSource)
		c.hooks.emitCountdownFired()
	}
}

func (c *Countdown) subscribeLocked() error {
	if c.ticks == nil {
		return fmt.Errorf("%w: countdown has no tick source", ErrInvalidInput)
	}

	c.gen++
	gen := c.gen

	sub, err := c.ticks.Every(
		"countdown.tick",
		c.interval,
		func(ctx context.Context, _ time.Time) { c.tick(ctx, gen) },
	)
	if err != nil {
		return fmt.Errorf("countdown tick: %w", err)
	}

	c.sub = sub

	return nil
}

func (c *Countdown) cancelLocked() {
	c.gen++

	if c.sub != nil {
		c.sub.Cancel()
		c.sub = nil
	}
}
