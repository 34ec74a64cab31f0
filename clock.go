package ticktock

import (
	"fmt"
	"strconv"
	"time"
)

// Clock abstracts time operations so that the suite's state machines can be
// tested deterministically. Production code uses [RealClock]; tests
// substitute a [FakeClock] to control the passage of time.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// Since returns the duration elapsed since t.
	Since(t time.Time) time.Duration
	// NewTimer creates a new [Timer] that will fire after duration d.
	NewTimer(d time.Duration) Timer
}

// Timer abstracts [time.Timer] so that fake clocks can provide controllable
// timers for deterministic testing of the tick scheduler.
type Timer interface {
	// C returns the channel on which the timer's firing time is delivered.
	C() <-chan time.Time
	// Stop prevents the timer from firing and reports whether it was stopped
	// before it fired.
	Stop() bool
	// Reset changes the timer to fire after duration d and reports whether the
	// timer had been active before the reset.
	Reset(d time.Duration) bool
}

// RealClock is a zero-value [Clock] backed by the real [time] package.
// It is safe for concurrent use because it holds no mutable state.
type RealClock struct{}

// Now returns the current wall-clock time via [time.Now].
func (RealClock) Now() time.Time { return time.Now() }

// Since returns the time elapsed since t via [time.Since].
func (RealClock) Since(t time.Time) time.Duration { return time.Since(t) }

// NewTimer creates a real [Timer] that fires after d via [time.NewTimer].
func (RealClock) NewTimer(d time.Duration) Timer {
	return &realTimer{inner: time.NewTimer(d)}
}

// realTimer wraps [time.Timer] to satisfy the [Timer] interface.
type realTimer struct {
	inner *time.Timer
}

func (t *realTimer) C() <-chan time.Time        { return t.inner.C }
func (t *realTimer) Stop() bool                 { return t.inner.Stop() }
func (t *realTimer) Reset(d time.Duration) bool { return t.inner.Reset(d) }

// ClockTime is a wall-clock time of day with minute resolution, written
// "HH:MM" in 24-hour notation. Alarms and bedtimes are stored this way.
type ClockTime struct {
	Hour   int
	Minute int
}

// ParseClockTime parses a strict "HH:MM" string (00-23 hours, 00-59 minutes).
func ParseClockTime(s string) (ClockTime, error) {
	if len(s) != 5 || s[2] != ':' || !isDigits(s[:2]) || !isDigits(s[3:]) {
		return ClockTime{}, fmt.Errorf("%w: time %q is not HH:MM", ErrInvalidInput, s)
	}

	hour, errH := strconv.Atoi(s[:2])
	minute, errM := strconv.Atoi(s[3:])

	if errH != nil || errM != nil ||
		hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return ClockTime{}, fmt.Errorf("%w: time %q is not HH:MM", ErrInvalidInput, s)
	}

	return ClockTime{Hour: hour, Minute: minute}, nil
}

func isDigits(s string) bool {
	for i := range len(s) {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

// ClockTimeOf returns the time of day of t in t's location.
func ClockTimeOf(t time.Time) ClockTime {
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}
}

// String formats the time of day as "HH:MM".
func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// On returns the instant at this time of day on day's calendar date, in
// day's location.
func (c ClockTime) On(day time.Time) time.Time {
	return time.Date(
		day.Year(), day.Month(), day.Day(),
		c.Hour, c.Minute, 0, 0,
		day.Location(),
	)
}

// NextAfter returns the first instant at this time of day strictly after t:
// today if it is still ahead, otherwise tomorrow.
func (c ClockTime) NextAfter(t time.Time) time.Time {
	next := c.On(t)
	if !next.After(t) {
		next = c.On(time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, t.Location()))
	}

	return next
}
