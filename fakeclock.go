package ticktock

import (
	"sort"
	"sync"
	"time"
)

// FakeClock is a deterministic [Clock] for tests and simulations. Time stands
// still until [FakeClock.Advance] or [FakeClock.Set] moves it; timers created
// with NewTimer fire when the clock passes their deadline.
//
// FakeClock is safe for concurrent use by multiple goroutines.
type FakeClock struct {
	mu            sync.Mutex
	current       time.Time
	timers        []*fakeTimer
	timersChanged *sync.Cond
}

// fakeTimer is a pending one-shot timer registered with a FakeClock.
type fakeTimer struct {
	clock    *FakeClock
	deadline time.Time
	ch       chan time.Time
	active   bool
}

// NewFakeClock returns a FakeClock initialised to the given time.
func NewFakeClock(initial time.Time) *FakeClock {
	c := &FakeClock{current: initial}
	c.timersChanged = sync.NewCond(&c.mu)

	return c
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.current
}

// Since returns the fake time elapsed since t.
func (c *FakeClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// NewTimer registers a timer that fires once the clock has been advanced by
// at least d. A non-positive d fires immediately.
func (c *FakeClock) NewTimer(d time.Duration) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &fakeTimer{
		clock: c,
		ch:    make(chan time.Time, 1),
	}

	if d <= 0 {
		t.ch <- c.current
		return t
	}

	t.deadline = c.current.Add(d)
	t.active = true
	c.timers = append(c.timers, t)
	c.timersChanged.Broadcast()

	return t
}

// Advance moves the clock forward by d and fires every timer whose deadline
// falls within the new time, in deadline order. Sends are non-blocking; each
// timer channel has capacity one.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.fireExpiredLocked()
	c.mu.Unlock()
}

// Set jumps the clock to t. Moving backwards never fires timers.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.fireExpiredLocked()
	c.mu.Unlock()
}

// WaitForTimers blocks until at least n timers are pending. It removes the
// race between a goroutine registering a timer and a test advancing the
// clock.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for len(c.timers) < n {
		c.timersChanged.Wait()
	}
}

// PendingTimers returns the number of timers that have not fired or been
// stopped.
func (c *FakeClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.timers)
}

func (c *FakeClock) fireExpiredLocked() {
	var due, remaining []*fakeTimer

	for _, t := range c.timers {
		if t.deadline.After(c.current) {
			remaining = append(remaining, t)
		} else {
			due = append(due, t)
		}
	}

	sort.SliceStable(due, func(i, j int) bool {
		return due[i].deadline.Before(due[j].deadline)
	})

	for _, t := range due {
		t.active = false
		select {
		case t.ch <- c.current:
		default:
		}
	}

	c.timers = remaining
}

func (c *FakeClock) removeLocked(target *fakeTimer) {
	for i, t := range c.timers {
		if t == target {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return
		}
	}
}

func (t *fakeTimer) C() <-chan time.Time { return t.ch }

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	wasActive := t.active
	t.active = false
	t.clock.removeLocked(t)

	return wasActive
}

func (t *fakeTimer) Reset(d time.Duration) bool {
	c := t.clock

	c.mu.Lock()
	defer c.mu.Unlock()

	wasActive := t.active
	c.removeLocked(t)

	if d <= 0 {
		t.active = false
		select {
		case t.ch <- c.current:
		default:
		}

		return wasActive
	}

	t.deadline = c.current.Add(d)
	t.active = true
	c.timers = append(c.timers, t)
	c.timersChanged.Broadcast()

	return wasActive
}
