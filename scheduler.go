package ticktock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/byte4ever/ticktock/internal/logfields"
)

// maxCatchUp bounds how many missed intervals a single subscription replays
// in one Step. Beyond it (for example after the host slept) the
// subscription is realigned to the current time.
const maxCatchUp = 1024

type (
	// TickFunc is invoked for every tick of a subscription. now is the
	// instant the tick was due.
	TickFunc func(ctx context.Context, now time.Time)

	// Subscription is a registered periodic callback.
	Subscription interface {
		// Name returns the name given at registration.
		Name() string
		// Cancel stops further ticks. It is safe to call more than once and
		// from inside the subscription's own callback.
		Cancel()
	}

	// TickSource dispatches named subscriptions at fixed intervals. It is
	// the single scheduling primitive every component subscribes to.
	TickSource interface {
		// Every registers fn to run every interval, first one interval
		// after registration.
		Every(name string, interval time.Duration, fn TickFunc) (Subscription, error)
	}

	// Scheduler is the clock-driven [TickSource]. All callbacks run on the
	// goroutine calling [Scheduler.Step] or [Scheduler.Run], one at a time,
	// so components see a single logical thread.
	//
	// With a [FakeClock], tests advance the clock and call Step to dispatch
	// exactly the ticks that became due.
	Scheduler struct {
		clock  Clock
		logger *slog.Logger
		wake   chan struct{}

		mu   sync.Mutex
		subs []*scheduledTick
		seq  uint64
	}

	scheduledTick struct {
		sched     *Scheduler
		name      string
		interval  time.Duration
		next      time.Time
		seq       uint64
		fn        TickFunc
		cancelled bool
	}
)

// NewScheduler creates a scheduler reading time from the configured clock.
func NewScheduler(opts ...Option) *Scheduler {
	cfg := buildSettings(opts)

	return &Scheduler{
		clock:  cfg.clock,
		logger: cfg.logger,
		wake:   make(chan struct{}, 1),
	}
}

// Every registers fn under name. Interval must be positive.
func (s *Scheduler) Every(
	name string,
	interval time.Duration,
	fn TickFunc,
) (Subscription, error) {
	if interval <= 0 {
		return nil, fmt.Errorf(
			"%w: tick %q interval %v must be positive",
			ErrInvalidInput, name, interval,
		)
	}

	if fn == nil {
		return nil, fmt.Errorf("%w: tick %q has no callback", ErrInvalidInput, name)
	}

	s.mu.Lock()
	s.seq++
	sub := &scheduledTick{
		sched:    s,
		name:     name,
		interval: interval,
		next:     s.clock.Now().Add(interval),
		seq:      s.seq,
		fn:       fn,
	}
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	s.logger.Debug("tick subscribed",
		logfields.Tick(name), logfields.Interval(interval))
	s.signal()

	return sub, nil
}

// Len returns the number of active subscriptions.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.subs)
}

// Step dispatches every tick due at the clock's current time, earliest
// deadline first and registration order on ties. A subscription that fell
// several intervals behind receives one call per missed interval. Step
// returns the number of callbacks run.
func (s *Scheduler) Step(ctx context.Context) int {
	now := s.clock.Now()
	dispatched := 0

	for ctx.Err() == nil {
		sub, due := s.popDue(now)
		if sub == nil {
			break
		}

		sub.fn(ctx, due)
		dispatched++
	}

	return dispatched
}

// Run dispatches ticks until ctx is cancelled, sleeping on the clock between
// deadlines. It returns ctx's error.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		s.Step(ctx)

		if err := ctx.Err(); err != nil {
			return err //nolint:wrapcheck // preserving context error identity
		}

		var (
			timer  Timer
			expiry <-chan time.Time
		)

		if wait, ok := s.untilNext(); ok {
			timer = s.clock.NewTimer(wait)
			expiry = timer.C()
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}

			return ctx.Err() //nolint:wrapcheck // preserving context error identity
		case <-expiry:
		case <-s.wake:
			if timer != nil {
				timer.Stop()
			}
		}
	}
}

// popDue returns the earliest subscription due at or before now and moves
// its deadline forward by one interval.
func (s *Scheduler) popDue(now time.Time) (*scheduledTick, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var best *scheduledTick

	for _, sub := range s.subs {
		if sub.next.After(now) {
			continue
		}

		if best == nil ||
			sub.next.Before(best.next) ||
			(sub.next.Equal(best.next) && sub.seq < best.seq) {
			best = sub
		}
	}

	if best == nil {
		return nil, time.Time{}
	}

	due := best.next
	if now.Sub(due) > time.Duration(maxCatchUp)*best.interval {
		s.logger.Warn("tick fell behind, realigning",
			logfields.Tick(best.name), logfields.Interval(best.interval))

		due = now
	}

	best.next = due.Add(best.interval)

	return best, due
}

// untilNext reports how long until the earliest deadline, or false when no
// subscription is registered.
func (s *Scheduler) untilNext() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.subs) == 0 {
		return 0, false
	}

	earliest := s.subs[0].next
	for _, sub := range s.subs[1:] {
		if sub.next.Before(earliest) {
			earliest = sub.next
		}
	}

	wait := earliest.Sub(s.clock.Now())
	if wait < 0 {
		wait = 0
	}

	return wait, true
}

func (s *Scheduler) cancel(target *scheduledTick) {
	s.mu.Lock()
	if target.cancelled {
		s.mu.Unlock()
		return
	}

	target.cancelled = true

	for i, sub := range s.subs {
		if sub == target {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.logger.Debug("tick cancelled", logfields.Tick(target.name))
	s.signal()
}

// signal wakes Run so it recomputes its sleep after the subscription set
// changed.
func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (t *scheduledTick) Name() string { return t.name }
func (t *scheduledTick) Cancel()      { t.sched.cancel(t) }
