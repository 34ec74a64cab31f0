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
	// Suite owns one instance of every component for the lifetime of the
	// process and wires their periodic work to a [TickSource].
	Suite struct {
		World     *WorldClock
		Stopwatch *Stopwatch
		Countdown *Countdown
		Alarms    *AlarmRegistry
		Bedtime   *BedtimePlanner

		clock  Clock
		ticks  TickSource
		hooks  *Hooks
		logger *slog.Logger

		worldRefresh  time.Duration
		alarmInterval time.Duration

		mu   sync.Mutex
		subs []Subscription
	}

	// Snapshot is a JSON-serialisable view of the whole suite.
	Snapshot struct {
		Time      time.Time         `json:"time"`
		Bedtime   *BedtimeSnapshot  `json:"bedtime,omitempty"`
		World     []CityReading     `json:"world"`
		Alarms    []AlarmSnapshot   `json:"alarms"`
		Stopwatch StopwatchSnapshot `json:"stopwatch"`
		Countdown CountdownSnapshot `json:"countdown"`
	}

	// StopwatchSnapshot is the stopwatch part of a [Snapshot].
	StopwatchSnapshot struct {
		Elapsed   string   `json:"elapsed"`
		Laps      []string `json:"laps"`
		ElapsedMS int64    `json:"elapsed_ms"`
		Running   bool     `json:"running"`
	}

	// CountdownSnapshot is the countdown part of a [Snapshot].
	CountdownSnapshot struct {
		Phase     string `json:"phase"`
		Display   string `json:"display"`
		Remaining int    `json:"remaining_s"`
	}

	// AlarmSnapshot is one alarm of a [Snapshot] with its next ring time.
	AlarmSnapshot struct {
		Alarm
		Repeat   string     `json:"repeat"`
		NextRing *time.Time `json:"next_ring,omitempty"`
	}

	// BedtimeSnapshot is the bedtime part of a [Snapshot].
	BedtimeSnapshot struct {
		SleepAt  time.Time `json:"sleep_at"`
		WakeAt   time.Time `json:"wake_at"`
		Sleep    string    `json:"sleep"`
		Wake     string    `json:"wake"`
		Duration string    `json:"duration"`
	}
)

// NewSuite builds every component over store, loading persisted state.
// Periodic work starts with [Suite.Start].
func NewSuite(
	ctx context.Context,
	store Store,
	ticks TickSource,
	notifier Notifier,
	opts ...Option,
) *Suite {
	cfg := buildSettings(opts)

	return &Suite{
		World:     NewWorldClock(ctx, store, opts...),
		Stopwatch: NewStopwatch(ticks, opts...),
		Countdown: NewCountdown(ticks, notifier, opts...),
		Alarms:    NewAlarmRegistry(ctx, store, notifier, opts...),
		Bedtime:   NewBedtimePlanner(ctx, store, opts...),

		clock:         cfg.clock,
		ticks:         ticks,
		hooks:         cfg.hooks,
		logger:        cfg.logger,
		worldRefresh:  cfg.worldRefresh,
		alarmInterval: cfg.alarmInterval,
	}
}

// Start subscribes the world clock redraw and the alarm matcher. Calling it
// again while started is a no-op.
func (s *Suite) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.subs) > 0 {
		return nil
	}

	world, err := s.ticks.Every("world.redraw", s.worldRefresh,
		func(context.Context, time.Time) {
			s.hooks.emitRender(ComponentWorldClock)
		})
	if err != nil {
		return fmt.Errorf("start suite: %w", err)
	}

	alarms, err := s.ticks.Every("alarms.match", s.alarmInterval,
		func(ctx context.Context, _ time.Time) {
			s.Reload(ctx)
			// Match against the wall clock: the guard and weekday rules
			// are about the minute we are in now.
			s.Alarms.Match(ctx, s.clock.Now())
		})
	if err != nil {
		world.Cancel()
		return fmt.Errorf("start suite: %w", err)
	}

	s.subs = []Subscription{world, alarms}
	s.logger.Info("suite started",
		logfields.Interval(s.alarmInterval),
		slog.Int("alarms", s.Alarms.Len()),
		slog.Int("cities", len(s.World.List())))

	return nil
}

// Reload re-reads the persisted components so changes written through
// another handle on the same store show up. It runs before every alarm
// match; failures are logged and the current state is kept.
func (s *Suite) Reload(ctx context.Context) {
	_ = s.Alarms.Reload(ctx)
	_ = s.World.Reload(ctx)
	_ = s.Bedtime.Reload(ctx)
}

// Stop cancels the suite's periodic work, including a running stopwatch
// redraw and countdown.
func (s *Suite) Stop() {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}

	s.Stopwatch.Stop()

	if s.Countdown.Phase() == CountdownRunning {
		_ = s.Countdown.PauseOrResume()
	}
}

// Snapshot returns a view of every component at now.
func (s *Suite) Snapshot(now time.Time) Snapshot {
	sw := s.Stopwatch.State()
	laps := make([]string, len(sw.Laps))

	for i, lap := range sw.Laps {
		laps[i] = FormatElapsed(lap)
	}

	cd := s.Countdown.State()

	alarms := s.Alarms.List()
	alarmViews := make([]AlarmSnapshot, len(alarms))

	for i, alarm := range alarms {
		alarmViews[i] = AlarmSnapshot{Alarm: alarm, Repeat: alarm.Recur.Title()}
		if next, err := alarm.NextRing(now); err == nil {
			alarmViews[i].NextRing = &next
		}
	}

	snap := Snapshot{
		Time:  now,
		World: s.World.Readings(now),
		Stopwatch: StopwatchSnapshot{
			Running:   sw.Running,
			Elapsed:   FormatElapsed(sw.Elapsed),
			ElapsedMS: sw.Elapsed.Milliseconds(),
			Laps:      laps,
		},
		Countdown: CountdownSnapshot{
			Phase:     cd.Phase.String(),
			Remaining: cd.Remaining,
			Display:   FormatRemaining(cd.Remaining),
		},
		Alarms: alarmViews,
	}

	if bedtime, ok := s.Bedtime.Bedtime(); ok {
		if plan, err := PlanSleep(bedtime, now); err == nil {
			snap.Bedtime = &BedtimeSnapshot{
				Sleep:    bedtime.Sleep,
				Wake:     bedtime.Wake,
				SleepAt:  plan.SleepAt,
				WakeAt:   plan.WakeAt,
				Duration: FormatSleepDuration(plan.Duration),
			}
		}
	}

	return snap
}
