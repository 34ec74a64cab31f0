package ticktock

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/byte4ever/ticktock/internal/logfields"
)

type (
	// Bedtime is the stored sleep and wake times of day, "HH:MM".
	Bedtime struct {
		Sleep string `json:"sleep"`
		Wake  string `json:"wake"`
	}

	// BedtimePlan is the next sleep window derived from a [Bedtime].
	BedtimePlan struct {
		SleepAt  time.Time
		WakeAt   time.Time
		Duration time.Duration
	}

	// BedtimePlanner stores one bedtime under [KeyBedtime] and derives the
	// planned sleep duration from it on demand.
	BedtimePlanner struct {
		store  Store
		clock  Clock
		hooks  *Hooks
		logger *slog.Logger

		mu      sync.Mutex
		bedtime *Bedtime
	}
)

// NewBedtimePlanner loads the stored bedtime, if any.
func NewBedtimePlanner(ctx context.Context, store Store, opts ...Option) *BedtimePlanner {
	cfg := buildSettings(opts)

	bedtime, _ := loadValue[*Bedtime](ctx, store, KeyBedtime, cfg.logger, cfg.hooks)
	if bedtime != nil && !bedtime.valid() {
		cfg.logger.Warn("ignoring malformed bedtime",
			logfields.StoreKey(KeyBedtime))

		bedtime = nil
	}

	return &BedtimePlanner{
		store:   store,
		clock:   cfg.clock,
		hooks:   cfg.hooks,
		logger:  cfg.logger,
		bedtime: bedtime,
	}
}

// Reload replaces the in-memory bedtime with the stored one; a missing key
// clears it. A read failure keeps the current bedtime and is returned.
func (p *BedtimePlanner) Reload(ctx context.Context) error {
	bedtime, _, err := readValue[*Bedtime](ctx, p.store, KeyBedtime)
	if err != nil {
		p.logger.Warn("reload bedtime, keeping current value", logfields.Error(err))
		p.hooks.emitStoreError(KeyBedtime, err)

		return err
	}

	if bedtime != nil && !bedtime.valid() {
		p.logger.Warn("ignoring malformed bedtime", logfields.StoreKey(KeyBedtime))

		bedtime = nil
	}

	p.mu.Lock()
	changed := !sameBedtime(p.bedtime, bedtime)
	if changed {
		p.bedtime = bedtime
	}
	p.mu.Unlock()

	if changed {
		p.hooks.emitRender(ComponentBedtime)
	}

	return nil
}

func sameBedtime(a, b *Bedtime) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}

func (b *Bedtime) valid() bool {
	_, errS := ParseClockTime(b.Sleep)
	_, errW := ParseClockTime(b.Wake)

	return errS == nil && errW == nil
}

// Save replaces the stored bedtime. Both times are required; a missing or
// malformed time returns an [ErrInvalidInput] error and changes nothing.
func (p *BedtimePlanner) Save(ctx context.Context, sleep, wake string) error {
	sleep, wake = strings.TrimSpace(sleep), strings.TrimSpace(wake)
	if sleep == "" || wake == "" {
		return fmt.Errorf("save bedtime: %w: set both sleep and wake times", ErrInvalidInput)
	}

	bedtime := &Bedtime{Sleep: sleep, Wake: wake}
	if _, err := ParseClockTime(sleep); err != nil {
		return fmt.Errorf("save bedtime: sleep: %w", err)
	}

	if _, err := ParseClockTime(wake); err != nil {
		return fmt.Errorf("save bedtime: wake: %w", err)
	}

	p.mu.Lock()
	p.bedtime = bedtime
	err := saveValue(ctx, p.store, KeyBedtime, bedtime)
	p.mu.Unlock()

	p.afterWrite(err)

	return err
}

// Clear forgets the bedtime and removes it from the store.
func (p *BedtimePlanner) Clear(ctx context.Context) error {
	p.mu.Lock()
	p.bedtime = nil
	err := removeValue(ctx, p.store, KeyBedtime)
	p.mu.Unlock()

	p.afterWrite(err)

	return err
}

// Bedtime returns the stored bedtime and whether one is set.
func (p *BedtimePlanner) Bedtime() (Bedtime, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bedtime == nil {
		return Bedtime{}, false
	}

	return *p.bedtime, true
}

// Plan computes the next sleep window after now: sleep at the first
// occurrence of the sleep time strictly after now, wake at the first
// occurrence of the wake time strictly after that. The duration is always
// positive. Without a stored bedtime it returns [ErrNoBedtime].
func (p *BedtimePlanner) Plan(now time.Time) (BedtimePlan, error) {
	bedtime, ok := p.Bedtime()
	if !ok {
		return BedtimePlan{}, ErrNoBedtime
	}

	return PlanSleep(bedtime, now)
}

// NextPlan is Plan at the planner clock's current time.
func (p *BedtimePlanner) NextPlan() (BedtimePlan, error) {
	return p.Plan(p.clock.Now())
}

// ComputeDuration returns the planned sleep duration after now.
func (p *BedtimePlanner) ComputeDuration(now time.Time) (time.Duration, error) {
	plan, err := p.Plan(now)
	if err != nil {
		return 0, err
	}

	return plan.Duration, nil
}

// PlanSleep derives the next sleep window for bedtime after now.
func PlanSleep(bedtime Bedtime, now time.Time) (BedtimePlan, error) {
	sleep, err := ParseClockTime(bedtime.Sleep)
	if err != nil {
		return BedtimePlan{}, fmt.Errorf("sleep: %w", err)
	}

	wake, err := ParseClockTime(bedtime.Wake)
	if err != nil {
		return BedtimePlan{}, fmt.Errorf("wake: %w", err)
	}

	sleepAt := sleep.NextAfter(now)
	wakeAt := wake.NextAfter(sleepAt)

	return BedtimePlan{
		SleepAt:  sleepAt,
		WakeAt:   wakeAt,
		Duration: wakeAt.Sub(sleepAt),
	}, nil
}

func (p *BedtimePlanner) afterWrite(err error) {
	if err != nil {
		p.logger.Warn("persist bedtime", logfields.Error(err))
		p.hooks.emitStoreError(KeyBedtime, err)
	}

	p.hooks.emitRender(ComponentBedtime)
}
