package ticktock

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/adhocore/gronx"

	"github.com/byte4ever/ticktock/internal/logfields"
)

// Recurrence controls on which days an alarm rings.
type Recurrence string

// Recurrence policies.
const (
	// RecurOnce rings the next time the alarm time comes round, then the
	// alarm is deleted.
	RecurOnce Recurrence = "once"
	// RecurDaily rings every day.
	RecurDaily Recurrence = "daily"
	// RecurWeekdays rings Monday to Friday.
	RecurWeekdays Recurrence = "weekdays"
)

// defaultAlarmLabel is the ring source of an alarm without a label.
const defaultAlarmLabel = "Alarm"

// ParseRecurrence maps a recurrence name to a [Recurrence]. The empty string
// means [RecurOnce].
func ParseRecurrence(s string) (Recurrence, error) {
	switch r := Recurrence(strings.ToLower(strings.TrimSpace(s))); r {
	case "":
		return RecurOnce, nil
	case RecurOnce, RecurDaily, RecurWeekdays:
		return r, nil
	default:
		return "", fmt.Errorf("%w: unknown recurrence %q", ErrInvalidInput, s)
	}
}

// Title returns the display name of the recurrence.
func (r Recurrence) Title() string {
	switch r {
	case RecurDaily:
		return "Daily"
	case RecurWeekdays:
		return "Weekdays"
	default:
		return "Once"
	}
}

// Alarm is one entry of the alarm list, persisted as
// {"time","label","recur","_lastTriggered"}.
type Alarm struct {
	// Time is the ring time, "HH:MM".
	Time string `json:"time"`
	// Label names the alarm; empty rings as "Alarm".
	Label string `json:"label"`
	// Recur is the recurrence policy.
	Recur Recurrence `json:"recur"`
	// LastTriggered is the "HH:MM" minute the alarm last rang in. It keeps
	// an alarm from ringing twice within one minute.
	LastTriggered string `json:"_lastTriggered,omitempty"`
}

// DisplayLabel returns the label, or "Alarm" when none is set.
func (a Alarm) DisplayLabel() string {
	if a.Label == "" {
		return defaultAlarmLabel
	}

	return a.Label
}

// CronExpr returns the 5-field cron expression equivalent to the alarm's
// time and recurrence. Once alarms share the daily expression: they ring at
// the first matching minute.
func (a Alarm) CronExpr() (string, error) {
	ct, err := ParseClockTime(a.Time)
	if err != nil {
		return "", err
	}

	switch a.Recur {
	case RecurOnce, RecurDaily:
		return fmt.Sprintf("%d %d * * *", ct.Minute, ct.Hour), nil
	case RecurWeekdays:
		return fmt.Sprintf("%d %d * * 1-5", ct.Minute, ct.Hour), nil
	default:
		return "", fmt.Errorf("%w: unknown recurrence %q", ErrInvalidInput, a.Recur)
	}
}

// NextRing returns the first minute strictly after after at which the alarm
// rings.
func (a Alarm) NextRing(after time.Time) (time.Time, error) {
	expr, err := a.CronExpr()
	if err != nil {
		return time.Time{}, err
	}

	next, err := gronx.NextTickAfter(expr, after, false)
	if err != nil {
		return time.Time{}, fmt.Errorf("next ring of %s: %w", a.Time, err)
	}

	return next, nil
}

// rings reports whether the alarm is due at now, ignoring the guard.
func (a Alarm) rings(now time.Time) bool {
	if a.Time != ClockTimeOf(now).String() {
		return false
	}

	switch a.Recur {
	case RecurOnce, RecurDaily:
		return true
	case RecurWeekdays:
		wd := now.Weekday()
		return wd >= time.Monday && wd <= time.Friday
	default:
		return false
	}
}

// AlarmRegistry is the persisted, ordered alarm list. Every mutation is
// written through to the [Store] under [KeyAlarms].
type AlarmRegistry struct {
	store    Store
	notifier Notifier
	hooks    *Hooks
	logger   *slog.Logger

	mu     sync.Mutex
	alarms []Alarm
}

// NewAlarmRegistry loads the alarm list from store. A missing or unreadable
// list starts empty.
func NewAlarmRegistry(
	ctx context.Context,
	store Store,
	notifier Notifier,
	opts ...Option,
) *AlarmRegistry {
	cfg := buildSettings(opts)

	if notifier == nil {
		notifier = NopNotifier{}
	}

	alarms, _ := loadValue[[]Alarm](ctx, store, KeyAlarms, cfg.logger, cfg.hooks)

	return &AlarmRegistry{
		store:    store,
		notifier: notifier,
		hooks:    cfg.hooks,
		logger:   cfg.logger,
		alarms:   alarms,
	}
}

// Reload replaces the in-memory list with the stored one, picking up
// changes written by another process. A read or decode failure keeps the
// current list and is returned.
func (r *AlarmRegistry) Reload(ctx context.Context) error {
	alarms, _, err := readValue[[]Alarm](ctx, r.store, KeyAlarms)
	if err != nil {
		r.logger.Warn("reload alarms, keeping current list", logfields.Error(err))
		r.hooks.emitStoreError(KeyAlarms, err)

		return err
	}

	r.mu.Lock()
	changed := !slices.Equal(r.alarms, alarms)
	if changed {
		r.alarms = alarms
	}
	r.mu.Unlock()

	if changed {
		r.logger.Debug("alarms reloaded", slog.Int("alarms", len(alarms)))
		r.hooks.emitRender(ComponentAlarms)
	}

	return nil
}

// Add appends an alarm and persists the list. An empty time is ignored and
// reports false with no error. A malformed time or an unknown recurrence
// returns an [ErrInvalidInput] error.
func (r *AlarmRegistry) Add(
	ctx context.Context,
	at, label string,
	recur Recurrence,
) (bool, error) {
	at = strings.TrimSpace(at)
	if at == "" {
		return false, nil
	}

	if _, err := ParseClockTime(at); err != nil {
		return false, fmt.Errorf("add alarm: %w", err)
	}

	recur, err := ParseRecurrence(string(recur))
	if err != nil {
		return false, fmt.Errorf("add alarm: %w", err)
	}

	alarm := Alarm{Time: at, Label: strings.TrimSpace(label), Recur: recur}

	r.mu.Lock()
	r.alarms = append(r.alarms, alarm)
	err = r.persistLocked(ctx)
	r.mu.Unlock()

	r.logger.Info("alarm added",
		logfields.AlarmTime(alarm.Time), logfields.Recurrence(string(alarm.Recur)))
	r.hooks.emitAlarmAdded(alarm)
	r.hooks.emitRender(ComponentAlarms)

	return true, err
}

// Remove deletes the alarm at index and persists the list.
func (r *AlarmRegistry) Remove(ctx context.Context, index int) error {
	r.mu.Lock()
	if index < 0 || index >= len(r.alarms) {
		n := len(r.alarms)
		r.mu.Unlock()

		return fmt.Errorf("remove alarm %d of %d: %w", index, n, ErrIndexOutOfRange)
	}

	removed := r.alarms[index]
	r.alarms = append(r.alarms[:index:index], r.alarms[index+1:]...)
	err := r.persistLocked(ctx)
	r.mu.Unlock()

	r.hooks.emitAlarmRemoved(removed)
	r.hooks.emitRender(ComponentAlarms)

	return err
}

// List returns a copy of the alarms in creation order.
func (r *AlarmRegistry) List() []Alarm {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]Alarm(nil), r.alarms...)
}

// Len returns the number of alarms.
func (r *AlarmRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.alarms)
}

// Match rings every alarm due in now's minute and returns the alarms that
// rang, in list order.
//
// An alarm whose guard already holds the current minute is skipped; a guard
// left over from an earlier minute is cleared, so a daily alarm rings again
// the next day. A matching once alarm rings and is deleted; a daily alarm
// rings and stays; a weekdays alarm rings, and records the guard, only
// Monday to Friday.
// The scan runs over a snapshot and deletions are applied after it, so
// deleting one alarm never skips or repeats its neighbours.
func (r *AlarmRegistry) Match(ctx context.Context, now time.Time) []Alarm {
	minute := ClockTimeOf(now).String()

	r.mu.Lock()

	snapshot := append([]Alarm(nil), r.alarms...)

	var (
		fired   []Alarm
		drop    = make(map[int]bool)
		changed bool
	)

	for i, alarm := range snapshot {
		if alarm.LastTriggered != "" && alarm.LastTriggered != minute {
			r.alarms[i].LastTriggered = ""
			alarm.LastTriggered = ""
			changed = true
		}

		if alarm.LastTriggered == minute || !alarm.rings(now) {
			continue
		}

		r.alarms[i].LastTriggered = minute
		alarm.LastTriggered = minute
		changed = true

		fired = append(fired, alarm)

		if alarm.Recur == RecurOnce {
			drop[i] = true
		}
	}

	if len(drop) > 0 {
		kept := r.alarms[:0:0]
		for i, alarm := range r.alarms {
			if !drop[i] {
				kept = append(kept, alarm)
			}
		}

		r.alarms = kept
	}

	var err error
	if changed {
		err = r.persistLocked(ctx)
	}
	r.mu.Unlock()

	if err != nil {
		r.logger.Warn("persist alarms after ring", logfields.Error(err))
	}

	for _, alarm := range fired {
		r.logger.Info("alarm ringing",
			logfields.AlarmTime(alarm.Time),
			logfields.Recurrence(string(alarm.Recur)),
			logfields.Source(alarm.DisplayLabel()))

		ring(ctx, r.notifier, r.logger, alarm.DisplayLabel())
		r.hooks.emitAlarmFired(alarm)

		if alarm.Recur == RecurOnce {
			r.hooks.emitAlarmRemoved(alarm)
		}
	}

	if changed {
		r.hooks.emitRender(ComponentAlarms)
	}

	return fired
}

func (r *AlarmRegistry) persistLocked(ctx context.Context) error {
	alarms := r.alarms
	if alarms == nil {
		alarms = []Alarm{}
	}

	if err := saveValue(ctx, r.store, KeyAlarms, alarms); err != nil {
		r.logger.Warn("persist alarms", logfields.Error(err))
		r.hooks.emitStoreError(KeyAlarms, err)

		return err
	}

	return nil
}
