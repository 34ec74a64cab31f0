package ticktock

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
)

var (
	wednesday7am = time.Date(2024, time.May, 8, 7, 0, 15, 0, time.UTC)
	saturday7am  = time.Date(2024, time.May, 11, 7, 0, 15, 0, time.UTC)
)

func newTestRegistry(t *testing.T) (*MemoryStore, *recordingNotifier, *AlarmRegistry) {
	t.Helper()

	store := NewMemoryStore()
	notifier := &recordingNotifier{}

	return store, notifier, NewAlarmRegistry(context.Background(), store, notifier)
}

func mustAdd(t *testing.T, r *AlarmRegistry, at, label string, recur Recurrence) {
	t.Helper()

	added, err := r.Add(context.Background(), at, label, recur)
	if err != nil || !added {
		t.Fatalf("Add(%q) = %v, %v; want true, nil", at, added, err)
	}
}

func storedAlarms(t *testing.T, store Store) []Alarm {
	t.Helper()

	raw, ok, err := store.Get(context.Background(), KeyAlarms)
	if err != nil || !ok {
		t.Fatalf("store.Get(alarms) = %v, %v", ok, err)
	}

	var alarms []Alarm
	if err = json.Unmarshal(raw, &alarms); err != nil {
		t.Fatalf("decode stored alarms: %v", err)
	}

	return alarms
}

// ---------------------------------------------------------------------------
// Add / Remove
// ---------------------------------------------------------------------------

func TestAlarmAddValidation(t *testing.T) {
	_, _, r := newTestRegistry(t)
	ctx := context.Background()

	added, err := r.Add(ctx, "  ", "Nothing", RecurDaily)
	if added || err != nil {
		t.Fatalf("Add(empty) = %v, %v; want false, nil", added, err)
	}

	if _, err = r.Add(ctx, "7:00", "", RecurDaily); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Add(7:00) error = %v, want ErrInvalidInput", err)
	}

	if _, err = r.Add(ctx, "07:00", "", "hourly"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Add(hourly) error = %v, want ErrInvalidInput", err)
	}

	if n := r.Len(); n != 0 {
		t.Fatalf("Len() = %d, want 0", n)
	}

	mustAdd(t, r, "07:00", " Gym ", "")

	got := r.List()[0]
	if got.Recur != RecurOnce || got.Label != "Gym" {
		t.Fatalf("List()[0] = %+v, want once alarm labelled Gym", got)
	}
}

func TestAlarmAddPersistsInOrder(t *testing.T) {
	store, _, r := newTestRegistry(t)

	mustAdd(t, r, "06:30", "First", RecurDaily)
	mustAdd(t, r, "05:00", "Second", RecurWeekdays)

	stored := storedAlarms(t, store)
	if len(stored) != 2 || stored[0].Label != "First" || stored[1].Label != "Second" {
		t.Fatalf("stored = %+v, want First then Second", stored)
	}
}

func TestAlarmRemove(t *testing.T) {
	store, _, r := newTestRegistry(t)
	ctx := context.Background()

	mustAdd(t, r, "06:00", "a", RecurDaily)
	mustAdd(t, r, "07:00", "b", RecurDaily)
	mustAdd(t, r, "08:00", "c", RecurDaily)

	if err := r.Remove(ctx, 1); err != nil {
		t.Fatalf("Remove(1) error = %v", err)
	}

	for _, idx := range []int{-1, 2} {
		if err := r.Remove(ctx, idx); !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("Remove(%d) error = %v, want ErrIndexOutOfRange", idx, err)
		}
	}

	stored := storedAlarms(t, store)
	if len(stored) != 2 || stored[0].Label != "a" || stored[1].Label != "c" {
		t.Fatalf("stored = %+v, want a, c", stored)
	}
}

func TestAlarmRemoveLastPersistsEmptyList(t *testing.T) {
	store, _, r := newTestRegistry(t)

	mustAdd(t, r, "06:00", "", RecurOnce)

	if err := r.Remove(context.Background(), 0); err != nil {
		t.Fatalf("Remove(0) error = %v", err)
	}

	raw, _, _ := store.Get(context.Background(), KeyAlarms)
	if string(raw) != "[]" {
		t.Fatalf("stored = %s, want []", raw)
	}
}

// ---------------------------------------------------------------------------
// Matching
// ---------------------------------------------------------------------------

func TestMatchOnceRingsAndIsDeleted(t *testing.T) {
	store, notifier, r := newTestRegistry(t)
	ctx := context.Background()

	mustAdd(t, r, "07:00", "", RecurOnce)

	fired := r.Match(ctx, wednesday7am)
	if len(fired) != 1 {
		t.Fatalf("Match() fired %d, want 1", len(fired))
	}

	if msgs := notifier.Messages(); len(msgs) != 1 || msgs[0] != "🔔 Alarm finished!" {
		t.Fatalf("messages = %q, want one default-labelled ring", msgs)
	}

	if n := r.Len(); n != 0 {
		t.Fatalf("Len() = %d, want 0", n)
	}

	if stored := storedAlarms(t, store); len(stored) != 0 {
		t.Fatalf("stored = %+v, want empty", stored)
	}
}

func TestMatchDailyRingsOncePerMinute(t *testing.T) {
	store, notifier, r := newTestRegistry(t)
	ctx := context.Background()

	mustAdd(t, r, "07:00", "Coffee", RecurDaily)

	r.Match(ctx, wednesday7am)
	r.Match(ctx, wednesday7am.Add(30*time.Second))
	r.Match(ctx, wednesday7am.Add(44*time.Second))

	if n := notifier.Sounds(); n != 1 {
		t.Fatalf("rings within one minute = %d, want 1", n)
	}

	if got := storedAlarms(t, store)[0].LastTriggered; got != "07:00" {
		t.Fatalf("stored _lastTriggered = %q, want 07:00", got)
	}

	r.Match(ctx, wednesday7am.Add(time.Minute))

	if got := storedAlarms(t, store)[0].LastTriggered; got != "" {
		t.Fatalf("stored _lastTriggered after 07:01 = %q, want cleared", got)
	}

	r.Match(ctx, wednesday7am.Add(24*time.Hour))

	if n := notifier.Sounds(); n != 2 {
		t.Fatalf("rings by the next day = %d, want 2", n)
	}

	if n := r.Len(); n != 1 {
		t.Fatalf("Len() = %d, want 1", n)
	}
}

func TestMatchTwoDailyAlarmsInConsecutiveMinutes(t *testing.T) {
	_, notifier, r := newTestRegistry(t)
	ctx := context.Background()

	mustAdd(t, r, "07:00", "Coffee", RecurDaily)
	mustAdd(t, r, "07:01", "Stretch", RecurDaily)

	r.Match(ctx, wednesday7am)
	r.Match(ctx, wednesday7am.Add(time.Minute))

	if n := notifier.Sounds(); n != 2 {
		t.Fatalf("sounds = %d, want 2", n)
	}
}

func TestMatchWeekdays(t *testing.T) {
	_, notifier, r := newTestRegistry(t)
	ctx := context.Background()

	mustAdd(t, r, "07:00", "Work", RecurWeekdays)

	if fired := r.Match(ctx, saturday7am); len(fired) != 0 {
		t.Fatalf("Match(Saturday) fired %v, want none", fired)
	}

	if got := r.List()[0].LastTriggered; got != "" {
		t.Fatalf("guard after Saturday = %q, want unset", got)
	}

	if fired := r.Match(ctx, wednesday7am); len(fired) != 1 {
		t.Fatalf("Match(Wednesday) fired %d, want 1", len(fired))
	}

	if got := r.List()[0].LastTriggered; got != "07:00" {
		t.Fatalf("guard after Wednesday = %q, want 07:00", got)
	}

	if n := notifier.Sounds(); n != 1 {
		t.Fatalf("sounds = %d, want 1", n)
	}
}

func TestMatchAdjacentOnceAlarmsAllRing(t *testing.T) {
	_, notifier, r := newTestRegistry(t)
	ctx := context.Background()

	mustAdd(t, r, "07:00", "one", RecurOnce)
	mustAdd(t, r, "07:00", "two", RecurOnce)
	mustAdd(t, r, "08:00", "later", RecurOnce)
	mustAdd(t, r, "07:00", "three", RecurDaily)

	fired := r.Match(ctx, wednesday7am)

	var labels []string
	for _, a := range fired {
		labels = append(labels, a.Label)
	}

	if got := strings.Join(labels, ","); got != "one,two,three" {
		t.Fatalf("fired = %s, want one,two,three", got)
	}

	if n := notifier.Sounds(); n != 3 {
		t.Fatalf("sounds = %d, want 3", n)
	}

	left := r.List()
	if len(left) != 2 || left[0].Label != "later" || left[1].Label != "three" {
		t.Fatalf("List() = %+v, want later, three", left)
	}
}

func TestMatchNothingDueDoesNotWrite(t *testing.T) {
	writes := 0
	store := &countingStore{Store: NewMemoryStore(), sets: &writes}
	r := NewAlarmRegistry(context.Background(), store, nil)

	mustAdd(t, r, "09:00", "", RecurDaily)
	writes = 0

	r.Match(context.Background(), wednesday7am)

	if writes != 0 {
		t.Fatalf("writes = %d, want 0", writes)
	}
}

func TestMatchStoreFailureStillRings(t *testing.T) {
	notifier := &recordingNotifier{}

	var storeErrs []string

	r := NewAlarmRegistry(context.Background(), failingStore{}, notifier, WithHooks(&Hooks{
		OnStoreError: func(key string, _ error) { storeErrs = append(storeErrs, key) },
	}))

	if _, err := r.Add(context.Background(), "07:00", "", RecurDaily); !errors.Is(err, errStore) {
		t.Fatalf("Add() error = %v, want store error", err)
	}

	if n := r.Len(); n != 1 {
		t.Fatalf("Len() = %d, want 1: memory stays authoritative", n)
	}

	r.Match(context.Background(), wednesday7am)

	if n := notifier.Sounds(); n != 1 {
		t.Fatalf("sounds = %d, want 1", n)
	}

	if len(storeErrs) < 2 {
		t.Fatalf("store errors = %v, want load, add and match failures", storeErrs)
	}
}

func TestMatchNotifierPanicIsContained(t *testing.T) {
	r := NewAlarmRegistry(context.Background(), NewMemoryStore(), panickingNotifier{})

	mustAdd(t, r, "07:00", "", RecurOnce)

	if fired := r.Match(context.Background(), wednesday7am); len(fired) != 1 {
		t.Fatalf("Match() fired %d, want 1", len(fired))
	}

	if n := r.Len(); n != 0 {
		t.Fatalf("Len() = %d, want 0", n)
	}
}

// ---------------------------------------------------------------------------
// Persistence and schedule helpers
// ---------------------------------------------------------------------------

func TestAlarmRegistryLoadsStoredList(t *testing.T) {
	store := NewMemoryStore()
	raw := `[{"time":"07:00","label":"","recur":"daily","_lastTriggered":"07:00"},
	         {"time":"22:15","label":"Lights out","recur":"weekdays"}]`

	if err := store.Set(context.Background(), KeyAlarms, []byte(raw)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	r := NewAlarmRegistry(context.Background(), store, nil)

	got := r.List()
	if len(got) != 2 || got[0].LastTriggered != "07:00" || got[1].DisplayLabel() != "Lights out" {
		t.Fatalf("List() = %+v", got)
	}

	// The restored guard holds for the minute it was written in.
	if fired := r.Match(context.Background(), wednesday7am); len(fired) != 0 {
		t.Fatalf("Match() fired %v, want none", fired)
	}
}

func TestAlarmRegistryMalformedStoreStartsEmpty(t *testing.T) {
	store := NewMemoryStore()
	_ = store.Set(context.Background(), KeyAlarms, []byte(`{"not":"a list"}`))

	if n := NewAlarmRegistry(context.Background(), store, nil).Len(); n != 0 {
		t.Fatalf("Len() = %d, want 0", n)
	}
}

func TestAlarmCronExpr(t *testing.T) {
	tests := []struct {
		alarm Alarm
		want  string
	}{
		{Alarm{Time: "07:05", Recur: RecurOnce}, "5 7 * * *"},
		{Alarm{Time: "23:00", Recur: RecurDaily}, "0 23 * * *"},
		{Alarm{Time: "06:30", Recur: RecurWeekdays}, "30 6 * * 1-5"},
	}

	for _, tt := range tests {
		got, err := tt.alarm.CronExpr()
		if err != nil || got != tt.want {
			t.Fatalf("CronExpr(%+v) = %q, %v; want %q", tt.alarm, got, err, tt.want)
		}
	}

	if _, err := (Alarm{Time: "06:30", Recur: "hourly"}).CronExpr(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("CronExpr(hourly) error = %v, want ErrInvalidInput", err)
	}
}

func TestAlarmNextRing(t *testing.T) {
	friday8pm := time.Date(2024, time.May, 10, 20, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		alarm Alarm
		want  time.Time
	}{
		{"daily later today", Alarm{Time: "21:00", Recur: RecurDaily},
			time.Date(2024, time.May, 10, 21, 0, 0, 0, time.UTC)},
		{"once tomorrow", Alarm{Time: "07:00", Recur: RecurOnce},
			time.Date(2024, time.May, 11, 7, 0, 0, 0, time.UTC)},
		{"weekdays skips weekend", Alarm{Time: "07:00", Recur: RecurWeekdays},
			time.Date(2024, time.May, 13, 7, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.alarm.NextRing(friday8pm)
			if err != nil {
				t.Fatalf("NextRing() error = %v", err)
			}

			if !got.Equal(tt.want) {
				t.Fatalf("NextRing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseRecurrence(t *testing.T) {
	for in, want := range map[string]Recurrence{
		"":         RecurOnce,
		"once":     RecurOnce,
		"Daily":    RecurDaily,
		"WEEKDAYS": RecurWeekdays,
	} {
		got, err := ParseRecurrence(in)
		if err != nil || got != want {
			t.Fatalf("ParseRecurrence(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	if _, err := ParseRecurrence("monthly"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("ParseRecurrence(monthly) error = %v, want ErrInvalidInput", err)
	}

	if got := RecurWeekdays.Title(); got != "Weekdays" {
		t.Fatalf("Title() = %q, want Weekdays", got)
	}
}

// countingStore counts Set calls on top of another store.
type countingStore struct {
	Store
	sets *int
}

func (s *countingStore) Set(ctx context.Context, key string, value []byte) error {
	*s.sets++
	return s.Store.Set(ctx, key, value)
}

type panickingNotifier struct{}

func (panickingNotifier) Notify(context.Context, string) error { panic("speaker on fire") }
func (panickingNotifier) PlaySound(context.Context) error      { panic("speaker on fire") }

// ---------------------------------------------------------------------------
// Reload
// ---------------------------------------------------------------------------

func TestAlarmReloadPicksUpOtherWriters(t *testing.T) {
	store := NewMemoryStore()
	var renders renderLog

	daemon := NewAlarmRegistry(context.Background(), store, nil, WithHooks(renders.hooks()))
	writer := NewAlarmRegistry(context.Background(), store, nil)

	mustAdd(t, writer, "07:00", "Wake", RecurDaily)

	if n := daemon.Len(); n != 0 {
		t.Fatalf("Len() before Reload = %d, want 0", n)
	}

	if err := daemon.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	if got := daemon.List(); len(got) != 1 || got[0].Label != "Wake" {
		t.Fatalf("List() after Reload = %+v", got)
	}

	if n := renders.count(ComponentAlarms); n != 1 {
		t.Fatalf("renders = %d, want 1", n)
	}

	if err := daemon.Reload(context.Background()); err != nil {
		t.Fatalf("second Reload() error = %v", err)
	}

	if n := renders.count(ComponentAlarms); n != 1 {
		t.Fatalf("renders after an unchanged Reload = %d, want 1", n)
	}
}

func TestAlarmReloadFailureKeepsList(t *testing.T) {
	store := &switchStore{Store: NewMemoryStore()}
	r := NewAlarmRegistry(context.Background(), store, nil)

	mustAdd(t, r, "07:00", "", RecurDaily)

	store.broken = true

	if err := r.Reload(context.Background()); !errors.Is(err, errStore) {
		t.Fatalf("Reload() error = %v, want store error", err)
	}

	if n := r.Len(); n != 1 {
		t.Fatalf("Len() = %d, want 1", n)
	}
}

// switchStore fails reads once broken is set.
type switchStore struct {
	Store
	broken bool
}

func (s *switchStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.broken {
		return nil, false, errStore
	}

	return s.Store.Get(ctx, key)
}
