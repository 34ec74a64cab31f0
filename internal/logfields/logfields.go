// Package logfields holds the canonical slog attribute keys used across the
// suite so log lines stay greppable.
package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyComponent  = "component"
	KeySource     = "source"
	KeyAlarmTime  = "alarm_time"
	KeyRecurrence = "recurrence"
	KeyZone       = "zone"
	KeyStoreKey   = "store_key"
	KeyTick       = "tick"
	KeyInterval   = "interval"
	KeyRemaining  = "remaining_s"
	KeyPath       = "path"
	KeyAddr       = "addr"
	KeyError      = "error"
)

func Component(name string) slog.Attr        { return slog.String(KeyComponent, name) }
func Source(s string) slog.Attr              { return slog.String(KeySource, s) }
func AlarmTime(t string) slog.Attr           { return slog.String(KeyAlarmTime, t) }
func Recurrence(r string) slog.Attr          { return slog.String(KeyRecurrence, r) }
func Zone(z string) slog.Attr                { return slog.String(KeyZone, z) }
func StoreKey(k string) slog.Attr            { return slog.String(KeyStoreKey, k) }
func Tick(name string) slog.Attr             { return slog.String(KeyTick, name) }
func Interval(d time.Duration) slog.Attr     { return slog.Duration(KeyInterval, d) }
func Remaining(seconds int) slog.Attr        { return slog.Int(KeyRemaining, seconds) }
func Path(p string) slog.Attr                { return slog.String(KeyPath, p) }
func Addr(a string) slog.Attr                { return slog.String(KeyAddr, a) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
