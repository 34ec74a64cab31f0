package ticktock

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/byte4ever/ticktock/internal/logfields"
)

// Notifier presents an alert when an alarm or the countdown rings. The suite
// does not own presentation: a terminal, desktop or test implementation is
// injected by the caller.
type Notifier interface {
	// Notify shows a visible message.
	Notify(ctx context.Context, message string) error
	// PlaySound plays the ring sound.
	PlaySound(ctx context.Context) error
}

// NopNotifier discards every alert.
type NopNotifier struct{}

// Notify does nothing.
func (NopNotifier) Notify(context.Context, string) error { return nil }

// PlaySound does nothing.
func (NopNotifier) PlaySound(context.Context) error { return nil }

// Notifiers fans an alert out to several notifiers. Every notifier is tried;
// the first error is returned.
type Notifiers []Notifier

// Notify forwards the message to every notifier.
func (ns Notifiers) Notify(ctx context.Context, message string) error {
	var first error

	for _, n := range ns {
		if err := n.Notify(ctx, message); err != nil && first == nil {
			first = err
		}
	}

	return first
}

// PlaySound asks every notifier to play the ring sound.
func (ns Notifiers) PlaySound(ctx context.Context) error {
	var first error

	for _, n := range ns {
		if err := n.PlaySound(ctx); err != nil && first == nil {
			first = err
		}
	}

	return first
}

// RingMessage is the alert text for a ringing source such as an alarm label
// or "Timer".
func RingMessage(source string) string {
	return fmt.Sprintf("🔔 %s finished!", source)
}

// ring shows the alert and plays the sound. Failures, panics included, are
// logged and dropped so they never interrupt alarm or countdown logic.
func ring(ctx context.Context, n Notifier, logger *slog.Logger, source string) {
	if n == nil {
		return
	}

	attempt := func(step string, fn func() error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Warn("notifier panicked",
					logfields.Source(source),
					slog.String("step", step),
					slog.Any("panic", r))
			}
		}()

		if err := fn(); err != nil {
			logger.Warn("notifier failed",
				logfields.Source(source),
				slog.String("step", step),
				logfields.Error(err))
		}
	}

	attempt("notify", func() error { return n.Notify(ctx, RingMessage(source)) })
	attempt("sound", func() error { return n.PlaySound(ctx) })
}
