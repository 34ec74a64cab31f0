package ticktock

import (
	"context"
	"errors"
	"testing"
)

func TestRingMessage(t *testing.T) {
	if got := RingMessage("Timer"); got != "🔔 Timer finished!" {
		t.Fatalf("RingMessage() = %q", got)
	}
}

func TestNotifiersFanOut(t *testing.T) {
	bad := &recordingNotifier{err: errors.New("no speaker")}
	good := &recordingNotifier{}
	ns := Notifiers{bad, good, NopNotifier{}}
	ctx := context.Background()

	if err := ns.Notify(ctx, "hi"); err == nil || err.Error() != "no speaker" {
		t.Fatalf("Notify() error = %v, want the first failure", err)
	}

	if err := ns.PlaySound(ctx); err == nil {
		t.Fatal("PlaySound() error = nil, want the first failure")
	}

	if len(good.Messages()) != 1 || good.Sounds() != 1 {
		t.Fatal("a failing notifier stopped the fan-out")
	}
}

func TestRingContainsFailuresAndPanics(t *testing.T) {
	logger := buildSettings(nil).logger
	ctx := context.Background()

	failing := &recordingNotifier{err: errors.New("muted")}
	ring(ctx, failing, logger, "Gym")

	if msgs := failing.Messages(); len(msgs) != 1 || msgs[0] != "🔔 Gym finished!" {
		t.Fatalf("messages = %q", msgs)
	}

	if failing.Sounds() != 1 {
		t.Fatal("PlaySound() skipped after a Notify failure")
	}

	ring(ctx, panickingNotifier{}, logger, "Gym")
	ring(ctx, nil, logger, "Gym")
}
