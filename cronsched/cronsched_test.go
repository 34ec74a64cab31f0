package cronsched

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/ticktock"
)

func newScheduler(t *testing.T, opts ...Option) *Scheduler {
	t.Helper()

	s, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown() })

	return s
}

func TestEveryRejectsBadArguments(t *testing.T) {
	s := newScheduler(t)

	_, err := s.Every("zero", 0, func(context.Context, time.Time) {})
	require.ErrorIs(t, err, ticktock.ErrInvalidInput)

	_, err = s.Every("nil", time.Second, nil)
	require.ErrorIs(t, err, ticktock.ErrInvalidInput)

	assert.Zero(t, s.Len())
}

func TestTicksWithRealClock(t *testing.T) {
	s := newScheduler(t)

	var calls atomic.Int32

	sub, err := s.Every("test.tick", 20*time.Millisecond, func(context.Context, time.Time) {
		calls.Add(1)
	})
	require.NoError(t, err)
	assert.Equal(t, "test.tick", sub.Name())

	s.Start(t.Context())

	require.Eventually(t, func() bool { return calls.Load() >= 2 },
		2*time.Second, 5*time.Millisecond)

	sub.Cancel()
	sub.Cancel()
	assert.Zero(t, s.Len())
}

func TestTicksFollowFakeClock(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2024, time.May, 6, 7, 0, 0, 0, time.UTC))
	s := newScheduler(t, WithClock(fake))

	var (
		mu    sync.Mutex
		stamp time.Time
	)

	_, err := s.Every("fake.tick", time.Second, func(_ context.Context, now time.Time) {
		mu.Lock()
		stamp = now
		mu.Unlock()
	})
	require.NoError(t, err)

	s.Start(t.Context())

	require.Eventually(t, func() bool {
		fake.Advance(time.Second)

		mu.Lock()
		defer mu.Unlock()

		return !stamp.IsZero()
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	assert.True(t, stamp.After(time.Date(2024, time.May, 6, 7, 0, 0, 0, time.UTC)),
		"tick time %v must come from the fake clock", stamp)
}

func TestCountdownRunsOnGocron(t *testing.T) {
	s := newScheduler(t)

	var fired atomic.Bool

	countdown := ticktock.NewCountdown(s, nil,
		ticktock.WithCountdownInterval(10*time.Millisecond),
		ticktock.WithHooks(&ticktock.Hooks{
			OnCountdownFired: func() { fired.Store(true) },
		}))

	s.Start(t.Context())
	require.NoError(t, countdown.Start("0", "3"))

	require.Eventually(t, fired.Load, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, ticktock.CountdownFired, countdown.Phase())
	assert.Zero(t, countdown.Remaining())

	require.Eventually(t, func() bool { return s.Len() == 0 },
		time.Second, 5*time.Millisecond, "fired countdown must unsubscribe")
}

func TestCancelledContextSkipsTicks(t *testing.T) {
	s := newScheduler(t)

	var calls atomic.Int32

	_, err := s.Every("cancelled", 10*time.Millisecond, func(context.Context, time.Time) {
		calls.Add(1)
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	s.Start(ctx)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, calls.Load())
}
