// Package cronsched is a ticktock.TickSource backed by gocron. Each
// subscription is a gocron duration job in singleton mode: a tick that is
// still running when the next one falls due makes gocron reschedule rather
// than overlap.
package cronsched

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/byte4ever/ticktock"
	"github.com/byte4ever/ticktock/internal/logfields"
)

type (
	// Scheduler wraps a gocron scheduler.
	Scheduler struct {
		cron   gocron.Scheduler
		clock  clockwork.Clock
		logger *slog.Logger

		mu   sync.Mutex
		ctx  context.Context //nolint:containedctx // handed to every tick callback
		jobs map[uuid.UUID]string
	}

	// Option configures a [Scheduler].
	Option func(*config)

	config struct {
		clock  clockwork.Clock
		logger *slog.Logger
	}

	subscription struct {
		sched *Scheduler
		id    uuid.UUID
		name  string
		once  sync.Once
	}
)

var _ ticktock.TickSource = (*Scheduler)(nil)

// WithClock drives gocron and the tick timestamps from clock.
func WithClock(clock clockwork.Clock) Option {
	return func(c *config) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets the logger for the scheduler and gocron itself.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a stopped scheduler. Call [Scheduler.Start] to dispatch ticks.
func New(opts ...Option) (*Scheduler, error) {
	cfg := config{
		clock:  clockwork.NewRealClock(),
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(&cfg)
	}

	cron, err := gocron.NewScheduler(
		gocron.WithClock(cfg.clock),
		gocron.WithLogger(cfg.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	return &Scheduler{
		cron:   cron,
		clock:  cfg.clock,
		logger: cfg.logger,
		ctx:    context.Background(),
		jobs:   make(map[uuid.UUID]string),
	}, nil
}

// Every registers fn as a gocron job named name, first run one interval
// from now.
//
//nolint:ireturn // subscriptions are only exposed through their interface
func (s *Scheduler) Every(
	name string,
	interval time.Duration,
	fn ticktock.TickFunc,
) (ticktock.Subscription, error) {
	if interval <= 0 {
		return nil, fmt.Errorf(
			"%w: tick %q interval %v must be positive",
			ticktock.ErrInvalidInput, name, interval,
		)
	}

	if fn == nil {
		return nil, fmt.Errorf("%w: tick %q has no callback", ticktock.ErrInvalidInput, name)
	}

	job, err := s.cron.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.dispatch, fn),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tick job %q: %w", name, err)
	}

	s.mu.Lock()
	s.jobs[job.ID()] = name
	s.mu.Unlock()

	s.logger.Debug("tick subscribed",
		logfields.Tick(name), logfields.Interval(interval))

	return &subscription{sched: s, id: job.ID(), name: name}, nil
}

// Start begins dispatching. ctx is passed to every tick callback.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	n := len(s.jobs)
	s.mu.Unlock()

	s.logger.Info("Starting scheduler", slog.Int("jobs", n))
	s.cron.Start()
}

// Shutdown stops the scheduler and waits for running ticks to finish.
func (s *Scheduler) Shutdown() error {
	s.logger.Info("Stopping scheduler")

	if err := s.cron.Shutdown(); err != nil {
		return fmt.Errorf("shutdown gocron scheduler: %w", err)
	}

	return nil
}

// Len returns the number of active subscriptions.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.jobs)
}

func (s *Scheduler) dispatch(fn ticktock.TickFunc) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	if ctx.Err() != nil {
		return
	}

	fn(ctx, s.clock.Now())
}

func (s *Scheduler) remove(id uuid.UUID, name string) {
	s.mu.Lock()
	delete(s.jobs, id)
	s.mu.Unlock()

	if err := s.cron.RemoveJob(id); err != nil {
		s.logger.Debug("remove tick job",
			logfields.Tick(name), logfields.Error(err))

		return
	}

	s.logger.Debug("tick cancelled", logfields.Tick(name))
}

func (t *subscription) Name() string { return t.name }

func (t *subscription) Cancel() {
	t.once.Do(func() { t.sched.remove(t.id, t.name) })
}
