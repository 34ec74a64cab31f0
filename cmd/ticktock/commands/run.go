package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/byte4ever/ticktock"
	"github.com/byte4ever/ticktock/cronsched"
	"github.com/byte4ever/ticktock/internal/logfields"
	"github.com/byte4ever/ticktock/metrics"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// RunCmd implements the 'run' command: it keeps the suite alive, rings
// alarms and optionally serves status and metrics over HTTP.
type RunCmd struct {
	HTTP   string `help:"Serve /status and /metrics on this address" env:"TICKTOCK_HTTP"`
	Gocron bool   `help:"Dispatch ticks with gocron instead of the built-in scheduler"`
}

func (r *RunCmd) Run(g *Global, root *CLI) error {
	reg := prom.NewRegistry()
	recorder := metrics.NewRecorder(reg)

	hooks := ticktock.ChainHooks(recorder.Hooks(), &ticktock.Hooks{
		OnAlarmFired: func(a ticktock.Alarm) {
			slog.Info("Alarm fired", logfields.AlarmTime(a.Time), logfields.Source(a.DisplayLabel()))
		},
		OnStoreError: func(key string, err error) {
			slog.Warn("Store error", logfields.StoreKey(key), logfields.Error(err))
		},
	})

	sess, err := root.openSession(hooks)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ticks, stopTicks, err := r.tickSource(ctx, sess)
	if err != nil {
		return err
	}
	defer stopTicks()

	suite := ticktock.NewSuite(ctx, sess.store, ticks, terminalNotifier{out: g.out()}, sess.opts...)
	if err = suite.Start(); err != nil {
		return fmt.Errorf("start suite: %w", err)
	}
	defer suite.Stop()

	addr := r.HTTP
	if addr == "" {
		addr = sess.cfg.HTTPAddr()
	}

	errChan := make(chan error, 1)

	var srv *http.Server

	if addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/status", ticktock.StatusHandler(suite))
		mux.Handle("/metrics", metrics.Handler(reg))

		srv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: readHeaderTimeout}

		go func() {
			if serveErr := srv.ListenAndServe(); !errors.Is(serveErr, http.ErrServerClosed) {
				errChan <- serveErr
			}
		}()

		slog.Info("Status server listening", logfields.Addr(addr))
	}

	slog.Info("Clock suite running, waiting for shutdown signal...")

	select {
	case err = <-errChan:
		return fmt.Errorf("status server: %w", err)
	case <-ctx.Done():
		slog.Info("Shutdown signal received, stopping...")
	}

	if srv != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stopCancel()

		if err = srv.Shutdown(stopCtx); err != nil {
			return fmt.Errorf("failed to stop status server: %w", err)
		}
	}

	return nil
}

// tickSource returns the configured tick source, already running, and the
// function stopping it. The stop function returns once no tick is running,
// so the store can be closed after it.
//
//nolint:ireturn // both schedulers are used through the TickSource interface
func (r *RunCmd) tickSource(
	ctx context.Context,
	sess *session,
) (ticktock.TickSource, func(), error) {
	if r.Gocron || sess.cfg.SchedulerName() == ticktock.SchedulerGocron {
		sched, err := cronsched.New(cronsched.WithLogger(slog.Default()))
		if err != nil {
			return nil, nil, err
		}

		sched.Start(ctx)

		return sched, func() {
			if err := sched.Shutdown(); err != nil {
				slog.Warn("Failed to stop scheduler", logfields.Error(err))
			}
		}, nil
	}

	sched := ticktock.NewScheduler(sess.opts...)

	return sched, runScheduler(ctx, sched), nil
}

// runScheduler dispatches sched in the background. The returned stop
// function cancels it and waits for the tick in flight, if any.
func runScheduler(ctx context.Context, sched *ticktock.Scheduler) func() {
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		_ = sched.Run(runCtx)
	}()

	return func() {
		cancel()
		<-done
	}
}
