package commands

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/byte4ever/ticktock"
)

// TimerCmd implements the 'timer' command.
type TimerCmd struct {
	Duration string `arg:"" help:"Countdown length: MM:SS, or a Go duration such as 90s or 5m"`
}

func (t *TimerCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}

	out := g.out()
	done := make(chan struct{})

	hooks := &ticktock.Hooks{
		OnCountdownTick: func(remaining int) {
			fmt.Fprintf(out, "\r%s ", accentStyle.Render(ticktock.FormatRemaining(remaining)))
		},
		OnCountdownFired: func() { close(done) },
	}

	opts, err := suiteOptions(cfg, hooks)
	if err != nil {
		return err
	}

	sched := ticktock.NewScheduler(opts...)
	countdown := ticktock.NewCountdown(sched, terminalNotifier{out: out}, opts...)

	if err = t.start(countdown); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s ", accentStyle.Render(ticktock.FormatRemaining(countdown.Remaining())))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() { _ = sched.Run(ctx) }()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		countdown.Reset()
		fmt.Fprintln(out)

		return nil
	}
}

func (t *TimerCmd) start(c *ticktock.Countdown) error {
	if minutes, seconds, ok := strings.Cut(t.Duration, ":"); ok {
		return c.Start(minutes, seconds)
	}

	d, err := time.ParseDuration(t.Duration)
	if err != nil {
		return fmt.Errorf("%w: %w", ticktock.ErrInvalidInput, err)
	}

	return c.StartFor(d)
}
