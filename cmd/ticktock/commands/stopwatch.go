package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/byte4ever/ticktock"
)

// StopwatchCmd implements the 'stopwatch' command. It reads one command per
// line from stdin: an empty line records a lap, "s" starts or stops, "r"
// resets and "q" quits.
type StopwatchCmd struct {
	Paused bool `help:"Wait for 's' instead of starting immediately"`
}

func (s *StopwatchCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}

	out := g.out()

	// Assigned before the scheduler runs or the stopwatch starts, so every
	// render sees it.
	var stopwatch *ticktock.Stopwatch

	draw := func() {
		fmt.Fprintf(out, "\r%s ", accentStyle.Render(ticktock.FormatElapsed(stopwatch.Elapsed())))
	}

	hooks := &ticktock.Hooks{
		OnRender: func(c ticktock.Component) {
			if c == ticktock.ComponentStopwatch {
				draw()
			}
		},
		OnLap: func(lap time.Duration) {
			fmt.Fprintf(out, "\n%s %s\n", dimStyle.Render("lap"), ticktock.FormatElapsed(lap))
		},
	}

	opts, err := suiteOptions(cfg, hooks)
	if err != nil {
		return err
	}

	sched := ticktock.NewScheduler(opts...)

	stopwatch = ticktock.NewStopwatch(sched, opts...)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() { _ = sched.Run(ctx) }()

	fmt.Fprintln(out, dimStyle.Render("Enter = lap, s = start/stop, r = reset, q = quit"))

	if !s.Paused {
		if err = stopwatch.Start(); err != nil {
			return err
		}
	}

	lines := make(chan string)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(g.in())
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			stopwatch.Stop()
			fmt.Fprintln(out)

			return nil

		case line, ok := <-lines:
			if !ok {
				stopwatch.Stop()
				fmt.Fprintln(out)

				return nil
			}

			if quit := s.handle(stopwatch, strings.TrimSpace(line), out); quit {
				fmt.Fprintln(out)
				return nil
			}
		}
	}
}

func (s *StopwatchCmd) handle(sw *ticktock.Stopwatch, line string, out io.Writer) bool {
	switch strings.ToLower(line) {
	case "":
		if _, err := sw.Lap(); err != nil {
			fmt.Fprintln(out, dimStyle.Render("\nstopwatch is stopped, press s to start"))
		}
	case "s":
		if err := sw.Toggle(); err != nil {
			fmt.Fprintln(out, err)
		}
	case "r":
		sw.Reset()
	case "q":
		sw.Stop()
		return true
	default:
		fmt.Fprintln(out, dimStyle.Render("\nunknown command "+line))
	}

	return false
}
