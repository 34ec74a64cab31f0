package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/byte4ever/ticktock"
)

// AlarmCmd groups the alarm subcommands.
type AlarmCmd struct {
	Add  AlarmAddCmd  `cmd:"" help:"Add an alarm"`
	List AlarmListCmd `cmd:"" default:"1" help:"List alarms"`
	Rm   AlarmRmCmd   `cmd:"" help:"Remove an alarm by its list number"`
	Next AlarmNextCmd `cmd:"" help:"Show when the next alarm rings"`
}

// AlarmAddCmd implements 'alarm add'.
type AlarmAddCmd struct {
	Time   string `arg:"" help:"Ring time, HH:MM (24h)"`
	Label  string `short:"l" help:"Alarm label"`
	Repeat string `short:"r" help:"Recurrence" enum:"once,daily,weekdays" default:"once"`
}

func (a *AlarmAddCmd) Run(g *Global, root *CLI) error {
	sess, err := root.openSession(nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx := context.Background()
	alarms := ticktock.NewAlarmRegistry(ctx, sess.store, nil, sess.opts...)

	added, err := alarms.Add(ctx, a.Time, a.Label, ticktock.Recurrence(a.Repeat))
	if err != nil {
		return err
	}

	if !added {
		_, err = fmt.Fprintln(g.out(), dimStyle.Render("No time given, nothing added."))
		return err
	}

	alarm := alarms.List()[alarms.Len()-1]
	_, err = fmt.Fprintf(g.out(), "Added %s %s (%s)\n",
		accentStyle.Render(alarm.Time), alarm.DisplayLabel(), alarm.Recur.Title())

	return err
}

// AlarmListCmd implements 'alarm list'.
type AlarmListCmd struct{}

func (a *AlarmListCmd) Run(g *Global, root *CLI) error {
	sess, err := root.openSession(nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	alarms := ticktock.NewAlarmRegistry(context.Background(), sess.store, nil, sess.opts...)

	out := g.out()
	fmt.Fprintln(out, titleStyle.Render("Alarms"))

	list := alarms.List()
	if len(list) == 0 {
		_, err = fmt.Fprintln(out, dimStyle.Render("  no alarms"))
		return err
	}

	now := time.Now()

	for i, alarm := range list {
		next := "-"
		if at, nextErr := alarm.NextRing(now); nextErr == nil {
			next = at.Format("Mon 15:04")
		}

		fmt.Fprintf(out, "  %d. %s  %-20s %-9s %s\n",
			i+1,
			accentStyle.Render(alarm.Time),
			alarm.DisplayLabel(),
			alarm.Recur.Title(),
			dimStyle.Render("next "+next))
	}

	return nil
}

// AlarmRmCmd implements 'alarm rm'.
type AlarmRmCmd struct {
	Number int `arg:"" help:"Alarm number as shown by 'alarm list'"`
}

func (a *AlarmRmCmd) Run(g *Global, root *CLI) error {
	sess, err := root.openSession(nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx := context.Background()
	alarms := ticktock.NewAlarmRegistry(ctx, sess.store, nil, sess.opts...)

	if err = alarms.Remove(ctx, parseIndex(a.Number)); err != nil {
		return err
	}

	_, err = fmt.Fprintf(g.out(), "Removed alarm %d\n", a.Number)

	return err
}

// AlarmNextCmd implements 'alarm next'.
type AlarmNextCmd struct{}

func (a *AlarmNextCmd) Run(g *Global, root *CLI) error {
	sess, err := root.openSession(nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	alarms := ticktock.NewAlarmRegistry(context.Background(), sess.store, nil, sess.opts...)
	now := time.Now()

	var (
		best  ticktock.Alarm
		bestT time.Time
	)

	for _, alarm := range alarms.List() {
		at, nextErr := alarm.NextRing(now)
		if nextErr != nil {
			continue
		}

		if bestT.IsZero() || at.Before(bestT) {
			best, bestT = alarm, at
		}
	}

	if bestT.IsZero() {
		_, err = fmt.Fprintln(g.out(), dimStyle.Render("No alarm scheduled."))
		return err
	}

	_, err = fmt.Fprintf(g.out(), "%s rings %s (in %s)\n",
		best.DisplayLabel(),
		accentStyle.Render(bestT.Format("Mon 15:04")),
		bestT.Sub(now).Truncate(time.Minute))

	return err
}
