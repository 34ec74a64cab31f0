package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/byte4ever/ticktock"
)

// BedtimeCmd groups the bedtime subcommands.
type BedtimeCmd struct {
	Set   BedtimeSetCmd   `cmd:"" help:"Save sleep and wake times"`
	Show  BedtimeShowCmd  `cmd:"" default:"1" help:"Show the planned sleep"`
	Clear BedtimeClearCmd `cmd:"" help:"Forget the bedtime"`
}

// BedtimeSetCmd implements 'bedtime set'.
type BedtimeSetCmd struct {
	Sleep string `arg:"" help:"Sleep time, HH:MM"`
	Wake  string `arg:"" help:"Wake time, HH:MM"`
}

func (b *BedtimeSetCmd) Run(g *Global, root *CLI) error {
	sess, err := root.openSession(nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx := context.Background()
	planner := ticktock.NewBedtimePlanner(ctx, sess.store, sess.opts...)

	if err = planner.Save(ctx, b.Sleep, b.Wake); err != nil {
		return err
	}

	return printPlan(g, planner)
}

// BedtimeShowCmd implements 'bedtime show'.
type BedtimeShowCmd struct{}

func (b *BedtimeShowCmd) Run(g *Global, root *CLI) error {
	sess, err := root.openSession(nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	return printPlan(g, ticktock.NewBedtimePlanner(context.Background(), sess.store, sess.opts...))
}

// BedtimeClearCmd implements 'bedtime clear'.
type BedtimeClearCmd struct{}

func (b *BedtimeClearCmd) Run(g *Global, root *CLI) error {
	sess, err := root.openSession(nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx := context.Background()
	if err = ticktock.NewBedtimePlanner(ctx, sess.store, sess.opts...).Clear(ctx); err != nil {
		return err
	}

	_, err = fmt.Fprintln(g.out(), "Bedtime cleared")

	return err
}

func printPlan(g *Global, planner *ticktock.BedtimePlanner) error {
	out := g.out()

	plan, err := planner.Plan(time.Now())
	if errors.Is(err, ticktock.ErrNoBedtime) {
		_, err = fmt.Fprintln(out, dimStyle.Render("No bedtime set."))
		return err
	}

	if err != nil {
		return err
	}

	bedtime, _ := planner.Bedtime()

	fmt.Fprintln(out, titleStyle.Render("Bedtime"))
	_, err = fmt.Fprintf(out, "  sleep %s  wake %s  %s\n",
		accentStyle.Render(bedtime.Sleep),
		accentStyle.Render(bedtime.Wake),
		dimStyle.Render("Sleep Duration: "+ticktock.FormatSleepDuration(plan.Duration)))

	return err
}
