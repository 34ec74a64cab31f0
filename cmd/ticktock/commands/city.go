package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/byte4ever/ticktock"
)

// CityCmd groups the world clock subcommands.
type CityCmd struct {
	Add   CityAddCmd   `cmd:"" help:"Add a city by IANA time zone"`
	List  CityListCmd  `cmd:"" default:"1" help:"Show the time in every city"`
	Rm    CityRmCmd    `cmd:"" help:"Remove a city by its list number"`
	Clear CityClearCmd `cmd:"" help:"Remove every city"`
	Zones CityZonesCmd `cmd:"" help:"List the built-in zones"`
}

// CityAddCmd implements 'city add'.
type CityAddCmd struct {
	Zone string `arg:"" help:"IANA time zone, e.g. Asia/Tokyo"`
}

func (c *CityAddCmd) Run(g *Global, root *CLI) error {
	sess, err := root.openSession(nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx := context.Background()
	world := ticktock.NewWorldClock(ctx, sess.store, sess.opts...)

	added, err := world.Add(ctx, c.Zone)
	if err != nil {
		return err
	}

	if !added {
		_, err = fmt.Fprintf(g.out(), "%s is already listed\n", c.Zone)
		return err
	}

	_, err = fmt.Fprintf(g.out(), "Added %s\n", accentStyle.Render(ticktock.CityName(c.Zone)))

	return err
}

// CityListCmd implements 'city list'.
type CityListCmd struct{}

func (c *CityListCmd) Run(g *Global, root *CLI) error {
	sess, err := root.openSession(nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	world := ticktock.NewWorldClock(context.Background(), sess.store, sess.opts...)

	out := g.out()
	fmt.Fprintln(out, titleStyle.Render("World clock"))

	readings := world.Readings(time.Now())
	if len(readings) == 0 {
		_, err = fmt.Fprintln(out, dimStyle.Render("  no cities"))
		return err
	}

	for i, r := range readings {
		fmt.Fprintf(out, "  %d. %-16s %s  %s\n",
			i+1, r.City, accentStyle.Render(r.Time), dimStyle.Render(r.Zone))
	}

	return nil
}

// CityRmCmd implements 'city rm'.
type CityRmCmd struct {
	Number int `arg:"" help:"City number as shown by 'city list'"`
}

func (c *CityRmCmd) Run(g *Global, root *CLI) error {
	sess, err := root.openSession(nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx := context.Background()
	world := ticktock.NewWorldClock(ctx, sess.store, sess.opts...)

	if err = world.Remove(ctx, parseIndex(c.Number)); err != nil {
		return err
	}

	_, err = fmt.Fprintf(g.out(), "Removed city %d\n", c.Number)

	return err
}

// CityClearCmd implements 'city clear'.
type CityClearCmd struct{}

func (c *CityClearCmd) Run(g *Global, root *CLI) error {
	sess, err := root.openSession(nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx := context.Background()
	if err = ticktock.NewWorldClock(ctx, sess.store, sess.opts...).Clear(ctx); err != nil {
		return err
	}

	_, err = fmt.Fprintln(g.out(), "Cleared all cities")

	return err
}

// CityZonesCmd implements 'city zones'.
type CityZonesCmd struct{}

func (c *CityZonesCmd) Run(g *Global, _ *CLI) error {
	out := g.out()
	fmt.Fprintln(out, titleStyle.Render("Zones"))

	for _, z := range ticktock.Zones() {
		fmt.Fprintf(out, "  %-12s %s\n", z.Label, dimStyle.Render(z.TZ))
	}

	return nil
}
