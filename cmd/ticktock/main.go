package main

import (
	"log/slog"
	"os"
	_ "time/tzdata"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/byte4ever/ticktock/cmd/ticktock/commands"
)

func main() {
	// Values from .env feed the env fallbacks of the flags below.
	_ = godotenv.Load()

	var cli commands.CLI

	kctx := kong.Parse(&cli,
		kong.Name("ticktock"),
		kong.Description("Stopwatch, countdown timer, alarms, bedtime and world clock."),
		kong.UsageOnError(),
	)

	if err := kctx.Run(&commands.Global{}, &cli); err != nil {
		slog.Error("Command failed", "command", kctx.Command(), "error", err)
		os.Exit(1)
	}
}
