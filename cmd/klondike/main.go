package main

import (
	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version      kong.VersionFlag `short:"v" help:"Show version"`
	Play         PlayCmd          `cmd:"" default:"withargs" help:"Play Klondike in the terminal"`
	Serve        ServeCmd         `cmd:"" help:"Run the game session server"`
	Deal         DealCmd          `cmd:"" help:"Print a dealt board and its game id"`
	ShuffleCheck ShuffleCheckCmd  `cmd:"shuffle-check" help:"Check that shuffles are uniform"`
}

func main() {
	// KLONDIKE_* settings may come from a .env file
	_ = godotenv.Load()

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("klondike"),
		kong.Description("Klondike solitaire for the terminal and the browser"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
