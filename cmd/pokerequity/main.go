package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Globals

	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Simulate SimulateCmd      `cmd:"" help:"Estimate showdown equity for a hand"`
	Estimate EstimateCmd      `cmd:"" help:"Quick single-batch win rate"`
	Serve    ServeCmd         `cmd:"" help:"Run the HTTP API"`
	Migrate  MigrateCmd       `cmd:"" help:"Manage the estimate history database"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("pokerequity"),
		kong.Description("Monte Carlo showdown equity for Texas hold'em"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
