package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/lox/pokerequity/cmd/pokerequity/shared"
	"github.com/lox/pokerequity/internal/equity"
	"github.com/lox/pokerequity/internal/fileutil"
	"github.com/lox/pokerequity/internal/server"
)

// SimulateCmd runs a full simulation and prints the report.
type SimulateCmd struct {
	Hand      string  `arg:"" help:"Hole cards, e.g. AsKs"`
	Board     string  `short:"b" help:"Community cards, e.g. 'Qs Js 2d'"`
	Opponents int     `short:"o" default:"1" help:"Number of opponents"`
	Stage     int     `help:"Street (0-5); defaults to the number of board cards"`
	Risk      float64 `short:"r" default:"0.5" help:"Risk tolerance passed to the raise advisor"`

	SimulationFlags `embed:""`

	Progress  bool   `short:"p" help:"Show a live progress bar"`
	Histogram bool   `negatable:"" default:"true" help:"Show the wins-per-batch histogram"`
	NoColor   bool   `help:"Disable colored output"`
	JSON      bool   `help:"Print the report as JSON"`
	Output    string `short:"O" type:"path" help:"Also write the JSON report to this file"`
	Record    bool   `help:"Store the estimate in the history database"`
}

func (c *SimulateCmd) Run(g *Globals) error {
	cfg, logger, err := g.load()
	if err != nil {
		return err
	}
	c.SimulationFlags.apply(cfg.Simulation)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if c.NoColor || termenv.EnvNoColor() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	spot, err := parseSpot(c.Hand, c.Board, c.Opponents, c.Stage)
	if err != nil {
		return err
	}

	ctx, stop := shared.SetupSignalHandler(logger)
	defer stop()

	engine, db, err := buildEngine(ctx, cfg, logger, c.Record)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	req := equity.Request{Spot: spot, Risk: c.Risk, Seed: cfg.Simulation.Seed}
	var rep *equity.Report
	run := func(progress equity.ProgressFunc) {
		req.Progress = progress
		rep, err = engine.Estimate(ctx, req)
	}
	if c.Progress && !c.JSON {
		if perr := runWithProgress(stop, run); perr != nil {
			return perr
		}
	} else {
		run(nil)
	}

	var partial *equity.PartialError
	if err != nil && !errors.As(err, &partial) {
		return err
	}
	if partial != nil {
		logger.Warn().Err(partial).Msg("Simulation stopped early")
	}

	res := server.SimulateResponseFrom(rep)
	if c.Output != "" {
		if err := fileutil.WriteJSONAtomic(c.Output, res); err != nil {
			return err
		}
		logger.Info().Str("path", c.Output).Msg("Report written")
	}
	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	fmt.Print(renderReport(spot, rep))
	if c.Histogram {
		fmt.Println()
		fmt.Print(renderHistogram(rep.Wins, rep.TrialsPerBatch))
	}
	return nil
}
