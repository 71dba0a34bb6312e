package main

import (
	"fmt"

	"github.com/lox/pokerequity/cmd/pokerequity/shared"
	"github.com/lox/pokerequity/internal/equity"
	"github.com/lox/pokerequity/poker"
)

// EstimateCmd prints a rough win rate from a single batch.
type EstimateCmd struct {
	Hand      string `arg:"" help:"Hole cards, e.g. AsKs"`
	Board     string `short:"b" help:"Community cards, e.g. 'Qs Js 2d'"`
	Opponents int    `short:"o" default:"1" help:"Number of opponents"`
	Stage     int    `help:"Street (0-5); defaults to the number of board cards"`
	Trials    int    `short:"t" help:"Trials in the batch (default from config)"`
	Seed      int64  `help:"Deterministic seed (0 picks one)"`
}

func (c *EstimateCmd) Run(g *Globals) error {
	cfg, logger, err := g.load()
	if err != nil {
		return err
	}
	spot, err := parseSpot(c.Hand, c.Board, c.Opponents, c.Stage)
	if err != nil {
		return err
	}

	ctx, stop := shared.SetupSignalHandler(logger)
	defer stop()

	engine, _, err := buildEngine(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	trials := c.Trials
	if trials == 0 {
		trials = cfg.Simulation.TrialsPerBatch
	}
	mean, err := engine.QuickEstimate(ctx, equity.Request{Spot: spot, TrialsPerBatch: trials, Seed: c.Seed})
	if err != nil {
		return err
	}

	fmt.Printf("%s vs %d: %s over %d trials\n",
		poker.Shorthand(spot.Hole[0], spot.Hole[1]), spot.Opponents, pct(mean), trials)
	return nil
}
