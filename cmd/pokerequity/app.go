package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lox/pokerequity/cmd/pokerequity/shared"
	"github.com/lox/pokerequity/internal/advisor"
	"github.com/lox/pokerequity/internal/config"
	"github.com/lox/pokerequity/internal/equity"
	"github.com/lox/pokerequity/internal/store"
	"github.com/lox/pokerequity/poker"
)

// Globals are flags shared by every command.
type Globals struct {
	Config  string `short:"c" default:"pokerequity.hcl" type:"path" help:"HCL configuration file"`
	Debug   bool   `help:"Enable debug logging"`
	LogJSON bool   `name:"log-json" help:"Log structured JSON instead of console output"`
}

func (g *Globals) load() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	level, err := shared.ResolveLevel(cfg.Server.LogLevel, g.Debug)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if g.LogJSON {
		return cfg, shared.SetupStructuredLogger(level), nil
	}
	return cfg, shared.SetupLogger(level), nil
}

// SimulationFlags override the simulation block of the config file.
type SimulationFlags struct {
	Trials      int           `short:"t" help:"Trials per batch (default from config)"`
	Batches     int           `short:"n" help:"Number of batches (default from config)"`
	Concurrency int           `short:"j" help:"Worker count (default: all CPUs)"`
	Seed        int64         `help:"Deterministic seed (0 picks one)"`
	Timeout     time.Duration `help:"Stop after this long and report the batches completed so far"`
	Evaluator   string        `help:"Hand evaluator (native or treys)"`
	Showdown    string        `help:"Showdown rule (compat or strict)"`
	Street      bool          `help:"Deal the board only to the current street instead of the river"`
}

func (f SimulationFlags) apply(s *config.Simulation) {
	if f.Trials > 0 {
		s.TrialsPerBatch = f.Trials
	}
	if f.Batches > 0 {
		s.Batches = f.Batches
	}
	if f.Concurrency > 0 {
		s.Concurrency = f.Concurrency
	}
	if f.Seed != 0 {
		s.Seed = f.Seed
	}
	if f.Timeout > 0 {
		s.Timeout = f.Timeout.String()
	}
	if f.Evaluator != "" {
		s.Evaluator = f.Evaluator
	}
	if f.Showdown != "" {
		s.Showdown = f.Showdown
	}
	if f.Street {
		river := false
		s.CompleteToRiver = &river
	}
}

// buildEngine wires the configured runner, orchestrator and advisor. When
// record is set it also opens the history store, which the caller closes.
func buildEngine(ctx context.Context, cfg *config.Config, logger zerolog.Logger, record bool) (*equity.Engine, *store.Store, error) {
	runner, err := cfg.Simulation.NewRunner()
	if err != nil {
		return nil, nil, err
	}
	timeout, err := cfg.Simulation.TimeoutDuration()
	if err != nil {
		return nil, nil, err
	}
	adv, err := advisor.LoadOnce(cfg.Advisor.Model)
	if err != nil {
		return nil, nil, err
	}

	orch := equity.NewOrchestrator(runner,
		equity.WithConcurrency(cfg.Simulation.Concurrency),
		equity.WithLogger(logger.With().Str("component", "orchestrator").Logger()),
	)
	opts := []equity.EngineOption{
		equity.WithDefaults(equity.Defaults{
			TrialsPerBatch: cfg.Simulation.TrialsPerBatch,
			Batches:        cfg.Simulation.Batches,
			Timeout:        timeout,
		}),
		equity.WithEngineLogger(logger.With().Str("component", "engine").Logger()),
	}

	var db *store.Store
	if record {
		if cfg.Store.DatabaseURL == "" {
			return nil, nil, errors.New("recording estimates needs store.database_url or DATABASE_URL")
		}
		if db, err = store.Open(ctx, cfg.Store.DatabaseURL); err != nil {
			return nil, nil, err
		}
		opts = append(opts, equity.WithRecorder(db))
	}

	logger.Debug().
		Str("evaluator", runner.Evaluator().Name()).
		Str("showdown", runner.Showdown().String()).
		Bool("advisor", cfg.Advisor.Model != "").
		Bool("record", record).
		Msg("Engine ready")
	return equity.NewEngine(orch, adv, opts...), db, nil
}

// parseSpot builds a spot from "AsKs" style hole cards and an optional
// board.
func parseSpot(hand, board string, opponents, stage int) (equity.Spot, error) {
	hole, err := poker.ParseCards(hand)
	if err != nil {
		return equity.Spot{}, fmt.Errorf("hand: %w", err)
	}
	if len(hole) != 2 {
		return equity.Spot{}, fmt.Errorf("%w: hand needs exactly 2 cards, got %d", equity.ErrInvalidHand, len(hole))
	}
	var cards []poker.Card
	if board != "" {
		if cards, err = poker.ParseCards(board); err != nil {
			return equity.Spot{}, fmt.Errorf("board: %w", err)
		}
	}
	if stage == 0 {
		stage = len(cards)
	}
	return equity.Spot{
		Hole:      [2]poker.Card{hole[0], hole[1]},
		Board:     cards,
		Opponents: opponents,
		Stage:     stage,
	}, nil
}
