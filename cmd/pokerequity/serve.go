package main

import (
	"context"
	"time"

	"github.com/lox/pokerequity/cmd/pokerequity/shared"
	"github.com/lox/pokerequity/internal/server"
)

// ServeCmd runs the HTTP API.
type ServeCmd struct {
	Addr   string `help:"Listen address (default from config)"`
	Port   int    `help:"Listen port (default from config)"`
	Record bool   `help:"Record estimates and serve /api/history"`

	SimulationFlags `embed:""`
}

func (c *ServeCmd) Run(g *Globals) error {
	cfg, logger, err := g.load()
	if err != nil {
		return err
	}
	c.SimulationFlags.apply(cfg.Simulation)
	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := shared.SetupSignalHandler(logger)
	defer stop()

	engine, db, err := buildEngine(ctx, cfg, logger, c.Record)
	if err != nil {
		return err
	}
	opts := []server.Option{
		server.WithAllowedOrigins(cfg.Server.AllowedOrigins...),
		server.WithMaxBatches(cfg.Server.MaxBatches),
		server.WithLogger(logger.With().Str("component", "server").Logger()),
	}
	if db != nil {
		defer db.Close()
		opts = append(opts, server.WithHistory(db))
	}

	s, err := server.New(cfg.ListenAddress(), engine, opts...)
	if err != nil {
		return err
	}

	logger.Info().
		Str("address", cfg.ListenAddress()).
		Str("evaluator", cfg.Simulation.Evaluator).
		Str("showdown", cfg.Simulation.Showdown).
		Int("trials_per_batch", cfg.Simulation.TrialsPerBatch).
		Int("batches", cfg.Simulation.Batches).
		Strs("allowed_origins", cfg.Server.AllowedOrigins).
		Bool("record", db != nil).
		Msg("Starting equity server")

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- s.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}
