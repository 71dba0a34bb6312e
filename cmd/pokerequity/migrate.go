package main

import (
	"errors"

	"github.com/lox/pokerequity/internal/store"
)

// MigrateCmd applies or rolls back the history schema.
type MigrateCmd struct {
	Action      string `arg:"" optional:"" enum:"up,down,status" default:"up" help:"up, down or status"`
	Steps       int    `default:"1" help:"Migrations to roll back with down"`
	DatabaseURL string `name:"database-url" help:"Database URL (default from config or DATABASE_URL)"`
}

func (c *MigrateCmd) Run(g *Globals) error {
	cfg, logger, err := g.load()
	if err != nil {
		return err
	}
	url := c.DatabaseURL
	if url == "" {
		url = cfg.Store.DatabaseURL
	}
	if url == "" {
		return errors.New("no database configured: set store.database_url, DATABASE_URL or --database-url")
	}

	switch c.Action {
	case "down":
		if err := store.MigrateDown(url, c.Steps); err != nil {
			return err
		}
		logger.Info().Int("steps", c.Steps).Msg("Rolled back migrations")
		fallthrough
	case "status":
		version, dirty, err := store.MigrationStatus(url)
		if err != nil {
			return err
		}
		logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("Migration status")
	default:
		version, err := store.MigrateUp(url)
		if err != nil {
			return err
		}
		logger.Info().Uint("version", version).Msg("Migrations applied")
	}
	return nil
}
