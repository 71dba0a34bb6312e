package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerequity/internal/equity"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pokerequity.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.hcl"))
	require.NoError(t, err)

	assert.Equal(t, equity.DefaultTrialsPerBatch, cfg.Simulation.TrialsPerBatch)
	assert.Equal(t, equity.DefaultBatches, cfg.Simulation.Batches)
	assert.Equal(t, "native", cfg.Simulation.Evaluator)
	assert.Equal(t, "compat", cfg.Simulation.Showdown)
	assert.True(t, *cfg.Simulation.CompleteToRiver)
	assert.Equal(t, "localhost:8080", cfg.ListenAddress())
	assert.Empty(t, cfg.Store.DatabaseURL)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
simulation {
  trials_per_batch  = 250
  batches           = 40
  concurrency       = 3
  timeout           = "2s"
  seed              = 77
  evaluator         = "treys"
  showdown          = "strict"
  complete_to_river = false
}

server {
  port            = 9000
  allowed_origins = ["http://example.com"]
}

store {
  database_url = "postgres://localhost/equity"
}
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	s := cfg.Simulation
	assert.Equal(t, 250, s.TrialsPerBatch)
	assert.Equal(t, 40, s.Batches)
	assert.Equal(t, 3, s.Concurrency)
	assert.Equal(t, int64(77), s.Seed)
	assert.False(t, *s.CompleteToRiver)

	timeout, err := s.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, timeout)

	assert.Equal(t, "localhost:9000", cfg.ListenAddress())
	assert.Equal(t, []string{"http://example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, "postgres://localhost/equity", cfg.Store.DatabaseURL)

	runner, err := s.NewRunner()
	require.NoError(t, err)
	assert.Equal(t, "treys", runner.Evaluator().Name())
	assert.Equal(t, equity.ShowdownStrict, runner.Showdown())
	assert.Equal(t, 3, runner.BoardTarget(equity.Spot{}))
}

func TestLoadSampleConfig(t *testing.T) {
	cfg, err := Load("pokerequity.hcl")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.ListenAddress())
	assert.Equal(t, 25000, cfg.Server.MaxBatches)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string]string{
		"bad syntax":        `simulation {`,
		"unknown attribute": `simulation { trials = 3 }`,
		"negative batches":  `simulation { batches = -1 }`,
		"bad timeout":       `simulation { timeout = "soon" }`,
		"unknown evaluator": `simulation { evaluator = "magic" }`,
		"unknown showdown":  `simulation { showdown = "split" }`,
		"floor too high":    `simulation { degenerate_floor = 9000 }`,
		"port out of range": `server { port = 70000 }`,
		"bad log level":     `server { log_level = "loud" }`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestDatabaseURLFromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env/equity")
	cfg := Default()
	assert.Equal(t, "postgres://env/equity", cfg.Store.DatabaseURL)
}
