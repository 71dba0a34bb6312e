// Package config loads the HCL configuration shared by the CLI and server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/pokerequity/internal/equity"
	"github.com/lox/pokerequity/internal/handeval"
)

// Config is the complete configuration file.
type Config struct {
	Simulation *Simulation `hcl:"simulation,block"`
	Server     *Server     `hcl:"server,block"`
	Advisor    *Advisor    `hcl:"advisor,block"`
	Store      *Store      `hcl:"store,block"`
}

// Simulation controls how estimates are computed.
type Simulation struct {
	TrialsPerBatch int    `hcl:"trials_per_batch,optional"`
	Batches        int    `hcl:"batches,optional"`
	Concurrency    int    `hcl:"concurrency,optional"`
	Timeout        string `hcl:"timeout,optional"`
	Seed           int64  `hcl:"seed,optional"`
	Evaluator      string `hcl:"evaluator,optional"`
	Showdown       string `hcl:"showdown,optional"`
	// CompleteToRiver is a pointer so an explicit false survives defaulting.
	CompleteToRiver *bool `hcl:"complete_to_river,optional"`
	DegenerateFloor int   `hcl:"degenerate_floor,optional"`
}

// Server configures the HTTP API.
type Server struct {
	Address        string   `hcl:"address,optional"`
	Port           int      `hcl:"port,optional"`
	LogLevel       string   `hcl:"log_level,optional"`
	AllowedOrigins []string `hcl:"allowed_origins,optional"`
	MaxBatches     int      `hcl:"max_batches,optional"`
}

// Advisor points at the raise advisory model.
type Advisor struct {
	Model string `hcl:"model,optional"`
}

// Store configures the estimate history database.
type Store struct {
	DatabaseURL string `hcl:"database_url,optional"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads configuration from an HCL file. A missing file yields the
// defaults. Values left unset in the file are defaulted, and the result is
// validated.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Simulation == nil {
		c.Simulation = &Simulation{}
	}
	if c.Server == nil {
		c.Server = &Server{}
	}
	if c.Advisor == nil {
		c.Advisor = &Advisor{}
	}
	if c.Store == nil {
		c.Store = &Store{}
	}

	s := c.Simulation
	if s.TrialsPerBatch == 0 {
		s.TrialsPerBatch = equity.DefaultTrialsPerBatch
	}
	if s.Batches == 0 {
		s.Batches = equity.DefaultBatches
	}
	if s.Evaluator == "" {
		s.Evaluator = "native"
	}
	if s.Showdown == "" {
		s.Showdown = equity.ShowdownCompat.String()
	}
	if s.CompleteToRiver == nil {
		river := true
		s.CompleteToRiver = &river
	}

	if c.Server.Address == "" {
		c.Server.Address = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.MaxBatches == 0 {
		c.Server.MaxBatches = 10 * equity.DefaultBatches
	}
	if c.Store.DatabaseURL == "" {
		c.Store.DatabaseURL = os.Getenv("DATABASE_URL")
	}
}

// Validate checks the configuration for values the engine cannot use.
func (c *Config) Validate() error {
	s := c.Simulation
	if s.TrialsPerBatch < 1 {
		return fmt.Errorf("simulation: trials_per_batch must be positive, got %d", s.TrialsPerBatch)
	}
	if s.Batches < 1 {
		return fmt.Errorf("simulation: batches must be positive, got %d", s.Batches)
	}
	if s.Concurrency < 0 {
		return fmt.Errorf("simulation: concurrency cannot be negative, got %d", s.Concurrency)
	}
	if _, err := s.TimeoutDuration(); err != nil {
		return err
	}
	if _, err := handeval.New(s.Evaluator); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	if _, err := equity.ParseShowdown(s.Showdown); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	if s.DegenerateFloor < 0 || s.DegenerateFloor > 7462 {
		return fmt.Errorf("simulation: degenerate_floor must be between 0 and 7462, got %d", s.DegenerateFloor)
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server: invalid port: %d", c.Server.Port)
	}
	if c.Server.MaxBatches < 1 {
		return fmt.Errorf("server: max_batches must be positive, got %d", c.Server.MaxBatches)
	}
	switch strings.ToLower(c.Server.LogLevel) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("server: invalid log_level %q", c.Server.LogLevel)
	}
	return nil
}

// TimeoutDuration parses the simulation timeout. An empty value means no
// timeout.
func (s *Simulation) TimeoutDuration() (time.Duration, error) {
	if s.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0, fmt.Errorf("simulation: invalid timeout %q: %w", s.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("simulation: timeout cannot be negative, got %s", s.Timeout)
	}
	return d, nil
}

// NewRunner builds the trial runner described by the simulation block.
func (s *Simulation) NewRunner() (*equity.Runner, error) {
	eval, err := handeval.New(s.Evaluator)
	if err != nil {
		return nil, err
	}
	showdown, err := equity.ParseShowdown(s.Showdown)
	if err != nil {
		return nil, err
	}
	river := s.CompleteToRiver == nil || *s.CompleteToRiver
	return equity.NewRunner(eval,
		equity.WithShowdown(showdown),
		equity.WithCompleteToRiver(river),
		equity.WithDegenerateFloor(handeval.Rank(s.DegenerateFloor)),
	), nil
}

// ListenAddress returns host:port for the HTTP server.
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
