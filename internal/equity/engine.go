package equity

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lox/pokerequity/internal/advisor"
)

// Default batch shape when a request leaves it unset.
const (
	DefaultTrialsPerBatch = 100
	DefaultBatches        = 2500
)

// Request asks for an equity estimate.
type Request struct {
	Spot
	// Risk is the caller's risk tolerance passed to the advisor.
	Risk           float64
	TrialsPerBatch int
	Batches        int
	Seed           int64
	Timeout        time.Duration
	Progress       ProgressFunc
}

// Report is the answer to a Request.
type Report struct {
	ID uuid.UUID
	Summary
	// StakeFraction is the advisor's suggestion, never negative.
	StakeFraction float64
	Partial       bool
	Requested     int
	Retries       int
	Seed          int64
	Elapsed       time.Duration
	// Wins holds each completed batch's win count.
	Wins      []int
	CreatedAt time.Time
}

// Recorder persists finished reports.
type Recorder interface {
	RecordEstimate(ctx context.Context, req Request, rep *Report) error
}

// Defaults fill in unset request fields.
type Defaults struct {
	TrialsPerBatch int
	Batches        int
	Timeout        time.Duration
}

// Engine runs simulations and turns them into reports.
type Engine struct {
	orch     *Orchestrator
	advisor  advisor.Advisor
	defaults Defaults
	recorder Recorder
	logger   zerolog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithDefaults overrides the default batch shape and timeout.
func WithDefaults(d Defaults) EngineOption {
	return func(e *Engine) {
		if d.TrialsPerBatch > 0 {
			e.defaults.TrialsPerBatch = d.TrialsPerBatch
		}
		if d.Batches > 0 {
			e.defaults.Batches = d.Batches
		}
		if d.Timeout > 0 {
			e.defaults.Timeout = d.Timeout
		}
	}
}

// WithRecorder stores every report produced by Estimate.
func WithRecorder(r Recorder) EngineOption {
	return func(e *Engine) { e.recorder = r }
}

// WithEngineLogger sets the engine's logger.
func WithEngineLogger(l zerolog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine. A nil advisor suggests nothing. Reports are
// stamped with the orchestrator's clock.
func NewEngine(orch *Orchestrator, adv advisor.Advisor, opts ...EngineOption) *Engine {
	if adv == nil {
		adv = advisor.None
	}
	e := &Engine{
		orch:    orch,
		advisor: adv,
		defaults: Defaults{
			TrialsPerBatch: DefaultTrialsPerBatch,
			Batches:        DefaultBatches,
		},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) withDefaults(req Request) Request {
	if req.TrialsPerBatch == 0 {
		req.TrialsPerBatch = e.defaults.TrialsPerBatch
	}
	if req.Batches == 0 {
		req.Batches = e.defaults.Batches
	}
	if req.Timeout == 0 {
		req.Timeout = e.defaults.Timeout
	}
	return req
}

// Estimate simulates req and summarizes the result. A run cut short by
// cancellation or timeout still returns a report, marked Partial, alongside
// the *PartialError.
func (e *Engine) Estimate(ctx context.Context, req Request) (*Report, error) {
	req = e.withDefaults(req)
	res, err := e.orch.Simulate(ctx, Job{
		Spot:           req.Spot,
		TrialsPerBatch: req.TrialsPerBatch,
		Batches:        req.Batches,
		Seed:           req.Seed,
		Timeout:        req.Timeout,
		Progress:       req.Progress,
	})
	var partial *PartialError
	if err != nil && !errors.As(err, &partial) {
		return nil, err
	}

	summary, serr := Summarize(res.Batches, req.TrialsPerBatch, req.Opponents)
	if serr != nil {
		return nil, serr
	}

	stake := e.advisor.Advise(summary.Mean, req.Risk)
	if stake < 0 || math.IsNaN(stake) {
		stake = 0
	}

	rep := &Report{
		ID:            uuid.New(),
		Summary:       summary,
		StakeFraction: stake,
		Partial:       res.Partial,
		Requested:     res.Requested,
		Retries:       res.Retries,
		Seed:          res.Seed,
		Elapsed:       res.Elapsed,
		Wins:          res.Batches,
		CreatedAt:     e.orch.clock.Now().UTC(),
	}

	e.logger.Debug().
		Str("id", rep.ID.String()).
		Float64("mean", rep.Mean).
		Float64("sd", rep.StdDev).
		Float64("breakeven", rep.Breakeven).
		Bool("partial", rep.Partial).
		Msg("Estimate complete")

	if e.recorder != nil {
		if rerr := e.recorder.RecordEstimate(context.WithoutCancel(ctx), req, rep); rerr != nil {
			e.logger.Warn().Err(rerr).Str("id", rep.ID.String()).Msg("Failed to record estimate")
		}
	}
	return rep, err
}

// QuickEstimate runs a single batch and returns its win rate. It is a rough
// first guess, cheap enough to answer before a full Estimate.
func (e *Engine) QuickEstimate(ctx context.Context, req Request) (float64, error) {
	req = e.withDefaults(req)
	res, err := e.orch.Simulate(ctx, Job{
		Spot:           req.Spot,
		TrialsPerBatch: req.TrialsPerBatch,
		Batches:        1,
		Seed:           req.Seed,
		Timeout:        req.Timeout,
	})
	if err != nil {
		return 0, err
	}
	summary, err := Summarize(res.Batches, req.TrialsPerBatch, req.Opponents)
	if err != nil {
		return 0, err
	}
	return summary.Mean, nil
}
