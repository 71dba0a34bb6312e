package equity

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lox/pokerequity/internal/randutil"
)

// BatchRunner plays one batch of trials. Implementations must be safe to call
// from several goroutines, each with its own rng.
type BatchRunner interface {
	RunBatch(rng *rand.Rand, spot Spot, trials int) (int, error)
}

// ProgressFunc is told how many batches have completed so far.
type ProgressFunc func(completed, requested int)

// Job describes one simulation.
type Job struct {
	Spot           Spot
	TrialsPerBatch int
	Batches        int
	// Seed roots every batch's random stream. Zero picks a fresh seed.
	Seed int64
	// Timeout stops dispatching new batches once elapsed. Zero disables it.
	Timeout  time.Duration
	Progress ProgressFunc
}

// Result is the outcome of a simulation. Batches holds per-batch win counts
// in completion order.
type Result struct {
	Batches        []int
	Requested      int
	TrialsPerBatch int
	Partial        bool
	Retries        int
	Seed           int64
	Elapsed        time.Duration
}

// Orchestrator fans batches out to a bounded pool of workers and gathers
// their win counts.
type Orchestrator struct {
	runner      BatchRunner
	concurrency int
	clock       quartz.Clock
	logger      zerolog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithConcurrency caps the number of workers. Values below one use
// runtime.NumCPU.
func WithConcurrency(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithClock sets the clock used for timeouts and elapsed time.
func WithClock(c quartz.Clock) OrchestratorOption {
	return func(o *Orchestrator) { o.clock = c }
}

// WithLogger sets the orchestrator's logger.
func WithLogger(l zerolog.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = l }
}

// NewOrchestrator creates an orchestrator around runner.
func NewOrchestrator(runner BatchRunner, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		runner:      runner,
		concurrency: runtime.NumCPU(),
		clock:       quartz.NewReal(),
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type task struct {
	batch   int
	attempt int
	avoid   int // worker that already failed this batch, or -1
}

type outcome struct {
	task   task
	worker int
	wins   int
	err    error
}

// Simulate runs job.Batches batches across min(concurrency, batches)
// workers.
//
// A batch that fails is retried once on a different worker; a second failure
// aborts the simulation with a *SimulationError. Invalid spots fail before
// anything is dispatched. When ctx is cancelled or the timeout fires, no
// further batches are dispatched, batches still running are discarded, and
// the batches completed so far are returned together with a *PartialError.
func (o *Orchestrator) Simulate(ctx context.Context, job Job) (*Result, error) {
	if job.TrialsPerBatch <= 0 || job.Batches <= 0 {
		return nil, fmt.Errorf("%w: %d batches of %d trials", ErrInvalidJob, job.Batches, job.TrialsPerBatch)
	}
	if v, ok := o.runner.(interface{ Validate(Spot) error }); ok {
		if err := v.Validate(job.Spot); err != nil {
			return nil, err
		}
	}

	seed := job.Seed
	if seed == 0 {
		seed = randutil.Seed()
	}
	workers := min(o.concurrency, job.Batches)
	start := o.clock.Now()

	logger := o.logger.With().Int64("seed", seed).Logger()
	logger.Debug().
		Int("batches", job.Batches).
		Int("trials_per_batch", job.TrialsPerBatch).
		Int("opponents", job.Spot.Opponents).
		Int("workers", workers).
		Msg("Simulation starting")

	var expired <-chan struct{}
	if job.Timeout > 0 {
		ch := make(chan struct{})
		timer := o.clock.AfterFunc(job.Timeout, func() { close(ch) })
		defer timer.Stop()
		expired = ch
	}

	// One outcome slot per worker: a worker finishing after an early return
	// can always deliver and exit.
	inboxes := make([]chan task, workers)
	outcomes := make(chan outcome, workers)
	var g errgroup.Group
	for w := range inboxes {
		inboxes[w] = make(chan task)
		g.Go(func() error {
			for t := range inboxes[w] {
				wins, err := o.runTask(job, seed, t)
				outcomes <- outcome{task: t, worker: w, wins: wins, err: err}
			}
			return nil
		})
	}
	stopWorkers := sync.OnceFunc(func() {
		for _, in := range inboxes {
			close(in)
		}
	})
	defer stopWorkers()

	d := &dispatcher{workers: workers, total: job.Batches}
	for w := workers - 1; w >= 0; w-- {
		d.idle = append(d.idle, w)
	}
	res := &Result{
		Batches:        make([]int, 0, job.Batches),
		Requested:      job.Batches,
		TrialsPerBatch: job.TrialsPerBatch,
		Seed:           seed,
	}

	for len(res.Batches) < job.Batches {
		if err := ctx.Err(); err != nil {
			return o.partial(logger, res, start, err)
		}
		select {
		case <-expired:
			return o.partial(logger, res, start, ErrDeadlineExceeded)
		default:
		}

		for {
			w, t, ok := d.assign()
			if !ok {
				break
			}
			inboxes[w] <- t
		}

		select {
		case <-ctx.Done():
			return o.partial(logger, res, start, ctx.Err())
		case <-expired:
			return o.partial(logger, res, start, ErrDeadlineExceeded)
		case out := <-outcomes:
			d.idle = append(d.idle, out.worker)
			if out.err != nil {
				if errors.Is(out.err, ErrInvalidHand) || errors.Is(out.err, ErrInsufficientDeck) || errors.Is(out.err, ErrInvalidJob) {
					return nil, out.err
				}
				if out.task.attempt > 0 {
					logger.Error().Err(out.err).Int("batch", out.task.batch).Msg("Batch failed twice, aborting simulation")
					return nil, &SimulationError{Batch: out.task.batch, Attempts: out.task.attempt + 1, Err: out.err}
				}
				logger.Warn().Err(out.err).Int("batch", out.task.batch).Int("worker", out.worker).Msg("Batch failed, retrying")
				res.Retries++
				d.retries = append(d.retries, task{batch: out.task.batch, attempt: 1, avoid: out.worker})
				continue
			}
			res.Batches = append(res.Batches, out.wins)
			if job.Progress != nil {
				job.Progress(len(res.Batches), job.Batches)
			}
		}
	}

	stopWorkers()
	_ = g.Wait()
	res.Elapsed = o.clock.Since(start)
	logger.Debug().
		Int("batches", len(res.Batches)).
		Int("retries", res.Retries).
		Dur("elapsed", res.Elapsed).
		Msg("Simulation complete")
	return res, nil
}

func (o *Orchestrator) partial(logger zerolog.Logger, res *Result, start time.Time, cause error) (*Result, error) {
	res.Partial = true
	res.Elapsed = o.clock.Since(start)
	if len(res.Batches) == 0 {
		return nil, fmt.Errorf("%w: stopped before any batch completed: %w", ErrDegenerateDistribution, cause)
	}
	logger.Info().
		Err(cause).
		Int("completed", len(res.Batches)).
		Int("requested", res.Requested).
		Msg("Simulation stopped early")
	return res, &PartialError{Completed: len(res.Batches), Requested: res.Requested, Cause: cause}
}

// runTask runs one batch attempt on a stream derived from the root seed, the
// batch index and the attempt, so a retry never replays the failed stream.
func (o *Orchestrator) runTask(job Job, seed int64, t task) (wins int, err error) {
	defer func() {
		if r := recover(); r != nil {
			wins, err = 0, fmt.Errorf("%w: batch %d panicked: %v", ErrWorkerFailure, t.batch, r)
		}
	}()

	rng := randutil.New(randutil.Derive(seed, t.batch, t.attempt))
	wins, err = o.runner.RunBatch(rng, job.Spot, job.TrialsPerBatch)
	if err == nil && (wins < 0 || wins > job.TrialsPerBatch) {
		err = fmt.Errorf("%w: batch %d reported %d wins from %d trials", ErrWorkerFailure, t.batch, wins, job.TrialsPerBatch)
	}
	return wins, err
}

// dispatcher tracks which workers are idle and which batches still need one.
type dispatcher struct {
	workers int
	total   int
	next    int
	idle    []int
	retries []task
}

// assign pairs an idle worker with the next piece of work. Retries go first
// and avoid the worker that failed them unless it is the only one.
func (d *dispatcher) assign() (int, task, bool) {
	for i, t := range d.retries {
		for j := len(d.idle) - 1; j >= 0; j-- {
			if w := d.idle[j]; w != t.avoid || d.workers == 1 {
				d.retries = slices.Delete(d.retries, i, i+1)
				d.idle = slices.Delete(d.idle, j, j+1)
				return w, t, true
			}
		}
	}
	if d.next >= d.total || len(d.idle) == 0 {
		return 0, task{}, false
	}
	w := d.idle[len(d.idle)-1]
	d.idle = d.idle[:len(d.idle)-1]
	t := task{batch: d.next, avoid: -1}
	d.next++
	return w, t, true
}
