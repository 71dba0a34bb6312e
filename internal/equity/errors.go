package equity

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHand reports malformed hole cards or board: wrong card
	// counts, unknown cards, or a card used twice.
	ErrInvalidHand = errors.New("invalid hand")

	// ErrInsufficientDeck reports that the remaining deck cannot complete the
	// board and deal every opponent two cards.
	ErrInsufficientDeck = errors.New("insufficient cards in deck")

	// ErrInvalidJob reports non-positive batch or trial counts.
	ErrInvalidJob = errors.New("invalid simulation job")

	// ErrWorkerFailure reports a batch that failed on both of its attempts.
	ErrWorkerFailure = errors.New("worker failure")

	// ErrDegenerateDistribution reports that there are no batch results to
	// summarize.
	ErrDegenerateDistribution = errors.New("no batch results to summarize")

	// ErrDeadlineExceeded is the cause attached to results cut short by the
	// simulation timeout.
	ErrDeadlineExceeded = errors.New("simulation deadline exceeded")
)

// SimulationError is returned when a batch fails after its retry.
type SimulationError struct {
	Batch    int
	Attempts int
	Err      error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("batch %d failed after %d attempts: %v", e.Batch, e.Attempts, e.Err)
}

func (e *SimulationError) Unwrap() []error {
	return []error{ErrWorkerFailure, e.Err}
}

// PartialError accompanies a result that stopped early. The result is still
// usable; it just covers fewer batches than requested.
type PartialError struct {
	Completed int
	Requested int
	Cause     error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("simulation stopped after %d of %d batches: %v", e.Completed, e.Requested, e.Cause)
}

func (e *PartialError) Unwrap() error {
	return e.Cause
}
