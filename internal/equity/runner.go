package equity

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/lox/pokerequity/internal/handeval"
	"github.com/lox/pokerequity/poker"
)

// Showdown selects how a trial's winner is decided.
type Showdown int

const (
	// ShowdownCompat counts the player as winning unless an opponent ranks
	// strictly better, and stops scanning opponents as soon as one of them
	// holds a hand below the evaluator's degenerate floor, counting that
	// trial as a win.
	ShowdownCompat Showdown = iota
	// ShowdownStrict compares the player against every opponent.
	ShowdownStrict
)

func (s Showdown) String() string {
	switch s {
	case ShowdownCompat:
		return "compat"
	case ShowdownStrict:
		return "strict"
	default:
		return fmt.Sprintf("showdown(%d)", int(s))
	}
}

// ParseShowdown parses "compat" or "strict".
func ParseShowdown(s string) (Showdown, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "compat":
		return ShowdownCompat, nil
	case "strict":
		return ShowdownStrict, nil
	default:
		return 0, fmt.Errorf("unknown showdown rule %q (want compat or strict)", s)
	}
}

// Spot is the situation being simulated.
type Spot struct {
	Hole      [2]poker.Card
	Board     []poker.Card
	Opponents int
	// Stage is the street the hand is on (0-5). It only matters when the
	// runner is not completing boards to the river.
	Stage int
}

// Runner plays out batches of independent trials for a spot.
type Runner struct {
	eval            handeval.Evaluator
	showdown        Showdown
	completeToRiver bool
	floor           handeval.Rank
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithShowdown sets the showdown rule.
func WithShowdown(s Showdown) RunnerOption {
	return func(r *Runner) { r.showdown = s }
}

// WithCompleteToRiver controls whether boards are always dealt to five
// cards. When false the board is dealt to max(stage, len(board), 3).
func WithCompleteToRiver(v bool) RunnerOption {
	return func(r *Runner) { r.completeToRiver = v }
}

// WithDegenerateFloor overrides the evaluator's degenerate floor. Zero keeps
// the evaluator's value.
func WithDegenerateFloor(floor handeval.Rank) RunnerOption {
	return func(r *Runner) {
		if floor > 0 {
			r.floor = floor
		}
	}
}

// NewRunner creates a runner. It defaults to the compat showdown rule and
// full boards.
func NewRunner(eval handeval.Evaluator, opts ...RunnerOption) *Runner {
	r := &Runner{
		eval:            eval,
		showdown:        ShowdownCompat,
		completeToRiver: true,
		floor:           eval.DegenerateFloor(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Evaluator returns the evaluator the runner ranks hands with.
func (r *Runner) Evaluator() handeval.Evaluator { return r.eval }

// Showdown returns the runner's showdown rule.
func (r *Runner) Showdown() Showdown { return r.showdown }

// BoardTarget returns how many board cards each trial plays with.
func (r *Runner) BoardTarget(s Spot) int {
	if r.completeToRiver {
		return 5
	}
	return min(max(s.Stage, len(s.Board), 3), 5)
}

// Validate checks a spot without dealing anything.
func (r *Runner) Validate(s Spot) error {
	_, err := r.known(s)
	return err
}

// known validates s and returns the cards already out of the deck.
func (r *Runner) known(s Spot) (poker.Hand, error) {
	if len(s.Board) > 5 {
		return 0, fmt.Errorf("%w: board has %d cards, at most 5 allowed", ErrInvalidHand, len(s.Board))
	}
	if s.Stage < 0 || s.Stage > 5 {
		return 0, fmt.Errorf("%w: stage %d outside 0-5", ErrInvalidHand, s.Stage)
	}
	if s.Opponents < 0 {
		return 0, fmt.Errorf("%w: negative opponent count %d", ErrInvalidHand, s.Opponents)
	}

	var used poker.Hand
	for _, c := range append(s.Hole[:], s.Board...) {
		if !c.Valid() {
			return 0, fmt.Errorf("%w: unknown card %#x", ErrInvalidHand, uint64(c))
		}
		if used.HasCard(c) {
			return 0, fmt.Errorf("%w: %s appears more than once", ErrInvalidHand, c)
		}
		used.AddCard(c)
	}

	need := r.BoardTarget(s) - len(s.Board) + 2*s.Opponents
	if left := 52 - used.CountCards(); need > left {
		return 0, fmt.Errorf("%w: need %d cards for the board and %d opponents, %d left",
			ErrInsufficientDeck, need, s.Opponents, left)
	}
	return used, nil
}

// RunBatch plays trials independent showdowns and returns how many the
// player won. The same rng state and spot always give the same count.
func (r *Runner) RunBatch(rng *rand.Rand, s Spot, trials int) (int, error) {
	if trials <= 0 {
		return 0, fmt.Errorf("%w: trials per batch must be positive, got %d", ErrInvalidJob, trials)
	}
	used, err := r.known(s)
	if err != nil {
		return 0, err
	}

	hole := poker.NewHand(s.Hole[:]...)
	target := r.BoardTarget(s)
	deck := poker.NewDeckWithout(rng, used)
	opponents := make([]poker.Hand, s.Opponents)

	wins := 0
	for range trials {
		deck.Reset(used)
		board, err := r.deal(deck, s.Board, target, opponents)
		if err != nil {
			return 0, err
		}
		if r.playerWins(hole, board, opponents) {
			wins++
		}
	}
	return wins, nil
}

// deal completes the board to target cards and then deals each opponent two
// cards from the same deck.
func (r *Runner) deal(deck *poker.Deck, known []poker.Card, target int, opponents []poker.Hand) (poker.Hand, error) {
	if need := target - len(known) + 2*len(opponents); need > deck.CardsRemaining() {
		return 0, fmt.Errorf("%w: need %d cards, %d remain", ErrInsufficientDeck, need, deck.CardsRemaining())
	}
	board := poker.NewHand(known...)
	fill, err := deck.Draw(target - len(known))
	if err != nil {
		return 0, fmt.Errorf("%w: completing board: %w", ErrInsufficientDeck, err)
	}
	board |= poker.NewHand(fill...)

	for i := range opponents {
		cards, err := deck.Draw(2)
		if err != nil {
			return 0, fmt.Errorf("%w: dealing opponent %d: %w", ErrInsufficientDeck, i+1, err)
		}
		opponents[i] = poker.NewHand(cards...)
	}
	return board, nil
}

// playerWins applies the showdown rule. Ties go to the player.
func (r *Runner) playerWins(hole, board poker.Hand, opponents []poker.Hand) bool {
	player := r.eval.Evaluate(hole, board)
	for _, opp := range opponents {
		score := r.eval.Evaluate(opp, board)
		if r.showdown == ShowdownCompat && score < r.floor {
			return true
		}
		if score < player {
			return false
		}
	}
	return true
}
