// Package handeval adapts hand evaluators to a common port. Every evaluator
// ranks on the 7462-class scale where 1 is a royal flush and lower is
// stronger, so ranks from different implementations compare directly.
package handeval

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lox/pokerequity/poker"
)

// Rank is a hand strength; lower values are stronger.
type Rank int32

// DefaultDegenerateFloor is the rank below which an opponent's hand counts
// as a near-certain winner (roughly four of a kind and better).
const DefaultDegenerateFloor Rank = 1000

// Evaluator ranks the best five card hand formed by two hole cards and a
// three to five card board. Implementations must be safe for concurrent use.
type Evaluator interface {
	Name() string
	Evaluate(hole, board poker.Hand) Rank
	DegenerateFloor() Rank
}

type factory func() (Evaluator, error)

var registry = map[string]factory{
	"native": func() (Evaluator, error) { return Native{}, nil },
	"treys":  func() (Evaluator, error) { return NewTreys(), nil },
}

// New returns the evaluator registered under name.
func New(name string) (Evaluator, error) {
	f, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown evaluator %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return f()
}

// Names lists the registered evaluator names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Native evaluates with the in-tree bitmask evaluator.
type Native struct{}

func (Native) Name() string { return "native" }

func (Native) Evaluate(hole, board poker.Hand) Rank {
	return Rank(poker.Evaluate(hole | board))
}

func (Native) DegenerateFloor() Rank { return DefaultDegenerateFloor }
