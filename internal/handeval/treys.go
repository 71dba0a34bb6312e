package handeval

import (
	"math/bits"

	chehsun "github.com/chehsunliu/poker"

	"github.com/lox/pokerequity/poker"
)

// Treys evaluates with github.com/chehsunliu/poker, a port of the Python
// treys evaluator.
type Treys struct {
	// cards maps a card's bit position to the library's encoding.
	cards [64]chehsun.Card
}

// NewTreys builds the card translation table.
func NewTreys() *Treys {
	t := &Treys{}
	for suit := range uint8(4) {
		for rank := range uint8(13) {
			c := poker.NewCard(rank, suit)
			t.cards[bits.TrailingZeros64(uint64(c))] = chehsun.NewCard(c.String())
		}
	}
	return t
}

func (*Treys) Name() string { return "treys" }

func (t *Treys) Evaluate(hole, board poker.Hand) Rank {
	var buf [7]chehsun.Card
	cards := buf[:0]
	for rest := uint64(hole | board); rest != 0 && len(cards) < len(buf); rest &= rest - 1 {
		cards = append(cards, t.cards[bits.TrailingZeros64(rest)])
	}
	return Rank(chehsun.Evaluate(cards))
}

func (*Treys) DegenerateFloor() Rank { return DefaultDegenerateFloor }
