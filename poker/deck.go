package poker

import (
	"errors"
	"math/rand/v2"
)

// ErrDeckExhausted is returned when more cards are requested than remain.
var ErrDeckExhausted = errors.New("deck exhausted")

// Deck is a standard 52-card deck, optionally with some cards removed.
// Cards are shuffled lazily as they are drawn: each draw picks uniformly
// from the undealt cards, which is Fisher-Yates run one step at a time.
type Deck struct {
	cards [52]Card
	size  int
	next  int
	rng   *rand.Rand
}

// NewDeck creates a full deck dealing from rng.
func NewDeck(rng *rand.Rand) *Deck {
	return NewDeckWithout(rng, 0)
}

// NewDeckWithout creates a deck holding every card not in used.
func NewDeckWithout(rng *rand.Rand, used Hand) *Deck {
	d := &Deck{rng: rng}
	d.Reset(used)
	return d
}

// Reset refills the deck with every card not in used and starts a fresh shuffle.
func (d *Deck) Reset(used Hand) {
	d.size = 0
	d.next = 0
	for suit := range uint8(4) {
		for rank := range uint8(13) {
			if c := NewCard(rank, suit); !used.HasCard(c) {
				d.cards[d.size] = c
				d.size++
			}
		}
	}
}

// Draw deals n cards. The returned slice aliases the deck and is only valid
// until the next Reset.
func (d *Deck) Draw(n int) ([]Card, error) {
	if n < 0 || d.next+n > d.size {
		return nil, ErrDeckExhausted
	}
	start := d.next
	for range n {
		j := d.next + d.rng.IntN(d.size-d.next)
		d.cards[d.next], d.cards[j] = d.cards[j], d.cards[d.next]
		d.next++
	}
	return d.cards[start:d.next], nil
}

// CardsRemaining returns the number of undealt cards.
func (d *Deck) CardsRemaining() int {
	return d.size - d.next
}
