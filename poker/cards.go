package poker

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"
)

// Card is a single bit in a 64-bit mask. Each suit owns a 16-bit lane and the
// card's rank selects the bit inside that lane, so a Hand is just the OR of
// its cards.
type Card uint64

// Hand is an unordered set of cards.
type Hand uint64

// Ranks, deuce through ace.
const (
	Two uint8 = iota
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

// Suits.
const (
	Clubs uint8 = iota
	Diamonds
	Hearts
	Spades
)

const (
	rankChars = "23456789TJQKA"
	suitChars = "cdhs"
	laneWidth = 16
)

// ErrInvalidCard is returned when a card string cannot be parsed.
var ErrInvalidCard = errors.New("invalid card")

// NewCard creates a card from a rank (0-12) and suit (0-3).
func NewCard(rank, suit uint8) Card {
	return Card(1) << (uint(suit)*laneWidth + uint(rank))
}

// Valid reports whether c is exactly one of the 52 cards.
func (c Card) Valid() bool {
	if bits.OnesCount64(uint64(c)) != 1 {
		return false
	}
	return c.Rank() <= Ace
}

// Rank returns the card rank (0-12).
func (c Card) Rank() uint8 {
	return uint8(bits.TrailingZeros64(uint64(c)) % laneWidth)
}

// Suit returns the card suit (0-3).
func (c Card) Suit() uint8 {
	return uint8(bits.TrailingZeros64(uint64(c)) / laneWidth)
}

// Index returns a dense 0-51 index for the card.
func (c Card) Index() int {
	return int(c.Suit())*13 + int(c.Rank())
}

func (c Card) String() string {
	if !c.Valid() {
		return "??"
	}
	return string([]byte{rankChars[c.Rank()], suitChars[c.Suit()]})
}

// ParseCard parses a two character card such as "As" or "Td". Rank and suit
// letters are case insensitive.
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCard, s)
	}
	rank := strings.IndexByte(rankChars, upper(s[0]))
	suit := strings.IndexByte(suitChars, lower(s[1]))
	if rank < 0 || suit < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCard, s)
	}
	return NewCard(uint8(rank), uint8(suit)), nil
}

// ParseCards parses a list of cards written either concatenated ("AsKd") or
// separated by spaces or commas ("As Kd", "As,Kd").
func ParseCards(s string) ([]Card, error) {
	compact := strings.Map(func(r rune) rune {
		if r == ' ' || r == ',' || r == '\t' {
			return -1
		}
		return r
	}, s)
	if len(compact)%2 != 0 {
		return nil, fmt.Errorf("%w: %q has an odd number of characters", ErrInvalidCard, s)
	}
	cards := make([]Card, 0, len(compact)/2)
	for i := 0; i < len(compact); i += 2 {
		c, err := ParseCard(compact[i : i+2])
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// MustParseCards is ParseCards for literals known to be valid.
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(err)
	}
	return cards
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b - 'A' + 'a'
	}
	return b
}

// NewHand builds a hand from cards. Duplicates collapse into one card.
func NewHand(cards ...Card) Hand {
	var h Hand
	for _, c := range cards {
		h |= Hand(c)
	}
	return h
}

// AddCard adds c to the hand.
func (h *Hand) AddCard(c Card) {
	*h |= Hand(c)
}

// HasCard reports whether the hand contains c.
func (h Hand) HasCard(c Card) bool {
	return h&Hand(c) != 0
}

// CountCards returns the number of cards in the hand.
func (h Hand) CountCards() int {
	return bits.OnesCount64(uint64(h))
}

// GetSuitMask returns the 13-bit rank mask of the cards held in suit.
func (h Hand) GetSuitMask(suit uint8) uint16 {
	return uint16(h>>(uint(suit)*laneWidth)) & 0x1FFF
}

// Cards lists the hand's cards, clubs first and low ranks first within a suit.
func (h Hand) Cards() []Card {
	out := make([]Card, 0, h.CountCards())
	for rest := uint64(h); rest != 0; rest &= rest - 1 {
		out = append(out, Card(rest&-rest))
	}
	return out
}

func (h Hand) String() string {
	cards := h.Cards()
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = c.String()
	}
	return strings.Join(parts, " ")
}
