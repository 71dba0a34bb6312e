package poker

import (
	"math/bits"
)

// HandRank is the strength of a five to seven card holding on the standard
// 7462-class scale: 1 is a royal flush, 7462 is 7-5-4-3-2 offsuit. Lower
// values are stronger. Zero is never a valid rank.
type HandRank uint16

// MaxRank is the weakest possible hand rank.
const MaxRank HandRank = 7462

// HandType enumerates the categories of poker hands ordered from weakest to strongest.
type HandType uint8

const (
	HighCard HandType = iota
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

var handTypeNames = [...]string{
	HighCard:      "High Card",
	Pair:          "Pair",
	TwoPair:       "Two Pair",
	ThreeOfAKind:  "Three of a Kind",
	Straight:      "Straight",
	Flush:         "Flush",
	FullHouse:     "Full House",
	FourOfAKind:   "Four of a Kind",
	StraightFlush: "Straight Flush",
}

func (t HandType) String() string {
	if int(t) < len(handTypeNames) {
		return handTypeNames[t]
	}
	return "Unknown"
}

// Number of distinct rank classes per category.
const (
	straightFlushClasses = 10
	quadsClasses         = 13 * 12
	fullHouseClasses     = 13 * 12
	flushClasses         = 1277
	straightClasses      = 10
	tripsClasses         = 13 * 66
	twoPairClasses       = 78 * 11
	pairClasses          = 13 * 220
	highCardClasses      = 1277
)

// First (strongest) rank of each category.
const (
	firstStraightFlush = 1
	firstQuads         = firstStraightFlush + straightFlushClasses
	firstFullHouse     = firstQuads + quadsClasses
	firstFlush         = firstFullHouse + fullHouseClasses
	firstStraight      = firstFlush + flushClasses
	firstTrips         = firstStraight + straightClasses
	firstTwoPair       = firstTrips + tripsClasses
	firstPair          = firstTwoPair + twoPairClasses
	firstHighCard      = firstPair + pairClasses
)

// Type returns the category of the ranked hand.
func (hr HandRank) Type() HandType {
	switch {
	case hr < firstQuads:
		return StraightFlush
	case hr < firstFullHouse:
		return FourOfAKind
	case hr < firstFlush:
		return FullHouse
	case hr < firstStraight:
		return Flush
	case hr < firstTrips:
		return Straight
	case hr < firstTwoPair:
		return ThreeOfAKind
	case hr < firstPair:
		return TwoPair
	case hr < firstHighCard:
		return Pair
	default:
		return HighCard
	}
}

// String returns the category name of the ranked hand.
func (hr HandRank) String() string {
	if hr == 0 || hr > MaxRank {
		return "Invalid"
	}
	return hr.Type().String()
}

// Evaluate ranks the best five card hand contained in h. It accepts five,
// six or seven cards and returns 0 for any other count.
func Evaluate(h Hand) HandRank {
	if n := h.CountCards(); n < 5 || n > 7 {
		return 0
	}
	return evaluateUnchecked(h)
}

// EvaluateCards is Evaluate over a card slice. Duplicate cards collapse.
func EvaluateCards(cards ...Card) HandRank {
	return Evaluate(NewHand(cards...))
}

func evaluateUnchecked(h Hand) HandRank {
	var suits [4]uint16
	var ranks uint16
	for suit := range uint8(4) {
		suits[suit] = h.GetSuitMask(suit)
		ranks |= suits[suit]
	}
	return rankMasks(suits, ranks)
}

// rankMasks ranks a holding from its per-suit rank masks. With at most seven
// cards only one suit can hold five or more.
func rankMasks(suits [4]uint16, ranks uint16) HandRank {
	for _, suit := range suits {
		if bits.OnesCount16(suit) < 5 {
			continue
		}
		if high, ok := straightHigh(suit); ok {
			return HandRank(firstStraightFlush + straightClasses - 1 - straightOrdinal(high))
		}
		top := topRanks(suit, 0, 5)
		return HandRank(firstFlush + flushClasses - 1 - noStraightOrdinal(top))
	}

	s0, s1, s2, s3 := suits[0], suits[1], suits[2], suits[3]
	quads := s0 & s1 & s2 & s3
	threes := ((s0 & s1 & s2) | (s0 & s1 & s3) | (s0 & s2 & s3) | (s1 & s2 & s3)) &^ quads
	pairs := ((s0 & s1) | (s0 & s2) | (s0 & s3) | (s1 & s2) | (s1 & s3) | (s2 & s3)) &^ (threes | quads)

	if quads != 0 {
		quad := highest(quads)
		kicker := highest(ranks &^ bit(quad))
		ord := uint16(quad)*12 + uint16(compress(kicker, bit(quad)))
		return HandRank(firstQuads + quadsClasses - 1 - ord)
	}

	if threes != 0 {
		trip := highest(threes)
		if rest := pairs | (threes &^ bit(trip)); rest != 0 {
			pair := highest(rest)
			ord := uint16(trip)*12 + uint16(compress(pair, bit(trip)))
			return HandRank(firstFullHouse + fullHouseClasses - 1 - ord)
		}
	}

	if high, ok := straightHigh(ranks); ok {
		return HandRank(firstStraight + straightClasses - 1 - straightOrdinal(high))
	}

	if threes != 0 {
		trip := highest(threes)
		kickers := compressMask(topRanks(ranks, bit(trip), 2), bit(trip))
		ord := uint16(trip)*66 + choose12of2[kickers]
		return HandRank(firstTrips + tripsClasses - 1 - ord)
	}

	if pairs != 0 {
		high := highest(pairs)
		if lowPairs := pairs &^ bit(high); lowPairs != 0 {
			both := bit(high) | bit(highest(lowPairs))
			kicker := highest(ranks &^ both)
			ord := choose13of2[both]*11 + uint16(compress(kicker, both))
			return HandRank(firstTwoPair + twoPairClasses - 1 - ord)
		}
		kickers := compressMask(topRanks(ranks, bit(high), 3), bit(high))
		ord := uint16(high)*220 + choose12of3[kickers]
		return HandRank(firstPair + pairClasses - 1 - ord)
	}

	return HandRank(firstHighCard + highCardClasses - 1 - noStraightOrdinal(topRanks(ranks, 0, 5)))
}

func bit(rank uint8) uint16 { return 1 << rank }

// highest returns the highest rank set in a non-empty mask.
func highest(mask uint16) uint8 {
	return uint8(bits.Len16(mask) - 1)
}

// topRanks keeps the n highest ranks of mask that are not in exclude.
func topRanks(mask, exclude uint16, n int) uint16 {
	mask &^= exclude
	var out uint16
	for range n {
		if mask == 0 {
			break
		}
		b := bit(highest(mask))
		out |= b
		mask &^= b
	}
	return out
}

// compress maps rank into the space of ranks with the excluded ones removed.
func compress(rank uint8, exclude uint16) uint8 {
	return rank - uint8(bits.OnesCount16(exclude&(bit(rank)-1)))
}

func compressMask(mask, exclude uint16) uint16 {
	var out uint16
	for mask != 0 {
		r := uint8(bits.TrailingZeros16(mask))
		out |= bit(compress(r, exclude))
		mask &^= bit(r)
	}
	return out
}

// chooseTable gives every k-subset of n ranks its position in ascending
// numeric order. Comparing masks numerically compares their highest ranks
// first, which is exactly kicker order.
func chooseTable(n, k int) []uint16 {
	table := make([]uint16, 1<<n)
	var idx uint16
	for mask := range 1 << n {
		if bits.OnesCount(uint(mask)) == k {
			table[mask] = idx
			idx++
		}
	}
	return table
}

var (
	choose13of5 = chooseTable(13, 5)
	choose13of2 = chooseTable(13, 2)
	choose12of2 = chooseTable(12, 2)
	choose12of3 = chooseTable(12, 3)
)

// straightMasks lists the ten straight rank masks in ascending strength.
var straightMasks = func() [straightClasses]uint16 {
	var out [straightClasses]uint16
	out[0] = 0x100F // wheel
	for high := 4; high <= 12; high++ {
		out[high-3] = 0x1F << (high - 4)
	}
	return out
}()

// noStraightOrdinal indexes a five-rank mask among the 1277 masks that do
// not form a straight.
func noStraightOrdinal(mask uint16) uint16 {
	idx := choose13of5[mask]
	for _, s := range straightMasks {
		if s < mask {
			idx--
		}
	}
	return idx
}

func straightOrdinal(high uint8) uint16 {
	if high == 3 {
		return 0
	}
	return uint16(high - 3)
}

// straightHigh reports the top rank of the best straight in mask.
func straightHigh(mask uint16) (uint8, bool) {
	mask &= 0x1FFF
	if run := mask & (mask >> 1) & (mask >> 2) & (mask >> 3) & (mask >> 4); run != 0 {
		return highest(run) + 4, true
	}
	if mask&0x100F == 0x100F {
		return 3, true
	}
	return 0, false
}
