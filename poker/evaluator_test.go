package poker

import (
	"math/rand/v2"
	"testing"
)

func TestEvaluateKnownRanks(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		cards string
		want  HandRank
		typ   HandType
	}{
		{"royal flush", "AsKsQsJsTs", 1, StraightFlush},
		{"steel wheel", "5h4h3h2hAh", 10, StraightFlush},
		{"quad aces king kicker", "AsAhAdAcKs", 11, FourOfAKind},
		{"quad sixes seven kicker", "6s6h6d6c7h7d7c", 114, FourOfAKind},
		{"worst full house", "2c2d2h3s3c", 322, FullHouse},
		{"best flush", "AsKsQsJs9s", 323, Flush},
		{"broadway", "AcKdQhJsTc", 1600, Straight},
		{"six high straight over wheel", "AsKs2c3d4h5s6d", 1608, Straight},
		{"wheel", "5c4d3h2sAc", 1609, Straight},
		{"trip aces", "AcAdAhKsQc", 1610, ThreeOfAKind},
		{"aces and kings", "AcAdKhKsQc", 2468, TwoPair},
		{"pair of aces", "AcAdKhQsJc", 3326, Pair},
		{"worst pair", "2c2d5h4s3c", 6185, Pair},
		{"best high card", "AcKdQhJs9c", 6186, HighCard},
		{"worst high card", "7c5d4h3s2c", MaxRank, HighCard},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := EvaluateCards(MustParseCards(tc.cards)...)
			if got != tc.want {
				t.Errorf("Evaluate(%s) = %d, want %d", tc.cards, got, tc.want)
			}
			if got.Type() != tc.typ {
				t.Errorf("Evaluate(%s).Type() = %s, want %s", tc.cards, got.Type(), tc.typ)
			}
		})
	}
}

func TestEvaluateRejectsWrongCardCounts(t *testing.T) {
	t.Parallel()
	if r := EvaluateCards(MustParseCards("AsKsQsJs")...); r != 0 {
		t.Errorf("four cards should not rank, got %d", r)
	}
	if r := EvaluateCards(MustParseCards("AsKsQsJsTs9s8s7s")...); r != 0 {
		t.Errorf("eight cards should not rank, got %d", r)
	}
	if HandRank(0).String() != "Invalid" {
		t.Errorf("zero rank should be invalid")
	}
}

// The best rank of six or seven cards is the best rank among their
// five card subsets.
func TestEvaluateMatchesBestFiveCardSubset(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewPCG(7, 11))
	deck := NewDeck(rng)
	for i := range 2000 {
		deck.Reset(0)
		n := 6 + i%2
		drawn, err := deck.Draw(n)
		if err != nil {
			t.Fatal(err)
		}
		cards := append([]Card(nil), drawn...)
		want := MaxRank + 1
		forEachFive(cards, func(five Hand) {
			if r := Evaluate(five); r < want {
				want = r
			}
		})
		if got := Evaluate(NewHand(cards...)); got != want {
			t.Fatalf("Evaluate(%v) = %d, best subset %d", cards, got, want)
		}
	}
}

func forEachFive(cards []Card, fn func(Hand)) {
	n := len(cards)
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			for c := b + 1; c < n; c++ {
				for d := c + 1; d < n; d++ {
					for e := d + 1; e < n; e++ {
						fn(NewHand(cards[a], cards[b], cards[c], cards[d], cards[e]))
					}
				}
			}
		}
	}
}

func BenchmarkEvaluate7(b *testing.B) {
	hand := NewHand(MustParseCards("AsKs2c3d4h5s6d")...)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Evaluate(hand)
	}
}
