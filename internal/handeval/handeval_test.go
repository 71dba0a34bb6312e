package handeval

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/pokerequity/poker"
)

func TestRegistry(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"native", "treys"}, Names())

	for _, name := range Names() {
		ev, err := New(name)
		require.NoError(t, err)
		assert.Equal(t, name, ev.Name())
		assert.Equal(t, DefaultDegenerateFloor, ev.DegenerateFloor())
	}

	ev, err := New("TREYS")
	require.NoError(t, err)
	assert.Equal(t, "treys", ev.Name())

	_, err = New("pokerstove")
	assert.ErrorContains(t, err, "unknown evaluator")
}

func TestNativeKnownHands(t *testing.T) {
	t.Parallel()
	tests := []struct {
		hole, board string
		want        Rank
	}{
		{"AsKs", "QsJsTs", 1},
		{"7c5d", "4h3s2c", 7462},
		{"AcAd", "AhAsKc7d9h", 11},
		{"AcAd", "AhAs2c7d9h", 15},
		{"AcKd", "QhJs9c", 6186},
	}
	var ev Native
	for _, tc := range tests {
		hole := poker.NewHand(poker.MustParseCards(tc.hole)...)
		board := poker.NewHand(poker.MustParseCards(tc.board)...)
		assert.Equal(t, tc.want, ev.Evaluate(hole, board), "%s | %s", tc.hole, tc.board)
	}
}

func TestEvaluatorsAgree(t *testing.T) {
	t.Parallel()
	native, treys := Native{}, NewTreys()
	deck := poker.NewDeck(rand.New(rand.NewPCG(5, 8)))

	for i := range 5000 {
		deck.Reset(0)
		cards, err := deck.Draw(5 + i%3)
		require.NoError(t, err)
		hole, board := poker.NewHand(cards[:2]...), poker.NewHand(cards[2:]...)
		require.Equal(t, native.Evaluate(hole, board), treys.Evaluate(hole, board),
			"hole %s board %s", hole, board)
	}
}

func BenchmarkEvaluators(b *testing.B) {
	hole := poker.NewHand(poker.MustParseCards("AsKd")...)
	board := poker.NewHand(poker.MustParseCards("2c7h9sTdQc")...)
	for _, ev := range []Evaluator{Native{}, NewTreys()} {
		b.Run(ev.Name(), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				_ = ev.Evaluate(hole, board)
			}
		})
	}
}
