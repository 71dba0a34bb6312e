package equity

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Summary condenses a simulation into the figures reported to callers.
type Summary struct {
	// Mean is the average per-batch win rate.
	Mean float64
	// StdDev is the population standard deviation of the per-batch win
	// rates scaled by sqrt(trials per batch). It is a spread of batch rates
	// expressed on a per-trial scale, not the standard error of Mean.
	StdDev float64
	// Breakeven is the probability that the true win rate is at least the
	// pot-odds threshold under a normal approximation.
	Breakeven float64
	// PotOddsThreshold is 1/(opponents+1), the win rate needed to break
	// even when every player has put the same amount in the pot.
	PotOddsThreshold float64
	Batches          int
	TrialsPerBatch   int
}

// WinRates converts per-batch win counts to win rates.
func WinRates(batches []int, trials int) []float64 {
	rates := make([]float64, len(batches))
	for i, wins := range batches {
		rates[i] = float64(wins) / float64(trials)
	}
	return rates
}

// Summarize computes the mean win rate, its scaled standard deviation and
// the breakeven probability when every opponent has matched the player's stake.
func Summarize(batches []int, trials, opponents int) (Summary, error) {
	if len(batches) == 0 {
		return Summary{}, ErrDegenerateDistribution
	}
	if trials <= 0 {
		return Summary{}, fmt.Errorf("%w: trials per batch must be positive, got %d", ErrDegenerateDistribution, trials)
	}

	rates := WinRates(batches, trials)
	mean := stat.Mean(rates, nil)
	sd := stat.PopStdDev(rates, nil) * math.Sqrt(float64(trials))

	pot := opponents + 1
	return Summary{
		Mean:             mean,
		StdDev:           sd,
		Breakeven:        Breakeven(pot, 1, mean, sd),
		PotOddsThreshold: 1 / float64(pot),
		Batches:          len(batches),
		TrialsPerBatch:   trials,
	}, nil
}

// Breakeven returns P(win rate >= playerShares/potShares) assuming the win
// rate is normal with the given mean and standard deviation. A zero
// deviation collapses to 1 when mean reaches the threshold and 0 otherwise.
func Breakeven(potShares, playerShares int, mean, sd float64) float64 {
	threshold := float64(playerShares) / float64(potShares)
	if sd == 0 || math.IsNaN(sd) {
		if mean >= threshold {
			return 1
		}
		return 0
	}
	p := 1 - distuv.UnitNormal.CDF((threshold-mean)/sd)
	return math.Min(1, math.Max(0, p))
}

// Bucket counts how many batches finished with a given number of wins.
type Bucket struct {
	Wins  int
	Count int
}

// Histogram returns one bucket per win count from the lowest to the highest
// observed, including empty buckets in between.
func Histogram(batches []int) []Bucket {
	if len(batches) == 0 {
		return nil
	}
	lo, hi := slices.Min(batches), slices.Max(batches)
	buckets := make([]Bucket, hi-lo+1)
	for i := range buckets {
		buckets[i].Wins = lo + i
	}
	for _, wins := range batches {
		buckets[wins-lo].Count++
	}
	return buckets
}
