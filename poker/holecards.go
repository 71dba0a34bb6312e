package poker

// HoleCardCategory is a coarse preflop strength bucket.
type HoleCardCategory string

const (
	CategoryPremium HoleCardCategory = "Premium"
	CategoryStrong  HoleCardCategory = "Strong"
	CategoryMedium  HoleCardCategory = "Medium"
	CategoryWeak    HoleCardCategory = "Weak"
	CategoryTrash   HoleCardCategory = "Trash"
	CategoryUnknown HoleCardCategory = "Unknown"
)

// Categorize buckets a starting hand:
//
//	Premium  JJ+, AK
//	Strong   TT, AQ, AJ
//	Medium   77-99, suited broadway
//	Weak     22-66, suited cards at most two ranks apart
//	Trash    everything else
func Categorize(a, b Card) HoleCardCategory {
	if !a.Valid() || !b.Valid() || a == b {
		return CategoryUnknown
	}
	hi, lo := a.Rank(), b.Rank()
	if lo > hi {
		hi, lo = lo, hi
	}
	suited := a.Suit() == b.Suit()
	pair := hi == lo

	switch {
	case pair && hi >= Jack, hi == Ace && lo == King:
		return CategoryPremium
	case pair && hi == Ten, hi == Ace && (lo == Queen || lo == Jack):
		return CategoryStrong
	case pair && hi >= Seven, suited && lo >= Ten:
		return CategoryMedium
	case pair, suited && hi-lo <= 2:
		return CategoryWeak
	default:
		return CategoryTrash
	}
}

// Shorthand names a starting hand the way players write it: "AA", "AKs", "T9o".
func Shorthand(a, b Card) string {
	if !a.Valid() || !b.Valid() || a == b {
		return "??"
	}
	hi, lo := a.Rank(), b.Rank()
	if lo > hi {
		hi, lo = lo, hi
	}
	name := []byte{rankChars[hi], rankChars[lo]}
	switch {
	case hi == lo:
	case a.Suit() == b.Suit():
		name = append(name, 's')
	default:
		name = append(name, 'o')
	}
	return string(name)
}
