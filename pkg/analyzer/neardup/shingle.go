package neardup

import "strings"

// MinShingleSize is the smallest window the builder accepts.
const MinShingleSize = 3

// shingleSep joins the tokens of one window.
const shingleSep = "\x1f"

// ShingleSet is a set of k-token windows without multiplicity.
type ShingleSet map[string]struct{}

// BuildShingles returns every contiguous k-token window of tokens.
// Fewer than k tokens yields an empty set. k below MinShingleSize panics;
// callers validate thresholds first.
func BuildShingles(tokens []string, k int) ShingleSet {
	if k < MinShingleSize {
		panic("neardup: shingle size below minimum")
	}
	set := make(ShingleSet)
	if len(tokens) < k {
		return set
	}
	for i := 0; i+k <= len(tokens); i++ {
		set[strings.Join(tokens[i:i+k], shingleSep)] = struct{}{}
	}
	return set
}

// Overlap returns |a ∩ b| / min(|a|, |b|), or 0 when either set is empty.
func Overlap(a, b ShingleSet) float64 {
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	if len(small) == 0 {
		return 0
	}
	shared := 0
	for s := range small {
		if _, ok := large[s]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(small))
}
