// Package stats provides small statistical helpers for scan summaries.
package stats

// Percentile returns the p-th percentile of an ascending slice using the
// nearest-rank method. p is clamped to [0, 100]. Returns 0 if sorted is empty.
func Percentile(sorted []float64, p int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	switch {
	case p < 0:
		p = 0
	case p > 100:
		p = 100
	}
	idx := (p * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
