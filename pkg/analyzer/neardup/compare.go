package neardup

import (
	"context"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/panbanda/nearclone/internal/fileproc"
	"github.com/panbanda/nearclone/pkg/analyzer"
	"github.com/panbanda/nearclone/pkg/config"
)

// NewSourceUnit normalizes, tokenizes, shingles and fingerprints content.
// The returned unit has ID -1 until it is admitted as a candidate.
func NewSourceUnit(path string, content []byte, n *Normalizer, k int) *SourceUnit {
	normalized := n.Normalize(string(content))
	tokens := Tokenize(normalized)
	return &SourceUnit{
		ID:          -1,
		Path:        path,
		Size:        len(content),
		Normalized:  normalized,
		Tokens:      tokens,
		Shingles:    BuildShingles(tokens, k),
		Fingerprint: FingerprintTokens(tokens),
		ContentHash: xxhash.Sum64String(normalized),
	}
}

// Comparator decides whether two units are near-duplicates. It is the only
// place a match decision is made.
type Comparator struct {
	thresholds config.ThresholdConfig
}

// NewComparator creates a comparator for validated thresholds.
func NewComparator(t config.ThresholdConfig) *Comparator {
	return &Comparator{thresholds: t}
}

// SizeRatio returns min/max of the raw byte lengths.
func SizeRatio(a, b int) float64 {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	if hi == 0 {
		return 1
	}
	return float64(lo) / float64(hi)
}

// Compare applies the size ratio, Hamming and overlap gates in that order,
// cheapest first. The returned pair is oriented so PathA < PathB.
func (c *Comparator) Compare(a, b *SourceUnit) (MatchPair, bool) {
	ratio := SizeRatio(a.Size, b.Size)
	if ratio < c.thresholds.MinSizeRatio {
		return MatchPair{}, false
	}

	distance := a.Fingerprint.Hamming(b.Fingerprint)
	if distance > c.thresholds.MaxHamming {
		return MatchPair{}, false
	}

	overlap := Overlap(a.Shingles, b.Shingles)
	// no shared shingle means no shared content, whatever min_overlap allows
	if overlap < c.thresholds.MinOverlap || overlap == 0 {
		return MatchPair{}, false
	}

	if b.Path < a.Path {
		a, b = b, a
	}
	return MatchPair{
		A:          a.ID,
		B:          b.ID,
		PathA:      a.Path,
		PathB:      b.Path,
		Distance:   distance,
		Overlap:    overlap,
		SizeRatio:  ratio,
		Similarity: 1 - float64(distance)/FingerprintWidth,
		Exact:      a.ContentHash == b.ContentHash && a.Normalized == b.Normalized,
	}, true
}

// pairRange is a half-open range of first indices [lo, hi).
type pairRange struct {
	lo, hi int
}

// partitionPairs splits the rows of the upper triangle of an n×n pair
// matrix into at most parts ranges holding roughly equal pair counts.
func partitionPairs(n, parts int) []pairRange {
	if n < 2 || parts <= 0 {
		return nil
	}
	total := n * (n - 1) / 2
	target := (total + parts - 1) / parts

	var ranges []pairRange
	lo, acc := 0, 0
	for i := 0; i < n-1; i++ {
		acc += n - 1 - i
		if acc >= target {
			ranges = append(ranges, pairRange{lo: lo, hi: i + 1})
			lo, acc = i+1, 0
		}
	}
	if lo < n-1 {
		ranges = append(ranges, pairRange{lo: lo, hi: n - 1})
	}
	return ranges
}

// FindPairs compares every unordered pair of candidates. Rows are split into
// batches run on the worker pool; the merged result is sorted, so it does not
// depend on the degree of parallelism. Candidate IDs must equal their index.
func (c *Comparator) FindPairs(ctx context.Context, candidates []*SourceUnit, workers int) ([]MatchPair, error) {
	for i, u := range candidates {
		if u.ID != i {
			panic(fmt.Sprintf("neardup: candidate %s has id %d at index %d", u.Path, u.ID, i))
		}
	}

	ranges := partitionPairs(len(candidates), fileproc.Workers(workers)*4)
	tracker := analyzer.TrackerFromContext(ctx)
	if tracker != nil {
		tracker.Begin(analyzer.StageCompare, len(ranges))
	}

	batches, err := fileproc.RunBatches(ctx, len(ranges), workers, func(batch int) []MatchPair {
		if tracker != nil {
			defer tracker.Tick("")
		}
		r := ranges[batch]
		var out []MatchPair
		for i := r.lo; i < r.hi; i++ {
			for j := i + 1; j < len(candidates); j++ {
				if pair, ok := c.Compare(candidates[i], candidates[j]); ok {
					out = append(out, pair)
				}
			}
		}
		return out
	})
	if err != nil {
		return nil, err
	}

	var pairs []MatchPair
	for _, b := range batches {
		pairs = append(pairs, b...)
	}
	SortPairs(pairs)
	return pairs, nil
}

// SortPairs orders pairs by descending overlap, then ascending distance,
// then by path.
func SortPairs(pairs []MatchPair) {
	sort.Slice(pairs, func(i, j int) bool {
		pi, pj := pairs[i], pairs[j]
		if pi.Overlap != pj.Overlap {
			return pi.Overlap > pj.Overlap
		}
		if pi.Distance != pj.Distance {
			return pi.Distance < pj.Distance
		}
		if pi.PathA != pj.PathA {
			return pi.PathA < pj.PathA
		}
		return pi.PathB < pj.PathB
	})
}
