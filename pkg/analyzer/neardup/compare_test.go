package neardup

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/panbanda/nearclone/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const widgetSource = `export function Widget({ label, count }) {
  const value = format(count, 2);
  return <span className="widget">{label}: {value}</span>;
}
`

// padTo appends a block comment so content is exactly size bytes long.
// Normalization removes the padding, so only the raw size changes.
func padTo(t *testing.T, content string, size int) string {
	t.Helper()
	fill := size - len(content) - len("/**/")
	require.GreaterOrEqual(t, fill, 0)
	return content + "/*" + strings.Repeat("x", fill) + "*/"
}

func strictThresholds(t *testing.T) config.ThresholdConfig {
	t.Helper()
	th, ok := config.Profile(config.ProfileStrict)
	require.True(t, ok)
	return th
}

func unit(t *testing.T, id int, path, content string) *SourceUnit {
	t.Helper()
	u := NewSourceUnit(path, []byte(content), fullNormalizer(), 5)
	u.ID = id
	return u
}

func TestNewSourceUnit(t *testing.T) {
	u := NewSourceUnit("a.tsx", []byte(widgetSource), fullNormalizer(), 5)

	assert.Equal(t, -1, u.ID)
	assert.Equal(t, len(widgetSource), u.Size)
	assert.NotEmpty(t, u.Normalized)
	assert.NotEmpty(t, u.Tokens)
	assert.NotEmpty(t, u.Shingles)
	assert.NotZero(t, u.ContentHash)
}

func TestSizeRatio(t *testing.T) {
	assert.Equal(t, 1.0, SizeRatio(0, 0))
	assert.Equal(t, 0.5, SizeRatio(50, 100))
	assert.Equal(t, 0.5, SizeRatio(100, 50))
	assert.Equal(t, 0.0, SizeRatio(0, 10))
}

func TestCompare_Identical(t *testing.T) {
	c := NewComparator(strictThresholds(t))
	b := unit(t, 1, "b.tsx", widgetSource)
	a := unit(t, 0, "a.tsx", widgetSource)

	pair, ok := c.Compare(b, a)
	require.True(t, ok)
	assert.Equal(t, "a.tsx", pair.PathA)
	assert.Equal(t, "b.tsx", pair.PathB)
	assert.Equal(t, 0, pair.A)
	assert.Equal(t, 1, pair.B)
	assert.Equal(t, 0, pair.Distance)
	assert.Equal(t, 1.0, pair.Overlap)
	assert.Equal(t, 1.0, pair.Similarity)
	assert.True(t, pair.Exact)
}

func TestCompare_Symmetric(t *testing.T) {
	th := strictThresholds(t)
	th.MaxHamming = 64
	th.MinOverlap = 0.1
	th.MinSizeRatio = 0
	c := NewComparator(th)

	a := unit(t, 0, "a.tsx", widgetSource)
	b := unit(t, 1, "b.tsx", strings.Replace(widgetSource, "<span", "<div", 1))

	ab, okAB := c.Compare(a, b)
	ba, okBA := c.Compare(b, a)
	assert.Equal(t, okAB, okBA)
	assert.Equal(t, ab, ba)
}

func TestCompare_SizeRatioGate(t *testing.T) {
	c := NewComparator(strictThresholds(t))

	small := unit(t, 0, "small.tsx", widgetSource)
	large := unit(t, 1, "large.tsx", padTo(t, widgetSource, len(widgetSource)*10))

	// identical after normalization
	require.Equal(t, small.Normalized, large.Normalized)

	_, ok := c.Compare(small, large)
	assert.False(t, ok)
}

func TestCompare_EmptyShinglesNeverMatch(t *testing.T) {
	th := strictThresholds(t)
	th.MinOverlap = 0
	c := NewComparator(th)

	a := unit(t, 0, "a.ts", "x;")
	b := unit(t, 1, "b.ts", "y;")
	require.Empty(t, a.Shingles)

	_, ok := c.Compare(a, b)
	assert.False(t, ok)
}

func TestCompare_DisjointShinglesNeverMatch(t *testing.T) {
	th := strictThresholds(t)
	th.MinOverlap = 0
	c := NewComparator(th)

	a := &SourceUnit{ID: 0, Path: "a.ts", Size: 100, Shingles: ShingleSet{"a b c d e": {}}}
	b := &SourceUnit{ID: 1, Path: "b.ts", Size: 100, Shingles: ShingleSet{"v w x y z": {}}}

	_, ok := c.Compare(a, b)
	assert.False(t, ok)

	b.Shingles["a b c d e"] = struct{}{}
	pair, ok := c.Compare(a, b)
	require.True(t, ok)
	assert.Equal(t, 1.0, pair.Overlap)
}

func TestPartitionPairs(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 10, 97} {
		for _, parts := range []int{1, 2, 7, 64} {
			t.Run(fmt.Sprintf("n=%d/parts=%d", n, parts), func(t *testing.T) {
				ranges := partitionPairs(n, parts)
				if n < 2 {
					assert.Empty(t, ranges)
					return
				}

				assert.LessOrEqual(t, len(ranges), parts)

				next, pairs := 0, 0
				for _, r := range ranges {
					assert.Equal(t, next, r.lo, "ranges must be contiguous")
					assert.Less(t, r.lo, r.hi)
					for i := r.lo; i < r.hi; i++ {
						pairs += n - 1 - i
					}
					next = r.hi
				}
				assert.Equal(t, n-1, next)
				assert.Equal(t, n*(n-1)/2, pairs)
			})
		}
	}
}

func TestFindPairs_RequiresIndexIDs(t *testing.T) {
	c := NewComparator(strictThresholds(t))
	a := unit(t, 3, "a.tsx", widgetSource)

	assert.Panics(t, func() {
		_, _ = c.FindPairs(context.Background(), []*SourceUnit{a}, 1)
	})
}

func TestFindPairs_Sorted(t *testing.T) {
	c := NewComparator(strictThresholds(t))
	candidates := []*SourceUnit{
		unit(t, 0, "c.tsx", widgetSource),
		unit(t, 1, "a.tsx", widgetSource),
		unit(t, 2, "b.tsx", widgetSource),
	}

	pairs, err := c.FindPairs(context.Background(), candidates, 2)
	require.NoError(t, err)
	require.Len(t, pairs, 3)

	assert.Equal(t, [2]string{"a.tsx", "b.tsx"}, [2]string{pairs[0].PathA, pairs[0].PathB})
	assert.Equal(t, [2]string{"a.tsx", "c.tsx"}, [2]string{pairs[1].PathA, pairs[1].PathB})
	assert.Equal(t, [2]string{"b.tsx", "c.tsx"}, [2]string{pairs[2].PathA, pairs[2].PathB})
}

func TestFindPairs_Cancelled(t *testing.T) {
	c := NewComparator(strictThresholds(t))
	candidates := []*SourceUnit{
		unit(t, 0, "a.tsx", widgetSource),
		unit(t, 1, "b.tsx", widgetSource),
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FindPairs(ctx, candidates, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUnionFind(t *testing.T) {
	uf := newUnionFind(6)
	uf.union(0, 1)
	uf.union(2, 3)
	uf.union(1, 3)

	root := uf.find(0)
	for _, x := range []int{1, 2, 3} {
		assert.Equal(t, root, uf.find(x))
	}
	assert.NotEqual(t, root, uf.find(4))
	assert.NotEqual(t, uf.find(4), uf.find(5))

	// repeated unions are no-ops
	uf.union(0, 3)
	assert.Equal(t, 4, uf.size[uf.find(0)])
}

func TestBuildClusters(t *testing.T) {
	candidates := []*SourceUnit{
		{ID: 0, Path: "z.tsx"},
		{ID: 1, Path: "a.tsx"},
		{ID: 2, Path: "m.tsx"},
		{ID: 3, Path: "solo.tsx"},
		{ID: 4, Path: "p.tsx"},
		{ID: 5, Path: "q.tsx"},
	}
	pairs := []MatchPair{
		{A: 1, B: 0, PathA: "a.tsx", PathB: "z.tsx", Similarity: 1},
		{A: 2, B: 0, PathA: "m.tsx", PathB: "z.tsx", Similarity: 0.5},
		{A: 4, B: 5, PathA: "p.tsx", PathB: "q.tsx", Similarity: 0.75},
	}

	clusters := BuildClusters(candidates, pairs)
	require.Len(t, clusters, 2)

	assert.Equal(t, []string{"a.tsx", "m.tsx", "z.tsx"}, clusters[0].Members)
	assert.Equal(t, 2, clusters[0].Pairs)
	assert.InDelta(t, 0.75, clusters[0].MeanSimilarity, 1e-9)
	assert.Equal(t, []string{"p.tsx", "q.tsx"}, clusters[1].Members)
	assert.Len(t, clusters[0].ID, 16)

	// order of pairs must not matter
	reversed := []MatchPair{pairs[2], pairs[1], pairs[0]}
	again := BuildClusters(candidates, reversed)
	assert.Equal(t, clusters, again)
}

func TestBuildClusters_NoPairs(t *testing.T) {
	assert.Empty(t, BuildClusters([]*SourceUnit{{ID: 0, Path: "a"}}, nil))
}

func TestSortClusters(t *testing.T) {
	clusters := []Cluster{
		{Members: []string{"d", "e"}},
		{Members: []string{"a", "b"}},
		{Members: []string{"x", "y", "z"}},
	}
	SortClusters(clusters)

	assert.Equal(t, "x", clusters[0].Members[0])
	assert.Equal(t, "a", clusters[1].Members[0])
	assert.Equal(t, "d", clusters[2].Members[0])
}
