package neardup

import (
	"encoding/hex"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/zeebo/blake3"
)

// unionFind is a disjoint-set forest with path compression and union by size.
// Root identity carries no meaning outside this type.
type unionFind struct {
	parent []int
	size   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{
		parent: make([]int, n),
		size:   make([]int, n),
	}
	for i := range uf.parent {
		uf.parent[i] = i
		uf.size[i] = 1
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	root := x
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	for uf.parent[x] != root {
		next := uf.parent[x]
		uf.parent[x] = root
		x = next
	}
	return root
}

func (uf *unionFind) union(x, y int) {
	rx, ry := uf.find(x), uf.find(y)
	if rx == ry {
		return
	}
	if uf.size[rx] < uf.size[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
}

// BuildClusters groups candidates into the connected components of the
// match relation. Singletons are dropped, members are sorted by path and
// clusters by descending size, so nothing depends on which id became a root.
func BuildClusters(candidates []*SourceUnit, pairs []MatchPair) []Cluster {
	if len(pairs) == 0 {
		return nil
	}

	uf := newUnionFind(len(candidates))
	for _, p := range pairs {
		uf.union(p.A, p.B)
	}

	components := make(map[int]*roaring.Bitmap)
	for i := range candidates {
		root := uf.find(i)
		bm, ok := components[root]
		if !ok {
			bm = roaring.New()
			components[root] = bm
		}
		bm.Add(uint32(i))
	}

	type pairStats struct {
		count int
		sum   float64
	}
	statsByRoot := make(map[int]*pairStats)
	for _, p := range pairs {
		root := uf.find(p.A)
		st, ok := statsByRoot[root]
		if !ok {
			st = &pairStats{}
			statsByRoot[root] = st
		}
		st.count++
		st.sum += p.Similarity
	}

	clusters := make([]Cluster, 0, len(components))
	for root, bm := range components {
		if bm.GetCardinality() < 2 {
			continue
		}

		members := make([]string, 0, bm.GetCardinality())
		it := bm.Iterator()
		for it.HasNext() {
			members = append(members, candidates[it.Next()].Path)
		}
		sort.Strings(members)

		c := Cluster{
			ID:      clusterID(members),
			Members: members,
		}
		if st := statsByRoot[root]; st != nil {
			c.Pairs = st.count
			c.MeanSimilarity = st.sum / float64(st.count)
		}
		clusters = append(clusters, c)
	}

	SortClusters(clusters)
	return clusters
}

// SortClusters orders clusters by descending size, then by first member.
func SortClusters(clusters []Cluster) {
	sort.Slice(clusters, func(i, j int) bool {
		if len(clusters[i].Members) != len(clusters[j].Members) {
			return len(clusters[i].Members) > len(clusters[j].Members)
		}
		return clusters[i].Members[0] < clusters[j].Members[0]
	})
}

// clusterID derives a stable identifier from the sorted member list.
func clusterID(sortedMembers []string) string {
	h := blake3.New()
	h.Write([]byte(strings.Join(sortedMembers, "\n")))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:8])
}
