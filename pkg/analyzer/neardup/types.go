package neardup

import (
	"github.com/panbanda/nearclone/pkg/config"
)

// SourceUnit is one loaded file prepared for comparison.
// It is immutable once built.
type SourceUnit struct {
	ID          int         `json:"id"`
	Path        string      `json:"path"`
	Size        int         `json:"size"`
	Normalized  string      `json:"-"`
	Tokens      []string    `json:"-"`
	Shingles    ShingleSet  `json:"-"`
	Fingerprint Fingerprint `json:"fingerprint"`
	ContentHash uint64      `json:"content_hash"`
}

// MatchPair records two units the comparator accepted.
type MatchPair struct {
	A          int     `json:"a"`
	B          int     `json:"b"`
	PathA      string  `json:"path_a"`
	PathB      string  `json:"path_b"`
	Distance   int     `json:"distance"`
	Overlap    float64 `json:"overlap"`
	SizeRatio  float64 `json:"size_ratio"`
	Similarity float64 `json:"similarity"`
	Exact      bool    `json:"exact"`
}

// Cluster is one connected component of the match relation.
type Cluster struct {
	ID             string   `json:"id"`
	Members        []string `json:"members"`
	Pairs          int      `json:"pairs"`
	MeanSimilarity float64  `json:"mean_similarity"`
}

// Size returns the number of members.
func (c Cluster) Size() int {
	return len(c.Members)
}

// Skipped is a file that could not be loaded.
type Skipped struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Exclusion reasons for loaded files that never enter the comparison pool.
const (
	ExcludedEmpty       = "empty after normalization"
	ExcludedTooShort    = "below minimum length"
	ExcludedNotIncluded = "outside inclusion scope"
)

// Excluded is a loaded file kept out of the comparison pool.
type Excluded struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Summary provides aggregate statistics.
type Summary struct {
	TotalPairs      int     `json:"total_pairs"`
	ExactPairs      int     `json:"exact_pairs"`
	TotalClusters   int     `json:"total_clusters"`
	FilesInClusters int     `json:"files_in_clusters"`
	LargestCluster  int     `json:"largest_cluster"`
	MeanSimilarity  float64 `json:"mean_similarity"`
	StdDevOverlap   float64 `json:"stddev_overlap"`
	P50Similarity   float64 `json:"p50_similarity"`
	P95Similarity   float64 `json:"p95_similarity"`
}

// Report is the complete result of one scan. It is the only view
// downstream consumers get of the engine.
type Report struct {
	TotalFiles      int                    `json:"total_files"`
	TotalCandidates int                    `json:"total_candidates"`
	Profile         string                 `json:"profile,omitempty"`
	Thresholds      config.ThresholdConfig `json:"thresholds"`
	Pairs           []MatchPair            `json:"pairs"`
	Clusters        []Cluster              `json:"clusters"`
	Skipped         []Skipped              `json:"skipped,omitempty"`
	Excluded        []Excluded             `json:"excluded,omitempty"`
	Summary         Summary                `json:"summary"`
}
