package mcpserver

// Tool descriptions with interpretation guidance for LLMs.

func describeFindNearDuplicates() string {
	return `Finds files that are structurally near-identical after renaming identifiers and changing literals, and groups them into clusters.

USE WHEN:
- Looking for copy-pasted components that drifted only in names or constants
- Choosing consolidation targets before a refactor
- Checking whether a new file duplicates an existing one

INTERPRETING RESULTS:
- Each cluster is a set of files connected by accepted pairs (transitively)
- Similarity is 1 - hamming/64 of the SimHash fingerprints; 1.0 means identical token weights
- Overlap is the share of k-token shingles the smaller file has in common with the larger one
- exact=true means the normalized text is identical
- The strict profile reports only very close copies; broad also catches edited copies

METRICS RETURNED:
- Summary: pairs, exact pairs, clusters, files in clusters, mean/p50/p95 similarity
- Clusters: id, members (sorted paths), pair count, mean similarity
- Pairs: both paths, hamming distance, overlap, size ratio, similarity

Files whose raw sizes differ by more than min_size_ratio never pair.`
}

func describeListProfiles() string {
	return `Lists the named threshold profiles and their values.

USE WHEN:
- Deciding between strict and broad before calling find_near_duplicates

METRICS RETURNED:
- Per profile: max_hamming, min_overlap, shingle_k, min_size_ratio`
}
