package neardup

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/zeebo/blake3"
)

// FingerprintWidth is the number of bits in a Fingerprint.
const FingerprintWidth = 64

// Fingerprint is a weighted SimHash of a token multiset.
type Fingerprint uint64

// Hamming returns the number of differing bits.
func (f Fingerprint) Hamming(other Fingerprint) int {
	return bits.OnesCount64(uint64(f ^ other))
}

// String renders the fingerprint as fixed-width hex.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// TokenWeights counts occurrences of each token.
func TokenWeights(tokens []string) map[string]int {
	weights := make(map[string]int, len(tokens))
	for _, t := range tokens {
		weights[t]++
	}
	return weights
}

// tokenHash is the first 8 bytes of the blake3 digest of t. It is stable
// across runs and processes.
func tokenHash(h *blake3.Hasher, t string) uint64 {
	h.Reset()
	h.Write([]byte(t))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum[:8])
}

// SimHash computes the weighted SimHash of a token multiset.
// Bit b is set iff the signed weight sum for b is strictly positive.
func SimHash(weights map[string]int) Fingerprint {
	var acc [FingerprintWidth]int64
	mustWidth(len(acc))

	h := blake3.New()
	for t, weight := range weights {
		w := int64(weight)
		hv := tokenHash(h, t)
		for b := 0; b < FingerprintWidth; b++ {
			if hv&(1<<uint(b)) != 0 {
				acc[b] += w
			} else {
				acc[b] -= w
			}
		}
	}

	var fp uint64
	for b := 0; b < FingerprintWidth; b++ {
		if acc[b] > 0 {
			fp |= 1 << uint(b)
		}
	}
	return Fingerprint(fp)
}

// FingerprintTokens is SimHash over the occurrence counts of tokens.
func FingerprintTokens(tokens []string) Fingerprint {
	return SimHash(TokenWeights(tokens))
}

// mustWidth aborts on a fingerprint of the wrong width. Hamming distances
// between fingerprints of different widths are meaningless.
func mustWidth(n int) {
	if n != FingerprintWidth {
		panic(fmt.Sprintf("neardup: fingerprint width %d, want %d", n, FingerprintWidth))
	}
}
