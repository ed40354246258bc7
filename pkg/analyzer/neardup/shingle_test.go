package neardup

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	got := Tokenize("<Card ID={ID} /> </Card> NUM + STR; x1 $el _priv 42")
	assert.Equal(t, []string{"<Card", "ID", "ID", "</Card", "NUM", "STR", "x1", "$el", "_priv"}, got)
}

func TestTokenize_Empty(t *testing.T) {
	assert.Empty(t, Tokenize(""))
	assert.Empty(t, Tokenize("{ } ( ) ; 1 2 3"))
}

func TestBuildShingles(t *testing.T) {
	tokens := []string{"a", "b", "c", "d", "e"}
	set := BuildShingles(tokens, 3)

	assert.Len(t, set, 3)
	assert.Contains(t, set, "a\x1fb\x1fc")
	assert.Contains(t, set, "c\x1fd\x1fe")
}

func TestBuildShingles_Duplicates(t *testing.T) {
	tokens := []string{"x", "y", "z", "x", "y", "z", "x"}
	set := BuildShingles(tokens, 3)
	// xyz, yzx, zxy repeat
	assert.Len(t, set, 3)
}

func TestBuildShingles_ShortInput(t *testing.T) {
	assert.Empty(t, BuildShingles([]string{"a", "b"}, 3))
	assert.Len(t, BuildShingles([]string{"a", "b", "c"}, 3), 1)
}

func TestBuildShingles_RejectsSmallK(t *testing.T) {
	assert.Panics(t, func() { BuildShingles([]string{"a", "b", "c"}, 2) })
}

func TestOverlap(t *testing.T) {
	abc := BuildShingles([]string{"a", "b", "c", "d", "e"}, 3)
	prefix := BuildShingles([]string{"a", "b", "c", "d"}, 3)
	other := BuildShingles([]string{"p", "q", "r", "s"}, 3)
	empty := ShingleSet{}

	assert.Equal(t, 1.0, Overlap(abc, abc))
	assert.Equal(t, 1.0, Overlap(abc, prefix), "subset overlaps fully")
	assert.Equal(t, 0.0, Overlap(abc, other))
	assert.Equal(t, 0.0, Overlap(abc, empty))
	assert.Equal(t, 0.0, Overlap(empty, empty))
}

func TestOverlap_SymmetricAndBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	vocab := []string{"a", "b", "c", "d", "e", "f"}

	for i := 0; i < 200; i++ {
		x := BuildShingles(randomTokens(rng, vocab, rng.Intn(20)), 3)
		y := BuildShingles(randomTokens(rng, vocab, rng.Intn(20)), 3)

		o := Overlap(x, y)
		assert.Equal(t, o, Overlap(y, x))
		assert.GreaterOrEqual(t, o, 0.0)
		assert.LessOrEqual(t, o, 1.0)
	}
}

func TestSimHash_Deterministic(t *testing.T) {
	tokens := Tokenize("function ID(props) { const ID = STR + props.ID; return <Banner ID={NUM}/>; }")
	require.NotEmpty(t, tokens)

	assert.Equal(t, FingerprintTokens(tokens), FingerprintTokens(tokens))
}

func TestSimHash_PermutationInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tokens := Tokenize("const ID = useState(ID); useEffect(ID, [ID]); return <div ID={ID}>{ID}</div>")
	want := FingerprintTokens(tokens)

	for i := 0; i < 20; i++ {
		shuffled := append([]string(nil), tokens...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, FingerprintTokens(shuffled))
	}
}

func TestSimHash_Weighting(t *testing.T) {
	// a single token's fingerprint is its hash; repeating it changes nothing
	once := SimHash(map[string]int{"alpha": 1})
	many := SimHash(map[string]int{"alpha": 9})
	assert.Equal(t, once, many)

	assert.Equal(t, Fingerprint(0), SimHash(nil))
}

func TestFingerprint_Hamming(t *testing.T) {
	a := FingerprintTokens([]string{"const", "ID", "useState"})
	b := FingerprintTokens([]string{"let", "ID", "useMemo"})

	assert.Equal(t, 0, a.Hamming(a))
	assert.Equal(t, a.Hamming(b), b.Hamming(a))
	assert.Equal(t, FingerprintWidth, Fingerprint(0).Hamming(^Fingerprint(0)))
	assert.Equal(t, 1, Fingerprint(0b100).Hamming(Fingerprint(0b101)))
}

func TestFingerprint_String(t *testing.T) {
	assert.Equal(t, "00000000000000ff", Fingerprint(0xff).String())
}

func randomTokens(rng *rand.Rand, vocab []string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = vocab[rng.Intn(len(vocab))]
	}
	return out
}
