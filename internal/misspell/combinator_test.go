package misspell

import (
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidates(ss ...string) []Candidate {
	out := make([]Candidate, len(ss))
	for i, s := range ss {
		out[i] = Candidate(s)
	}
	return out
}

func TestCombine_HappyScenario(t *testing.T) {
	t.Parallel()

	sets := []SpellingSet{
		NewSpellingSet("hap", "happ"),
		NewSpellingSet("py", "pee"),
	}
	got, err := Combine(sets)
	require.NoError(t, err)
	assert.ElementsMatch(t, candidates("happy", "hapee", "happpy", "happee"), got)
}

func TestCombine_CartesianCardinality(t *testing.T) {
	t.Parallel()

	// Single letters per position keep every concatenation distinct.
	sets := []SpellingSet{
		NewSpellingSet("a", "b"),
		NewSpellingSet("c", "d", "e"),
		NewSpellingSet("f"),
		NewSpellingSet("g", "h"),
	}
	got, err := Combine(sets)
	require.NoError(t, err)
	assert.Len(t, got, 2*3*1*2)
	assert.Equal(t, 12, Cardinality(sets))
}

func TestCombine_IdentityCandidate(t *testing.T) {
	t.Parallel()

	syllables := []Syllable{"won", "der", "ful"}
	sets := []SpellingSet{
		NewSpellingSet("won", "wun", "one"),
		NewSpellingSet("der", "dur"),
		NewSpellingSet("ful", "full", "full"),
	}
	got, err := Combine(sets)
	require.NoError(t, err)
	assert.Contains(t, got, Candidate(concat(syllables)))
}

func TestCombine_CollapsesDuplicates(t *testing.T) {
	t.Parallel()

	// "a"+"ab" and "aa"+"b" both give "aab".
	sets := []SpellingSet{
		NewSpellingSet("a", "aa"),
		NewSpellingSet("ab", "b"),
	}
	got, err := Combine(sets)
	require.NoError(t, err)
	assert.Equal(t, candidates("aaab", "aab", "ab"), got, "4 tuples collapse to 3 sorted candidates")
}

func TestCombine_EmptySetYieldsNothing(t *testing.T) {
	t.Parallel()

	sets := []SpellingSet{
		NewSpellingSet("hap", "happ"),
		NewSpellingSet(),
	}
	got, err := Combine(sets)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, Cardinality(sets))

	got, err = Combine(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCombine_Deterministic(t *testing.T) {
	t.Parallel()

	sets := []SpellingSet{
		NewSpellingSet("k", "c", "ck", "q"),
		NewSpellingSet("a", "ah", "aa"),
		NewSpellingSet("t", "tt"),
	}
	first, err := Combine(sets)
	require.NoError(t, err)
	for range 10 {
		again, err := Combine(sets)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCombine_Limit(t *testing.T) {
	t.Parallel()

	sets := []SpellingSet{
		NewSpellingSet("a", "b", "c"),
		NewSpellingSet("d", "e", "f"),
	}

	_, err := Combine(sets, WithLimit(8))
	require.ErrorIs(t, err, ErrTooManyCandidates)
	var tm *TooManyCandidatesError
	require.ErrorAs(t, err, &tm)
	assert.Equal(t, 9, tm.Count)
	assert.Equal(t, 8, tm.Limit)

	got, err := Combine(sets, WithLimit(9))
	require.NoError(t, err)
	assert.Len(t, got, 9)

	got, err = Combine(sets, WithLimit(0))
	require.NoError(t, err)
	assert.Len(t, got, 9, "non-positive limit disables the cap")
}

func TestCombine_UnlimitedBeyondSizeHint(t *testing.T) {
	t.Parallel()

	sets := make([]SpellingSet, 17)
	for i := range sets {
		sets[i] = NewSpellingSet("a", "b")
	}
	require.Greater(t, Cardinality(sets), maxSizeHint)

	got, err := Combine(sets)
	require.NoError(t, err)
	assert.Len(t, got, 1<<17)
	assert.True(t, slices.IsSorted(got))
	assert.Equal(t, Candidate(strings.Repeat("a", 17)), got[0])
	assert.Equal(t, Candidate(strings.Repeat("b", 17)), got[len(got)-1])
}

func TestCardinality_Saturates(t *testing.T) {
	t.Parallel()

	big := make(SpellingSet, 1000)
	for i := range 1000 {
		big[strings.Repeat("a", i+1)] = struct{}{}
	}
	sets := make([]SpellingSet, 10) // 1000^10 overflows int64
	for i := range sets {
		sets[i] = big
	}
	assert.Equal(t, math.MaxInt, Cardinality(sets))

	_, err := Combine(sets, WithLimit(1_000_000))
	assert.ErrorIs(t, err, ErrTooManyCandidates)
}

func TestCandidates_LazyOrder(t *testing.T) {
	t.Parallel()

	sets := []SpellingSet{
		NewSpellingSet("b", "a"),
		NewSpellingSet("d", "c"),
	}
	var got []Candidate
	for c := range Candidates(sets) {
		got = append(got, c)
	}
	assert.Equal(t, candidates("ac", "ad", "bc", "bd"), got)
}

func TestCandidates_EarlyStop(t *testing.T) {
	t.Parallel()

	big := NewSpellingSet("a", "b", "c", "d", "e", "f", "g", "h", "i", "j")
	sets := []SpellingSet{big, big, big, big, big, big, big, big, big}

	n := 0
	for range Candidates(sets) {
		n++
		if n == 5 {
			break
		}
	}
	assert.Equal(t, 5, n)
}

func TestCandidates_Empty(t *testing.T) {
	t.Parallel()

	for range Candidates([]SpellingSet{NewSpellingSet("a"), {}}) {
		t.Fatal("no candidates expected")
	}
	for range Candidates(nil) {
		t.Fatal("no candidates expected")
	}
}
