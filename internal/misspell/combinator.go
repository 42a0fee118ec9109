package misspell

import (
	"iter"
	"maps"
	"math"
	"slices"
	"strings"
)

type combineConfig struct {
	limit int
}

// CombineOption configures [Combine].
type CombineOption func(*combineConfig)

// WithLimit makes [Combine] fail with a [*TooManyCandidatesError] when the
// cartesian product has more than n tuples. n <= 0 means no limit.
func WithLimit(n int) CombineOption {
	return func(c *combineConfig) {
		c.limit = n
	}
}

// Cardinality returns the size of the cartesian product of sets, saturating
// at math.MaxInt. It is zero when sets is empty or any set is empty.
func Cardinality(sets []SpellingSet) int {
	if len(sets) == 0 {
		return 0
	}
	n := 1
	for _, s := range sets {
		l := s.Len()
		if l == 0 {
			return 0
		}
		if n > math.MaxInt/l {
			return math.MaxInt
		}
		n *= l
	}
	return n
}

// maxSizeHint caps the dedup map preallocation for unlimited products.
const maxSizeHint = 1 << 16

// Combine returns every distinct concatenation formed by picking one
// spelling from each set, in set order. Equal concatenations from different
// choices collapse. The result is sorted, so repeated calls on the same sets
// return identical slices. An empty set anywhere yields no candidates and no
// error.
//
// The product grows as A^S for S sets of A spellings each. With [WithLimit]
// the size is checked before enumeration starts.
func Combine(sets []SpellingSet, opts ...CombineOption) ([]Candidate, error) {
	var cfg combineConfig
	for _, o := range opts {
		o(&cfg)
	}

	total := Cardinality(sets)
	if total == 0 {
		return nil, nil
	}
	if cfg.limit > 0 && total > cfg.limit {
		return nil, &TooManyCandidatesError{Count: total, Limit: cfg.limit}
	}

	seen := make(map[Candidate]struct{}, min(total, maxSizeHint))
	for c := range Candidates(sets) {
		seen[c] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen)), nil
}

// Candidates lazily enumerates the cartesian product of sets in
// lexicographic order of choices. Unlike [Combine] it does not collapse
// duplicates and holds only one tuple in memory, so it suits products too
// large to materialise.
func Candidates(sets []SpellingSet) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		if Cardinality(sets) == 0 {
			return
		}
		choices := make([][]string, len(sets))
		for i, s := range sets {
			choices[i] = s.Sorted()
		}

		idx := make([]int, len(choices))
		var sb strings.Builder
		for {
			sb.Reset()
			for i, c := range idx {
				sb.WriteString(choices[i][c])
			}
			if !yield(Candidate(sb.String())) {
				return
			}

			// Odometer increment, rightmost position fastest.
			k := len(idx) - 1
			for ; k >= 0; k-- {
				idx[k]++
				if idx[k] < len(choices[k]) {
					break
				}
				idx[k] = 0
			}
			if k < 0 {
				return
			}
		}
	}
}
