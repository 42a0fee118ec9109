// Package misspell generates plausible human misspellings of English words.
//
// The default syllable strategy splits a word into syllables, asks the oracle
// how each syllable may be pronounced, asks how each pronunciation may be
// written down, and then takes the cartesian product of the per-syllable
// spelling alternatives:
//
//	word ──► Syllabifier ──► syllables
//	              │ (one branch per syllable)
//	              ▼
//	    PronunciationExpander ──► transcriptions
//	              │ (one branch per transcription)
//	              ▼
//	      SpellingExpander ──► SpellingSet per syllable
//	              │ (barrier)
//	              ▼
//	         Combine ──► candidates
//
// A word with S syllables and A alternatives per syllable yields up to A^S
// candidates. [Combine] never truncates silently: callers either set a limit
// with [WithLimit] and get [ErrTooManyCandidates] before any enumeration, or
// stream the product lazily with [Candidates].
//
// Two simpler strategies are also available: [StrategyPhonetic] transcribes
// the whole word and spells each transcription back, and [StrategyDirect]
// asks the oracle for misspellings in a single request.
package misspell

import (
	"fmt"
	"slices"
	"strings"
)

// Syllable is one segment of a word as determined by the oracle. Syllables
// may be phonetic rather than orthographic, so concatenating them need not
// reproduce the word.
type Syllable string

// Transcription is an opaque phonetic rendering, typically IPA wrapped in
// slashes such as "/kæt/".
type Transcription string

// Candidate is one whole-word spelling formed by choosing one alternative per
// syllable.
type Candidate string

// Strategy selects how candidates are generated.
type Strategy string

const (
	// StrategySyllable combines per-syllable spelling alternatives.
	StrategySyllable Strategy = "syllable"

	// StrategyPhonetic spells whole-word transcriptions back to text.
	StrategyPhonetic Strategy = "phonetic"

	// StrategyDirect asks the oracle for misspellings in one request.
	StrategyDirect Strategy = "direct"
)

// Strategies lists every valid strategy.
var Strategies = []Strategy{StrategySyllable, StrategyPhonetic, StrategyDirect}

// ParseStrategy converts s to a Strategy. The empty string selects
// [StrategySyllable].
func ParseStrategy(s string) (Strategy, error) {
	if s == "" {
		return StrategySyllable, nil
	}
	st := Strategy(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Strategies, st) {
		return "", fmt.Errorf("misspell: unknown strategy %q", s)
	}
	return st, nil
}

// SpellingSet is the set of alternative spellings for one syllable. Sets are
// built once by [SpellingExpander] and not modified afterwards.
type SpellingSet map[string]struct{}

// NewSpellingSet returns a set holding items.
func NewSpellingSet(items ...string) SpellingSet {
	s := make(SpellingSet, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// Contains reports whether spelling is in the set.
func (s SpellingSet) Contains(spelling string) bool {
	_, ok := s[spelling]
	return ok
}

// Len returns the number of spellings.
func (s SpellingSet) Len() int { return len(s) }

// Sorted returns the spellings in lexical order.
func (s SpellingSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// union returns a new set containing the members of every set in sets.
func union(sets ...SpellingSet) SpellingSet {
	n := 0
	for _, s := range sets {
		n += len(s)
	}
	out := make(SpellingSet, n)
	for _, s := range sets {
		for k := range s {
			out[k] = struct{}{}
		}
	}
	return out
}

// concat joins syllables into a single string.
func concat(syllables []Syllable) string {
	var sb strings.Builder
	for _, s := range syllables {
		sb.WriteString(string(s))
	}
	return sb.String()
}
