// Package phonetic scores how alike two spellings sound, using Double
// Metaphone codes for sound equality and Jaro-Winkler similarity for ranking.
//
// It serves two consumers: the syllabifier uses [Similarity] to report how far
// the oracle's syllables drift from the word they came from, and the lexicon
// uses [Matcher] to resolve a misspelling that was never generated verbatim
// to the closest known word.
package phonetic

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	defaultPhoneticThreshold = 0.70
	defaultFuzzyThreshold    = 0.85
)

// Similarity returns the case-insensitive Jaro-Winkler similarity of a and b
// in [0, 1].
func Similarity(a, b string) float64 {
	return matchr.JaroWinkler(normalize(a), normalize(b), false)
}

// SoundsAlike reports whether a and b share a primary or secondary Double
// Metaphone code.
func SoundsAlike(a, b string) bool {
	ca, cb := codes(normalize(a)), codes(normalize(b))
	for c := range ca {
		if _, ok := cb[c]; ok {
			return true
		}
	}
	return false
}

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithPhoneticThreshold sets the minimum Jaro-Winkler score for a word that
// sounds alike. Default: 0.70.
func WithPhoneticThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.phoneticThreshold = threshold
	}
}

// WithFuzzyThreshold sets the minimum Jaro-Winkler score for a word that
// does not sound alike. Default: 0.85.
func WithFuzzyThreshold(threshold float64) Option {
	return func(m *Matcher) {
		m.fuzzyThreshold = threshold
	}
}

// Matcher picks the known word closest to a (mis)spelling. It is read-only
// after construction and safe for concurrent use.
type Matcher struct {
	phoneticThreshold float64
	fuzzyThreshold    float64
}

// New returns a Matcher configured with opts.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		phoneticThreshold: defaultPhoneticThreshold,
		fuzzyThreshold:    defaultFuzzyThreshold,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Match returns the entry of words that best matches input. Words that sound
// alike always beat words that merely look alike. When nothing clears its
// threshold, ok is false and word is empty.
func (m *Matcher) Match(input string, words []string) (word string, score float64, ok bool) {
	in := normalize(input)
	if in == "" || len(words) == 0 {
		return "", 0, false
	}
	inCodes := codes(in)

	var (
		best         string
		bestScore    float64
		bestPhonetic bool
	)
	for _, w := range words {
		cand := normalize(w)
		if cand == "" {
			continue
		}
		s := matchr.JaroWinkler(in, cand, false)
		if overlap(inCodes, codes(cand)) {
			if s >= m.phoneticThreshold && (!bestPhonetic || s > bestScore) {
				best, bestScore, bestPhonetic = w, s, true
			}
		} else if !bestPhonetic && s >= m.fuzzyThreshold && s > bestScore {
			best, bestScore = w, s
		}
	}
	if best == "" {
		return "", 0, false
	}
	return best, bestScore, true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// codes returns the non-empty Double Metaphone codes of s.
func codes(s string) map[string]struct{} {
	out := make(map[string]struct{}, 2)
	p, sec := matchr.DoubleMetaphone(s)
	if p != "" {
		out[p] = struct{}{}
	}
	if sec != "" {
		out[sec] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for c := range a {
		if _, ok := b[c]; ok {
			return true
		}
	}
	return false
}
