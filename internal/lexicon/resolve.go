package lexicon

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrWong99/soundalike/internal/phonetic"
)

// Match is one word an input may have been meant as.
type Match struct {
	Word string `json:"word"`

	// Exact is true when the input is a stored candidate of Word.
	Exact bool `json:"exact"`

	// Score is 1 for exact matches and the fuzzy similarity otherwise.
	Score float64 `json:"score"`
}

// Resolver maps a possibly misspelled input back to stored words. Exact
// reverse lookups win; otherwise the phonetic matcher picks the closest
// stored word.
type Resolver struct {
	store   Store
	matcher *phonetic.Matcher
}

// NewResolver returns a Resolver over store. A nil matcher uses
// [phonetic.New] defaults.
func NewResolver(store Store, matcher *phonetic.Matcher) *Resolver {
	if matcher == nil {
		matcher = phonetic.New()
	}
	return &Resolver{store: store, matcher: matcher}
}

// Resolve returns the words input may stand for. The result is empty when
// nothing matches.
func (r *Resolver) Resolve(ctx context.Context, input string) ([]Match, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil
	}

	words, err := r.store.Lookup(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("lexicon: resolve %q: %w", input, err)
	}
	if len(words) > 0 {
		out := make([]Match, len(words))
		for i, w := range words {
			out[i] = Match{Word: w, Exact: true, Score: 1}
		}
		return out, nil
	}

	all, err := r.store.Words(ctx)
	if err != nil {
		return nil, fmt.Errorf("lexicon: resolve %q: %w", input, err)
	}
	if w, score, ok := r.matcher.Match(input, all); ok {
		return []Match{{Word: w, Score: score}}, nil
	}
	return nil, nil
}
