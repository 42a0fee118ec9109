// Package lexicon persists generated misspellings so they can be reused as a
// fuzzy-matching dictionary: given a word, which misspellings were produced
// for it, and given a misspelling, which words it may have meant.
package lexicon

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/MrWong99/soundalike/internal/misspell"
)

// ErrNotFound is returned by Get when no entry exists for the word and
// strategy.
var ErrNotFound = errors.New("lexicon: entry not found")

// Entry is the stored outcome of one generation run.
type Entry struct {
	ID         uuid.UUID         `json:"id"`
	Word       string            `json:"word"`
	Strategy   misspell.Strategy `json:"strategy"`
	Candidates []string          `json:"candidates"`
	CreatedAt  time.Time         `json:"created_at"`
}

// EntryFromResult converts a generation result into an Entry.
func EntryFromResult(res *misspell.Result) Entry {
	cands := make([]string, len(res.Candidates))
	for i, c := range res.Candidates {
		cands[i] = string(c)
	}
	return Entry{
		ID:         res.ID,
		Word:       res.Word,
		Strategy:   res.Strategy,
		Candidates: cands,
		CreatedAt:  res.CreatedAt,
	}
}

// Store persists lexicon entries. There is at most one entry per word and
// strategy; saving again replaces it.
//
// All implementations must be safe for concurrent use.
type Store interface {
	// Save inserts or replaces the entry for e.Word and e.Strategy.
	Save(ctx context.Context, e Entry) error

	// Get returns the entry for word and strategy.
	// Returns [ErrNotFound] when there is none.
	Get(ctx context.Context, word string, strategy misspell.Strategy) (Entry, error)

	// Lookup returns the distinct words, sorted, whose candidates include
	// misspelling. An unknown misspelling yields an empty slice.
	Lookup(ctx context.Context, misspelling string) ([]string, error)

	// Words returns every stored word, sorted and deduplicated.
	Words(ctx context.Context) ([]string, error)
}
