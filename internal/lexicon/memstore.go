package lexicon

import (
	"context"
	"slices"
	"sync"

	"github.com/MrWong99/soundalike/internal/misspell"
)

var _ Store = (*MemStore)(nil)

type entryKey struct {
	word     string
	strategy misspell.Strategy
}

// MemStore is a thread-safe, in-memory implementation of [Store]. It is
// suitable for single runs and testing. The zero value is ready to use.
type MemStore struct {
	mu      sync.RWMutex
	entries map[entryKey]Entry
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[entryKey]Entry)}
}

// Save implements [Store.Save].
func (s *MemStore) Save(_ context.Context, e Entry) error {
	e.Candidates = slices.Clone(e.Candidates)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entries == nil {
		s.entries = make(map[entryKey]Entry)
	}
	s.entries[entryKey{e.Word, e.Strategy}] = e
	return nil
}

// Get implements [Store.Get].
func (s *MemStore) Get(_ context.Context, word string, strategy misspell.Strategy) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[entryKey{word, strategy}]
	if !ok {
		return Entry{}, ErrNotFound
	}
	e.Candidates = slices.Clone(e.Candidates)
	return e, nil
}

// Lookup implements [Store.Lookup].
func (s *MemStore) Lookup(_ context.Context, misspelling string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	words := []string{}
	for k, e := range s.entries {
		if slices.Contains(e.Candidates, misspelling) {
			words = append(words, k.word)
		}
	}
	slices.Sort(words)
	return slices.Compact(words), nil
}

// Words implements [Store.Words].
func (s *MemStore) Words(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	words := make([]string, 0, len(s.entries))
	for k := range s.entries {
		words = append(words, k.word)
	}
	slices.Sort(words)
	return slices.Compact(words), nil
}
