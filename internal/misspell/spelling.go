package misspell

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/soundalike/internal/observe"
	"github.com/MrWong99/soundalike/internal/oracle"
)

// SpellingExpander asks the oracle how a pronunciation may be written down.
// Every oracle spelling passes through the alphabetic filter so results are
// safe to concatenate.
type SpellingExpander struct {
	oracle  oracle.Oracle
	metrics *observe.Metrics
}

// NewSpellingExpander returns a SpellingExpander backed by o. A nil m uses
// [observe.DefaultMetrics].
func NewSpellingExpander(o oracle.Oracle, m *observe.Metrics) *SpellingExpander {
	if m == nil {
		m = observe.DefaultMetrics()
	}
	return &SpellingExpander{oracle: o, metrics: m}
}

// Expand returns the alphabetic spellings the oracle proposes for
// transcription as the given syllable of word. The set may be empty.
func (s *SpellingExpander) Expand(ctx context.Context, t Transcription, syllable Syllable, word string) (SpellingSet, error) {
	raw, err := s.request(ctx, syllableSpellingTemplate, oracle.Vars{
		"transcription": string(t),
		"syllable":      string(syllable),
		"word":          word,
	})
	if err != nil {
		return nil, err
	}
	return s.filter(ctx, raw, false), nil
}

// ExpandHeard returns the lower-cased alphabetic spellings a listener might
// write after hearing a whole-word transcription.
func (s *SpellingExpander) ExpandHeard(ctx context.Context, t Transcription) (SpellingSet, error) {
	raw, err := s.request(ctx, heardSpellingTemplate, oracle.Vars{"transcription": string(t)})
	if err != nil {
		return nil, err
	}
	return s.filter(ctx, raw, true), nil
}

// BuildSpellingSet expands every transcription of syllable concurrently and
// returns the union of the results plus the syllable itself. Each branch
// fills its own set; the union happens once all branches are done. The
// syllable is subject to the same alphabetic filter as oracle output, so a
// non-alphabetic syllable whose spellings are all rejected yields an empty
// set.
func (s *SpellingExpander) BuildSpellingSet(ctx context.Context, syllable Syllable, word string, ts []Transcription) (SpellingSet, error) {
	parts := make([]SpellingSet, len(ts))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range ts {
		g.Go(func() error {
			set, err := s.Expand(gctx, t, syllable, word)
			if err != nil {
				return err
			}
			parts[i] = set
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := union(parts...)
	if IsAlphabetic(string(syllable)) {
		out[string(syllable)] = struct{}{}
	}
	return out, nil
}

func (s *SpellingExpander) request(ctx context.Context, tmpl *oracle.Template, vars oracle.Vars) ([]string, error) {
	res, err := s.oracle.Request(ctx, tmpl, vars, spellingSchema)
	if err != nil {
		return nil, err
	}
	raw, err := res.Strings("spellings")
	if err != nil {
		return nil, &oracle.OracleError{Kind: oracle.KindSchemaViolation, Template: tmpl.Name, Err: err}
	}
	return raw, nil
}

func (s *SpellingExpander) filter(ctx context.Context, raw []string, lowercase bool) SpellingSet {
	if lowercase {
		for i := range raw {
			raw[i] = lower(raw[i])
		}
	}
	kept, dropped := filterAlphabetic(raw)
	s.metrics.RecordFilteredSpellings(ctx, dropped)
	return NewSpellingSet(kept...)
}
