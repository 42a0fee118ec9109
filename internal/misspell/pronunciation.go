package misspell

import (
	"context"

	"github.com/MrWong99/soundalike/internal/oracle"
)

// PronunciationExpander asks the oracle how a syllable, or a whole word, may
// be pronounced.
type PronunciationExpander struct {
	oracle oracle.Oracle
}

// NewPronunciationExpander returns a PronunciationExpander backed by o.
func NewPronunciationExpander(o oracle.Oracle) *PronunciationExpander {
	return &PronunciationExpander{oracle: o}
}

// Expand returns the distinct transcriptions of syllable in the context of
// word, in oracle order. The schema guarantees at least one.
func (p *PronunciationExpander) Expand(ctx context.Context, syllable Syllable, word string) ([]Transcription, error) {
	return p.request(ctx, syllableIPATemplate, oracle.Vars{
		"syllable": string(syllable),
		"word":     word,
	})
}

// ExpandWord returns the distinct transcriptions of the whole word.
func (p *PronunciationExpander) ExpandWord(ctx context.Context, word string) ([]Transcription, error) {
	return p.request(ctx, wordIPATemplate, oracle.Vars{"word": word})
}

func (p *PronunciationExpander) request(ctx context.Context, tmpl *oracle.Template, vars oracle.Vars) ([]Transcription, error) {
	res, err := p.oracle.Request(ctx, tmpl, vars, ipaSchema)
	if err != nil {
		return nil, err
	}
	raw, err := res.Strings("ipa_transcriptions")
	if err != nil {
		return nil, &oracle.OracleError{Kind: oracle.KindSchemaViolation, Template: tmpl.Name, Err: err}
	}

	seen := make(map[string]struct{}, len(raw))
	out := make([]Transcription, 0, len(raw))
	for _, t := range raw {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, Transcription(t))
	}
	return out, nil
}
