package misspell

import (
	"context"
	"fmt"
	"strings"

	"github.com/MrWong99/soundalike/internal/observe"
	"github.com/MrWong99/soundalike/internal/oracle"
	"github.com/MrWong99/soundalike/internal/phonetic"
)

// SegmentationPolicy decides what happens when syllables do not concatenate
// back to the word.
type SegmentationPolicy string

const (
	// SegmentTolerant accepts phonetic segmentations and logs the drift.
	SegmentTolerant SegmentationPolicy = "tolerant"

	// SegmentStrict rejects segmentations that are not lossless with a
	// [*SegmentationError].
	SegmentStrict SegmentationPolicy = "strict"
)

// Syllabifier splits words into syllables using the oracle.
type Syllabifier struct {
	oracle oracle.Oracle
	policy SegmentationPolicy
}

// NewSyllabifier returns a Syllabifier. An empty policy means
// [SegmentTolerant].
func NewSyllabifier(o oracle.Oracle, policy SegmentationPolicy) *Syllabifier {
	if policy == "" {
		policy = SegmentTolerant
	}
	return &Syllabifier{oracle: o, policy: policy}
}

// Syllabify returns the syllables of word in oracle order. Blank entries are
// dropped; if none remain the result is an [*EmptySyllabificationError].
// Oracle failures are returned unchanged.
func (s *Syllabifier) Syllabify(ctx context.Context, word string) ([]Syllable, error) {
	res, err := s.oracle.Request(ctx, syllabifyTemplate, oracle.Vars{"word": word}, syllabifySchema)
	if err != nil {
		return nil, err
	}
	raw, err := res.Strings("syllables")
	if err != nil {
		return nil, &oracle.OracleError{Kind: oracle.KindSchemaViolation, Template: syllabifyTemplate.Name, Err: err}
	}

	syllables := make([]Syllable, 0, len(raw))
	for _, r := range raw {
		if r = strings.TrimSpace(r); r != "" {
			syllables = append(syllables, Syllable(r))
		}
	}
	if len(syllables) == 0 {
		return nil, &EmptySyllabificationError{Word: word}
	}

	if joined := concat(syllables); !strings.EqualFold(joined, word) {
		if s.policy == SegmentStrict {
			return nil, &SegmentationError{Word: word, Syllables: syllables}
		}
		observe.Logger(ctx).Debug("misspell: phonetic segmentation",
			"word", word,
			"joined", joined,
			"similarity", fmt.Sprintf("%.2f", phonetic.Similarity(word, joined)),
		)
	}
	return syllables, nil
}
