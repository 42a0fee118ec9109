package misspell

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/soundalike/internal/observe"
	"github.com/MrWong99/soundalike/internal/oracle"
)

const defaultConcurrency = 8

// SyllableDetail records how one syllable was expanded.
type SyllableDetail struct {
	Syllable       Syllable        `json:"syllable"`
	Transcriptions []Transcription `json:"transcriptions"`
	Spellings      []string        `json:"spellings"`
}

// Result is the outcome of generating misspellings for one word.
type Result struct {
	ID       uuid.UUID `json:"id"`
	Word     string    `json:"word"`
	Strategy Strategy  `json:"strategy"`

	// Syllables is set by the syllable strategy, in word order.
	Syllables []SyllableDetail `json:"syllables,omitempty"`

	// Transcriptions is set by the phonetic strategy.
	Transcriptions []Transcription `json:"transcriptions,omitempty"`

	// Candidates is sorted and free of duplicates.
	Candidates []Candidate `json:"candidates"`

	CreatedAt time.Time `json:"created_at"`
}

// Option is a functional option for configuring a [Generator].
type Option func(*Generator)

// WithStrategy sets the default strategy. Default: [StrategySyllable].
func WithStrategy(s Strategy) Option {
	return func(g *Generator) {
		g.strategy = s
	}
}

// WithConcurrency bounds the number of syllables expanded at once.
// Default: 8.
func WithConcurrency(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

// WithMaxCandidates caps the cartesian product of the syllable strategy. See
// [WithLimit]. Default: 0 (no cap).
func WithMaxCandidates(n int) Option {
	return func(g *Generator) {
		g.maxCandidates = n
	}
}

// WithSegmentation sets the syllabifier's segmentation policy.
func WithSegmentation(p SegmentationPolicy) Option {
	return func(g *Generator) {
		g.segmentation = p
	}
}

// WithMetrics records metrics to m instead of [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(g *Generator) {
		g.metrics = m
	}
}

// Generator runs the misspelling pipeline. It is safe for concurrent use.
type Generator struct {
	oracle         oracle.Oracle
	syllabifier    *Syllabifier
	pronunciations *PronunciationExpander
	spellings      *SpellingExpander
	metrics        *observe.Metrics

	strategy      Strategy
	concurrency   int
	maxCandidates int
	segmentation  SegmentationPolicy
}

// New returns a Generator that consults o.
func New(o oracle.Oracle, opts ...Option) *Generator {
	g := &Generator{
		oracle:       o,
		strategy:     StrategySyllable,
		concurrency:  defaultConcurrency,
		segmentation: SegmentTolerant,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.metrics == nil {
		g.metrics = observe.DefaultMetrics()
	}
	g.syllabifier = NewSyllabifier(o, g.segmentation)
	g.pronunciations = NewPronunciationExpander(o)
	g.spellings = NewSpellingExpander(o, g.metrics)
	return g
}

// Strategy returns the default strategy.
func (g *Generator) Strategy() Strategy { return g.strategy }

// Generate produces misspellings of word using the default strategy.
func (g *Generator) Generate(ctx context.Context, word string) (*Result, error) {
	return g.GenerateWith(ctx, word, g.strategy)
}

// GenerateWith produces misspellings of word using strategy. The first
// oracle failure in any branch cancels the others and is returned; no
// partial result is produced.
func (g *Generator) GenerateWith(ctx context.Context, word string, strategy Strategy) (*Result, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, ErrInvalidWord
	}
	if !slices.Contains(Strategies, strategy) {
		return nil, fmt.Errorf("misspell: unknown strategy %q", strategy)
	}

	ctx, span := observe.StartSpan(ctx, "misspell.generate",
		trace.WithAttributes(
			attribute.String("misspell.word", word),
			attribute.String("misspell.strategy", string(strategy)),
		),
	)

	start := time.Now()
	res := &Result{
		ID:        uuid.New(),
		Word:      word,
		Strategy:  strategy,
		CreatedAt: start.UTC(),
	}

	var err error
	switch strategy {
	case StrategyPhonetic:
		err = g.phonetic(ctx, res)
	case StrategyDirect:
		err = g.direct(ctx, res)
	default:
		err = g.syllable(ctx, res)
	}
	observe.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	g.metrics.RecordGeneration(ctx, string(strategy), time.Since(start), len(res.Candidates))
	observe.Logger(ctx).Info("misspell: generated",
		"word", word,
		"strategy", strategy,
		"candidates", len(res.Candidates),
		"duration", time.Since(start),
	)
	return res, nil
}

// syllable runs the syllable-based pipeline.
func (g *Generator) syllable(ctx context.Context, res *Result) error {
	syllables, err := g.syllabifier.Syllabify(ctx, res.Word)
	if err != nil {
		return fmt.Errorf("misspell: syllabify %q: %w", res.Word, err)
	}

	details := make([]SyllableDetail, len(syllables))
	sets := make([]SpellingSet, len(syllables))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for i, syl := range syllables {
		eg.Go(func() error {
			ts, err := g.pronunciations.Expand(egCtx, syl, res.Word)
			if err != nil {
				return fmt.Errorf("misspell: pronunciations of %q: %w", syl, err)
			}
			set, err := g.spellings.BuildSpellingSet(egCtx, syl, res.Word, ts)
			if err != nil {
				return fmt.Errorf("misspell: spellings of %q: %w", syl, err)
			}
			details[i] = SyllableDetail{Syllable: syl, Transcriptions: ts, Spellings: set.Sorted()}
			sets[i] = set
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	candidates, err := Combine(sets, WithLimit(g.maxCandidates))
	if err != nil {
		return fmt.Errorf("misspell: combine %q: %w", res.Word, err)
	}
	res.Syllables = details
	res.Candidates = candidates
	return nil
}

// phonetic transcribes the whole word and spells every transcription back.
func (g *Generator) phonetic(ctx context.Context, res *Result) error {
	ts, err := g.pronunciations.ExpandWord(ctx, res.Word)
	if err != nil {
		return fmt.Errorf("misspell: pronunciations of %q: %w", res.Word, err)
	}

	parts := make([]SpellingSet, len(ts))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for i, t := range ts {
		eg.Go(func() error {
			set, err := g.spellings.ExpandHeard(egCtx, t)
			if err != nil {
				return fmt.Errorf("misspell: spellings of %s: %w", t, err)
			}
			parts[i] = set
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	res.Transcriptions = ts
	res.Candidates = sortedCandidates(union(parts...))
	return nil
}

// direct asks the oracle for misspellings in a single request.
func (g *Generator) direct(ctx context.Context, res *Result) error {
	out, err := g.oracle.Request(ctx, misspellingTemplate, oracle.Vars{"word": res.Word}, misspellingSchema)
	if err != nil {
		return fmt.Errorf("misspell: misspellings of %q: %w", res.Word, err)
	}
	raw, err := out.Strings("misspellings")
	if err != nil {
		return fmt.Errorf("misspell: misspellings of %q: %w", res.Word,
			&oracle.OracleError{Kind: oracle.KindSchemaViolation, Template: misspellingTemplate.Name, Err: err})
	}
	kept, dropped := filterAlphabetic(raw)
	g.metrics.RecordFilteredSpellings(ctx, dropped)
	res.Candidates = sortedCandidates(NewSpellingSet(kept...))
	return nil
}

func sortedCandidates(s SpellingSet) []Candidate {
	out := make([]Candidate, 0, len(s))
	for _, sp := range s.Sorted() {
		out = append(out, Candidate(sp))
	}
	return out
}
