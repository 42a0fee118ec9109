package misspell

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrWong99/soundalike/internal/oracle"
	"github.com/MrWong99/soundalike/pkg/provider/llm"
	"github.com/MrWong99/soundalike/pkg/provider/llm/mock"
)

func TestGenerate_Cat(t *testing.T) {
	t.Parallel()

	res, err := New(happyOracle()).Generate(context.Background(), "cat")
	require.NoError(t, err)

	assert.Equal(t, "cat", res.Word)
	assert.Equal(t, StrategySyllable, res.Strategy)
	assert.Equal(t, candidates("cat", "kat"), res.Candidates)
	require.Len(t, res.Syllables, 1)
	assert.Equal(t, SyllableDetail{
		Syllable:       "cat",
		Transcriptions: []Transcription{"/kæt/"},
		Spellings:      []string{"cat", "kat"},
	}, res.Syllables[0])
	assert.NotZero(t, res.ID)
	assert.False(t, res.CreatedAt.IsZero())
}

func TestGenerate_Happy(t *testing.T) {
	t.Parallel()

	res, err := New(happyOracle()).Generate(context.Background(), "  happy ")
	require.NoError(t, err)

	assert.Equal(t, "happy", res.Word)
	assert.Equal(t, candidates("hapee", "happee", "happpy", "happy"), res.Candidates)
	require.Len(t, res.Syllables, 2)
	assert.Equal(t, Syllable("hap"), res.Syllables[0].Syllable)
	assert.Equal(t, Syllable("py"), res.Syllables[1].Syllable)
}

func TestGenerate_IdentityAndInclusion(t *testing.T) {
	t.Parallel()

	// Every spelling the oracle offers is rejected; the word itself survives.
	o := &fakeOracle{
		syllables: map[string][]string{"wonder": {"won", "der"}},
		ipa:       map[string][]string{"won": {"/wʌn/"}, "der": {"/dɚ/"}},
		spellings: map[string][]string{"/wʌn/": {"w0n"}, "/dɚ/": {"d'r"}},
	}
	res, err := New(o).Generate(context.Background(), "wonder")
	require.NoError(t, err)
	assert.Equal(t, candidates("wonder"), res.Candidates)
}

func TestGenerate_DuplicateSyllablesKeepPosition(t *testing.T) {
	t.Parallel()

	o := &fakeOracle{
		syllables: map[string][]string{"papa": {"pa", "pa"}},
		ipa:       map[string][]string{"pa": {"/pɑ/"}},
		spellings: map[string][]string{"/pɑ/": {"pah"}},
	}
	res, err := New(o).Generate(context.Background(), "papa")
	require.NoError(t, err)
	assert.Equal(t, candidates("pahpa", "pahpah", "papa", "papah"), res.Candidates)
	assert.Len(t, res.Syllables, 2)
}

func TestGenerate_EmptySpellingSet(t *testing.T) {
	t.Parallel()

	o := &fakeOracle{
		syllables: map[string][]string{"co-op": {"co-", "op"}},
		ipa:       map[string][]string{"co-": {"/koʊ/"}, "op": {"/ɒp/"}},
		spellings: map[string][]string{"/koʊ/": {"ko-", "c o", "k0"}, "/ɒp/": {"opp"}},
	}
	res, err := New(o).Generate(context.Background(), "co-op")
	require.NoError(t, err)
	assert.Empty(t, res.Candidates)
	require.Len(t, res.Syllables, 2)
	assert.Empty(t, res.Syllables[0].Spellings)
	assert.Equal(t, []string{"op", "opp"}, res.Syllables[1].Spellings)
}

func TestGenerate_EmptySyllabification(t *testing.T) {
	t.Parallel()

	o := &fakeOracle{syllables: map[string][]string{"hmm": {" "}}}
	_, err := New(o).Generate(context.Background(), "hmm")
	assert.ErrorIs(t, err, ErrEmptySyllabification)
}

func TestGenerate_StrictSegmentation(t *testing.T) {
	t.Parallel()

	o := happyOracle()
	o.syllables["happy"] = []string{"ha", "pee"}

	_, err := New(o, WithSegmentation(SegmentStrict)).Generate(context.Background(), "happy")
	require.ErrorIs(t, err, ErrSegmentation)
	for _, c := range o.Calls() {
		assert.True(t, strings.HasPrefix(c, "syllabify:"), "no expansion after a rejected segmentation: %s", c)
	}
}

func TestGenerate_BlankWord(t *testing.T) {
	t.Parallel()

	o := happyOracle()
	_, err := New(o).Generate(context.Background(), " \t")
	require.ErrorIs(t, err, ErrInvalidWord)
	assert.Empty(t, o.Calls())
}

func TestGenerate_UnknownStrategy(t *testing.T) {
	t.Parallel()

	_, err := New(happyOracle()).GenerateWith(context.Background(), "cat", Strategy("rhyming"))
	assert.Error(t, err)
}

func TestGenerate_TooManyCandidates(t *testing.T) {
	t.Parallel()

	_, err := New(happyOracle(), WithMaxCandidates(3)).Generate(context.Background(), "happy")
	require.ErrorIs(t, err, ErrTooManyCandidates)

	res, err := New(happyOracle(), WithMaxCandidates(4)).Generate(context.Background(), "happy")
	require.NoError(t, err)
	assert.Len(t, res.Candidates, 4)
}

func TestGenerate_FailFast(t *testing.T) {
	t.Parallel()

	o := happyOracle()
	o.fail = map[string]error{
		"syllable_spellings:/pi/": &oracle.OracleError{Kind: oracle.KindSchemaViolation, Template: "syllable_spellings"},
	}

	res, err := New(o, WithConcurrency(1)).Generate(context.Background(), "happy")
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, oracle.ErrOracle)
	assert.Equal(t, oracle.KindSchemaViolation, oracle.KindOf(err))
}

func TestGenerate_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(happyOracle()).Generate(ctx, "happy")
	assert.ErrorIs(t, err, oracle.ErrOracle)
}

func TestGenerate_Deterministic(t *testing.T) {
	t.Parallel()

	g := New(happyOracle())
	first, err := g.Generate(context.Background(), "happy")
	require.NoError(t, err)
	for range 5 {
		again, err := g.Generate(context.Background(), "happy")
		require.NoError(t, err)
		assert.Equal(t, first.Candidates, again.Candidates)
	}
}

func TestGenerate_Phonetic(t *testing.T) {
	t.Parallel()

	o := &fakeOracle{
		ipa:       map[string][]string{"cat": {"/kæt/", "/kat/"}},
		spellings: map[string][]string{"/kæt/": {"Kat", "catt"}, "/kat/": {"KAT", "k@t"}},
	}
	g := New(o, WithStrategy(StrategyPhonetic))
	assert.Equal(t, StrategyPhonetic, g.Strategy())

	res, err := g.Generate(context.Background(), "cat")
	require.NoError(t, err)
	assert.Equal(t, StrategyPhonetic, res.Strategy)
	assert.Equal(t, []Transcription{"/kæt/", "/kat/"}, res.Transcriptions)
	assert.Equal(t, candidates("catt", "kat"), res.Candidates)
	assert.Empty(t, res.Syllables)
}

func TestGenerate_Direct(t *testing.T) {
	t.Parallel()

	o := &fakeOracle{misspellings: map[string][]string{
		"necessary": {"neccessary", "necesary", "nec-essary", "necesary", "n3cessary"},
	}}
	res, err := New(o).GenerateWith(context.Background(), "necessary", StrategyDirect)
	require.NoError(t, err)
	assert.Equal(t, candidates("neccessary", "necesary"), res.Candidates)
	assert.Equal(t, []string{"misspellings:necessary"}, o.Calls())
}

func TestGenerate_EmptySyllablesThroughClient(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{CompleteResponse: &llm.CompletionResponse{Content: `{"syllables": []}`}}
	_, err := New(oracle.NewClient(p)).Generate(context.Background(), "cat")
	require.ErrorIs(t, err, ErrEmptySyllabification)
	assert.NotErrorIs(t, err, oracle.ErrOracle)
}

func TestGenerate_ThroughClient(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	p := &mock.Provider{
		CompleteFunc: func(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			calls.Add(1)
			var content string
			switch req.ResponseFormat.Name {
			case "syllabification":
				content = `{"syllables": ["cat"]}`
			case "ipa_transcriptions":
				content = "```json\n{\"ipa_transcriptions\": [\"/kæt/\"]}\n```"
			case "possible_spellings":
				content = `{"spellings": ["kat", "k-t", "cat"]}`
			}
			return &llm.CompletionResponse{Content: content}, nil
		},
	}

	res, err := New(oracle.NewClient(p)).Generate(context.Background(), "cat")
	require.NoError(t, err)
	assert.Equal(t, candidates("cat", "kat"), res.Candidates)
	assert.EqualValues(t, 3, calls.Load())
}
