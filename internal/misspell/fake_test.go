package misspell

import (
	"context"
	"fmt"
	"sync"

	"github.com/MrWong99/soundalike/internal/oracle"
)

// fakeOracle answers from a script keyed by template name and the most
// specific variable of each request. It never touches a network.
type fakeOracle struct {
	mu    sync.Mutex
	calls []string

	// syllables maps word -> syllables.
	syllables map[string][]string
	// ipa maps syllable (or word for word_ipa) -> transcriptions.
	ipa map[string][]string
	// spellings maps transcription -> spellings.
	spellings map[string][]string
	// misspellings maps word -> misspellings.
	misspellings map[string][]string
	// fail maps "template:key" -> error.
	fail map[string]error
}

func (f *fakeOracle) Request(ctx context.Context, tmpl *oracle.Template, vars oracle.Vars, _ *oracle.Schema) (oracle.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, &oracle.OracleError{Kind: oracle.KindUnreachable, Template: tmpl.Name, Err: err}
	}

	var key, field string
	var table map[string][]string
	switch tmpl.Name {
	case "syllabify":
		key, field, table = vars["word"], "syllables", f.syllables
	case "syllable_ipa":
		key, field, table = vars["syllable"], "ipa_transcriptions", f.ipa
	case "word_ipa":
		key, field, table = vars["word"], "ipa_transcriptions", f.ipa
	case "syllable_spellings", "heard_spellings":
		key, field, table = vars["transcription"], "spellings", f.spellings
	case "misspellings":
		key, field, table = vars["word"], "misspellings", f.misspellings
	default:
		return nil, fmt.Errorf("fake oracle: unexpected template %q", tmpl.Name)
	}

	f.mu.Lock()
	f.calls = append(f.calls, tmpl.Name+":"+key)
	f.mu.Unlock()

	if err := f.fail[tmpl.Name+":"+key]; err != nil {
		return nil, err
	}
	vals, ok := table[key]
	if !ok {
		return nil, &oracle.OracleError{Kind: oracle.KindMalformed, Template: tmpl.Name, Err: fmt.Errorf("no scripted answer for %q", key)}
	}
	items := make([]any, len(vals))
	for i, v := range vals {
		items[i] = v
	}
	return oracle.Result{field: items}, nil
}

func (f *fakeOracle) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// happyOracle scripts the "happy" and "cat" scenarios.
func happyOracle() *fakeOracle {
	return &fakeOracle{
		syllables: map[string][]string{
			"cat":   {"cat"},
			"happy": {"hap", "py"},
		},
		ipa: map[string][]string{
			"cat": {"/kæt/"},
			"hap": {"/hæp/"},
			"py":  {"/pi/"},
		},
		spellings: map[string][]string{
			"/kæt/": {"cat", "kat"},
			"/hæp/": {"happ"},
			"/pi/":  {"pee"},
		},
	}
}
