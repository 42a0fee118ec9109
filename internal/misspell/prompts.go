package misspell

import (
	"github.com/google/jsonschema-go/jsonschema"

	"github.com/MrWong99/soundalike/internal/oracle"
)

// ipaPattern requires transcriptions to be wrapped in slashes.
const ipaPattern = "^/.+/$"

var syllabifyTemplate = oracle.MustTemplate("syllabify", `You are an expert linguist.

Given the word "{word}", transcribe it phonetically, and then break it down into its syllables.

Provide the syllables as a JSON object in the following format:
{{"syllables": ["syllable1", "syllable2", "syllable3"]}}

Example:
word: aspirin
{{"syllables": ["asp", "ruhn"]}}`)

var syllabifySchema = oracle.MustSchema("syllabification", "Syllabification of a word.",
	oracle.Object(map[string]*jsonschema.Schema{
		"syllables": oracle.StringList("The syllables of the word, left to right.", 0, ""),
	}))

var syllableIPATemplate = oracle.MustTemplate("syllable_ipa", `You are a phonetician.

Given the syllable "{syllable}" in the word "{word}", list all possible IPA (International Phonetic Alphabet) transcriptions for it, considering different pronunciations.
Wrap every transcription in slashes.

Provide the transcriptions as a JSON object in the following format:
{{"ipa_transcriptions": ["/transcription1/", "/transcription2/"]}}

Example:
syllable: "to"
{{"ipa_transcriptions": ["/toʊ/", "/tuː/", "/tə/"]}}`)

var wordIPATemplate = oracle.MustTemplate("word_ipa", `You are a phonetician.

Given the word "{word}", provide possible IPA transcriptions for the word.
Wrap every transcription in slashes.

Provide the transcriptions as a JSON object in the following format:
{{"ipa_transcriptions": ["/transcription1/", "/transcription2/"]}}

Example:
word: asprin
{{"ipa_transcriptions": ["/ˈæs.pɹɪn/", "/ˈæs.pɚ.ɪn/"]}}`)

var ipaSchema = oracle.MustSchema("ipa_transcriptions", "Possible IPA transcriptions.",
	oracle.Object(map[string]*jsonschema.Schema{
		"ipa_transcriptions": oracle.StringList("IPA transcriptions wrapped in slashes.", 1, ipaPattern),
	}))

var syllableSpellingTemplate = oracle.MustTemplate("syllable_spellings", `You are an expert in English orthography.

Given the IPA transcription "{transcription}" of the syllable "{syllable}" in the word "{word}", list all possible English spellings (including misspellings) of this syllable that correspond to this pronunciation.
These spellings will be concatenated to form a possible misspelling so do not include extraneous punctuation or spaces.

Provide the spellings as a JSON object in the following format:
{{"spellings": ["spelling1", "spelling2"]}}

Example:
ipa_transcription: "/ʌl/"
{{"spellings": ["ul", "ull", "al", "all"]}}`)

var heardSpellingTemplate = oracle.MustTemplate("heard_spellings", `You are an expert in English orthography.

Pretend that you are a human first hearing the following IPA transcription: "{transcription}".

Given this transcription, list all possible spellings that this human might use to represent this pronunciation in English orthography after hearing it for the first time.

Provide the spellings as a JSON object in the following format:
{{"spellings": ["spelling1", "spelling2"]}}

Example:
transcription: "/ˈæs.pɹɪn/"
{{"spellings": ["asprin", "asprine", "asprinn", "aspryn", "assprin"]}}`)

var spellingSchema = oracle.MustSchema("possible_spellings", "Possible spellings for an IPA transcription.",
	oracle.Object(map[string]*jsonschema.Schema{
		"spellings": oracle.StringList("Candidate spellings.", 0, ""),
	}))

var misspellingTemplate = oracle.MustTemplate("misspellings", `You are an expert in English orthography.

Given a word "{word}", list all possible misspellings of this word.

Provide the spellings as a JSON object in the following format:
{{"misspellings": ["misspelling1", "misspelling2"]}}

Example:
word: "aspirin"
{{"misspellings": ["aspirine", "asprin", "asprine", "aspprin"]}}`)

var misspellingSchema = oracle.MustSchema("possible_misspellings", "Possible misspellings for a word.",
	oracle.Object(map[string]*jsonschema.Schema{
		"misspellings": oracle.StringList("Candidate misspellings.", 0, ""),
	}))
