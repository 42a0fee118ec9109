package misspell

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptySyllabification is matched by [*EmptySyllabificationError].
	ErrEmptySyllabification = errors.New("empty syllabification")

	// ErrSegmentation is matched by [*SegmentationError].
	ErrSegmentation = errors.New("lossy segmentation")

	// ErrTooManyCandidates is matched by [*TooManyCandidatesError].
	ErrTooManyCandidates = errors.New("too many candidates")

	// ErrInvalidWord is returned for blank input.
	ErrInvalidWord = errors.New("misspell: word must not be blank")
)

// EmptySyllabificationError reports that the oracle produced no usable
// syllables for a non-empty word. No later stage can proceed.
type EmptySyllabificationError struct {
	Word string
}

func (e *EmptySyllabificationError) Error() string {
	return fmt.Sprintf("misspell: oracle returned no syllables for %q", e.Word)
}

func (e *EmptySyllabificationError) Is(target error) bool { return target == ErrEmptySyllabification }

// SegmentationError reports, under the strict segmentation policy, that the
// syllables do not concatenate back to the word.
type SegmentationError struct {
	Word      string
	Syllables []Syllable
}

func (e *SegmentationError) Error() string {
	parts := make([]string, len(e.Syllables))
	for i, s := range e.Syllables {
		parts[i] = string(s)
	}
	return fmt.Sprintf("misspell: syllables [%s] do not reproduce %q", strings.Join(parts, " "), e.Word)
}

func (e *SegmentationError) Is(target error) bool { return target == ErrSegmentation }

// TooManyCandidatesError reports that the cartesian product exceeds the
// configured limit. It is returned before any candidate is enumerated.
type TooManyCandidatesError struct {
	Count int
	Limit int
}

func (e *TooManyCandidatesError) Error() string {
	return fmt.Sprintf("misspell: %d candidates exceed limit %d", e.Count, e.Limit)
}

func (e *TooManyCandidatesError) Is(target error) bool { return target == ErrTooManyCandidates }
