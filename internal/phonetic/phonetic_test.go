package phonetic_test

import (
	"testing"

	"github.com/MrWong99/soundalike/internal/phonetic"
)

func TestMatcher_PrefersSoundAlike(t *testing.T) {
	t.Parallel()

	m := phonetic.New()
	words := []string{"photograph", "phonetic", "kitten"}

	got, score, ok := m.Match("fonetik", words)
	if !ok {
		t.Fatalf("Match(%q): ok=false, want true", "fonetik")
	}
	if got != "phonetic" {
		t.Errorf("Match(%q) = %q, want %q", "fonetik", got, "phonetic")
	}
	if score < 0.7 {
		t.Errorf("Match(%q): score=%f, want >= 0.7", "fonetik", score)
	}
}

func TestMatcher_NoMatch(t *testing.T) {
	t.Parallel()

	m := phonetic.New()
	got, score, ok := m.Match("zebra", []string{"phonetic", "kitten"})
	if ok {
		t.Fatalf("Match(%q): ok=true (%q), want false", "zebra", got)
	}
	if got != "" || score != 0 {
		t.Errorf("Match(%q) = (%q, %f), want zero values", "zebra", got, score)
	}
}

func TestMatcher_CaseInsensitive(t *testing.T) {
	t.Parallel()

	m := phonetic.New()
	got, score, ok := m.Match("KITTEN", []string{"Kitten"})
	if !ok || got != "Kitten" {
		t.Fatalf("Match(%q) = (%q, %v), want Kitten", "KITTEN", got, ok)
	}
	if score != 1 {
		t.Errorf("score = %f, want 1", score)
	}
}

func TestMatcher_EmptyInput(t *testing.T) {
	t.Parallel()

	m := phonetic.New()
	if _, _, ok := m.Match("  ", []string{"cat"}); ok {
		t.Error("blank input must not match")
	}
	if _, _, ok := m.Match("cat", nil); ok {
		t.Error("empty word list must not match")
	}
}

func TestMatcher_Thresholds(t *testing.T) {
	t.Parallel()

	strict := phonetic.New(phonetic.WithPhoneticThreshold(0.99), phonetic.WithFuzzyThreshold(0.99))
	if _, _, ok := strict.Match("fonetik", []string{"phonetic"}); ok {
		t.Error("strict thresholds should reject a partial match")
	}
}

func TestSimilarity(t *testing.T) {
	t.Parallel()

	if got := phonetic.Similarity("Happy", "happy"); got != 1 {
		t.Errorf("Similarity(identical) = %f, want 1", got)
	}
	if a, b := phonetic.Similarity("happy", "hapy"), phonetic.Similarity("happy", "zzz"); a <= b {
		t.Errorf("Similarity ordering: hapy=%f, zzz=%f", a, b)
	}
}

func TestSoundsAlike(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want bool
	}{
		{"cat", "kat", true},
		{"phone", "fone", true},
		{"cat", "dog", false},
	}
	for _, tc := range tests {
		if got := phonetic.SoundsAlike(tc.a, tc.b); got != tc.want {
			t.Errorf("SoundsAlike(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
