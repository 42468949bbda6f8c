package transcript

import (
	"strings"
	"testing"

	"github.com/fluentia-app/fluentia/internal/lesson"
)

// fakeMatcher returns a fixed mapping, for exercising the corrector without
// depending on phonetic scoring.
type fakeMatcher struct {
	mapping map[string]string
}

func (f *fakeMatcher) Match(word string, vocab []string) (string, float64, bool) {
	if repl, ok := f.mapping[strings.ToLower(word)]; ok {
		return repl, 0.9, true
	}
	return word, 0, false
}

func TestCorrector_ReplacesMatchedWords(t *testing.T) {
	c := NewCorrector(&fakeMatcher{mapping: map[string]string{
		"libary": "library",
	}})

	got := c.Correct("I went to the libary yesterday", []string{"library"})
	want := "I went to the library yesterday"
	if got != want {
		t.Fatalf("Correct = %q, want %q", got, want)
	}
}

func TestCorrector_PreservesPunctuationAndCase(t *testing.T) {
	c := NewCorrector(&fakeMatcher{mapping: map[string]string{
		"libary": "library",
	}})

	got := c.Correct("Libary? Yes, the libary!", []string{"library"})
	want := "Library? Yes, the library!"
	if got != want {
		t.Fatalf("Correct = %q, want %q", got, want)
	}
}

func TestCorrector_SkipsShortAndKnownWords(t *testing.T) {
	matcher := &fakeMatcher{mapping: map[string]string{
		"the":     "tea",     // must never be consulted: too short
		"library": "library", // must never be consulted: already in vocab
	}}
	c := NewCorrector(matcher)

	input := "the library is big"
	if got := c.Correct(input, []string{"library"}); got != input {
		t.Fatalf("Correct = %q, want input unchanged", got)
	}
}

func TestCorrector_NoVocabNoChange(t *testing.T) {
	c := NewCorrector(&fakeMatcher{mapping: map[string]string{"libary": "library"}})

	input := "I went to the libary"
	if got := c.Correct(input, nil); got != input {
		t.Fatalf("Correct = %q, want input unchanged without vocabulary", got)
	}
	if got := c.Correct("", []string{"library"}); got != "" {
		t.Fatalf("Correct(\"\") = %q, want empty", got)
	}
}

func TestCorrector_DefaultMatcherFixesNearMisses(t *testing.T) {
	c := NewCorrector(nil)
	vocab := []string{"library", "borrow"}

	got := c.Correct("Can I borow a book from the libary?", vocab)
	if !strings.Contains(got, "borrow") {
		t.Errorf("Correct = %q, want %q corrected", got, "borow")
	}
	if !strings.Contains(got, "library") {
		t.Errorf("Correct = %q, want %q corrected", got, "libary")
	}
}

func TestVocabulary_ExtractsDistinctContentWords(t *testing.T) {
	l := &lesson.Lesson{
		Title:    "At the Library",
		Article:  "The library opens at nine. Students can borrow books.",
		Dialogue: "A: When does the library open?\nB: It opens at nine.",
	}

	vocab := Vocabulary(l)

	wantPresent := []string{"library", "opens", "students", "borrow", "books"}
	for _, w := range wantPresent {
		if !containsWord(vocab, w) {
			t.Errorf("vocabulary missing %q: %v", w, vocab)
		}
	}
	// Stopwords and short words are excluded.
	for _, w := range []string{"the", "at", "when", "does", "it"} {
		if containsWord(vocab, w) {
			t.Errorf("vocabulary should not contain %q: %v", w, vocab)
		}
	}
	// No duplicates.
	seen := map[string]int{}
	for _, w := range vocab {
		seen[w]++
		if seen[w] > 1 {
			t.Errorf("duplicate vocabulary entry %q", w)
		}
	}
}

func TestVocabulary_NilLesson(t *testing.T) {
	if vocab := Vocabulary(nil); vocab != nil {
		t.Fatalf("Vocabulary(nil) = %v, want nil", vocab)
	}
}

func containsWord(words []string, w string) bool {
	for _, x := range words {
		if x == w {
			return true
		}
	}
	return false
}
