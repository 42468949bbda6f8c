package phonetic

import (
	"testing"
)

func TestMatcher_NearMissMatches(t *testing.T) {
	m := New()
	vocab := []string{"library", "dialogue", "practice"}

	tests := []struct {
		word string
		want string
	}{
		{"libary", "library"},
		{"dialoge", "dialogue"},
		{"practise", "practice"},
	}
	for _, tt := range tests {
		got, conf, matched := m.Match(tt.word, vocab)
		if !matched {
			t.Errorf("Match(%q) did not match, want %q", tt.word, tt.want)
			continue
		}
		if got != tt.want {
			t.Errorf("Match(%q) = %q, want %q", tt.word, got, tt.want)
		}
		if conf <= 0 {
			t.Errorf("Match(%q) confidence = %v, want > 0", tt.word, conf)
		}
	}
}

func TestMatcher_UnrelatedWordPassesThrough(t *testing.T) {
	m := New()

	got, conf, matched := m.Match("banana", []string{"library", "dialogue"})
	if matched {
		t.Fatalf("Match(banana) matched %q, want no match", got)
	}
	if got != "banana" || conf != 0 {
		t.Fatalf("Match(banana) = (%q, %v), want unchanged with 0 confidence", got, conf)
	}
}

func TestMatcher_EmptyInputs(t *testing.T) {
	m := New()

	if _, _, matched := m.Match("", []string{"library"}); matched {
		t.Fatal("empty word should not match")
	}
	if _, _, matched := m.Match("library", nil); matched {
		t.Fatal("empty vocabulary should not match")
	}
}

func TestMatcher_MultiWordTerm(t *testing.T) {
	m := New()

	got, _, matched := m.Match("post ofice", []string{"post office", "library"})
	if !matched || got != "post office" {
		t.Fatalf("Match(post ofice) = (%q, matched=%v), want post office", got, matched)
	}
}

func TestMatcher_ThresholdOptions(t *testing.T) {
	// Impossible thresholds disable matching entirely.
	m := New(WithPhoneticThreshold(1.01), WithFuzzyThreshold(1.01))

	if got, _, matched := m.Match("libary", []string{"library"}); matched {
		t.Fatalf("Match = %q, want no match with impossible thresholds", got)
	}
}
