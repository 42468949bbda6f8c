// Package transcript corrects speech-to-text output against lesson
// vocabulary.
//
// STT providers routinely mishear the uncommon words a lesson is actually
// about ("libary", "dialoge"). The [Corrector] walks the transcript and
// phonetically aligns near-miss words to the lesson's vocabulary, leaving
// everything else untouched. Correction is best-effort and purely local; it
// never calls out to a provider.
package transcript

import (
	"strings"
	"unicode"

	"github.com/fluentia-app/fluentia/internal/lesson"
	"github.com/fluentia-app/fluentia/internal/transcript/phonetic"
)

// minWordLen is the shortest transcript word considered for correction.
// Short function words produce too many false phonetic collisions.
const minWordLen = 4

// Matcher aligns a single word to the closest vocabulary term.
// [phonetic.Matcher] is the production implementation.
type Matcher interface {
	Match(word string, vocab []string) (corrected string, confidence float64, matched bool)
}

// Corrector applies vocabulary-guided correction to transcripts.
// Safe for concurrent use.
type Corrector struct {
	matcher Matcher
}

// NewCorrector creates a Corrector. A nil matcher selects the default
// [phonetic.Matcher].
func NewCorrector(m Matcher) *Corrector {
	if m == nil {
		m = phonetic.New()
	}
	return &Corrector{matcher: m}
}

// Correct rewrites words in text that phonetically align with a vocabulary
// term. Punctuation around each word and leading capitalization are
// preserved. Words already present in the vocabulary, and words shorter than
// four characters, pass through unchanged.
func (c *Corrector) Correct(text string, vocab []string) string {
	if strings.TrimSpace(text) == "" || len(vocab) == 0 {
		return text
	}

	known := make(map[string]struct{}, len(vocab))
	for _, v := range vocab {
		known[strings.ToLower(v)] = struct{}{}
	}

	fields := strings.Fields(text)
	changed := false
	for i, field := range fields {
		prefix, core, suffix := splitPunct(field)
		if len([]rune(core)) < minWordLen {
			continue
		}
		if _, ok := known[strings.ToLower(core)]; ok {
			continue
		}

		replacement, _, matched := c.matcher.Match(core, vocab)
		if !matched || strings.EqualFold(replacement, core) {
			continue
		}
		fields[i] = prefix + matchCase(core, replacement) + suffix
		changed = true
	}

	if !changed {
		return text
	}
	return strings.Join(fields, " ")
}

// Vocabulary extracts the distinct correction-worthy words from a lesson:
// words of at least four letters from the title, article and dialogue, with
// common function words removed. Order follows first appearance.
func Vocabulary(l *lesson.Lesson) []string {
	if l == nil {
		return nil
	}

	seen := make(map[string]struct{})
	var vocab []string
	for _, text := range []string{l.Title, l.Article, l.Dialogue} {
		for _, field := range strings.Fields(text) {
			_, core, _ := splitPunct(field)
			lower := strings.ToLower(core)
			if len([]rune(lower)) < minWordLen {
				continue
			}
			if _, skip := stopwords[lower]; skip {
				continue
			}
			if _, dup := seen[lower]; dup {
				continue
			}
			seen[lower] = struct{}{}
			vocab = append(vocab, lower)
		}
	}
	return vocab
}

// stopwords are common words never worth correcting toward.
var stopwords = map[string]struct{}{
	"this": {}, "that": {}, "with": {}, "from": {}, "have": {}, "what": {},
	"when": {}, "where": {}, "which": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "there": {}, "their": {}, "they": {}, "your": {}, "been": {},
	"does": {}, "about": {}, "were": {}, "then": {}, "than": {}, "some": {},
	"like": {}, "just": {}, "into": {}, "over": {}, "also": {}, "very": {},
}

// splitPunct splits a whitespace token into leading punctuation, the word
// core, and trailing punctuation.
func splitPunct(token string) (prefix, core, suffix string) {
	runes := []rune(token)
	start := 0
	for start < len(runes) && !unicode.IsLetter(runes[start]) && !unicode.IsDigit(runes[start]) {
		start++
	}
	end := len(runes)
	for end > start && !unicode.IsLetter(runes[end-1]) && !unicode.IsDigit(runes[end-1]) {
		end--
	}
	return string(runes[:start]), string(runes[start:end]), string(runes[end:])
}

// matchCase carries the original word's leading capitalization over to the
// replacement, so sentence-initial corrections stay capitalized.
func matchCase(original, replacement string) string {
	if original == "" || replacement == "" {
		return replacement
	}
	origRunes := []rune(original)
	replRunes := []rune(replacement)
	if unicode.IsUpper(origRunes[0]) {
		replRunes[0] = unicode.ToUpper(replRunes[0])
		return string(replRunes)
	}
	return replacement
}
