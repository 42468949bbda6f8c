// Package relay contains the request orchestration between the HTTP surface
// and the provider layer: the TTS failover speaker, the chat-completion relay
// and the transcription relay.
package relay

import (
	"regexp"
	"strings"
)

// maxSpeechRunes caps the text handed to TTS providers. Assistant replies are
// already short; the cap protects the providers (the Google Translate
// endpoint rejects long inputs outright) from the occasional runaway reply.
const maxSpeechRunes = 300

var (
	codeFenceRe = regexp.MustCompile("(?s)```.*?```")
	inlineCode  = regexp.MustCompile("`([^`]*)`")
	imageRe     = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	linkRe      = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	emphasisRe  = regexp.MustCompile(`(\*\*|__|\*|_)([^*_]+)(\*\*|__|\*|_)`)
	headingRe   = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	quoteRe     = regexp.MustCompile(`(?m)^>\s*`)
	bulletRe    = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	spaceRe     = regexp.MustCompile(`\s+`)
)

// SanitizeForSpeech turns an assistant reply into plain speakable text:
// markdown is stripped, newlines become sentence breaks, whitespace is
// collapsed, and the result is truncated to a provider-safe length. An empty
// result means there is nothing to say and no provider should be attempted.
func SanitizeForSpeech(text string) string {
	s := codeFenceRe.ReplaceAllString(text, " ")
	s = imageRe.ReplaceAllString(s, " ")
	s = linkRe.ReplaceAllString(s, "$1")
	s = inlineCode.ReplaceAllString(s, "$1")
	s = emphasisRe.ReplaceAllString(s, "$2")
	s = headingRe.ReplaceAllString(s, "")
	s = quoteRe.ReplaceAllString(s, "")
	s = bulletRe.ReplaceAllString(s, "")

	// Newlines become sentence breaks so multi-line replies do not run
	// together when spoken.
	lines := strings.Split(s, "\n")
	var parts []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasSuffix(line, ".") && !strings.HasSuffix(line, "!") && !strings.HasSuffix(line, "?") {
			line += "."
		}
		parts = append(parts, line)
	}
	s = strings.Join(parts, " ")

	s = strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))

	runes := []rune(s)
	if len(runes) > maxSpeechRunes {
		s = strings.TrimSpace(string(runes[:maxSpeechRunes]))
	}
	return s
}
