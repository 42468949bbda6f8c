// Package prompt builds the single system prompt sent on every chat turn.
//
// Prompt text lives here, versioned and testable, instead of being
// concatenated inline by the relay. [Build] takes a structured [Context] and
// returns either the lesson-scoped instructions or the generic free-practice
// prompt; exactly one system message exists per upstream call.
package prompt

import (
	"fmt"
	"strings"

	"github.com/fluentia-app/fluentia/internal/lesson"
)

// FreePractice is the system prompt for open-ended practice with no lesson
// bound.
const FreePractice = "You are a friendly English teacher helping middle school students practice English speaking and listening. Keep your responses encouraging, clear, and appropriate for middle school level. Use simple vocabulary and short sentences. Always respond in English."

// OpenLesson is the synthetic user message sent on the first turn of a lesson,
// when the student has not said anything yet.
const OpenLesson = "Please greet me and start the lesson dialogue. You speak first."

// Context is everything the builder needs to produce the system prompt.
type Context struct {
	// Lesson scopes the conversation when non-nil; nil selects free practice.
	Lesson *lesson.Lesson

	// Turn is the number of student turns already taken in the lesson.
	Turn int

	// MaxTurns is the lesson turn budget.
	MaxTurns int

	// FirstTurn marks the opening of a lesson, before the student has spoken.
	FirstTurn bool
}

// Build returns the system prompt for the given context.
func Build(pc Context) string {
	if pc.Lesson == nil {
		return FreePractice
	}

	remaining := pc.MaxTurns - pc.Turn
	if remaining < 0 {
		remaining = 0
	}

	var b strings.Builder
	b.WriteString("You are a friendly English teacher guiding a middle school student through a speaking lesson. Use simple vocabulary and short sentences, stay encouraging, and always respond in English.\n\n")

	fmt.Fprintf(&b, "Lesson: %s\n\n", pc.Lesson.Title)
	b.WriteString("Reading passage:\n")
	b.WriteString(pc.Lesson.Article)
	b.WriteString("\n\nPractice dialogue:\n")
	b.WriteString(pc.Lesson.Dialogue)
	b.WriteString("\n\n")

	b.WriteString("Roleplay one side of the practice dialogue and let the student answer the other side. Stay on the topic of this lesson and gently steer the student back if they drift. Do not switch languages even if the student does.\n\n")

	if pc.FirstTurn {
		b.WriteString("Open the lesson: greet the student and speak the first line of the dialogue.\n")
	}
	fmt.Fprintf(&b, "The student has %d of %d practice turns remaining. When no turns remain, wrap up warmly and summarize what was practiced.", remaining, pc.MaxTurns)

	return b.String()
}
