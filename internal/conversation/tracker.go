// Package conversation tracks per-session conversation state and enforces the
// lesson turn budget.
//
// A session is either in free practice (no ceiling) or bound to a lesson with
// a bounded number of student turns. The tracker is authoritative: clients may
// report their own turn counters but the server's count decides when the limit
// is reached.
package conversation

import (
	"errors"
	"sync"
)

// DefaultMaxTurns is the lesson turn budget used when none is configured.
const DefaultMaxTurns = 5

// ErrTurnLimit is returned by [Tracker.SubmitTurn] when the lesson turn budget
// is exhausted. The turn count is left unchanged so repeated submissions keep
// failing rather than creeping past the cap.
var ErrTurnLimit = errors.New("lesson turn limit reached")

// Mode describes what kind of conversation a session is in.
type Mode string

const (
	// ModeFree is open-ended practice with no turn ceiling.
	ModeFree Mode = "free"

	// ModeLessonBound is practice scoped to a lesson with a turn budget.
	ModeLessonBound Mode = "lesson"
)

// State is a snapshot of a session's conversation.
type State struct {
	Mode      Mode
	LessonID  string // empty in free mode
	TurnCount int    // 0 in free mode
}

// Tracker holds conversation state keyed by session token. The zero turn
// budget is replaced by [DefaultMaxTurns]. Safe for concurrent use.
type Tracker struct {
	maxTurns int

	mu     sync.RWMutex
	states map[string]State
}

// NewTracker creates a tracker with the given lesson turn budget. A
// non-positive maxTurns selects [DefaultMaxTurns].
func NewTracker(maxTurns int) *Tracker {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Tracker{
		maxTurns: maxTurns,
		states:   make(map[string]State),
	}
}

// MaxTurns returns the configured lesson turn budget.
func (t *Tracker) MaxTurns() int {
	return t.maxTurns
}

// Get returns the session's conversation state. Unknown tokens are in free
// practice.
func (t *Tracker) Get(token string) State {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if st, ok := t.states[token]; ok {
		return st
	}
	return State{Mode: ModeFree}
}

// SelectLesson binds the session to a lesson and resets the turn count to
// zero, regardless of previous state. Re-selecting the current lesson restarts
// it.
func (t *Tracker) SelectLesson(token, lessonID string) State {
	t.mu.Lock()
	defer t.mu.Unlock()

	st := State{Mode: ModeLessonBound, LessonID: lessonID, TurnCount: 0}
	t.states[token] = st
	return st
}

// SubmitTurn records one student turn. In free mode it is a no-op. In lesson
// mode it returns [ErrTurnLimit] when the budget is already spent, leaving the
// count unchanged; otherwise it increments the count and returns the new
// state.
func (t *Tracker) SubmitTurn(token string) (State, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.states[token]
	if !ok || st.Mode == ModeFree {
		return State{Mode: ModeFree}, nil
	}
	if st.TurnCount >= t.maxTurns {
		return st, ErrTurnLimit
	}
	st.TurnCount++
	t.states[token] = st
	return st, nil
}

// Refund returns one previously spent turn. Callers use it when the relay
// fails after the turn was recorded, so an upstream outage cannot drain the
// budget. In free mode, or at a zero count, it is a no-op.
func (t *Tracker) Refund(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.states[token]
	if !ok || st.Mode == ModeFree || st.TurnCount == 0 {
		return
	}
	st.TurnCount--
	t.states[token] = st
}

// Clear returns the session to free practice.
func (t *Tracker) Clear(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, token)
}
