package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/fluentia-app/fluentia/internal/conversation"
	"github.com/fluentia-app/fluentia/internal/lesson"
	"github.com/fluentia-app/fluentia/internal/relay"
	"github.com/fluentia-app/fluentia/pkg/provider/llm"
)

// chatRequest is the POST /api/chat body. History entries use the OpenAI
// message shape the browser client already keeps.
type chatRequest struct {
	Message   string        `json:"message"`
	History   []llm.Message `json:"history"`
	LessonID  string        `json:"lessonId"`
	FirstTurn bool          `json:"firstTurn"`
}

// chatResponse mirrors the completion shape the client reads
// (choices[0].message.content), so the browser code needs no translation
// layer.
type chatResponse struct {
	Choices []chatChoice  `json:"choices"`
	Usage   llm.Usage     `json:"usage"`
	Turn    chatTurnState `json:"turn"`
}

type chatChoice struct {
	Message llm.Message `json:"message"`
}

// chatTurnState reports the server-side turn budget so the client can render
// "turn N of M" without keeping its own authoritative counter.
type chatTurnState struct {
	Mode     string `json:"mode"`
	Count    int    `json:"count"`
	MaxTurns int    `json:"maxTurns,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, badRequestf("invalid JSON body"))
		return
	}

	token := bearerToken(r)

	// Reject before any budget is spent; only a completed student utterance
	// may consume a lesson turn.
	if strings.TrimSpace(req.Message) == "" && !req.FirstTurn {
		s.writeError(w, r, relay.ErrNoMessage)
		return
	}

	var selected *lesson.Lesson
	if req.LessonID != "" {
		l, err := s.lessons.Get(r.Context(), req.LessonID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		selected = l
	}

	state, spent, err := s.advanceTurn(token, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	start := time.Now()
	resp, err := s.chatter.Chat(r.Context(), relay.ChatRequest{
		Message:   req.Message,
		History:   req.History,
		Lesson:    selected,
		Turn:      state.TurnCount,
		MaxTurns:  s.turns.MaxTurns(),
		FirstTurn: req.FirstTurn,
	})
	s.metrics.LLMDuration.Record(r.Context(), time.Since(start).Seconds())
	if err != nil {
		// The student completed nothing; give the turn back.
		if spent {
			s.turns.Refund(token)
		}
		s.metrics.RecordProviderError(r.Context(), "chat", "llm")
		s.writeError(w, r, err)
		return
	}

	s.metrics.RecordChatTurn(r.Context(), string(state.Mode))

	out := chatResponse{
		Choices: []chatChoice{{Message: llm.Message{Role: "assistant", Content: resp.Content}}},
		Usage:   resp.Usage,
		Turn: chatTurnState{
			Mode:  string(state.Mode),
			Count: state.TurnCount,
		},
	}
	if state.Mode == conversation.ModeLessonBound {
		out.Turn.MaxTurns = s.turns.MaxTurns()
	}
	s.writeJSON(w, http.StatusOK, out)
}

// advanceTurn reconciles the tracker with the request: selecting a lesson (or
// re-opening one) resets the budget, leaving lessons returns the session to
// free practice, and ordinary student turns spend one unit of budget. spent
// reports whether a turn was consumed, so the caller can refund it if the
// relay fails.
func (s *Server) advanceTurn(token string, req chatRequest) (state conversation.State, spent bool, err error) {
	if req.LessonID == "" {
		s.turns.Clear(token)
		return conversation.State{Mode: conversation.ModeFree}, false, nil
	}

	state = s.turns.Get(token)
	if state.LessonID != req.LessonID || req.FirstTurn {
		state = s.turns.SelectLesson(token, req.LessonID)
	}
	if req.FirstTurn {
		// The assistant opens the lesson; no student turn is spent.
		return state, false, nil
	}
	state, err = s.turns.SubmitTurn(token)
	return state, err == nil, err
}
