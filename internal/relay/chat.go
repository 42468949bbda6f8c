package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fluentia-app/fluentia/internal/lesson"
	"github.com/fluentia-app/fluentia/internal/prompt"
	"github.com/fluentia-app/fluentia/pkg/provider/llm"
)

// Generation settings observed to work well for short practice replies.
const (
	chatTemperature = 0.7
	chatMaxTokens   = 500
)

// ErrNoMessage is returned when the request carries neither a user message
// nor the first-turn flag.
var ErrNoMessage = errors.New("message is required unless opening a lesson")

// UpstreamError wraps a chat-completion provider failure so the HTTP layer
// can map it to a 500 with best-effort detail.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("chat upstream: %v", e.Err) }
func (e *UpstreamError) Unwrap() error { return e.Err }

// ChatRequest is one conversational turn to forward upstream.
type ChatRequest struct {
	// Message is the student's new message. May be empty only on FirstTurn.
	Message string

	// History is the prior conversation as supplied by the client. Any system
	// entries in it are discarded; the server builds the only system prompt.
	History []llm.Message

	// Lesson scopes the prompt when non-nil; nil selects free practice.
	Lesson *lesson.Lesson

	// Turn and MaxTurns describe the server-side lesson turn state.
	Turn     int
	MaxTurns int

	// FirstTurn requests the lesson opening: the assistant speaks first.
	FirstTurn bool
}

// Chatter relays conversational turns to a chat-completion provider with a
// single server-built system prompt.
type Chatter struct {
	llm    llm.Provider
	logger *slog.Logger
}

// NewChatter creates a chat relay over the given provider.
func NewChatter(p llm.Provider, logger *slog.Logger) *Chatter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chatter{llm: p, logger: logger}
}

// Chat builds the message list and forwards it upstream, returning the
// provider's response unmodified. Provider failures come back as
// [*UpstreamError].
func (c *Chatter) Chat(ctx context.Context, req ChatRequest) (*llm.CompletionResponse, error) {
	userMessage := strings.TrimSpace(req.Message)
	if userMessage == "" {
		if !req.FirstTurn {
			return nil, ErrNoMessage
		}
		userMessage = prompt.OpenLesson
	}

	system := prompt.Build(prompt.Context{
		Lesson:    req.Lesson,
		Turn:      req.Turn,
		MaxTurns:  req.MaxTurns,
		FirstTurn: req.FirstTurn,
	})

	// Client history may still carry the system prompt of an older client
	// build; only the server's prompt is allowed through.
	messages := make([]llm.Message, 0, len(req.History)+1)
	for _, m := range req.History {
		if m.Role == "system" {
			continue
		}
		messages = append(messages, m)
	}
	messages = append(messages, llm.Message{Role: "user", Content: userMessage})

	resp, err := c.llm.Complete(ctx, llm.CompletionRequest{
		Messages:     messages,
		SystemPrompt: system,
		Temperature:  chatTemperature,
		MaxTokens:    chatMaxTokens,
	})
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}

	c.logger.Info("chat turn relayed",
		"lesson", req.Lesson != nil,
		"first_turn", req.FirstTurn,
		"history_len", len(messages)-1,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	return resp, nil
}
