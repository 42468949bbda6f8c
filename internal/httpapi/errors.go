package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fluentia-app/fluentia/internal/auth"
	"github.com/fluentia-app/fluentia/internal/conversation"
	"github.com/fluentia-app/fluentia/internal/lesson"
	"github.com/fluentia-app/fluentia/internal/relay"
)

// errorBody is the JSON error response shape. Details and Fallback are only
// populated for synthesis failures so the client knows it may fall back to
// browser speech.
type errorBody struct {
	Error    string `json:"error"`
	Details  string `json:"details,omitempty"`
	Fallback bool   `json:"fallback,omitempty"`
}

// writeJSON encodes v with the given status. Encoding failures are logged,
// not surfaced; headers are already gone by then.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response encode failed", "err", err)
	}
}

// writeError maps domain errors to HTTP status codes and a JSON error body.
// Internal error details never leak for 5xx responses except through the
// synthesis fallback contract.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var synth *relay.SynthesisError
	if errors.As(err, &synth) {
		s.writeJSON(w, http.StatusInternalServerError, errorBody{
			Error:    "speech synthesis failed",
			Details:  synth.Err.Error(),
			Fallback: synth.Fallback,
		})
		return
	}

	// Upstream provider failures keep their detail: the client renders it and
	// the alternative is a blind "internal error" for every provider outage.
	var upstream *relay.UpstreamError
	if errors.As(err, &upstream) {
		s.logger.Error("upstream provider failed", "method", r.Method, "path", r.URL.Path, "err", err)
		s.writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}

	status := statusFor(err)
	body := errorBody{Error: err.Error()}
	if status == http.StatusInternalServerError {
		body.Error = "internal error"
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	s.writeJSON(w, status, body)
}

// statusFor translates the domain error taxonomy into an HTTP status.
func statusFor(err error) int {
	var br *badRequest
	switch {
	case errors.As(err, &br):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidSession):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, lesson.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, conversation.ErrTurnLimit):
		return http.StatusTooManyRequests
	case errors.Is(err, relay.ErrEmptyText),
		errors.Is(err, relay.ErrNoMessage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// badRequest wraps a client-facing message so it reaches the response body
// verbatim with a 400 status.
type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

func badRequestf(msg string) error { return &badRequest{msg: msg} }
