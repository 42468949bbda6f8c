package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fluentia-app/fluentia/internal/resilience"
	"github.com/fluentia-app/fluentia/pkg/provider/tts"
)

var (
	// ErrEmptyText is returned by [Speaker.Speak] when the text is empty after
	// sanitization. No provider is attempted.
	ErrEmptyText = errors.New("no speakable text")

	// ErrEmptyAudio marks a provider response that carried no audio bytes.
	// The speaker treats it as a failure and moves to the next provider.
	ErrEmptyAudio = errors.New("provider returned empty audio")
)

// SynthesisError is the aggregate failure returned when every configured TTS
// provider has been tried and none produced audio.
type SynthesisError struct {
	// Fallback is always true: the error only exists after failover has been
	// exhausted. It surfaces as the "fallback" field in the HTTP response.
	Fallback bool

	// Err is the last provider error.
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("speech synthesis failed after trying all providers: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// Speech is a completed synthesis: the audio clip plus the name of the
// provider that produced it.
type Speech struct {
	Audio   []byte
	Format  string
	Service string
}

// Speaker runs text-to-speech across an ordered provider list with per-entry
// circuit breakers. Each request tries each provider at most once, in
// preference order, and the first non-empty clip wins.
type Speaker struct {
	group  *resilience.FallbackGroup[tts.Provider]
	logger *slog.Logger
}

// NewSpeaker builds a Speaker over providers in preference order. names and
// providers must be the same length and non-empty; names label providers in
// logs and in the response's service field.
func NewSpeaker(names []string, providers []tts.Provider, cfg resilience.FallbackConfig, logger *slog.Logger) (*Speaker, error) {
	if len(providers) == 0 {
		return nil, errors.New("relay: at least one TTS provider is required")
	}
	if len(names) != len(providers) {
		return nil, fmt.Errorf("relay: %d provider names for %d providers", len(names), len(providers))
	}
	if logger == nil {
		logger = slog.Default()
	}

	group := resilience.NewFallbackGroup(providers[0], names[0], cfg)
	for i := 1; i < len(providers); i++ {
		group.AddFallback(names[i], providers[i])
	}
	return &Speaker{group: group, logger: logger}, nil
}

// Providers returns the provider names in preference order.
func (s *Speaker) Providers() []string {
	return s.group.Names()
}

// Speak sanitizes text and synthesizes it, failing over across providers.
// Empty post-sanitization text returns [ErrEmptyText] before any provider is
// contacted. When all providers fail the returned error is a [*SynthesisError]
// carrying the last provider error.
func (s *Speaker) Speak(ctx context.Context, text string) (*Speech, error) {
	clean := SanitizeForSpeech(text)
	if clean == "" {
		return nil, ErrEmptyText
	}

	requestID := uuid.NewString()

	result, service, err := resilience.ExecuteWithResult(s.group, func(p tts.Provider) (*tts.Result, error) {
		// A cancelled request must not burn through the remaining providers.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, synthErr := p.Synthesize(ctx, clean)
		if synthErr != nil {
			return nil, synthErr
		}
		if res == nil || len(res.Audio) == 0 {
			return nil, ErrEmptyAudio
		}
		return res, nil
	})
	if err != nil {
		s.logger.Error("speech synthesis exhausted all providers",
			"request_id", requestID,
			"providers", s.group.Names(),
			"error", err)
		return nil, &SynthesisError{Fallback: true, Err: err}
	}

	s.logger.Info("speech synthesized",
		"request_id", requestID,
		"provider", service,
		"format", result.Format,
		"bytes", len(result.Audio),
		"chars", len(clean))

	return &Speech{Audio: result.Audio, Format: result.Format, Service: service}, nil
}
