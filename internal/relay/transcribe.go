package relay

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fluentia-app/fluentia/internal/lesson"
	"github.com/fluentia-app/fluentia/internal/transcript"
	"github.com/fluentia-app/fluentia/pkg/provider/stt"
)

// Transcriber relays uploaded audio to a speech-to-text provider, optionally
// correcting the transcript against a lesson's vocabulary.
type Transcriber struct {
	stt       stt.Provider
	lessons   lesson.Store
	corrector *transcript.Corrector
	logger    *slog.Logger
}

// NewTranscriber creates a transcription relay. lessons and corrector may be
// nil together to disable vocabulary correction.
func NewTranscriber(p stt.Provider, lessons lesson.Store, corrector *transcript.Corrector, logger *slog.Logger) *Transcriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transcriber{stt: p, lessons: lessons, corrector: corrector, logger: logger}
}

// Transcript is the outcome of a transcription relay. Corrected reports
// whether the lesson-vocabulary matcher rewrote any part of Text.
type Transcript struct {
	Text      string
	Corrected bool
}

// Transcribe forwards audio to the provider and returns the transcript.
// When lessonID names a known lesson and a corrector is configured, near-miss
// words are aligned to the lesson vocabulary. An unknown lessonID only
// disables correction; the transcript is still returned.
func (t *Transcriber) Transcribe(ctx context.Context, audio stt.Audio, lessonID string) (Transcript, error) {
	text, err := t.stt.Transcribe(ctx, audio)
	if err != nil {
		return Transcript{}, &UpstreamError{Err: err}
	}

	out := Transcript{Text: text}
	if lessonID != "" && t.corrector != nil && t.lessons != nil {
		l, lookupErr := t.lessons.Get(ctx, lessonID)
		switch {
		case lookupErr == nil:
			corrected := t.corrector.Correct(text, transcript.Vocabulary(l))
			if corrected != text {
				t.logger.Info("transcript corrected against lesson vocabulary",
					"lesson_id", lessonID)
				out.Text = corrected
				out.Corrected = true
			}
		case errors.Is(lookupErr, lesson.ErrNotFound):
			t.logger.Warn("transcription referenced unknown lesson; skipping correction",
				"lesson_id", lessonID)
		default:
			t.logger.Warn("lesson lookup failed; skipping correction",
				"lesson_id", lessonID, "error", lookupErr)
		}
	}

	t.logger.Info("audio transcribed",
		"bytes", len(audio.Data),
		"chars", len(out.Text))
	return out, nil
}
