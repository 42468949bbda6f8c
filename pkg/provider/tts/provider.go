// Package tts defines the Provider interface for Text-to-Speech backends.
//
// A TTS provider wraps a speech synthesis service (e.g., ElevenLabs, the
// Google Translate speech endpoint, or a local Coqui server) and presents a
// uniform batch interface: one short utterance in, one complete encoded audio
// clip out. Utterances are already length-capped by the caller, so streaming
// synthesis is unnecessary and clips are returned whole for browser playback.
//
// Implementations must be safe for concurrent use.
package tts

import "context"

// Result is a complete synthesis result.
type Result struct {
	// Audio is the encoded audio clip, ready to send to the browser.
	Audio []byte

	// Format is the container/encoding tag of Audio (e.g., "mp3", "wav").
	Format string
}

// Provider is the abstraction over any TTS backend.
//
// Implementations must be safe for concurrent use. Multiple synthesis requests
// may run in parallel.
type Provider interface {
	// Synthesize converts text into a complete audio clip.
	//
	// An error is returned when the backend cannot be reached, rejects the
	// request, or returns an unusable payload. Implementations should not
	// retry internally; failover across backends is the caller's concern.
	Synthesize(ctx context.Context, text string) (*Result, error)
}
