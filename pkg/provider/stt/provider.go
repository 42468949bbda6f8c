// Package stt defines the Provider interface for Speech-to-Text backends.
//
// An STT provider wraps a transcription service (e.g., an OpenAI-compatible
// /v1/audio/transcriptions endpoint or a local whisper-server instance) and
// presents a uniform batch interface: one uploaded audio clip in, one
// transcript out. Browser recordings are short (a single student utterance),
// so no streaming session management is needed.
//
// Implementations must be safe for concurrent use.
package stt

import "context"

// Audio is a single uploaded audio clip to transcribe.
type Audio struct {
	// Data is the raw encoded audio bytes as uploaded (webm, ogg, wav, mp3...).
	Data []byte

	// Filename is the original upload filename, forwarded to providers that
	// derive the container format from it. May be empty.
	Filename string

	// ContentType is the MIME type of Data (e.g., "audio/webm"). May be empty.
	ContentType string

	// Language is the expected BCP-47 language code (e.g., "en"). An empty
	// string lets the provider auto-detect, if supported.
	Language string
}

// Provider is the abstraction over any STT backend.
//
// Implementations must be safe for concurrent use; multiple transcriptions may
// run in parallel.
type Provider interface {
	// Transcribe submits audio for recognition and returns the transcribed
	// text. An empty transcript is a valid result (silence).
	//
	// Returns an error if the provider cannot be reached, rejects the request,
	// or ctx is cancelled before the transcript arrives.
	Transcribe(ctx context.Context, audio Audio) (string, error)
}
