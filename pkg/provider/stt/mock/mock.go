// Package mock provides a test double for the stt.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/fluentia-app/fluentia/pkg/provider/stt"
)

// TranscribeCall records a single invocation of Transcribe.
type TranscribeCall struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context
	// Audio is the clip passed to Transcribe.
	Audio stt.Audio
}

// Provider is a mock implementation of stt.Provider.
type Provider struct {
	mu sync.Mutex

	// TranscribeText is returned from Transcribe when TranscribeErr is nil.
	TranscribeText string

	// TranscribeErr, if non-nil, is returned as the error from Transcribe.
	TranscribeErr error

	calls []TranscribeCall
}

// Compile-time interface assertion.
var _ stt.Provider = (*Provider)(nil)

// Transcribe implements stt.Provider.
func (p *Provider) Transcribe(ctx context.Context, audio stt.Audio) (string, error) {
	p.mu.Lock()
	p.calls = append(p.calls, TranscribeCall{Ctx: ctx, Audio: audio})
	p.mu.Unlock()

	if p.TranscribeErr != nil {
		return "", p.TranscribeErr
	}
	return p.TranscribeText, nil
}

// Calls returns a copy of all recorded Transcribe invocations.
func (p *Provider) Calls() []TranscribeCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]TranscribeCall, len(p.calls))
	copy(out, p.calls)
	return out
}
