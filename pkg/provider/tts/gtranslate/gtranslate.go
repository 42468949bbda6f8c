// Package gtranslate provides a TTS provider backed by the Google Translate
// speech endpoint (the same endpoint the gTTS family of libraries uses).
// It requires no API key and returns MP3 audio, which makes it a useful
// zero-configuration fallback for short utterances.
//
// The endpoint is unofficial: it caps input at roughly 200 characters per
// request and may throttle aggressive callers. Longer inputs are truncated at
// a word boundary rather than rejected, so the fallback chain keeps producing
// audio even when the relay allows longer replies than this endpoint does.
package gtranslate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fluentia-app/fluentia/pkg/provider/tts"
)

const (
	defaultEndpoint = "https://translate.google.com/translate_tts"
	defaultLanguage = "en"
	defaultTimeout  = 10 * time.Second

	// maxChars is the approximate per-request character limit of the endpoint.
	maxChars = 200
)

// userAgent mimics a browser request; the endpoint rejects the default Go
// client string.
const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Compile-time interface assertion.
var _ tts.Provider = (*Provider)(nil)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithLanguage sets the speech language code (e.g., "en", "en-GB").
// Defaults to "en".
func WithLanguage(lang string) Option {
	return func(p *Provider) {
		p.language = lang
	}
}

// WithEndpoint overrides the translate_tts endpoint URL. Useful for tests.
func WithEndpoint(endpoint string) Option {
	return func(p *Provider) {
		p.endpoint = strings.TrimRight(endpoint, "/")
	}
}

// WithTimeout sets the per-request HTTP timeout. Defaults to 10s.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.httpClient.Timeout = d
	}
}

// Provider implements tts.Provider backed by the Google Translate speech
// endpoint. It is safe for concurrent use.
type Provider struct {
	endpoint   string
	language   string
	httpClient *http.Client
}

// New creates a new Provider with the supplied options.
func New(opts ...Option) *Provider {
	p := &Provider{
		endpoint:   defaultEndpoint,
		language:   defaultLanguage,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Synthesize implements tts.Provider. It issues a single GET request and
// returns the MP3 payload.
func (p *Provider) Synthesize(ctx context.Context, text string) (*tts.Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("gtranslate: text must not be empty")
	}
	text = truncate(text)

	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", p.language)
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("gtranslate: create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", "https://translate.google.com/")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gtranslate: GET translate_tts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gtranslate: unexpected status %d", resp.StatusCode)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("gtranslate: read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, errors.New("gtranslate: empty audio payload")
	}

	return &tts.Result{Audio: audio, Format: "mp3"}, nil
}

// truncate caps text at maxChars runes, cutting back to the last space so a
// word is never split mid-way. The limit counts runes, not bytes.
func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	cut := string(runes[:maxChars])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut
}
