package gtranslate

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var fakeMP3 = []byte{0xFF, 0xFB, 0x90, 0x64, 0x00, 0x01, 0x02, 0x03}

// ── Constructor ───────────────────────────────────────────────────────────────

func TestNew_Defaults(t *testing.T) {
	p := New()
	if p.endpoint != defaultEndpoint {
		t.Errorf("expected default endpoint, got %q", p.endpoint)
	}
	if p.language != "en" {
		t.Errorf("expected default language en, got %q", p.language)
	}
	if p.httpClient.Timeout != 10*time.Second {
		t.Errorf("expected default timeout 10s, got %v", p.httpClient.Timeout)
	}
}

func TestNew_Options(t *testing.T) {
	p := New(
		WithLanguage("en-GB"),
		WithEndpoint("http://localhost:9999/tts/"),
		WithTimeout(3*time.Second),
	)
	if p.language != "en-GB" {
		t.Errorf("expected language en-GB, got %q", p.language)
	}
	if p.endpoint != "http://localhost:9999/tts" {
		t.Errorf("expected trailing slash trimmed, got %q", p.endpoint)
	}
	if p.httpClient.Timeout != 3*time.Second {
		t.Errorf("expected timeout 3s, got %v", p.httpClient.Timeout)
	}
}

// ── Synthesize ────────────────────────────────────────────────────────────────

func TestSynthesize_RequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("ie"); got != "UTF-8" {
			t.Errorf("expected ie=UTF-8, got %q", got)
		}
		if got := q.Get("client"); got != "tw-ob" {
			t.Errorf("expected client=tw-ob, got %q", got)
		}
		if got := q.Get("tl"); got != "en" {
			t.Errorf("expected tl=en, got %q", got)
		}
		if got := q.Get("q"); got != "Good morning!" {
			t.Errorf("expected q=%q, got %q", "Good morning!", got)
		}
		if ua := r.Header.Get("User-Agent"); !strings.Contains(ua, "Mozilla") {
			t.Errorf("expected browser User-Agent, got %q", ua)
		}
		if ref := r.Header.Get("Referer"); ref != "https://translate.google.com/" {
			t.Errorf("unexpected Referer %q", ref)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write(fakeMP3)
	}))
	defer srv.Close()

	p := New(WithEndpoint(srv.URL))
	res, err := p.Synthesize(context.Background(), "Good morning!")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if res.Format != "mp3" {
		t.Errorf("expected format mp3, got %q", res.Format)
	}
	if !bytes.Equal(res.Audio, fakeMP3) {
		t.Errorf("audio mismatch: got %d bytes, want %d", len(res.Audio), len(fakeMP3))
	}
}

func TestSynthesize_LanguageOption(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("tl"); got != "en-GB" {
			t.Errorf("expected tl=en-GB, got %q", got)
		}
		w.Write(fakeMP3)
	}))
	defer srv.Close()

	p := New(WithEndpoint(srv.URL), WithLanguage("en-GB"))
	if _, err := p.Synthesize(context.Background(), "hello"); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
}

func TestSynthesize_EmptyText(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	p := New(WithEndpoint(srv.URL))
	if _, err := p.Synthesize(context.Background(), " \t "); err == nil {
		t.Fatal("expected error for blank text")
	}
	if called {
		t.Error("server should not be called for blank text")
	}
}

// Over-length text is truncated at a word boundary instead of rejected: this
// keyless endpoint is the fallback of last resort, so it must keep producing
// audio for replies longer than its own cap.
func TestSynthesize_TruncatesLongText(t *testing.T) {
	var sent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sent = r.URL.Query().Get("q")
		w.Write(fakeMP3)
	}))
	defer srv.Close()

	long := strings.TrimSpace(strings.Repeat("hello there ", 30)) // 359 runes
	p := New(WithEndpoint(srv.URL))
	if _, err := p.Synthesize(context.Background(), long); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if n := len([]rune(sent)); n == 0 || n > maxChars {
		t.Fatalf("sent %d runes, want 1..%d", n, maxChars)
	}
	if !strings.HasSuffix(sent, "hello") && !strings.HasSuffix(sent, "there") {
		t.Errorf("truncation split a word: %q", sent)
	}
	if !strings.HasPrefix(long, sent) {
		t.Errorf("sent text is not a prefix of the input: %q", sent)
	}
}

// Exactly maxChars runes must still go through; the limit counts runes, not
// bytes, so multi-byte input near the cap is accepted.
func TestSynthesize_MaxLengthBoundary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(fakeMP3)
	}))
	defer srv.Close()

	p := New(WithEndpoint(srv.URL))
	if _, err := p.Synthesize(context.Background(), strings.Repeat("ü", maxChars)); err != nil {
		t.Fatalf("expected %d-rune text to be accepted: %v", maxChars, err)
	}
}

func TestSynthesize_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := New(WithEndpoint(srv.URL))
	_, err := p.Synthesize(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("expected status code in error, got: %v", err)
	}
}

func TestSynthesize_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := New(WithEndpoint(srv.URL))
	if _, err := p.Synthesize(context.Background(), "hello"); err == nil {
		t.Fatal("expected error for empty audio payload")
	}
}

func TestSynthesize_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		w.Write(fakeMP3)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(WithEndpoint(srv.URL))
	if _, err := p.Synthesize(ctx, "hello"); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
