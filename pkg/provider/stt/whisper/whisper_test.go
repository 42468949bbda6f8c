package whisper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fluentia-app/fluentia/pkg/provider/stt"
)

// mustNew creates a Provider or fails the test.
func mustNew(t *testing.T, serverURL string, opts ...Option) *Provider {
	t.Helper()
	p, err := New(serverURL, opts...)
	if err != nil {
		t.Fatalf("New(%q): %v", serverURL, err)
	}
	return p
}

func testClip() stt.Audio {
	return stt.Audio{
		Data:     []byte("fake-webm-audio-bytes"),
		Filename: "clip.webm",
	}
}

// ── Constructor ───────────────────────────────────────────────────────────────

func TestNew_EmptyURL(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty serverURL")
	}
}

func TestNew_TrimsTrailingSlash(t *testing.T) {
	p := mustNew(t, "http://localhost:8080/")
	if p.serverURL != "http://localhost:8080" {
		t.Errorf("expected trailing slash trimmed, got %q", p.serverURL)
	}
}

func TestNew_Options(t *testing.T) {
	p := mustNew(t, "http://localhost:8080",
		WithModel("small"),
		WithLanguage("de"),
		WithTimeout(5*time.Second),
	)
	if p.model != "small" {
		t.Errorf("expected model small, got %q", p.model)
	}
	if p.language != "de" {
		t.Errorf("expected language de, got %q", p.language)
	}
	if p.httpClient.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", p.httpClient.Timeout)
	}
}

// ── Transcribe ────────────────────────────────────────────────────────────────

func TestTranscribe_RequestShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/inference" {
			t.Errorf("expected path /inference, got %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart form: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file part: %v", err)
		}
		defer file.Close()
		if header.Filename != "clip.webm" {
			t.Errorf("expected filename clip.webm, got %q", header.Filename)
		}
		if got := r.FormValue("language"); got != "en" {
			t.Errorf("expected language en, got %q", got)
		}
		if got := r.FormValue("response_format"); got != "json" {
			t.Errorf("expected response_format json, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text": "  Hello there, how are you?  "}`))
	}))
	defer srv.Close()

	p := mustNew(t, srv.URL)
	text, err := p.Transcribe(context.Background(), testClip())
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "Hello there, how are you?" {
		t.Errorf("expected trimmed transcript, got %q", text)
	}
}

func TestTranscribe_ModelField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		if got := r.FormValue("model"); got != "base.en" {
			t.Errorf("expected model base.en, got %q", got)
		}
		w.Write([]byte(`{"text": "ok"}`))
	}))
	defer srv.Close()

	p := mustNew(t, srv.URL, WithModel("base.en"))
	if _, err := p.Transcribe(context.Background(), testClip()); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
}

func TestTranscribe_ClipLanguageOverridesDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		if got := r.FormValue("language"); got != "fr" {
			t.Errorf("expected clip language fr, got %q", got)
		}
		w.Write([]byte(`{"text": "bonjour"}`))
	}))
	defer srv.Close()

	p := mustNew(t, srv.URL, WithLanguage("en"))
	clip := testClip()
	clip.Language = "fr"
	if _, err := p.Transcribe(context.Background(), clip); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
}

func TestTranscribe_DefaultFilename(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseMultipartForm(1 << 20)
		_, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("missing file part: %v", err)
		}
		if header.Filename != "audio.wav" {
			t.Errorf("expected fallback filename audio.wav, got %q", header.Filename)
		}
		w.Write([]byte(`{"text": "ok"}`))
	}))
	defer srv.Close()

	p := mustNew(t, srv.URL)
	clip := testClip()
	clip.Filename = ""
	if _, err := p.Transcribe(context.Background(), clip); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
}

func TestTranscribe_EmptyAudio(t *testing.T) {
	p := mustNew(t, "http://localhost:8080")
	if _, err := p.Transcribe(context.Background(), stt.Audio{}); err == nil {
		t.Fatal("expected error for empty audio data")
	}
}

func TestTranscribe_ServerErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text": "", "error": "failed to decode audio"}`))
	}))
	defer srv.Close()

	p := mustNew(t, srv.URL)
	_, err := p.Transcribe(context.Background(), testClip())
	if err == nil {
		t.Fatal("expected error for error field in response")
	}
	if !strings.Contains(err.Error(), "failed to decode audio") {
		t.Errorf("expected server error message, got: %v", err)
	}
}

func TestTranscribe_Non200IncludesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model file missing", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := mustNew(t, srv.URL)
	_, err := p.Transcribe(context.Background(), testClip())
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if !strings.Contains(err.Error(), "model file missing") {
		t.Errorf("expected response body in error, got: %v", err)
	}
}

func TestTranscribe_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		w.Write([]byte(`{"text": "too late"}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := mustNew(t, srv.URL)
	if _, err := p.Transcribe(ctx, testClip()); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
