package elevenlabs

import (
	"context"
	"testing"
)

// ── Constructor ───────────────────────────────────────────────────────────────

func TestNew_EmptyAPIKey(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty apiKey")
	}
}

func TestNew_Defaults(t *testing.T) {
	p, err := New("xi-test-key")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.model != defaultModel {
		t.Errorf("expected default model %q, got %q", defaultModel, p.model)
	}
	if p.voiceID != defaultVoiceID {
		t.Errorf("expected default voice %q, got %q", defaultVoiceID, p.voiceID)
	}
	if p.outputFormat != defaultOutputFmt {
		t.Errorf("expected default output format %q, got %q", defaultOutputFmt, p.outputFormat)
	}
}

func TestNew_Options(t *testing.T) {
	p, err := New("xi-test-key",
		WithModel("eleven_multilingual_v2"),
		WithVoice("custom-voice-id"),
		WithOutputFormat("pcm_16000"),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.model != "eleven_multilingual_v2" {
		t.Errorf("expected model eleven_multilingual_v2, got %q", p.model)
	}
	if p.voiceID != "custom-voice-id" {
		t.Errorf("expected voice custom-voice-id, got %q", p.voiceID)
	}
	if p.outputFormat != "pcm_16000" {
		t.Errorf("expected output format pcm_16000, got %q", p.outputFormat)
	}
}

// ── Synthesize ────────────────────────────────────────────────────────────────

func TestSynthesize_EmptyText(t *testing.T) {
	p, err := New("xi-test-key")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Synthesize(context.Background(), "  \n "); err == nil {
		t.Fatal("expected error for blank text")
	}
}

// ── formatTag ─────────────────────────────────────────────────────────────────

func TestFormatTag(t *testing.T) {
	tests := []struct {
		outputFormat string
		want         string
	}{
		{"mp3_44100_128", "mp3"},
		{"mp3_22050_32", "mp3"},
		{"pcm_16000", "pcm"},
		{"ulaw_8000", "ulaw"},
		{"opus_48000_64", "opus_48000_64"},
	}
	for _, tt := range tests {
		if got := formatTag(tt.outputFormat); got != tt.want {
			t.Errorf("formatTag(%q) = %q, want %q", tt.outputFormat, got, tt.want)
		}
	}
}
