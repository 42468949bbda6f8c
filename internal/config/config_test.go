package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fluentia-app/fluentia/pkg/provider/llm"
	llmmock "github.com/fluentia-app/fluentia/pkg/provider/llm/mock"
	"github.com/fluentia-app/fluentia/pkg/provider/stt"
	sttmock "github.com/fluentia-app/fluentia/pkg/provider/stt/mock"
	"github.com/fluentia-app/fluentia/pkg/provider/tts"
	ttsmock "github.com/fluentia-app/fluentia/pkg/provider/tts/mock"
)

const minimalYAML = `
server:
  listen_addr: ":3000"
  log_level: info
providers:
  llm:
    name: openai
    model: gpt-4o-mini
  stt:
    name: whisper
    base_url: http://localhost:8081
  tts:
    - name: elevenlabs
      api_key: key
    - name: gtranslate
`

func TestLoadFromReader_Minimal(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(minimalYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.ListenAddr != ":3000" {
		t.Errorf("ListenAddr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Providers.LLM.Name != "openai" || cfg.Providers.LLM.Model != "gpt-4o-mini" {
		t.Errorf("LLM = %+v", cfg.Providers.LLM)
	}
	if len(cfg.Providers.TTS) != 2 || cfg.Providers.TTS[0].Name != "elevenlabs" || cfg.Providers.TTS[1].Name != "gtranslate" {
		t.Errorf("TTS = %+v (order must be preserved)", cfg.Providers.TTS)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	yaml := minimalYAML + "\nbogus_section:\n  x: 1\n"
	if _, err := LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Fatal("expected error for unknown top-level field")
	}
}

func TestLoadFromReader_EnvOverrides(t *testing.T) {
	t.Setenv("FLUENTIA_LISTEN_ADDR", ":9999")
	t.Setenv("FLUENTIA_LLM_API_KEY", "env-llm-key")
	t.Setenv("FLUENTIA_ELEVENLABS_API_KEY", "env-eleven-key")
	t.Setenv("FLUENTIA_MAX_TURNS", "7")

	cfg, err := LoadFromReader(strings.NewReader(minimalYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Server.ListenAddr != ":9999" {
		t.Errorf("ListenAddr = %q, want env override", cfg.Server.ListenAddr)
	}
	if cfg.Providers.LLM.APIKey != "env-llm-key" {
		t.Errorf("LLM.APIKey = %q, want env override", cfg.Providers.LLM.APIKey)
	}
	if cfg.Providers.TTS[0].APIKey != "env-eleven-key" {
		t.Errorf("TTS[0].APIKey = %q, want env override", cfg.Providers.TTS[0].APIKey)
	}
	if cfg.Providers.TTS[1].APIKey != "" {
		t.Errorf("TTS[1].APIKey = %q, only elevenlabs entries take the key", cfg.Providers.TTS[1].APIKey)
	}
	if cfg.Lessons.MaxTurns != 7 {
		t.Errorf("MaxTurns = %d, want env override", cfg.Lessons.MaxTurns)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Server.LogLevel = "verbose" },
			wantErr: "server.log_level",
		},
		{
			name:    "missing llm",
			mutate:  func(c *Config) { c.Providers.LLM.Name = "" },
			wantErr: "providers.llm.name is required",
		},
		{
			name:    "missing stt",
			mutate:  func(c *Config) { c.Providers.STT.Name = "" },
			wantErr: "providers.stt.name is required",
		},
		{
			name:    "no tts entries",
			mutate:  func(c *Config) { c.Providers.TTS = nil },
			wantErr: "providers.tts needs at least one entry",
		},
		{
			name: "duplicate tts entry",
			mutate: func(c *Config) {
				c.Providers.TTS = append(c.Providers.TTS, ProviderEntry{Name: "elevenlabs"})
			},
			wantErr: "duplicate",
		},
		{
			name: "bad user role",
			mutate: func(c *Config) {
				c.Auth.Users = []UserConfig{{Username: "x", Password: "y", Role: "admin"}}
			},
			wantErr: "role",
		},
		{
			name: "duplicate username",
			mutate: func(c *Config) {
				c.Auth.Users = []UserConfig{
					{Username: "x", Password: "y", Role: "student"},
					{Username: "x", Password: "z", Role: "student"},
				}
			},
			wantErr: "duplicate",
		},
		{
			name:    "negative max turns",
			mutate:  func(c *Config) { c.Lessons.MaxTurns = -1 },
			wantErr: "lessons.max_turns",
		},
		{
			name:    "negative session ttl",
			mutate:  func(c *Config) { c.Redis.SessionTTL = -time.Second },
			wantErr: "redis.session_ttl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFromReader(strings.NewReader(minimalYAML))
			if err != nil {
				t.Fatalf("LoadFromReader: %v", err)
			}
			tt.mutate(cfg)
			err = Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestRegistry_CreateRoundTrip(t *testing.T) {
	r := NewRegistry()
	r.RegisterLLM("mock", func(e ProviderEntry) (llm.Provider, error) {
		return &llmmock.Provider{}, nil
	})
	r.RegisterSTT("mock", func(e ProviderEntry) (stt.Provider, error) {
		return &sttmock.Provider{}, nil
	})
	r.RegisterTTS("mock", func(e ProviderEntry) (tts.Provider, error) {
		return &ttsmock.Provider{}, nil
	})

	if _, err := r.CreateLLM(ProviderEntry{Name: "mock"}); err != nil {
		t.Errorf("CreateLLM: %v", err)
	}
	if _, err := r.CreateSTT(ProviderEntry{Name: "mock"}); err != nil {
		t.Errorf("CreateSTT: %v", err)
	}
	if _, err := r.CreateTTS(ProviderEntry{Name: "mock"}); err != nil {
		t.Errorf("CreateTTS: %v", err)
	}
}

func TestRegistry_UnregisteredProvider(t *testing.T) {
	r := NewRegistry()

	_, err := r.CreateTTS(ProviderEntry{Name: "nope"})
	if !errors.Is(err, ErrProviderNotRegistered) {
		t.Fatalf("err = %v, want ErrProviderNotRegistered", err)
	}
}
