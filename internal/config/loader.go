package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"llm": {"openai", "anthropic", "gemini", "ollama", "deepseek", "mistral", "groq"},
	"stt": {"openai", "whisper"},
	"tts": {"elevenlabs", "gtranslate", "coqui"},
}

// validRoles are the account roles accepted in auth.users.
var validRoles = []string{"student", "instructor"}

// Load reads the YAML configuration file at path, applies environment
// overrides, and returns a validated [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies environment overrides,
// and validates the result. Useful in tests where configs are constructed
// from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envOverrides mirrors the deploy-time settings that may come from the
// process environment instead of the YAML file. Set values win over the file.
type envOverrides struct {
	ListenAddr      string `env:"FLUENTIA_LISTEN_ADDR"`
	LogLevel        string `env:"FLUENTIA_LOG_LEVEL"`
	LLMAPIKey       string `env:"FLUENTIA_LLM_API_KEY"`
	LLMBaseURL      string `env:"FLUENTIA_LLM_BASE_URL"`
	LLMModel        string `env:"FLUENTIA_LLM_MODEL"`
	STTAPIKey       string `env:"FLUENTIA_STT_API_KEY"`
	STTBaseURL      string `env:"FLUENTIA_STT_BASE_URL"`
	ElevenAPIKey    string `env:"FLUENTIA_ELEVENLABS_API_KEY"`
	PostgresDSN     string `env:"FLUENTIA_POSTGRES_DSN"`
	RedisAddr       string `env:"FLUENTIA_REDIS_ADDR"`
	RedisPassword   string `env:"FLUENTIA_REDIS_PASSWORD"`
	InstructorToken string `env:"FLUENTIA_INSTRUCTOR_TOKEN"`
	MaxTurns        int    `env:"FLUENTIA_MAX_TURNS"`
}

// ApplyEnv overlays environment variables onto cfg. Only variables that are
// actually set replace file values.
func ApplyEnv(cfg *Config) error {
	var ov envOverrides
	if err := env.Parse(&ov); err != nil {
		return fmt.Errorf("config: parse environment: %w", err)
	}

	if ov.ListenAddr != "" {
		cfg.Server.ListenAddr = ov.ListenAddr
	}
	if ov.LogLevel != "" {
		cfg.Server.LogLevel = LogLevel(ov.LogLevel)
	}
	if ov.LLMAPIKey != "" {
		cfg.Providers.LLM.APIKey = ov.LLMAPIKey
	}
	if ov.LLMBaseURL != "" {
		cfg.Providers.LLM.BaseURL = ov.LLMBaseURL
	}
	if ov.LLMModel != "" {
		cfg.Providers.LLM.Model = ov.LLMModel
	}
	if ov.STTAPIKey != "" {
		cfg.Providers.STT.APIKey = ov.STTAPIKey
	}
	if ov.STTBaseURL != "" {
		cfg.Providers.STT.BaseURL = ov.STTBaseURL
	}
	if ov.ElevenAPIKey != "" {
		for i := range cfg.Providers.TTS {
			if cfg.Providers.TTS[i].Name == "elevenlabs" {
				cfg.Providers.TTS[i].APIKey = ov.ElevenAPIKey
			}
		}
	}
	if ov.PostgresDSN != "" {
		cfg.Lessons.PostgresDSN = ov.PostgresDSN
	}
	if ov.RedisAddr != "" {
		cfg.Redis.Addr = ov.RedisAddr
	}
	if ov.RedisPassword != "" {
		cfg.Redis.Password = ov.RedisPassword
	}
	if ov.InstructorToken != "" {
		cfg.Auth.InstructorToken = ov.InstructorToken
	}
	if ov.MaxTurns > 0 {
		cfg.Lessons.MaxTurns = ov.MaxTurns
	}
	return nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// The server exists to relay chat, transcription and speech; a config
	// without these providers cannot serve anything.
	if cfg.Providers.LLM.Name == "" {
		errs = append(errs, errors.New("providers.llm.name is required"))
	}
	if cfg.Providers.STT.Name == "" {
		errs = append(errs, errors.New("providers.stt.name is required"))
	}
	if len(cfg.Providers.TTS) == 0 {
		errs = append(errs, errors.New("providers.tts needs at least one entry"))
	}

	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("stt", cfg.Providers.STT.Name)
	ttsNamesSeen := make(map[string]int, len(cfg.Providers.TTS))
	for i, entry := range cfg.Providers.TTS {
		prefix := fmt.Sprintf("providers.tts[%d]", i)
		if entry.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", prefix))
			continue
		}
		if prev, ok := ttsNamesSeen[entry.Name]; ok {
			errs = append(errs, fmt.Errorf("%s.name %q is a duplicate of providers.tts[%d]", prefix, entry.Name, prev))
		}
		ttsNamesSeen[entry.Name] = i
		validateProviderName("tts", entry.Name)
	}

	usersSeen := make(map[string]int, len(cfg.Auth.Users))
	for i, u := range cfg.Auth.Users {
		prefix := fmt.Sprintf("auth.users[%d]", i)
		if u.Username == "" {
			errs = append(errs, fmt.Errorf("%s.username is required", prefix))
		} else {
			if prev, ok := usersSeen[u.Username]; ok {
				errs = append(errs, fmt.Errorf("%s.username %q is a duplicate of auth.users[%d]", prefix, u.Username, prev))
			}
			usersSeen[u.Username] = i
		}
		if u.Password == "" {
			errs = append(errs, fmt.Errorf("%s.password is required", prefix))
		}
		if !slices.Contains(validRoles, u.Role) {
			errs = append(errs, fmt.Errorf("%s.role %q is invalid; valid values: student, instructor", prefix, u.Role))
		}
	}

	if cfg.Lessons.MaxTurns < 0 {
		errs = append(errs, fmt.Errorf("lessons.max_turns %d must not be negative", cfg.Lessons.MaxTurns))
	}
	if cfg.Redis.SessionTTL < 0 {
		errs = append(errs, fmt.Errorf("redis.session_ttl %v must not be negative", cfg.Redis.SessionTTL))
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
