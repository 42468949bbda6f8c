// Command fluentia is the backend server for the Fluentia English practice
// assistant.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/fluentia-app/fluentia/internal/auth"
	"github.com/fluentia-app/fluentia/internal/config"
	"github.com/fluentia-app/fluentia/internal/conversation"
	"github.com/fluentia-app/fluentia/internal/health"
	"github.com/fluentia-app/fluentia/internal/httpapi"
	"github.com/fluentia-app/fluentia/internal/lesson"
	"github.com/fluentia-app/fluentia/internal/observe"
	"github.com/fluentia-app/fluentia/internal/relay"
	"github.com/fluentia-app/fluentia/internal/resilience"
	"github.com/fluentia-app/fluentia/internal/transcript"
	"github.com/fluentia-app/fluentia/pkg/provider/llm"
	"github.com/fluentia-app/fluentia/pkg/provider/llm/anyllm"
	oaillm "github.com/fluentia-app/fluentia/pkg/provider/llm/openai"
	"github.com/fluentia-app/fluentia/pkg/provider/stt"
	oaistt "github.com/fluentia-app/fluentia/pkg/provider/stt/openai"
	"github.com/fluentia-app/fluentia/pkg/provider/stt/whisper"
	"github.com/fluentia-app/fluentia/pkg/provider/tts"
	"github.com/fluentia-app/fluentia/pkg/provider/tts/coqui"
	"github.com/fluentia-app/fluentia/pkg/provider/tts/elevenlabs"
	"github.com/fluentia-app/fluentia/pkg/provider/tts/gtranslate"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// A .env file is optional; real environment variables win either way.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "fluentia: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "fluentia: %v\n", err)
		}
		return 1
	}

	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("fluentia starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.Init(ctx, observe.WithServiceVersion(buildVersion()))
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Providers ─────────────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	llmProvider, err := reg.CreateLLM(cfg.Providers.LLM)
	if err != nil {
		slog.Error("failed to create llm provider", "name", cfg.Providers.LLM.Name, "err", err)
		return 1
	}
	slog.Info("provider created", "kind", "llm", "name", cfg.Providers.LLM.Name)

	sttProvider, err := reg.CreateSTT(cfg.Providers.STT)
	if err != nil {
		slog.Error("failed to create stt provider", "name", cfg.Providers.STT.Name, "err", err)
		return 1
	}
	slog.Info("provider created", "kind", "stt", "name", cfg.Providers.STT.Name)

	var (
		ttsNames     []string
		ttsProviders []tts.Provider
	)
	for _, entry := range cfg.Providers.TTS {
		p, err := reg.CreateTTS(entry)
		if err != nil {
			slog.Error("failed to create tts provider", "name", entry.Name, "err", err)
			return 1
		}
		ttsNames = append(ttsNames, entry.Name)
		ttsProviders = append(ttsProviders, p)
		slog.Info("provider created", "kind", "tts", "name", entry.Name)
	}

	// ── Stores ────────────────────────────────────────────────────────────────
	var checkers []health.Checker

	var lessons lesson.Store = lesson.NewMemStore()
	if dsn := cfg.Lessons.PostgresDSN; dsn != "" {
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			slog.Error("failed to connect to postgres", "err", err)
			return 1
		}
		defer pool.Close()

		pgStore := lesson.NewPostgresStore(pool)
		if err := pgStore.Migrate(ctx); err != nil {
			slog.Error("failed to migrate lesson schema", "err", err)
			return 1
		}
		lessons = pgStore
		checkers = append(checkers, health.Checker{Name: "postgres", Check: pool.Ping})
		slog.Info("lesson store ready", "backend", "postgres")
	} else {
		slog.Info("lesson store ready", "backend", "memory")
	}

	var sessions auth.Store = auth.NewMemStore()
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()

		sessions = auth.NewRedisStore(client, cfg.Redis.SessionTTL)
		checkers = append(checkers, health.Checker{Name: "redis", Check: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}})
		slog.Info("session store ready", "backend", "redis")
	} else {
		slog.Info("session store ready", "backend", "memory")
	}

	// ── Auth ──────────────────────────────────────────────────────────────────
	users, err := configUsers(cfg.Auth.Users)
	if err != nil {
		slog.Error("failed to prepare user accounts", "err", err)
		return 1
	}
	authSvc := auth.NewService(users, sessions)

	if token := cfg.Auth.InstructorToken; token != "" {
		if err := authSvc.SeedInstructorToken(ctx, token); err != nil {
			slog.Error("failed to seed instructor token", "err", err)
			return 1
		}
		slog.Info("static instructor token seeded")
	}

	// ── Relays ────────────────────────────────────────────────────────────────
	speaker, err := relay.NewSpeaker(ttsNames, ttsProviders, resilience.FallbackConfig{}, logger)
	if err != nil {
		slog.Error("failed to build tts fallback chain", "err", err)
		return 1
	}

	chatter := relay.NewChatter(llmProvider, logger)
	transcriber := relay.NewTranscriber(sttProvider, lessons, transcript.NewCorrector(nil), logger)
	turns := conversation.NewTracker(cfg.Lessons.MaxTurns)

	// ── HTTP server ───────────────────────────────────────────────────────────
	server, err := httpapi.New(
		cfg.Server.ListenAddr,
		authSvc,
		lessons,
		turns,
		speaker,
		chatter,
		transcriber,
		logger,
		httpapi.WithVersion(buildVersion()),
		httpapi.WithHealthHandler(health.New(checkers...)),
	)
	if err != nil {
		slog.Error("failed to initialise http server", "err", err)
		return 1
	}

	slog.Info("server ready — press Ctrl+C to shut down",
		"tts_chain", ttsNames,
		"max_turns", turns.MaxTurns(),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(ctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires all built-in provider factories into reg.
func registerBuiltinProviders(reg *config.Registry) {
	// ── LLM ───────────────────────────────────────────────────────────────────
	// openai uses the native SDK adapter; the remaining vendors go through the
	// any-llm multi-vendor client.
	reg.RegisterLLM("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []oaillm.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaillm.WithBaseURL(entry.BaseURL))
		}
		if entry.Timeout > 0 {
			opts = append(opts, oaillm.WithTimeout(entry.Timeout))
		}
		return oaillm.New(entry.APIKey, entry.Model, opts...)
	})

	for _, vendor := range []string{"anthropic", "gemini", "deepseek", "mistral", "groq"} {
		reg.RegisterLLM(vendor, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(vendor, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New("ollama", entry.Model, opts...)
	})

	// ── STT ───────────────────────────────────────────────────────────────────

	reg.RegisterSTT("openai", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []oaistt.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaistt.WithBaseURL(entry.BaseURL))
		}
		if entry.Model != "" {
			opts = append(opts, oaistt.WithModel(entry.Model))
		}
		if entry.Timeout > 0 {
			opts = append(opts, oaistt.WithTimeout(entry.Timeout))
		}
		return oaistt.New(entry.APIKey, opts...)
	})

	reg.RegisterSTT("whisper", func(entry config.ProviderEntry) (stt.Provider, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		if entry.Language != "" {
			opts = append(opts, whisper.WithLanguage(entry.Language))
		}
		if entry.Timeout > 0 {
			opts = append(opts, whisper.WithTimeout(entry.Timeout))
		}
		return whisper.New(entry.BaseURL, opts...)
	})

	// ── TTS ───────────────────────────────────────────────────────────────────

	reg.RegisterTTS("elevenlabs", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []elevenlabs.Option
		if entry.Model != "" {
			opts = append(opts, elevenlabs.WithModel(entry.Model))
		}
		if entry.Voice != "" {
			opts = append(opts, elevenlabs.WithVoice(entry.Voice))
		}
		return elevenlabs.New(entry.APIKey, opts...)
	})

	reg.RegisterTTS("gtranslate", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []gtranslate.Option
		if entry.Language != "" {
			opts = append(opts, gtranslate.WithLanguage(entry.Language))
		}
		if entry.Timeout > 0 {
			opts = append(opts, gtranslate.WithTimeout(entry.Timeout))
		}
		return gtranslate.New(opts...), nil
	})

	reg.RegisterTTS("coqui", func(entry config.ProviderEntry) (tts.Provider, error) {
		var opts []coqui.Option
		if entry.Language != "" {
			opts = append(opts, coqui.WithLanguage(entry.Language))
		}
		if entry.Voice != "" {
			opts = append(opts, coqui.WithSpeaker(entry.Voice))
		}
		if entry.Timeout > 0 {
			opts = append(opts, coqui.WithTimeout(entry.Timeout))
		}
		return coqui.New(entry.BaseURL, opts...)
	})
}

// configUsers converts config accounts into auth users with bcrypt hashes.
// An empty list keeps the built-in demo accounts.
func configUsers(users []config.UserConfig) ([]auth.User, error) {
	out := make([]auth.User, 0, len(users))
	for _, u := range users {
		hash, err := auth.HashPassword(u.Password)
		if err != nil {
			return nil, fmt.Errorf("user %q: %w", u.Username, err)
		}
		out = append(out, auth.User{
			ID:           "u-" + u.Username,
			Username:     u.Username,
			PasswordHash: hash,
			Role:         auth.Role(u.Role),
		})
	}
	return out, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// buildVersion reports the module version stamped by the Go toolchain, or
// "dev" for local builds.
func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return "dev"
	}
	return info.Main.Version
}
