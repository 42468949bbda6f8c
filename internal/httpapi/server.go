// Package httpapi exposes the Fluentia REST API consumed by the browser
// client: login sessions, lesson management, chat completion, text-to-speech
// synthesis, and audio transcription.
//
// All /api routes except /api/login require a Bearer session token. Routes
// are registered on a standard [http.ServeMux] using method patterns; the
// observe middleware wraps the whole mux for tracing and request metrics.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fluentia-app/fluentia/internal/auth"
	"github.com/fluentia-app/fluentia/internal/conversation"
	"github.com/fluentia-app/fluentia/internal/health"
	"github.com/fluentia-app/fluentia/internal/lesson"
	"github.com/fluentia-app/fluentia/internal/observe"
	"github.com/fluentia-app/fluentia/internal/relay"
)

// shutdownTimeout bounds how long Run waits for in-flight requests after the
// context is cancelled.
const shutdownTimeout = 10 * time.Second

// Server holds the wired subsystems behind the REST API. Construct it with
// [New]; all fields are set at construction time and never mutated.
type Server struct {
	auth        *auth.Service
	lessons     lesson.Store
	turns       *conversation.Tracker
	speaker     *relay.Speaker
	chatter     *relay.Chatter
	transcriber *relay.Transcriber
	healthz     *health.Handler
	metrics     *observe.Metrics
	logger      *slog.Logger
	version     string

	listenAddr string
}

// Option is a functional option for [New].
type Option func(*Server)

// WithVersion sets the version string reported by /version.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithHealthHandler sets the health handler whose probe routes are mounted
// on the server mux. When unset, a checker-less handler is used.
func WithHealthHandler(h *health.Handler) Option {
	return func(s *Server) { s.healthz = h }
}

// WithMetrics sets the metrics instance used by the handlers. When unset,
// [observe.DefaultMetrics] is used.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// New creates a Server from its collaborators. authSvc, lessons, turns,
// speaker, chatter, and transcriber must all be non-nil.
func New(
	listenAddr string,
	authSvc *auth.Service,
	lessons lesson.Store,
	turns *conversation.Tracker,
	speaker *relay.Speaker,
	chatter *relay.Chatter,
	transcriber *relay.Transcriber,
	logger *slog.Logger,
	opts ...Option,
) (*Server, error) {
	switch {
	case authSvc == nil:
		return nil, errors.New("httpapi: auth service is required")
	case lessons == nil:
		return nil, errors.New("httpapi: lesson store is required")
	case turns == nil:
		return nil, errors.New("httpapi: turn tracker is required")
	case speaker == nil:
		return nil, errors.New("httpapi: speaker is required")
	case chatter == nil:
		return nil, errors.New("httpapi: chatter is required")
	case transcriber == nil:
		return nil, errors.New("httpapi: transcriber is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		auth:        authSvc,
		lessons:     lessons,
		turns:       turns,
		speaker:     speaker,
		chatter:     chatter,
		transcriber: transcriber,
		logger:      logger,
		version:     "dev",
		listenAddr:  listenAddr,
	}
	for _, o := range opts {
		o(s)
	}
	if s.healthz == nil {
		s.healthz = health.New()
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}

	// The sessions gauge reads the store on every scrape, so TTL expiries and
	// seeded tokens are reflected without login/logout bookkeeping.
	if err := s.metrics.RegisterActiveSessions(func(ctx context.Context) (int64, error) {
		n, err := authSvc.ActiveSessions(ctx)
		return int64(n), err
	}); err != nil {
		return nil, err
	}
	return s, nil
}

// Handler returns the fully routed handler, wrapped in the observability
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.healthz.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /version", s.handleVersion)
	mux.HandleFunc("GET /api/version", s.handleVersion)

	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.Handle("POST /api/logout", s.requireAuth(s.handleLogout))
	mux.Handle("GET /api/me", s.requireAuth(s.handleMe))

	mux.Handle("GET /api/lessons", s.requireAuth(s.handleListLessons))
	mux.Handle("GET /api/lessons/{id}", s.requireAuth(s.handleGetLesson))
	mux.Handle("POST /api/lessons", s.requireRole(auth.RoleInstructor, s.handleCreateLesson))
	mux.Handle("PUT /api/lessons/{id}", s.requireRole(auth.RoleInstructor, s.handleUpdateLesson))
	mux.Handle("DELETE /api/lessons/{id}", s.requireRole(auth.RoleInstructor, s.handleDeleteLesson))

	mux.Handle("POST /api/chat", s.requireAuth(s.handleChat))
	mux.Handle("POST /api/tts", s.requireAuth(s.handleTTS))
	mux.Handle("POST /api/transcribe", s.requireAuth(s.handleTranscribe))

	return observe.Middleware(s.metrics)(mux)
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.Info("http server listening", "addr", s.listenAddr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("http server stopped")
	return ctx.Err()
}
