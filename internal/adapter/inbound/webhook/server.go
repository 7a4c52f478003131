package webhook

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/jonny/times-relay/internal/adapter/inbound/webhook/middleware"
	"github.com/jonny/times-relay/pkg/health"
)

const defaultShutdownTimeout = 10 * time.Second

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown. Zero means 10s.
	ShutdownTimeout time.Duration
}

// Server wraps an HTTP server with graceful shutdown support.
type Server struct {
	cfg       ServerConfig
	handler   *Handler
	publicKey ed25519.PublicKey
	checker   *health.Checker
	logger    *slog.Logger
	srv       *http.Server
}

// NewServer creates a Server that verifies interactions with publicKey.
func NewServer(cfg ServerConfig, handler *Handler, publicKey ed25519.PublicKey, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	return &Server{
		cfg:       cfg,
		handler:   handler,
		publicKey: publicKey,
		checker:   health.NewChecker(),
		logger:    logger,
	}
}

// SetupRoutes builds the router with all middleware applied.
// Route layout:
//
//	GET  /        - {"hello":"world"}
//	POST /        - Discord interaction callback (signature verified)
//	GET  /health  - Health check
func (s *Server) SetupRoutes() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.checker.LivenessHandler()).Methods(http.MethodGet)
	r.HandleFunc("/", HelloHandler()).Methods(http.MethodGet)

	interactions := r.Methods(http.MethodPost).Subrouter()
	interactions.Use(middleware.Ed25519Auth(s.publicKey))
	interactions.Handle("/", s.handler)

	// Outermost first: RequestLogging -> SecurityHeaders -> BodyReader -> router
	var h http.Handler = r
	h = middleware.BodyReader(h)
	h = middleware.SecurityHeaders(h)
	h = middleware.RequestLogging(s.logger)(h)
	return h
}

// Start starts the HTTP server and blocks until ctx is cancelled, then performs
// a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.SetupRoutes(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("webhook server listening", "port", s.cfg.Port)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("webhook server shutdown error: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}
