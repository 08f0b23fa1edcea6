// Package web provides the HTTP server for the songs API.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-hclog"

	"github.com/amanyadav21/moody-player/internal/api"
	"github.com/amanyadav21/moody-player/internal/catalog"
	"github.com/amanyadav21/moody-player/internal/ingest"
)

// DefaultAddr is the default server address.
const DefaultAddr = "127.0.0.1:3000"

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr           string
	Resolver       *catalog.Resolver
	Ingest         *ingest.Service
	Logger         hclog.Logger
	MediaDir       string
	AllowedOrigins []string
	RateLimit      int
	RateWindow     time.Duration
}

// Server is the HTTP server for the songs API.
type Server struct {
	router   chi.Router
	server   *http.Server
	handlers *Handlers
	limiter  *RateLimiter
	logger   hclog.Logger
}

// NewServer creates a new web server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Resolver == nil {
		return nil, errors.New("server requires a resolver")
	}
	if cfg.Ingest == nil {
		return nil, errors.New("server requires an ingest service")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.Named("web")

	// Leave room for the text fields and multipart framing around the payload.
	maxBody := cfg.Ingest.MaxSize() + 1<<20

	router := chi.NewRouter()

	s := &Server{
		router:   router,
		handlers: NewHandlers(cfg.Resolver, cfg.Ingest, logger, maxBody),
		limiter:  NewRateLimiter(cfg.RateLimit, cfg.RateWindow),
		logger:   logger,
	}

	s.setupMiddleware(cfg.AllowedOrigins)
	s.setupRoutes(cfg.MediaDir)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware(origins []string) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  s.logger.StandardLogger(&hclog.StandardLoggerOptions{ForceLevel: hclog.Info}),
		NoColor: true,
	}))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors(origins))
	s.router.Use(s.limiter.Middleware)
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes(mediaDir string) {
	if mediaDir != "" {
		fileServer := http.FileServer(http.Dir(mediaDir))
		s.router.Handle(api.MediaPrefix+"/*", http.StripPrefix(api.MediaPrefix+"/", fileServer))
	}

	s.router.Get(api.HealthPath, s.handlers.Health)

	s.router.Post(api.SongsPath, s.handlers.UploadSong)
	s.router.Get(api.SongsPath, s.handlers.GetSongs)
	s.router.Get(api.AllSongsPath, s.handlers.AllSongs)
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", "http://"+s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals
// or when ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	// Channel to receive shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt, cancellation or error
	select {
	case err := <-errCh:
		return err
	case <-stop:
		s.logger.Info("shutting down server")
	case <-ctx.Done():
		s.logger.Info("shutting down server", "reason", ctx.Err())
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
