// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the wiring layer. It connects the store, services,
// handlers, middleware and routes, and owns the server's lifecycle:
//   - Which URL patterns map to which handler functions
//   - Which routes sit behind the bearer-token guard
//   - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → store (sqlite or postgres)
//	store → PostService / AuthService → PostHandler / AuthHandler
//	TokenService → auth.Guard around every protected route
//
// All dependencies are assembled in New/setupRoutes (the composition root).
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sakif/blog-backend/internal/auth"
	"github.com/sakif/blog-backend/internal/config"
	"github.com/sakif/blog-backend/internal/handler"
	"github.com/sakif/blog-backend/internal/middleware"
	"github.com/sakif/blog-backend/internal/repository"
	"github.com/sakif/blog-backend/internal/repository/postgres"
	"github.com/sakif/blog-backend/internal/repository/sqlite"
	"github.com/sakif/blog-backend/internal/service"
)

// metricsNamespace prefixes every exported Prometheus metric.
const metricsNamespace = "blog"

// shutdownTimeout bounds how long in-flight requests may run after a signal.
const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store. Start closes it after the HTTP server has
// drained, so pending writes finish before the connection goes away.
type Server struct {
	router  *chi.Mux
	config  config.Config
	logger  *slog.Logger
	store   repository.Store
	tokens  *auth.TokenService
	metrics *middleware.Metrics
}

// New opens the store selected by cfg and builds a Server around it.
//
// DATABASE_URL starting with postgres:// or postgresql:// selects PostgreSQL;
// otherwise the SQLite file at DB_PATH is used, creating its directory if needed.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s, err := NewWithStore(cfg, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	return s, nil
}

// NewWithStore builds a Server on an already-open store. The Server takes
// ownership of store and closes it when Start returns.
func NewWithStore(cfg config.Config, store repository.Store, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		store:   store,
		tokens:  tokens,
		metrics: middleware.NewMetrics(metricsNamespace),
	}
	s.setupRoutes()
	return s, nil
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (repository.Store, error) {
	if cfg.UsesPostgres() {
		logger.Info("using postgres store")
		return postgres.New(ctx, cfg.DatabaseURL, logger)
	}

	if cfg.DBPath != ":memory:" {
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
		}
	}
	logger.Info("using sqlite store", slog.String("path", cfg.DBPath))
	return sqlite.New(ctx, cfg.DBPath, logger)
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	POST   /auth/register     → create account
//	POST   /auth/login        → exchange credentials for a token
//	GET    /auth/me           → current user            [guarded]
//	POST   /auth/refresh      → fresh token             [guarded]
//	POST   /auth/logout       → acknowledgement         [guarded]
//	GET    /posts             → list every post
//	POST   /posts             → create post             [guarded]
//	GET    /posts/my-posts    → caller's posts          [guarded]
//	GET    /posts/{id}        → single post
//	PATCH  /posts/{id}        → owner-only update       [guarded]
//	DELETE /posts/{id}        → owner-only delete       [guarded]
//	GET    /healthz           → store ping
//	GET    /metrics           → Prometheus exposition
//
// MIDDLEWARE ORDER MATTERS:
// RequestID runs first so the logger can print it. Recoverer sits inside
// Logger and Metrics so a recovered panic is still logged and counted as 500.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(s.metrics.Middleware)
	s.router.Use(chimiddleware.Recoverer)

	authService := service.NewAuthService(s.store, s.tokens, auth.NewPasswordService(s.config.BcryptCost), s.logger)
	postService := service.NewPostService(s.store, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.logger)
	postHandler := handler.NewPostHandler(postService, s.logger)
	healthHandler := handler.NewHealthHandler(s.store, s.logger)

	guard := func(fn auth.IdentityHandlerFunc) http.HandlerFunc {
		return auth.Guard(s.tokens, fn)
	}

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Get("/me", guard(authHandler.HandleMe))
		r.Post("/refresh", guard(authHandler.HandleRefresh))
		r.Post("/logout", guard(authHandler.HandleLogout))
	})

	s.router.Route("/posts", func(r chi.Router) {
		r.Get("/", postHandler.HandleList)
		r.Post("/", guard(postHandler.HandleCreate))
		// Registered before /{id} for readability; chi prefers static segments anyway.
		r.Get("/my-posts", guard(postHandler.HandleMyPosts))
		r.Get("/{id}", postHandler.HandleGet)
		r.Patch("/{id}", guard(postHandler.HandleUpdate))
		r.Delete("/{id}", guard(postHandler.HandleDelete))
	})

	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())
}

// Handler returns the root HTTP handler, wrapped in otelhttp when tracing is on.
func (s *Server) Handler() http.Handler {
	if s.config.TracingEnabled {
		return otelhttp.NewHandler(s.router, s.config.ServiceName)
	}
	return s.router
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (30s timeout)
//  3. Close the store
func (s *Server) Start() error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
