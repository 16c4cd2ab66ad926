// Package server is the composition root: it builds the dependency chain
// (store → services → handlers), mounts the routes, and owns startup and
// graceful shutdown.
//
// WIRING:
//
//	sqlite.DB ──────────────┐
//	auth.TokenService ──────┼─→ service.PortalService ─→ handler.PortalHandler
//	auth.PasswordService ───┤
//	notify.Runner ──────────┘
//
// Each layer receives interfaces or constructed values, never config — the
// only place that reads Config is New. main.go stays minimal: it parses the
// environment into a Config and calls New + Start.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/rahim/student-portal/internal/auth"
	"github.com/rahim/student-portal/internal/handler"
	"github.com/rahim/student-portal/internal/middleware"
	"github.com/rahim/student-portal/internal/notify"
	sqliteRepo "github.com/rahim/student-portal/internal/repository/sqlite"
	"github.com/rahim/student-portal/internal/service"
)

// Config holds everything the server needs from the environment.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string

	// SMTP is nil when outbound mail is disabled; the portal then runs
	// with notifications as logged no-ops.
	SMTP *notify.SMTPConfig
}

// Server owns the router and every resource that must be released on
// shutdown: the database connection and the notification runner.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	runner *notify.Runner
}

// New assembles the full dependency chain and mounts all routes.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("configuring tokens: %w", err)
	}

	// Mail is optional. A nil Notifier makes the runner a no-op, so the
	// service layer never has to check whether mail is configured.
	var notifier notify.Notifier
	if cfg.SMTP != nil {
		mailer, err := notify.NewMailer(*cfg.SMTP)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("configuring mailer: %w", err)
		}
		notifier = mailer
	}
	runner := notify.NewRunner(notifier, logger)

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		runner: runner,
	}

	portal := service.NewPortalService(db, tokens, auth.NewPasswordService(), runner, logger)
	s.setupRoutes(portal, tokens)

	return s, nil
}

// setupRoutes mounts middleware and handlers.
//
// MIDDLEWARE ORDER:
//  1. RequestID  — tags each request for tracing
//  2. RealIP     — unwraps X-Forwarded-For
//  3. Recoverer  — turns panics into 500s
//  4. RequestLogger — one structured line per request
//  5. ResolveIdentity — parses the bearer token into the context
//
// ResolveIdentity runs on EVERY route and never rejects: a missing or
// invalid token just means an anonymous caller. Whether anonymous is good
// enough is the service layer's decision, made per operation.
func (s *Server) setupRoutes(portal *service.PortalService, tokens *auth.TokenService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.RequestLogger(s.logger))
	s.router.Use(auth.ResolveIdentity(tokens))

	h := handler.NewPortalHandler(portal, s.logger)

	s.router.Get("/healthz", h.HandleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/login", h.HandleLogin)
		r.Post("/signup", h.HandleSignup)
		r.Get("/students", h.HandleListStudents)
		r.Get("/students/{id}", h.HandleGetStudent)
		r.Put("/students/{id}/marks", h.HandleUpdateMarks)
		r.Put("/students/{id}", h.HandleUpdateStudent)
		r.Delete("/students/{id}", h.HandleDeleteStudent)
	})
}

// Start runs the server until SIGINT/SIGTERM, then shuts down in order:
//  1. Stop accepting connections, drain in-flight requests (30s cap)
//  2. Wait for outstanding notification deliveries
//  3. Close the database (flushes the WAL, releases the file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.Bool("mail_enabled", s.config.SMTP != nil),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		// Let dispatched mails finish before the process exits. Each
		// delivery has its own 15s timeout, so this cannot hang forever.
		s.runner.Wait()

		s.logger.Info("server stopped gracefully")
	}

	return nil
}
