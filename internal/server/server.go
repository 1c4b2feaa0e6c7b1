package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/taskpilot/taskpilot-be/internal/auth"
	"github.com/taskpilot/taskpilot-be/internal/config"
	"github.com/taskpilot/taskpilot-be/internal/http/handlers"
	"github.com/taskpilot/taskpilot-be/internal/middleware"
	"github.com/taskpilot/taskpilot-be/internal/storage"
	"github.com/taskpilot/taskpilot-be/internal/tasks"
)

// publicRoutes are served without a bearer token. Everything else goes
// through the guard.
var publicRoutes = []string{
	"POST /auth/register",
	"POST /auth/login",
	"GET /health",
}

// Store is the combined persistence surface the server wires against.
type Store interface {
	storage.UserStore
	storage.TaskStore
}

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires middleware, services, and routes, and returns a ready server.
func New(cfg config.Config, store Store, logger *slog.Logger) *Server {
	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL())
	authService := auth.NewService(store, tokenManager, cfg.BcryptCost)
	taskService := tasks.NewService(store)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(time.Now()).Register(mux)
	handlers.NewAuthHandler(authService, logger).Register(mux)
	handlers.NewTasksHandler(taskService, logger).Register(mux)

	guard := middleware.NewGuard(tokenManager, authService, logger, publicRoutes)
	handler := middleware.CORS(cfg.CORSOrigins, middleware.Logging(logger, guard.Wrap(mux)))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// Handler exposes the full middleware chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.inner.Handler
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
