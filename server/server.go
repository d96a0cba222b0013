// Package server wires the HTTP surface of the editor: middleware, routes and
// graceful shutdown.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/giygas/medsummary/config"
	"github.com/giygas/medsummary/handlers"
	"github.com/giygas/medsummary/logging"
	"github.com/giygas/medsummary/metrics"
)

// Server represents the HTTP server
type Server struct {
	server  *http.Server
	router  chi.Router
	handler *handlers.HTTPHandler
	limiter *RateLimiter
	config  *config.Config
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, h *handlers.HTTPHandler) *Server {
	router := chi.NewRouter()

	s := &Server{
		server: &http.Server{
			Handler:           router,
			Addr:              cfg.Addr(),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		router:  router,
		handler: h,
		limiter: NewRateLimiter(),
		config:  cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Router exposes the configured router, for tests
func (s *Server) Router() http.Handler { return s.router }

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(LocalOnlyMiddleware)
	s.router.Use(logging.LoggingMiddleware(logging.Logger()))
	s.router.Use(metrics.Metrics)
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(s.limiter.Middleware)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	h := s.handler

	s.router.Get("/health", h.HealthCheck)
	s.router.Handle("/metrics", metrics.Handler())

	s.router.Get("/session", h.GetSession)
	s.router.Post("/welcome/seen", h.MarkWelcomeSeen)
	s.router.Post("/account", h.CreateAccount)
	s.router.Post("/session/login", h.Login)
	s.router.Post("/session/logout", h.Logout)
	s.router.Post("/session/activity", h.Activity)
	s.router.Post("/session/unlock", h.Unlock)

	s.router.Group(func(r chi.Router) {
		r.Use(h.RequireSession)

		r.Get("/patient", h.GetPatient)
		r.Put("/patient/fields/{field}", h.SetPatientField)
		r.Post("/patient/sections/{section}/rows", h.AddPatientRow)
		r.Patch("/patient/sections/{section}/rows/{index}", h.UpdatePatientRow)
		r.Delete("/patient/sections/{section}/rows/{index}", h.RemovePatientRow)

		r.Get("/visit", h.GetVisit)
		r.Put("/visit/fields/{field}", h.SetVisitField)
		r.Post("/visit/sections/{section}/rows", h.AddVisitRow)
		r.Patch("/visit/sections/{section}/rows/{index}", h.UpdateVisitRow)
		r.Delete("/visit/sections/{section}/rows/{index}", h.RemoveVisitRow)

		r.Get("/defaults", h.GetDefaults)
		r.Get("/defaults/{section}/{index}", h.GetDefaultRow)

		r.Get("/summary", h.GetSummary)
		r.Get("/summary.txt", h.GetSummaryText)
		r.Get("/summary.pdf", h.GetSummaryPDF)
		r.Post("/print", h.Print)
		r.Post("/clear", h.Clear)
	})
}

// Start starts the server. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.limiter.StartCleanup(30 * time.Minute)

	logging.Info("Starting server", "addr", s.server.Addr, "env", s.config.Env.String())
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")
	s.limiter.Stop()

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}
