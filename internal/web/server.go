// Package web provides the HTTP API and HTML shell of the data model editor.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/cdm/internal/config"
	"github.com/JonMunkholm/cdm/internal/core"
	"github.com/JonMunkholm/cdm/internal/metrics"
	"github.com/JonMunkholm/cdm/internal/web/middleware"
)

// Server is the HTTP server for the editor.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server

	collector      *metrics.Collector
	metricsHandler http.Handler

	stop context.CancelFunc
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics instruments requests with c and serves h at the configured path.
func WithMetrics(c *metrics.Collector, h http.Handler) Option {
	return func(s *Server) {
		s.collector = c
		s.metricsHandler = h
	}
}

// NewServer creates a Server with middleware and routes installed.
func NewServer(service *core.Service, cfg *config.Config, opts ...Option) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
		stop:    cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupMiddleware(ctx)
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware(ctx context.Context) {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	if s.collector != nil {
		s.router.Use(s.collector.Middleware)
	}
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		limiter := middleware.NewRateLimiter(ctx, s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.Handler)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	if s.metricsHandler != nil {
		s.router.Handle(s.cfg.Metrics.Path, s.metricsHandler)
	}

	// Pages
	s.router.Get("/", s.handleDashboard)
	s.router.Get("/graph/objects/{id}", s.handleObjectGraphPage)
	s.router.Get("/graph/lists/{id}", s.handleListGraphPage)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.cfg.Security))

		r.Get("/entities", s.handleEntities)
		r.Get("/stats", s.handleStats)
		r.Get("/audit-log", s.handleAuditLog)
		r.Get("/uploads/status", s.handleUploadStatus)

		// Preferences, keyed by X-Client-ID
		r.Get("/preferences", s.handleListPreferences)
		r.Get("/preferences/{key}", s.handleGetPreference)
		r.Put("/preferences/{key}", s.handlePutPreference)
		r.Delete("/preferences/{key}", s.handleDeletePreference)

		// Driver codec and ordering
		r.Get("/driver-catalog", s.handleDriverCatalog)
		r.Post("/driver-strings/parse", s.handleParseDriver)
		r.Post("/driver-strings/format", s.handleFormatDriver)
		r.Post("/driver-order/{category}", s.handleReorderDrivers)

		// Graphs
		r.Get("/graph/objects/{id}", s.handleObjectGraph)
		r.Get("/graph/lists/{id}", s.handleListGraph)

		// Entity grids and CRUD
		r.Get("/{kind}", s.handleView)
		r.Post("/{kind}", s.handleCreate)
		r.Get("/{kind}/export", s.handleExport)
		r.Post("/{kind}/upload", s.handleUpload)
		r.Post("/{kind}/bulk-edit", s.handleBulkEdit)
		r.Post("/{kind}/bulk-delete", s.handleBulkDelete)
		r.Get("/{kind}/default-order", s.handleGetDefaultOrder)
		r.Put("/{kind}/default-order", s.handleSetDefaultOrder)
		r.Delete("/{kind}/default-order", s.handleClearDefaultOrder)
		r.Get("/{kind}/default-order/candidates", s.handleDefaultOrderCandidates)
		r.Get("/{kind}/{id}", s.handleGet)
		r.Put("/{kind}/{id}", s.handleUpdate)
		r.Delete("/{kind}/{id}", s.handleDelete)
		r.Post("/{kind}/{id}/clone", s.handleClone)
	})
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stop()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if enableCSP {
				h.Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
			}
			next.ServeHTTP(w, r)
		})
	}
}
