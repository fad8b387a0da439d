package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/typeboard/typeboard/internal/domain"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, deps Deps) *Server {
	handler := NewHandler(deps)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for browser clients
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(SessionMiddleware)      // Visitor session id
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Health endpoints
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	router.Group(func(r chi.Router) {
		r.Use(LocaleMiddleware(handler.locales))

		r.Get("/categories", handler.ListCategories)

		// Lookup pages
		r.Get("/pages", handler.ListPages)
		r.Get("/pages/{page}", handler.GetPage)
		r.Put("/pages/{page}/selection", handler.SelectPage)
		r.Get("/pages/{page}/{category}", handler.RenderPage)
		r.Get("/rankings/{id}", handler.GetRanking)

		// Incident dashboard
		r.Get("/dashboard", handler.GetDashboard)
		r.Get("/dashboard/options", handler.GetOptions)
		r.Put("/dashboard/filters", handler.SetFilters)
		r.Post("/dashboard/query", handler.Query)
		r.Get("/dashboard/trend", handler.GetTrend)
		r.Get("/dashboard/export.csv", handler.Export)

		// Catalog management
		r.Get("/catalog/{table}", handler.GetTable)
		r.Put("/catalog/{table}/{category}", handler.PutEntry)
		r.Delete("/catalog/{table}/{category}", handler.DeleteEntry)
		r.Post("/catalog/reload", handler.ReloadCatalog)
	})

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
