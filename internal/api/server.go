// Package api exposes the template, profile, signature and verse
// managers over a JSON HTTP API.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/scribemail/scribe/internal/config"
	"github.com/scribemail/scribe/internal/ipfilter"
	"github.com/scribemail/scribe/internal/metrics"
	"github.com/scribemail/scribe/internal/profile"
	"github.com/scribemail/scribe/internal/signature"
	"github.com/scribemail/scribe/internal/template"
	"github.com/scribemail/scribe/internal/verse"
)

// Server is the HTTP API server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	templates  *template.Manager
	profiles   *profile.Manager
	signatures *signature.Manager
	verses     *verse.Provider
	config     *config.APIConfig
	filter     *ipfilter.Filter
	logger     *slog.Logger
	startTime  time.Time
}

// NewServer creates a new API server
func NewServer(
	templates *template.Manager,
	profiles *profile.Manager,
	signatures *signature.Manager,
	verses *verse.Provider,
	cfg *config.APIConfig,
	logger *slog.Logger,
) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		templates:  templates,
		profiles:   profiles,
		signatures: signatures,
		verses:     verses,
		config:     cfg,
		filter:     ipfilter.New(cfg.AllowedIPs, logger),
		logger:     logger,
		startTime:  time.Now(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	// Middleware
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(metrics.HTTPMiddleware)
	s.router.Use(s.filter.HTTPMiddleware)
	s.router.Use(middleware.Recoverer)

	// Health check (no auth required)
	s.router.Get("/health", s.handleHealth)

	// API v1 routes (auth required)
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", s.handleListTemplates)
			r.Post("/", s.handleCreateTemplate)
			r.Get("/stats", s.handleTemplateStats)
			r.Get("/storage", s.handleTemplateStorage)
			r.Get("/most-used", s.handleMostUsedTemplates)
			r.Get("/export", s.handleExportTemplates)
			r.Post("/import", s.handleImportTemplates)
			r.Get("/prebuilt", s.handlePrebuiltCategories)
			r.Post("/prebuilt/{category}", s.handleImportPrebuilt)
			r.Get("/{id}", s.handleGetTemplate)
			r.Put("/{id}", s.handleUpdateTemplate)
			r.Delete("/{id}", s.handleDeleteTemplate)
			r.Post("/{id}/duplicate", s.handleDuplicateTemplate)
			r.Post("/{id}/render", s.handleRenderTemplate)
			r.Post("/{id}/insert", s.handleInsertTemplate)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.handleListCategories)
			r.Post("/", s.handleAddCategory)
		})

		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", s.handleListProfiles)
			r.Post("/", s.handleCreateProfile)
			r.Get("/active", s.handleActiveProfile)
			r.Put("/active", s.handleSetActiveProfile)
			r.Delete("/active", s.handleClearActiveProfile)
			r.Get("/stats", s.handleProfileStats)
			r.Get("/export", s.handleExportProfiles)
			r.Post("/import", s.handleImportProfiles)
			r.Get("/{id}", s.handleGetProfile)
			r.Put("/{id}", s.handleUpdateProfile)
			r.Delete("/{id}", s.handleDeleteProfile)
			r.Put("/{id}/variables", s.handleUpdateProfileVariables)
		})

		r.Route("/signatures", func(r chi.Router) {
			r.Get("/", s.handleListSignatures)
			r.Post("/", s.handleAddSignature)
			r.Get("/active", s.handleActiveSignature)
			r.Put("/active", s.handleSetActiveSignature)
			r.Get("/rendered", s.handleRenderedActiveSignature)
			r.Get("/user-profile", s.handleGetUserProfile)
			r.Put("/user-profile", s.handleUpdateUserProfile)
			r.Get("/export", s.handleExportSignatures)
			r.Post("/import", s.handleImportSignatures)
			r.Get("/{id}", s.handleGetSignature)
			r.Put("/{id}", s.handleUpdateSignature)
			r.Delete("/{id}", s.handleDeleteSignature)
			r.Get("/{id}/rendered", s.handleRenderedSignature)
		})

		r.Route("/verse", func(r chi.Router) {
			r.Get("/today", s.handleVerseOfTheDay)
			r.Get("/keys", s.handleVerseKeys)
			r.Get("/translation", s.handleGetTranslation)
			r.Put("/translation", s.handleSetTranslation)
			r.Get("/custom", s.handleListCustomVerses)
			r.Post("/custom/import", s.handleImportCustomVerses)
			r.Put("/custom/{key}", s.handleAddCustomVerse)
			r.Delete("/custom/{key}", s.handleDeleteCustomVerse)
			r.Get("/cache", s.handleVerseCache)
			r.Delete("/cache", s.handleClearVerseCache)
			r.Get("/{key}", s.handleGetVerse)
		})

		r.Route("/quote", func(r chi.Router) {
			r.Get("/today", s.handleQuoteOfTheDay)
			r.Get("/random", s.handleRandomQuote)
		})
	})
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Addr:           s.config.ListenAddr,
		Handler:        s.router,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
	}

	s.logger.Info("starting HTTP API server", "addr", s.config.ListenAddr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP API server")
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
