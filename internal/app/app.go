// Package app wires configuration, storage, the managers and the
// servers into a runnable application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scribemail/scribe/internal/api"
	"github.com/scribemail/scribe/internal/config"
	"github.com/scribemail/scribe/internal/metrics"
	"github.com/scribemail/scribe/internal/profile"
	"github.com/scribemail/scribe/internal/signature"
	"github.com/scribemail/scribe/internal/store"
	"github.com/scribemail/scribe/internal/template"
	"github.com/scribemail/scribe/internal/verse"
)

// App is the main application
type App struct {
	config        *config.Config
	store         *store.Store
	templates     *template.Manager
	profiles      *profile.Manager
	signatures    *signature.Manager
	verses        *verse.Provider
	apiServer     *api.Server
	metricsServer *metrics.Server
	collector     *metrics.Collector
	logger        *slog.Logger
}

// New creates a new application
func New(cfg *config.Config) (*App, error) {
	logger := setupLogger(cfg.Logging)

	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	verses := verse.NewProvider(st, verse.Options{
		Translation:   cfg.Verse.Translation,
		RemoteEnabled: cfg.RemoteVerseEnabled(),
		Endpoint:      cfg.Verse.Endpoint,
		Timeout:       cfg.Verse.FetchTimeout,
	}, logger.With("component", "verse"))
	if err := verses.Init(); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to initialize verse provider: %w", err)
	}

	templates := template.NewManager(st, logger.With("component", "templates"))
	if err := templates.Init(); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to initialize template manager: %w", err)
	}

	profiles := profile.NewManager(st, logger.With("component", "profiles"))
	if err := profiles.Init(); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to initialize profile manager: %w", err)
	}

	signatures := signature.NewManager(st, verses, logger.With("component", "signatures"))
	if err := signatures.Init(); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to initialize signature manager: %w", err)
	}

	a := &App{
		config:     cfg,
		store:      st,
		templates:  templates,
		profiles:   profiles,
		signatures: signatures,
		verses:     verses,
		logger:     logger,
	}

	a.apiServer = api.NewServer(templates, profiles, signatures, verses, &cfg.API,
		logger.With("component", "api"))

	if cfg.Metrics.Enabled {
		m := metrics.New()
		metrics.SetGlobal(m)
		a.collector = metrics.NewCollector(m, a, a, 10*time.Second)
		a.metricsServer = metrics.NewServerWithAllowedIPs(m,
			cfg.Metrics.ListenAddr, cfg.Metrics.Path, cfg.Metrics.AllowedIPs,
			logger.With("component", "metrics"))
	}

	return a, nil
}

// LocalUsage reports bulk storage consumption for the metrics collector.
func (a *App) LocalUsage() (int, int, error) {
	return a.store.Usage(store.Local)
}

// Counts reports collection sizes for the metrics collector.
func (a *App) Counts() metrics.CollectionCounts {
	return metrics.CollectionCounts{
		Templates:  len(a.templates.All()),
		Profiles:   len(a.profiles.All()),
		Signatures: len(a.signatures.All()),
	}
}

// Run starts all components and waits for shutdown
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("starting scribe",
		"api_addr", a.config.API.ListenAddr,
		"storage", a.config.Storage.Path,
		"translation", a.verses.Translation(),
	)

	// Create context that listens for signals
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	errCh := make(chan error, 2)

	go func() {
		if err := a.apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()

	if a.metricsServer != nil {
		a.collector.Start()
		go func() {
			if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.logger.Error("server error", "error", err)
		cancel()
	}

	return a.Shutdown(context.Background())
}

// Shutdown gracefully shuts down all components
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := a.apiServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("api server shutdown error", "error", err)
	}

	if a.metricsServer != nil {
		a.collector.Stop()
		if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("metrics server shutdown error", "error", err)
		}
	}

	if err := a.store.Close(); err != nil {
		a.logger.Error("storage close error", "error", err)
	}

	a.logger.Info("shutdown complete")
	return nil
}

// setupLogger creates a logger based on configuration
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
