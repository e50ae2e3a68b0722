package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/scribemail/scribe/internal/app"
	"github.com/scribemail/scribe/internal/config"
	"github.com/scribemail/scribe/internal/profile"
	"github.com/scribemail/scribe/internal/signature"
	"github.com/scribemail/scribe/internal/store"
	"github.com/scribemail/scribe/internal/template"
	"github.com/scribemail/scribe/internal/verse"
)

var (
	cfgFile   string
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "Scribe - email template and signature service",
	Long:  `Scribe manages email templates, autofill profiles, signatures and daily verses.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE:  runConfigValidate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("scribe version %s\n", version)
		if commit != "unknown" {
			fmt.Printf("  commit: %s\n", commit)
		}
		if buildTime != "unknown" {
			fmt.Printf("  built:  %s\n", buildTime)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")

	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(serveCmd, configCmd, versionCmd)
}

// loadConfig loads the config file, falling back to built-in defaults
// when no file is given.
func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}

	return application.Run(context.Background())
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		return fmt.Errorf("config file is required (use -c flag)")
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	fmt.Printf("Configuration is valid\n")
	fmt.Printf("  API: %s\n", cfg.API.ListenAddr)
	fmt.Printf("  Storage: %s\n", cfg.Storage.Path)
	fmt.Printf("  Translation: %s\n", cfg.Verse.Translation)

	return nil
}

// managers bundles the record managers for CLI commands that work on
// the store directly.
type managers struct {
	store      *store.Store
	templates  *template.Manager
	profiles   *profile.Manager
	signatures *signature.Manager
	verses     *verse.Provider
}

func (m *managers) Close() error {
	return m.store.Close()
}

// openManagers opens the store and initializes every manager. CLI runs
// log at warn level so command output stays clean.
func openManagers() (*managers, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	st, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	verses := verse.NewProvider(st, verse.Options{
		Translation:   cfg.Verse.Translation,
		RemoteEnabled: cfg.RemoteVerseEnabled(),
		Endpoint:      cfg.Verse.Endpoint,
		Timeout:       cfg.Verse.FetchTimeout,
	}, logger)
	if err := verses.Init(); err != nil {
		st.Close()
		return nil, err
	}

	templates := template.NewManager(st, logger)
	if err := templates.Init(); err != nil {
		st.Close()
		return nil, err
	}

	profiles := profile.NewManager(st, logger)
	if err := profiles.Init(); err != nil {
		st.Close()
		return nil, err
	}

	signatures := signature.NewManager(st, verses, logger)
	if err := signatures.Init(); err != nil {
		st.Close()
		return nil, err
	}

	return &managers{
		store:      st,
		templates:  templates,
		profiles:   profiles,
		signatures: signatures,
		verses:     verses,
	}, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func truncateID(id string) string {
	if len(id) <= 12 {
		return id
	}
	return id[:12] + "..."
}
