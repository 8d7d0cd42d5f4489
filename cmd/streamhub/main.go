// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/streamhub/streamhub/internal/api"
	"github.com/streamhub/streamhub/internal/api/middleware"
	"github.com/streamhub/streamhub/internal/buildinfo"
	"github.com/streamhub/streamhub/internal/cache"
	"github.com/streamhub/streamhub/internal/config"
	"github.com/streamhub/streamhub/internal/database"
	"github.com/streamhub/streamhub/internal/metrics"
	"github.com/streamhub/streamhub/internal/models"
	"github.com/streamhub/streamhub/internal/services/catalog"
	"github.com/streamhub/streamhub/internal/services/tmdb"
	"github.com/streamhub/streamhub/internal/services/watchmode"
)

func main() {
	config.InitDefaultLogger(buildinfo.Version)

	var rootCmd = &cobra.Command{
		Use:   "streamhub",
		Short: "Streaming catalog aggregation API",
		Long: `streamhub - aggregates trending lists, per-platform catalogs and watch
availability from a catalog provider and serves them through a small REST API.`,
	}

	rootCmd.Version = buildinfo.Version

	rootCmd.AddCommand(RunServeCommand())
	rootCmd.AddCommand(RunVersionCommand())
	rootCmd.AddCommand(RunGenerateConfigCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func RunServeCommand() *cobra.Command {
	var (
		configDir string
		dataDir   string
		logPath   string
		pprofFlag bool
	)

	var command = &cobra.Command{
		Use:   "serve",
		Short: "Start the server",
	}

	command.Flags().StringVar(&configDir, "config-dir", "", "config directory path (default is OS-specific: ~/.config/streamhub/ or %APPDATA%\\streamhub\\). Can also be a direct path to a .toml file")
	command.Flags().StringVar(&dataDir, "data-dir", "", "data directory for the database (default is next to config file)")
	command.Flags().StringVar(&logPath, "log-path", "", "log file path (default is stdout)")
	command.Flags().BoolVar(&pprofFlag, "pprof", false, "enable pprof server on :6060")

	command.Run = func(cmd *cobra.Command, args []string) {
		app := NewApplication(configDir, dataDir, logPath, pprofFlag)
		app.runServer()
	}

	return command
}

func RunVersionCommand() *cobra.Command {
	var command = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of streamhub",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(buildinfo.String())
		},
	}

	return command
}

func RunGenerateConfigCommand() *cobra.Command {
	var configDir string

	command := &cobra.Command{
		Use:   "generate-config",
		Short: "Generate a default configuration file",
		Long: `Generate a default configuration file without starting the server.

If no --config-dir is specified, uses the OS-specific default location:
- Linux/macOS: ~/.config/streamhub/config.toml
- Windows: %APPDATA%\streamhub\config.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := resolveConfigFile(configDir)

			if _, err := os.Stat(configPath); err == nil {
				cmd.Printf("Configuration file already exists at: %s\n", configPath)
				cmd.Println("Skipping generation to avoid overwriting existing configuration.")
				return nil
			}

			if err := config.WriteDefaultConfig(configPath); err != nil {
				return fmt.Errorf("failed to create configuration file: %w", err)
			}

			cmd.Printf("Configuration file created successfully at: %s\n", configPath)
			return nil
		},
	}

	command.Flags().StringVar(&configDir, "config-dir", "",
		"config directory or file path (defaults to OS-specific location)")

	return command
}

func resolveConfigFile(configDir string) string {
	if configDir == "" {
		return filepath.Join(config.GetDefaultConfigDir(), "config.toml")
	}
	if strings.HasSuffix(strings.ToLower(configDir), ".toml") {
		return configDir
	}
	if info, err := os.Stat(configDir); err == nil && !info.IsDir() {
		return configDir
	}
	return filepath.Join(configDir, "config.toml")
}

type Application struct {
	configDir string
	dataDir   string
	logPath   string
	pprofFlag bool
}

func NewApplication(configDir, dataDir, logPath string, pprofFlag bool) *Application {
	return &Application{
		configDir: configDir,
		dataDir:   dataDir,
		logPath:   logPath,
		pprofFlag: pprofFlag,
	}
}

func (app *Application) runServer() {
	cfg, err := config.New(app.configDir, buildinfo.Version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize configuration")
	}

	// Override with CLI flags if provided
	if app.dataDir != "" {
		cfg.SetDataDir(app.dataDir)
	}
	if app.logPath != "" {
		cfg.Config.LogPath = app.logPath
	}
	if app.pprofFlag {
		cfg.Config.PprofEnabled = true
	}

	cfg.ApplyLogConfig()

	log.Info().Str("version", buildinfo.Version).Msg("Starting streamhub")

	db, err := database.New(cfg.GetDatabasePath())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	var metricsManager *metrics.Manager
	if cfg.Config.MetricsEnabled {
		metricsManager = metrics.NewMetricsManager()
	}

	tmdbConfig := tmdb.Config{
		APIKey:   cfg.Config.TMDBAPIKey,
		BaseURL:  cfg.Config.TMDBBaseURL,
		Language: cfg.Config.TMDBLanguage,
		Timeout:  cfg.HTTPTimeout(),
	}
	watchmodeConfig := watchmode.Config{
		APIKey:  cfg.Config.WatchmodeAPIKey,
		BaseURL: cfg.Config.WatchmodeBaseURL,
		Timeout: cfg.HTTPTimeout(),
	}
	enrichOptions := catalog.EnrichOptions{
		Region:          cfg.Config.TMDBWatchRegion,
		FallbackRegions: cfg.Config.TMDBFallbackRegions,
		IncludeAds:      cfg.Config.TMDBIncludeAds,
		Full:            cfg.Config.TMDBEnrichFullProviders,
		Concurrency:     cfg.Config.TMDBProviderConcurrency,
	}
	var (
		directLinkObserver watchmode.Observer
		cacheObserver      cache.Observer
	)
	if metricsManager != nil {
		tmdbConfig.Observer = metricsManager
		watchmodeConfig.Observer = metricsManager
		enrichOptions.Observer = metricsManager
		directLinkObserver = metricsManager
		cacheObserver = metricsManager
	}

	tmdbClient := tmdb.NewClient(tmdbConfig)
	if !tmdbClient.IsConfigured() {
		log.Warn().Msg("No TMDB api key configured - catalog routes will answer 503")
	}

	watchmodeClient := watchmode.NewClient(watchmodeConfig)
	if !watchmodeClient.IsConfigured() {
		log.Info().Msg("No Watchmode api key configured - direct links disabled")
	}

	catalogService := catalog.NewService(
		tmdbClient,
		catalog.NewEnricher(tmdbClient, enrichOptions),
		watchmode.NewResolver(watchmodeClient, cfg.Config.TMDBWatchRegion, directLinkObserver),
		catalog.Options{
			WatchRegion:     cfg.Config.TMDBWatchRegion,
			CatalogPages:    cfg.Config.TMDBCatalogPages,
			CatalogMaxItems: cfg.Config.TMDBCatalogMaxItems,
			MaxPages:        cfg.Config.TMDBMaxPages,
			MaxStartPage:    cfg.Config.TMDBMaxStartPage,
		},
	)

	responseCache := cache.New(cfg.CacheTTL(), cacheObserver)
	defer responseCache.Close()

	var rateLimiter *middleware.IPRateLimiter
	if cfg.Config.RateLimitPerMinute > 0 {
		rateLimiter = middleware.NewIPRateLimiter(cfg.Config.RateLimitPerMinute)
		defer rateLimiter.Close()
	}

	httpServer := api.NewServer(&api.Dependencies{
		Config:             cfg,
		Version:            buildinfo.Version,
		DB:                 db,
		CatalogService:     catalogService,
		PreferencesStore:   models.NewPreferencesStore(db),
		SearchHistoryStore: models.NewSearchHistoryStore(db),
		ResponseCache:      responseCache,
		RateLimiter:        rateLimiter,
	})

	errorChannel := make(chan error, 2)
	serverReady := make(chan struct{}, 1)
	go func() {
		if err := httpServer.ListenAndServeReady(serverReady); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errorChannel <- err
		}
	}()

	select {
	case <-serverReady:
	case err := <-errorChannel:
		log.Fatal().Err(err).Msg("failed to start HTTP server")
	}

	var metricsServer *http.Server
	if metricsManager != nil {
		// Start metrics server on separate port
		metricsServer = metrics.NewMetricsServer(metricsManager, cfg.Config.MetricsHost, cfg.Config.MetricsPort)
		go func() {
			log.Info().Str("addr", metricsServer.Addr).Msg("Starting metrics server")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errorChannel <- errors.Wrap(err, "metrics server")
			}
		}()
	}

	// Start profiling server if enabled
	if cfg.Config.PprofEnabled {
		go func() {
			log.Info().Msg("Starting pprof server on :6060")
			log.Info().Msg("Access profiling at: http://localhost:6060/debug/pprof/")
			if err := http.ListenAndServe(":6060", nil); err != nil {
				log.Error().Err(err).Msg("Profiling server failed")
			}
		}()
	}

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-sigCh:
		log.Info().Msgf("got signal %v, shutting down server", sig.String())
	case err := <-errorChannel:
		log.Error().Err(err).Msg("got unexpected error from server")
		exitCode = 1
	}

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("got error during graceful http shutdown")
		exitCode = 1
	}

	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("got error during metrics server shutdown")
		}
	}

	if exitCode != 0 {
		responseCache.Close()
		db.Close()
		os.Exit(exitCode)
	}

	log.Info().Msg("Server stopped")
}
