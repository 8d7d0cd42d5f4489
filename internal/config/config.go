// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"text/template"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/streamhub/streamhub/internal/domain"
	"github.com/streamhub/streamhub/internal/services/platforms"
)

var envPrefix = "STREAMHUB__"

const databaseFile = "streamhub.db"

type AppConfig struct {
	Config  *domain.Config
	viper   *viper.Viper
	dataDir string
	version string

	listenersMu sync.RWMutex
	listeners   []func(*domain.Config)
}

func New(configDirOrPath string, versions ...string) (*AppConfig, error) {
	version := "dev"
	if len(versions) > 0 && strings.TrimSpace(versions[0]) != "" {
		version = versions[0]
	}

	c := &AppConfig{
		viper:   viper.New(),
		Config:  &domain.Config{},
		version: version,
	}

	c.defaults()

	if err := c.load(configDirOrPath); err != nil {
		return nil, err
	}

	c.loadFromEnv()

	if err := c.viper.Unmarshal(c.Config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	c.Config.Version = c.version

	if err := c.Validate(); err != nil {
		return nil, err
	}

	c.resolveDataDir()

	c.watchConfig()

	return c, nil
}

func (c *AppConfig) defaults() {
	// Detect if running in container
	host := "localhost"
	if detectContainer() {
		host = "0.0.0.0"
	}

	c.viper.SetDefault("host", host)
	c.viper.SetDefault("port", 4000)
	c.viper.SetDefault("baseUrl", "/")
	c.viper.SetDefault("logLevel", "INFO")
	c.viper.SetDefault("logPath", "")
	c.viper.SetDefault("logMaxSize", 50)
	c.viper.SetDefault("logMaxBackups", 3)
	c.viper.SetDefault("dataDir", "") // Empty means auto-detect (next to config file)
	c.viper.SetDefault("pprofEnabled", false)
	c.viper.SetDefault("metricsEnabled", false)
	c.viper.SetDefault("metricsHost", "127.0.0.1")
	c.viper.SetDefault("metricsPort", 9074)

	c.viper.SetDefault("tmdbApiKey", "")
	c.viper.SetDefault("tmdbBaseUrl", "https://api.themoviedb.org/3")
	c.viper.SetDefault("tmdbLanguage", "pt-BR")
	c.viper.SetDefault("tmdbWatchRegion", "BR")
	c.viper.SetDefault("tmdbFallbackRegions", []string{"US", "BR"})
	c.viper.SetDefault("tmdbIncludeAds", false)
	c.viper.SetDefault("tmdbCatalogPages", 5)
	c.viper.SetDefault("tmdbCatalogMaxItems", 420)
	c.viper.SetDefault("tmdbProviderConcurrency", 12)
	c.viper.SetDefault("tmdbEnrichFullProviders", false)
	c.viper.SetDefault("tmdbMaxPages", 8)
	c.viper.SetDefault("tmdbMaxStartPage", 500)
	c.viper.SetDefault("httpTimeoutSeconds", 10)

	c.viper.SetDefault("watchmodeApiKey", "")
	c.viper.SetDefault("watchmodeBaseUrl", "https://api.watchmode.com/v1")

	c.viper.SetDefault("cacheTtlSeconds", 300)
	c.viper.SetDefault("rateLimitPerMinute", 0)
}

func (c *AppConfig) load(configDirOrPath string) error {
	c.viper.SetConfigType("toml")

	if configDirOrPath != "" {
		configPath := c.resolveConfigPath(configDirOrPath)
		c.viper.SetConfigFile(configPath)

		if err := c.viper.ReadInConfig(); err != nil {
			// viper reports a missing explicit file as a plain fs error
			if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
				if err := c.writeDefaultConfig(configPath); err != nil {
					return err
				}
				if err := c.viper.ReadInConfig(); err != nil {
					return fmt.Errorf("failed to read newly created config: %w", err)
				}
				return nil
			}
			return fmt.Errorf("failed to read config: %w", err)
		}
	} else {
		// Search for config in standard locations
		c.viper.SetConfigName("config")
		c.viper.AddConfigPath(".")
		c.viper.AddConfigPath(GetDefaultConfigDir())

		if err := c.viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				defaultConfigPath := filepath.Join(GetDefaultConfigDir(), "config.toml")
				if err := c.writeDefaultConfig(defaultConfigPath); err != nil {
					return err
				}
				c.viper.SetConfigFile(defaultConfigPath)
				if err := c.viper.ReadInConfig(); err != nil {
					return fmt.Errorf("failed to read newly created config: %w", err)
				}
				c.dataDir = filepath.Dir(defaultConfigPath)
				return nil
			}
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	return nil
}

func (c *AppConfig) loadFromEnv() {
	// DO NOT use AutomaticEnv() - it reads ALL env vars and causes conflicts with K8s
	// Instead, explicitly bind only the environment variables we want

	// Use double underscore to avoid conflicts with K8s deployment_PORT patterns
	c.viper.BindEnv("host", envPrefix+"HOST")
	c.viper.BindEnv("port", envPrefix+"PORT")
	c.viper.BindEnv("baseUrl", envPrefix+"BASE_URL")
	c.viper.BindEnv("logLevel", envPrefix+"LOG_LEVEL")
	c.viper.BindEnv("logPath", envPrefix+"LOG_PATH")
	c.viper.BindEnv("logMaxSize", envPrefix+"LOG_MAX_SIZE")
	c.viper.BindEnv("logMaxBackups", envPrefix+"LOG_MAX_BACKUPS")
	c.viper.BindEnv("dataDir", envPrefix+"DATA_DIR")
	c.viper.BindEnv("pprofEnabled", envPrefix+"PPROF_ENABLED")
	c.viper.BindEnv("metricsEnabled", envPrefix+"METRICS_ENABLED")
	c.viper.BindEnv("metricsHost", envPrefix+"METRICS_HOST")
	c.viper.BindEnv("metricsPort", envPrefix+"METRICS_PORT")

	c.bindOrReadFromFile("tmdbApiKey", envPrefix+"TMDB_API_KEY")
	c.viper.BindEnv("tmdbBaseUrl", envPrefix+"TMDB_BASE_URL")
	c.viper.BindEnv("tmdbLanguage", envPrefix+"TMDB_LANGUAGE")
	c.viper.BindEnv("tmdbWatchRegion", envPrefix+"TMDB_WATCH_REGION")
	c.viper.BindEnv("tmdbFallbackRegions", envPrefix+"TMDB_FALLBACK_REGIONS")
	c.viper.BindEnv("tmdbIncludeAds", envPrefix+"TMDB_INCLUDE_ADS")
	c.viper.BindEnv("tmdbCatalogPages", envPrefix+"TMDB_CATALOG_PAGES")
	c.viper.BindEnv("tmdbCatalogMaxItems", envPrefix+"TMDB_CATALOG_MAX_ITEMS")
	c.viper.BindEnv("tmdbProviderConcurrency", envPrefix+"TMDB_PROVIDER_CONCURRENCY")
	c.viper.BindEnv("tmdbEnrichFullProviders", envPrefix+"TMDB_ENRICH_FULL_PROVIDERS")
	c.viper.BindEnv("tmdbMaxPages", envPrefix+"TMDB_MAX_PAGES")
	c.viper.BindEnv("tmdbMaxStartPage", envPrefix+"TMDB_MAX_START_PAGE")
	c.viper.BindEnv("httpTimeoutSeconds", envPrefix+"HTTP_TIMEOUT_SECONDS")

	c.bindOrReadFromFile("watchmodeApiKey", envPrefix+"WATCHMODE_API_KEY")
	c.viper.BindEnv("watchmodeBaseUrl", envPrefix+"WATCHMODE_BASE_URL")

	c.viper.BindEnv("cacheTtlSeconds", envPrefix+"CACHE_TTL_SECONDS")
	c.viper.BindEnv("rateLimitPerMinute", envPrefix+"RATE_LIMIT_PER_MINUTE")
}

// Validate rejects values the services cannot start with. A missing api key is not an
// error: requests needing it fail individually with 503.
func (c *AppConfig) Validate() error {
	cfg := c.Config

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.TMDBLanguage != "" {
		if _, err := language.Parse(cfg.TMDBLanguage); err != nil {
			return fmt.Errorf("invalid tmdbLanguage %q: %w", cfg.TMDBLanguage, err)
		}
	}

	cfg.TMDBWatchRegion = strings.ToUpper(strings.TrimSpace(cfg.TMDBWatchRegion))
	if _, err := language.ParseRegion(cfg.TMDBWatchRegion); err != nil {
		return fmt.Errorf("invalid tmdbWatchRegion %q: %w", cfg.TMDBWatchRegion, err)
	}

	regions := make([]string, 0, len(cfg.TMDBFallbackRegions))
	for _, region := range cfg.TMDBFallbackRegions {
		region = strings.ToUpper(strings.TrimSpace(region))
		if region == "" {
			continue
		}
		if _, err := language.ParseRegion(region); err != nil {
			return fmt.Errorf("invalid tmdbFallbackRegions entry %q: %w", region, err)
		}
		regions = append(regions, region)
	}
	cfg.TMDBFallbackRegions = regions

	if cfg.CacheTTLSeconds < 0 {
		return fmt.Errorf("cacheTtlSeconds must not be negative")
	}

	return platforms.Validate()
}

// CacheTTL returns the default response cache lifetime.
func (c *AppConfig) CacheTTL() time.Duration {
	return time.Duration(c.Config.CacheTTLSeconds) * time.Second
}

// HTTPTimeout returns the per-request timeout for upstream providers.
func (c *AppConfig) HTTPTimeout() time.Duration {
	if c.Config.HTTPTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Config.HTTPTimeoutSeconds) * time.Second
}

func (c *AppConfig) watchConfig() {
	c.viper.WatchConfig()
	c.viper.OnConfigChange(func(e fsnotify.Event) {
		log.Info().Msgf("Config file changed: %s", e.Name)

		if err := c.viper.Unmarshal(c.Config); err != nil {
			log.Error().Err(err).Msg("Failed to reload configuration")
			return
		}

		c.applyDynamicChanges()
	})
}

func (c *AppConfig) applyDynamicChanges() {
	c.Config.Version = c.version
	c.ApplyLogConfig()
	c.notifyListeners()
}

// RegisterReloadListener registers a callback that's invoked when the configuration file is reloaded.
func (c *AppConfig) RegisterReloadListener(fn func(*domain.Config)) {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *AppConfig) notifyListeners() {
	c.listenersMu.RLock()
	listeners := append([]func(*domain.Config){}, c.listeners...)
	c.listenersMu.RUnlock()

	if len(listeners) == 0 {
		return
	}

	copied := *c.Config
	for _, listener := range listeners {
		listener(&copied)
	}
}

func (c *AppConfig) writeDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		log.Debug().Msgf("Config file already exists at: %s", path)
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}
	log.Debug().Msgf("Created config directory: %s", dir)

	configTemplate := `# config.toml - Auto-generated on first run

# Hostname / IP
# Default: "localhost" (or "0.0.0.0" in containers)
host = "{{ .host }}"

# Port
# Default: 4000
port = {{ .port }}

# Base URL
# Set custom baseUrl eg /streamhub/ to serve the API in a subdirectory.
# Optional
#baseUrl = "/streamhub/"

# Log file path
# If not defined, logs to stdout
# Optional
#logPath = "log/streamhub.log"

# Log rotation
# Maximum log file size in megabytes before rotation
# Default: {{ .logMaxSize }}
#logMaxSize = {{ .logMaxSize }}

# Number of rotated log files to retain (0 keeps all)
# Default: {{ .logMaxBackups }}
#logMaxBackups = {{ .logMaxBackups }}

# Data directory (default: next to config file)
# Database file (streamhub.db) will be created inside this directory
#dataDir = "/var/db/streamhub"

# Log level
# Default: "INFO"
# Options: "ERROR", "DEBUG", "INFO", "WARN", "TRACE"
logLevel = "{{ .logLevel }}"

# TMDB catalog provider
# An API key is required for every catalog route. Routes answer 503 without one.
# Can also be set with STREAMHUB__TMDB_API_KEY or STREAMHUB__TMDB_API_KEY_FILE
#tmdbApiKey = ""

# Response language and watch region
# Default: "{{ .tmdbLanguage }}" / "{{ .tmdbWatchRegion }}"
#tmdbLanguage = "{{ .tmdbLanguage }}"
#tmdbWatchRegion = "{{ .tmdbWatchRegion }}"

# Regions tried in order when the watch region has no availability data
#tmdbFallbackRegions = ["US", "BR"]

# Count ad-supported offers as available
#tmdbIncludeAds = false

# Pages fetched per list for most-watched, and the item cap of that list
#tmdbCatalogPages = {{ .tmdbCatalogPages }}
#tmdbCatalogMaxItems = {{ .tmdbCatalogMaxItems }}

# Concurrent watch-provider lookups per enrichment window
#tmdbProviderConcurrency = {{ .tmdbProviderConcurrency }}

# Look up watch providers even for titles that already carry platform names
#tmdbEnrichFullProviders = false

# Upper bounds for the pages and page parameters of catalog routes
#tmdbMaxPages = 8
#tmdbMaxStartPage = 500

# Upstream request timeout in seconds
#httpTimeoutSeconds = 10

# Watchmode direct-link provider (optional)
# Without a key titles carry search deep links only.
#watchmodeApiKey = ""

# Response cache lifetime in seconds for routes without a fixed TTL
#cacheTtlSeconds = 300

# Per-client request limit for /api routes. 0 disables the limiter.
#rateLimitPerMinute = 0

# Prometheus Metrics
# Enable Prometheus metrics on separate port (no authentication required)
# Default: false
#metricsEnabled = false

# Metrics server host (bind address for metrics endpoint)
# Default: "127.0.0.1"
#metricsHost = "127.0.0.1"

# Metrics server port (separate from the API)
# Default: 9074
#metricsPort = 9074
`

	data := map[string]any{
		"host":                    c.viper.GetString("host"),
		"port":                    c.viper.GetInt("port"),
		"logLevel":                c.viper.GetString("logLevel"),
		"logMaxSize":              c.viper.GetInt("logMaxSize"),
		"logMaxBackups":           c.viper.GetInt("logMaxBackups"),
		"tmdbLanguage":            c.viper.GetString("tmdbLanguage"),
		"tmdbWatchRegion":         c.viper.GetString("tmdbWatchRegion"),
		"tmdbCatalogPages":        c.viper.GetInt("tmdbCatalogPages"),
		"tmdbCatalogMaxItems":     c.viper.GetInt("tmdbCatalogMaxItems"),
		"tmdbProviderConcurrency": c.viper.GetInt("tmdbProviderConcurrency"),
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse config template: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, data); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	log.Info().Msgf("Created default config file: %s", path)
	return nil
}

// GetDefaultConfigDir returns the OS-specific config directory
func GetDefaultConfigDir() string {
	// First check if XDG_CONFIG_HOME is set (Docker containers set this to /config)
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		if xdgConfig == "/config" {
			return xdgConfig
		}
		return filepath.Join(xdgConfig, "streamhub")
	}

	switch runtime.GOOS {
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "streamhub")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "AppData", "Roaming", "streamhub")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "streamhub")
	}
}

func detectContainer() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	if _, err := os.Stat("/dev/.lxc-boot-id"); err == nil {
		return true
	}
	if os.Getpid() == 1 {
		return true
	}
	return false
}

func (c *AppConfig) ApplyLogConfig() {
	zerolog.TimeFieldFormat = time.RFC3339

	setLogLevel(c.Config.LogLevel)

	writer := c.baseLogWriter()

	if c.Config.LogPath != "" {
		multiWriter, err := setupLogFile(c.Config.LogPath, writer, c.Config.LogMaxSize, c.Config.LogMaxBackups)
		if err != nil {
			log.Error().Err(err).Msg("Failed to setup log file")
		} else {
			writer = multiWriter
		}
	}

	log.Logger = log.Logger.Output(writer)
}

func setLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Logger.Level(lvl)
}

func setupLogFile(path string, base io.Writer, maxSize, maxBackups int) (io.Writer, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	if maxSize <= 0 {
		maxSize = 50
	}

	if maxBackups < 0 {
		maxBackups = 0
	}

	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
	}

	return io.MultiWriter(base, rotator), nil
}

func baseLogWriter(version string) io.Writer {
	if isDevBuild(version) {
		writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		writer.PartsOrder = []string{zerolog.TimestampFieldName, zerolog.LevelFieldName, zerolog.MessageFieldName}
		writer.FormatMessage = func(i any) string {
			if i == nil {
				return ""
			}
			return strings.TrimSpace(fmt.Sprint(i))
		}
		return writer
	}
	return os.Stderr
}

func (c *AppConfig) baseLogWriter() io.Writer {
	return baseLogWriter(c.version)
}

// InitDefaultLogger configures zerolog with the default writer for this version.
// This is used by CLI entry points before a configuration file is loaded.
func InitDefaultLogger(version string) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Logger.Output(baseLogWriter(version))
}

func isDevBuild(version string) bool {
	v := strings.ToLower(strings.TrimSpace(version))
	return v == "" || v == "dev" || strings.HasSuffix(v, "-dev")
}

// resolveConfigPath determines the actual config file path from the provided directory or file path
func (c *AppConfig) resolveConfigPath(configDirOrPath string) string {
	if strings.HasSuffix(strings.ToLower(configDirOrPath), ".toml") {
		return configDirOrPath
	}

	if info, err := os.Stat(configDirOrPath); err == nil && !info.IsDir() {
		return configDirOrPath
	}

	return filepath.Join(configDirOrPath, "config.toml")
}

func (c *AppConfig) resolveDataDir() {
	switch {
	case c.Config.DataDir != "":
		c.dataDir = c.Config.DataDir
	case c.dataDir != "":
	case c.viper.ConfigFileUsed() != "":
		c.dataDir = filepath.Dir(c.viper.ConfigFileUsed())
	default:
		c.dataDir = "."
	}
}

// GetDatabasePath returns the path to the database file
func (c *AppConfig) GetDatabasePath() string {
	return filepath.Join(c.dataDir, databaseFile)
}

func (c *AppConfig) GetDataDir() string {
	return c.dataDir
}

// SetDataDir sets the data directory (used by CLI flags)
func (c *AppConfig) SetDataDir(dir string) {
	c.dataDir = dir
}

func WriteDefaultConfig(path string) error {
	c := &AppConfig{
		viper: viper.New(),
	}

	c.defaults()

	return c.writeDefaultConfig(path)
}

// bindOrReadFromFile reads viperVar from the file named by envVar_FILE when set,
// otherwise binds envVar.
func (c *AppConfig) bindOrReadFromFile(viperVar string, envVar string) {
	envVarFile := envVar + "_FILE"
	if filePath := os.Getenv(envVarFile); filePath != "" {
		content, err := os.ReadFile(filePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", filePath).Msg("Could not read " + envVarFile)
		}
		c.viper.Set(viperVar, strings.TrimSpace(string(content)))
		return
	}
	c.viper.BindEnv(viperVar, envVar)
}
