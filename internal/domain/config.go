// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

// Config is the viper unmarshal target for config.toml and STREAMHUB__ env overrides.
type Config struct {
	Version       string
	Host          string `toml:"host" mapstructure:"host"`
	Port          int    `toml:"port" mapstructure:"port"`
	BaseURL       string `toml:"baseUrl" mapstructure:"baseUrl"`
	LogLevel      string `toml:"logLevel" mapstructure:"logLevel"`
	LogPath       string `toml:"logPath" mapstructure:"logPath"`
	LogMaxSize    int    `toml:"logMaxSize" mapstructure:"logMaxSize"`
	LogMaxBackups int    `toml:"logMaxBackups" mapstructure:"logMaxBackups"`
	DataDir       string `toml:"dataDir" mapstructure:"dataDir"`
	PprofEnabled  bool   `toml:"pprofEnabled" mapstructure:"pprofEnabled"`

	MetricsEnabled bool   `toml:"metricsEnabled" mapstructure:"metricsEnabled"`
	MetricsHost    string `toml:"metricsHost" mapstructure:"metricsHost"`
	MetricsPort    int    `toml:"metricsPort" mapstructure:"metricsPort"`

	// Catalog provider
	TMDBAPIKey              string   `toml:"tmdbApiKey" mapstructure:"tmdbApiKey"`
	TMDBBaseURL             string   `toml:"tmdbBaseUrl" mapstructure:"tmdbBaseUrl"`
	TMDBLanguage            string   `toml:"tmdbLanguage" mapstructure:"tmdbLanguage"`
	TMDBWatchRegion         string   `toml:"tmdbWatchRegion" mapstructure:"tmdbWatchRegion"`
	TMDBFallbackRegions     []string `toml:"tmdbFallbackRegions" mapstructure:"tmdbFallbackRegions"`
	TMDBIncludeAds          bool     `toml:"tmdbIncludeAds" mapstructure:"tmdbIncludeAds"`
	TMDBCatalogPages        int      `toml:"tmdbCatalogPages" mapstructure:"tmdbCatalogPages"`
	TMDBCatalogMaxItems     int      `toml:"tmdbCatalogMaxItems" mapstructure:"tmdbCatalogMaxItems"`
	TMDBProviderConcurrency int      `toml:"tmdbProviderConcurrency" mapstructure:"tmdbProviderConcurrency"`
	TMDBEnrichFullProviders bool     `toml:"tmdbEnrichFullProviders" mapstructure:"tmdbEnrichFullProviders"`
	TMDBMaxPages            int      `toml:"tmdbMaxPages" mapstructure:"tmdbMaxPages"`
	TMDBMaxStartPage        int      `toml:"tmdbMaxStartPage" mapstructure:"tmdbMaxStartPage"`
	HTTPTimeoutSeconds      int      `toml:"httpTimeoutSeconds" mapstructure:"httpTimeoutSeconds"`

	// Direct-link provider
	WatchmodeAPIKey  string `toml:"watchmodeApiKey" mapstructure:"watchmodeApiKey"`
	WatchmodeBaseURL string `toml:"watchmodeBaseUrl" mapstructure:"watchmodeBaseUrl"`

	CacheTTLSeconds    int `toml:"cacheTtlSeconds" mapstructure:"cacheTtlSeconds"`
	RateLimitPerMinute int `toml:"rateLimitPerMinute" mapstructure:"rateLimitPerMinute"`
}
