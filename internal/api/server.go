// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/CAFxX/httpcompression"
	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/streamhub/streamhub/internal/api/handlers"
	"github.com/streamhub/streamhub/internal/api/middleware"
	"github.com/streamhub/streamhub/internal/cache"
	"github.com/streamhub/streamhub/internal/config"
	"github.com/streamhub/streamhub/internal/models"
)

// Fixed cache lifetimes of the heavier aggregate routes.
const (
	mostWatchedTTL = 180 * time.Second
	catalogTTL     = 300 * time.Second
	newReleasesTTL = 300 * time.Second
	searchTTL      = 120 * time.Second
)

type Server struct {
	server  *http.Server
	logger  zerolog.Logger
	config  *config.AppConfig
	version string

	db                 handlers.Pinger
	catalogService     handlers.CatalogService
	preferencesStore   *models.PreferencesStore
	searchHistoryStore *models.SearchHistoryStore
	responseCache      *cache.ResponseCache
	rateLimiter        *middleware.IPRateLimiter
}

type Dependencies struct {
	Config             *config.AppConfig
	Version            string
	DB                 handlers.Pinger
	CatalogService     handlers.CatalogService
	PreferencesStore   *models.PreferencesStore
	SearchHistoryStore *models.SearchHistoryStore
	ResponseCache      *cache.ResponseCache
	RateLimiter        *middleware.IPRateLimiter
}

func NewServer(deps *Dependencies) *Server {
	s := Server{
		server: &http.Server{
			ReadHeaderTimeout: time.Second * 15,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      120 * time.Second,
			IdleTimeout:       180 * time.Second,
		},
		logger:             log.Logger.With().Str("module", "api").Logger(),
		config:             deps.Config,
		version:            deps.Version,
		db:                 deps.DB,
		catalogService:     deps.CatalogService,
		preferencesStore:   deps.PreferencesStore,
		searchHistoryStore: deps.SearchHistoryStore,
		responseCache:      deps.ResponseCache,
		rateLimiter:        deps.RateLimiter,
	}

	return &s
}

func (s *Server) ListenAndServe() error {
	return s.open(nil)
}

// ListenAndServeReady behaves like ListenAndServe but signals once the listener is active.
func (s *Server) ListenAndServeReady(ready chan<- struct{}) error {
	return s.open(ready)
}

func (s *Server) open(ready chan<- struct{}) error {
	addr := fmt.Sprintf("%s:%d", s.config.Config.Host, s.config.Config.Port)

	var lastErr error
	for _, proto := range []string{"tcp", "tcp4", "tcp6"} {
		err := s.tryToServe(addr, proto, ready)
		if err == nil {
			return nil
		}

		if errors.Is(err, http.ErrServerClosed) {
			return err
		}

		s.logger.Error().Err(err).Str("addr", addr).Str("proto", proto).Msgf("Failed to start server")
		lastErr = err
	}

	return lastErr
}

func (s *Server) tryToServe(addr, protocol string, ready chan<- struct{}) error {
	listener, err := net.Listen(protocol, addr)
	if err != nil {
		return err
	}

	host := listener.Addr().String()
	// Replace 0.0.0.0 or :: with localhost for clickable links
	if strings.HasPrefix(host, "0.0.0.0:") || strings.HasPrefix(host, "[::]:") {
		host = strings.Replace(host, "0.0.0.0:", "localhost:", 1)
		host = strings.Replace(host, "[::]:", "localhost:", 1)
	}
	clickableURL := fmt.Sprintf("http://%s%sapi", host, s.baseURL())

	s.logger.Info().
		Str("protocol", protocol).
		Str("addr", listener.Addr().String()).
		Str("base_url", s.config.Config.BaseURL).
		Msgf("Starting API server - Open: %s", clickableURL)

	handler, err := s.Handler()
	if err != nil {
		listener.Close()
		return fmt.Errorf("build API router: %w", err)
	}

	s.server.Handler = handler

	if ready != nil {
		select {
		case ready <- struct{}{}:
		default:
		}
	}

	return s.server.Serve(listener)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) baseURL() string {
	baseURL := s.config.Config.BaseURL
	if baseURL == "" {
		return "/"
	}
	return baseURL
}

// cached wraps a route with the response cache, or returns it untouched when caching is off.
func (s *Server) cached(ttl time.Duration) func(http.Handler) http.Handler {
	if s.responseCache == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.Cache(s.responseCache, ttl)
}

// invalidateRecommendations drops cached recommendation responses after a preference change.
func (s *Server) invalidateRecommendations() {
	if s.responseCache == nil {
		return
	}
	prefix := s.baseURL() + "api/recommendations"
	if n := s.responseCache.InvalidatePrefix(prefix); n > 0 {
		s.logger.Debug().Int("entries", n).Msg("invalidated cached recommendations")
	}
}

func (s *Server) Handler() (*chi.Mux, error) {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID) // Must be before logger to capture request ID
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	// HTTP compression - handles gzip, brotli, zstd, deflate automatically
	compressor, err := httpcompression.DefaultAdapter(
		httpcompression.MinSize(1024),
		httpcompression.GzipCompressionLevel(2),
		httpcompression.Prefer(httpcompression.PreferServer),
	)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create HTTP compression adapter")
	} else {
		r.Use(compressor)
	}

	corsMiddleware := cors.New(cors.Options{
		AllowedMethods:  []string{"HEAD", "OPTIONS", "GET", "PUT"},
		AllowedHeaders:  []string{"Accept", "Content-Type", "If-None-Match", middleware.RequestIDHeader},
		ExposedHeaders:  []string{middleware.CacheHeader, "ETag", middleware.RequestIDHeader},
		AllowOriginFunc: func(origin string) bool { return true },
		MaxAge:          300,
		Debug:           false,
	})
	r.Use(corsMiddleware.Handler)

	openAPI, err := OpenAPISpec(s.baseURL())
	if err != nil {
		return nil, err
	}

	// Create handlers
	healthHandler := handlers.NewHealthHandler(s.db)
	catalogHandler := handlers.NewCatalogHandler(s.catalogService, s.searchHistoryStore, s.preferencesStore)
	preferencesHandler := handlers.NewPreferencesHandler(s.preferencesStore, s.searchHistoryStore, s.invalidateRecommendations)

	// Zero falls back to the cache default.
	ttl := s.config.CacheTTL()

	// API routes
	apiRouter := chi.NewRouter()
	apiRouter.NotFound(notFound)
	apiRouter.MethodNotAllowed(methodNotAllowed)

	apiRouter.Group(func(r chi.Router) {
		r.Use(middleware.Logger(s.logger))

		if s.rateLimiter != nil {
			r.Use(middleware.RateLimit(s.rateLimiter))
		}

		r.Get("/health", healthHandler.HandleHealth)
		r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/yaml")
			w.Write(openAPI)
		})

		r.With(s.cached(ttl)).Get("/platforms", catalogHandler.Platforms)
		r.With(s.cached(ttl)).Get("/trending", catalogHandler.Trending)
		r.With(s.cached(mostWatchedTTL)).Get("/most-watched", catalogHandler.MostWatched)
		r.With(s.cached(ttl)).Get("/title/{id}", catalogHandler.Title)
		r.With(s.cached(ttl)).Get("/recommendations", catalogHandler.Recommendations)
		r.With(s.cached(searchTTL)).Get("/search", catalogHandler.Search)

		r.Route("/catalog", func(r chi.Router) {
			r.With(s.cached(catalogTTL)).Get("/platform", catalogHandler.ByPlatform)
			r.With(s.cached(newReleasesTTL)).Get("/new-releases", catalogHandler.NewReleases)
		})

		r.Route("/user", func(r chi.Router) {
			r.Get("/preferences", preferencesHandler.Get)
			r.Put("/preferences", preferencesHandler.Update)
			r.Get("/search-history", preferencesHandler.SearchHistory)
		})
	})

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/healthz/readiness", healthHandler.HandleReady)
	r.Get("/healthz/liveness", healthHandler.HandleLiveness)

	r.Mount(s.baseURL()+"api", apiRouter)

	return r, nil
}

func notFound(w http.ResponseWriter, r *http.Request) {
	handlers.RespondError(w, http.StatusNotFound, "Route not found")
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	handlers.RespondError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
