// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/streamhub/streamhub/internal/database"
	"github.com/streamhub/streamhub/internal/models"
	"github.com/streamhub/streamhub/internal/services/catalog"
	"github.com/streamhub/streamhub/internal/services/platforms"
	"github.com/streamhub/streamhub/internal/services/recommend"
)

// CatalogService is the read side of the catalog the handlers need.
type CatalogService interface {
	Trending(ctx context.Context) ([]models.Title, error)
	MostWatched(ctx context.Context) ([]models.Title, error)
	ByPlatform(ctx context.Context, name string, query catalog.CatalogQuery) (*catalog.PlatformCatalog, error)
	NewReleases(ctx context.Context, names []string, query catalog.CatalogQuery) ([]models.Title, catalog.CatalogQuery, error)
	Search(ctx context.Context, query string) ([]models.Title, error)
	Title(ctx context.Context, id int64, hint models.MediaType) (*models.Title, error)
}

type CatalogHandler struct {
	service     CatalogService
	history     *models.SearchHistoryStore
	preferences *models.PreferencesStore
	logger      zerolog.Logger
}

func NewCatalogHandler(service CatalogService, history *models.SearchHistoryStore, preferences *models.PreferencesStore) *CatalogHandler {
	return &CatalogHandler{
		service:     service,
		history:     history,
		preferences: preferences,
		logger:      log.With().Str("module", "catalog-handler").Logger(),
	}
}

type catalogMeta struct {
	Platform string `json:"platform"`
	Page     int    `json:"page"`
	Pages    int    `json:"pages"`
	Limit    int    `json:"limit"`
	Sort     string `json:"sort"`
}

type newReleasesMeta struct {
	Platforms []string `json:"platforms"`
	Page      int      `json:"page"`
	Pages     int      `json:"pages"`
	Limit     int      `json:"limit"`
}

type recommendationsMeta struct {
	FavoriteGenre string `json:"favoriteGenre"`
}

func (h *CatalogHandler) Platforms(w http.ResponseWriter, r *http.Request) {
	RespondData(w, platforms.Catalog())
}

func (h *CatalogHandler) Trending(w http.ResponseWriter, r *http.Request) {
	titles, err := h.service.Trending(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to load trending titles")
		return
	}
	RespondData(w, titles)
}

func (h *CatalogHandler) MostWatched(w http.ResponseWriter, r *http.Request) {
	titles, err := h.service.MostWatched(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to load most watched titles")
		return
	}
	RespondData(w, titles)
}

func (h *CatalogHandler) ByPlatform(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		RespondError(w, http.StatusBadRequest, "Query parameter name with the platform is required")
		return
	}

	query := parseCatalogQuery(r)

	result, err := h.service.ByPlatform(r.Context(), name, query)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to load platform catalog")
		return
	}

	RespondJSON(w, http.StatusOK, DataResponse{
		Data: result.Titles,
		Meta: catalogMeta{
			Platform: result.Platform,
			Page:     result.Query.Page,
			Pages:    result.Query.Pages,
			Limit:    result.Query.Limit,
			Sort:     catalog.SortPopularity,
		},
	})
}

func (h *CatalogHandler) NewReleases(w http.ResponseWriter, r *http.Request) {
	query := parseCatalogQuery(r)

	var names []string
	for _, value := range r.URL.Query()["platforms"] {
		names = append(names, strings.Split(value, ",")...)
	}
	names = platforms.NormalizeAll(names)

	titles, used, err := h.service.NewReleases(r.Context(), names, query)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to load new releases")
		return
	}

	if len(names) == 0 {
		for _, platform := range platforms.Catalog() {
			names = append(names, platform.Name)
		}
	}

	RespondJSON(w, http.StatusOK, DataResponse{
		Data: titles,
		Meta: newReleasesMeta{Platforms: names, Page: used.Page, Pages: used.Pages, Limit: used.Limit},
	})
}

// Search records the query in the search history once results are fetched.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		RespondError(w, http.StatusBadRequest, "Query parameter q is required")
		return
	}

	titles, err := h.service.Search(r.Context(), query)
	if err != nil {
		respondServiceError(w, h.logger, err, "search failed")
		return
	}

	if h.history != nil {
		if err := h.history.Add(r.Context(), database.DefaultUserID, query); err != nil {
			h.logger.Error().Err(err).Str("query", query).Msg("failed to record search history")
			RespondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
	}

	RespondData(w, titles)
}

func (h *CatalogHandler) Title(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		RespondError(w, http.StatusBadRequest, "Title id must be a positive integer")
		return
	}

	// Unrecognized media types are ignored and both kinds are tried.
	hint, _ := models.ParseMediaType(r.URL.Query().Get("mediaType"))

	title, err := h.service.Title(r.Context(), id, hint)
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to load title")
		return
	}

	RespondData(w, title)
}

func (h *CatalogHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.preferences.GetByUserID(r.Context(), database.DefaultUserID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load preferences")
		RespondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	titles, err := h.service.Trending(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "failed to load recommendation candidates")
		return
	}

	recommended := recommend.Recommend(titles, prefs.FavoriteGenre, platforms.NormalizeAll(prefs.SelectedPlatforms))

	RespondJSON(w, http.StatusOK, DataResponse{
		Data: recommended,
		Meta: recommendationsMeta{FavoriteGenre: prefs.FavoriteGenre},
	})
}

// parseCatalogQuery reads page, pages and limit. Missing or non-numeric values stay zero
// so the service applies its defaults.
func parseCatalogQuery(r *http.Request) catalog.CatalogQuery {
	var query catalog.CatalogQuery
	for _, field := range []struct {
		name   string
		target *int
	}{
		{"page", &query.Page},
		{"pages", &query.Pages},
		{"limit", &query.Limit},
	} {
		raw := strings.TrimSpace(r.URL.Query().Get(field.name))
		if raw == "" {
			continue
		}
		if value, err := strconv.Atoi(raw); err == nil {
			*field.target = value
		}
	}
	return query
}
