// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package catalog

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/streamhub/streamhub/internal/domain"
	"github.com/streamhub/streamhub/internal/models"
	"github.com/streamhub/streamhub/internal/services/platforms"
	"github.com/streamhub/streamhub/internal/services/tmdb"
)

const (
	trendingLimit = 20

	DefaultCatalogPages    = 5
	DefaultCatalogMaxItems = 420

	DefaultPlatformPages = 2
	DefaultPlatformLimit = 240
	MinPlatformLimit     = 20

	monetizationSubscription = "flatrate"
)

// Client is the catalog provider surface the service depends on.
type Client interface {
	PageSource
	ProviderSource
	GetDetails(ctx context.Context, mediaType models.MediaType, id int64) (*tmdb.Record, error)
	IsConfigured() bool
}

// DirectLinkResolver finds direct watch links for one title. Implementations swallow
// their own failures and return an empty set.
type DirectLinkResolver interface {
	Resolve(ctx context.Context, id int64, mediaType models.MediaType, allowed []string) *models.DirectLinkSet
}

type Options struct {
	WatchRegion     string
	CatalogPages    int
	CatalogMaxItems int
	MaxPages        int
	MaxStartPage    int
}

// Service runs the composite catalog queries and returns enriched, platform-mapped titles.
type Service struct {
	client      Client
	fetcher     *Fetcher
	enricher    *Enricher
	directLinks DirectLinkResolver
	opts        Options
	now         func() time.Time
	logger      zerolog.Logger
}

func NewService(client Client, enricher *Enricher, directLinks DirectLinkResolver, opts Options) *Service {
	if opts.CatalogPages <= 0 {
		opts.CatalogPages = DefaultCatalogPages
	}
	if opts.CatalogMaxItems <= 0 {
		opts.CatalogMaxItems = DefaultCatalogMaxItems
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	if opts.MaxStartPage <= 0 {
		opts.MaxStartPage = DefaultMaxStartPage
	}
	opts.WatchRegion = strings.ToUpper(strings.TrimSpace(opts.WatchRegion))

	return &Service{
		client:      client,
		fetcher:     NewFetcher(client, opts.MaxPages, opts.MaxStartPage),
		enricher:    enricher,
		directLinks: directLinks,
		opts:        opts,
		now:         time.Now,
		logger:      log.With().Str("module", "catalog").Logger(),
	}
}

// SortPopularity is the discover ordering of per-platform listings.
const SortPopularity = "popularity.desc"

// CatalogQuery carries the clamped paging inputs of a per-platform listing.
type CatalogQuery struct {
	Page  int
	Pages int
	Limit int
}

// PlatformCatalog is a per-platform listing together with the paging values actually used.
type PlatformCatalog struct {
	Platform string
	Query    CatalogQuery
	Titles   []models.Title
}

// Trending returns the first page of today's trending movies and series.
func (s *Service) Trending(ctx context.Context) ([]models.Title, error) {
	titles, err := s.fetcher.Fetch(ctx, Endpoint{Path: "/trending/all/day", Filter: IsTitleRecord}, 1, 1)
	if err != nil {
		return nil, err
	}
	return s.finish(ctx, truncate(titles, trendingLimit)), nil
}

// MostWatched aggregates trending, popular, top rated and per-platform discover lists,
// keeping the first occurrence of every title.
func (s *Service) MostWatched(ctx context.Context) ([]models.Title, error) {
	endpoints := []Endpoint{
		{Path: "/trending/all/day", Filter: IsTitleRecord},
		{Path: "/trending/all/week", Filter: IsTitleRecord},
		{Path: "/movie/popular", MediaType: models.MediaTypeMovie},
		{Path: "/tv/popular", MediaType: models.MediaTypeTV},
		{Path: "/movie/top_rated", MediaType: models.MediaTypeMovie},
		{Path: "/tv/top_rated", MediaType: models.MediaTypeTV},
	}
	for _, platform := range platforms.Catalog() {
		endpoints = append(endpoints, s.discoverEndpoints(platform.Name, false)...)
	}

	titles, err := s.fetchAll(ctx, endpoints, s.opts.CatalogPages, 1)
	if err != nil {
		return nil, err
	}

	return s.finish(ctx, truncate(Dedupe(titles), s.opts.CatalogMaxItems)), nil
}

// ByPlatform lists subscription titles of one platform, most popular first.
func (s *Service) ByPlatform(ctx context.Context, name string, query CatalogQuery) (*PlatformCatalog, error) {
	catalog, err := s.platformCatalog(ctx, name, query, false)
	if err != nil {
		return nil, err
	}
	catalog.Titles = s.finish(ctx, catalog.Titles)
	return catalog, nil
}

// NewReleases merges the newest subscription titles of several platforms. A title offered
// by more than one platform appears once with all platform names.
func (s *Service) NewReleases(ctx context.Context, names []string, query CatalogQuery) ([]models.Title, CatalogQuery, error) {
	if len(names) == 0 {
		for _, platform := range platforms.Catalog() {
			names = append(names, platform.Name)
		}
	}
	names = platforms.NormalizeAll(names)
	query = s.clampQuery(query)

	results := make([][]models.Title, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			catalog, err := s.platformCatalog(gctx, name, query, true)
			if err != nil {
				return err
			}
			results[i] = catalog.Titles
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, query, err
	}

	var flat []models.Title
	for _, titles := range results {
		flat = append(flat, titles...)
	}

	merged := MergeProviders(flat)
	SortByReleaseDate(merged)

	return s.finish(ctx, truncate(merged, query.Limit)), query, nil
}

// Search queries the multi, movie and series search endpoints concurrently.
func (s *Service) Search(ctx context.Context, query string) ([]models.Title, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.NewValidationError("q", "query parameter q is required")
	}

	params := url.Values{"query": {query}, "include_adult": {"false"}}
	endpoints := []Endpoint{
		{Path: "/search/multi", Params: params, Filter: IsTitleRecord},
		{Path: "/search/movie", Params: params, MediaType: models.MediaTypeMovie},
		{Path: "/search/tv", Params: params, MediaType: models.MediaTypeTV},
	}

	titles, err := s.fetchAll(ctx, endpoints, 1, 1)
	if err != nil {
		return nil, err
	}

	return s.finish(ctx, Dedupe(titles)), nil
}

// Title returns one title with full enrichment and direct links. Without a media type
// hint both kinds are fetched and a movie wins over a series with the same id.
func (s *Service) Title(ctx context.Context, id int64, hint models.MediaType) (*models.Title, error) {
	if id <= 0 {
		return nil, domain.NewValidationError("id", "title id must be a positive integer")
	}

	title, err := s.lookupTitle(ctx, id, hint)
	if err != nil {
		return nil, err
	}

	enriched := s.enricher.Enrich(ctx, *title)

	var direct *models.DirectLinkSet
	if s.directLinks != nil {
		direct = s.directLinks.Resolve(ctx, enriched.ID, enriched.MediaType, enriched.ProviderNames)
	}

	mapped := platforms.MapTitle(enriched, direct)
	return &mapped, nil
}

func (s *Service) lookupTitle(ctx context.Context, id int64, hint models.MediaType) (*models.Title, error) {
	kinds := []models.MediaType{models.MediaTypeMovie, models.MediaTypeTV}
	if hint != "" {
		kinds = []models.MediaType{hint}
	}

	records := make([]*tmdb.Record, len(kinds))
	errs := make([]error, len(kinds))

	var g errgroup.Group
	for i, kind := range kinds {
		g.Go(func() error {
			records[i], errs[i] = s.client.GetDetails(ctx, kind, id)
			return nil
		})
	}
	g.Wait()

	for i, record := range records {
		if errs[i] == nil && record != nil {
			title := NormalizeRecord(*record, kinds[i])
			return &title, nil
		}
	}

	for _, err := range errs {
		if err != nil && !domain.IsUpstreamNotFound(err) {
			return nil, errors.Wrapf(err, "fetch title %d", id)
		}
	}

	return nil, domain.NewNotFoundError("title %d not found", id)
}

func (s *Service) platformCatalog(ctx context.Context, name string, query CatalogQuery, newReleases bool) (*PlatformCatalog, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.NewValidationError("name", "platform name is required")
	}

	platform := platforms.Normalize(name)
	if len(platforms.ProviderIDs(platform)) == 0 {
		if suggestions := platforms.Suggest(name); len(suggestions) > 0 {
			return nil, domain.NewNotFoundError("platform %q is not supported for catalog listing, did you mean %q?", platform, suggestions[0])
		}
		return nil, domain.NewNotFoundError("platform %q is not supported for catalog listing", platform)
	}

	query = s.clampQuery(query)

	titles, err := s.fetchAll(ctx, s.discoverEndpoints(platform, newReleases), query.Pages, query.Page)
	if err != nil {
		return nil, err
	}

	titles = Dedupe(titles)
	if newReleases {
		SortByReleaseDate(titles)
	} else {
		SortByPopularity(titles)
	}

	return &PlatformCatalog{
		Platform: platform,
		Query:    query,
		Titles:   truncate(titles, query.Limit),
	}, nil
}

// discoverEndpoints builds the movie and series discover queries for one platform.
func (s *Service) discoverEndpoints(platform string, newReleases bool) []Endpoint {
	ids := platforms.ProviderIDs(platform)
	providerFilter := make([]string, 0, len(ids))
	for _, id := range ids {
		providerFilter = append(providerFilter, strconv.Itoa(id))
	}

	base := url.Values{
		"with_watch_providers":          {strings.Join(providerFilter, "|")},
		"with_watch_monetization_types": {monetizationSubscription},
		"include_adult":                 {"false"},
	}
	if s.opts.WatchRegion != "" {
		base.Set("watch_region", s.opts.WatchRegion)
	}

	movie := cloneValues(base)
	tv := cloneValues(base)
	if newReleases {
		today := s.now().Format(time.DateOnly)
		movie.Set("sort_by", "primary_release_date.desc")
		movie.Set("primary_release_date.lte", today)
		tv.Set("sort_by", "first_air_date.desc")
		tv.Set("first_air_date.lte", today)
	} else {
		movie.Set("sort_by", SortPopularity)
		tv.Set("sort_by", SortPopularity)
	}

	return []Endpoint{
		{Path: "/discover/movie", MediaType: models.MediaTypeMovie, Params: movie, ProviderNames: []string{platform}},
		{Path: "/discover/tv", MediaType: models.MediaTypeTV, Params: tv, ProviderNames: []string{platform}},
	}
}

// fetchAll runs every endpoint concurrently and concatenates results in endpoint order.
// The first failure aborts the whole call.
func (s *Service) fetchAll(ctx context.Context, endpoints []Endpoint, pages, startPage int) ([]models.Title, error) {
	results := make([][]models.Title, len(endpoints))

	g, gctx := errgroup.WithContext(ctx)
	for i, endpoint := range endpoints {
		g.Go(func() error {
			titles, err := s.fetcher.Fetch(gctx, endpoint, pages, startPage)
			if err != nil {
				return err
			}
			results[i] = titles
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.Debug().Err(err).Int("endpoints", len(endpoints)).Msg("catalog aggregate failed")
		return nil, err
	}

	var out []models.Title
	for _, titles := range results {
		out = append(out, titles...)
	}
	return out, nil
}

func (s *Service) clampQuery(query CatalogQuery) CatalogQuery {
	if query.Page == 0 {
		query.Page = 1
	}
	if query.Pages == 0 {
		query.Pages = DefaultPlatformPages
	}
	if query.Limit == 0 {
		query.Limit = DefaultPlatformLimit
	}

	return CatalogQuery{
		Page:  clamp(query.Page, 1, s.opts.MaxStartPage),
		Pages: clamp(query.Pages, 1, s.opts.MaxPages),
		Limit: clamp(query.Limit, MinPlatformLimit, max(s.opts.CatalogMaxItems, MinPlatformLimit)),
	}
}

// finish enriches and maps titles for presentation.
func (s *Service) finish(ctx context.Context, titles []models.Title) []models.Title {
	return platforms.MapTitles(s.enricher.EnrichAll(ctx, titles))
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for key, values := range v {
		out[key] = append([]string(nil), values...)
	}
	return out
}
