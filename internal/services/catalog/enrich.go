// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package catalog

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/streamhub/streamhub/internal/models"
	"github.com/streamhub/streamhub/internal/services/tmdb"
)

const DefaultEnrichConcurrency = 12

// Enrichment outcomes reported to the EnrichmentObserver.
const (
	EnrichOutcomeSkipped  = "skipped"
	EnrichOutcomeFound    = "found"
	EnrichOutcomeNoRegion = "no_region"
	EnrichOutcomeFailed   = "failed"
)

// ProviderSource looks up per-region watch availability for one title.
type ProviderSource interface {
	GetWatchProviders(ctx context.Context, mediaType models.MediaType, id int64) (*tmdb.WatchProviders, error)
}

type EnrichmentObserver interface {
	ObserveEnrichment(outcome string)
}

type EnrichOptions struct {
	Region          string
	FallbackRegions []string
	IncludeAds      bool
	// Full forces a lookup even for titles that already carry provider names.
	Full        bool
	Concurrency int
	Observer    EnrichmentObserver
}

// Availability is the outcome of one successful provider lookup.
type Availability struct {
	ProviderNames []string
	Link          *string
	Region        *string
}

// Enricher attaches watch-provider availability to titles. It never returns an error:
// failed lookups leave the title with empty provider data.
type Enricher struct {
	source      ProviderSource
	region      string
	regions     []string
	includeAds  bool
	full        bool
	concurrency int
	observer    EnrichmentObserver
	logger      zerolog.Logger
}

func NewEnricher(source ProviderSource, opts EnrichOptions) *Enricher {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultEnrichConcurrency
	}

	region := strings.ToUpper(strings.TrimSpace(opts.Region))

	return &Enricher{
		source:      source,
		region:      region,
		regions:     regionChain(region, opts.FallbackRegions),
		includeAds:  opts.IncludeAds,
		full:        opts.Full,
		concurrency: opts.Concurrency,
		observer:    opts.Observer,
		logger:      log.With().Str("module", "enrichment").Logger(),
	}
}

// Lookup fetches availability for one title. Callers that need the never-fail contract use Enrich.
func (e *Enricher) Lookup(ctx context.Context, mediaType models.MediaType, id int64) (Availability, error) {
	result, err := e.source.GetWatchProviders(ctx, mediaType, id)
	if err != nil {
		return Availability{}, errors.Wrapf(err, "watch providers for %s:%d", mediaType, id)
	}

	for _, code := range e.regions {
		region, ok := result.Results[code]
		if !ok {
			continue
		}

		entries := append([]tmdb.Provider(nil), region.Flatrate...)
		if e.includeAds {
			entries = append(entries, region.Ads...)
		}

		names := make([]string, 0, len(entries))
		seen := make(map[int]struct{}, len(entries))
		for _, entry := range entries {
			if _, dup := seen[entry.ProviderID]; dup {
				continue
			}
			seen[entry.ProviderID] = struct{}{}
			names = append(names, entry.ProviderName)
		}

		availability := Availability{ProviderNames: names, Region: stringPtr(code)}
		if region.Link != "" {
			availability.Link = stringPtr(region.Link)
		}
		return availability, nil
	}

	return Availability{ProviderNames: []string{}}, nil
}

// Enrich returns a copy of title with providerNames, providerLink and watchRegion set.
func (e *Enricher) Enrich(ctx context.Context, title models.Title) models.Title {
	out := title.Clone()

	if len(title.ProviderNames) > 0 && !e.full {
		if e.region != "" {
			out.WatchRegion = stringPtr(e.region)
		}
		e.observe(EnrichOutcomeSkipped)
		return out
	}

	availability, err := e.Lookup(ctx, title.MediaType, title.ID)
	if err != nil {
		e.logger.Debug().Err(err).Int64("id", title.ID).Str("media_type", title.MediaType.String()).Msg("provider lookup failed, continuing without providers")
		e.observe(EnrichOutcomeFailed)
		out.ProviderNames = []string{}
		out.ProviderLink = nil
		out.WatchRegion = nil
		return out
	}

	if availability.Region == nil {
		e.observe(EnrichOutcomeNoRegion)
	} else {
		e.observe(EnrichOutcomeFound)
	}

	out.ProviderNames = availability.ProviderNames
	out.ProviderLink = availability.Link
	out.WatchRegion = availability.Region
	return out
}

// EnrichAll enriches titles in consecutive windows of the configured concurrency.
// Lookups inside a window run concurrently; output order matches input order.
func (e *Enricher) EnrichAll(ctx context.Context, titles []models.Title) []models.Title {
	out := make([]models.Title, len(titles))

	for start := 0; start < len(titles); start += e.concurrency {
		end := min(start+e.concurrency, len(titles))

		p := pool.New().WithMaxGoroutines(end - start)
		for i := start; i < end; i++ {
			p.Go(func() {
				out[i] = e.Enrich(ctx, titles[i])
			})
		}
		p.Wait()
	}

	return out
}

func (e *Enricher) observe(outcome string) {
	if e.observer != nil {
		e.observer.ObserveEnrichment(outcome)
	}
}

// regionChain returns the configured region followed by fallbacks, upper-cased and without duplicates.
func regionChain(primary string, fallbacks []string) []string {
	chain := make([]string, 0, len(fallbacks)+1)
	seen := make(map[string]struct{}, len(fallbacks)+1)
	for _, code := range append([]string{primary}, fallbacks...) {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		chain = append(chain, code)
	}
	return chain
}

func stringPtr(s string) *string {
	return &s
}
