// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamhub/streamhub/internal/models"
	"github.com/streamhub/streamhub/internal/services/tmdb"
)

type countingObserver struct {
	mu       sync.Mutex
	outcomes map[string]int
}

func (o *countingObserver) ObserveEnrichment(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.outcomes == nil {
		o.outcomes = make(map[string]int)
	}
	o.outcomes[outcome]++
}

func TestEnricher_ShortCircuitsKnownProviders(t *testing.T) {
	client := newFakeClient()
	observer := &countingObserver{}
	enricher := NewEnricher(client, EnrichOptions{Region: "br", Observer: observer})

	title := models.Title{ID: 1, MediaType: models.MediaTypeMovie, ProviderNames: []string{"Netflix"}}
	out := enricher.Enrich(context.Background(), title)

	assert.Equal(t, 0, client.providerCalls)
	assert.Equal(t, []string{"Netflix"}, out.ProviderNames)
	require.NotNil(t, out.WatchRegion)
	assert.Equal(t, "BR", *out.WatchRegion)
	assert.Nil(t, out.ProviderLink)
	assert.Equal(t, 1, observer.outcomes[EnrichOutcomeSkipped])
}

func TestEnricher_FullModeAlwaysLooksUp(t *testing.T) {
	client := newFakeClient()
	client.providers[models.IdentityKey{MediaType: models.MediaTypeMovie, ID: 1}] = &tmdb.WatchProviders{
		Results: map[string]tmdb.RegionProviders{"BR": region("https://tmdb/1", "Disney Plus")},
	}
	enricher := NewEnricher(client, EnrichOptions{Region: "BR", Full: true})

	out := enricher.Enrich(context.Background(), models.Title{ID: 1, MediaType: models.MediaTypeMovie, ProviderNames: []string{"Netflix"}})

	assert.Equal(t, 1, client.providerCalls)
	assert.Equal(t, []string{"Disney Plus"}, out.ProviderNames)
}

func TestEnricher_RegionFallbackChain(t *testing.T) {
	tests := []struct {
		name       string
		results    map[string]tmdb.RegionProviders
		wantRegion *string
		wantNames  []string
	}{
		{
			name:       "configured region present",
			results:    map[string]tmdb.RegionProviders{"BR": region("https://br", "Netflix"), "US": region("https://us", "Max")},
			wantRegion: stringPtr("BR"),
			wantNames:  []string{"Netflix"},
		},
		{
			name:       "first fallback",
			results:    map[string]tmdb.RegionProviders{"US": region("https://us", "Max"), "GB": region("https://gb", "Apple TV Plus")},
			wantRegion: stringPtr("US"),
			wantNames:  []string{"Max"},
		},
		{
			name:       "second fallback",
			results:    map[string]tmdb.RegionProviders{"GB": region("https://gb", "Apple TV Plus")},
			wantRegion: stringPtr("GB"),
			wantNames:  []string{"Apple TV Plus"},
		},
		{
			name:      "no region available",
			results:   map[string]tmdb.RegionProviders{"DE": region("https://de", "Netflix")},
			wantNames: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeClient()
			client.providers[models.IdentityKey{MediaType: models.MediaTypeTV, ID: 5}] = &tmdb.WatchProviders{Results: tt.results}
			enricher := NewEnricher(client, EnrichOptions{Region: "BR", FallbackRegions: []string{"US", "GB"}})

			out := enricher.Enrich(context.Background(), models.Title{ID: 5, MediaType: models.MediaTypeTV})

			assert.Equal(t, tt.wantRegion, out.WatchRegion)
			assert.Equal(t, tt.wantNames, out.ProviderNames)
		})
	}
}

func TestEnricher_UniqueSubscriptionAndOptionalAds(t *testing.T) {
	providers := &tmdb.WatchProviders{Results: map[string]tmdb.RegionProviders{
		"BR": {
			Link: "https://www.themoviedb.org/movie/9/watch?locale=BR",
			Flatrate: []tmdb.Provider{
				{ProviderID: 8, ProviderName: "Netflix"},
				{ProviderID: 8, ProviderName: "Netflix"},
				{ProviderID: 337, ProviderName: "Disney Plus"},
			},
			Ads: []tmdb.Provider{
				{ProviderID: 1796, ProviderName: "Netflix Standard with Ads"},
				{ProviderID: 8, ProviderName: "Netflix"},
			},
			Rent: []tmdb.Provider{{ProviderID: 2, ProviderName: "Apple TV"}},
		},
	}}

	t.Run("subscription only", func(t *testing.T) {
		client := newFakeClient()
		client.providers[models.IdentityKey{MediaType: models.MediaTypeMovie, ID: 9}] = providers
		enricher := NewEnricher(client, EnrichOptions{Region: "BR"})

		out := enricher.Enrich(context.Background(), models.Title{ID: 9, MediaType: models.MediaTypeMovie})

		assert.Equal(t, []string{"Netflix", "Disney Plus"}, out.ProviderNames)
		require.NotNil(t, out.ProviderLink)
		assert.Equal(t, "https://www.themoviedb.org/movie/9/watch?locale=BR", *out.ProviderLink)
	})

	t.Run("with ads", func(t *testing.T) {
		client := newFakeClient()
		client.providers[models.IdentityKey{MediaType: models.MediaTypeMovie, ID: 9}] = providers
		enricher := NewEnricher(client, EnrichOptions{Region: "BR", IncludeAds: true})

		out := enricher.Enrich(context.Background(), models.Title{ID: 9, MediaType: models.MediaTypeMovie})

		assert.Equal(t, []string{"Netflix", "Disney Plus", "Netflix Standard with Ads"}, out.ProviderNames)
	})
}

func TestEnricher_LookupFailureYieldsEmptyData(t *testing.T) {
	client := newFakeClient()
	observer := &countingObserver{}
	enricher := NewEnricher(client, EnrichOptions{Region: "BR", Observer: observer})

	out := enricher.Enrich(context.Background(), models.Title{ID: 404, MediaType: models.MediaTypeMovie, Title: "Lost"})

	assert.Equal(t, "Lost", out.Title)
	assert.NotNil(t, out.ProviderNames)
	assert.Empty(t, out.ProviderNames)
	assert.Nil(t, out.ProviderLink)
	assert.Nil(t, out.WatchRegion)
	assert.Equal(t, 1, observer.outcomes[EnrichOutcomeFailed])
}

// slowSource records the peak number of concurrent lookups.
type slowSource struct {
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (s *slowSource) GetWatchProviders(_ context.Context, _ models.MediaType, id int64) (*tmdb.WatchProviders, error) {
	current := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		peak := s.peak.Load()
		if current <= peak || s.peak.CompareAndSwap(peak, current) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return &tmdb.WatchProviders{ID: id, Results: map[string]tmdb.RegionProviders{"BR": region("", "Netflix")}}, nil
}

func TestEnricher_EnrichAllWindowsPreserveOrder(t *testing.T) {
	source := &slowSource{}
	enricher := NewEnricher(source, EnrichOptions{Region: "BR", Concurrency: 3})

	titles := make([]models.Title, 10)
	for i := range titles {
		titles[i] = models.Title{ID: int64(i + 1), MediaType: models.MediaTypeMovie}
	}
	// One title in the middle short-circuits.
	titles[4].ProviderNames = []string{"Max"}

	out := enricher.EnrichAll(context.Background(), titles)

	require.Len(t, out, len(titles))
	for i, title := range out {
		assert.Equal(t, int64(i+1), title.ID)
	}
	assert.Equal(t, []string{"Max"}, out[4].ProviderNames)
	assert.Equal(t, []string{"Netflix"}, out[0].ProviderNames)
	assert.LessOrEqual(t, source.peak.Load(), int32(3))
}

func TestEnricher_EnrichAllEmpty(t *testing.T) {
	enricher := NewEnricher(newFakeClient(), EnrichOptions{})
	assert.Empty(t, enricher.EnrichAll(context.Background(), nil))
}

func TestRegionChain(t *testing.T) {
	assert.Equal(t, []string{"BR", "US"}, regionChain("br", []string{"US", "BR", " "}))
	assert.Equal(t, []string{"US", "BR"}, regionChain("", []string{"us", "br"}))
}
