// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/streamhub/streamhub/internal/domain"
	"github.com/streamhub/streamhub/internal/models"
	"github.com/streamhub/streamhub/internal/services/tmdb"
)

// fakeClient serves canned pages keyed by path. Missing paths return an empty page.
type fakeClient struct {
	mu sync.Mutex

	pages      map[string][]tmdb.Record
	pageErrors map[string]error
	providers  map[models.IdentityKey]*tmdb.WatchProviders
	details    map[models.IdentityKey]*tmdb.Record
	detailErr  map[models.IdentityKey]error

	pageCalls     []url.Values
	pathCalls     map[string]int
	providerCalls int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		pages:      make(map[string][]tmdb.Record),
		pageErrors: make(map[string]error),
		providers:  make(map[models.IdentityKey]*tmdb.WatchProviders),
		details:    make(map[models.IdentityKey]*tmdb.Record),
		detailErr:  make(map[models.IdentityKey]error),
		pathCalls:  make(map[string]int),
	}
}

func (f *fakeClient) IsConfigured() bool { return true }

func (f *fakeClient) GetPage(_ context.Context, path string, params url.Values) (*tmdb.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pageCalls = append(f.pageCalls, params)
	f.pathCalls[path]++

	if err, ok := f.pageErrors[path]; ok {
		return nil, err
	}
	return &tmdb.Page{Page: 1, TotalPages: 1000, Results: f.pages[path]}, nil
}

func (f *fakeClient) GetWatchProviders(_ context.Context, mediaType models.MediaType, id int64) (*tmdb.WatchProviders, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.providerCalls++
	providers, ok := f.providers[models.IdentityKey{MediaType: mediaType, ID: id}]
	if !ok {
		return nil, &domain.UpstreamError{Provider: tmdb.ProviderName, StatusCode: http.StatusInternalServerError, URL: fmt.Sprintf("/%s/%d/watch/providers", mediaType, id)}
	}
	return providers, nil
}

func (f *fakeClient) GetDetails(_ context.Context, mediaType models.MediaType, id int64) (*tmdb.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := models.IdentityKey{MediaType: mediaType, ID: id}
	if err, ok := f.detailErr[key]; ok {
		return nil, err
	}
	if record, ok := f.details[key]; ok {
		return record, nil
	}
	return nil, &domain.UpstreamError{Provider: tmdb.ProviderName, StatusCode: http.StatusNotFound, URL: fmt.Sprintf("/%s/%d", mediaType, id)}
}

func (f *fakeClient) calls(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pathCalls[path]
}

func movie(id int64, title string, popularity float64) tmdb.Record {
	return tmdb.Record{ID: id, Title: title, Popularity: popularity, ReleaseDate: "2024-01-01"}
}

func series(id int64, name string, popularity float64) tmdb.Record {
	return tmdb.Record{ID: id, Name: name, Popularity: popularity, FirstAirDate: "2024-01-01"}
}

func region(link string, flatrate ...string) tmdb.RegionProviders {
	rp := tmdb.RegionProviders{Link: link}
	for i, name := range flatrate {
		rp.Flatrate = append(rp.Flatrate, tmdb.Provider{ProviderID: i + 1, ProviderName: name})
	}
	return rp
}
