// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package catalog

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamhub/streamhub/internal/models"
	"github.com/streamhub/streamhub/internal/services/tmdb"
)

func TestFetcher_ClampsPages(t *testing.T) {
	tests := []struct {
		name          string
		pages         int
		startPage     int
		wantCalls     int
		wantFirstPage string
	}{
		{name: "pages above max", pages: 100, startPage: 1, wantCalls: 8, wantFirstPage: "1"},
		{name: "pages below min", pages: 0, startPage: 1, wantCalls: 1, wantFirstPage: "1"},
		{name: "negative start page", pages: 2, startPage: -4, wantCalls: 2, wantFirstPage: "1"},
		{name: "start page above max", pages: 1, startPage: 9999, wantCalls: 1, wantFirstPage: "500"},
		{name: "in range", pages: 3, startPage: 4, wantCalls: 3, wantFirstPage: "4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newFakeClient()
			fetcher := NewFetcher(client, 8, 500)

			_, err := fetcher.Fetch(context.Background(), Endpoint{Path: "/movie/popular"}, tt.pages, tt.startPage)
			require.NoError(t, err)

			require.Len(t, client.pageCalls, tt.wantCalls)
			assert.Equal(t, tt.wantFirstPage, client.pageCalls[0].Get("page"))
		})
	}
}

func TestFetcher_SequentialPagesAndParams(t *testing.T) {
	client := newFakeClient()
	client.pages["/discover/movie"] = []tmdb.Record{movie(1, "One", 10)}
	fetcher := NewFetcher(client, 8, 500)

	endpoint := Endpoint{
		Path:          "/discover/movie",
		MediaType:     models.MediaTypeMovie,
		Params:        url.Values{"with_watch_providers": {"8"}},
		ProviderNames: []string{"Netflix"},
	}

	titles, err := fetcher.Fetch(context.Background(), endpoint, 3, 2)
	require.NoError(t, err)

	require.Len(t, client.pageCalls, 3)
	for i, params := range client.pageCalls {
		assert.Equal(t, []string{"2", "3", "4"}[i], params.Get("page"))
		assert.Equal(t, "8", params.Get("with_watch_providers"))
	}
	assert.Empty(t, endpoint.Params.Get("page"), "endpoint params must not be mutated")

	require.Len(t, titles, 3)
	for _, title := range titles {
		assert.Equal(t, []string{"Netflix"}, title.ProviderNames)
		assert.Equal(t, models.MediaTypeMovie, title.MediaType)
	}
}

func TestFetcher_AppliesFilter(t *testing.T) {
	client := newFakeClient()
	client.pages["/search/multi"] = []tmdb.Record{
		{ID: 1, MediaType: "movie", Title: "Batman"},
		{ID: 2, MediaType: "person", Name: "Michael Keaton"},
		{ID: 3, MediaType: "tv", Name: "Batman: The Animated Series"},
	}
	fetcher := NewFetcher(client, 8, 500)

	titles, err := fetcher.Fetch(context.Background(), Endpoint{Path: "/search/multi", Filter: IsTitleRecord}, 1, 1)
	require.NoError(t, err)

	require.Len(t, titles, 2)
	assert.Equal(t, models.MediaTypeMovie, titles[0].MediaType)
	assert.Equal(t, models.MediaTypeTV, titles[1].MediaType)
}

func TestFetcher_AnyPageFailureFailsCall(t *testing.T) {
	client := newFakeClient()
	client.pageErrors["/tv/popular"] = errors.New("connection reset")
	fetcher := NewFetcher(client, 8, 500)

	titles, err := fetcher.Fetch(context.Background(), Endpoint{Path: "/tv/popular"}, 3, 1)
	require.Error(t, err)
	assert.Nil(t, titles)
	assert.Len(t, client.pageCalls, 1, "no further pages after a failure")
}
