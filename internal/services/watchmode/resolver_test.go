// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package watchmode

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamhub/streamhub/internal/models"
)

type fakeSourceClient struct {
	configured bool
	titleID    int64
	findErr    error
	sources    []Source
	sourcesErr error
	region     string
}

func (f *fakeSourceClient) IsConfigured() bool { return f.configured }

func (f *fakeSourceClient) FindTitleID(context.Context, int64, models.MediaType) (int64, error) {
	return f.titleID, f.findErr
}

func (f *fakeSourceClient) Sources(_ context.Context, _ int64, region string) ([]Source, error) {
	f.region = region
	return f.sources, f.sourcesErr
}

type outcomeRecorder struct {
	outcomes []string
}

func (o *outcomeRecorder) ObserveDirectLinks(outcome string) {
	o.outcomes = append(o.outcomes, outcome)
}

func TestMergeSources_HigherRankWins(t *testing.T) {
	sources := []Source{
		{Name: "Amazon Prime Video", Type: "rent", WebURL: "https://www.primevideo.com/rent"},
		{Name: "Netflix", Type: "sub", WebURL: "https://www.netflix.com/title/1", AndroidURL: "nflx://www.netflix.com/title/1"},
		{Name: "Prime Video", Type: "sub", WebURL: "https://www.primevideo.com/sub", IOSURL: "aiv://aiv/view?gti=1"},
	}

	links := MergeSources(sources, nil)

	assert.Equal(t, []string{"Prime Video", "Netflix"}, links.Platforms())

	prime, ok := links.Get("Prime Video")
	require.True(t, ok)
	assert.Equal(t, "https://www.primevideo.com/sub", prime.Web)
	require.NotNil(t, prime.App)
	assert.Equal(t, "aiv://aiv/view?gti=1", *prime.App)

	netflix, _ := links.Get("Netflix")
	require.NotNil(t, netflix.App)
	assert.Equal(t, "nflx://www.netflix.com/title/1", *netflix.App)
}

func TestMergeSources_TieKeepsFirst(t *testing.T) {
	sources := []Source{
		{Name: "Netflix", Type: "sub", WebURL: "https://www.netflix.com/first"},
		{Name: "Netflix", Type: "sub", WebURL: "https://www.netflix.com/second"},
		{Name: "Netflix", Type: "buy", WebURL: "https://www.netflix.com/third"},
	}

	links := MergeSources(sources, nil)

	netflix, ok := links.Get("Netflix")
	require.True(t, ok)
	assert.Equal(t, "https://www.netflix.com/first", netflix.Web)
}

func TestMergeSources_Filters(t *testing.T) {
	sources := []Source{
		{Name: "Netflix", Type: "sub", WebURL: "nflx://not-a-web-url"},
		{Name: "", SourceName: "Disney Plus", Type: "sub", WebURL: "https://www.disneyplus.com/x", AndroidURL: "not a scheme"},
		{Name: "Max", Type: "sub", WebURL: "https://play.max.com/x"},
		{Type: "sub", WebURL: "https://nameless.example"},
	}

	t.Run("without allow-list", func(t *testing.T) {
		links := MergeSources(sources, nil)
		assert.Equal(t, []string{"Disney+", "HBO Max"}, links.Platforms())

		disney, _ := links.Get("Disney+")
		assert.Nil(t, disney.App)
	})

	t.Run("allow-list is normalized", func(t *testing.T) {
		links := MergeSources(sources, []string{"Disney Plus"})
		assert.Equal(t, []string{"Disney+"}, links.Platforms())
	})
}

func TestResolver_Resolve(t *testing.T) {
	t.Run("resolves and passes region", func(t *testing.T) {
		client := &fakeSourceClient{
			configured: true,
			titleID:    42,
			sources:    []Source{{Name: "Netflix", Type: "sub", WebURL: "https://www.netflix.com/title/1"}},
		}
		recorder := &outcomeRecorder{}

		links := NewResolver(client, "br", recorder).Resolve(context.Background(), 94605, models.MediaTypeTV, nil)

		assert.Equal(t, 1, links.Len())
		assert.Equal(t, "BR", client.region)
		assert.Equal(t, []string{OutcomeResolved}, recorder.outcomes)
	})

	tests := []struct {
		name    string
		client  *fakeSourceClient
		id      int64
		outcome string
	}{
		{name: "not configured", client: &fakeSourceClient{}, id: 1, outcome: OutcomeSkipped},
		{name: "invalid id", client: &fakeSourceClient{configured: true}, id: 0, outcome: OutcomeSkipped},
		{name: "no match", client: &fakeSourceClient{configured: true}, id: 1, outcome: OutcomeNoMatch},
		{name: "search fails", client: &fakeSourceClient{configured: true, findErr: errors.New("boom")}, id: 1, outcome: OutcomeFailed},
		{name: "sources fail", client: &fakeSourceClient{configured: true, titleID: 9, sourcesErr: errors.New("boom")}, id: 1, outcome: OutcomeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &outcomeRecorder{}
			links := NewResolver(tt.client, "BR", recorder).Resolve(context.Background(), tt.id, models.MediaTypeMovie, nil)

			require.NotNil(t, links)
			assert.Equal(t, 0, links.Len())
			assert.Equal(t, []string{tt.outcome}, recorder.outcomes)
		})
	}
}
