// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package platforms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamhub/streamhub/internal/models"
)

func strPtr(s string) *string { return &s }

func TestMapTitle_CatalogNamesOnly(t *testing.T) {
	title := models.Title{ID: 1, MediaType: models.MediaTypeMovie, Title: "Dune", ProviderNames: []string{"Max", "HBO Max", "Amazon Prime Video"}}

	mapped := MapTitle(title, nil)

	assert.Equal(t, []string{"HBO Max", "Prime Video"}, mapped.AvailableOn)
	require.Len(t, mapped.DeepLinks, 2)
	assert.Equal(t, "HBO Max", mapped.DeepLinks[0].Platform)
	assert.Equal(t, "hbomax://search/Dune", mapped.DeepLinks[0].App)
	assert.Equal(t, "https://play.max.com/search?q=Dune", mapped.DeepLinks[0].Web)
	assert.Nil(t, mapped.DeepLinks[0].DirectApp)
	assert.Nil(t, mapped.DeepLinks[0].DirectWeb)

	assert.Equal(t, []string{"Max", "HBO Max", "Amazon Prime Video"}, title.ProviderNames, "input must not be mutated")
}

func TestMapTitle_MergesDirectLinks(t *testing.T) {
	title := models.Title{ID: 94605, MediaType: models.MediaTypeTV, Title: "Arcane", ProviderNames: []string{"Netflix"}}

	direct := models.NewDirectLinkSet()
	direct.Put("Netflix", models.DirectLink{Web: "https://www.netflix.com/title/81435684"})
	direct.Put("Disney Plus", models.DirectLink{App: strPtr("disneyplus://title/1"), Web: "https://www.disneyplus.com/title/1"})

	mapped := MapTitle(title, direct)

	assert.Equal(t, []string{"Netflix", "Disney+"}, mapped.AvailableOn)
	require.Len(t, mapped.DeepLinks, 2)

	netflix := mapped.DeepLinks[0]
	assert.Equal(t, "Netflix", netflix.Platform)
	assert.Nil(t, netflix.DirectApp)
	require.NotNil(t, netflix.DirectWeb)
	assert.Contains(t, *netflix.DirectWeb, "netflix.com/title")

	disney := mapped.DeepLinks[1]
	assert.Equal(t, "Disney+", disney.Platform)
	require.NotNil(t, disney.DirectApp)
	assert.Equal(t, "disneyplus://title/1", *disney.DirectApp)
	assert.Equal(t, "disneyplus://search?q=Arcane", disney.App)
}

func TestMapTitle_CuratedDirectLinks(t *testing.T) {
	t.Run("used when the provider has nothing", func(t *testing.T) {
		title := models.Title{ID: 94605, MediaType: models.MediaTypeTV, Title: "  ARCANE ", ProviderNames: []string{"Netflix", "Disney Plus"}}

		mapped := MapTitle(title, nil)

		require.Len(t, mapped.DeepLinks, 2)
		netflix := mapped.DeepLinks[0]
		require.NotNil(t, netflix.DirectApp)
		require.NotNil(t, netflix.DirectWeb)
		assert.Equal(t, "nflx://www.netflix.com/title/81435684", *netflix.DirectApp)
		assert.Equal(t, "https://www.netflix.com/title/81435684", *netflix.DirectWeb)
		assert.Nil(t, mapped.DeepLinks[1].DirectWeb, "curated links only cover their own platform")
	})

	t.Run("provider link wins", func(t *testing.T) {
		title := models.Title{ID: 1399, MediaType: models.MediaTypeTV, Title: "Game of Thrones", ProviderNames: []string{"Max"}}
		direct := models.NewDirectLinkSet()
		direct.Put("HBO Max", models.DirectLink{Web: "https://play.max.com/show/other"})

		mapped := MapTitle(title, direct)

		require.Len(t, mapped.DeepLinks, 1)
		assert.Nil(t, mapped.DeepLinks[0].DirectApp)
		require.NotNil(t, mapped.DeepLinks[0].DirectWeb)
		assert.Equal(t, "https://play.max.com/show/other", *mapped.DeepLinks[0].DirectWeb)
	})

	t.Run("does not add platforms", func(t *testing.T) {
		title := models.Title{ID: 1399, MediaType: models.MediaTypeTV, Title: "Game of Thrones", ProviderNames: []string{"Netflix"}}

		mapped := MapTitle(title, nil)

		assert.Equal(t, []string{"Netflix"}, mapped.AvailableOn)
		require.Len(t, mapped.DeepLinks, 1)
		assert.Nil(t, mapped.DeepLinks[0].DirectWeb)
	})
}

func TestCuratedDirectLink(t *testing.T) {
	link, ok := CuratedDirectLink("game of thrones", "Max")
	require.True(t, ok)
	assert.Equal(t, "https://play.max.com/show/6d6d9f7f-7f8f-4c54-96a6-2f4f44b4a8bc", link.Web)

	_, ok = CuratedDirectLink("Dune", "Netflix")
	assert.False(t, ok)
}

func TestMapTitle_UnknownPlatformFallsBackToSearchEngine(t *testing.T) {
	title := models.Title{ID: 2, MediaType: models.MediaTypeMovie, Title: "Heat", ProviderNames: []string{"Hulu"}}

	mapped := MapTitle(title, nil)

	require.Len(t, mapped.DeepLinks, 1)
	assert.Equal(t, "https://www.google.com/search?q=Heat+streaming", mapped.DeepLinks[0].App)
	assert.Equal(t, mapped.DeepLinks[0].App, mapped.DeepLinks[0].Web)
}

func TestMapTitle_NoProviders(t *testing.T) {
	mapped := MapTitle(models.Title{ID: 3, MediaType: models.MediaTypeMovie, Title: "Nothing"}, models.NewDirectLinkSet())

	assert.NotNil(t, mapped.AvailableOn)
	assert.Empty(t, mapped.AvailableOn)
	assert.NotNil(t, mapped.DeepLinks)
	assert.Empty(t, mapped.DeepLinks)
}

func TestMapTitles(t *testing.T) {
	titles := []models.Title{
		{ID: 1, MediaType: models.MediaTypeMovie, Title: "A", ProviderNames: []string{"Netflix"}},
		{ID: 1, MediaType: models.MediaTypeTV, Title: "B", ProviderNames: []string{"AppleTV"}},
	}

	mapped := MapTitles(titles)

	require.Len(t, mapped, 2)
	assert.Equal(t, []string{"Netflix"}, mapped[0].AvailableOn)
	assert.Equal(t, []string{"Apple TV+"}, mapped[1].AvailableOn)
}
