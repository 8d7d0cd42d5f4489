// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package platforms

import (
	"github.com/streamhub/streamhub/internal/models"
)

// MapTitle derives availableOn and deepLinks for title. Catalog provider names come first,
// followed by any extra platforms only the direct-link set knows about. direct may be nil.
// Platforms without a provider link fall back to the curated table.
func MapTitle(title models.Title, direct *models.DirectLinkSet) models.Title {
	out := title.Clone()

	normalizedDirect := models.NewDirectLinkSet()
	for _, platform := range direct.Platforms() {
		link, _ := direct.Get(platform)
		name := Normalize(platform)
		if name == "" {
			continue
		}
		normalizedDirect.Put(name, link)
	}

	candidates := make([]string, 0, len(title.ProviderNames)+normalizedDirect.Len())
	candidates = append(candidates, title.ProviderNames...)
	candidates = append(candidates, normalizedDirect.Platforms()...)
	out.AvailableOn = NormalizeAll(candidates)

	out.DeepLinks = make([]models.DeepLink, 0, len(out.AvailableOn))
	for _, platform := range out.AvailableOn {
		link := models.DeepLink{
			Platform: platform,
			App:      AppLink(platform, title.Title),
			Web:      WebLink(platform, title.Title),
		}
		directLink, ok := normalizedDirect.Get(platform)
		if !ok {
			directLink, ok = CuratedDirectLink(title.Title, platform)
		}
		if ok {
			link.DirectApp = directLink.App
			web := directLink.Web
			link.DirectWeb = &web
		}
		out.DeepLinks = append(out.DeepLinks, link)
	}

	return out
}

// MapTitles applies MapTitle without direct links to every title, preserving order.
func MapTitles(titles []models.Title) []models.Title {
	out := make([]models.Title, 0, len(titles))
	for _, title := range titles {
		out = append(out, MapTitle(title, nil))
	}
	return out
}
