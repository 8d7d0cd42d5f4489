// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package platforms

import (
	"strings"

	"github.com/streamhub/streamhub/internal/models"
)

func ptr(s string) *string { return &s }

// curatedLinks holds hand-maintained direct links keyed by lower-cased title.
var curatedLinks = map[string]map[string]models.DirectLink{
	"arcane": {
		"Netflix": {
			App: ptr("nflx://www.netflix.com/title/81435684"),
			Web: "https://www.netflix.com/title/81435684",
		},
	},
	"game of thrones": {
		"HBO Max": {
			App: ptr("hbomax://series/urn:hbo:series:GVU2cggagzYNJjhsJATwo"),
			Web: "https://play.max.com/show/6d6d9f7f-7f8f-4c54-96a6-2f4f44b4a8bc",
		},
	},
}

// CuratedDirectLink returns the hand-maintained link for title on platform, if any.
// Provider links always win over these.
func CuratedDirectLink(title, platform string) (models.DirectLink, bool) {
	byPlatform, ok := curatedLinks[strings.ToLower(strings.TrimSpace(title))]
	if !ok {
		return models.DirectLink{}, false
	}
	link, ok := byPlatform[Normalize(platform)]
	return link, ok
}
