// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package platforms owns the static streaming platform catalog: canonical names,
// provider-name aliases, catalog provider ids and per-platform search links.
package platforms

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/streamhub/streamhub/internal/models"
)

type ID string

const (
	Netflix ID = "netflix"
	Max     ID = "max"
	Prime   ID = "prime"
	Disney  ID = "disney"
	Apple   ID = "apple"
)

type definition struct {
	id          ID
	name        string
	color       string
	providerIDs []int
	appSearch   string
	webSearch   string
}

// Search templates take the URL-escaped title as their single %s verb.
var catalog = []definition{
	{
		id:          Netflix,
		name:        "Netflix",
		color:       "#E50914",
		providerIDs: []int{8},
		appSearch:   "nflx://www.netflix.com/search?q=%s",
		webSearch:   "https://www.netflix.com/search?q=%s",
	},
	{
		id:          Max,
		name:        "HBO Max",
		color:       "#6C3BFF",
		providerIDs: []int{1899, 384},
		appSearch:   "hbomax://search/%s",
		webSearch:   "https://play.max.com/search?q=%s",
	},
	{
		id:          Prime,
		name:        "Prime Video",
		color:       "#00A8E1",
		providerIDs: []int{119},
		appSearch:   "primevideo://search?phrase=%s",
		webSearch:   "https://www.primevideo.com/search/ref=atv_nb_sr?phrase=%s",
	},
	{
		id:          Disney,
		name:        "Disney+",
		color:       "#113CCF",
		providerIDs: []int{337},
		appSearch:   "disneyplus://search?q=%s",
		webSearch:   "https://www.disneyplus.com/search/%s",
	},
	{
		id:          Apple,
		name:        "Apple TV+",
		color:       "#A3A3A3",
		providerIDs: []int{350},
		appSearch:   "videos://search?term=%s",
		webSearch:   "https://tv.apple.com/search?term=%s",
	},
}

// aliases keys are matched exactly, case and spacing included.
var aliases = map[string]ID{
	"Max":                         Max,
	"HBO Max":                     Max,
	"HBO MAX":                     Max,
	"Netflix":                     Netflix,
	"Netflix Standard with Ads":   Netflix,
	"Amazon Prime Video":          Prime,
	"Prime Video":                 Prime,
	"Amazon Prime Video with Ads": Prime,
	"Amazon Prime":                Prime,
	"Amazon":                      Prime,
	"PrimeVideo":                  Prime,
	"HBO Max Amazon Channel":      Prime,
	"Disney Plus":                 Disney,
	"Disney+":                     Disney,
	"Apple TV Plus":               Apple,
	"Apple TV+":                   Apple,
	"AppleTV":                     Apple,
}

const fallbackSearch = "https://www.google.com/search?q=%s+streaming"

var (
	byID   = make(map[ID]*definition, len(catalog))
	byName = make(map[string]*definition, len(catalog))
)

func init() {
	for i := range catalog {
		byID[catalog[i].id] = &catalog[i]
		byName[catalog[i].name] = &catalog[i]
	}
}

// Validate checks the alias and platform tables for consistency. It is run once at startup.
func Validate() error {
	seen := make(map[string]struct{}, len(catalog))
	for _, def := range catalog {
		if def.name == "" || def.id == "" {
			return fmt.Errorf("platform %q has no id or name", def.id)
		}
		if _, dup := seen[def.name]; dup {
			return fmt.Errorf("platform name %q declared twice", def.name)
		}
		seen[def.name] = struct{}{}

		if len(def.providerIDs) == 0 {
			return fmt.Errorf("platform %q has no catalog provider ids", def.name)
		}
		if strings.Count(def.appSearch, "%s") != 1 || strings.Count(def.webSearch, "%s") != 1 {
			return fmt.Errorf("platform %q search templates must contain exactly one %%s", def.name)
		}
		if target, ok := aliases[def.name]; !ok || target != def.id {
			return fmt.Errorf("platform %q must alias to itself", def.name)
		}
	}

	for alias, target := range aliases {
		if _, ok := byID[target]; !ok {
			return fmt.Errorf("alias %q points at unknown platform %q", alias, target)
		}
	}

	return nil
}

// Catalog returns the static platform list in display order.
func Catalog() []models.Platform {
	out := make([]models.Platform, 0, len(catalog))
	for _, def := range catalog {
		out = append(out, models.Platform{ID: string(def.id), Name: def.name, Color: def.color})
	}
	return out
}

// Normalize maps a raw provider name onto its canonical platform name.
// Unknown names are returned trimmed but otherwise unchanged.
func Normalize(name string) string {
	trimmed := strings.TrimSpace(name)
	if id, ok := aliases[trimmed]; ok {
		return byID[id].name
	}
	return trimmed
}

// NormalizeAll normalizes names, dropping blanks and duplicates while keeping first-seen order.
func NormalizeAll(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		normalized := Normalize(name)
		if normalized == "" {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

// IsKnown reports whether name normalizes to a catalog platform.
func IsKnown(name string) bool {
	_, ok := byName[Normalize(name)]
	return ok
}

// ProviderIDs returns the catalog provider ids for a platform, or nil when unsupported.
func ProviderIDs(name string) []int {
	def, ok := byName[Normalize(name)]
	if !ok {
		return nil
	}
	ids := make([]int, len(def.providerIDs))
	copy(ids, def.providerIDs)
	return ids
}

// AppLink returns the app-scheme search link for title on platform.
func AppLink(platform, title string) string {
	if def, ok := byName[platform]; ok {
		return fmt.Sprintf(def.appSearch, escape(title))
	}
	return fmt.Sprintf(fallbackSearch, escape(title))
}

// WebLink returns the web search link for title on platform.
func WebLink(platform, title string) string {
	if def, ok := byName[platform]; ok {
		return fmt.Sprintf(def.webSearch, escape(title))
	}
	return fmt.Sprintf(fallbackSearch, escape(title))
}

// Suggest returns canonical platform names that fuzzily resemble name, best match first.
func Suggest(name string) []string {
	query := strings.TrimSpace(name)
	if query == "" {
		return nil
	}

	best := make(map[string]int)
	for alias, id := range aliases {
		canonical := byID[id].name
		rank := -1
		switch {
		case fuzzy.MatchNormalizedFold(query, alias):
			rank = fuzzy.RankMatchNormalizedFold(query, alias)
		case fuzzy.MatchNormalizedFold(alias, query):
			rank = fuzzy.RankMatchNormalizedFold(alias, query)
		}
		if rank < 0 {
			continue
		}
		if current, ok := best[canonical]; !ok || rank < current {
			best[canonical] = rank
		}
	}

	out := make([]string, 0, len(best))
	for canonical := range best {
		out = append(out, canonical)
	}
	sort.Slice(out, func(i, j int) bool {
		if best[out[i]] != best[out[j]] {
			return best[out[i]] < best[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
