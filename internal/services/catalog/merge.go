// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package catalog

import (
	"math"
	"sort"
	"time"

	"github.com/streamhub/streamhub/internal/models"
)

// Dedupe keeps the first title seen for each (mediaType, id) and drops the rest untouched.
func Dedupe(titles []models.Title) []models.Title {
	out := make([]models.Title, 0, len(titles))
	seen := make(map[models.IdentityKey]struct{}, len(titles))
	for _, title := range titles {
		key := title.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, title)
	}
	return out
}

// MergeProviders collapses duplicates like Dedupe, but unions providerNames of later
// duplicates into the first-seen entry.
func MergeProviders(titles []models.Title) []models.Title {
	out := make([]models.Title, 0, len(titles))
	index := make(map[models.IdentityKey]int, len(titles))
	for _, title := range titles {
		key := title.Key()
		if i, ok := index[key]; ok {
			out[i].ProviderNames = unionStrings(out[i].ProviderNames, title.ProviderNames)
			continue
		}
		index[key] = len(out)
		out = append(out, title.Clone())
	}
	return out
}

// SortByReleaseDate orders newest first. Missing or unparsable dates sort after every
// real date, including pre-1970 ones; equal dates fall back to popularity, highest first.
func SortByReleaseDate(titles []models.Title) {
	sort.SliceStable(titles, func(i, j int) bool {
		di, dj := releaseTimestamp(titles[i]), releaseTimestamp(titles[j])
		if di != dj {
			return di > dj
		}
		return titles[i].Popularity > titles[j].Popularity
	})
}

// SortByPopularity orders the most popular first, keeping input order on ties.
func SortByPopularity(titles []models.Title) {
	sort.SliceStable(titles, func(i, j int) bool {
		return titles[i].Popularity > titles[j].Popularity
	})
}

func truncate(titles []models.Title, limit int) []models.Title {
	if limit > 0 && len(titles) > limit {
		return titles[:limit]
	}
	return titles
}

// undated ranks below any parsable date.
const undated = math.MinInt64

func releaseTimestamp(title models.Title) int64 {
	if title.ReleaseDate == nil {
		return undated
	}
	t, err := time.Parse(time.DateOnly, *title.ReleaseDate)
	if err != nil {
		return undated
	}
	return t.Unix()
}

func unionStrings(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	out = append(out, base...)
	for _, candidate := range extra {
		found := false
		for _, existing := range out {
			if existing == candidate {
				found = true
				break
			}
		}
		if !found {
			out = append(out, candidate)
		}
	}
	return out
}
