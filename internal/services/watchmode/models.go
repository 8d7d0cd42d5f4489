// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package watchmode

import "strings"

// SearchResult is one entry of the "/search/" title_results array.
type SearchResult struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Year        int    `json:"year"`
	TMDBID      int64  `json:"tmdb_id"`
	TMDBType    string `json:"tmdb_type"`
	ResultType  string `json:"result_type"`
	ImageURL    string `json:"image_url"`
	IMDBID      string `json:"imdb_id"`
	Description string `json:"description"`
}

type searchResponse struct {
	TitleResults []SearchResult `json:"title_results"`
}

// Source is one offer of a title on a streaming source.
type Source struct {
	SourceID    int64   `json:"source_id"`
	Name        string  `json:"name"`
	SourceName  string  `json:"source_name"`
	DisplayName string  `json:"display_name"`
	Type        string  `json:"type"`
	Region      string  `json:"region"`
	WebURL      string  `json:"web_url"`
	AndroidURL  string  `json:"android_url"`
	IOSURL      string  `json:"ios_url"`
	Format      string  `json:"format"`
	Price       float64 `json:"price"`
}

// PlatformName returns the first non-blank of the source's name fields.
func (s Source) PlatformName() string {
	for _, candidate := range []string{s.Name, s.SourceName, s.DisplayName} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// SourceCategory is the offer type of a Source, ordered by how directly it lets a
// subscriber watch.
type SourceCategory int

const (
	CategoryUnknown SourceCategory = iota
	CategoryPurchase
	CategoryFree
	CategorySubscription
)

// Rank is the merge priority of the category. Higher wins.
func (c SourceCategory) Rank() int {
	return int(c)
}

func (c SourceCategory) String() string {
	switch c {
	case CategorySubscription:
		return "subscription"
	case CategoryFree:
		return "free"
	case CategoryPurchase:
		return "purchase"
	default:
		return "unknown"
	}
}

// ParseSourceCategory maps a source "type" value onto its category.
func ParseSourceCategory(kind string) SourceCategory {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "sub", "subscription":
		return CategorySubscription
	case "free", "ads", "tve":
		return CategoryFree
	case "buy", "rent", "purchase":
		return CategoryPurchase
	default:
		return CategoryUnknown
	}
}
