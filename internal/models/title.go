// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"fmt"
	"strings"
)

type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
)

// ParseMediaType accepts "movie" and "tv" (case-insensitive); anything else reports false.
func ParseMediaType(s string) (MediaType, bool) {
	switch MediaType(strings.ToLower(strings.TrimSpace(s))) {
	case MediaTypeMovie:
		return MediaTypeMovie, true
	case MediaTypeTV:
		return MediaTypeTV, true
	default:
		return "", false
	}
}

func (m MediaType) String() string {
	return string(m)
}

// IdentityKey is the (mediaType, id) pair every merge and dedup keys on.
type IdentityKey struct {
	MediaType MediaType
	ID        int64
}

func (k IdentityKey) String() string {
	return fmt.Sprintf("%s:%d", k.MediaType, k.ID)
}

// Title is the canonical movie or series record served by the API.
// Instances are built per request and never persisted.
type Title struct {
	ID          int64     `json:"id"`
	MediaType   MediaType `json:"mediaType"`
	Title       string    `json:"title"`
	Overview    string    `json:"overview"`
	Poster      *string   `json:"poster"`
	Backdrop    *string   `json:"backdrop"`
	ReleaseDate *string   `json:"releaseDate"`
	GenreIDs    []int     `json:"genreIds"`
	Genres      []string  `json:"genres,omitempty"`
	Popularity  float64   `json:"popularity"`
	VoteAverage float64   `json:"voteAverage"`

	ProviderNames []string `json:"providerNames"`
	ProviderLink  *string  `json:"providerLink"`
	WatchRegion   *string  `json:"watchRegion"`

	AvailableOn []string   `json:"availableOn"`
	DeepLinks   []DeepLink `json:"deepLinks"`

	RecommendationScore *float64 `json:"recommendationScore,omitempty"`
}

func (t *Title) Key() IdentityKey {
	return IdentityKey{MediaType: t.MediaType, ID: t.ID}
}

// Clone returns a copy whose slices can be mutated without touching t.
func (t *Title) Clone() Title {
	c := *t
	c.GenreIDs = cloneSlice(t.GenreIDs)
	c.Genres = cloneSlice(t.Genres)
	c.ProviderNames = cloneSlice(t.ProviderNames)
	c.AvailableOn = cloneSlice(t.AvailableOn)
	c.DeepLinks = cloneSlice(t.DeepLinks)
	return c
}

// DeepLink points a viewer at a title on one platform. App and Web are generic
// search links; DirectApp and DirectWeb are set only when a direct-link source knows the title.
type DeepLink struct {
	Platform  string  `json:"platform"`
	App       string  `json:"app"`
	Web       string  `json:"web"`
	DirectApp *string `json:"directApp"`
	DirectWeb *string `json:"directWeb"`
}

// DirectLink is the best known app/web link for a title on one platform.
type DirectLink struct {
	App *string `json:"app"`
	Web string  `json:"web"`
}

// Platform is an entry in the static platform catalog.
type Platform struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

func cloneSlice[T any](src []T) []T {
	if src == nil {
		return nil
	}
	dst := make([]T, len(src))
	copy(dst, src)
	return dst
}

// DirectLinkSet maps normalized platform names to direct links, remembering insertion order.
// The zero value and a nil pointer are both empty and safe to read.
type DirectLinkSet struct {
	platforms []string
	links     map[string]DirectLink
}

func NewDirectLinkSet() *DirectLinkSet {
	return &DirectLinkSet{links: make(map[string]DirectLink)}
}

// Put stores link for platform, replacing any previous value without changing its position.
func (s *DirectLinkSet) Put(platform string, link DirectLink) {
	if s.links == nil {
		s.links = make(map[string]DirectLink)
	}
	if _, exists := s.links[platform]; !exists {
		s.platforms = append(s.platforms, platform)
	}
	s.links[platform] = link
}

func (s *DirectLinkSet) Get(platform string) (DirectLink, bool) {
	if s == nil {
		return DirectLink{}, false
	}
	link, ok := s.links[platform]
	return link, ok
}

// Platforms returns platform names in insertion order.
func (s *DirectLinkSet) Platforms() []string {
	if s == nil {
		return nil
	}
	return cloneSlice(s.platforms)
}

func (s *DirectLinkSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.platforms)
}
