// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package catalog

import (
	"context"
	"net/url"
	"strconv"

	"github.com/pkg/errors"

	"github.com/streamhub/streamhub/internal/models"
	"github.com/streamhub/streamhub/internal/services/tmdb"
)

const (
	DefaultMaxPages     = 8
	DefaultMaxStartPage = 500
)

// PageSource returns one page of a list endpoint.
type PageSource interface {
	GetPage(ctx context.Context, path string, params url.Values) (*tmdb.Page, error)
}

// Endpoint describes one paged list query.
type Endpoint struct {
	Path      string
	MediaType models.MediaType // hint passed to the normalizer, may be empty
	Params    url.Values
	Filter    func(tmdb.Record) bool
	// ProviderNames are attached to every title fetched from this endpoint.
	ProviderNames []string
}

// Fetcher pulls consecutive pages of one endpoint.
type Fetcher struct {
	source       PageSource
	maxPages     int
	maxStartPage int
}

func NewFetcher(source PageSource, maxPages, maxStartPage int) *Fetcher {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	if maxStartPage <= 0 {
		maxStartPage = DefaultMaxStartPage
	}
	return &Fetcher{source: source, maxPages: maxPages, maxStartPage: maxStartPage}
}

// Fetch requests pages startPage..startPage+pages-1 one after another and returns the
// normalized titles in page order. pages and startPage are clamped, never rejected.
// Any page failure fails the whole call.
func (f *Fetcher) Fetch(ctx context.Context, endpoint Endpoint, pages, startPage int) ([]models.Title, error) {
	pages = clamp(pages, 1, f.maxPages)
	startPage = clamp(startPage, 1, f.maxStartPage)

	titles := make([]models.Title, 0, pages*20)
	for page := startPage; page < startPage+pages; page++ {
		params := url.Values{}
		for key, values := range endpoint.Params {
			params[key] = append([]string(nil), values...)
		}
		params.Set("page", strconv.Itoa(page))

		result, err := f.source.GetPage(ctx, endpoint.Path, params)
		if err != nil {
			return nil, errors.Wrapf(err, "fetch %s page %d", endpoint.Path, page)
		}

		for _, rec := range result.Results {
			if endpoint.Filter != nil && !endpoint.Filter(rec) {
				continue
			}
			title := NormalizeRecord(rec, endpoint.MediaType)
			if len(endpoint.ProviderNames) > 0 {
				title.ProviderNames = append(title.ProviderNames, endpoint.ProviderNames...)
			}
			titles = append(titles, title)
		}
	}

	return titles, nil
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
