// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package watchmode

import (
	"context"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/streamhub/streamhub/internal/models"
	"github.com/streamhub/streamhub/internal/services/platforms"
)

// Direct-link outcomes reported to the Observer.
const (
	OutcomeSkipped  = "skipped"
	OutcomeNoMatch  = "no_match"
	OutcomeResolved = "resolved"
	OutcomeFailed   = "failed"
)

var (
	webURLPattern    = regexp.MustCompile(`(?i)^https?://`)
	appSchemePattern = regexp.MustCompile(`(?i)^[a-z][a-z0-9+.-]*://`)
)

// SourceClient is the provider surface the Resolver depends on.
type SourceClient interface {
	IsConfigured() bool
	FindTitleID(ctx context.Context, tmdbID int64, mediaType models.MediaType) (int64, error)
	Sources(ctx context.Context, titleID int64, region string) ([]Source, error)
}

type Observer interface {
	ObserveDirectLinks(outcome string)
}

type rankedLink struct {
	link models.DirectLink
	rank int
}

// Resolver builds per-platform direct links for one title.
type Resolver struct {
	client   SourceClient
	region   string
	observer Observer
	logger   zerolog.Logger
}

func NewResolver(client SourceClient, region string, observer Observer) *Resolver {
	return &Resolver{
		client:   client,
		region:   strings.ToUpper(strings.TrimSpace(region)),
		observer: observer,
		logger:   log.With().Str("module", "directlinks").Logger(),
	}
}

// Resolve never fails. Missing credentials, unknown titles and upstream errors all
// produce an empty set. A non-empty allowed list restricts the result to those platforms.
func (r *Resolver) Resolve(ctx context.Context, id int64, mediaType models.MediaType, allowed []string) *models.DirectLinkSet {
	empty := models.NewDirectLinkSet()

	if r.client == nil || !r.client.IsConfigured() || id <= 0 {
		r.observe(OutcomeSkipped)
		return empty
	}
	if _, ok := models.ParseMediaType(string(mediaType)); !ok {
		r.observe(OutcomeSkipped)
		return empty
	}

	links, err := r.lookup(ctx, id, mediaType, allowed)
	if err != nil {
		r.logger.Debug().Err(err).Int64("id", id).Str("media_type", mediaType.String()).Msg("direct link lookup failed")
		r.observe(OutcomeFailed)
		return empty
	}
	if links == nil {
		r.observe(OutcomeNoMatch)
		return empty
	}

	r.observe(OutcomeResolved)
	return links
}

func (r *Resolver) lookup(ctx context.Context, id int64, mediaType models.MediaType, allowed []string) (*models.DirectLinkSet, error) {
	titleID, err := r.client.FindTitleID(ctx, id, mediaType)
	if err != nil {
		return nil, errors.Wrap(err, "find title")
	}
	if titleID == 0 {
		return nil, nil
	}

	sources, err := r.client.Sources(ctx, titleID, r.region)
	if err != nil {
		return nil, errors.Wrapf(err, "sources for title %d", titleID)
	}

	return MergeSources(sources, allowed), nil
}

// MergeSources keeps the best offer per normalized platform. Higher-ranked categories replace
// an existing entry; on equal rank the entry seen first stays.
func MergeSources(sources []Source, allowed []string) *models.DirectLinkSet {
	var allow map[string]struct{}
	if normalized := platforms.NormalizeAll(allowed); len(normalized) > 0 {
		allow = make(map[string]struct{}, len(normalized))
		for _, name := range normalized {
			allow[name] = struct{}{}
		}
	}

	var order []string
	best := make(map[string]rankedLink)

	for _, source := range sources {
		platform := platforms.Normalize(source.PlatformName())
		if platform == "" {
			continue
		}
		if allow != nil {
			if _, ok := allow[platform]; !ok {
				continue
			}
		}
		if !webURLPattern.MatchString(source.WebURL) {
			continue
		}

		candidate := rankedLink{
			link: models.DirectLink{App: pickAppURL(source), Web: source.WebURL},
			rank: ParseSourceCategory(source.Type).Rank(),
		}

		current, ok := best[platform]
		if !ok {
			order = append(order, platform)
			best[platform] = candidate
			continue
		}
		if candidate.rank > current.rank {
			best[platform] = candidate
		}
	}

	out := models.NewDirectLinkSet()
	for _, platform := range order {
		out.Put(platform, best[platform].link)
	}
	return out
}

func pickAppURL(source Source) *string {
	for _, candidate := range []string{source.AndroidURL, source.IOSURL} {
		if appSchemePattern.MatchString(candidate) {
			app := candidate
			return &app
		}
	}
	return nil
}

func (r *Resolver) observe(outcome string) {
	if r.observer != nil {
		r.observer.ObserveDirectLinks(outcome)
	}
}
