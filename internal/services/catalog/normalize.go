// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package catalog

import (
	"github.com/streamhub/streamhub/internal/models"
	"github.com/streamhub/streamhub/internal/services/tmdb"
)

const (
	posterBaseURL   = "https://image.tmdb.org/t/p/w500"
	backdropBaseURL = "https://image.tmdb.org/t/p/w780"
)

// NormalizeRecord converts a provider record into a Title. A non-empty hint always
// decides the media type; otherwise the record's own media_type is used, and failing
// that a first_air_date marks a series.
func NormalizeRecord(rec tmdb.Record, hint models.MediaType) models.Title {
	title := models.Title{
		ID:            rec.ID,
		MediaType:     inferMediaType(rec, hint),
		Title:         rec.Title,
		Overview:      rec.Overview,
		Poster:        imageURL(posterBaseURL, rec.PosterPath),
		Backdrop:      imageURL(backdropBaseURL, rec.BackdropPath),
		GenreIDs:      []int{},
		Popularity:    rec.Popularity,
		VoteAverage:   rec.VoteAverage,
		ProviderNames: []string{},
		AvailableOn:   []string{},
		DeepLinks:     []models.DeepLink{},
	}

	if title.Title == "" {
		title.Title = rec.Name
	}

	releaseDate := rec.ReleaseDate
	if title.MediaType == models.MediaTypeTV || releaseDate == "" {
		if rec.FirstAirDate != "" {
			releaseDate = rec.FirstAirDate
		}
	}
	if releaseDate != "" {
		title.ReleaseDate = &releaseDate
	}

	switch {
	case len(rec.GenreIDs) > 0:
		title.GenreIDs = append(title.GenreIDs, rec.GenreIDs...)
	case len(rec.Genres) > 0:
		for _, genre := range rec.Genres {
			title.GenreIDs = append(title.GenreIDs, genre.ID)
		}
	}

	if len(rec.Genres) > 0 {
		title.Genres = make([]string, 0, len(rec.Genres))
		for _, genre := range rec.Genres {
			title.Genres = append(title.Genres, genre.Name)
		}
	}

	return title
}

// IsTitleRecord reports whether a multi-type record is a movie or series (not a person).
func IsTitleRecord(rec tmdb.Record) bool {
	_, ok := models.ParseMediaType(rec.MediaType)
	return ok
}

func inferMediaType(rec tmdb.Record, hint models.MediaType) models.MediaType {
	if hint != "" {
		return hint
	}
	if mediaType, ok := models.ParseMediaType(rec.MediaType); ok {
		return mediaType
	}
	if rec.FirstAirDate != "" {
		return models.MediaTypeTV
	}
	return models.MediaTypeMovie
}

func imageURL(base, path string) *string {
	if path == "" {
		return nil
	}
	u := base + path
	return &u
}
