// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package recommend ranks titles for a user's favourite genre and subscribed platforms.
package recommend

import (
	"slices"
	"sort"

	"github.com/streamhub/streamhub/internal/models"
)

const (
	Limit      = 10
	genreBonus = 150
	voteWeight = 10
)

// genreBoosts maps a favourite genre onto the catalog genre ids that earn the bonus.
var genreBoosts = map[string][]int{
	"Action":    {28, 12, 878},
	"Comedy":    {35},
	"Drama":     {18},
	"Horror":    {27},
	"Animation": {16},
	"SciFi":     {878},
}

var defaultBoost = []int{28, 18}

// BoostedGenres returns the genre ids that earn a bonus for favoriteGenre.
func BoostedGenres(favoriteGenre string) []int {
	if ids, ok := genreBoosts[favoriteGenre]; ok {
		return slices.Clone(ids)
	}
	return slices.Clone(defaultBoost)
}

// Score is popularity plus a flat bonus for a boosted genre plus ten times the vote average.
func Score(title models.Title, favoriteGenre string) float64 {
	score := title.Popularity + title.VoteAverage*voteWeight

	boosts := genreBoosts[favoriteGenre]
	if boosts == nil {
		boosts = defaultBoost
	}
	for _, id := range title.GenreIDs {
		if slices.Contains(boosts, id) {
			score += genreBonus
			break
		}
	}

	return score
}

// Recommend keeps titles available on at least one selected platform (all titles when
// selected is empty), scores them and returns the best Limit, highest score first.
// selected must already hold canonical platform names.
func Recommend(titles []models.Title, favoriteGenre string, selected []string) []models.Title {
	out := make([]models.Title, 0, len(titles))
	for _, title := range titles {
		if len(selected) > 0 && !availableOnAny(title, selected) {
			continue
		}
		scored := title.Clone()
		score := Score(title, favoriteGenre)
		scored.RecommendationScore = &score
		out = append(out, scored)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].RecommendationScore > *out[j].RecommendationScore
	})

	if len(out) > Limit {
		out = out[:Limit]
	}
	return out
}

func availableOnAny(title models.Title, selected []string) bool {
	for _, platform := range title.AvailableOn {
		if slices.Contains(selected, platform) {
			return true
		}
	}
	return false
}
