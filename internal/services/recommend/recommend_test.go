// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package recommend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamhub/streamhub/internal/models"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		title    models.Title
		favorite string
		want     float64
	}{
		{
			name:     "boosted action",
			title:    models.Title{Popularity: 100, VoteAverage: 7.5, GenreIDs: []int{12}},
			favorite: "Action",
			want:     100 + 150 + 75,
		},
		{
			name:     "no matching genre",
			title:    models.Title{Popularity: 100, VoteAverage: 7.5, GenreIDs: []int{35}},
			favorite: "Action",
			want:     175,
		},
		{
			name:     "unknown genre uses fallback",
			title:    models.Title{Popularity: 10, GenreIDs: []int{18}},
			favorite: "Western",
			want:     160,
		},
		{
			name:     "bonus applied once",
			title:    models.Title{Popularity: 0, GenreIDs: []int{28, 12, 878}},
			favorite: "Action",
			want:     150,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.title, tt.favorite), 1e-9)
		})
	}
}

func TestScore_Monotonic(t *testing.T) {
	base := models.Title{Popularity: 50, VoteAverage: 6, GenreIDs: []int{16}}

	morePopular := base
	morePopular.Popularity = 51
	betterRated := base
	betterRated.VoteAverage = 6.1

	assert.Greater(t, Score(morePopular, "Animation"), Score(base, "Animation"))
	assert.Greater(t, Score(betterRated, "Animation"), Score(base, "Animation"))
}

func TestRecommend(t *testing.T) {
	var titles []models.Title
	for i := 1; i <= 15; i++ {
		titles = append(titles, models.Title{ID: int64(i), MediaType: models.MediaTypeMovie, Popularity: float64(i), AvailableOn: []string{"Netflix"}})
	}
	titles = append(titles,
		models.Title{ID: 100, MediaType: models.MediaTypeTV, Popularity: 1000, AvailableOn: []string{"Apple TV+"}},
		models.Title{ID: 101, MediaType: models.MediaTypeTV, Popularity: 1, GenreIDs: []int{35}, AvailableOn: []string{"Prime Video"}},
	)

	t.Run("filters and ranks", func(t *testing.T) {
		got := Recommend(titles, "Comedy", []string{"Netflix", "Prime Video"})

		require.Len(t, got, Limit)
		assert.Equal(t, int64(101), got[0].ID, "genre bonus outranks raw popularity")
		assert.Equal(t, int64(15), got[1].ID)
		for _, title := range got {
			assert.NotEqual(t, int64(100), title.ID)
			require.NotNil(t, title.RecommendationScore)
		}
		for i := 1; i < len(got); i++ {
			assert.GreaterOrEqual(t, *got[i-1].RecommendationScore, *got[i].RecommendationScore)
		}
	})

	t.Run("empty selection keeps everything", func(t *testing.T) {
		got := Recommend(titles, "Comedy", nil)
		require.Len(t, got, Limit)
		assert.Equal(t, int64(100), got[0].ID)
	})

	t.Run("no overlap", func(t *testing.T) {
		got := Recommend(titles, "Comedy", []string{"Disney+"})
		assert.Empty(t, got)
		assert.NotNil(t, got)
	})

	t.Run("input untouched", func(t *testing.T) {
		Recommend(titles, "Action", nil)
		assert.Nil(t, titles[0].RecommendationScore)
	})
}
