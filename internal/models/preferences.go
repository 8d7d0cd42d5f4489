// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/streamhub/streamhub/internal/dbinterface"
)

const (
	DefaultFavoriteGenre = "Action"
	DefaultTheme         = "dark"
)

// Platforms selected for a user the first time their preferences are read.
var DefaultSelectedPlatforms = []string{"Netflix", "Prime Video"}

type Preferences struct {
	UserID            int       `json:"userId"`
	FavoriteGenre     string    `json:"favoriteGenre"`
	Theme             string    `json:"theme"`
	SelectedPlatforms []string  `json:"selectedPlatforms"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// PreferencesInput is a partial update. Empty strings and a nil slice keep the stored value;
// an empty, non-nil slice clears the platform selection.
type PreferencesInput struct {
	FavoriteGenre     string   `json:"favoriteGenre,omitempty"`
	Theme             string   `json:"theme,omitempty"`
	SelectedPlatforms []string `json:"selectedPlatforms,omitempty"`
}

type PreferencesStore struct {
	db dbinterface.Querier
}

func NewPreferencesStore(db dbinterface.Querier) *PreferencesStore {
	return &PreferencesStore{db: db}
}

// GetByUserID returns preferences for a user, creating defaults if none exist
func (s *PreferencesStore) GetByUserID(ctx context.Context, userID int) (*Preferences, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, favorite_genre, theme, selected_platforms, created_at, updated_at
		FROM preferences
		WHERE user_id = ?
	`, userID)

	var p Preferences
	var platformsJSON string

	err := row.Scan(&p.UserID, &p.FavoriteGenre, &p.Theme, &platformsJSON, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return s.createDefault(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	p.SelectedPlatforms = []string{}
	if platformsJSON != "" && platformsJSON != "[]" {
		if err := json.Unmarshal([]byte(platformsJSON), &p.SelectedPlatforms); err != nil {
			p.SelectedPlatforms = []string{}
		}
	}

	if p.FavoriteGenre == "" {
		p.FavoriteGenre = DefaultFavoriteGenre
	}
	if p.Theme == "" {
		p.Theme = DefaultTheme
	}

	return &p, nil
}

// Update merges input into the stored preferences and returns the result.
func (s *PreferencesStore) Update(ctx context.Context, userID int, input *PreferencesInput) (*Preferences, error) {
	if input == nil {
		return nil, errors.New("input is nil")
	}

	existing, err := s.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.FavoriteGenre != "" {
		existing.FavoriteGenre = input.FavoriteGenre
	}
	if input.Theme != "" {
		existing.Theme = input.Theme
	}
	if input.SelectedPlatforms != nil {
		existing.SelectedPlatforms = input.SelectedPlatforms
	}

	platformsJSON, err := json.Marshal(existing.SelectedPlatforms)
	if err != nil {
		return nil, fmt.Errorf("marshal selected platforms: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE preferences
		SET favorite_genre = ?,
		    theme = ?,
		    selected_platforms = ?
		WHERE user_id = ?
	`, existing.FavoriteGenre, existing.Theme, string(platformsJSON), userID)
	if err != nil {
		return nil, err
	}

	return s.GetByUserID(ctx, userID)
}

func (s *PreferencesStore) createDefault(ctx context.Context, userID int) (*Preferences, error) {
	platformsJSON, err := json.Marshal(DefaultSelectedPlatforms)
	if err != nil {
		return nil, fmt.Errorf("marshal selected platforms: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO preferences (user_id, favorite_genre, theme, selected_platforms)
		VALUES (?, ?, ?, ?)
	`, userID, DefaultFavoriteGenre, DefaultTheme, string(platformsJSON))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &Preferences{
		UserID:            userID,
		FavoriteGenre:     DefaultFavoriteGenre,
		Theme:             DefaultTheme,
		SelectedPlatforms: copyStringSlice(DefaultSelectedPlatforms),
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

func copyStringSlice(src []string) []string {
	dst := make([]string, len(src))
	copy(dst, src)
	return dst
}
