// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/streamhub/streamhub/internal/database"
	"github.com/streamhub/streamhub/internal/models"
	"github.com/streamhub/streamhub/internal/services/platforms"
)

type PreferencesHandler struct {
	store    *models.PreferencesStore
	history  *models.SearchHistoryStore
	onUpdate func()
}

// NewPreferencesHandler builds the user routes. onUpdate, when set, runs after every
// successful preference change.
func NewPreferencesHandler(store *models.PreferencesStore, history *models.SearchHistoryStore, onUpdate func()) *PreferencesHandler {
	return &PreferencesHandler{
		store:    store,
		history:  history,
		onUpdate: onUpdate,
	}
}

func (h *PreferencesHandler) Get(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.store.GetByUserID(r.Context(), database.DefaultUserID)
	if err != nil {
		log.Error().Err(err).Msg("failed to get preferences")
		RespondError(w, http.StatusInternalServerError, "Failed to load preferences")
		return
	}

	RespondData(w, prefs)
}

func (h *PreferencesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input models.PreferencesInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.Warn().Err(err).Msg("failed to decode preferences request")
		RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if input.SelectedPlatforms != nil {
		input.SelectedPlatforms = platforms.NormalizeAll(input.SelectedPlatforms)
	}

	prefs, err := h.store.Update(r.Context(), database.DefaultUserID, &input)
	if err != nil {
		log.Error().Err(err).Msg("failed to update preferences")
		RespondError(w, http.StatusInternalServerError, "Failed to update preferences")
		return
	}

	if h.onUpdate != nil {
		h.onUpdate()
	}

	RespondData(w, prefs)
}

func (h *PreferencesHandler) SearchHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.history.Recent(r.Context(), database.DefaultUserID)
	if err != nil {
		log.Error().Err(err).Msg("failed to get search history")
		RespondError(w, http.StatusInternalServerError, "Failed to load search history")
		return
	}

	RespondData(w, entries)
}
