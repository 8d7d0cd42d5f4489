// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/streamhub/streamhub/internal/domain"
)

// DataResponse is the envelope every successful response uses.
type DataResponse struct {
	Data any `json:"data"`
	Meta any `json:"meta,omitempty"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorResponse{Message: message})
}

func RespondData(w http.ResponseWriter, data any) {
	RespondJSON(w, http.StatusOK, DataResponse{Data: data})
}

// respondServiceError maps a service error onto its status. Unexpected failures are logged
// and answered with a generic message.
func respondServiceError(w http.ResponseWriter, logger zerolog.Logger, err error, action string) {
	status := domain.StatusCode(err)
	switch status {
	case http.StatusBadRequest, http.StatusNotFound:
		logger.Debug().Err(err).Msg(action)
		RespondError(w, status, userMessage(err))
	case http.StatusServiceUnavailable:
		logger.Warn().Err(err).Msg(action)
		RespondError(w, status, "Catalog provider is not configured")
	default:
		logger.Error().Err(err).Msg(action)
		RespondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func userMessage(err error) string {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}
	var notFoundErr *domain.NotFoundError
	if errors.As(err, &notFoundErr) {
		return notFoundErr.Message
	}
	return err.Error()
}
