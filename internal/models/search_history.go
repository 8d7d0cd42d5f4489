// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/streamhub/streamhub/internal/dbinterface"
)

// RecentSearchLimit caps how many history rows are ever read back.
const RecentSearchLimit = 10

type SearchHistoryEntry struct {
	Query     string    `json:"query"`
	CreatedAt time.Time `json:"createdAt"`
}

type SearchHistoryStore struct {
	db dbinterface.Querier
}

func NewSearchHistoryStore(db dbinterface.Querier) *SearchHistoryStore {
	return &SearchHistoryStore{db: db}
}

// Add appends a query to the user's history. Rows are never pruned.
func (s *SearchHistoryStore) Add(ctx context.Context, userID int, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return errors.New("query is empty")
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO search_history (user_id, query) VALUES (?, ?)`, userID, query)
	return err
}

// Recent returns the newest entries first, at most RecentSearchLimit of them.
func (s *SearchHistoryStore) Recent(ctx context.Context, userID int) ([]SearchHistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT query, created_at
		FROM search_history
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, userID, RecentSearchLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]SearchHistoryEntry, 0, RecentSearchLimit)
	for rows.Next() {
		var entry SearchHistoryEntry
		if err := rows.Scan(&entry.Query, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
