// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package database

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		name:    "users",
		sql: `
			CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			);
		`,
	},
	{
		version: 2,
		name:    "preferences",
		sql: `
			CREATE TABLE IF NOT EXISTS preferences (
				user_id INTEGER PRIMARY KEY,
				favorite_genre TEXT NOT NULL DEFAULT 'Action',
				theme TEXT NOT NULL DEFAULT 'dark',
				selected_platforms TEXT NOT NULL DEFAULT '[]',
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
			);

			CREATE TRIGGER IF NOT EXISTS preferences_updated_at
			AFTER UPDATE ON preferences
			BEGIN
				UPDATE preferences SET updated_at = CURRENT_TIMESTAMP WHERE user_id = NEW.user_id;
			END;
		`,
	},
	{
		version: 3,
		name:    "search_history",
		sql: `
			CREATE TABLE IF NOT EXISTS search_history (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id INTEGER NOT NULL,
				query TEXT NOT NULL,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
			);

			CREATE INDEX IF NOT EXISTS idx_search_history_user_id ON search_history(user_id, id DESC);
		`,
	},
}

func (db *DB) migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return errors.Wrap(err, "create schema_migrations")
	}

	var current int
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return errors.Wrap(err, "read schema version")
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return errors.Wrapf(err, "begin migration %d", m.version)
		}

		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "apply migration %d (%s)", m.version, m.name)
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, m.version, m.name); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "record migration %d", m.version)
		}

		if err := tx.Commit(); err != nil {
			return errors.Wrapf(err, "commit migration %d", m.version)
		}

		log.Debug().Int("version", m.version).Str("name", m.name).Msg("Applied database migration")
	}

	if _, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO users (id, name) VALUES (?, ?)`, DefaultUserID, defaultUserName); err != nil {
		return errors.Wrap(err, "seed default user")
	}

	return nil
}
