package db

import "fmt"

var migrations = []struct {
	name  string
	query string
}{
	{"kv", `
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at TEXT     NOT NULL
		);
	`},
	{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    TEXT     NOT NULL
		);
	`},
	{"sessions", `
		CREATE TABLE IF NOT EXISTS sessions (
			token_hash TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TEXT     NOT NULL,
			expires_at TEXT     NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
	`},
	{"tasks", `
		CREATE TABLE IF NOT EXISTS tasks (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_id      TEXT NOT NULL,
			title         TEXT NOT NULL,
			note          TEXT,
			completed     INTEGER NOT NULL DEFAULT 0,
			location_type TEXT NOT NULL CHECK(location_type IN ('week', 'parking')),
			day           TEXT NOT NULL DEFAULT '',
			period        TEXT NOT NULL DEFAULT '' CHECK(period IN ('', 'morning', 'afternoon')),
			position      INTEGER NOT NULL CHECK(position >= 0),
			created_at    TEXT     NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_tasks_owner ON tasks(owner_id, created_at);
	`},
}

// migrate creates every table that does not exist yet.
func (s *SQLite) migrate() error {
	for _, m := range migrations {
		if _, err := s.db.Exec(m.query); err != nil {
			return fmt.Errorf("creating %s table: %w", m.name, err)
		}
	}
	return nil
}
