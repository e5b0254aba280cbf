// Package db provides SQLite storage: the local key/value table used by the
// client and the task, user and session tables used by the backend.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLite is an open database with every table migrated.
type SQLite struct {
	db *sql.DB
}

// New opens the database at path, creating parent directories, and runs migrations.
func New(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// KV returns the key/value view of the database.
func (s *SQLite) KV() *KV {
	return &KV{db: s.db}
}

// Tasks returns the owner-scoped task table.
func (s *SQLite) Tasks() *Tasks {
	return &Tasks{db: s.db}
}

// Users returns the user and session tables.
func (s *SQLite) Users() *Users {
	return &Users{db: s.db}
}

// Close releases the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime accepts the stored layout and the trimmed RFC 3339 form the driver
// returns for columns declared DATETIME by older databases.
func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return t, nil
}
