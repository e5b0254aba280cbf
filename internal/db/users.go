package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/javiermolinar/weekplan/internal/auth"
)

// Users implements auth.Store on the users and sessions tables.
type Users struct {
	db *sql.DB
}

// CreateUser inserts a user. A duplicate email returns auth.ErrEmailTaken.
func (s *Users) CreateUser(ctx context.Context, u auth.User, passwordHash string) error {
	query := `INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, u.ID, u.Email, passwordHash, formatTime(u.CreatedAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return auth.ErrEmailTaken
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// UserByEmail returns the user and the stored password hash.
func (s *Users) UserByEmail(ctx context.Context, email string) (auth.User, string, error) {
	var (
		u         auth.User
		hash      string
		createdAt string
	)
	query := `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`
	err := s.db.QueryRowContext(ctx, query, email).Scan(&u.ID, &u.Email, &hash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, "", auth.ErrUserNotFound
	}
	if err != nil {
		return auth.User{}, "", fmt.Errorf("querying user: %w", err)
	}
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return auth.User{}, "", err
	}
	return u, hash, nil
}

// UserByID returns a user by id.
func (s *Users) UserByID(ctx context.Context, id string) (auth.User, error) {
	var (
		u         auth.User
		createdAt string
	)
	query := `SELECT id, email, created_at FROM users WHERE id = ?`
	err := s.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Email, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, auth.ErrUserNotFound
	}
	if err != nil {
		return auth.User{}, fmt.Errorf("querying user: %w", err)
	}
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return auth.User{}, err
	}
	return u, nil
}

// CreateSession stores a session.
func (s *Users) CreateSession(ctx context.Context, sess auth.Session) error {
	query := `INSERT INTO sessions (token_hash, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		sess.TokenHash, sess.UserID, formatTime(sess.CreatedAt), formatTime(sess.ExpiresAt))
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// SessionByTokenHash returns the session stored under hash.
func (s *Users) SessionByTokenHash(ctx context.Context, hash string) (auth.Session, error) {
	var (
		sess                 auth.Session
		createdAt, expiresAt string
	)
	query := `SELECT token_hash, user_id, created_at, expires_at FROM sessions WHERE token_hash = ?`
	err := s.db.QueryRowContext(ctx, query, hash).Scan(&sess.TokenHash, &sess.UserID, &createdAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Session{}, auth.ErrSessionNotFound
	}
	if err != nil {
		return auth.Session{}, fmt.Errorf("querying session: %w", err)
	}
	if sess.CreatedAt, err = parseTime(createdAt); err != nil {
		return auth.Session{}, err
	}
	if sess.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return auth.Session{}, err
	}
	return sess, nil
}

// DeleteSession removes a session. A missing session returns auth.ErrSessionNotFound.
func (s *Users) DeleteSession(ctx context.Context, hash string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = ?`, hash)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return auth.ErrSessionNotFound
	}
	return nil
}

// DeleteExpiredSessions removes every session that expired before now.
func (s *Users) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, formatTime(now))
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

var _ auth.Store = (*Users)(nil)
