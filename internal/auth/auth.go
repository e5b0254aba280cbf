// Package auth handles sign up, sign in and sessions.
//
// The Service runs inside the HTTP backend. Clients see authentication
// through the Provider interface, implemented by the remote client.
package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionExpired     = errors.New("session expired")
	ErrUserNotFound       = errors.New("user not found")
	ErrSessionNotFound    = errors.New("session not found")
)

// MinPasswordLen is the shortest accepted password.
const MinPasswordLen = 6

// User is an authenticated account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is a stored sign-in. Only the token hash is kept.
type Session struct {
	TokenHash string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Provider is the client side view of authentication.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (*User, error)
	SignIn(ctx context.Context, email, password string) (*User, error)
	SignOut(ctx context.Context) error
	// CurrentUser returns nil when nobody is signed in.
	CurrentUser() *User
	// OnSessionChange registers fn for sign in and sign out. fn receives nil on sign out.
	OnSessionChange(fn func(*User)) (unsubscribe func())
}

// Store persists users and sessions.
type Store interface {
	CreateUser(ctx context.Context, u User, passwordHash string) error
	UserByEmail(ctx context.Context, email string) (User, string, error)
	UserByID(ctx context.Context, id string) (User, error)
	CreateSession(ctx context.Context, s Session) error
	SessionByTokenHash(ctx context.Context, hash string) (Session, error)
	DeleteSession(ctx context.Context, hash string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

type ctxKey string

const userContextKey ctxKey = "weekplan.auth.user"

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// UserFromContext returns the user stored by WithUser.
func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userContextKey).(User)
	return u, ok
}
