package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultSessionTTL = 7 * 24 * time.Hour
	sessionCacheSize  = 1000
	sessionCacheTTL   = 5 * time.Minute
)

// Service signs users up and in and resolves bearer tokens.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time

	sessionTTL time.Duration
	bcryptCost int

	// sessions caches token hash lookups.
	sessions *expirable.LRU[string, Session]
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for session expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSessionTTL sets how long a new session stays valid.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) { s.sessionTTL = ttl }
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.bcryptCost = cost }
}

// NewService creates a Service over the store.
func NewService(store Store, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:      store,
		logger:     logger,
		now:        time.Now,
		sessionTTL: defaultSessionTTL,
		bcryptCost: bcrypt.DefaultCost,
		sessions:   expirable.NewLRU[string, Session](sessionCacheSize, nil, sessionCacheTTL),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || strings.ToLower(addr.Address) != email {
		return ErrInvalidEmail
	}
	return nil
}

func validatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLen {
		return ErrWeakPassword
	}
	return nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateToken() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b[:]), nil
}

// SignUp registers a new account and opens a session for it.
func (s *Service) SignUp(ctx context.Context, email, password string) (User, string, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return User{}, "", err
	}
	if err := validatePassword(password); err != nil {
		return User{}, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return User{}, "", fmt.Errorf("hashing password: %w", err)
	}

	u := User{ID: uuid.NewString(), Email: email, CreatedAt: s.now().UTC()}
	if err := s.store.CreateUser(ctx, u, string(hash)); err != nil {
		return User{}, "", err
	}
	s.logger.Info("user signed up", zap.String("user_id", u.ID))

	token, err := s.openSession(ctx, u)
	if err != nil {
		return User{}, "", err
	}
	return u, token, nil
}

// SignIn checks the credentials and opens a session.
// Unknown emails and wrong passwords both return ErrInvalidCredentials.
func (s *Service) SignIn(ctx context.Context, email, password string) (User, string, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return User{}, "", err
	}

	u, hash, err := s.store.UserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return User{}, "", ErrInvalidCredentials
	}
	if err != nil {
		return User{}, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return User{}, "", ErrInvalidCredentials
	}

	token, err := s.openSession(ctx, u)
	if err != nil {
		return User{}, "", err
	}
	s.logger.Info("user signed in", zap.String("user_id", u.ID))
	return u, token, nil
}

// SignOut revokes the session behind token. Unknown tokens are ignored.
func (s *Service) SignOut(ctx context.Context, token string) error {
	hash := hashToken(token)
	s.sessions.Remove(hash)
	if err := s.store.DeleteSession(ctx, hash); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	return nil
}

// Authenticate resolves a bearer token to its user.
func (s *Service) Authenticate(ctx context.Context, token string) (User, error) {
	if token == "" {
		return User{}, ErrSessionNotFound
	}
	hash := hashToken(token)

	sess, ok := s.sessions.Get(hash)
	if !ok {
		var err error
		sess, err = s.store.SessionByTokenHash(ctx, hash)
		if err != nil {
			return User{}, err
		}
		s.sessions.Add(hash, sess)
	}

	if s.now().After(sess.ExpiresAt) {
		s.sessions.Remove(hash)
		_ = s.store.DeleteSession(ctx, hash)
		return User{}, ErrSessionExpired
	}

	u, err := s.store.UserByID(ctx, sess.UserID)
	if errors.Is(err, ErrUserNotFound) {
		s.sessions.Remove(hash)
		_ = s.store.DeleteSession(ctx, hash)
		return User{}, ErrSessionNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// PruneSessions deletes every expired session.
func (s *Service) PruneSessions(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("pruning sessions: %w", err)
	}
	if n > 0 {
		s.logger.Debug("pruned expired sessions", zap.Int64("count", n))
	}
	return n, nil
}

func (s *Service) openSession(ctx context.Context, u User) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	now := s.now().UTC()
	sess := Session{
		TokenHash: hashToken(token),
		UserID:    u.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return "", err
	}
	return token, nil
}
