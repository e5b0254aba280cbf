// Package remote is the HTTP client for the hosted backend. A Client serves
// as both the remote task store and the authentication provider.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/javiermolinar/weekplan/internal/api"
	"github.com/javiermolinar/weekplan/internal/auth"
	"github.com/javiermolinar/weekplan/internal/storage"
	"github.com/javiermolinar/weekplan/internal/task"
)

var (
	_ storage.Backend = (*Client)(nil)
	_ auth.Provider   = (*Client)(nil)
)

// Config configures a Client.
type Config struct {
	BaseURL string
	// KV holds the session between runs.
	KV storage.KeyValue

	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration

	// HTTPClient supplies the base transport. Defaults to http.DefaultClient.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to the backend API. It is safe for concurrent use.
type Client struct {
	baseURL string
	kv      storage.KeyValue
	limiter *rate.Limiter
	timeout time.Duration
	base    http.RoundTripper
	logger  *zap.Logger

	mu      sync.RWMutex
	session *storedSession

	subs subscribers
}

// New creates a client and restores any stored session.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base url is required")
	}
	if cfg.KV == nil {
		return nil, errors.New("session store is required")
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	base := http.DefaultTransport
	if cfg.HTTPClient != nil && cfg.HTTPClient.Transport != nil {
		base = cfg.HTTPClient.Transport
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		kv:      cfg.KV,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		timeout: cfg.Timeout,
		base:    base,
		logger:  cfg.Logger,
	}

	s, err := c.loadSession(ctx)
	if err != nil {
		return nil, err
	}
	c.session = s
	return c, nil
}

// httpClient returns a client that adds the bearer token of s, if any.
func (c *Client) httpClient(s *storedSession) *http.Client {
	if s == nil {
		return &http.Client{Transport: c.base, Timeout: c.timeout}
	}
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: s.Token, TokenType: "Bearer"})
	return &http.Client{
		Transport: &oauth2.Transport{Source: src, Base: c.base},
		Timeout:   c.timeout,
	}
}

type envelope struct {
	ErrorCode int             `json:"error_code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
}

func decodeData(data json.RawMessage, out any) error {
	if out == nil || len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, out)
}

// call sends one request. Authenticated calls fail with ErrNotSignedIn when
// there is no session, and a 401 on them clears the session.
func (c *Client) call(ctx context.Context, method, path string, authed bool, body, out any) error {
	var s *storedSession
	if authed {
		if s = c.current(); s == nil {
			return ErrNotSignedIn
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal %s %s request: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient(s).Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("backend call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s %s response: %w", method, path, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &APIError{Status: resp.StatusCode, Code: -1, Message: snippet(raw)}
	}

	if resp.StatusCode >= 400 || env.ErrorCode != api.CodeOK {
		apiErr := &APIError{
			Status:  resp.StatusCode,
			Code:    env.ErrorCode,
			Message: env.Message,
			Err:     domainError(env),
		}
		if authed && resp.StatusCode == http.StatusUnauthorized {
			c.logger.Info("session rejected by backend, signing out")
			if err := c.setSession(ctx, nil); err != nil {
				c.logger.Warn("clearing session failed", zap.Error(err))
			}
		}
		return apiErr
	}

	if err := decodeData(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func snippet(raw []byte) string {
	const maxLen = 200
	s := strings.TrimSpace(string(raw))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}

// SignUp registers an account and signs in.
func (c *Client) SignUp(ctx context.Context, email, password string) (*auth.User, error) {
	return c.authenticate(ctx, api.PathSignUp, email, password)
}

// SignIn opens a session for an existing account.
func (c *Client) SignIn(ctx context.Context, email, password string) (*auth.User, error) {
	return c.authenticate(ctx, api.PathSignIn, email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (*auth.User, error) {
	var res api.AuthResult
	creds := api.Credentials{Email: email, Password: password}
	if err := c.call(ctx, http.MethodPost, path, false, creds, &res); err != nil {
		return nil, err
	}
	s := &storedSession{Token: res.Token, User: res.User}
	if err := c.setSession(ctx, s); err != nil {
		return nil, err
	}
	c.logger.Info("signed in", zap.String("user_id", res.User.ID))
	return userOf(s), nil
}

// SignOut revokes the session. The local session is cleared even when the
// backend cannot be reached.
func (c *Client) SignOut(ctx context.Context) error {
	if c.current() == nil {
		return nil
	}
	if err := c.call(ctx, http.MethodPost, api.PathSignOut, true, nil, nil); err != nil {
		c.logger.Warn("backend sign out failed", zap.Error(err))
	}
	return c.setSession(ctx, nil)
}

// CurrentUser returns the signed-in user or nil.
func (c *Client) CurrentUser() *auth.User {
	return userOf(c.current())
}

// OnSessionChange registers fn for sign in and sign out.
func (c *Client) OnSessionChange(fn func(*auth.User)) func() {
	return c.subs.add(fn)
}

// Refresh checks the stored session against the backend. An expired session
// is cleared and reported as auth.ErrSessionExpired.
func (c *Client) Refresh(ctx context.Context) (*auth.User, error) {
	var u auth.User
	if err := c.call(ctx, http.MethodGet, api.PathSession, true, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) checkOwner(ownerID string) error {
	s := c.current()
	if s == nil {
		return ErrNotSignedIn
	}
	if ownerID == "" {
		return storage.ErrNoOwner
	}
	if ownerID != s.User.ID {
		return ErrOwnerMismatch
	}
	return nil
}

// List returns the owner's tasks in creation order.
func (c *Client) List(ctx context.Context, ownerID string) ([]*task.Task, error) {
	if err := c.checkOwner(ownerID); err != nil {
		return nil, err
	}
	var out api.TaskList
	if err := c.call(ctx, http.MethodGet, api.PathTasks, true, nil, &out); err != nil {
		return nil, err
	}
	return storage.Tasks(out.Tasks)
}

// Insert stores a task. The backend assigns the id.
func (c *Client) Insert(ctx context.Context, ownerID string, t *task.Task) (*task.Task, error) {
	if err := c.checkOwner(ownerID); err != nil {
		return nil, err
	}
	var out storage.Record
	if err := c.call(ctx, http.MethodPost, api.PathTasks, true, storage.NewRecord(ownerID, t), &out); err != nil {
		return nil, err
	}
	return out.Task()
}

// Update applies a patch to one of the owner's tasks.
func (c *Client) Update(ctx context.Context, id int64, ownerID string, p task.Patch) (*task.Task, error) {
	if err := c.checkOwner(ownerID); err != nil {
		return nil, err
	}
	var out storage.Record
	if err := c.call(ctx, http.MethodPatch, taskPath(id), true, storage.NewPatchRecord(p), &out); err != nil {
		return nil, err
	}
	return out.Task()
}

// Delete removes one of the owner's tasks.
func (c *Client) Delete(ctx context.Context, id int64, ownerID string) error {
	if err := c.checkOwner(ownerID); err != nil {
		return err
	}
	return c.call(ctx, http.MethodDelete, taskPath(id), true, nil, nil)
}

// BulkInsert stores every record in one request. The backend writes all of
// them or none.
func (c *Client) BulkInsert(ctx context.Context, records []storage.Record) ([]*task.Task, error) {
	if len(records) == 0 {
		return nil, nil
	}
	for _, r := range records {
		if err := c.checkOwner(r.OwnerID); err != nil {
			return nil, err
		}
	}
	var out api.TaskList
	if err := c.call(ctx, http.MethodPost, api.PathTasksBulk, true, api.BulkRequest{Tasks: records}, &out); err != nil {
		return nil, err
	}
	return storage.Tasks(out.Tasks)
}

func taskPath(id int64) string {
	return api.PathTasks + "/" + strconv.FormatInt(id, 10)
}
