package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/javiermolinar/weekplan/internal/auth"
)

// SessionKey is the key holding the signed-in session.
const SessionKey = "weekplanner-session"

type storedSession struct {
	Token string    `json:"token"`
	User  auth.User `json:"user"`
}

func (c *Client) loadSession(ctx context.Context) (*storedSession, error) {
	data, ok, err := c.kv.Get(ctx, SessionKey)
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	if !ok || len(data) == 0 {
		return nil, nil
	}
	var s storedSession
	if err := json.Unmarshal(data, &s); err != nil || s.Token == "" || s.User.ID == "" {
		c.logger.Warn("discarding unreadable session")
		_ = c.kv.Delete(ctx, SessionKey)
		return nil, nil
	}
	return &s, nil
}

func (c *Client) saveSession(ctx context.Context, s *storedSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := c.kv.Set(ctx, SessionKey, data); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}
	return nil
}

// setSession replaces the in-memory and stored session and notifies
// subscribers with the new user, or nil when s is nil.
func (c *Client) setSession(ctx context.Context, s *storedSession) error {
	var err error
	if s == nil {
		err = c.kv.Delete(ctx, SessionKey)
	} else {
		err = c.saveSession(ctx, s)
	}

	c.mu.Lock()
	changed := (c.session == nil) != (s == nil) ||
		(c.session != nil && s != nil && c.session.Token != s.Token)
	c.session = s
	c.mu.Unlock()

	if changed {
		c.subs.notify(userOf(s))
	}
	return err
}

func (c *Client) current() *storedSession {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func userOf(s *storedSession) *auth.User {
	if s == nil {
		return nil
	}
	u := s.User
	return &u
}
