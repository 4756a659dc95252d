// Package session holds the authenticated user's session and supplies its
// token to outgoing requests.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/oauth2"
)

// ErrActive is returned when a session is set while another is active.
var ErrActive = errors.New("session already active")

// Session is one authenticated session.
type Session struct {
	Username string        `json:"username"`
	Token    *oauth2.Token `json:"token"`
}

// Credentials are what a user types into a login form.
type Credentials struct {
	Username string
	Password string
}

// Authenticator exchanges credentials for a session.
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (Session, error)
}

// TokenProvider supplies the current token. It has no side effects.
type TokenProvider interface {
	// Token returns the current token, or false if none is available.
	Token() (*oauth2.Token, bool)
}

// Holder is a TokenProvider whose session is set on login and cleared on logout.
type Holder struct {
	mu   sync.RWMutex
	sess *Session
}

// NewHolder returns a Holder for s. A nil s yields an empty holder.
func NewHolder(s *Session) *Holder {
	h := &Holder{}
	if s != nil {
		c := *s
		h.sess = &c
	}
	return h
}

// Token implements TokenProvider. A token with an empty access token
// counts as absent.
func (h *Holder) Token() (*oauth2.Token, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.sess == nil || h.sess.Token == nil || h.sess.Token.AccessToken == "" {
		return nil, false
	}
	return h.sess.Token, true
}

// Username returns the logged-in user's name, or "" if there is no session.
func (h *Holder) Username() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.sess == nil {
		return ""
	}
	return h.sess.Username
}

// Set starts a session. It fails with ErrActive if one is already set.
func (h *Holder) Set(s Session) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sess != nil {
		return ErrActive
	}
	h.sess = &s
	return nil
}

// Clear ends the session. It reports whether a session was active.
func (h *Holder) Clear() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	had := h.sess != nil
	h.sess = nil
	return had
}

// Load reads a session saved by Save.
// Returns an error satisfying os.IsNotExist if no session is stored.
func Load(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("invalid session file: %w", err)
	}
	return &s, nil
}

// Save writes a session to path with mode 0600.
func Save(path string, s Session) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
