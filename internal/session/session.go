// Package session holds the bearer credential used for board service calls.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotLoggedIn is returned when an operation needs a credential and none is held
var ErrNotLoggedIn = errors.New("not logged in, run `plando login`")

// Session is the credential for one server. It is safe for concurrent use;
// remote calls read the token from command goroutines.
type Session struct {
	mu        sync.RWMutex
	serverURL string
	token     string
	email     string
}

// New creates a session for a server, optionally already holding a token
func New(serverURL, token, email string) *Session {
	return &Session{serverURL: serverURL, token: token, email: email}
}

// Token implements remote.TokenSource
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// ServerURL returns the server this session belongs to
func (s *Session) ServerURL() string {
	return s.serverURL
}

// Email returns the address used to log in
func (s *Session) Email() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.email
}

// Set stores a new credential
func (s *Session) Set(token, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.email = email
}

// Clear forgets the credential
func (s *Session) Clear() {
	s.Set("", "")
}

// LoggedIn reports whether a token is held
func (s *Session) LoggedIn() bool {
	return s.Token() != ""
}

// Claims is what the client can read from a bearer token. The signature is
// not checked: the server is the only party that can verify it.
type Claims struct {
	UserID string `json:"userId,omitempty"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// ParseClaims decodes the claims of a JWT without verifying it
func ParseClaims(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrNotLoggedIn
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	return claims, nil
}

// Identity returns the best human-readable name for the token's user
func (c *Claims) Identity() string {
	switch {
	case c.Email != "":
		return c.Email
	case c.Subject != "":
		return c.Subject
	default:
		return c.UserID
	}
}

// Expiry returns the expiry, and false when the token does not expire
func (c *Claims) Expiry() (time.Time, bool) {
	if c.ExpiresAt == nil {
		return time.Time{}, false
	}
	return c.ExpiresAt.Time, true
}

// Expired reports whether the token is past its expiry at now
func (c *Claims) Expired(now time.Time) bool {
	exp, ok := c.Expiry()
	return ok && !now.Before(exp)
}
