package core

import (
	"context"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
)

var ErrNoToken = errors.New("no session token")

// TokenStore persists the bearer token between runs. It is the only local
// state this application keeps (the browser-localStorage analog).
type TokenStore interface {
	Read() (string, error)
	Write(token string) error
	Clear() error
}

// Session holds the bearer token for the remote grading backend. It is
// injected into the HTTP client; a 401 upstream expires it exactly once.
type Session struct {
	mu       sync.Mutex
	token    string
	store    TokenStore
	onExpire func()
}

// NewSession loads any persisted token from store. onExpire may be nil.
func NewSession(store TokenStore, onExpire func()) (*Session, error) {
	s := &Session{store: store, onExpire: onExpire}
	if store != nil {
		token, err := store.Read()
		if err != nil {
			return nil, errors.Wrap(err, "session: reading token store")
		}
		s.token = token
	}
	return s, nil
}

// Set stores the token in memory and in the backing store.
func (s *Session) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	if s.store != nil {
		if err := s.store.Write(token); err != nil {
			return errors.Wrap(err, "session: writing token store")
		}
	}
	return nil
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Expire clears the token everywhere and fires the expiry hook. Calling it
// on an already-expired session is a no-op.
func (s *Session) Expire() {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return
	}
	s.token = ""
	if s.store != nil {
		_ = s.store.Clear()
	}
	hook := s.onExpire
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
}

// ExpiresAt reads the exp claim out of the held token without verifying the
// signature; the backend remains the authority on validity.
func (s *Session) ExpiresAt() (time.Time, error) {
	token := s.Token()
	if token == "" {
		return time.Time{}, ErrNoToken
	}
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return time.Time{}, errors.Wrap(err, "session: parsing token")
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}, errors.New("session: token has no exp claim")
	}
	return time.Unix(int64(exp), 0).UTC(), nil
}

// Credentials is the login payload.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Validate() error {
	c.Username = CleanString(c.Username)
	return Validate.Struct(c)
}

// NewAccount is the registration payload.
type NewAccount struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func (a *NewAccount) Validate() error {
	a.Username = CleanString(a.Username)
	a.Email = CleanString(a.Email, true /* lower */)
	return Validate.Struct(a)
}

// AuthAPI is the slice of the remote backend that issues sessions.
type AuthAPI interface {
	Login(ctx context.Context, creds Credentials) (token string, err error)
	Register(ctx context.Context, acc NewAccount) error
}
