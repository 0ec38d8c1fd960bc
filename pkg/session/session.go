package session

import (
	"errors"
	"time"
)

// TTL matches the lifetime of the browser session cookie.
const TTL = 24 * time.Hour

var (
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoPendingLogin is returned when a callback arrives for a browser
	// session without a stored login attempt, or the attempt was already
	// consumed.
	ErrNoPendingLogin = errors.New("no pending login attempt")
)

// LoginAttempt holds the ephemeral secrets of one in-flight login. It is
// single-use: TakeLoginAttempt removes it from the session.
type LoginAttempt struct {
	Verifier string
	State    string
	Nonce    string
}

// Session is the per-browser-session record. LoginAttempt lives only
// between the login redirect and the callback; the remaining fields form
// the identity session established by a successful callback.
type Session struct {
	ID            string
	LoginAttempt  *LoginAttempt
	Authenticated bool
	AccessToken   string
	IDToken       string
	Claims        map[string]any
	UserInfo      map[string]any
	ExpiresAt     time.Time
}

func (s *Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

type Store interface {
	GetSession(id string) (*Session, error)
	SaveSession(session *Session) error
	DeleteSession(id string) error
	// TakeLoginAttempt atomically retrieves and deletes the login attempt
	// of the session. A second take observes ErrNoPendingLogin.
	TakeLoginAttempt(id string) (*LoginAttempt, error)
}
