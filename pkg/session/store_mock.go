package session

import (
	"sync"
	"time"

	"github.com/segmentio/ksuid"
)

type mockSessionStore struct {
	sessions map[string]*Session
	lock     sync.RWMutex
}

// NewMockSessionStore returns an in-memory store. Suitable for a single
// process; sessions do not survive a restart.
func NewMockSessionStore() Store {
	return &mockSessionStore{
		sessions: make(map[string]*Session),
	}
}

// NewSession creates an empty session with a fresh ID and the default TTL.
func NewSession() *Session {
	return &Session{
		ID:        ksuid.New().String(),
		ExpiresAt: time.Now().Add(TTL),
	}
}

func (s *mockSessionStore) GetSession(id string) (*Session, error) {
	s.lock.RLock()
	session, ok := s.sessions[id]
	s.lock.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.Expired() {
		s.lock.Lock()
		delete(s.sessions, id)
		s.lock.Unlock()
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *mockSessionStore) SaveSession(session *Session) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.sessions[session.ID] = session
	return nil
}

func (s *mockSessionStore) DeleteSession(id string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *mockSessionStore) TakeLoginAttempt(id string) (*LoginAttempt, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	session, ok := s.sessions[id]
	if !ok || session.Expired() {
		return nil, ErrNoPendingLogin
	}
	attempt := session.LoginAttempt
	if attempt == nil {
		return nil, ErrNoPendingLogin
	}
	session.LoginAttempt = nil
	return attempt, nil
}
