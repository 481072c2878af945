// Package session holds the process-wide credential pair (user identity and
// bearer token) and the two operations allowed to change it.
package session

import (
	"sync"
	"time"

	"github.com/eshaffer321/chartagopm-go/internal/types"
)

// Reader exposes the current credentials to the request pipeline
type Reader interface {
	Token() string
	User() *types.User
	Snapshot() types.Session
}

// Controller is the only writer of the credential pair
type Controller interface {
	SetCredentials(user *types.User, token string) error
	RefreshToken(token string) error
	ClearSession()
}

// Persister stores the session outside the process
type Persister interface {
	Save(s types.Session) error
	Clear() error
}

// Options configures a Store
type Options struct {
	Persister Persister
	Logger    types.Logger
}

// Store is the credential store. The user and token are always written
// together so readers never observe one without the other.
type Store struct {
	// writeMu is held from the in-memory write until persistence and
	// listeners have seen it, so side effects apply in write order.
	writeMu sync.Mutex

	mu        sync.RWMutex
	user      *types.User
	token     string
	expiresAt time.Time

	persister Persister
	logger    types.Logger

	listenerMu sync.Mutex
	listeners  []func(types.Session)
}

var (
	_ Reader     = (*Store)(nil)
	_ Controller = (*Store)(nil)
)

// NewStore creates an empty store
func NewStore(opts *Options) *Store {
	if opts == nil {
		opts = &Options{}
	}
	return &Store{
		persister: opts.Persister,
		logger:    opts.Logger,
	}
}

// Token returns the current bearer token, or "" when signed out
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the current user, or nil when signed out
func (s *Store) User() *types.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUser(s.user)
}

// Snapshot returns both fields read under one lock
func (s *Store) Snapshot() types.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return types.Session{
		User:      copyUser(s.user),
		Token:     s.token,
		ExpiresAt: s.expiresAt,
	}
}

// SetCredentials overwrites the stored pair. A nil user or empty token is
// rejected and leaves the store untouched.
func (s *Store) SetCredentials(user *types.User, token string) error {
	if user == nil || token == "" {
		return types.ErrIncompleteCredentials
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.user = copyUser(user)
	s.token = token
	s.expiresAt = TokenExpiry(token)
	snap := types.Session{User: copyUser(s.user), Token: s.token, ExpiresAt: s.expiresAt}
	s.mu.Unlock()

	s.saved(snap)
	return nil
}

// RefreshToken swaps in a new token for the signed-in user. When nobody is
// signed in it returns ErrNotAuthenticated and changes nothing, so a refresh
// that finishes after a sign-out cannot bring the session back.
func (s *Store) RefreshToken(token string) error {
	if token == "" {
		return types.ErrIncompleteCredentials
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return types.ErrNotAuthenticated
	}
	s.token = token
	s.expiresAt = TokenExpiry(token)
	snap := types.Session{User: copyUser(s.user), Token: s.token, ExpiresAt: s.expiresAt}
	s.mu.Unlock()

	s.saved(snap)
	return nil
}

func (s *Store) saved(snap types.Session) {
	if s.persister != nil {
		if err := s.persister.Save(snap); err != nil && s.logger != nil {
			s.logger.Warn("Failed to persist session", "error", err)
		}
	}

	if s.logger != nil {
		s.logger.Debug("Credentials updated", "userId", snap.User.UserID)
	}

	s.notify(snap)
}

// ClearSession wipes both fields
func (s *Store) ClearSession() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()

	if s.persister != nil {
		if err := s.persister.Clear(); err != nil && s.logger != nil {
			s.logger.Warn("Failed to remove persisted session", "error", err)
		}
	}

	if s.logger != nil {
		s.logger.Info("Session cleared")
	}

	s.notify(types.Session{})
}

// Subscribe registers fn to be called after every credential change.
// fn runs before the change returns and must not change the session itself.
// The returned func removes the subscription.
func (s *Store) Subscribe(fn func(types.Session)) func() {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()

	s.listeners = append(s.listeners, fn)
	idx := len(s.listeners) - 1

	return func() {
		s.listenerMu.Lock()
		defer s.listenerMu.Unlock()
		if idx < len(s.listeners) {
			s.listeners[idx] = nil
		}
	}
}

func (s *Store) notify(snap types.Session) {
	s.listenerMu.Lock()
	listeners := make([]func(types.Session), 0, len(s.listeners))
	for _, fn := range s.listeners {
		if fn != nil {
			listeners = append(listeners, fn)
		}
	}
	s.listenerMu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

func copyUser(u *types.User) *types.User {
	if u == nil {
		return nil
	}
	c := *u
	if u.TeamID != nil {
		id := *u.TeamID
		c.TeamID = &id
	}
	return &c
}
